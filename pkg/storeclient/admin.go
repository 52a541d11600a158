package storeclient

import (
	"context"
	"net/http"
	"net/url"
	"time"
)

// Order is the admin listing's read model: a reshaped projection the
// client never mutates.
type Order struct {
	ID          string      `json:"_id"`
	User        OrderUser   `json:"user"`
	Items       []OrderItem `json:"items"`
	Total       float64     `json:"total"`
	TotalAmount float64     `json:"totalAmount"`
	Date        time.Time   `json:"date"`
	CreatedAt   time.Time   `json:"createdAt"`
}

type OrderUser struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

type OrderItem struct {
	Product  OrderProduct `json:"product"`
	Quantity int          `json:"quantity"`
	Price    float64      `json:"price"`
}

type OrderProduct struct {
	Name     string  `json:"name"`
	Category string  `json:"category"`
	Price    float64 `json:"price"`
	Image    string  `json:"image"`
}

// AdminOrders fetches the filtered, sorted order listing.
func (c *Client) AdminOrders(ctx context.Context, params ListingParams) ([]Order, error) {
	var orders []Order
	if err := c.do(ctx, http.MethodGet, "/admin/orders", params.Values(), nil, &orders); err != nil {
		return nil, err
	}
	return orders, nil
}

// ContactMessage mirrors the stored contact document.
type ContactMessage struct {
	ID        string    `json:"_id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Subject   string    `json:"subject"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"createdAt"`
}

// SubmitContact sends a contact-form message; no session required.
func (c *Client) SubmitContact(ctx context.Context, name, email, subject, message string) error {
	return c.do(ctx, http.MethodPost, "/contact", nil, map[string]string{
		"name":    name,
		"email":   email,
		"subject": subject,
		"message": message,
	}, nil)
}

func (c *Client) ContactMessages(ctx context.Context) ([]ContactMessage, error) {
	var resp struct {
		Messages []ContactMessage `json:"messages"`
	}
	if err := c.do(ctx, http.MethodGet, "/contact-messages", nil, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Messages, nil
}

func (c *Client) DeleteContactMessage(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/contact-messages/"+url.PathEscape(id), nil, nil, nil)
}
