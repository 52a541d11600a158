package service

import (
	"context"
	"time"

	"kidotrendz/storefront/internal/listing"
	"kidotrendz/storefront/internal/models"
)

const placeholderImage = "placeholder.jpg"

type OrderStore interface {
	List(ctx context.Context, query listing.Query) ([]models.Order, error)
}

// OrderService is the admin read model over orders written by the checkout
// flow; it never mutates them.
type OrderService struct {
	orders OrderStore
}

func NewOrderService(orders OrderStore) *OrderService {
	return &OrderService{orders: orders}
}

type OrderView struct {
	ID          string          `json:"_id"`
	User        OrderUserView   `json:"user"`
	Items       []OrderItemView `json:"items"`
	Total       float64         `json:"total"`
	TotalAmount float64         `json:"totalAmount"`
	Date        time.Time       `json:"date"`
	CreatedAt   time.Time       `json:"createdAt"`
}

type OrderUserView struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

type OrderItemView struct {
	Product  OrderProductView `json:"product"`
	Quantity int              `json:"quantity"`
	Price    float64          `json:"price"`
}

type OrderProductView struct {
	Name     string  `json:"name"`
	Category string  `json:"category"`
	Price    float64 `json:"price"`
	Image    string  `json:"image"`
}

// List executes the listing query and reshapes stored orders for the admin
// table: per-item price prefers the purchase-time snapshot, and a missing
// product image falls back to a placeholder.
func (s *OrderService) List(ctx context.Context, query listing.Query) ([]OrderView, error) {
	orders, err := s.orders.List(ctx, query)
	if err != nil {
		return nil, err
	}

	views := make([]OrderView, 0, len(orders))
	for _, order := range orders {
		views = append(views, reshapeOrder(order))
	}
	return views, nil
}

func reshapeOrder(order models.Order) OrderView {
	items := make([]OrderItemView, 0, len(order.Items))
	for _, item := range order.Items {
		image := item.Product.Image
		if image == "" {
			image = placeholderImage
		}
		items = append(items, OrderItemView{
			Product: OrderProductView{
				Name:     item.Product.Name,
				Category: item.Product.Category,
				Price:    item.Product.Price,
				Image:    image,
			},
			Quantity: item.Quantity,
			Price:    item.UnitPrice(),
		})
	}

	return OrderView{
		ID: order.ID,
		User: OrderUserView{
			Name:  order.User.Name,
			Email: order.User.Email,
		},
		Items:       items,
		Total:       order.TotalAmount,
		TotalAmount: order.TotalAmount,
		Date:        order.CreatedAt,
		CreatedAt:   order.CreatedAt,
	}
}
