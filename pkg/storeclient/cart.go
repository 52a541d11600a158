package storeclient

import (
	"context"
	"net/http"
	"sync"

	"github.com/shopspring/decimal"

	"kidotrendz/storefront/internal/apierr"
)

// Product is the catalog item shape the cart snapshots from.
type Product struct {
	ID          string   `json:"_id"`
	Name        string   `json:"name"`
	Description string   `json:"description,omitempty"`
	Price       float64  `json:"price"`
	Image       string   `json:"image,omitempty"`
	Category    string   `json:"category"`
	Gender      string   `json:"gender,omitempty"`
	Sizes       []string `json:"sizes,omitempty"`
	IsFeatured  bool     `json:"isFeatured"`
}

// CartLine is one cart entry. Identity is (ProductID, Size); UnitPrice is
// snapshotted when the line is created and never follows later catalog
// price changes.
type CartLine struct {
	ProductID string
	Size      string
	Name      string
	Image     string
	UnitPrice decimal.Decimal
	Quantity  int
}

func (l CartLine) Subtotal() decimal.Decimal {
	return l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// Cart aggregates lines for the current session. Mutations are local and
// synchronous; Load/Save exchange state with the server. Lines keep
// insertion order for display.
type Cart struct {
	mu     sync.Mutex
	lines  []*CartLine
	client *Client
}

func newCart(client *Client) *Cart {
	return &Cart{client: client}
}

// Add inserts a new line with quantity 1, or bumps the quantity of the
// line with the same (product, size) identity.
func (c *Cart) Add(product Product, size string) error {
	if !c.client.session.Authenticated() {
		return apierr.Unauthenticated("login required to add to cart")
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if line := c.find(product.ID, size); line != nil {
		line.Quantity++
		return nil
	}

	c.lines = append(c.lines, &CartLine{
		ProductID: product.ID,
		Size:      size,
		Name:      product.Name,
		Image:     product.Image,
		UnitPrice: decimal.NewFromFloat(product.Price),
		Quantity:  1,
	})
	return nil
}

// UpdateQuantity sets the line's quantity; anything below 1 removes the
// line entirely. Unknown lines are a no-op.
func (c *Cart) UpdateQuantity(productID, size string, quantity int) {
	if quantity < 1 {
		c.Remove(productID, size)
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if line := c.find(productID, size); line != nil {
		line.Quantity = quantity
	}
}

// Remove deletes the line; absent lines are not an error.
func (c *Cart) Remove(productID, size string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for i, line := range c.lines {
		if line.ProductID == productID && line.Size == size {
			c.lines = append(c.lines[:i], c.lines[i+1:]...)
			return
		}
	}
}

func (c *Cart) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lines = nil
}

// Lines returns a copy in insertion order.
func (c *Cart) Lines() []CartLine {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]CartLine, len(c.lines))
	for i, line := range c.lines {
		out[i] = *line
	}
	return out
}

// Total is Σ unitPrice × quantity, computed on every call.
func (c *Cart) Total() decimal.Decimal {
	c.mu.Lock()
	defer c.mu.Unlock()

	total := decimal.Zero
	for _, line := range c.lines {
		total = total.Add(line.Subtotal())
	}
	return total
}

func (c *Cart) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.lines)
}

// find assumes the mutex is held.
func (c *Cart) find(productID, size string) *CartLine {
	for _, line := range c.lines {
		if line.ProductID == productID && line.Size == size {
			return line
		}
	}
	return nil
}

type cartItemPayload struct {
	ProductID string  `json:"productId"`
	Size      string  `json:"size,omitempty"`
	Quantity  int     `json:"quantity"`
	Price     float64 `json:"price"`
}

// Load replaces the local cart with the server-known state, typically once
// after login. Product snapshots beyond price are not stored server-side;
// name and image are re-resolved lazily by display code.
func (c *Cart) Load(ctx context.Context) error {
	var resp struct {
		Items []cartItemPayload `json:"items"`
	}
	if err := c.client.do(ctx, http.MethodGet, "/cart", nil, nil, &resp); err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.lines = c.lines[:0]
	for _, item := range resp.Items {
		c.lines = append(c.lines, &CartLine{
			ProductID: item.ProductID,
			Size:      item.Size,
			UnitPrice: decimal.NewFromFloat(item.Price),
			Quantity:  item.Quantity,
		})
	}
	return nil
}

// Save pushes the local cart to the server wholesale.
func (c *Cart) Save(ctx context.Context) error {
	c.mu.Lock()
	items := make([]cartItemPayload, 0, len(c.lines))
	for _, line := range c.lines {
		price, _ := line.UnitPrice.Float64()
		items = append(items, cartItemPayload{
			ProductID: line.ProductID,
			Size:      line.Size,
			Quantity:  line.Quantity,
			Price:     price,
		})
	}
	c.mu.Unlock()

	return c.client.do(ctx, http.MethodPut, "/cart", nil, map[string]any{"items": items}, nil)
}
