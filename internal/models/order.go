package models

import "time"

// Order documents embed the purchaser and per-line product data at the time
// of purchase, so listing filters apply directly to the stored document and
// line prices stay historically accurate regardless of catalog changes.
type Order struct {
	ID          string      `bson:"_id,omitempty"`
	User        OrderUser   `bson:"user"`
	Items       []OrderItem `bson:"items"`
	TotalAmount float64     `bson:"total_amount"`
	Status      string      `bson:"status,omitempty"`
	CreatedAt   time.Time   `bson:"created_at"`
}

type OrderUser struct {
	ID    string `bson:"id"`
	Name  string `bson:"name"`
	Email string `bson:"email"`
}

type OrderItem struct {
	Product  OrderProduct `bson:"product"`
	Quantity int          `bson:"quantity"`
	// Price is the per-unit snapshot recorded at purchase time. Zero means
	// the snapshot is absent and the embedded product price applies.
	Price float64 `bson:"price,omitempty"`
}

type OrderProduct struct {
	ID       string  `bson:"id"`
	Name     string  `bson:"name"`
	Category string  `bson:"category"`
	Price    float64 `bson:"price"`
	Image    string  `bson:"image,omitempty"`
}

// UnitPrice prefers the order-time snapshot over the embedded product price.
func (i OrderItem) UnitPrice() float64 {
	if i.Price > 0 {
		return i.Price
	}
	return i.Product.Price
}
