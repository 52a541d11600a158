package models

import "time"

type UserRole string

const (
	UserRoleCustomer UserRole = "customer"
	UserRoleAdmin    UserRole = "admin"
)

type User struct {
	ID           string    `bson:"_id,omitempty"`
	Name         string    `bson:"name"`
	Email        string    `bson:"email"`
	PasswordHash []byte    `bson:"password_hash"`
	Role         UserRole  `bson:"role"`
	Phone        string    `bson:"phone,omitempty"`
	Address      string    `bson:"address,omitempty"`
	ProfilePhoto string    `bson:"profile_photo,omitempty"`
	CartItems    []CartRef `bson:"cart_items,omitempty"`
	CreatedAt    time.Time `bson:"created_at"`
	UpdatedAt    time.Time `bson:"updated_at"`
}

// CartRef is the server-known cart state persisted on the user document.
// The cart with its price snapshots lives on the client; this is the part
// that survives across devices and logins.
type CartRef struct {
	ProductID string  `bson:"product_id" json:"productId"`
	Size      string  `bson:"size,omitempty" json:"size,omitempty"`
	Quantity  int     `bson:"quantity" json:"quantity"`
	Price     float64 `bson:"price" json:"price"`
}
