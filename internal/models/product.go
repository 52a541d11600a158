package models

import "time"

type Product struct {
	ID          string    `bson:"_id,omitempty" json:"_id"`
	Name        string    `bson:"name" json:"name"`
	Description string    `bson:"description,omitempty" json:"description,omitempty"`
	Price       float64   `bson:"price" json:"price"`
	Image       string    `bson:"image,omitempty" json:"image,omitempty"`
	Category    string    `bson:"category" json:"category"`
	Gender      string    `bson:"gender,omitempty" json:"gender,omitempty"`
	Sizes       []string  `bson:"sizes,omitempty" json:"sizes,omitempty"`
	IsFeatured  bool      `bson:"is_featured" json:"isFeatured"`
	CreatedAt   time.Time `bson:"created_at" json:"createdAt"`
	UpdatedAt   time.Time `bson:"updated_at" json:"updatedAt"`
}
