package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/segmentio/ksuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"kidotrendz/storefront/internal/listing"
	"kidotrendz/storefront/internal/models"
)

var ErrOrderNotFound = errors.New("order not found")

type OrderRepository struct {
	collection *mongo.Collection
}

func NewOrderRepository(db *mongo.Database) *OrderRepository {
	return &OrderRepository{collection: db.Collection("orders")}
}

// Create inserts an order written by the checkout flow. Order IDs are
// ksuids: creation-ordered and plain strings, so the listing's substring
// search over _id is well-defined.
func (r *OrderRepository) Create(ctx context.Context, order *models.Order) error {
	if order.ID == "" {
		order.ID = ksuid.New().String()
	}
	if order.CreatedAt.IsZero() {
		order.CreatedAt = time.Now()
	}

	if _, err := r.collection.InsertOne(ctx, order); err != nil {
		return fmt.Errorf("insert order: %w", err)
	}
	return nil
}

func (r *OrderRepository) GetByID(ctx context.Context, id string) (models.Order, error) {
	var order models.Order
	if err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&order); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return models.Order{}, ErrOrderNotFound
		}
		return models.Order{}, fmt.Errorf("find order: %w", err)
	}
	return order, nil
}

// List executes the admin listing query against the order collection.
func (r *OrderRepository) List(ctx context.Context, query listing.Query) ([]models.Order, error) {
	cursor, err := r.collection.Find(ctx, query.OrderFilter(),
		options.Find().SetSort(query.OrderSort()))
	if err != nil {
		return nil, fmt.Errorf("find orders: %w", err)
	}
	defer cursor.Close(ctx)

	orders := make([]models.Order, 0)
	if err := cursor.All(ctx, &orders); err != nil {
		return nil, fmt.Errorf("decode orders: %w", err)
	}
	return orders, nil
}
