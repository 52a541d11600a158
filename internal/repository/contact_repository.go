package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"kidotrendz/storefront/internal/models"
)

var ErrMessageNotFound = errors.New("contact message not found")

type ContactRepository struct {
	collection *mongo.Collection
}

func NewContactRepository(db *mongo.Database) *ContactRepository {
	return &ContactRepository{collection: db.Collection("contact_messages")}
}

func (r *ContactRepository) Create(ctx context.Context, msg *models.ContactMessage) error {
	if msg.ID == "" {
		msg.ID = primitive.NewObjectID().Hex()
	}
	msg.CreatedAt = time.Now()

	if _, err := r.collection.InsertOne(ctx, msg); err != nil {
		return fmt.Errorf("insert contact message: %w", err)
	}
	return nil
}

func (r *ContactRepository) ListNewestFirst(ctx context.Context) ([]models.ContactMessage, error) {
	cursor, err := r.collection.Find(ctx, bson.M{},
		options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}}))
	if err != nil {
		return nil, fmt.Errorf("find contact messages: %w", err)
	}
	defer cursor.Close(ctx)

	messages := make([]models.ContactMessage, 0)
	if err := cursor.All(ctx, &messages); err != nil {
		return nil, fmt.Errorf("decode contact messages: %w", err)
	}
	return messages, nil
}

func (r *ContactRepository) Delete(ctx context.Context, id string) error {
	res, err := r.collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("delete contact message: %w", err)
	}
	if res.DeletedCount == 0 {
		return ErrMessageNotFound
	}
	return nil
}
