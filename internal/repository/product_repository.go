package repository

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"kidotrendz/storefront/internal/listing"
	"kidotrendz/storefront/internal/models"
)

var ErrProductNotFound = errors.New("product not found")

type ProductRepository struct {
	collection *mongo.Collection
}

func NewProductRepository(db *mongo.Database) *ProductRepository {
	return &ProductRepository{collection: db.Collection("products")}
}

func (r *ProductRepository) Create(ctx context.Context, product *models.Product) error {
	if product.ID == "" {
		product.ID = primitive.NewObjectID().Hex()
	}
	now := time.Now()
	product.CreatedAt = now
	product.UpdatedAt = now

	if _, err := r.collection.InsertOne(ctx, product); err != nil {
		return fmt.Errorf("insert product: %w", err)
	}
	return nil
}

func (r *ProductRepository) GetByID(ctx context.Context, id string) (models.Product, error) {
	var product models.Product
	if err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&product); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return models.Product{}, ErrProductNotFound
		}
		return models.Product{}, fmt.Errorf("find product: %w", err)
	}
	return product, nil
}

// Search lists the public catalog, optionally narrowed by a
// case-insensitive name/description substring.
func (r *ProductRepository) Search(ctx context.Context, term string) ([]models.Product, error) {
	filter := bson.M{}
	if term != "" {
		pattern := primitive.Regex{Pattern: regexp.QuoteMeta(term), Options: "i"}
		filter["$or"] = bson.A{
			bson.M{"name": pattern},
			bson.M{"description": pattern},
		}
	}
	return r.find(ctx, filter, bson.D{{Key: "created_at", Value: -1}})
}

func (r *ProductRepository) ListByCategory(ctx context.Context, category string) ([]models.Product, error) {
	return r.find(ctx, bson.M{"category": category}, bson.D{{Key: "created_at", Value: -1}})
}

func (r *ProductRepository) ListByGender(ctx context.Context, gender string) ([]models.Product, error) {
	return r.find(ctx, bson.M{"gender": gender}, bson.D{{Key: "created_at", Value: -1}})
}

func (r *ProductRepository) ListFeatured(ctx context.Context) ([]models.Product, error) {
	return r.find(ctx, bson.M{"is_featured": true}, bson.D{{Key: "created_at", Value: -1}})
}

// List executes the admin listing query.
func (r *ProductRepository) List(ctx context.Context, query listing.Query) ([]models.Product, error) {
	return r.find(ctx, query.ProductFilter(), query.ProductSort())
}

// Recommend returns up to limit random products.
func (r *ProductRepository) Recommend(ctx context.Context, limit int) ([]models.Product, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$sample", Value: bson.M{"size": limit}}},
	}
	cursor, err := r.collection.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("sample products: %w", err)
	}
	defer cursor.Close(ctx)

	var products []models.Product
	if err := cursor.All(ctx, &products); err != nil {
		return nil, fmt.Errorf("decode products: %w", err)
	}
	return products, nil
}

// ToggleFeatured flips the featured flag and returns the updated product.
func (r *ProductRepository) ToggleFeatured(ctx context.Context, id string) (models.Product, error) {
	res := r.collection.FindOneAndUpdate(ctx,
		bson.M{"_id": id},
		bson.A{bson.M{"$set": bson.M{
			"is_featured": bson.M{"$not": "$is_featured"},
			"updated_at":  time.Now(),
		}}},
		findOneAndUpdateReturnAfter(),
	)

	var product models.Product
	if err := res.Decode(&product); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return models.Product{}, ErrProductNotFound
		}
		return models.Product{}, fmt.Errorf("toggle featured: %w", err)
	}
	return product, nil
}

func (r *ProductRepository) Delete(ctx context.Context, id string) error {
	res, err := r.collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("delete product: %w", err)
	}
	if res.DeletedCount == 0 {
		return ErrProductNotFound
	}
	return nil
}

func (r *ProductRepository) find(ctx context.Context, filter bson.M, sort bson.D) ([]models.Product, error) {
	cursor, err := r.collection.Find(ctx, filter, options.Find().SetSort(sort))
	if err != nil {
		return nil, fmt.Errorf("find products: %w", err)
	}
	defer cursor.Close(ctx)

	products := make([]models.Product, 0)
	if err := cursor.All(ctx, &products); err != nil {
		return nil, fmt.Errorf("decode products: %w", err)
	}
	return products, nil
}
