package service

import (
	"context"
	"errors"

	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"kidotrendz/storefront/internal/apierr"
	"kidotrendz/storefront/internal/cache"
	"kidotrendz/storefront/internal/listing"
	"kidotrendz/storefront/internal/models"
	"kidotrendz/storefront/internal/repository"
)

type ProductStore interface {
	Create(ctx context.Context, product *models.Product) error
	GetByID(ctx context.Context, id string) (models.Product, error)
	Search(ctx context.Context, term string) ([]models.Product, error)
	ListByCategory(ctx context.Context, category string) ([]models.Product, error)
	ListByGender(ctx context.Context, gender string) ([]models.Product, error)
	ListFeatured(ctx context.Context) ([]models.Product, error)
	List(ctx context.Context, query listing.Query) ([]models.Product, error)
	Recommend(ctx context.Context, limit int) ([]models.Product, error)
	ToggleFeatured(ctx context.Context, id string) (models.Product, error)
	Delete(ctx context.Context, id string) error
}

type FeaturedStore interface {
	Get(ctx context.Context) ([]models.Product, error)
	Set(ctx context.Context, products []models.Product) error
	Invalidate(ctx context.Context) error
}

type CatalogService struct {
	products ProductStore
	featured FeaturedStore
	log      zerolog.Logger
	sfg      singleflight.Group // collapses concurrent featured cache misses
}

func NewCatalogService(products ProductStore, featured FeaturedStore, log zerolog.Logger) *CatalogService {
	return &CatalogService{products: products, featured: featured, log: log}
}

func (s *CatalogService) Shop(ctx context.Context, search string) ([]models.Product, error) {
	return s.products.Search(ctx, search)
}

func (s *CatalogService) ByCategory(ctx context.Context, category string) ([]models.Product, error) {
	return s.products.ListByCategory(ctx, category)
}

func (s *CatalogService) ByGender(ctx context.Context, gender string) ([]models.Product, error) {
	return s.products.ListByGender(ctx, gender)
}

func (s *CatalogService) Get(ctx context.Context, id string) (models.Product, error) {
	product, err := s.products.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrProductNotFound) {
			return models.Product{}, apierr.NotFound("product not found")
		}
		return models.Product{}, err
	}
	return product, nil
}

func (s *CatalogService) Recommend(ctx context.Context, limit int) ([]models.Product, error) {
	if limit <= 0 {
		limit = 4
	}
	return s.products.Recommend(ctx, limit)
}

// Featured serves the cached curated set, falling back to the store on a
// miss. Concurrent misses share one store read.
func (s *CatalogService) Featured(ctx context.Context) ([]models.Product, error) {
	v, err, _ := s.sfg.Do("featured", func() (interface{}, error) {
		cached, err := s.featured.Get(ctx)
		if err == nil {
			return cached, nil
		}
		if !errors.Is(err, cache.ErrCacheMiss) {
			s.log.Warn().Err(err).Msg("featured cache read failed")
		}

		products, err := s.products.ListFeatured(ctx)
		if err != nil {
			return nil, err
		}

		if err := s.featured.Set(ctx, products); err != nil {
			s.log.Warn().Err(err).Msg("featured cache write failed")
		}
		return products, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]models.Product), nil
}

// RefreshFeatured rebuilds the cache from the store; the cron job calls
// this so admin edits propagate even if invalidation was missed.
func (s *CatalogService) RefreshFeatured(ctx context.Context) error {
	products, err := s.products.ListFeatured(ctx)
	if err != nil {
		return err
	}
	return s.featured.Set(ctx, products)
}

func (s *CatalogService) List(ctx context.Context, query listing.Query) ([]models.Product, error) {
	return s.products.List(ctx, query)
}

func (s *CatalogService) Create(ctx context.Context, product *models.Product) error {
	if product.Name == "" || product.Category == "" {
		return apierr.InvalidArgument("name and category required")
	}
	if product.Price <= 0 {
		return apierr.InvalidArgument("price must be positive")
	}

	if err := s.products.Create(ctx, product); err != nil {
		return err
	}
	if product.IsFeatured {
		s.invalidateFeatured(ctx)
	}
	return nil
}

func (s *CatalogService) ToggleFeatured(ctx context.Context, id string) (models.Product, error) {
	product, err := s.products.ToggleFeatured(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrProductNotFound) {
			return models.Product{}, apierr.NotFound("product not found")
		}
		return models.Product{}, err
	}
	s.invalidateFeatured(ctx)
	return product, nil
}

func (s *CatalogService) Delete(ctx context.Context, id string) error {
	if err := s.products.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrProductNotFound) {
			return apierr.NotFound("product not found")
		}
		return err
	}
	s.invalidateFeatured(ctx)
	return nil
}

func (s *CatalogService) invalidateFeatured(ctx context.Context) {
	if err := s.featured.Invalidate(ctx); err != nil {
		s.log.Warn().Err(err).Msg("featured cache invalidation failed")
	}
}
