package storeclient

import (
	"context"
	"net/http"
	"net/url"
)

type productList struct {
	Products []Product `json:"products"`
}

func (c *Client) ShopProducts(ctx context.Context, search string) ([]Product, error) {
	query := url.Values{}
	if search != "" {
		query.Set("q", search)
	}

	var resp productList
	if err := c.do(ctx, http.MethodGet, "/products/shop", query, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Products, nil
}

func (c *Client) FeaturedProducts(ctx context.Context) ([]Product, error) {
	var resp productList
	if err := c.do(ctx, http.MethodGet, "/products/featured", nil, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Products, nil
}

func (c *Client) ProductsByCategory(ctx context.Context, category string) ([]Product, error) {
	var resp productList
	if err := c.do(ctx, http.MethodGet, "/products/category/"+url.PathEscape(category), nil, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Products, nil
}

func (c *Client) ProductsByGender(ctx context.Context, gender string) ([]Product, error) {
	var resp productList
	if err := c.do(ctx, http.MethodGet, "/products/gender/"+url.PathEscape(gender), nil, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Products, nil
}

func (c *Client) RecommendedProducts(ctx context.Context) ([]Product, error) {
	var resp productList
	if err := c.do(ctx, http.MethodGet, "/products/recommendations", nil, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Products, nil
}

func (c *Client) ProductByID(ctx context.Context, id string) (Product, error) {
	var product Product
	if err := c.do(ctx, http.MethodGet, "/products/"+url.PathEscape(id), nil, nil, &product); err != nil {
		return Product{}, err
	}
	return product, nil
}

// ListProducts is the admin catalog listing with filter/sort parameters.
func (c *Client) ListProducts(ctx context.Context, params ListingParams) ([]Product, error) {
	var resp productList
	if err := c.do(ctx, http.MethodGet, "/products", params.Values(), nil, &resp); err != nil {
		return nil, err
	}
	return resp.Products, nil
}

func (c *Client) CreateProduct(ctx context.Context, product Product) (Product, error) {
	var created Product
	if err := c.do(ctx, http.MethodPost, "/products", nil, product, &created); err != nil {
		return Product{}, err
	}
	return created, nil
}

func (c *Client) ToggleFeatured(ctx context.Context, id string) (Product, error) {
	var updated Product
	if err := c.do(ctx, http.MethodPatch, "/products/"+url.PathEscape(id), nil, nil, &updated); err != nil {
		return Product{}, err
	}
	return updated, nil
}

func (c *Client) DeleteProduct(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/products/"+url.PathEscape(id), nil, nil, nil)
}
