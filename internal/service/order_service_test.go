package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kidotrendz/storefront/internal/listing"
	"kidotrendz/storefront/internal/models"
)

type fakeOrderStore struct {
	orders    []models.Order
	lastQuery listing.Query
	err       error
}

func (f *fakeOrderStore) List(_ context.Context, query listing.Query) ([]models.Order, error) {
	f.lastQuery = query
	if f.err != nil {
		return nil, f.err
	}
	return f.orders, nil
}

func TestOrderService_List(t *testing.T) {
	created := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	store := &fakeOrderStore{orders: []models.Order{
		{
			ID:   "2PzY0Fq4",
			User: models.OrderUser{ID: "u1", Name: "Maya", Email: "maya@example.com"},
			Items: []models.OrderItem{
				{
					// Snapshot price differs from the current catalog price;
					// the snapshot wins.
					Product:  models.OrderProduct{Name: "Denim Jacket", Category: "Kids", Price: 59.99, Image: "jacket.jpg"},
					Quantity: 2,
					Price:    49.99,
				},
				{
					// No snapshot recorded: fall back to the product price,
					// and a missing image gets the placeholder.
					Product:  models.OrderProduct{Name: "Beanie", Category: "Accessories", Price: 12.50},
					Quantity: 1,
				},
			},
			TotalAmount: 112.48,
			CreatedAt:   created,
		},
	}}

	svc := NewOrderService(store)
	views, err := svc.List(context.Background(), listing.Query{Category: "Kids"})
	require.NoError(t, err)
	require.Len(t, views, 1)

	view := views[0]
	assert.Equal(t, "2PzY0Fq4", view.ID)
	assert.Equal(t, "Maya", view.User.Name)
	assert.Equal(t, 112.48, view.Total)
	assert.Equal(t, view.Total, view.TotalAmount)
	assert.Equal(t, created, view.Date)
	assert.Equal(t, view.Date, view.CreatedAt)

	require.Len(t, view.Items, 2)
	assert.Equal(t, 49.99, view.Items[0].Price)
	assert.Equal(t, "jacket.jpg", view.Items[0].Product.Image)
	assert.Equal(t, 12.50, view.Items[1].Price)
	assert.Equal(t, "placeholder.jpg", view.Items[1].Product.Image)

	assert.Equal(t, "Kids", store.lastQuery.Category)
}

func TestOrderService_ListEmpty(t *testing.T) {
	svc := NewOrderService(&fakeOrderStore{})

	views, err := svc.List(context.Background(), listing.Query{})
	require.NoError(t, err)
	assert.NotNil(t, views)
	assert.Empty(t, views)
}

func TestOrderItem_UnitPrice(t *testing.T) {
	withSnapshot := models.OrderItem{
		Product: models.OrderProduct{Price: 20},
		Price:   15,
	}
	assert.Equal(t, 15.0, withSnapshot.UnitPrice())

	withoutSnapshot := models.OrderItem{
		Product: models.OrderProduct{Price: 20},
	}
	assert.Equal(t, 20.0, withoutSnapshot.UnitPrice())
}
