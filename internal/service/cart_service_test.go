package service_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/example/goshop/internal/datamodels/product"
	"github.com/example/goshop/internal/repository/mysql"
	"github.com/example/goshop/internal/service"
)

func TestCartService(t *testing.T) {
	db := newTestDB(t)
	store := newMemCartStore()
	svc := service.NewCartService(store, mysql.NewProductRepository(db))
	ctx := context.Background()

	buyer := seedUser(t, db, "Buyer", "cart@example.com")
	productA := seedProduct(t, db, "Product A", 2999)
	productB := seedProduct(t, db, "Product B", 8999)

	t.Run("set and read back with subtotal", func(t *testing.T) {
		assert.NoError(t, svc.SetItem(ctx, buyer.ID, productA.ID, 2))
		assert.NoError(t, svc.SetItem(ctx, buyer.ID, productB.ID, 1))

		view, err := svc.Get(ctx, buyer.ID)
		assert.NoError(t, err)
		assert.Len(t, view.Items, 2)
		assert.Equal(t, int64(14997), view.Subtotal)
	})

	t.Run("unknown product cannot be added", func(t *testing.T) {
		assert.ErrorIs(t, svc.SetItem(ctx, buyer.ID, 99999, 1), service.ErrNotFound)
	})

	t.Run("offline product cannot be added and is dropped from the cart", func(t *testing.T) {
		assert.NoError(t, db.Model(productB).Update("status", product.StatusOffline).Error)

		assert.ErrorIs(t, svc.SetItem(ctx, buyer.ID, productB.ID, 1), service.ErrValidation)

		view, err := svc.Get(ctx, buyer.ID)
		assert.NoError(t, err)
		assert.Len(t, view.Items, 1)
		assert.Equal(t, productA.ID, view.Items[0].ProductID)
	})

	t.Run("zero quantity removes the line", func(t *testing.T) {
		assert.NoError(t, svc.SetItem(ctx, buyer.ID, productA.ID, 0))
		view, err := svc.Get(ctx, buyer.ID)
		assert.NoError(t, err)
		assert.Empty(t, view.Items)
	})
}
