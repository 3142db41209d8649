package service_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/example/goshop/internal/datamodels/order"
	"github.com/example/goshop/internal/repository/mysql"
	"github.com/example/goshop/internal/service"
)

func TestPlaceOrder(t *testing.T) {
	db := newTestDB(t)
	orderRepo := mysql.NewOrderRepository(db)
	svc := service.NewOrderService(db, orderRepo, nil)
	ctx := context.Background()

	buyer := seedUser(t, db, "Test Buyer", "buyer@example.com")
	productA := seedProduct(t, db, "Product A", 2999)
	productB := seedProduct(t, db, "Product B", 8999)

	t.Run("total is the sum of unit price times quantity", func(t *testing.T) {
		d, err := svc.PlaceOrder(ctx, &service.PlaceOrderInput{
			UserID: buyer.ID,
			Items: []service.PlaceOrderItem{
				{ProductID: productA.ID, Quantity: 2},
				{ProductID: productB.ID, Quantity: 1},
			},
		})
		assert.NoError(t, err)
		assert.Equal(t, int64(14997), d.Total)
		assert.Equal(t, order.StatusPending, d.Status)
		assert.Len(t, d.Items, 2)
		assert.Equal(t, "Test Buyer", d.UserName)
		assert.Equal(t, "buyer@example.com", d.UserEmail)
	})

	t.Run("item price is a snapshot at order time", func(t *testing.T) {
		d, err := svc.PlaceOrder(ctx, &service.PlaceOrderInput{
			UserID: buyer.ID,
			Items:  []service.PlaceOrderItem{{ProductID: productA.ID, Quantity: 1}},
		})
		assert.NoError(t, err)

		// 调价后重新读取订单，历史明细和总价不变
		assert.NoError(t, db.Model(productA).Update("price", 9999).Error)

		got, err := svc.GetByID(ctx, d.ID)
		assert.NoError(t, err)
		assert.Equal(t, int64(2999), got.Items[0].Price)
		assert.Equal(t, int64(2999), got.Total)
	})

	t.Run("unknown product fails the whole order and writes nothing", func(t *testing.T) {
		ordersBefore := countRows(t, db, &order.Order{})
		itemsBefore := countRows(t, db, &order.Item{})

		_, err := svc.PlaceOrder(ctx, &service.PlaceOrderInput{
			UserID: buyer.ID,
			Items: []service.PlaceOrderItem{
				{ProductID: productA.ID, Quantity: 1},
				{ProductID: 99999, Quantity: 1},
			},
		})
		assert.ErrorIs(t, err, service.ErrNotFound)
		assert.Equal(t, ordersBefore, countRows(t, db, &order.Order{}))
		assert.Equal(t, itemsBefore, countRows(t, db, &order.Item{}))
	})

	t.Run("unknown user is rejected", func(t *testing.T) {
		_, err := svc.PlaceOrder(ctx, &service.PlaceOrderInput{
			UserID: 99999,
			Items:  []service.PlaceOrderItem{{ProductID: productA.ID, Quantity: 1}},
		})
		assert.ErrorIs(t, err, service.ErrNotFound)
	})

	t.Run("validation errors", func(t *testing.T) {
		_, err := svc.PlaceOrder(ctx, &service.PlaceOrderInput{UserID: 0})
		assert.ErrorIs(t, err, service.ErrValidation)

		_, err = svc.PlaceOrder(ctx, &service.PlaceOrderInput{UserID: buyer.ID})
		assert.ErrorIs(t, err, service.ErrValidation)

		_, err = svc.PlaceOrder(ctx, &service.PlaceOrderInput{
			UserID: buyer.ID,
			Items:  []service.PlaceOrderItem{{ProductID: productA.ID, Quantity: 0}},
		})
		assert.ErrorIs(t, err, service.ErrValidation)
	})
}

func TestOrderQueriesAndStatus(t *testing.T) {
	db := newTestDB(t)
	orderRepo := mysql.NewOrderRepository(db)
	svc := service.NewOrderService(db, orderRepo, nil)
	ctx := context.Background()

	alice := seedUser(t, db, "Alice", "alice@example.com")
	bob := seedUser(t, db, "Bob", "bob@example.com")
	p := seedProduct(t, db, "Wool Scarf", 1299)

	placed, err := svc.PlaceOrder(ctx, &service.PlaceOrderInput{
		UserID: alice.ID,
		Items:  []service.PlaceOrderItem{{ProductID: p.ID, Quantity: 3}},
	})
	assert.NoError(t, err)

	t.Run("list by user only returns own orders", func(t *testing.T) {
		list, err := svc.ListByUser(ctx, alice.ID)
		assert.NoError(t, err)
		assert.Len(t, list, 1)

		list, err = svc.ListByUser(ctx, bob.ID)
		assert.NoError(t, err)
		assert.Empty(t, list)
	})

	t.Run("get for user enforces ownership", func(t *testing.T) {
		_, err := svc.GetForUser(ctx, bob.ID, placed.ID)
		assert.ErrorIs(t, err, service.ErrNotFound)

		d, err := svc.GetForUser(ctx, alice.ID, placed.ID)
		assert.NoError(t, err)
		assert.Equal(t, placed.ID, d.ID)
	})

	t.Run("status transitions", func(t *testing.T) {
		assert.NoError(t, svc.UpdateStatus(ctx, placed.ID, order.StatusCompleted))

		// 重复写同一状态是幂等的，不报订单不存在
		assert.NoError(t, svc.UpdateStatus(ctx, placed.ID, order.StatusCompleted))

		d, err := svc.GetByID(ctx, placed.ID)
		assert.NoError(t, err)
		assert.Equal(t, order.StatusCompleted, d.Status)

		assert.ErrorIs(t, svc.UpdateStatus(ctx, placed.ID, "shipped"), service.ErrValidation)
		assert.ErrorIs(t, svc.UpdateStatus(ctx, 99999, order.StatusCancelled), service.ErrNotFound)
	})
}

func TestProductDeleteCascade(t *testing.T) {
	db := newTestDB(t)
	orderRepo := mysql.NewOrderRepository(db)
	productRepo := mysql.NewProductRepository(db)
	orderSvc := service.NewOrderService(db, orderRepo, nil)
	productSvc := service.NewProductService(productRepo)
	ctx := context.Background()

	buyer := seedUser(t, db, "Buyer", "cascade@example.com")
	keep := seedProduct(t, db, "Keep Me", 1000)
	doomed := seedProduct(t, db, "Doomed", 2000)

	placed, err := orderSvc.PlaceOrder(ctx, &service.PlaceOrderInput{
		UserID: buyer.ID,
		Items: []service.PlaceOrderItem{
			{ProductID: keep.ID, Quantity: 1},
			{ProductID: doomed.ID, Quantity: 1},
		},
	})
	assert.NoError(t, err)

	// 删除商品：其明细被级联删除，订单本身与其他明细保留
	assert.NoError(t, productSvc.Delete(ctx, doomed.ID))

	d, err := orderSvc.GetByID(ctx, placed.ID)
	assert.NoError(t, err)
	assert.Len(t, d.Items, 1)
	assert.Equal(t, keep.ID, d.Items[0].ProductID)
	// total 是创建时刻的汇总，不随级联删除重算
	assert.Equal(t, int64(3000), d.Total)
}
