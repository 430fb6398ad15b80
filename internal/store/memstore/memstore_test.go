package memstore

import (
	"context"
	"errors"
	"testing"

	"marketplace-service/internal/models"
	"marketplace-service/internal/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInTxDiscardsWritesOnError(t *testing.T) {
	db := New()
	ctx := context.Background()

	err := db.InTx(ctx, func(tx store.Repository) error {
		require.NoError(t, tx.CreateOrder(ctx, &models.Order{UserID: 1, TotalPrice: 10}))
		return errors.New("abort")
	})
	require.Error(t, err)

	orders, err := db.ListOrders(ctx, nil, store.Page{})
	require.NoError(t, err)
	assert.Empty(t, orders)
}

func TestInTxPublishesOnCommit(t *testing.T) {
	db := New()
	ctx := context.Background()

	var id int64
	err := db.InTx(ctx, func(tx store.Repository) error {
		o := &models.Order{UserID: 1, TotalPrice: 10}
		if err := tx.CreateOrder(ctx, o); err != nil {
			return err
		}
		id = o.ID
		return nil
	})
	require.NoError(t, err)

	o, err := db.GetOrder(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, int64(10), o.TotalPrice)
}

func TestFaultInjection(t *testing.T) {
	db := New()
	ctx := context.Background()
	boom := errors.New("boom")

	db.Fail("CreateOrderItems", boom)
	err := db.CreateOrderItems(ctx, []models.OrderItem{{OrderID: 1, Count: 1}})
	assert.ErrorIs(t, err, boom)

	db.Heal()
	assert.NoError(t, db.CreateOrderItems(ctx, []models.OrderItem{{OrderID: 1, Count: 1}}))
}

func TestCreatePaymentRejectsSecondForOrder(t *testing.T) {
	db := New()
	ctx := context.Background()

	require.NoError(t, db.CreatePayment(ctx, &models.Payment{Seq: "A", OrderID: 1}))
	assert.ErrorIs(t, db.CreatePayment(ctx, &models.Payment{Seq: "B", OrderID: 1}), store.ErrDuplicate)
}

func TestSetOrderStatusIsConditional(t *testing.T) {
	db := New()
	ctx := context.Background()

	o := &models.Order{UserID: 1}
	require.NoError(t, db.CreateOrder(ctx, o))

	changed, err := db.SetOrderStatus(ctx, o.ID, models.OrderStatusPaid, models.OrderStatusShipped)
	require.NoError(t, err)
	assert.False(t, changed)

	changed, err = db.SetOrderStatus(ctx, o.ID, models.OrderStatusCreated, models.OrderStatusPaid)
	require.NoError(t, err)
	assert.True(t, changed)
}

func TestMarkSet(t *testing.T) {
	marks := NewMarkSet()
	ctx := context.Background()

	n, err := marks.MarkShipped(ctx, 1, []int64{1, 2})
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	n, err = marks.MarkShipped(ctx, 1, []int64{1, 2})
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	marks.SetDown(true)
	_, err = marks.IsShipped(ctx, 1)
	assert.ErrorIs(t, err, ErrMarksUnavailable)
}
