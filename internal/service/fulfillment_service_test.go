package service

import (
	"sync"
	"testing"

	"marketplace-service/internal/apperror"
	"marketplace-service/internal/models"
	"marketplace-service/internal/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func permutations(ids []int64) [][]int64 {
	if len(ids) <= 1 {
		return [][]int64{append([]int64(nil), ids...)}
	}
	var out [][]int64
	for i := range ids {
		rest := make([]int64, 0, len(ids)-1)
		rest = append(rest, ids[:i]...)
		rest = append(rest, ids[i+1:]...)
		for _, p := range permutations(rest) {
			out = append(out, append([]int64{ids[i]}, p...))
		}
	}
	return out
}

func TestOrderShipsAfterLastItemInAnyOrder(t *testing.T) {
	f := newFixture(t)
	seller := f.user("seller")
	buyer := f.user("buyer")
	s := f.store(seller)
	goods := []*models.Good{f.good(seller, s, 10), f.good(seller, s, 20), f.good(seller, s, 30)}

	for _, order := range permutations([]int64{0, 1, 2}) {
		view := f.paidOrder(buyer, goods...)
		before := f.pub.shippedCount()

		for step, pos := range order {
			_, err := f.fulfillment.MarkShipped(f.ctx, seller, view.Items[pos].ID)
			require.NoError(t, err)

			if step < len(order)-1 {
				assert.Equal(t, models.OrderStatusPaid, f.orderStatus(view.ID), "promoted early for %v", order)
				assert.Equal(t, before, f.pub.shippedCount())
			}
		}
		assert.Equal(t, models.OrderStatusShipped, f.orderStatus(view.ID), "not promoted for %v", order)
		assert.Equal(t, before+1, f.pub.shippedCount())
	}
}

func TestMarkShippedIsIdempotent(t *testing.T) {
	f := newFixture(t)
	seller := f.user("seller")
	buyer := f.user("buyer")
	s := f.store(seller)
	view := f.paidOrder(buyer, f.good(seller, s, 10), f.good(seller, s, 20))

	for i := 0; i < 3; i++ {
		_, err := f.fulfillment.MarkShipped(f.ctx, seller, view.Items[0].ID)
		require.NoError(t, err)
	}
	assert.Equal(t, models.OrderStatusPaid, f.orderStatus(view.ID))

	_, err := f.fulfillment.MarkShipped(f.ctx, seller, view.Items[1].ID)
	require.NoError(t, err)
	_, err = f.fulfillment.MarkShipped(f.ctx, seller, view.Items[1].ID)
	require.NoError(t, err)

	assert.Equal(t, models.OrderStatusShipped, f.orderStatus(view.ID))
	assert.Equal(t, 1, f.pub.shippedCount())
}

func TestConcurrentMarksPromoteOnce(t *testing.T) {
	f := newFixture(t)
	seller := f.user("seller")
	buyer := f.user("buyer")
	s := f.store(seller)
	var goods []*models.Good
	for i := 0; i < 6; i++ {
		goods = append(goods, f.good(seller, s, int64(10*(i+1))))
	}
	view := f.paidOrder(buyer, goods...)

	var wg sync.WaitGroup
	errs := make(chan error, len(view.Items)*2)
	for _, item := range view.Items {
		for j := 0; j < 2; j++ {
			wg.Add(1)
			go func(id int64) {
				defer wg.Done()
				_, err := f.fulfillment.MarkShipped(f.ctx, seller, id)
				errs <- err
			}(item.ID)
		}
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		require.NoError(t, err)
	}
	assert.Equal(t, models.OrderStatusShipped, f.orderStatus(view.ID))
	assert.Equal(t, 1, f.pub.shippedCount())
}

func TestMarkShippedRequiresPayment(t *testing.T) {
	f := newFixture(t)
	seller := f.user("seller")
	buyer := f.user("buyer")
	good := f.good(seller, f.store(seller), 100)

	view, err := f.orders.DirectBuy(f.ctx, buyer, &DirectBuyRequest{GoodID: good.ID, Count: 1, AddressID: f.address(buyer).ID})
	require.NoError(t, err)

	_, err = f.fulfillment.MarkShipped(f.ctx, seller, view.Items[0].ID)
	requireKind(t, err, apperror.KindConflict)

	shipped, err := f.fulfillment.IsShipped(f.ctx, view.Items[0].ID)
	require.NoError(t, err)
	assert.False(t, shipped)
	assert.Equal(t, models.OrderStatusCreated, f.orderStatus(view.ID))
}

func TestMarkShippedAccess(t *testing.T) {
	f := newFixture(t)
	seller := f.user("seller")
	buyer := f.user("buyer")
	admin := f.admin("root")
	good := f.good(seller, f.store(seller), 100)
	view := f.paidOrder(buyer, good)
	itemID := view.Items[0].ID

	_, err := f.fulfillment.MarkShipped(f.ctx, buyer, itemID)
	requireKind(t, err, apperror.KindForbidden)

	_, err = f.fulfillment.MarkShipped(f.ctx, seller, 9999)
	requireKind(t, err, apperror.KindNotFound)

	shipped, err := f.fulfillment.MarkShipped(f.ctx, admin, itemID)
	require.NoError(t, err)
	assert.True(t, shipped)
	assert.Equal(t, models.OrderStatusShipped, f.orderStatus(view.ID))
}

func TestMarkShippedForDeletedStore(t *testing.T) {
	f := newFixture(t)
	seller := f.user("seller")
	buyer := f.user("buyer")
	admin := f.admin("root")
	s := f.store(seller)
	good := f.good(seller, s, 100)
	view := f.paidOrder(buyer, good)

	require.NoError(t, f.catalog.DeleteGood(f.ctx, seller, good.ID))
	require.NoError(t, f.catalog.DeleteStore(f.ctx, seller, s.ID))

	_, err := f.fulfillment.MarkShipped(f.ctx, seller, view.Items[0].ID)
	requireKind(t, err, apperror.KindForbidden)

	_, err = f.fulfillment.MarkShipped(f.ctx, admin, view.Items[0].ID)
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusShipped, f.orderStatus(view.ID))
}

func TestMarkStoreOutageLeavesOrderUntouched(t *testing.T) {
	f := newFixture(t)
	seller := f.user("seller")
	buyer := f.user("buyer")
	view := f.paidOrder(buyer, f.good(seller, f.store(seller), 100))
	itemID := view.Items[0].ID

	f.marks.SetDown(true)
	_, err := f.fulfillment.MarkShipped(f.ctx, seller, itemID)
	requireKind(t, err, apperror.KindInternal)

	_, err = f.fulfillment.IsShipped(f.ctx, itemID)
	requireKind(t, err, apperror.KindInternal)

	assert.Equal(t, models.OrderStatusPaid, f.orderStatus(view.ID))
	items, err := f.db.ListOrderItems(f.ctx, view.ID)
	require.NoError(t, err)
	assert.Equal(t, view.Items[0].Price, items[0].Price)
	assert.Equal(t, 0, f.pub.shippedCount())

	f.marks.SetDown(false)
	shipped, err := f.fulfillment.IsShipped(f.ctx, itemID)
	require.NoError(t, err)
	assert.False(t, shipped)
}

func TestIsShipped(t *testing.T) {
	f := newFixture(t)
	seller := f.user("seller")
	buyer := f.user("buyer")
	s := f.store(seller)
	view := f.paidOrder(buyer, f.good(seller, s, 10), f.good(seller, s, 20))

	_, err := f.fulfillment.MarkShipped(f.ctx, seller, view.Items[0].ID)
	require.NoError(t, err)

	shipped, err := f.fulfillment.IsShipped(f.ctx, view.Items[0].ID)
	require.NoError(t, err)
	assert.True(t, shipped)

	shipped, err = f.fulfillment.IsShipped(f.ctx, view.Items[1].ID)
	require.NoError(t, err)
	assert.False(t, shipped)

	_, err = f.fulfillment.IsShipped(f.ctx, 9999)
	requireKind(t, err, apperror.KindNotFound)
}

func TestListStoreItems(t *testing.T) {
	f := newFixture(t)
	seller := f.user("seller")
	rival := f.user("rival")
	buyer := f.user("buyer")
	s := f.store(seller)
	r := f.store(rival)
	view := f.paidOrder(buyer, f.good(seller, s, 10), f.good(rival, r, 20))

	_, err := f.fulfillment.MarkShipped(f.ctx, seller, view.Items[0].ID)
	require.NoError(t, err)

	items, err := f.fulfillment.ListStoreItems(f.ctx, seller, s.ID, store.Page{})
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, view.Items[0].ID, items[0].ID)
	assert.True(t, items[0].Shipped)

	_, err = f.fulfillment.ListStoreItems(f.ctx, seller, r.ID, store.Page{})
	requireKind(t, err, apperror.KindForbidden)

	_, err = f.fulfillment.ListStoreItems(f.ctx, seller, 9999, store.Page{})
	requireKind(t, err, apperror.KindNotFound)
}
