package store

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"marketplace-service/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// openTestStore connects to TEST_DATABASE_URL and applies migrations
func openTestStore(t *testing.T) *Store {
	t.Helper()

	url := os.Getenv("TEST_DATABASE_URL")
	if url == "" {
		t.Skip("Integration test - set TEST_DATABASE_URL to run")
	}

	s, err := NewStore(url, 5)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	require.NoError(t, s.Migrate())
	return s
}

func seedGood(t *testing.T, ctx context.Context, s *Store) (*models.User, *models.Address, *models.Good) {
	t.Helper()

	user := &models.User{Username: fmt.Sprintf("buyer-%d", time.Now().UnixNano())}
	require.NoError(t, s.CreateUser(ctx, user))

	address := &models.Address{UserID: user.ID, Detail: "1 Main St", Name: "Buyer", PhoneNumber: "555"}
	require.NoError(t, s.CreateAddress(ctx, address))

	shop := &models.Store{OwnerID: user.ID, Name: "Shop"}
	require.NoError(t, s.CreateStore(ctx, shop))

	good := &models.Good{
		StoreID: shop.ID,
		Name:    "Mug",
		Price:   100,
		Styles:  []models.GoodStyle{{Name: "Large", Price: 150}},
	}
	require.NoError(t, s.CreateGood(ctx, good))
	return user, address, good
}

func TestCreateOrderWithItems(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	user, address, good := seedGood(t, ctx, s)

	order := &models.Order{UserID: user.ID, AddressID: address.ID, TotalPrice: 300}
	err := s.InTx(ctx, func(tx Repository) error {
		if err := tx.CreateOrder(ctx, order); err != nil {
			return err
		}
		styleName := good.Styles[0].Name
		return tx.CreateOrderItems(ctx, []models.OrderItem{{
			OrderID:   order.ID,
			StoreID:   good.StoreID,
			GoodID:    good.ID,
			StyleID:   &good.Styles[0].ID,
			GoodName:  good.Name,
			StyleName: &styleName,
			Count:     2,
			Price:     150,
		}})
	})
	require.NoError(t, err)
	assert.NotZero(t, order.ID)

	items, err := s.ListOrderItems(ctx, order.ID)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, int64(300), items[0].Subtotal())

	retrieved, err := s.GetOrder(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusCreated, retrieved.Status)
}

func TestInTxRollsBackOnError(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	user, address, _ := seedGood(t, ctx, s)

	var orderID int64
	err := s.InTx(ctx, func(tx Repository) error {
		order := &models.Order{UserID: user.ID, AddressID: address.ID, TotalPrice: 1}
		if err := tx.CreateOrder(ctx, order); err != nil {
			return err
		}
		orderID = order.ID
		return fmt.Errorf("abort")
	})
	require.Error(t, err)

	_, err = s.GetOrder(ctx, orderID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSecondPaymentIsDuplicate(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	user, address, _ := seedGood(t, ctx, s)

	order := &models.Order{UserID: user.ID, AddressID: address.ID, TotalPrice: 100}
	require.NoError(t, s.CreateOrder(ctx, order))

	first := &models.Payment{Seq: fmt.Sprintf("%032d", order.ID), UserID: user.ID, OrderID: order.ID, ServiceID: 1, Amount: 100, Status: 1}
	require.NoError(t, s.CreatePayment(ctx, first))

	second := &models.Payment{Seq: fmt.Sprintf("%031dX", order.ID), UserID: user.ID, OrderID: order.ID, ServiceID: 2, Amount: 100, Status: 1}
	assert.ErrorIs(t, s.CreatePayment(ctx, second), ErrDuplicate)
}

func TestSetOrderStatusIsConditional(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	user, address, _ := seedGood(t, ctx, s)

	order := &models.Order{UserID: user.ID, AddressID: address.ID, TotalPrice: 100}
	require.NoError(t, s.CreateOrder(ctx, order))

	changed, err := s.SetOrderStatus(ctx, order.ID, models.OrderStatusCreated, models.OrderStatusPaid)
	require.NoError(t, err)
	assert.True(t, changed)

	changed, err = s.SetOrderStatus(ctx, order.ID, models.OrderStatusCreated, models.OrderStatusPaid)
	require.NoError(t, err)
	assert.False(t, changed)
}

func TestDeleteGoodKeepsOrderItems(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	user, address, good := seedGood(t, ctx, s)

	order := &models.Order{UserID: user.ID, AddressID: address.ID, TotalPrice: 100}
	require.NoError(t, s.CreateOrder(ctx, order))
	require.NoError(t, s.CreateOrderItems(ctx, []models.OrderItem{{
		OrderID: order.ID, StoreID: good.StoreID, GoodID: good.ID, GoodName: good.Name, Count: 1, Price: 100,
	}}))

	require.NoError(t, s.DeleteGood(ctx, good.ID))

	_, err := s.GetGood(ctx, good.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	items, err := s.ListOrderItems(ctx, order.ID)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "Mug", items[0].GoodName)
	assert.Equal(t, int64(100), items[0].Price)
}

func TestGetCartItemsForUpdateFiltersByUser(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	user, _, good := seedGood(t, ctx, s)
	other, _, _ := seedGood(t, ctx, s)

	mine := &models.CartItem{UserID: user.ID, GoodID: good.ID, Count: 1}
	theirs := &models.CartItem{UserID: other.ID, GoodID: good.ID, Count: 1}
	require.NoError(t, s.AddCartItem(ctx, mine))
	require.NoError(t, s.AddCartItem(ctx, theirs))

	err := s.InTx(ctx, func(tx Repository) error {
		items, err := tx.GetCartItemsForUpdate(ctx, user.ID, []int64{mine.ID, theirs.ID})
		require.NoError(t, err)
		require.Len(t, items, 1)
		assert.Equal(t, mine.ID, items[0].ID)
		return nil
	})
	require.NoError(t, err)
}

func TestBannerSoftDelete(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	banner := &models.Banner{ImageID: fmt.Sprintf("img-%d", time.Now().UnixNano())}
	require.NoError(t, s.CreateBanner(ctx, banner))
	assert.False(t, banner.Deleted)

	require.NoError(t, s.DeleteBanner(ctx, banner.ID))
	assert.ErrorIs(t, s.DeleteBanner(ctx, banner.ID), ErrNotFound)

	active, err := s.ListActiveBanners(ctx, Page{Limit: 1000})
	require.NoError(t, err)
	for _, b := range active {
		assert.NotEqual(t, banner.ID, b.ID)
	}

	var deleted bool
	require.NoError(t, s.db.GetContext(ctx, &deleted, "SELECT deleted FROM banners WHERE id = $1", banner.ID))
	assert.True(t, deleted)
}
