package service

import (
	"context"
	"fmt"
	"os"
	"sync"
	"testing"
	"time"

	"marketplace-service/internal/apperror"
	"marketplace-service/internal/models"
	"marketplace-service/internal/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// openPostgres connects to TEST_DATABASE_URL so row locks and unique
// constraints are exercised by real concurrent transactions
func openPostgres(t *testing.T) *store.Store {
	t.Helper()

	url := os.Getenv("TEST_DATABASE_URL")
	if url == "" {
		t.Skip("Integration test - set TEST_DATABASE_URL to run")
	}

	db, err := store.NewStore(url, 10)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	require.NoError(t, db.Migrate())
	return db
}

func TestConcurrentPaymentsRecordOnceOnPostgres(t *testing.T) {
	db := openPostgres(t)
	ctx := context.Background()
	pub := &recordingPublisher{}

	identity := NewIdentityService(db)
	catalog := NewCatalogService(db)
	orders := NewOrderService(db, pub)
	payments := NewPaymentService(db, pub)

	suffix := time.Now().UnixNano()
	seller, err := identity.Register(ctx, &RegisterRequest{Username: fmt.Sprintf("seller-%d", suffix)})
	require.NoError(t, err)
	buyer, err := identity.Register(ctx, &RegisterRequest{Username: fmt.Sprintf("buyer-%d", suffix)})
	require.NoError(t, err)

	shop, err := catalog.CreateStore(ctx, seller, &StoreRequest{Name: "Mugs"})
	require.NoError(t, err)
	good, err := catalog.CreateGood(ctx, seller, &CreateGoodRequest{StoreID: shop.ID, Name: "Mug", Price: 100})
	require.NoError(t, err)
	address, err := identity.CreateAddress(ctx, buyer, &AddressRequest{Detail: "1 Market Street", Name: "Buyer", PhoneNumber: "555-0100"})
	require.NoError(t, err)

	view, err := orders.DirectBuy(ctx, buyer, &DirectBuyRequest{GoodID: good.ID, Count: 3, AddressID: address.ID})
	require.NoError(t, err)

	const attempts = 8
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
		conflicts int
		other     []error
	)
	start := make(chan struct{})
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(serviceID int) {
			defer wg.Done()
			<-start
			_, err := payments.PayOrder(ctx, buyer, &PayOrderRequest{OrderID: view.ID, ServiceID: serviceID})

			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				succeeded++
			case apperror.KindOf(err) == apperror.KindConflict:
				conflicts++
			default:
				other = append(other, err)
			}
		}(i%3 + 1)
	}
	close(start)
	wg.Wait()

	assert.Empty(t, other)
	assert.Equal(t, 1, succeeded)
	assert.Equal(t, attempts-1, conflicts)

	payment, err := db.GetPaymentByOrderID(ctx, view.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(300), payment.Amount)

	order, err := db.GetOrder(ctx, view.ID)
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusPaid, order.Status)
}
