package service

import (
	"context"
	"errors"
	"sync"
	"testing"

	"marketplace-service/internal/apperror"
	"marketplace-service/internal/models"
	"marketplace-service/internal/store"
	"marketplace-service/internal/store/memstore"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recordingPublisher keeps every published event. A non-nil err is returned
// from every publish after recording.
type recordingPublisher struct {
	mu      sync.Mutex
	created []*models.OrderCreatedEvent
	paid    []*models.OrderPaidEvent
	shipped []*models.OrderShippedEvent
	err     error
}

func (p *recordingPublisher) PublishOrderCreated(ctx context.Context, event *models.OrderCreatedEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.created = append(p.created, event)
	return p.err
}

func (p *recordingPublisher) PublishOrderPaid(ctx context.Context, event *models.OrderPaidEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.paid = append(p.paid, event)
	return p.err
}

func (p *recordingPublisher) PublishOrderShipped(ctx context.Context, event *models.OrderShippedEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.shipped = append(p.shipped, event)
	return p.err
}

func (p *recordingPublisher) shippedCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.shipped)
}

type fixture struct {
	t     *testing.T
	ctx   context.Context
	db    *memstore.DB
	marks *memstore.MarkSet
	pub   *recordingPublisher

	orders        *OrderService
	payments      *PaymentService
	fulfillment   *FulfillmentService
	catalog       *CatalogService
	identity      *IdentityService
	cart          *CartService
	notifications *NotificationService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := memstore.New()
	marks := memstore.NewMarkSet()
	pub := &recordingPublisher{}

	return &fixture{
		t:             t,
		ctx:           context.Background(),
		db:            db,
		marks:         marks,
		pub:           pub,
		orders:        NewOrderService(db, pub),
		payments:      NewPaymentService(db, pub),
		fulfillment:   NewFulfillmentService(db, marks, pub),
		catalog:       NewCatalogService(db),
		identity:      NewIdentityService(db),
		cart:          NewCartService(db),
		notifications: NewNotificationService(db),
	}
}

func (f *fixture) user(name string) *models.User {
	f.t.Helper()
	u, err := f.identity.Register(f.ctx, &RegisterRequest{Username: name})
	require.NoError(f.t, err)
	return u
}

func (f *fixture) admin(name string) *models.User {
	f.t.Helper()
	u := &models.User{Username: name, Role: models.RoleAdmin}
	require.NoError(f.t, f.db.CreateUser(f.ctx, u))
	return u
}

func (f *fixture) address(owner *models.User) *models.Address {
	f.t.Helper()
	a, err := f.identity.CreateAddress(f.ctx, owner, &AddressRequest{
		Detail:      "1 Market Street",
		Name:        owner.Username,
		PhoneNumber: "555-0100",
	})
	require.NoError(f.t, err)
	return a
}

func (f *fixture) store(owner *models.User) *models.Store {
	f.t.Helper()
	s, err := f.catalog.CreateStore(f.ctx, owner, &StoreRequest{Name: owner.Username + "'s store"})
	require.NoError(f.t, err)
	return s
}

func (f *fixture) good(owner *models.User, s *models.Store, price int64, stylePrices ...int64) *models.Good {
	f.t.Helper()
	req := &CreateGoodRequest{StoreID: s.ID, Name: "Mug", Price: price}
	for _, p := range stylePrices {
		req.Styles = append(req.Styles, StyleInput{Name: "Large", Price: p})
	}
	g, err := f.catalog.CreateGood(f.ctx, owner, req)
	require.NoError(f.t, err)
	return g
}

// paidOrder places a paid order for buyer with one line per good
func (f *fixture) paidOrder(buyer *models.User, goods ...*models.Good) *models.OrderView {
	f.t.Helper()
	req := &CreateOrderRequest{AddressID: f.address(buyer).ID}
	for _, g := range goods {
		req.Goods = append(req.Goods, OrderLine{GoodID: g.ID, Count: 1})
	}
	view, err := f.orders.CreateOrder(f.ctx, buyer, req)
	require.NoError(f.t, err)

	_, err = f.payments.PayOrder(f.ctx, buyer, &PayOrderRequest{OrderID: view.ID, ServiceID: 1})
	require.NoError(f.t, err)
	return view
}

func (f *fixture) orderStatus(id int64) models.OrderStatus {
	f.t.Helper()
	order, err := f.db.GetOrder(f.ctx, id)
	require.NoError(f.t, err)
	return order.Status
}

func requireKind(t *testing.T, err error, kind apperror.Kind) {
	t.Helper()
	require.Error(t, err)
	assert.Equal(t, kind, apperror.KindOf(err), "unexpected error: %v", err)
}

func TestNormalizePage(t *testing.T) {
	tests := []struct {
		name string
		in   store.Page
		want store.Page
	}{
		{"defaults", store.Page{}, store.Page{Limit: DefaultPageLimit}},
		{"capped", store.Page{Limit: 1000, Offset: 5}, store.Page{Limit: MaxPageLimit, Offset: 5}},
		{"negative offset", store.Page{Limit: 10, Offset: -3}, store.Page{Limit: 10}},
		{"kept", store.Page{Limit: 7, Offset: 14}, store.Page{Limit: 7, Offset: 14}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizePage(tt.in))
		})
	}
}

func TestTranslate(t *testing.T) {
	assert.NoError(t, translate(nil, "Order"))
	requireKind(t, translate(store.ErrNotFound, "Order"), apperror.KindNotFound)
	assert.Equal(t, "Order not found.", apperror.Message(translate(store.ErrNotFound, "Order")))
	requireKind(t, translate(errors.New("connection reset"), "Order"), apperror.KindInternal)

	conflict := apperror.Conflict("busy")
	assert.Same(t, conflict, translate(conflict, "Order"))
}
