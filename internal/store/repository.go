package store

import (
	"context"
	"errors"

	"marketplace-service/internal/models"
)

var (
	// ErrNotFound is returned when a looked-up row does not exist
	ErrNotFound = errors.New("record not found")
	// ErrDuplicate is returned when an insert violates a unique constraint
	ErrDuplicate = errors.New("duplicate record")
)

// Page selects a window of a list query
type Page struct {
	Limit  int
	Offset int
}

// CatalogRepository holds stores, goods, styles, details, tags and banners
type CatalogRepository interface {
	CreateStore(ctx context.Context, s *models.Store) error
	GetStore(ctx context.Context, id int64) (*models.Store, error)
	ListStores(ctx context.Context, ownerID *int64, page Page) ([]models.Store, error)
	UpdateStore(ctx context.Context, s *models.Store) error
	DeleteStore(ctx context.Context, id int64) error

	// CreateGood inserts the good together with its styles and details
	CreateGood(ctx context.Context, g *models.Good) error
	GetGood(ctx context.Context, id int64) (*models.Good, error)
	// GetGoodsWithStyles loads goods and their styles. Inside a transaction the
	// rows stay share-locked until commit.
	GetGoodsWithStyles(ctx context.Context, ids []int64) ([]models.Good, error)
	ListGoodsByStore(ctx context.Context, storeID int64, page Page) ([]models.Good, error)
	UpdateGood(ctx context.Context, g *models.Good) error
	ReplaceGoodStyles(ctx context.Context, goodID int64, styles []models.GoodStyle) error
	ReplaceGoodDetails(ctx context.Context, goodID int64, details []models.GoodDetail) error
	DeleteGood(ctx context.Context, id int64) error

	CreateTag(ctx context.Context, t *models.Tag) error
	GetTag(ctx context.Context, id int64) (*models.Tag, error)
	ListTags(ctx context.Context, page Page) ([]models.Tag, error)
	LinkTag(ctx context.Context, tagID, goodID int64) error

	CreateBanner(ctx context.Context, b *models.Banner) error
	ListActiveBanners(ctx context.Context, page Page) ([]models.Banner, error)
	// DeleteBanner hides the banner without removing its row
	DeleteBanner(ctx context.Context, id int64) error
}

// IdentityRepository holds users, addresses and the notification feed
type IdentityRepository interface {
	CreateUser(ctx context.Context, u *models.User) error
	GetUser(ctx context.Context, id int64) (*models.User, error)
	UpdateUser(ctx context.Context, u *models.User) error

	CreateAddress(ctx context.Context, a *models.Address) error
	GetAddress(ctx context.Context, id int64) (*models.Address, error)
	ListAddresses(ctx context.Context, userID *int64, page Page) ([]models.Address, error)
	UpdateAddress(ctx context.Context, a *models.Address) error
	DeleteAddress(ctx context.Context, id int64) error

	CreateNotification(ctx context.Context, n *models.Notification) error
	ListNotifications(ctx context.Context, userID int64, page Page) ([]models.Notification, error)
	IsEventProcessed(ctx context.Context, eventID string) (bool, error)
	MarkEventProcessed(ctx context.Context, eventID, eventType string) error
}

// OrderRepository holds carts, orders, order items and payments
type OrderRepository interface {
	CreateOrder(ctx context.Context, o *models.Order) error
	GetOrder(ctx context.Context, id int64) (*models.Order, error)
	// LockOrder reads the order and holds a row lock until the transaction ends
	LockOrder(ctx context.Context, id int64) (*models.Order, error)
	ListOrders(ctx context.Context, userID *int64, page Page) ([]models.Order, error)
	CountOrdersByStatus(ctx context.Context, userID int64) (map[models.OrderStatus]int, error)
	UpdateOrder(ctx context.Context, o *models.Order) error
	// SetOrderStatus moves the order from one status to another and reports
	// whether the row was in the expected status
	SetOrderStatus(ctx context.Context, id int64, from, to models.OrderStatus) (bool, error)
	DeleteOrder(ctx context.Context, id int64) error

	CreateOrderItems(ctx context.Context, items []models.OrderItem) error
	GetOrderItem(ctx context.Context, id int64) (*models.OrderItem, error)
	ListOrderItems(ctx context.Context, orderID int64) ([]models.OrderItem, error)
	ListStoreOrderItems(ctx context.Context, storeID int64, page Page) ([]models.OrderItem, error)
	DeleteOrderItems(ctx context.Context, orderID int64) error

	AddCartItem(ctx context.Context, c *models.CartItem) error
	GetCartItem(ctx context.Context, id int64) (*models.CartItem, error)
	ListCartItems(ctx context.Context, userID int64, page Page) ([]models.CartItem, error)
	// GetCartItemsForUpdate returns the user's cart items among ids, locked
	GetCartItemsForUpdate(ctx context.Context, userID int64, ids []int64) ([]models.CartItem, error)
	DeleteCartItems(ctx context.Context, ids []int64) error

	// CreatePayment returns ErrDuplicate when the order already has a payment
	CreatePayment(ctx context.Context, p *models.Payment) error
	GetPaymentByOrderID(ctx context.Context, orderID int64) (*models.Payment, error)
}

// Repository is the full relational surface
type Repository interface {
	CatalogRepository
	IdentityRepository
	OrderRepository
}

// DB is a Repository that can run a function inside one transaction. The
// transaction commits when fn returns nil and rolls back otherwise.
type DB interface {
	Repository
	InTx(ctx context.Context, fn func(tx Repository) error) error
}
