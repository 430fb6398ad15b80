package models

import "time"

// Role of a user account
type Role int

const (
	RoleUser  Role = 0
	RoleAdmin Role = -1
)

// User represents a registered account
type User struct {
	ID          int64     `db:"id" json:"id"`
	Username    string    `db:"username" json:"username"`
	PhoneNumber *string   `db:"phone_number" json:"phone_number,omitempty"`
	Email       *string   `db:"email" json:"email,omitempty"`
	Gender      int       `db:"gender" json:"gender"`
	AvatarID    *string   `db:"avatar_id" json:"avatar_id,omitempty"`
	Bio         *string   `db:"bio" json:"bio,omitempty"`
	Role        Role      `db:"role" json:"role"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}

// IsAdmin reports whether the user has the administrator role
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// Address represents a shipping address owned by a user
type Address struct {
	ID          int64     `db:"id" json:"id"`
	UserID      int64     `db:"user_id" json:"user_id"`
	Postcode    *string   `db:"postcode" json:"postcode,omitempty"`
	Detail      string    `db:"detail" json:"detail"`
	Name        string    `db:"name" json:"name"`
	PhoneNumber string    `db:"phone_number" json:"phone_number"`
	Comment     *string   `db:"comment" json:"comment,omitempty"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}

// Store represents a merchant store
type Store struct {
	ID          int64     `db:"id" json:"id"`
	OwnerID     int64     `db:"owner_id" json:"owner_id"`
	Name        string    `db:"name" json:"name"`
	Description string    `db:"description" json:"description"`
	ImageID     *string   `db:"image_id" json:"image_id,omitempty"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}

// Good represents a sellable catalog item
type Good struct {
	ID          int64        `db:"id" json:"id"`
	StoreID     int64        `db:"store_id" json:"store_id"`
	Name        string       `db:"name" json:"name"`
	Description string       `db:"description" json:"description"`
	Price       int64        `db:"price" json:"price"`
	ImageID     *string      `db:"image_id" json:"image_id,omitempty"`
	Styles      []GoodStyle  `db:"-" json:"styles,omitempty"`
	Details     []GoodDetail `db:"-" json:"details,omitempty"`
	CreatedAt   time.Time    `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time    `db:"updated_at" json:"updated_at"`
}

// Style returns the style with the given id if it belongs to the good
func (g *Good) Style(id int64) (*GoodStyle, bool) {
	for i := range g.Styles {
		if g.Styles[i].ID == id {
			return &g.Styles[i], true
		}
	}
	return nil, false
}

// GoodStyle is a priced variant of a good
type GoodStyle struct {
	ID          int64     `db:"id" json:"id"`
	GoodID      int64     `db:"good_id" json:"good_id"`
	Name        string    `db:"name" json:"name"`
	Description *string   `db:"description" json:"description,omitempty"`
	ImageID     *string   `db:"image_id" json:"image_id,omitempty"`
	Price       int64     `db:"price" json:"price"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}

// GoodDetail is a text or image block of a good's description page
type GoodDetail struct {
	ID        int64     `db:"id" json:"id"`
	GoodID    int64     `db:"good_id" json:"good_id"`
	Text      *string   `db:"text" json:"text,omitempty"`
	ImageID   *string   `db:"image_id" json:"image_id,omitempty"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// Tag groups goods
type Tag struct {
	ID          int64     `db:"id" json:"id"`
	Name        string    `db:"name" json:"name"`
	Description *string   `db:"description" json:"description,omitempty"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}

// Banner is a promotional image shown on the storefront. Deleted banners
// are kept but no longer listed.
type Banner struct {
	ID        int64     `db:"id" json:"id"`
	ImageID   string    `db:"image_id" json:"image_id"`
	Deleted   bool      `db:"deleted" json:"deleted"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// CartItem is a pending selection in a user's cart
type CartItem struct {
	ID        int64     `db:"id" json:"id"`
	UserID    int64     `db:"user_id" json:"user_id"`
	GoodID    int64     `db:"good_id" json:"good_id"`
	StyleID   *int64    `db:"style_id" json:"style_id,omitempty"`
	Count     int       `db:"count" json:"count"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// OrderStatus is the lifecycle stage of an order
type OrderStatus int

// Order statuses
const (
	OrderStatusCreated  OrderStatus = 0
	OrderStatusPaid     OrderStatus = 1
	OrderStatusShipped  OrderStatus = 2
	OrderStatusReceived OrderStatus = 3 // set outside this service
)

// Order represents a customer order
type Order struct {
	ID         int64       `db:"id" json:"id"`
	UserID     int64       `db:"user_id" json:"user_id"`
	AddressID  int64       `db:"address_id" json:"address_id"`
	TotalPrice int64       `db:"total_price" json:"total_price"`
	Status     OrderStatus `db:"status" json:"status"`
	CreatedAt  time.Time   `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time   `db:"updated_at" json:"updated_at"`
}

// OrderItem is an immutable order line. Price and names are copied from the
// catalog when the item is created and never re-read.
type OrderItem struct {
	ID        int64     `db:"id" json:"id"`
	OrderID   int64     `db:"order_id" json:"order_id"`
	StoreID   int64     `db:"store_id" json:"store_id"`
	GoodID    int64     `db:"good_id" json:"good_id"`
	StyleID   *int64    `db:"style_id" json:"style_id,omitempty"`
	GoodName  string    `db:"good_name" json:"good_name"`
	StyleName *string   `db:"style_name" json:"style_name,omitempty"`
	Count     int       `db:"count" json:"count"`
	Price     int64     `db:"price" json:"price"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// Subtotal returns price times count
func (i *OrderItem) Subtotal() int64 {
	return i.Price * int64(i.Count)
}

// OrderView is an order together with its address and items
type OrderView struct {
	Order
	Address *Address    `json:"address"`
	Items   []OrderItem `json:"order_items"`
}

// Payment records the single payment of an order
type Payment struct {
	ID        int64     `db:"id" json:"-"`
	Seq       string    `db:"seq" json:"seq"`
	UserID    int64     `db:"user_id" json:"user_id"`
	OrderID   int64     `db:"order_id" json:"order_id"`
	ServiceID int       `db:"service_id" json:"service_id"`
	Amount    int64     `db:"amount" json:"amount"`
	Status    int       `db:"status" json:"status"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// Payment statuses
const (
	PaymentStatusSubmitted = 1
)

// Notification is a message shown in a user's feed
type Notification struct {
	ID        int64      `db:"id" json:"id"`
	UserID    int64      `db:"user_id" json:"-"`
	Title     string     `db:"title" json:"title"`
	Content   *string    `db:"content" json:"content,omitempty"`
	ReadAt    *time.Time `db:"read_at" json:"read_at,omitempty"`
	CreatedAt time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt time.Time  `db:"updated_at" json:"-"`
}

// ProcessedEvent for idempotency
type ProcessedEvent struct {
	EventID     string    `db:"event_id"`
	EventType   string    `db:"event_type"`
	ProcessedAt time.Time `db:"processed_at"`
}
