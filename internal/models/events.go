package models

import "time"

// Event types
const (
	EventTypeOrderCreated = "ORDER_CREATED"
	EventTypeOrderPaid    = "ORDER_PAID"
	EventTypeOrderShipped = "ORDER_SHIPPED"
)

// BaseEvent contains common fields for all events
type BaseEvent struct {
	EventID   string    `json:"event_id"`
	EventType string    `json:"event_type"`
	Timestamp time.Time `json:"timestamp"`
}

// OrderCreatedEvent published when an order is placed
type OrderCreatedEvent struct {
	BaseEvent
	OrderID    int64           `json:"order_id"`
	UserID     int64           `json:"user_id"`
	TotalPrice int64           `json:"total_price"`
	Items      []OrderItemData `json:"items"`
}

// OrderPaidEvent published when a payment is recorded
type OrderPaidEvent struct {
	BaseEvent
	OrderID    int64  `json:"order_id"`
	UserID     int64  `json:"user_id"`
	PaymentSeq string `json:"payment_seq"`
	Amount     int64  `json:"amount"`
}

// OrderShippedEvent published once every item of an order is shipped
type OrderShippedEvent struct {
	BaseEvent
	OrderID int64 `json:"order_id"`
	UserID  int64 `json:"user_id"`
}

// OrderItemData represents item data in events
type OrderItemData struct {
	GoodID  int64  `json:"good_id"`
	StyleID *int64 `json:"style_id,omitempty"`
	Count   int    `json:"count"`
	Price   int64  `json:"price"`
}
