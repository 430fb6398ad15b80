package store

import (
	"context"
	"fmt"

	"marketplace-service/internal/models"

	"github.com/jmoiron/sqlx"
)

// CreateOrder creates a new order
func (q *Queries) CreateOrder(ctx context.Context, o *models.Order) error {
	query := `
		INSERT INTO orders (user_id, address_id, total_price, status)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at, updated_at`

	return sqlx.GetContext(ctx, q.db, o, query, o.UserID, o.AddressID, o.TotalPrice, o.Status)
}

// GetOrder retrieves an order by ID
func (q *Queries) GetOrder(ctx context.Context, id int64) (*models.Order, error) {
	var o models.Order
	if err := sqlx.GetContext(ctx, q.db, &o, "SELECT * FROM orders WHERE id = $1", id); err != nil {
		return nil, notFound(err)
	}
	return &o, nil
}

// LockOrder retrieves an order with a FOR UPDATE lock
func (q *Queries) LockOrder(ctx context.Context, id int64) (*models.Order, error) {
	var o models.Order
	if err := sqlx.GetContext(ctx, q.db, &o, "SELECT * FROM orders WHERE id = $1 FOR UPDATE", id); err != nil {
		return nil, notFound(err)
	}
	return &o, nil
}

// ListOrders lists orders newest first, optionally restricted to one user
func (q *Queries) ListOrders(ctx context.Context, userID *int64, page Page) ([]models.Order, error) {
	orders := []models.Order{}
	err := sqlx.SelectContext(ctx, q.db, &orders, `
		SELECT * FROM orders
		WHERE $1::bigint IS NULL OR user_id = $1
		ORDER BY created_at DESC, id DESC LIMIT $2 OFFSET $3`, userID, page.Limit, page.Offset)
	return orders, err
}

// CountOrdersByStatus counts a user's orders per status
func (q *Queries) CountOrdersByStatus(ctx context.Context, userID int64) (map[models.OrderStatus]int, error) {
	var rows []struct {
		Status models.OrderStatus `db:"status"`
		Count  int                `db:"count"`
	}
	err := sqlx.SelectContext(ctx, q.db, &rows,
		"SELECT status, COUNT(*) AS count FROM orders WHERE user_id = $1 GROUP BY status", userID)
	if err != nil {
		return nil, err
	}

	counts := make(map[models.OrderStatus]int, len(rows))
	for _, r := range rows {
		counts[r.Status] = r.Count
	}
	return counts, nil
}

// UpdateOrder updates the address and total of an order
func (q *Queries) UpdateOrder(ctx context.Context, o *models.Order) error {
	return notFound(sqlx.GetContext(ctx, q.db, o, `
		UPDATE orders SET address_id = $1, total_price = $2, updated_at = NOW()
		WHERE id = $3
		RETURNING updated_at`, o.AddressID, o.TotalPrice, o.ID))
}

// SetOrderStatus updates order status only when it currently equals from
func (q *Queries) SetOrderStatus(ctx context.Context, id int64, from, to models.OrderStatus) (bool, error) {
	res, err := q.db.ExecContext(ctx,
		"UPDATE orders SET status = $1, updated_at = NOW() WHERE id = $2 AND status = $3",
		to, id, from)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

// DeleteOrder deletes an order row. Items must be deleted first.
func (q *Queries) DeleteOrder(ctx context.Context, id int64) error {
	return mustAffect(q.db.ExecContext(ctx, "DELETE FROM orders WHERE id = $1", id))
}

// CreateOrderItems inserts order items, filling in their IDs
func (q *Queries) CreateOrderItems(ctx context.Context, items []models.OrderItem) error {
	query := `
		INSERT INTO order_items (order_id, store_id, good_id, style_id, good_name, style_name, count, price)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at, updated_at`

	for i := range items {
		item := &items[i]
		err := sqlx.GetContext(ctx, q.db, item, query,
			item.OrderID, item.StoreID, item.GoodID, item.StyleID,
			item.GoodName, item.StyleName, item.Count, item.Price)
		if err != nil {
			return fmt.Errorf("failed to insert order item: %w", err)
		}
	}
	return nil
}

// GetOrderItem retrieves an order item by ID
func (q *Queries) GetOrderItem(ctx context.Context, id int64) (*models.OrderItem, error) {
	var item models.OrderItem
	if err := sqlx.GetContext(ctx, q.db, &item, "SELECT * FROM order_items WHERE id = $1", id); err != nil {
		return nil, notFound(err)
	}
	return &item, nil
}

// ListOrderItems retrieves all items for an order
func (q *Queries) ListOrderItems(ctx context.Context, orderID int64) ([]models.OrderItem, error) {
	items := []models.OrderItem{}
	err := sqlx.SelectContext(ctx, q.db, &items,
		"SELECT * FROM order_items WHERE order_id = $1 ORDER BY id", orderID)
	return items, err
}

// ListStoreOrderItems lists the order items sold by a store, newest first
func (q *Queries) ListStoreOrderItems(ctx context.Context, storeID int64, page Page) ([]models.OrderItem, error) {
	items := []models.OrderItem{}
	err := sqlx.SelectContext(ctx, q.db, &items,
		"SELECT * FROM order_items WHERE store_id = $1 ORDER BY id DESC LIMIT $2 OFFSET $3",
		storeID, page.Limit, page.Offset)
	return items, err
}

// DeleteOrderItems deletes all items of an order
func (q *Queries) DeleteOrderItems(ctx context.Context, orderID int64) error {
	_, err := q.db.ExecContext(ctx, "DELETE FROM order_items WHERE order_id = $1", orderID)
	return err
}

// AddCartItem adds an item to a cart
func (q *Queries) AddCartItem(ctx context.Context, c *models.CartItem) error {
	return sqlx.GetContext(ctx, q.db, c, `
		INSERT INTO cart_items (user_id, good_id, style_id, count)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at, updated_at`, c.UserID, c.GoodID, c.StyleID, c.Count)
}

// GetCartItem retrieves a cart item by ID
func (q *Queries) GetCartItem(ctx context.Context, id int64) (*models.CartItem, error) {
	var c models.CartItem
	if err := sqlx.GetContext(ctx, q.db, &c, "SELECT * FROM cart_items WHERE id = $1", id); err != nil {
		return nil, notFound(err)
	}
	return &c, nil
}

// ListCartItems lists a user's cart
func (q *Queries) ListCartItems(ctx context.Context, userID int64, page Page) ([]models.CartItem, error) {
	items := []models.CartItem{}
	err := sqlx.SelectContext(ctx, q.db, &items,
		"SELECT * FROM cart_items WHERE user_id = $1 ORDER BY id LIMIT $2 OFFSET $3",
		userID, page.Limit, page.Offset)
	return items, err
}

// GetCartItemsForUpdate locks the user's cart items among ids
func (q *Queries) GetCartItemsForUpdate(ctx context.Context, userID int64, ids []int64) ([]models.CartItem, error) {
	if len(ids) == 0 {
		return []models.CartItem{}, nil
	}

	query, args, err := sqlx.In(
		"SELECT * FROM cart_items WHERE user_id = ? AND id IN (?) ORDER BY id FOR UPDATE", userID, ids)
	if err != nil {
		return nil, err
	}

	var items []models.CartItem
	err = sqlx.SelectContext(ctx, q.db, &items, q.db.Rebind(query), args...)
	return items, err
}

// DeleteCartItems deletes cart items by ID
func (q *Queries) DeleteCartItems(ctx context.Context, ids []int64) error {
	if len(ids) == 0 {
		return nil
	}

	query, args, err := sqlx.In("DELETE FROM cart_items WHERE id IN (?)", ids)
	if err != nil {
		return err
	}
	_, err = q.db.ExecContext(ctx, q.db.Rebind(query), args...)
	return err
}

// CreatePayment creates a payment record. The unique index on order_id turns
// a second payment for the same order into ErrDuplicate.
func (q *Queries) CreatePayment(ctx context.Context, p *models.Payment) error {
	query := `
		INSERT INTO payments (seq, user_id, order_id, service_id, amount, status)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at, updated_at`

	err := sqlx.GetContext(ctx, q.db, p, query,
		p.Seq, p.UserID, p.OrderID, p.ServiceID, p.Amount, p.Status)
	if isUniqueViolation(err) {
		return ErrDuplicate
	}
	return err
}

// GetPaymentByOrderID retrieves payment for an order
func (q *Queries) GetPaymentByOrderID(ctx context.Context, orderID int64) (*models.Payment, error) {
	var p models.Payment
	if err := sqlx.GetContext(ctx, q.db, &p, "SELECT * FROM payments WHERE order_id = $1", orderID); err != nil {
		return nil, notFound(err)
	}
	return &p, nil
}
