package service

import (
	"context"
	"errors"
	"math"

	"marketplace-service/internal/apperror"
	"marketplace-service/internal/auth"
	"marketplace-service/internal/models"
	"marketplace-service/internal/store"
	"marketplace-service/internal/util"

	"go.uber.org/zap"
)

// OrderService builds orders from line lists, direct buys and cart checkouts
type OrderService struct {
	db             store.DB
	eventPublisher EventPublisher
	logger         *zap.Logger
}

// NewOrderService creates a new order service
func NewOrderService(db store.DB, eventPublisher EventPublisher) *OrderService {
	return &OrderService{
		db:             db,
		eventPublisher: eventPublisher,
		logger:         util.Named("order"),
	}
}

// OrderLine is one requested line of an order
type OrderLine struct {
	GoodID  int64  `json:"good_id" binding:"required"`
	StyleID *int64 `json:"style_id,omitempty"`
	Count   int    `json:"count"`
}

// CreateOrderRequest represents a request to create an order
type CreateOrderRequest struct {
	AddressID int64       `json:"address_id" binding:"required"`
	Goods     []OrderLine `json:"goods" binding:"dive"`
}

// DirectBuyRequest buys a single good without a cart
type DirectBuyRequest struct {
	GoodID    int64  `json:"good_id" binding:"required"`
	StyleID   *int64 `json:"style_id,omitempty"`
	Count     int    `json:"count"`
	AddressID int64  `json:"address_id" binding:"required"`
}

// CartBuyRequest checks out a subset of the actor's cart
type CartBuyRequest struct {
	CartItemIDs []int64 `json:"cart_item_ids"`
	AddressID   int64   `json:"address_id" binding:"required"`
}

// UpdateOrderRequest changes the address and/or replaces all lines. Nil
// fields are left as they are.
type UpdateOrderRequest struct {
	AddressID *int64      `json:"address_id,omitempty"`
	Goods     []OrderLine `json:"goods,omitempty" binding:"omitempty,dive"`
}

// CreateOrder creates an order from an explicit line list
func (s *OrderService) CreateOrder(ctx context.Context, actor *models.User, req *CreateOrderRequest) (*models.OrderView, error) {
	ctx, span := util.StartSpan(ctx, "OrderService.CreateOrder")
	defer span.End()

	if err := validateLines(req.Goods); err != nil {
		util.OrdersFailedTotal.WithLabelValues("invalid_input").Inc()
		return nil, err
	}

	view, err := s.placeOrder(ctx, actor, req.AddressID, req.Goods, nil)
	if err != nil {
		util.RecordError(span, err)
		return nil, err
	}
	s.orderPlaced(ctx, view, "lines")
	return view, nil
}

// DirectBuy creates a single-line order
func (s *OrderService) DirectBuy(ctx context.Context, actor *models.User, req *DirectBuyRequest) (*models.OrderView, error) {
	ctx, span := util.StartSpan(ctx, "OrderService.DirectBuy")
	defer span.End()

	lines := []OrderLine{{GoodID: req.GoodID, StyleID: req.StyleID, Count: req.Count}}
	if err := validateLines(lines); err != nil {
		util.OrdersFailedTotal.WithLabelValues("invalid_input").Inc()
		return nil, err
	}

	view, err := s.placeOrder(ctx, actor, req.AddressID, lines, nil)
	if err != nil {
		util.RecordError(span, err)
		return nil, err
	}
	s.orderPlaced(ctx, view, "direct")
	return view, nil
}

// CartBuy turns the chosen cart items into one order and removes them from
// the cart in the same transaction
func (s *OrderService) CartBuy(ctx context.Context, actor *models.User, req *CartBuyRequest) (*models.OrderView, error) {
	ctx, span := util.StartSpan(ctx, "OrderService.CartBuy")
	defer span.End()

	if len(req.CartItemIDs) == 0 {
		util.OrdersFailedTotal.WithLabelValues("invalid_input").Inc()
		return nil, apperror.InvalidInput("No cart items selected.")
	}

	view, err := s.placeOrder(ctx, actor, req.AddressID, nil, req.CartItemIDs)
	if err != nil {
		util.RecordError(span, err)
		return nil, err
	}
	s.orderPlaced(ctx, view, "cart")
	return view, nil
}

// placeOrder runs the whole creation in one transaction. When cartItemIDs is
// set the lines come from those cart rows, which are deleted on success.
func (s *OrderService) placeOrder(ctx context.Context, actor *models.User, addressID int64, lines []OrderLine, cartItemIDs []int64) (*models.OrderView, error) {
	var view *models.OrderView

	err := s.db.InTx(ctx, func(tx store.Repository) error {
		if len(cartItemIDs) > 0 {
			cartLines, err := cartItemLines(ctx, tx, actor, cartItemIDs)
			if err != nil {
				return err
			}
			lines = cartLines
		}

		address, err := accessibleAddress(ctx, tx, actor, addressID)
		if err != nil {
			return err
		}

		items, total, err := priceLines(ctx, tx, lines)
		if err != nil {
			return err
		}

		order := &models.Order{
			UserID:     actor.ID,
			AddressID:  address.ID,
			TotalPrice: total,
			Status:     models.OrderStatusCreated,
		}
		if err := tx.CreateOrder(ctx, order); err != nil {
			return apperror.Internal("failed to create order", err)
		}

		for i := range items {
			items[i].OrderID = order.ID
		}
		if err := tx.CreateOrderItems(ctx, items); err != nil {
			return apperror.Internal("failed to create order items", err)
		}

		if len(cartItemIDs) > 0 {
			if err := tx.DeleteCartItems(ctx, cartItemIDs); err != nil {
				return apperror.Internal("failed to consume cart items", err)
			}
		}

		view = &models.OrderView{Order: *order, Address: address, Items: items}
		return nil
	})
	if err != nil {
		util.OrdersFailedTotal.WithLabelValues(string(apperror.KindOf(err))).Inc()
		return nil, err
	}
	return view, nil
}

func (s *OrderService) orderPlaced(ctx context.Context, view *models.OrderView, source string) {
	util.OrdersCreatedTotal.WithLabelValues(source).Inc()
	util.OrderValueTotal.Add(float64(view.TotalPrice))

	s.logger.Info("Order created",
		zap.Int64("order_id", view.ID),
		zap.Int64("user_id", view.UserID),
		zap.Int64("total_price", view.TotalPrice),
		zap.Int("items", len(view.Items)),
		zap.String("source", source))

	items := make([]models.OrderItemData, 0, len(view.Items))
	for _, item := range view.Items {
		items = append(items, models.OrderItemData{
			GoodID:  item.GoodID,
			StyleID: item.StyleID,
			Count:   item.Count,
			Price:   item.Price,
		})
	}

	event := &models.OrderCreatedEvent{
		BaseEvent:  newBaseEvent(models.EventTypeOrderCreated),
		OrderID:    view.ID,
		UserID:     view.UserID,
		TotalPrice: view.TotalPrice,
		Items:      items,
	}
	if err := s.eventPublisher.PublishOrderCreated(ctx, event); err != nil {
		util.EventsPublishFailedTotal.WithLabelValues(models.EventTypeOrderCreated).Inc()
		s.logger.Error("Failed to publish OrderCreated event", zap.Error(err))
	}
}

func validateLines(lines []OrderLine) error {
	if len(lines) == 0 {
		return apperror.InvalidInput("Order must contain at least one good.")
	}
	for _, line := range lines {
		if err := validateCount(line.Count); err != nil {
			return err
		}
	}
	return nil
}

// validateCount keeps counts within the INT column backing them
func validateCount(count int) error {
	if count <= 0 {
		return apperror.InvalidInput("Count must be positive.")
	}
	if count > math.MaxInt32 {
		return apperror.InvalidInput("Count must not exceed %d.", math.MaxInt32)
	}
	return nil
}

// cartItemLines locks the actor's cart rows. Rows of other users are treated
// as missing, administrators included.
func cartItemLines(ctx context.Context, tx store.Repository, actor *models.User, ids []int64) ([]OrderLine, error) {
	distinct := make(map[int64]struct{}, len(ids))
	for _, id := range ids {
		distinct[id] = struct{}{}
	}

	cart, err := tx.GetCartItemsForUpdate(ctx, actor.ID, ids)
	if err != nil {
		return nil, apperror.Internal("failed to load cart items", err)
	}
	if len(cart) != len(distinct) {
		return nil, apperror.NotFound("Cart item not found.")
	}

	lines := make([]OrderLine, 0, len(cart))
	for _, c := range cart {
		lines = append(lines, OrderLine{GoodID: c.GoodID, StyleID: c.StyleID, Count: c.Count})
	}
	return lines, validateLines(lines)
}

// accessibleAddress loads an address the actor may ship to. Missing and
// foreign addresses look the same to the caller.
func accessibleAddress(ctx context.Context, repo store.Repository, actor *models.User, id int64) (*models.Address, error) {
	address, err := repo.GetAddress(ctx, id)
	if err != nil {
		return nil, translate(err, "Address")
	}
	if !auth.CanAccess(actor, address.UserID) {
		return nil, apperror.NotFound("Address not found.")
	}
	return address, nil
}

// priceLines reads every referenced good once and uses that same read to
// validate styles and snapshot prices and names into order items
func priceLines(ctx context.Context, tx store.Repository, lines []OrderLine) ([]models.OrderItem, int64, error) {
	ids := make([]int64, 0, len(lines))
	seen := make(map[int64]bool, len(lines))
	for _, line := range lines {
		if !seen[line.GoodID] {
			seen[line.GoodID] = true
			ids = append(ids, line.GoodID)
		}
	}

	goods, err := tx.GetGoodsWithStyles(ctx, ids)
	if err != nil {
		return nil, 0, apperror.Internal("failed to load goods", err)
	}
	if len(goods) != len(ids) {
		return nil, 0, apperror.NotFound("Good not found.")
	}

	byID := make(map[int64]*models.Good, len(goods))
	for i := range goods {
		byID[goods[i].ID] = &goods[i]
	}

	items := make([]models.OrderItem, 0, len(lines))
	var total int64
	for _, line := range lines {
		good := byID[line.GoodID]
		item := models.OrderItem{
			StoreID:  good.StoreID,
			GoodID:   good.ID,
			GoodName: good.Name,
			Count:    line.Count,
			Price:    good.Price,
		}

		if line.StyleID != nil {
			style, ok := good.Style(*line.StyleID)
			if !ok {
				return nil, 0, apperror.InvalidReference("Style %d does not belong to good %d.", *line.StyleID, good.ID)
			}
			styleID, styleName := style.ID, style.Name
			item.StyleID = &styleID
			item.StyleName = &styleName
			item.Price = style.Price
		}

		if item.Price > 0 && int64(item.Count) > math.MaxInt64/item.Price {
			return nil, 0, apperror.InvalidInput("Line total for good %d is too large.", good.ID)
		}
		subtotal := item.Subtotal()
		if subtotal > 0 && total > math.MaxInt64-subtotal {
			return nil, 0, apperror.InvalidInput("Order total is too large.")
		}
		total += subtotal
		items = append(items, item)
	}
	return items, total, nil
}

// UpdateOrder changes the address and/or replaces the lines of an order.
// Lines can only be replaced while the order is unpaid.
func (s *OrderService) UpdateOrder(ctx context.Context, actor *models.User, id int64, req *UpdateOrderRequest) (*models.OrderView, error) {
	ctx, span := util.StartSpan(ctx, "OrderService.UpdateOrder")
	defer span.End()

	if req.Goods != nil {
		if err := validateLines(req.Goods); err != nil {
			return nil, err
		}
	}

	var view *models.OrderView
	err := s.db.InTx(ctx, func(tx store.Repository) error {
		order, err := lockOwnedOrder(ctx, tx, actor, id)
		if err != nil {
			return err
		}

		if req.AddressID != nil {
			address, err := accessibleAddress(ctx, tx, actor, *req.AddressID)
			if err != nil {
				return err
			}
			order.AddressID = address.ID
		}

		if req.Goods != nil {
			if order.Status != models.OrderStatusCreated {
				return apperror.Conflict("Order %d is already paid.", order.ID)
			}
			items, total, err := priceLines(ctx, tx, req.Goods)
			if err != nil {
				return err
			}
			for i := range items {
				items[i].OrderID = order.ID
			}
			if err := tx.DeleteOrderItems(ctx, order.ID); err != nil {
				return apperror.Internal("failed to delete order items", err)
			}
			if err := tx.CreateOrderItems(ctx, items); err != nil {
				return apperror.Internal("failed to create order items", err)
			}
			order.TotalPrice = total
		}

		if err := tx.UpdateOrder(ctx, order); err != nil {
			return translate(err, "Order")
		}

		view, err = orderView(ctx, tx, order)
		return err
	})
	if err != nil {
		util.RecordError(span, err)
		return nil, err
	}

	s.logger.Info("Order updated", zap.Int64("order_id", id), zap.Int64("total_price", view.TotalPrice))
	return view, nil
}

// DeleteOrder deletes an unpaid order and its items
func (s *OrderService) DeleteOrder(ctx context.Context, actor *models.User, id int64) error {
	ctx, span := util.StartSpan(ctx, "OrderService.DeleteOrder")
	defer span.End()

	err := s.db.InTx(ctx, func(tx store.Repository) error {
		order, err := lockOwnedOrder(ctx, tx, actor, id)
		if err != nil {
			return err
		}

		_, err = tx.GetPaymentByOrderID(ctx, order.ID)
		if err == nil {
			return apperror.Conflict("Order %d has a payment and cannot be deleted.", order.ID)
		}
		if !errors.Is(err, store.ErrNotFound) {
			return apperror.Internal("failed to load payment", err)
		}

		if err := tx.DeleteOrderItems(ctx, order.ID); err != nil {
			return apperror.Internal("failed to delete order items", err)
		}
		return translate(tx.DeleteOrder(ctx, order.ID), "Order")
	})
	if err != nil {
		util.RecordError(span, err)
		return err
	}

	util.OrdersDeletedTotal.Inc()
	s.logger.Info("Order deleted", zap.Int64("order_id", id))
	return nil
}

// lockOwnedOrder locks an order for a mutating operation. An absent order is
// NotFound and a foreign one Forbidden.
func lockOwnedOrder(ctx context.Context, tx store.Repository, actor *models.User, id int64) (*models.Order, error) {
	order, err := tx.LockOrder(ctx, id)
	if err != nil {
		return nil, translate(err, "Order")
	}
	if !auth.CanAccess(actor, order.UserID) {
		return nil, apperror.Forbidden("Order %d belongs to another user.", id)
	}
	return order, nil
}

// GetOrder returns the full order view. Foreign orders are reported as
// missing.
func (s *OrderService) GetOrder(ctx context.Context, actor *models.User, id int64) (*models.OrderView, error) {
	ctx, span := util.StartSpan(ctx, "OrderService.GetOrder")
	defer span.End()

	order, err := s.db.GetOrder(ctx, id)
	if err != nil {
		return nil, translate(err, "Order")
	}
	if !auth.CanAccess(actor, order.UserID) {
		return nil, apperror.NotFound("Order not found.")
	}
	return orderView(ctx, s.db, order)
}

// ListOrders lists the actor's orders, or every order for administrators
func (s *OrderService) ListOrders(ctx context.Context, actor *models.User, page store.Page) ([]models.Order, error) {
	orders, err := s.db.ListOrders(ctx, ownerFilter(actor), NormalizePage(page))
	if err != nil {
		return nil, apperror.Internal("failed to list orders", err)
	}
	return orders, nil
}

func orderView(ctx context.Context, repo store.Repository, order *models.Order) (*models.OrderView, error) {
	view := &models.OrderView{Order: *order}

	address, err := repo.GetAddress(ctx, order.AddressID)
	switch {
	case err == nil:
		view.Address = address
	case !errors.Is(err, store.ErrNotFound):
		return nil, apperror.Internal("failed to load address", err)
	}

	items, err := repo.ListOrderItems(ctx, order.ID)
	if err != nil {
		return nil, apperror.Internal("failed to load order items", err)
	}
	view.Items = items
	return view, nil
}
