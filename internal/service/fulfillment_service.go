package service

import (
	"context"
	"errors"

	"marketplace-service/internal/apperror"
	"marketplace-service/internal/auth"
	"marketplace-service/internal/models"
	"marketplace-service/internal/store"
	"marketplace-service/internal/util"

	"go.uber.org/zap"
)

// FulfillmentService records shipped items and promotes an order once all of
// its items are shipped
type FulfillmentService struct {
	db             store.DB
	marks          ShipmentMarks
	eventPublisher EventPublisher
	logger         *zap.Logger
}

// NewFulfillmentService creates a new fulfillment service
func NewFulfillmentService(db store.DB, marks ShipmentMarks, eventPublisher EventPublisher) *FulfillmentService {
	return &FulfillmentService{
		db:             db,
		marks:          marks,
		eventPublisher: eventPublisher,
		logger:         util.Named("fulfillment"),
	}
}

// StoreOrderItem is an order item sold by a store with its shipped flag
type StoreOrderItem struct {
	models.OrderItem
	Shipped bool `json:"shipped"`
}

// MarkShipped marks one order item shipped. Marking is idempotent. The call
// that completes the last item of a paid order moves it to shipped.
func (fs *FulfillmentService) MarkShipped(ctx context.Context, actor *models.User, itemID int64) (bool, error) {
	ctx, span := util.StartSpan(ctx, "FulfillmentService.MarkShipped")
	defer span.End()

	item, err := fs.db.GetOrderItem(ctx, itemID)
	if err != nil {
		return false, translate(err, "Order item")
	}
	if err := fs.checkStoreAccess(ctx, actor, item.StoreID); err != nil {
		return false, err
	}

	order, err := fs.db.GetOrder(ctx, item.OrderID)
	if err != nil {
		return false, translate(err, "Order")
	}
	if order.Status == models.OrderStatusCreated {
		return false, apperror.Conflict("Order %d is not paid yet.", order.ID)
	}

	siblings, err := fs.db.ListOrderItems(ctx, order.ID)
	if err != nil {
		return false, apperror.Internal("failed to load order items", err)
	}
	ids := itemIDs(siblings)

	shipped, err := fs.marks.MarkShipped(ctx, item.ID, ids)
	if err != nil {
		util.MarkStoreErrorsTotal.Inc()
		util.RecordError(span, err)
		fs.logger.Error("Failed to write shipped marker", zap.Int64("item_id", item.ID), zap.Error(err))
		return false, apperror.Internal("shipment marker store unavailable", err)
	}
	util.ItemsShippedTotal.Inc()

	if shipped >= len(ids) {
		if err := fs.promote(ctx, order.ID); err != nil {
			util.RecordError(span, err)
			return false, err
		}
	}
	return true, nil
}

// promote re-checks every marker under the order row lock and moves the order
// from paid to shipped. Only the call whose update changes the row reports it.
func (fs *FulfillmentService) promote(ctx context.Context, orderID int64) error {
	var promoted *models.Order

	err := fs.db.InTx(ctx, func(tx store.Repository) error {
		order, err := tx.LockOrder(ctx, orderID)
		if err != nil {
			return translate(err, "Order")
		}
		if order.Status != models.OrderStatusPaid {
			return nil
		}

		items, err := tx.ListOrderItems(ctx, orderID)
		if err != nil {
			return apperror.Internal("failed to load order items", err)
		}
		ids := itemIDs(items)

		shipped, err := fs.marks.CountShipped(ctx, ids)
		if err != nil {
			util.MarkStoreErrorsTotal.Inc()
			return apperror.Internal("shipment marker store unavailable", err)
		}
		if shipped < len(ids) {
			return nil
		}

		changed, err := tx.SetOrderStatus(ctx, orderID, models.OrderStatusPaid, models.OrderStatusShipped)
		if err != nil {
			return apperror.Internal("failed to update order status", err)
		}
		if changed {
			promoted = order
		}
		return nil
	})
	if err != nil || promoted == nil {
		return err
	}

	util.OrdersShippedTotal.Inc()
	fs.logger.Info("Order shipped", zap.Int64("order_id", orderID))

	event := &models.OrderShippedEvent{
		BaseEvent: newBaseEvent(models.EventTypeOrderShipped),
		OrderID:   promoted.ID,
		UserID:    promoted.UserID,
	}
	if err := fs.eventPublisher.PublishOrderShipped(ctx, event); err != nil {
		util.EventsPublishFailedTotal.WithLabelValues(models.EventTypeOrderShipped).Inc()
		fs.logger.Error("Failed to publish OrderShipped event", zap.Error(err))
	}
	return nil
}

// IsShipped reads the marker of an existing order item
func (fs *FulfillmentService) IsShipped(ctx context.Context, itemID int64) (bool, error) {
	if _, err := fs.db.GetOrderItem(ctx, itemID); err != nil {
		return false, translate(err, "Order item")
	}

	shipped, err := fs.marks.IsShipped(ctx, itemID)
	if err != nil {
		util.MarkStoreErrorsTotal.Inc()
		return false, apperror.Internal("shipment marker store unavailable", err)
	}
	return shipped, nil
}

// ListStoreItems lists the order items sold by a store with their shipped
// flags
func (fs *FulfillmentService) ListStoreItems(ctx context.Context, actor *models.User, storeID int64, page store.Page) ([]StoreOrderItem, error) {
	if _, err := fs.db.GetStore(ctx, storeID); err != nil {
		return nil, translate(err, "Store")
	}
	if err := fs.checkStoreAccess(ctx, actor, storeID); err != nil {
		return nil, err
	}

	items, err := fs.db.ListStoreOrderItems(ctx, storeID, NormalizePage(page))
	if err != nil {
		return nil, apperror.Internal("failed to list store items", err)
	}

	out := make([]StoreOrderItem, 0, len(items))
	for _, item := range items {
		shipped, err := fs.marks.IsShipped(ctx, item.ID)
		if err != nil {
			util.MarkStoreErrorsTotal.Inc()
			return nil, apperror.Internal("shipment marker store unavailable", err)
		}
		out = append(out, StoreOrderItem{OrderItem: item, Shipped: shipped})
	}
	return out, nil
}

// checkStoreAccess requires the actor to own the store. Items of a deleted
// store can only be handled by administrators.
func (fs *FulfillmentService) checkStoreAccess(ctx context.Context, actor *models.User, storeID int64) error {
	s, err := fs.db.GetStore(ctx, storeID)
	if errors.Is(err, store.ErrNotFound) {
		if actor.IsAdmin() {
			return nil
		}
		return apperror.Forbidden("Store %d is not yours.", storeID)
	}
	if err != nil {
		return apperror.Internal("failed to load store", err)
	}
	if !auth.CanAccess(actor, s.OwnerID) {
		return apperror.Forbidden("Store %d is not yours.", storeID)
	}
	return nil
}

func itemIDs(items []models.OrderItem) []int64 {
	ids := make([]int64, len(items))
	for i, item := range items {
		ids[i] = item.ID
	}
	return ids
}
