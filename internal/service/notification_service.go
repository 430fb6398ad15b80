package service

import (
	"context"
	"fmt"
	"time"

	"marketplace-service/internal/apperror"
	"marketplace-service/internal/models"
	"marketplace-service/internal/store"
	"marketplace-service/internal/util"

	"go.uber.org/zap"
)

const (
	welcomeTitle   = "Welcome to the marketplace"
	welcomeContent = "Thanks for joining. The marketplace is in early development, please bear with us if something goes wrong."
)

// NotificationService serves the notification feed and turns order events
// into stored notifications
type NotificationService struct {
	db     store.DB
	logger *zap.Logger
	now    func() time.Time
}

// NewNotificationService creates a new notification service
func NewNotificationService(db store.DB) *NotificationService {
	return &NotificationService{db: db, logger: util.Named("notification"), now: time.Now}
}

// List returns the actor's notifications newest first, followed by the
// welcome entry
func (ns *NotificationService) List(ctx context.Context, actor *models.User, page store.Page) ([]models.Notification, error) {
	notifications, err := ns.db.ListNotifications(ctx, actor.ID, NormalizePage(page))
	if err != nil {
		return nil, apperror.Internal("failed to list notifications", err)
	}

	content := welcomeContent
	return append(notifications, models.Notification{
		UserID:    actor.ID,
		Title:     welcomeTitle,
		Content:   &content,
		CreatedAt: ns.now(),
	}), nil
}

// HandleOrderPaid stores a notification for the buyer of a paid order
func (ns *NotificationService) HandleOrderPaid(ctx context.Context, event *models.OrderPaidEvent) error {
	ctx, span := util.StartSpan(ctx, "NotificationService.HandleOrderPaid")
	defer span.End()

	content := fmt.Sprintf("Payment %s of %d received.", event.PaymentSeq, event.Amount)
	return ns.notifyOnce(ctx, event.BaseEvent, &models.Notification{
		UserID:  event.UserID,
		Title:   fmt.Sprintf("Order #%d paid", event.OrderID),
		Content: &content,
	})
}

// HandleOrderShipped stores a notification for the buyer of a shipped order
func (ns *NotificationService) HandleOrderShipped(ctx context.Context, event *models.OrderShippedEvent) error {
	ctx, span := util.StartSpan(ctx, "NotificationService.HandleOrderShipped")
	defer span.End()

	content := "Every item of your order is on its way."
	return ns.notifyOnce(ctx, event.BaseEvent, &models.Notification{
		UserID:  event.UserID,
		Title:   fmt.Sprintf("Order #%d shipped", event.OrderID),
		Content: &content,
	})
}

// notifyOnce stores n unless the event was already handled. The check, the
// insert and the processed mark share one transaction.
func (ns *NotificationService) notifyOnce(ctx context.Context, event models.BaseEvent, n *models.Notification) error {
	var duplicate bool

	err := ns.db.InTx(ctx, func(tx store.Repository) error {
		processed, err := tx.IsEventProcessed(ctx, event.EventID)
		if err != nil {
			return fmt.Errorf("failed to check event processed: %w", err)
		}
		if processed {
			duplicate = true
			return nil
		}

		if err := tx.CreateNotification(ctx, n); err != nil {
			return fmt.Errorf("failed to create notification: %w", err)
		}
		if err := tx.MarkEventProcessed(ctx, event.EventID, event.EventType); err != nil {
			return fmt.Errorf("failed to mark event processed: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	if duplicate {
		ns.logger.Info("Event already processed", zap.String("event_id", event.EventID))
		return nil
	}

	util.NotificationsCreatedTotal.WithLabelValues(event.EventType).Inc()
	ns.logger.Info("Notification stored",
		zap.String("event_type", event.EventType),
		zap.Int64("user_id", n.UserID))
	return nil
}
