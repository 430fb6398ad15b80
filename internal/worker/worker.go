package worker

import (
	"context"

	"marketplace-service/internal/broker"
	"marketplace-service/internal/service"
	"marketplace-service/internal/util"

	"go.uber.org/zap"
)

// NotificationWorker turns order events from Kafka into user notifications
type NotificationWorker struct {
	consumer     *broker.Consumer
	eventHandler *broker.EventHandler
	logger       *zap.Logger
}

// NewNotificationWorker creates a new notification worker
func NewNotificationWorker(
	consumer *broker.Consumer,
	notifications *service.NotificationService,
) *NotificationWorker {
	return &NotificationWorker{
		consumer:     consumer,
		eventHandler: NewEventHandler(notifications),
		logger:       util.Named("worker"),
	}
}

// NewEventHandler routes paid and shipped events to the notification service
func NewEventHandler(notifications *service.NotificationService) *broker.EventHandler {
	eventHandler := broker.NewEventHandler()
	eventHandler.OnOrderPaid(notifications.HandleOrderPaid)
	eventHandler.OnOrderShipped(notifications.HandleOrderShipped)
	return eventHandler
}

// Start starts the worker
func (w *NotificationWorker) Start(ctx context.Context) error {
	w.logger.Info("Starting notification worker")
	return w.consumer.StartConsuming(ctx, w.eventHandler.HandleMessage)
}

// Stop stops the worker
func (w *NotificationWorker) Stop() error {
	w.logger.Info("Stopping notification worker")
	return w.consumer.Close()
}
