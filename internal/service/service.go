package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"marketplace-service/internal/apperror"
	"marketplace-service/internal/models"
	"marketplace-service/internal/store"

	"github.com/google/uuid"
)

// List window defaults
const (
	DefaultPageLimit = 20
	MaxPageLimit     = 100
)

// EventPublisher publishes domain events after a successful commit
type EventPublisher interface {
	PublishOrderCreated(ctx context.Context, event *models.OrderCreatedEvent) error
	PublishOrderPaid(ctx context.Context, event *models.OrderPaidEvent) error
	PublishOrderShipped(ctx context.Context, event *models.OrderShippedEvent) error
}

// ShipmentMarks is the side store of per-item shipped markers
type ShipmentMarks interface {
	// MarkShipped sets the item's marker and returns how many of siblingIDs
	// are marked, in one atomic step
	MarkShipped(ctx context.Context, itemID int64, siblingIDs []int64) (int, error)
	CountShipped(ctx context.Context, itemIDs []int64) (int, error)
	IsShipped(ctx context.Context, itemID int64) (bool, error)
}

// NormalizePage applies the default and maximum list window
func NormalizePage(p store.Page) store.Page {
	if p.Limit <= 0 {
		p.Limit = DefaultPageLimit
	}
	if p.Limit > MaxPageLimit {
		p.Limit = MaxPageLimit
	}
	if p.Offset < 0 {
		p.Offset = 0
	}
	return p
}

func newBaseEvent(eventType string) models.BaseEvent {
	return models.BaseEvent{
		EventID:   uuid.New().String(),
		EventType: eventType,
		Timestamp: time.Now(),
	}
}

// translate turns store sentinels into domain errors for the named entity.
// Errors that are already domain errors pass through unchanged.
func translate(err error, entity string) error {
	if err == nil {
		return nil
	}
	var appErr *apperror.Error
	if errors.As(err, &appErr) {
		return err
	}
	if errors.Is(err, store.ErrNotFound) {
		return apperror.NotFound("%s not found.", entity)
	}
	return apperror.Internal(fmt.Sprintf("%s query failed", entity), err)
}

// ownerFilter limits list queries to the actor unless the actor is an admin
func ownerFilter(actor *models.User) *int64 {
	if actor.IsAdmin() {
		return nil
	}
	id := actor.ID
	return &id
}
