package broker

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"marketplace-service/internal/models"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func message(t *testing.T, event interface{}) kafka.Message {
	t.Helper()
	value, err := json.Marshal(event)
	require.NoError(t, err)
	return kafka.Message{Value: value}
}

func TestHandleMessageRoutesByType(t *testing.T) {
	eh := NewEventHandler()

	var paid *models.OrderPaidEvent
	var shipped *models.OrderShippedEvent
	eh.OnOrderPaid(func(ctx context.Context, e *models.OrderPaidEvent) error {
		paid = e
		return nil
	})
	eh.OnOrderShipped(func(ctx context.Context, e *models.OrderShippedEvent) error {
		shipped = e
		return nil
	})

	ctx := context.Background()
	err := eh.HandleMessage(ctx, message(t, &models.OrderPaidEvent{
		BaseEvent:  models.BaseEvent{EventID: "e1", EventType: models.EventTypeOrderPaid, Timestamp: time.Now()},
		OrderID:    4,
		UserID:     2,
		PaymentSeq: "ABC",
		Amount:     300,
	}))
	require.NoError(t, err)
	require.NotNil(t, paid)
	assert.Equal(t, int64(300), paid.Amount)
	assert.Nil(t, shipped)

	err = eh.HandleMessage(ctx, message(t, &models.OrderShippedEvent{
		BaseEvent: models.BaseEvent{EventID: "e2", EventType: models.EventTypeOrderShipped},
		OrderID:   4,
		UserID:    2,
	}))
	require.NoError(t, err)
	require.NotNil(t, shipped)
	assert.Equal(t, int64(4), shipped.OrderID)
}

func TestHandleMessageIgnoresUnknownTypes(t *testing.T) {
	eh := NewEventHandler()

	err := eh.HandleMessage(context.Background(), message(t, &models.OrderCreatedEvent{
		BaseEvent: models.BaseEvent{EventID: "e3", EventType: models.EventTypeOrderCreated},
	}))
	assert.NoError(t, err)
}

func TestHandleMessageRejectsGarbage(t *testing.T) {
	eh := NewEventHandler()

	err := eh.HandleMessage(context.Background(), kafka.Message{Value: []byte("not json")})
	assert.Error(t, err)
}

func TestOrderKey(t *testing.T) {
	assert.Equal(t, "order-12", orderKey(12))
}
