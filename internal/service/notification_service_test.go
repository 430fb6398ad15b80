package service

import (
	"fmt"
	"testing"

	"marketplace-service/internal/models"
	"marketplace-service/internal/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNotificationFeed(t *testing.T) {
	f := newFixture(t)
	seller := f.user("seller")
	buyer := f.user("buyer")
	other := f.user("other")
	view := f.paidOrder(buyer, f.good(seller, f.store(seller), 100))

	feed, err := f.notifications.List(f.ctx, buyer, store.Page{})
	require.NoError(t, err)
	require.Len(t, feed, 1)
	assert.Equal(t, welcomeTitle, feed[0].Title)

	require.Len(t, f.pub.paid, 1)
	require.NoError(t, f.notifications.HandleOrderPaid(f.ctx, f.pub.paid[0]))

	_, err = f.fulfillment.MarkShipped(f.ctx, seller, view.Items[0].ID)
	require.NoError(t, err)
	require.Len(t, f.pub.shipped, 1)
	require.NoError(t, f.notifications.HandleOrderShipped(f.ctx, f.pub.shipped[0]))
	// a redelivered event is ignored
	require.NoError(t, f.notifications.HandleOrderShipped(f.ctx, f.pub.shipped[0]))

	feed, err = f.notifications.List(f.ctx, buyer, store.Page{})
	require.NoError(t, err)
	require.Len(t, feed, 3)
	titles := []string{feed[0].Title, feed[1].Title, feed[2].Title}
	assert.ElementsMatch(t, []string{
		fmt.Sprintf("Order #%d paid", view.ID),
		fmt.Sprintf("Order #%d shipped", view.ID),
	}, titles[:2])
	assert.Equal(t, welcomeTitle, titles[2])

	others, err := f.notifications.List(f.ctx, other, store.Page{})
	require.NoError(t, err)
	require.Len(t, others, 1)
	assert.Equal(t, welcomeTitle, others[0].Title)
}

func TestHandleOrderPaidContent(t *testing.T) {
	f := newFixture(t)
	event := &models.OrderPaidEvent{
		BaseEvent:  models.BaseEvent{EventID: "evt-9", EventType: models.EventTypeOrderPaid},
		OrderID:    12,
		UserID:     5,
		PaymentSeq: "ABC",
		Amount:     300,
	}
	require.NoError(t, f.notifications.HandleOrderPaid(f.ctx, event))

	stored, err := f.db.ListNotifications(f.ctx, 5, store.Page{})
	require.NoError(t, err)
	require.Len(t, stored, 1)
	assert.Equal(t, "Order #12 paid", stored[0].Title)
	assert.Equal(t, "Payment ABC of 300 received.", *stored[0].Content)

	processed, err := f.db.IsEventProcessed(f.ctx, "evt-9")
	require.NoError(t, err)
	assert.True(t, processed)
}
