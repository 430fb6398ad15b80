package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"marketplace-service/internal/apperror"
	"marketplace-service/internal/auth"
	"marketplace-service/internal/models"
	"marketplace-service/internal/store"
	"marketplace-service/internal/util"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// PayService is a payment channel the buyer can choose
type PayService struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

var payServices = []PayService{
	{ID: 1, Name: "alipay"},
	{ID: 2, Name: "wechat_pay"},
	{ID: 3, Name: "union_pay"},
}

// PayOrderRequest pays an order. The amount is always the order total.
type PayOrderRequest struct {
	OrderID   int64 `json:"order_id" binding:"required"`
	ServiceID int   `json:"service_id" binding:"required"`
}

// PaymentService records the single payment of an order
type PaymentService struct {
	db             store.DB
	eventPublisher EventPublisher
	logger         *zap.Logger
}

// NewPaymentService creates a new payment service
func NewPaymentService(db store.DB, eventPublisher EventPublisher) *PaymentService {
	return &PaymentService{
		db:             db,
		eventPublisher: eventPublisher,
		logger:         util.Named("payment"),
	}
}

// AvailableServices lists the payment channels
func (ps *PaymentService) AvailableServices() []PayService {
	out := make([]PayService, len(payServices))
	copy(out, payServices)
	return out
}

func serviceByID(id int) (PayService, bool) {
	for _, s := range payServices {
		if s.ID == id {
			return s, true
		}
	}
	return PayService{}, false
}

// newPaymentSeq returns 32 upper-case hex characters from a random v4 UUID
func newPaymentSeq() string {
	return strings.ToUpper(strings.ReplaceAll(uuid.New().String(), "-", ""))
}

// PayOrder records the payment of an unpaid order and marks it paid. Only the
// buyer can pay, and a second payment of the same order is a Conflict.
func (ps *PaymentService) PayOrder(ctx context.Context, actor *models.User, req *PayOrderRequest) (*models.Payment, error) {
	ctx, span := util.StartSpan(ctx, "PaymentService.PayOrder")
	defer span.End()

	util.PaymentAttemptsTotal.Inc()
	start := time.Now()
	defer func() {
		util.PaymentProcessingLatency.Observe(time.Since(start).Seconds())
	}()

	service, ok := serviceByID(req.ServiceID)
	if !ok {
		util.PaymentFailedTotal.WithLabelValues("unknown_service").Inc()
		return nil, apperror.InvalidInput("Unknown payment service %d.", req.ServiceID)
	}

	var payment *models.Payment
	err := ps.db.InTx(ctx, func(tx store.Repository) error {
		order, err := tx.LockOrder(ctx, req.OrderID)
		if err != nil {
			return translate(err, "Order")
		}
		if order.UserID != actor.ID {
			return apperror.NotFound("Order not found.")
		}

		if _, err := tx.GetPaymentByOrderID(ctx, order.ID); err == nil {
			return apperror.Conflict("Order %d is already paid.", order.ID)
		} else if !errors.Is(err, store.ErrNotFound) {
			return apperror.Internal("failed to load payment", err)
		}
		if order.Status != models.OrderStatusCreated {
			return apperror.Conflict("Order %d is not awaiting payment.", order.ID)
		}

		payment = &models.Payment{
			Seq:       newPaymentSeq(),
			UserID:    actor.ID,
			OrderID:   order.ID,
			ServiceID: service.ID,
			Amount:    order.TotalPrice,
			Status:    models.PaymentStatusSubmitted,
		}
		if err := tx.CreatePayment(ctx, payment); err != nil {
			if errors.Is(err, store.ErrDuplicate) {
				return apperror.Conflict("Order %d is already paid.", order.ID)
			}
			return apperror.Internal("failed to create payment", err)
		}

		changed, err := tx.SetOrderStatus(ctx, order.ID, models.OrderStatusCreated, models.OrderStatusPaid)
		if err != nil {
			return apperror.Internal("failed to update order status", err)
		}
		if !changed {
			return apperror.Conflict("Order %d is not awaiting payment.", order.ID)
		}
		return nil
	})
	if err != nil {
		util.PaymentFailedTotal.WithLabelValues(string(apperror.KindOf(err))).Inc()
		util.RecordError(span, err)
		return nil, err
	}

	util.PaymentSuccessTotal.WithLabelValues(service.Name).Inc()
	ps.logger.Info("Payment recorded",
		zap.Int64("order_id", payment.OrderID),
		zap.String("seq", payment.Seq),
		zap.String("service", service.Name),
		zap.Int64("amount", payment.Amount))

	event := &models.OrderPaidEvent{
		BaseEvent:  newBaseEvent(models.EventTypeOrderPaid),
		OrderID:    payment.OrderID,
		UserID:     payment.UserID,
		PaymentSeq: payment.Seq,
		Amount:     payment.Amount,
	}
	if err := ps.eventPublisher.PublishOrderPaid(ctx, event); err != nil {
		util.EventsPublishFailedTotal.WithLabelValues(models.EventTypeOrderPaid).Inc()
		ps.logger.Error("Failed to publish OrderPaid event", zap.Error(err))
	}

	return payment, nil
}

// GetPayment retrieves the payment of an order the actor can access
func (ps *PaymentService) GetPayment(ctx context.Context, actor *models.User, orderID int64) (*models.Payment, error) {
	order, err := ps.db.GetOrder(ctx, orderID)
	if err != nil {
		return nil, translate(err, "Order")
	}
	if !auth.CanAccess(actor, order.UserID) {
		return nil, apperror.NotFound("Order not found.")
	}

	payment, err := ps.db.GetPaymentByOrderID(ctx, orderID)
	if err != nil {
		return nil, translate(err, "Payment")
	}
	return payment, nil
}
