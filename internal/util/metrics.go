package util

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	OrdersCreatedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "marketplace_orders_created_total",
		Help: "Total number of orders created",
	}, []string{"source"})

	OrdersFailedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "marketplace_orders_failed_total",
		Help: "Total number of rejected order placements",
	}, []string{"reason"})

	OrdersDeletedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "marketplace_orders_deleted_total",
		Help: "Total number of deleted orders",
	})

	OrderValueTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "marketplace_order_value_total",
		Help: "Sum of the total price of all created orders",
	})

	PaymentAttemptsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "marketplace_payment_attempts_total",
		Help: "Total number of payment attempts",
	})

	PaymentSuccessTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "marketplace_payment_success_total",
		Help: "Total number of recorded payments",
	}, []string{"service"})

	PaymentFailedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "marketplace_payment_failed_total",
		Help: "Total number of rejected payments",
	}, []string{"reason"})

	PaymentProcessingLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "marketplace_payment_processing_latency_seconds",
		Help:    "Latency of payment processing",
		Buckets: prometheus.DefBuckets,
	})

	ItemsShippedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "marketplace_items_shipped_total",
		Help: "Total number of order items marked shipped",
	})

	OrdersShippedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "marketplace_orders_shipped_total",
		Help: "Total number of orders promoted to shipped",
	})

	MarkStoreErrorsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "marketplace_mark_store_errors_total",
		Help: "Total number of failed shipment marker operations",
	})

	NotificationsCreatedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "marketplace_notifications_created_total",
		Help: "Total number of notifications stored",
	}, []string{"event_type"})

	EventsPublishFailedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "marketplace_events_publish_failed_total",
		Help: "Total number of events that could not be published",
	}, []string{"event_type"})

	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "HTTP request latency",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})
)
