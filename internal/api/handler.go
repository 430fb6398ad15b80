package api

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"marketplace-service/internal/apperror"
	"marketplace-service/internal/auth"
	"marketplace-service/internal/models"
	"marketplace-service/internal/service"
	"marketplace-service/internal/store"
	"marketplace-service/internal/util"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// Services groups the application services served over HTTP
type Services struct {
	Orders        *service.OrderService
	Payments      *service.PaymentService
	Fulfillment   *service.FulfillmentService
	Catalog       *service.CatalogService
	Identity      *service.IdentityService
	Cart          *service.CartService
	Notifications *service.NotificationService
}

// Pinger is a dependency checked by the readiness probe
type Pinger interface {
	Ping(ctx context.Context) error
}

// Handler contains HTTP handlers
type Handler struct {
	svc            Services
	users          auth.UserLookup
	checks         map[string]Pinger
	requestTimeout time.Duration
	logger         *zap.Logger
}

// NewHandler creates a new HTTP handler. users resolves the acting user of
// each request.
func NewHandler(svc Services, users auth.UserLookup, requestTimeout time.Duration) *Handler {
	return &Handler{
		svc:            svc,
		users:          users,
		checks:         map[string]Pinger{},
		requestTimeout: requestTimeout,
		logger:         util.Named("api"),
	}
}

// AddReadinessCheck registers a dependency that must answer before /ready
// reports ready
func (h *Handler) AddReadinessCheck(name string, p Pinger) {
	h.checks[name] = p
}

// SetupRoutes sets up HTTP routes
func (h *Handler) SetupRoutes(router *gin.Engine) {
	router.Use(gin.Recovery())
	router.Use(prometheusMiddleware())
	router.Use(h.requestLogger())

	router.GET("/health", h.healthCheck)
	router.GET("/ready", h.readinessCheck)

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := router.Group("/api/v1")
	v1.Use(timeoutMiddleware(h.requestTimeout))
	v1.POST("/users", h.register)

	authed := v1.Group("")
	authed.Use(auth.Middleware(h.users))
	{
		authed.POST("/users/admin", h.registerAdmin)
		authed.GET("/me", h.getMe)
		authed.PATCH("/me", h.updateMe)
		authed.GET("/me/profile", h.getProfile)

		authed.GET("/addresses", h.listAddresses)
		authed.POST("/addresses", h.createAddress)
		authed.PUT("/addresses/:id", h.updateAddress)
		authed.DELETE("/addresses/:id", h.deleteAddress)

		authed.GET("/stores", h.listStores)
		authed.POST("/stores", h.createStore)
		authed.PUT("/stores/:id", h.updateStore)
		authed.DELETE("/stores/:id", h.deleteStore)
		authed.GET("/stores/:id/goods", h.listGoods)
		authed.GET("/stores/:id/items", h.listStoreItems)

		authed.POST("/goods", h.createGood)
		authed.GET("/goods/:id", h.getGood)
		authed.PUT("/goods/:id", h.updateGood)
		authed.DELETE("/goods/:id", h.deleteGood)

		authed.GET("/tags", h.listTags)
		authed.POST("/tags", h.createTag)
		authed.POST("/tags/:id/goods/:good_id", h.tagGood)

		authed.GET("/banners/active", h.listBanners)
		authed.POST("/banners", h.createBanner)
		authed.DELETE("/banners/:id", h.deleteBanner)

		authed.GET("/cart", h.listCart)
		authed.POST("/cart", h.addToCart)
		authed.DELETE("/cart/:id", h.removeFromCart)
		authed.POST("/cart/checkout", h.cartBuy)

		authed.GET("/orders", h.listOrders)
		authed.POST("/orders", h.createOrder)
		authed.POST("/orders/direct", h.directBuy)
		authed.GET("/orders/:id", h.getOrder)
		authed.PUT("/orders/:id", h.updateOrder)
		authed.DELETE("/orders/:id", h.deleteOrder)

		authed.GET("/pay/services", h.payServices)
		authed.POST("/pay/orders", h.payOrder)
		authed.GET("/pay/orders/:id", h.getPayment)

		authed.POST("/fulfillment/items/:id/ship", h.markShipped)
		authed.GET("/fulfillment/items/:id", h.isShipped)

		authed.GET("/notifications", h.listNotifications)
	}
}

// healthCheck handles health check requests
func (h *Handler) healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "healthy",
		"time":   time.Now().Unix(),
	})
}

// readinessCheck pings every registered dependency
func (h *Handler) readinessCheck(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	failed := gin.H{}
	for name, p := range h.checks {
		if err := p.Ping(ctx); err != nil {
			h.logger.Warn("Readiness check failed", zap.String("dependency", name), zap.Error(err))
			failed[name] = err.Error()
		}
	}

	if len(failed) > 0 {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status": "not_ready",
			"failed": failed,
			"time":   time.Now().Unix(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status": "ready",
		"time":   time.Now().Unix(),
	})
}

// respondError writes the kind and message of a service error
func (h *Handler) respondError(c *gin.Context, err error) {
	status := apperror.HTTPStatus(err)
	if status == http.StatusInternalServerError {
		h.logger.Error("Request failed",
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Error(err))
	}

	c.JSON(status, gin.H{
		"error":   apperror.KindOf(err),
		"message": apperror.Message(err),
	})
}

// bindJSON decodes the body into req and answers 400 on failure
func (h *Handler) bindJSON(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   apperror.KindInvalidInput,
			"message": "Invalid request body: " + err.Error(),
		})
		return false
	}
	return true
}

// idParam parses a positive integer path parameter
func (h *Handler) idParam(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   apperror.KindInvalidInput,
			"message": "Invalid " + name + ".",
		})
		return 0, false
	}
	return id, true
}

// pageParams reads limit and offset query parameters
func (h *Handler) pageParams(c *gin.Context) (store.Page, bool) {
	var page store.Page
	for key, dst := range map[string]*int{"limit": &page.Limit, "offset": &page.Offset} {
		raw := c.Query(key)
		if raw == "" {
			continue
		}
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			c.JSON(http.StatusBadRequest, gin.H{
				"error":   apperror.KindInvalidInput,
				"message": "Invalid " + key + ".",
			})
			return store.Page{}, false
		}
		*dst = n
	}
	return service.NormalizePage(page), true
}

// actor returns the authenticated user. Routes behind auth.Middleware always
// have one.
func actor(c *gin.Context) *models.User {
	user, _ := auth.CurrentUser(c)
	return user
}

// prometheusMiddleware collects HTTP metrics
func prometheusMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		duration := time.Since(start).Seconds()
		status := strconv.Itoa(c.Writer.Status())

		util.HTTPRequestDuration.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
			status,
		).Observe(duration)

		util.HTTPRequestsTotal.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
			status,
		).Inc()
	}
}

// timeoutMiddleware bounds the request context. Store calls and transactions
// observe the deadline.
func timeoutMiddleware(timeout time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		if timeout <= 0 {
			c.Next()
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), timeout)
		defer cancel()

		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

func (h *Handler) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		h.logger.Info("HTTP request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
			zap.String("client_ip", c.ClientIP()))
	}
}
