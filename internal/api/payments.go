package api

import (
	"net/http"

	"marketplace-service/internal/service"

	"github.com/gin-gonic/gin"
)

func (h *Handler) payServices(c *gin.Context) {
	c.JSON(http.StatusOK, h.svc.Payments.AvailableServices())
}

func (h *Handler) payOrder(c *gin.Context) {
	var req service.PayOrderRequest
	if !h.bindJSON(c, &req) {
		return
	}

	payment, err := h.svc.Payments.PayOrder(c.Request.Context(), actor(c), &req)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, payment)
}

func (h *Handler) getPayment(c *gin.Context) {
	id, ok := h.idParam(c, "id")
	if !ok {
		return
	}

	payment, err := h.svc.Payments.GetPayment(c.Request.Context(), actor(c), id)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, payment)
}

func (h *Handler) markShipped(c *gin.Context) {
	id, ok := h.idParam(c, "id")
	if !ok {
		return
	}

	shipped, err := h.svc.Fulfillment.MarkShipped(c.Request.Context(), actor(c), id)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"order_item_id": id, "shipped": shipped})
}

func (h *Handler) isShipped(c *gin.Context) {
	id, ok := h.idParam(c, "id")
	if !ok {
		return
	}

	shipped, err := h.svc.Fulfillment.IsShipped(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"order_item_id": id, "shipped": shipped})
}
