package api

import (
	"net/http"

	"marketplace-service/internal/service"

	"github.com/gin-gonic/gin"
)

func (h *Handler) listCart(c *gin.Context) {
	page, ok := h.pageParams(c)
	if !ok {
		return
	}

	items, err := h.svc.Cart.List(c.Request.Context(), actor(c), page)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, items)
}

func (h *Handler) addToCart(c *gin.Context) {
	var req service.AddCartItemRequest
	if !h.bindJSON(c, &req) {
		return
	}

	item, err := h.svc.Cart.Add(c.Request.Context(), actor(c), &req)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, item)
}

func (h *Handler) removeFromCart(c *gin.Context) {
	id, ok := h.idParam(c, "id")
	if !ok {
		return
	}

	if err := h.svc.Cart.Remove(c.Request.Context(), actor(c), id); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": true})
}

// cartBuy handles checkout of selected cart items
func (h *Handler) cartBuy(c *gin.Context) {
	var req service.CartBuyRequest
	if !h.bindJSON(c, &req) {
		return
	}

	view, err := h.svc.Orders.CartBuy(c.Request.Context(), actor(c), &req)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, view)
}

func (h *Handler) listOrders(c *gin.Context) {
	page, ok := h.pageParams(c)
	if !ok {
		return
	}

	orders, err := h.svc.Orders.ListOrders(c.Request.Context(), actor(c), page)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, orders)
}

// createOrder handles order creation
func (h *Handler) createOrder(c *gin.Context) {
	var req service.CreateOrderRequest
	if !h.bindJSON(c, &req) {
		return
	}

	view, err := h.svc.Orders.CreateOrder(c.Request.Context(), actor(c), &req)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, view)
}

func (h *Handler) directBuy(c *gin.Context) {
	var req service.DirectBuyRequest
	if !h.bindJSON(c, &req) {
		return
	}

	view, err := h.svc.Orders.DirectBuy(c.Request.Context(), actor(c), &req)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, view)
}

// getOrder handles get order by ID
func (h *Handler) getOrder(c *gin.Context) {
	id, ok := h.idParam(c, "id")
	if !ok {
		return
	}

	view, err := h.svc.Orders.GetOrder(c.Request.Context(), actor(c), id)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

func (h *Handler) updateOrder(c *gin.Context) {
	id, ok := h.idParam(c, "id")
	if !ok {
		return
	}
	var req service.UpdateOrderRequest
	if !h.bindJSON(c, &req) {
		return
	}

	view, err := h.svc.Orders.UpdateOrder(c.Request.Context(), actor(c), id, &req)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

func (h *Handler) deleteOrder(c *gin.Context) {
	id, ok := h.idParam(c, "id")
	if !ok {
		return
	}

	if err := h.svc.Orders.DeleteOrder(c.Request.Context(), actor(c), id); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": true})
}
