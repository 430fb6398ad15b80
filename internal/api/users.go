package api

import (
	"net/http"

	"marketplace-service/internal/service"

	"github.com/gin-gonic/gin"
)

func (h *Handler) register(c *gin.Context) {
	var req service.RegisterRequest
	if !h.bindJSON(c, &req) {
		return
	}

	user, err := h.svc.Identity.Register(c.Request.Context(), &req)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, user)
}

func (h *Handler) registerAdmin(c *gin.Context) {
	var req service.RegisterRequest
	if !h.bindJSON(c, &req) {
		return
	}

	user, err := h.svc.Identity.RegisterAdmin(c.Request.Context(), actor(c), &req)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, user)
}

func (h *Handler) getMe(c *gin.Context) {
	c.JSON(http.StatusOK, actor(c))
}

func (h *Handler) updateMe(c *gin.Context) {
	var req service.UpdateUserRequest
	if !h.bindJSON(c, &req) {
		return
	}

	user, err := h.svc.Identity.UpdateMe(c.Request.Context(), actor(c), &req)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

func (h *Handler) getProfile(c *gin.Context) {
	profile, err := h.svc.Identity.Profile(c.Request.Context(), actor(c))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, profile)
}

func (h *Handler) listAddresses(c *gin.Context) {
	page, ok := h.pageParams(c)
	if !ok {
		return
	}

	addresses, err := h.svc.Identity.ListAddresses(c.Request.Context(), actor(c), page)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, addresses)
}

func (h *Handler) createAddress(c *gin.Context) {
	var req service.AddressRequest
	if !h.bindJSON(c, &req) {
		return
	}

	address, err := h.svc.Identity.CreateAddress(c.Request.Context(), actor(c), &req)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, address)
}

func (h *Handler) updateAddress(c *gin.Context) {
	id, ok := h.idParam(c, "id")
	if !ok {
		return
	}
	var req service.AddressRequest
	if !h.bindJSON(c, &req) {
		return
	}

	address, err := h.svc.Identity.UpdateAddress(c.Request.Context(), actor(c), id, &req)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, address)
}

func (h *Handler) deleteAddress(c *gin.Context) {
	id, ok := h.idParam(c, "id")
	if !ok {
		return
	}

	if err := h.svc.Identity.DeleteAddress(c.Request.Context(), actor(c), id); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": true})
}

func (h *Handler) listNotifications(c *gin.Context) {
	page, ok := h.pageParams(c)
	if !ok {
		return
	}

	notifications, err := h.svc.Notifications.List(c.Request.Context(), actor(c), page)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, notifications)
}
