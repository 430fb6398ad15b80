package api

import (
	"net/http"

	"marketplace-service/internal/service"

	"github.com/gin-gonic/gin"
)

func (h *Handler) listStores(c *gin.Context) {
	page, ok := h.pageParams(c)
	if !ok {
		return
	}

	stores, err := h.svc.Catalog.ListStores(c.Request.Context(), actor(c), page)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, stores)
}

func (h *Handler) createStore(c *gin.Context) {
	var req service.StoreRequest
	if !h.bindJSON(c, &req) {
		return
	}

	s, err := h.svc.Catalog.CreateStore(c.Request.Context(), actor(c), &req)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, s)
}

func (h *Handler) updateStore(c *gin.Context) {
	id, ok := h.idParam(c, "id")
	if !ok {
		return
	}
	var req service.StoreRequest
	if !h.bindJSON(c, &req) {
		return
	}

	s, err := h.svc.Catalog.UpdateStore(c.Request.Context(), actor(c), id, &req)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, s)
}

func (h *Handler) deleteStore(c *gin.Context) {
	id, ok := h.idParam(c, "id")
	if !ok {
		return
	}

	if err := h.svc.Catalog.DeleteStore(c.Request.Context(), actor(c), id); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": true})
}

func (h *Handler) listGoods(c *gin.Context) {
	id, ok := h.idParam(c, "id")
	if !ok {
		return
	}
	page, ok := h.pageParams(c)
	if !ok {
		return
	}

	goods, err := h.svc.Catalog.ListGoods(c.Request.Context(), id, page)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, goods)
}

func (h *Handler) listStoreItems(c *gin.Context) {
	id, ok := h.idParam(c, "id")
	if !ok {
		return
	}
	page, ok := h.pageParams(c)
	if !ok {
		return
	}

	items, err := h.svc.Fulfillment.ListStoreItems(c.Request.Context(), actor(c), id, page)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, items)
}

func (h *Handler) createGood(c *gin.Context) {
	var req service.CreateGoodRequest
	if !h.bindJSON(c, &req) {
		return
	}

	good, err := h.svc.Catalog.CreateGood(c.Request.Context(), actor(c), &req)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, good)
}

func (h *Handler) getGood(c *gin.Context) {
	id, ok := h.idParam(c, "id")
	if !ok {
		return
	}

	good, err := h.svc.Catalog.GetGood(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, good)
}

func (h *Handler) updateGood(c *gin.Context) {
	id, ok := h.idParam(c, "id")
	if !ok {
		return
	}
	var req service.UpdateGoodRequest
	if !h.bindJSON(c, &req) {
		return
	}

	good, err := h.svc.Catalog.UpdateGood(c.Request.Context(), actor(c), id, &req)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, good)
}

func (h *Handler) deleteGood(c *gin.Context) {
	id, ok := h.idParam(c, "id")
	if !ok {
		return
	}

	if err := h.svc.Catalog.DeleteGood(c.Request.Context(), actor(c), id); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": true})
}

func (h *Handler) listTags(c *gin.Context) {
	page, ok := h.pageParams(c)
	if !ok {
		return
	}

	tags, err := h.svc.Catalog.ListTags(c.Request.Context(), page)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, tags)
}

func (h *Handler) createTag(c *gin.Context) {
	var req service.TagRequest
	if !h.bindJSON(c, &req) {
		return
	}

	tag, err := h.svc.Catalog.CreateTag(c.Request.Context(), actor(c), &req)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, tag)
}

func (h *Handler) tagGood(c *gin.Context) {
	tagID, ok := h.idParam(c, "id")
	if !ok {
		return
	}
	goodID, ok := h.idParam(c, "good_id")
	if !ok {
		return
	}

	if err := h.svc.Catalog.TagGood(c.Request.Context(), actor(c), tagID, goodID); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"tag_id": tagID, "good_id": goodID})
}

func (h *Handler) listBanners(c *gin.Context) {
	page, ok := h.pageParams(c)
	if !ok {
		return
	}

	banners, err := h.svc.Catalog.ListActiveBanners(c.Request.Context(), page)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, banners)
}

func (h *Handler) createBanner(c *gin.Context) {
	var req service.BannerRequest
	if !h.bindJSON(c, &req) {
		return
	}

	banner, err := h.svc.Catalog.CreateBanner(c.Request.Context(), actor(c), &req)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, banner)
}

func (h *Handler) deleteBanner(c *gin.Context) {
	id, ok := h.idParam(c, "id")
	if !ok {
		return
	}

	if err := h.svc.Catalog.DeleteBanner(c.Request.Context(), actor(c), id); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": true})
}
