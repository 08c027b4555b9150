package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"shopmate/internal/model"
	"shopmate/internal/pkg/cache"
	"shopmate/internal/repository"
	"shopmate/internal/server/middleware"
)

// SettingsHandler serves the merchant dashboard settings API. Routes are
// protected by the session-token middleware, which puts the verified shop
// domain on the context.
type SettingsHandler struct {
	stores *repository.StoreRepo
	cache  *cache.RedisCache
}

// NewSettingsHandler creates the settings handler. redisCache may be nil.
func NewSettingsHandler(stores *repository.StoreRepo, redisCache *cache.RedisCache) *SettingsHandler {
	return &SettingsHandler{stores: stores, cache: redisCache}
}

// Get handles GET /api/v1/settings.
func (h *SettingsHandler) Get(c *gin.Context) {
	store, ok := h.loadStore(c)
	if !ok {
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"shop":               store.Shop,
		"store_name":         store.StoreName,
		"settings":           store.Settings,
		"conversation_count": store.ConversationCount,
		"conversation_limit": store.ConversationLimit,
	})
}

// Update handles PUT /api/v1/settings. The body is a typed partial patch;
// unknown fields are rejected by binding rather than merged in blindly.
func (h *SettingsHandler) Update(c *gin.Context) {
	store, ok := h.loadStore(c)
	if !ok {
		return
	}

	var patch model.SettingsPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		c.JSON(http.StatusBadRequest, model.ErrorResponse{
			Code:    40001,
			Message: "Invalid request body",
			Detail:  err.Error(),
		})
		return
	}
	if err := patch.Validate(); err != nil {
		c.JSON(http.StatusBadRequest, model.ErrorResponse{
			Code:    40003,
			Message: err.Error(),
		})
		return
	}

	merged := patch.Merge(store.Settings)
	if err := h.stores.UpdateSettings(c.Request.Context(), store.ID, merged); err != nil {
		c.JSON(http.StatusInternalServerError, model.ErrorResponse{
			Code:    50001,
			Message: "Failed to update settings",
		})
		return
	}

	// Drop the cached copy so the next widget request sees fresh config.
	if h.cache != nil {
		if err := h.cache.Delete(c.Request.Context(), cache.StoreCacheKey(store.Shop)); err != nil {
			log.Debug().Err(err).Msg("failed to invalidate store cache")
		}
	}

	c.JSON(http.StatusOK, gin.H{"settings": merged})
}

// loadStore resolves the authenticated shop to its store record, writing the
// error response itself when that fails.
func (h *SettingsHandler) loadStore(c *gin.Context) (*model.Store, bool) {
	shop := middleware.ShopFromContext(c)
	if shop == "" {
		c.JSON(http.StatusUnauthorized, model.ErrorResponse{
			Code:    40101,
			Message: "Missing shop identity",
		})
		return nil, false
	}

	store, err := h.stores.FindByDomain(c.Request.Context(), shop)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			c.JSON(http.StatusNotFound, model.ErrorResponse{
				Code:    40401,
				Message: "Store not found",
			})
			return nil, false
		}
		c.JSON(http.StatusInternalServerError, model.ErrorResponse{
			Code:    50001,
			Message: "Failed to load store",
		})
		return nil, false
	}
	return store, true
}
