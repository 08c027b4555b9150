package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"shopmate/internal/model"
	"shopmate/internal/repository"
	"shopmate/internal/server/middleware"
)

// AnalyticsHandler serves conversation statistics for the merchant
// dashboard.
type AnalyticsHandler struct {
	stores *repository.StoreRepo
	convs  *repository.ConversationRepo
}

// NewAnalyticsHandler creates the analytics handler.
func NewAnalyticsHandler(stores *repository.StoreRepo, convs *repository.ConversationRepo) *AnalyticsHandler {
	return &AnalyticsHandler{stores: stores, convs: convs}
}

// Summary handles GET /api/v1/analytics/summary.
func (h *AnalyticsHandler) Summary(c *gin.Context) {
	shop := middleware.ShopFromContext(c)
	store, err := h.stores.FindByDomain(c.Request.Context(), shop)
	if err != nil {
		c.JSON(http.StatusNotFound, model.ErrorResponse{Code: 40401, Message: "Store not found"})
		return
	}

	counts, err := h.convs.StatusCounts(c.Request.Context(), store.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, model.ErrorResponse{Code: 50001, Message: "Failed to aggregate conversations"})
		return
	}

	var total int64
	for _, n := range counts {
		total += n
	}
	escalationRate := 0.0
	if total > 0 {
		escalationRate = float64(counts[model.StatusEscalated]) / float64(total)
	}

	c.JSON(http.StatusOK, gin.H{
		"total":           total,
		"by_status":       counts,
		"escalation_rate": escalationRate,
		"usage": gin.H{
			"conversation_count": store.ConversationCount,
			"conversation_limit": store.ConversationLimit,
		},
	})
}

// Conversations handles GET /api/v1/conversations, the dashboard inbox view.
// Messages are projected out; the widget read endpoint returns the transcript.
func (h *AnalyticsHandler) Conversations(c *gin.Context) {
	shop := middleware.ShopFromContext(c)
	store, err := h.stores.FindByDomain(c.Request.Context(), shop)
	if err != nil {
		c.JSON(http.StatusNotFound, model.ErrorResponse{Code: 40401, Message: "Store not found"})
		return
	}

	limit, _ := strconv.ParseInt(c.DefaultQuery("limit", "20"), 10, 64)
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	offset, _ := strconv.ParseInt(c.DefaultQuery("offset", "0"), 10, 64)
	if offset < 0 {
		offset = 0
	}

	convs, err := h.convs.ListByStore(c.Request.Context(), store.ID, limit, offset)
	if err != nil {
		c.JSON(http.StatusInternalServerError, model.ErrorResponse{Code: 50001, Message: "Failed to list conversations"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"conversations": convs,
		"limit":         limit,
		"offset":        offset,
	})
}
