package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"shopmate/internal/model"
	"shopmate/internal/pkg/shopify"
	"shopmate/internal/repository"
	"shopmate/internal/service"
)

// ChatHandler serves the public widget endpoints.
type ChatHandler struct {
	chatSvc *service.ChatService
}

// NewChatHandler creates the chat handler.
func NewChatHandler(chatSvc *service.ChatService) *ChatHandler {
	return &ChatHandler{chatSvc: chatSvc}
}

// Chat handles POST /api/v1/chat.
func (h *ChatHandler) Chat(c *gin.Context) {
	var req model.ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, model.ErrorResponse{
			Code:    40001,
			Message: "Invalid request body",
			Detail:  err.Error(),
		})
		return
	}

	if !shopify.ValidShopDomain(req.Shop) {
		log.Warn().Str("shop", req.Shop).Msg("invalid shop domain format")
		c.JSON(http.StatusBadRequest, model.ErrorResponse{
			Code:    40002,
			Message: "Invalid shop domain format",
		})
		return
	}

	resp, err := h.chatSvc.HandleMessage(c.Request.Context(), &req)
	if err != nil {
		h.writeChatError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// writeChatError maps pipeline errors onto HTTP responses. Whatever went
// wrong, the body carries a polite reply the widget can show.
func (h *ChatHandler) writeChatError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrStoreNotFound):
		c.JSON(http.StatusNotFound, model.ErrorResponse{
			Code:    40401,
			Message: "Store not found",
		})
	case errors.Is(err, service.ErrLimitReached):
		c.JSON(http.StatusForbidden, gin.H{
			"code":    40301,
			"message": "Conversation limit reached",
			"reply":   "Our chat assistant is currently unavailable. Please contact the store directly.",
		})
	default:
		log.Error().Err(err).Msg("chat pipeline failed")
		c.JSON(http.StatusInternalServerError, gin.H{
			"code":    50001,
			"message": "Failed to process message",
			"reply":   "I'm sorry, I'm having trouble processing your message right now. Please try again in a moment, or contact our support team directly.",
		})
	}
}

// Welcome handles GET /api/v1/chat/welcome.
func (h *ChatHandler) Welcome(c *gin.Context) {
	shop := c.Query("shop")
	if !shopify.ValidShopDomain(shop) {
		c.JSON(http.StatusBadRequest, model.ErrorResponse{
			Code:    40002,
			Message: "Invalid shop domain format",
		})
		return
	}

	message, theme, err := h.chatSvc.WelcomeMessage(c.Request.Context(), shop, c.Query("customer_name"))
	if err != nil {
		if errors.Is(err, service.ErrStoreNotFound) {
			c.JSON(http.StatusNotFound, model.ErrorResponse{
				Code:    40401,
				Message: "Store not found",
			})
			return
		}
		c.JSON(http.StatusInternalServerError, model.ErrorResponse{
			Code:    50001,
			Message: "Failed to get welcome message",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": message,
		"theme":   theme,
	})
}

// Conversation handles GET /api/v1/chat/conversations/:id.
func (h *ChatHandler) Conversation(c *gin.Context) {
	shop := c.Query("shop")
	if !shopify.ValidShopDomain(shop) {
		c.JSON(http.StatusBadRequest, model.ErrorResponse{
			Code:    40002,
			Message: "Invalid shop domain format",
		})
		return
	}

	conv, err := h.chatSvc.Conversation(c.Request.Context(), shop, c.Param("id"))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) || errors.Is(err, service.ErrStoreNotFound) {
			c.JSON(http.StatusNotFound, model.ErrorResponse{
				Code:    40401,
				Message: "Conversation not found",
			})
			return
		}
		c.JSON(http.StatusInternalServerError, model.ErrorResponse{
			Code:    50001,
			Message: "Failed to get conversation",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"id":             conv.ID.Hex(),
		"status":         conv.Status,
		"escalated":      conv.Escalated,
		"customer_email": conv.CustomerEmail,
		"messages":       conv.Messages,
		"created_at":     conv.CreatedAt,
	})
}
