package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"shopmate/internal/model"
	"shopmate/internal/repository"
)

// WebhooksHandler implements the mandatory GDPR webhooks. HMAC signature
// verification happens upstream (reverse proxy / platform middleware); these
// handlers only act on the payload.
type WebhooksHandler struct {
	stores *repository.StoreRepo
	convs  *repository.ConversationRepo
}

// NewWebhooksHandler creates the webhooks handler.
func NewWebhooksHandler(stores *repository.StoreRepo, convs *repository.ConversationRepo) *WebhooksHandler {
	return &WebhooksHandler{stores: stores, convs: convs}
}

type gdprPayload struct {
	ShopDomain string `json:"shop_domain" binding:"required"`
	Customer   struct {
		Email string `json:"email"`
	} `json:"customer"`
}

// CustomersRedact handles POST /webhooks/customers/redact: scrub customer
// identity from their conversations.
func (h *WebhooksHandler) CustomersRedact(c *gin.Context) {
	var payload gdprPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, model.ErrorResponse{Code: 40001, Message: "Invalid webhook payload"})
		return
	}

	store, ok := h.findStore(c, payload.ShopDomain)
	if !ok {
		return
	}

	if payload.Customer.Email == "" {
		c.JSON(http.StatusOK, gin.H{"redacted": 0})
		return
	}

	redacted, err := h.convs.RedactCustomer(c.Request.Context(), store.ID, payload.Customer.Email)
	if err != nil {
		log.Error().Err(err).Str("shop", payload.ShopDomain).Msg("customer redact failed")
		c.JSON(http.StatusInternalServerError, model.ErrorResponse{Code: 50001, Message: "Redact failed"})
		return
	}

	log.Info().Str("shop", payload.ShopDomain).Int64("conversations", redacted).Msg("customer data redacted")
	c.JSON(http.StatusOK, gin.H{"redacted": redacted})
}

// ShopRedact handles POST /webhooks/shop/redact: delete all conversation
// data for an uninstalled shop.
func (h *WebhooksHandler) ShopRedact(c *gin.Context) {
	var payload gdprPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, model.ErrorResponse{Code: 40001, Message: "Invalid webhook payload"})
		return
	}

	store, ok := h.findStore(c, payload.ShopDomain)
	if !ok {
		return
	}

	deleted, err := h.convs.DeleteByStore(c.Request.Context(), store.ID)
	if err != nil {
		log.Error().Err(err).Str("shop", payload.ShopDomain).Msg("shop redact failed")
		c.JSON(http.StatusInternalServerError, model.ErrorResponse{Code: 50001, Message: "Redact failed"})
		return
	}

	log.Info().Str("shop", payload.ShopDomain).Int64("conversations", deleted).Msg("shop data deleted")
	c.JSON(http.StatusOK, gin.H{"deleted": deleted})
}

// CustomersDataRequest handles POST /webhooks/customers/data_request:
// return the conversations holding data about one customer.
func (h *WebhooksHandler) CustomersDataRequest(c *gin.Context) {
	var payload gdprPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, model.ErrorResponse{Code: 40001, Message: "Invalid webhook payload"})
		return
	}

	store, ok := h.findStore(c, payload.ShopDomain)
	if !ok {
		return
	}

	convs, err := h.convs.FindByCustomerEmail(c.Request.Context(), store.ID, payload.Customer.Email)
	if err != nil {
		log.Error().Err(err).Str("shop", payload.ShopDomain).Msg("data request failed")
		c.JSON(http.StatusInternalServerError, model.ErrorResponse{Code: 50001, Message: "Data request failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"conversations": convs})
}

func (h *WebhooksHandler) findStore(c *gin.Context, shop string) (*model.Store, bool) {
	store, err := h.stores.FindByDomain(c.Request.Context(), shop)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			// Unknown shop: acknowledge so the platform stops retrying.
			c.JSON(http.StatusOK, gin.H{"status": "no data"})
			return nil, false
		}
		c.JSON(http.StatusInternalServerError, model.ErrorResponse{Code: 50001, Message: "Store lookup failed"})
		return nil, false
	}
	return store, true
}
