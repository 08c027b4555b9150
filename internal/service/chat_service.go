// Package service orchestrates the per-message pipeline:
// extract -> fetch context -> assemble prompt -> generate -> evaluate
// escalation -> persist -> reply.
package service

import (
	"context"
	"errors"
	"time"

	"github.com/cloudwego/eino/schema"
	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"shopmate/internal/ai"
	"shopmate/internal/escalation"
	"shopmate/internal/intent"
	"shopmate/internal/model"
	"shopmate/internal/pkg/cache"
	"shopmate/internal/pkg/shopify"
	"shopmate/internal/prompt"
	"shopmate/internal/repository"
)

// Service-level sentinel errors; handlers map them to HTTP statuses.
var (
	ErrStoreNotFound = errors.New("store not found")
	ErrLimitReached  = errors.New("conversation limit reached")
	ErrPersistence   = errors.New("failed to persist conversation")
)

// Fallback replies. The customer always gets some reply; raw provider
// errors never leak to the widget.
const (
	replyRateLimited = "I'm receiving a lot of questions right now. Please try again in a moment."
	replyUnavailable = "I'm sorry, our assistant is temporarily unavailable. Please contact our support team directly."
	replyGeneric     = "I'm sorry, I'm having trouble processing your message right now. Please try again in a moment, or contact our support team directly."
)

// CommerceClient fetches order/product context. Both lookups are
// best-effort: nil/empty results mean "omit from prompt".
type CommerceClient interface {
	FetchOrder(ctx context.Context, shop, accessToken, orderNumber string) (*shopify.Order, error)
	SearchProducts(ctx context.Context, shop, accessToken, searchTerm string, limit int) ([]shopify.Product, error)
}

// Gateway generates one LLM reply.
type Gateway interface {
	Generate(ctx context.Context, systemPrompt string, history []*schema.Message, userMessage string) (*ai.Result, error)
}

// ConversationStore is the persistence adapter for conversations.
type ConversationStore interface {
	GetOrCreate(ctx context.Context, id string, storeID primitive.ObjectID, customer model.Customer) (*model.Conversation, error)
	FindByID(ctx context.Context, id string) (*model.Conversation, error)
	AppendMessage(ctx context.Context, id primitive.ObjectID, msg model.Message) error
	UpdateStatus(ctx context.Context, id primitive.ObjectID, status string, escalationReason string) error
	SetMetadata(ctx context.Context, id primitive.ObjectID, fields map[string]any) error
}

// StoreProvider looks up merchant records.
type StoreProvider interface {
	FindByDomain(ctx context.Context, shop string) (*model.Store, error)
	IncrementConversationCount(ctx context.Context, id primitive.ObjectID) error
}

// Notifier dispatches escalation notifications without blocking.
type Notifier interface {
	Dispatch(ctx context.Context, store *model.Store, conv *model.Conversation, reason string)
}

// ChatService wires the pipeline together.
type ChatService struct {
	stores   StoreProvider
	convs    ConversationStore
	commerce CommerceClient
	gateway  Gateway
	engine   *escalation.Engine
	notifier Notifier
	cache    *cache.RedisCache // optional store-config cache
}

// NewChatService creates the chat service. redisCache may be nil.
func NewChatService(stores StoreProvider, convs ConversationStore, commerce CommerceClient,
	gateway Gateway, engine *escalation.Engine, notifier Notifier, redisCache *cache.RedisCache) *ChatService {
	return &ChatService{
		stores:   stores,
		convs:    convs,
		commerce: commerce,
		gateway:  gateway,
		engine:   engine,
		notifier: notifier,
		cache:    redisCache,
	}
}

// HandleMessage processes one inbound widget message end to end.
func (s *ChatService) HandleMessage(ctx context.Context, req *model.ChatRequest) (*model.ChatResponse, error) {
	start := time.Now()
	logger := log.With().Str("shop", req.Shop).Str("conversation_id", req.ConversationID).Logger()

	store, err := s.lookupStore(ctx, req.Shop)
	if err != nil {
		return nil, err
	}
	if store.OverLimit() {
		return nil, ErrLimitReached
	}

	conv, err := s.convs.GetOrCreate(ctx, req.ConversationID, store.ID, model.Customer{
		Email: req.CustomerEmail,
		Name:  req.CustomerName,
	})
	if err != nil {
		return nil, errors.Join(ErrPersistence, err)
	}
	isNew := conv.MessageCount == 0

	// History is formatted from the state before this turn; the new user
	// message is appended to the LLM call separately.
	history := prompt.FormatHistory(conv.Messages)

	if err := s.convs.AppendMessage(ctx, conv.ID, model.Message{
		Role:    model.RoleUser,
		Content: req.Message,
	}); err != nil {
		return nil, errors.Join(ErrPersistence, err)
	}
	conv.Messages = append(conv.Messages, model.Message{Role: model.RoleUser, Content: req.Message, CreatedAt: time.Now()})
	conv.MessageCount++

	extraction := intent.Extract(req.Message)
	logger.Info().
		Str("intent", extraction.Intent).
		Str("order_number", extraction.OrderNumber).
		Str("product_query", extraction.ProductQuery).
		Msg("message analysed")

	order, products := s.fetchContext(ctx, store, conv, extraction)

	systemPrompt := prompt.BuildWithIntent(store, extraction.Intent, order, products)

	reply, usage, genErr := s.generate(ctx, systemPrompt, history, req.Message)

	decision := s.engine.Evaluate(req.Message, reply, conv)
	escalated := decision.ShouldEscalate
	if escalated {
		reason := decision.Reason()
		if err := s.convs.UpdateStatus(ctx, conv.ID, model.StatusEscalated, reason); err != nil {
			logger.Error().Err(err).Msg("failed to mark conversation escalated")
		} else {
			conv.Status = model.StatusEscalated
			conv.Escalated = true
			conv.EscalationReason = reason
		}

		s.notifier.Dispatch(ctx, store, conv, reason)

		reply += "\n\n" + escalation.HandoffMessage(conv.CustomerEmail)
		logger.Info().Str("reason", reason).Msg("conversation escalated")
	}

	// The reply is returned even if this write fails; losing one assistant
	// message beats dropping the response on the floor.
	assistantMeta := map[string]any{
		"model":     usage.Model,
		"escalated": escalated,
	}
	if usage.CompletionTokens > 0 {
		assistantMeta["tokens"] = usage.CompletionTokens
	}
	if usage.ResponseTime > 0 {
		assistantMeta["response_time_ms"] = usage.ResponseTime.Milliseconds()
	}
	if err := s.convs.AppendMessage(ctx, conv.ID, model.Message{
		Role:     model.RoleAssistant,
		Content:  reply,
		Metadata: assistantMeta,
	}); err != nil {
		logger.Error().Err(err).Msg("failed to persist assistant message, returning reply anyway")
	}

	if isNew {
		if err := s.stores.IncrementConversationCount(ctx, store.ID); err != nil {
			logger.Warn().Err(err).Msg("failed to increment conversation count")
		}
	}

	resp := &model.ChatResponse{
		Reply:           reply,
		ConversationID:  conv.ID.Hex(),
		NeedsEscalation: escalated,
		Metadata: &model.ChatMetadata{
			Intent:         extraction.Intent,
			ResponseTimeMs: time.Since(start).Milliseconds(),
		},
	}
	if order != nil {
		status := order.FulfillmentStatus
		if status == "" {
			status = "Processing"
		}
		resp.Metadata.OrderData = &model.OrderSummary{
			OrderNumber: extraction.OrderNumber,
			Status:      status,
			Total:       order.TotalPrice,
		}
	}
	if usage.PromptTokens > 0 || usage.CompletionTokens > 0 {
		resp.Metadata.Usage = &model.TokenUsage{
			PromptTokens:     usage.PromptTokens,
			CompletionTokens: usage.CompletionTokens,
			TotalTokens:      usage.PromptTokens + usage.CompletionTokens,
		}
	}

	if genErr != nil {
		logger.Warn().Err(genErr).Msg("chat turn served with fallback reply")
	} else {
		logger.Info().
			Bool("escalated", escalated).
			Int64("response_time_ms", resp.Metadata.ResponseTimeMs).
			Msg("chat reply sent")
	}
	return resp, nil
}

// generate calls the LLM gateway and maps provider failures onto fallback
// replies so the customer always hears something.
func (s *ChatService) generate(ctx context.Context, systemPrompt string, history []*schema.Message, userMessage string) (string, ai.Result, error) {
	result, err := s.gateway.Generate(ctx, systemPrompt, history, userMessage)
	if err == nil {
		return result.Content, *result, nil
	}

	switch {
	case errors.Is(err, ai.ErrRateLimited):
		return replyRateLimited, ai.Result{}, err
	case errors.Is(err, ai.ErrAuth):
		// Operator problem; no retry will help until config is fixed.
		log.Error().Err(err).Msg("LLM auth/config error, check provider credentials")
		return replyUnavailable, ai.Result{}, err
	default:
		return replyGeneric, ai.Result{}, err
	}
}

// fetchContext retrieves order and product data for the extracted entities.
// Failures degrade to missing context, logged at warn.
func (s *ChatService) fetchContext(ctx context.Context, store *model.Store, conv *model.Conversation, ex intent.Extraction) (*shopify.Order, []shopify.Product) {
	var order *shopify.Order
	var products []shopify.Product

	if ex.OrderNumber != "" {
		o, err := s.commerce.FetchOrder(ctx, store.Shop, store.AccessToken, ex.OrderNumber)
		if err != nil {
			log.Warn().Err(err).Str("order_number", ex.OrderNumber).Msg("order lookup failed, continuing without order context")
		} else if o != nil {
			order = o
			if err := s.convs.SetMetadata(ctx, conv.ID, map[string]any{
				"order_number": ex.OrderNumber,
				"order_id":     o.ID,
			}); err != nil {
				log.Warn().Err(err).Msg("failed to record order metadata")
			}
		}
	}

	if ex.ProductQuery != "" {
		p, err := s.commerce.SearchProducts(ctx, store.Shop, store.AccessToken, ex.ProductQuery, 3)
		if err != nil {
			log.Warn().Err(err).Str("query", ex.ProductQuery).Msg("product search failed, continuing without product context")
		} else {
			products = p
		}
	}

	return order, products
}

// lookupStore resolves the shop domain to a store record, via the Redis
// cache when available.
func (s *ChatService) lookupStore(ctx context.Context, shop string) (*model.Store, error) {
	if s.cache != nil {
		var cached model.Store
		if err := s.cache.Get(ctx, cache.StoreCacheKey(shop), &cached); err == nil && cached.Shop == shop {
			return &cached, nil
		}
	}

	store, err := s.stores.FindByDomain(ctx, shop)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrStoreNotFound
	}
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, cache.StoreCacheKey(shop), store, cache.StoreCacheTTL); err != nil {
			log.Debug().Err(err).Msg("failed to cache store config")
		}
	}
	return store, nil
}

// WelcomeMessage builds the widget greeting for a store.
func (s *ChatService) WelcomeMessage(ctx context.Context, shop, customerName string) (string, model.WidgetTheme, error) {
	store, err := s.lookupStore(ctx, shop)
	if err != nil {
		return "", model.WidgetTheme{}, err
	}
	return prompt.Greeting(store, customerName), store.Settings.Theme, nil
}

// Conversation returns one conversation after verifying it belongs to the
// shop that is asking.
func (s *ChatService) Conversation(ctx context.Context, shop, conversationID string) (*model.Conversation, error) {
	store, err := s.lookupStore(ctx, shop)
	if err != nil {
		return nil, err
	}
	conv, err := s.convs.FindByID(ctx, conversationID)
	if err != nil {
		return nil, err
	}
	if conv.StoreID != store.ID {
		return nil, repository.ErrNotFound
	}
	return conv, nil
}
