package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"shopmate/internal/ai"
	"shopmate/internal/config"
	"shopmate/internal/escalation"
	"shopmate/internal/handler"
	"shopmate/internal/pkg/cache"
	"shopmate/internal/pkg/mailer"
	"shopmate/internal/pkg/mongodb"
	"shopmate/internal/pkg/shopify"
	"shopmate/internal/repository"
	"shopmate/internal/server/middleware"
	"shopmate/internal/service"
)

// Server is the HTTP server and its owned connections.
type Server struct {
	cfg    *config.Config
	engine *gin.Engine
	mongo  *mongodb.Client
	redis  *cache.RedisCache
}

// New builds the server: connections, services, routes.
func New(cfg *config.Config) (*Server, error) {
	switch cfg.Server.Mode {
	case "debug":
		gin.SetMode(gin.DebugMode)
	case "test":
		gin.SetMode(gin.TestMode)
	default:
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()

	// MongoDB is the conversation source of truth; refuse to start without it.
	mongoClient, err := mongodb.New(&cfg.Mongo)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}
	log.Info().Str("database", cfg.Mongo.Database).Msg("connected to MongoDB")

	if err := mongodb.EnsureIndexes(mongoClient.Database()); err != nil {
		log.Warn().Err(err).Msg("failed to ensure indexes")
	}

	// Redis is optional: without it store-config caching and notification
	// dedup are skipped.
	var redisCache *cache.RedisCache
	if cfg.Redis.Addr != "" {
		rc, err := cache.NewRedisCache(&cfg.Redis)
		if err != nil {
			log.Warn().Err(err).Msg("failed to connect to Redis, continuing without it")
		} else {
			redisCache = rc
			log.Info().Str("addr", cfg.Redis.Addr).Msg("connected to Redis")
		}
	}

	aiClient, err := ai.NewClient(context.Background(), &cfg.AI)
	if err != nil {
		return nil, fmt.Errorf("failed to create AI client: %w", err)
	}
	log.Info().Str("provider", cfg.AI.Provider).Str("model", cfg.AI.Model).Msg("AI client ready")

	srv := &Server{
		cfg:    cfg,
		engine: engine,
		mongo:  mongoClient,
		redis:  redisCache,
	}

	srv.setupRoutes(aiClient)

	return srv, nil
}

func (s *Server) setupRoutes(aiClient *ai.Client) {
	s.engine.Use(middleware.Recovery())
	s.engine.Use(middleware.RequestID())
	s.engine.Use(middleware.Logger())
	s.engine.Use(middleware.CORS(s.cfg.Server.AllowedOrigins))

	healthHandler := handler.NewHealthHandler()
	s.engine.GET("/health", healthHandler.Health)
	s.engine.GET("/ready", healthHandler.Ready)

	s.engine.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	db := s.mongo.Database()
	storeRepo := repository.NewStoreRepo(db)
	convRepo := repository.NewConversationRepo(db)

	commerceClient := shopify.NewClient(&s.cfg.Shopify)
	notifier := escalation.NewNotifier(mailer.New(&s.cfg.SMTP), s.redis)
	chatSvc := service.NewChatService(
		storeRepo,
		convRepo,
		commerceClient,
		aiClient,
		escalation.NewEngine(),
		notifier,
		s.redis,
	)

	chatHdl := handler.NewChatHandler(chatSvc)
	settingsHdl := handler.NewSettingsHandler(storeRepo, s.redis)
	analyticsHdl := handler.NewAnalyticsHandler(storeRepo, convRepo)
	webhooksHdl := handler.NewWebhooksHandler(storeRepo, convRepo)

	v1 := s.engine.Group("/api/v1")
	{
		// Public widget endpoints
		v1.POST("/chat", chatHdl.Chat)
		v1.GET("/chat/welcome", chatHdl.Welcome)
		v1.GET("/chat/conversations/:id", chatHdl.Conversation)

		// Merchant dashboard endpoints (Shopify session token)
		admin := v1.Group("")
		admin.Use(middleware.SessionToken(&s.cfg.Shopify))
		{
			admin.GET("/settings", settingsHdl.Get)
			admin.PUT("/settings", settingsHdl.Update)
			admin.GET("/conversations", analyticsHdl.Conversations)
			admin.GET("/analytics/summary", analyticsHdl.Summary)
		}
	}

	// Mandatory GDPR webhooks; HMAC verification happens upstream.
	webhooks := s.engine.Group("/webhooks")
	{
		webhooks.POST("/customers/redact", webhooksHdl.CustomersRedact)
		webhooks.POST("/customers/data_request", webhooksHdl.CustomersDataRequest)
		webhooks.POST("/shop/redact", webhooksHdl.ShopRedact)
	}
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:         addr,
		Handler:      s.engine,
		ReadTimeout:  s.cfg.Server.ReadTimeout,
		WriteTimeout: s.cfg.Server.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		log.Info().Msg("shutting down server...")

		if err := s.mongo.Close(context.Background()); err != nil {
			log.Error().Err(err).Msg("failed to close MongoDB connection")
		}
		if s.redis != nil {
			if err := s.redis.Close(); err != nil {
				log.Error().Err(err).Msg("failed to close Redis connection")
			}
		}

		return srv.Shutdown(context.Background())
	case err := <-errCh:
		return err
	}
}

// Engine exposes the gin engine for tests.
func (s *Server) Engine() *gin.Engine {
	return s.engine
}
