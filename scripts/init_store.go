package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"

	"shopmate/internal/config"
	"shopmate/internal/model"
	"shopmate/internal/pkg/logger"
	"shopmate/internal/pkg/mongodb"
	"shopmate/internal/pkg/shopify"
	"shopmate/internal/repository"
)

// Registers (or reactivates) a store for local development, bypassing the
// OAuth install flow. Run with:
//
//	INIT_STORE_SHOP=dev.myshopify.com INIT_STORE_TOKEN=shpat_xxx go run scripts/init_store.go
func main() {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("./configs")
	viper.AddConfigPath(".")
	viper.AddConfigPath("$HOME/.shopmate")

	viper.SetEnvPrefix("SHOPMATE")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to read config: %v\n", err)
		os.Exit(1)
	}

	var cfg config.Config
	if err := viper.Unmarshal(&cfg); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to unmarshal config: %v\n", err)
		os.Exit(1)
	}

	if err := logger.Init(&cfg.Log); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to init logger: %v\n", err)
		os.Exit(1)
	}

	shop := os.Getenv("INIT_STORE_SHOP")
	if shop == "" {
		shop = "dev-store.myshopify.com"
	}
	if !shopify.ValidShopDomain(shop) {
		log.Fatal().Str("shop", shop).Msg("INIT_STORE_SHOP is not a *.myshopify.com domain")
	}
	accessToken := os.Getenv("INIT_STORE_TOKEN")
	storeName := os.Getenv("INIT_STORE_NAME")
	if storeName == "" {
		storeName = "Dev Store"
	}
	supportEmail := os.Getenv("INIT_STORE_EMAIL")
	if supportEmail == "" {
		supportEmail = "support@example.com"
	}

	client, err := mongodb.New(&cfg.Mongo)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect mongo")
	}
	defer func() {
		_ = client.Close(context.Background())
	}()

	ctx := context.Background()
	storeRepo := repository.NewStoreRepo(client.Database())

	existing, err := storeRepo.FindByDomain(ctx, shop)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		log.Fatal().Err(err).Msg("failed to query store")
	}
	if existing != nil {
		log.Info().Str("shop", shop).Msg("store exists, will update")
	}

	store := &model.Store{
		Shop:        shop,
		StoreName:   storeName,
		AccessToken: accessToken,
		IsActive:    true,
		Settings: model.StoreSettings{
			SupportEmail:   supportEmail,
			BotPersonality: model.PersonalityFriendly,
		},
	}
	if err := storeRepo.Upsert(ctx, store); err != nil {
		log.Fatal().Err(err).Msg("failed to upsert store")
	}

	fmt.Printf("Store initialized: shop=%s name=%q support_email=%s active=true\n",
		shop, storeName, supportEmail)
}
