package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/saverr-hub/internal/application/hub"
	"github.com/saverr-hub/internal/application/notification"
	"github.com/saverr-hub/internal/config"
	"github.com/saverr-hub/internal/infrastructure/dynamo"
	jwtinfra "github.com/saverr-hub/internal/infrastructure/jwt"
	"github.com/saverr-hub/internal/infrastructure/noah"
	s3infra "github.com/saverr-hub/internal/infrastructure/s3"
	"github.com/saverr-hub/internal/infrastructure/sns"
	"github.com/saverr-hub/internal/infrastructure/telegram"
	"github.com/saverr-hub/internal/pkg/logger"
	transporthttp "github.com/saverr-hub/internal/transport/http"
)

func main() {
	envErr := godotenv.Load()

	cfg := config.Load()
	log := logger.New(cfg.LogLevel, cfg.AppEnv)
	if envErr != nil {
		log.Info().Msg("no .env file found, reading from environment")
	}
	if cfg.TelegramBotToken == "" {
		log.Fatal().Msg("TELEGRAM_BOT_TOKEN is required to verify launch payloads")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	awsCfg, err := dynamo.LoadAWSConfig(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("load aws config")
	}

	// Bootstrap DynamoDB tables (creates them if they don't exist).
	dynamoClient := dynamo.NewClient(awsCfg, cfg)
	dynamo.Bootstrap(ctx, dynamoClient, cfg.DynamoTables, log)

	userRepo := dynamo.NewUserRepo(dynamoClient, cfg.DynamoTables.Users)
	deps := &transporthttp.Deps{
		UserRepo:        userRepo,
		TransactionRepo: dynamo.NewTransactionRepo(dynamoClient, cfg.DynamoTables.Transactions),
		Logger:          log,
	}
	registry := hub.NewRegistry(log)
	notify := notification.ServiceDeps{
		Push:             registry,
		Users:            userRepo,
		NotificationRepo: dynamo.NewNotificationRepo(dynamoClient, cfg.DynamoTables.Notifications),
		ChatTimeout:      cfg.ChatSendTimeout,
		ChatWorkers:      cfg.ChatWorkers,
		Logger:           log,
	}

	// JWT provider is optional; bearer sessions are disabled if keys are missing.
	if p, err := jwtinfra.NewProvider(cfg); err == nil {
		deps.Tokens = p
	} else {
		log.Warn().Err(err).Msg("JWT provider not available")
	}

	bot, err := telegram.NewBot(telegram.Config{Token: cfg.TelegramBotToken, Polling: cfg.TelegramPolling}, log)
	if err != nil {
		log.Warn().Err(err).Msg("telegram bot not available, chat notifications disabled")
	} else {
		notify.Chat = bot
		if cfg.TelegramPolling {
			bot.Start(ctx)
		}
	}

	if cfg.SMSFallback {
		notify.SMS = sns.NewSender(awsCfg, cfg.SNSRegion)
	}
	if cfg.S3ArchiveBucket != "" {
		deps.Archive = s3infra.NewArchive(s3infra.NewClient(awsCfg, cfg), cfg.S3ArchiveBucket)
	}
	if cfg.NoahAPIKey != "" {
		deps.Onboarding = noah.NewClient(cfg.NoahAPIURL, cfg.NoahAPIKey, cfg.OnboardingReturnURL, cfg.OnboardingFiatCurrency)
	} else {
		log.Info().Msg("NOAH_API_KEY not set, onboarding returns mock URLs")
	}
	if cfg.WebhookDedupe {
		deps.Guard = dynamo.NewNotifyGuard(dynamoClient, cfg.DynamoTables.NotifyGuard)
	}

	dispatcher := notification.NewService(notify)
	deps.Dispatcher = dispatcher
	router := transporthttp.NewRouter(cfg, registry, deps)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.AppPort),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info().Str("addr", srv.Addr).Msg("server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("server error")
			stop()
		}
	}()

	<-ctx.Done()

	log.Info().Msg("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("forced shutdown")
		os.Exit(1)
	}
	if err := dispatcher.Drain(shutdownCtx); err != nil {
		log.Warn().Err(err).Msg("queued chat deliveries dropped")
	}
	log.Info().Msg("server stopped")
}
