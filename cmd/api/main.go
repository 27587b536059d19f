package main

import (
	"beautypro-payments/internal/client"
	"beautypro-payments/internal/config"
	"beautypro-payments/internal/notify"
	"beautypro-payments/internal/ratelimit"
	"beautypro-payments/internal/repository"
	"beautypro-payments/internal/server"
	"beautypro-payments/internal/service"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
)

func main() {
	// load .env into os.Environ
	if err := godotenv.Load(); err != nil {
		fmt.Println("No .env file found (ok in prod)")
	}

	cfg := &config.Config{}
	if err := env.Parse(cfg); err != nil {
		fmt.Printf("Failed to parse config: %v\n", err)
		os.Exit(1)
	}

	logger := config.NewLogger(cfg.Log, os.Stdout).With("env", cfg.Environment.Name)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	err := run(ctx, cfg, logger)
	stop()
	if err != nil {
		logger.Error("service stopped", "err", err)
		os.Exit(1)
	}
}

// run serves until ctx is done. Every client it opens is closed before it returns.
func run(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	if err := cfg.Fees.Validate(); err != nil {
		return fmt.Errorf("invalid fee config: %w", err)
	}

	db, err := client.InitDatabase(cfg)
	if err != nil {
		return fmt.Errorf("database init: %w", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("database handle: %w", err)
	}
	defer sqlDB.Close()

	var publisher notify.Publisher = notify.NewLogPublisher(logger)
	if cfg.RabbitMQ.URL != "" {
		rabbit, err := notify.NewRabbitPublisher(cfg.RabbitMQ.URL, cfg.RabbitMQ.Exchange)
		if err != nil {
			return fmt.Errorf("rabbitmq init: %w", err)
		}
		publisher = rabbit
	}
	defer publisher.Close()

	var rdb *redis.Client
	if cfg.Redis.Addr != "" {
		rdb, err = client.NewRedisClient(ctx, &cfg.Redis)
		if err != nil {
			return fmt.Errorf("redis init: %w", err)
		}
		defer rdb.Close()
	} else {
		logger.Warn("REDIS_ADDR not set, rate limiting disabled")
	}

	providerClient := client.NewProviderClient(&cfg.Provider)

	orderRepo := repository.NewOrderRepository(db)
	paymentRepo := repository.NewPaymentRepository(db)
	payoutRepo := repository.NewPayoutRepository(db)
	sellerRepo := repository.NewSellerRepository(db)
	webhookEventRepo := repository.NewWebhookEventRepository(db)
	outboxRepo := repository.NewOutboxRepository(db)

	payoutService := service.NewPayoutService(
		db,
		service.NewFeeResolver(cfg.Fees),
		orderRepo,
		payoutRepo,
		sellerRepo,
		outboxRepo,
		logger,
	)
	paymentService := service.NewPaymentService(
		db,
		providerClient,
		orderRepo,
		paymentRepo,
		webhookEventRepo,
		outboxRepo,
		payoutService,
		service.PaymentServiceOptions{
			WebhookSecret: cfg.Provider.WebhookSecret,
			Timeout:       cfg.Webhook.Timeout,
		},
		logger,
	)
	sellerService := service.NewSellerService(db, orderRepo, outboxRepo, logger)

	workerCtx, stopWorkers := context.WithCancel(ctx)
	defer stopWorkers()
	notify.NewOutboxDispatcher(outboxRepo, publisher, cfg.Outbox.Interval, cfg.Outbox.BatchSize, logger).Start(workerCtx)
	service.NewPayoutSweeper(payoutService, cfg.Sweep.Interval, cfg.Sweep.BatchSize, logger).Start(workerCtx)

	deps := server.Deps{
		PaymentService: paymentService,
		PayoutService:  payoutService,
		SellerService:  sellerService,
		AdminAPIKey:    cfg.AdminAPIKey,
		Logger:         logger,
	}
	if rdb != nil {
		deps.WebhookLimiter = ratelimit.NewRedisLimiter(rdb, cfg.RateLimit.WebhookLimit, cfg.RateLimit.Window)
		deps.SellerLimiter = ratelimit.NewRedisLimiter(rdb, cfg.RateLimit.SellerAPILimit, cfg.RateLimit.Window)
	}

	serverAddr := cfg.HTTP.Host + ":" + cfg.HTTP.Port

	// Init HTTP server
	srv := server.NewServer(deps)

	logger.Info("Starting HTTP server", "addr", serverAddr)
	serveErr := make(chan error, 1)
	go func() {
		serveErr <- srv.Start(serverAddr)
	}()

	var runErr error
	select {
	case <-ctx.Done():
		logger.Info("Signal received, starting graceful shutdown...")
	case err := <-serveErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			runErr = fmt.Errorf("http server: %w", err)
		}
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP server shutdown error", "err", err)
	}
	return runErr
}
