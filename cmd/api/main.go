package main

import (
	"context"
	"net/http"
	"os"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/rmoralesdev/casaworks-backend/api/routes"
	"github.com/rmoralesdev/casaworks-backend/internal/escrow"
	"github.com/rmoralesdev/casaworks-backend/internal/ledger"
	"github.com/rmoralesdev/casaworks-backend/internal/payments"
	"github.com/rmoralesdev/casaworks-backend/internal/payouts"
	"github.com/rmoralesdev/casaworks-backend/internal/settings"
	"github.com/rmoralesdev/casaworks-backend/internal/users"
	stripewebhook "github.com/rmoralesdev/casaworks-backend/internal/webhooks/stripe"
	"github.com/rmoralesdev/casaworks-backend/pkg/config"
	"github.com/rmoralesdev/casaworks-backend/pkg/db"
	"github.com/rmoralesdev/casaworks-backend/pkg/logger"
	"github.com/rmoralesdev/casaworks-backend/pkg/metrics"
	"github.com/rmoralesdev/casaworks-backend/pkg/migrate"
	"github.com/rmoralesdev/casaworks-backend/pkg/redis"
	"github.com/rmoralesdev/casaworks-backend/pkg/stripe"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	stripeClient, err := stripe.NewClient(context.Background(), cfg.Stripe, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap stripe client", err)
		os.Exit(1)
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	escrowMetrics := metrics.NewEscrowMetrics(registry)

	gateway, err := payments.NewStripeGateway(stripeClient, payments.ConnectURLs{
		RefreshURL: cfg.Stripe.ConnectRefreshURL,
		ReturnURL:  cfg.Stripe.ConnectReturnURL,
	}, escrowMetrics)
	if err != nil {
		logg.Error(context.Background(), "failed to build payment gateway", err)
		os.Exit(1)
	}

	bookingRepo := escrow.NewRepository(dbClient.DB())
	eventRepo := ledger.NewRepository(dbClient.DB())
	userRepo := users.NewRepository(dbClient.DB())

	settingsService, err := settings.NewService(settings.ServiceParams{
		Repo:     settings.NewRepository(dbClient.DB()),
		Defaults: cfg.Escrow,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create settings service", err)
		os.Exit(1)
	}

	payoutsService, err := payouts.NewService(payouts.ServiceParams{
		Users:   userRepo,
		Gateway: gateway,
		Logger:  logg,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create payouts service", err)
		os.Exit(1)
	}

	escrowService, err := escrow.NewService(escrow.ServiceParams{
		Repo:     bookingRepo,
		Events:   eventRepo,
		Users:    userRepo,
		Gateway:  gateway,
		Payouts:  payoutsService,
		Settings: settingsService,
		Tx:       dbClient,
		Logger:   logg,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create escrow service", err)
		os.Exit(1)
	}

	ledgerService, err := ledger.NewService(eventRepo)
	if err != nil {
		logg.Error(context.Background(), "failed to create ledger service", err)
		os.Exit(1)
	}

	webhookService, err := stripewebhook.NewService(stripewebhook.ServiceParams{
		Bookings: bookingRepo,
		Ledger:   ledgerService,
		Users:    userRepo,
		Payouts:  payoutsService,
		Logger:   logg,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create webhook service", err)
		os.Exit(1)
	}

	webhookGuard, err := stripewebhook.NewIdempotencyGuard(redisClient, cfg.Idempotency.WebhookTTL, "stripe-webhook")
	if err != nil {
		logg.Error(context.Background(), "failed to create webhook guard", err)
		os.Exit(1)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	id := os.Getenv("DYNO")
	if id == "" {
		id = "local"
	}
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":      cfg.App.Env,
		"addr":     addr,
		"instance": id,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(
			cfg,
			logg,
			dbClient,
			redisClient,
			registry,
			escrowService,
			payoutsService,
			stripeClient,
			webhookService,
			webhookGuard,
		),
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}
