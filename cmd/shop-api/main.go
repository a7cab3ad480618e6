package main

import (
	"context"
	"net/http"
	"os"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"

	"github.com/leavalz/Natural-Triade-Shop/pkg/auth"
	"github.com/leavalz/Natural-Triade-Shop/pkg/config"
	"github.com/leavalz/Natural-Triade-Shop/pkg/idempotency"
	"github.com/leavalz/Natural-Triade-Shop/pkg/logging"
	"github.com/leavalz/Natural-Triade-Shop/pkg/outbox"
	"github.com/leavalz/Natural-Triade-Shop/pkg/postgres"
	"github.com/leavalz/Natural-Triade-Shop/pkg/shutdown"
	"github.com/leavalz/Natural-Triade-Shop/pkg/tracing"

	adminhttp "github.com/leavalz/Natural-Triade-Shop/internal/admin/infrastructure/http"
	adminpg "github.com/leavalz/Natural-Triade-Shop/internal/admin/infrastructure/postgres"
	carthttp "github.com/leavalz/Natural-Triade-Shop/internal/cart/infrastructure/http"
	cartpg "github.com/leavalz/Natural-Triade-Shop/internal/cart/infrastructure/postgres"
	cataloghttp "github.com/leavalz/Natural-Triade-Shop/internal/catalog/infrastructure/http"
	catalogpg "github.com/leavalz/Natural-Triade-Shop/internal/catalog/infrastructure/postgres"
	orderhttp "github.com/leavalz/Natural-Triade-Shop/internal/order/infrastructure/http"
	orderkafka "github.com/leavalz/Natural-Triade-Shop/internal/order/infrastructure/kafka"
	orderpg "github.com/leavalz/Natural-Triade-Shop/internal/order/infrastructure/postgres"
	paymenthttp "github.com/leavalz/Natural-Triade-Shop/internal/payment/infrastructure/http"
	paymentpg "github.com/leavalz/Natural-Triade-Shop/internal/payment/infrastructure/postgres"
	paymentstripe "github.com/leavalz/Natural-Triade-Shop/internal/payment/infrastructure/stripe"

	adminapp "github.com/leavalz/Natural-Triade-Shop/internal/admin/application"
	cartapp "github.com/leavalz/Natural-Triade-Shop/internal/cart/application"
	catalogapp "github.com/leavalz/Natural-Triade-Shop/internal/catalog/application"
	orderapp "github.com/leavalz/Natural-Triade-Shop/internal/order/application"
	paymentapp "github.com/leavalz/Natural-Triade-Shop/internal/payment/application"
	"github.com/leavalz/Natural-Triade-Shop/internal/pricing"
)

const webhookDedupTTL = 24 * time.Hour

func main() {
	cfg, err := config.Load()
	if err != nil {
		os.Stderr.WriteString("config load failed: " + err.Error() + "\n")
		os.Exit(1)
	}
	log := logging.New(cfg.LogLevel)

	ctx, cancel := shutdown.WithSignals(context.Background())
	defer cancel()

	tp, err := tracing.Init(ctx, "shop-api", cfg.OTLPEndpoint, log)
	if err != nil {
		log.Error("otel init failed", "err", err)
		os.Exit(1)
	}
	defer func() { _ = tp.Shutdown(ctx) }()

	// Postgres
	pool, err := postgres.Connect(ctx, cfg.PostgresURL)
	if err != nil {
		log.Error("pg connect failed", "err", err)
		os.Exit(1)
	}
	defer pool.Close()
	if err := postgres.EnsureSchema(ctx, pool); err != nil {
		log.Error("schema setup failed", "err", err)
		os.Exit(1)
	}

	// Redis, Kafka
	rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	defer rdb.Close()

	writer := orderkafka.NewWriter(cfg.KafkaBrokers)
	defer writer.Close()

	// Outbox relay
	outboxStore := orderpg.NewOutboxStore(log, pool)
	dispatch := outbox.NewDispatcher(log, writer, cfg.OrderEventsTopic)
	relay := outbox.NewRelay(log, outboxStore, dispatch, "shop-api-relay")

	// Repositories
	productRepo := catalogpg.NewRepository(log, pool)
	cartRepo := cartpg.NewRepository(log, pool)
	orderRepo := orderpg.NewRepository(log, pool)
	paymentRepo := paymentpg.NewRepository(log, pool)

	// Services
	calc := pricing.NewCalculator(cfg.TaxRate)
	catalogSvc := catalogapp.NewService(log, productRepo)
	cartSvc := cartapp.NewService(log, cartRepo, productRepo, calc)
	orderSvc := orderapp.NewService(log, orderRepo, cartRepo, calc)

	stripeClient := paymentstripe.NewClient(log, cfg.StripeSecretKey, cfg.StripeWebhookSecret)
	dedup := idempotency.NewStore(rdb, webhookDedupTTL)
	paymentSvc := paymentapp.NewService(log, paymentRepo, stripeClient, dedup, cfg.Currency)

	adminReader := adminpg.NewReader(log, pool, orderRepo, productRepo)
	adminSvc := adminapp.NewService(log, adminReader)

	// Handlers
	catalogHandler := cataloghttp.NewHandler(log, catalogSvc)
	cartHandler := carthttp.NewHandler(log, cartSvc)
	orderHandler := orderhttp.NewHandler(log, orderSvc)
	paymentHandler := paymenthttp.NewHandler(log, paymentSvc, cfg.StripePublishableKey, cfg.Currency)
	adminHandler := adminhttp.NewHandler(log, adminSvc, orderSvc)

	r := chi.NewRouter()
	r.Mount("/products", catalogHandler.Routes())
	r.Mount("/payments", paymentHandler.Routes())

	r.Group(func(r chi.Router) {
		r.Use(auth.Middleware)
		r.Mount("/cart", cartHandler.Routes())
		r.Mount("/orders", orderHandler.Routes())
	})

	r.Group(func(r chi.Router) {
		r.Use(auth.Middleware, auth.RequireAdmin)
		r.Mount("/admin/products", catalogHandler.AdminRoutes())
		r.Mount("/admin", adminHandler.Routes())
	})

	srv := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      r,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	go func() {
		if err := relay.Run(ctx); err != nil {
			log.Error("relay stopped with error", "err", err)
		}
	}()

	go func() {
		log.Info("http listening", "addr", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("http server error", "err", err)
			cancel()
		}
	}()

	<-ctx.Done()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	_ = srv.Shutdown(shutdownCtx)
	log.Info("shop-api shutdown complete")
}
