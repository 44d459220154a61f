package main

import (
	"context"
	"net/http"
	"os"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"github.com/JNAMx03/OutOfStock/pkg/idempotency"
	"github.com/JNAMx03/OutOfStock/pkg/logging"
	"github.com/JNAMx03/OutOfStock/pkg/outbox"
	"github.com/JNAMx03/OutOfStock/pkg/shutdown"
	"github.com/JNAMx03/OutOfStock/pkg/tracing"

	inventoryapp "github.com/JNAMx03/OutOfStock/internal/inventory/application"
	inventoryhttp "github.com/JNAMx03/OutOfStock/internal/inventory/infrastructure/http"
	inventorymem "github.com/JNAMx03/OutOfStock/internal/inventory/infrastructure/memory"
	inventorypg "github.com/JNAMx03/OutOfStock/internal/inventory/infrastructure/postgres"
	platformpg "github.com/JNAMx03/OutOfStock/internal/platform/postgres"
	salesapp "github.com/JNAMx03/OutOfStock/internal/sales/application"
	saleshttp "github.com/JNAMx03/OutOfStock/internal/sales/infrastructure/http"
	salesmem "github.com/JNAMx03/OutOfStock/internal/sales/infrastructure/memory"
	salespg "github.com/JNAMx03/OutOfStock/internal/sales/infrastructure/postgres"
)

func main() {
	_ = godotenv.Load()
	log := logging.New()

	ctx, cancel := shutdown.WithSignals(context.Background())
	defer cancel()

	// Configuration
	httpAddr := env("HTTP_ADDR", ":8080")
	pgURL := os.Getenv("DATABASE_URL")
	kafkaAddr := os.Getenv("KAFKA_ADDR")
	redisAddr := os.Getenv("REDIS_ADDR")
	otlpEndpoint := os.Getenv("OTLP_ENDPOINT")
	outboxTopic := env("OUTBOX_TOPIC", "ledger.events")

	tp, err := tracing.Init(ctx, "outofstock", otlpEndpoint, log)
	if err != nil {
		log.Error("otel init failed", "err", err)
		os.Exit(1)
	}
	defer func() { _ = tp.Shutdown(context.Background()) }()

	// Persistence: postgres when DATABASE_URL is set, in-memory otherwise.
	var (
		productRepo inventoryapp.ProductRepository
		saleRepo    salesapp.SaleRepository
		outboxStore outbox.Store
	)
	if pgURL != "" {
		pool, err := pgxpool.New(ctx, pgURL)
		if err != nil {
			log.Error("pg connect failed", "err", err)
			os.Exit(1)
		}
		defer pool.Close()
		if err := platformpg.EnsureSchema(ctx, pool); err != nil {
			log.Error("schema setup failed", "err", err)
			os.Exit(1)
		}
		productRepo = inventorypg.NewRepository(log, pool)
		saleRepo = salespg.NewRepository(log, pool)
		outboxStore = platformpg.NewOutboxStore(log, pool)
		log.Info("using postgres store")
	} else {
		mem := outbox.NewMemoryStore()
		productRepo = inventorymem.NewRepository(mem)
		saleRepo = salesmem.NewRepository(mem)
		outboxStore = mem
		log.Info("using in-memory store")
	}

	// Ledgers: the sale ledger holds the inventory ledger as its stock
	// mutation capability.
	inventoryLedger := inventoryapp.NewLedger(log, productRepo)
	salesLedger := salesapp.NewLedger(log, saleRepo, inventoryLedger)
	settings := inventorymem.NewSettingsProvider()

	// Outbox relay, only when a broker is configured.
	if kafkaAddr != "" {
		writer := outbox.NewWriter([]string{kafkaAddr})
		defer writer.Close()
		dispatch := outbox.NewDispatcher(log, writer, outboxTopic)
		relay := outbox.NewRelay(log, outboxStore, dispatch, "outofstock-relay")
		go func() {
			if err := relay.Run(ctx); err != nil {
				log.Error("relay stopped with error", "err", err)
			}
		}()
	} else {
		log.Info("no broker configured, outbox events stay queued")
	}

	// HTTP server
	r := chi.NewRouter()
	if redisAddr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: redisAddr})
		defer rdb.Close()
		idem := idempotency.NewStore(rdb, 24*time.Hour)
		r.Use(idempotency.Middleware(idem, log))
	}
	inventoryhttp.NewHandler(log, inventoryLedger, settings).Register(r)
	saleshttp.NewHandler(log, salesLedger).Register(r)

	srv := &http.Server{
		Addr:         httpAddr,
		Handler:      r,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	go func() {
		log.Info("http listening", "addr", httpAddr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("http server error", "err", err)
			cancel()
		}
	}()

	<-ctx.Done()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	_ = srv.Shutdown(shutdownCtx)
	log.Info("shutdown complete")
}

func env(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
