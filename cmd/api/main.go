package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/twmb/franz-go/pkg/kgo"
	"go.uber.org/zap"

	"github.com/shopkite/ordering-api/internal/audit"
	"github.com/shopkite/ordering-api/internal/config"
	httphandler "github.com/shopkite/ordering-api/internal/delivery/http"
	"github.com/shopkite/ordering-api/internal/logger"
	"github.com/shopkite/ordering-api/internal/repository"
	"github.com/shopkite/ordering-api/internal/usecase"
)

func main() {
	cfg := config.Load()

	zaplog, err := logger.New(cfg.LogLevel)
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	defer zaplog.Sync()

	pool, err := initDB(cfg)
	if err != nil {
		zaplog.Fatal("failed to connect to database", zap.Error(err))
	}
	defer pool.Close()

	if err := repository.RunMigrations(pool, "db/migrations", zaplog); err != nil {
		zaplog.Fatal("failed to run migrations", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var sink audit.Sink
	var kafkaClient *kgo.Client
	if cfg.AuditEnabled == "true" {
		kafkaClient, err = kgo.NewClient(
			kgo.SeedBrokers(strings.Split(cfg.KafkaBrokers, ",")...),
			kgo.ClientID(cfg.KafkaClientID),
		)
		if err != nil {
			zaplog.Fatal("failed to create kafka client", zap.Error(err))
		}
		if err := audit.EnsureTopic(ctx, kafkaClient, cfg.TopicPartitions(), cfg.ReplicationFactor()); err != nil {
			zaplog.Warn("failed to ensure audit topic", zap.Error(err))
		}
		sink = audit.NewKafkaSink(kafkaClient, zaplog)
	} else {
		sink = audit.NewLogSink(zaplog)
	}

	store := repository.New(pool, cfg.LockTimeout)
	balances := usecase.NewBalanceService(store, sink, zaplog, cfg.BalanceRetryMax, cfg.BalanceRetryBackoff)
	coupons := usecase.NewCouponService(store, sink, zaplog)
	stock := usecase.NewStockService(store, zaplog)
	catalog := usecase.NewCatalogService(store)
	orders := usecase.NewOrderService(store, stock, coupons, balances, sink, zaplog)

	handler := httphandler.NewHandler(balances, coupons, catalog, orders)

	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	handler.Routes(r)

	srv := &http.Server{
		Addr:    ":" + cfg.AppPort,
		Handler: r,
	}

	wg := sync.WaitGroup{}
	wg.Add(1)
	go func() {
		defer wg.Done()
		zaplog.Info("starting server", zap.String("port", cfg.AppPort))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zaplog.Error("server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	zaplog.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		zaplog.Error("http shutdown error", zap.Error(err))
	}

	if kafkaClient != nil {
		kafkaClient.Close()
	}

	wg.Wait()
	zaplog.Info("shutdown complete")
}

func initDB(cfg *config.Config) (*pgxpool.Pool, error) {
	connStr := fmt.Sprintf(
		"postgresql://%s:%s@%s:%s/%s?sslmode=%s",
		cfg.DBUser,
		cfg.DBPassword,
		cfg.DBHost,
		cfg.DBPort,
		cfg.DBName,
		cfg.DBSSLMode,
	)

	pool, err := pgxpool.New(context.Background(), connStr)
	if err != nil {
		return nil, fmt.Errorf("unable to create connection pool: %w", err)
	}

	if err := pool.Ping(context.Background()); err != nil {
		pool.Close()
		return nil, fmt.Errorf("unable to ping database: %w", err)
	}

	return pool, nil
}
