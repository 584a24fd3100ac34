// Command server wires the courtyard HTTP API: configuration, storage
// backend, state store, domain services, audit pipeline and the router.
// Business logic lives in the internal service packages.
package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq"
	"golang.org/x/sync/errgroup"

	boardservice "courtyard/internal/board/service"
	communityservice "courtyard/internal/community/service"
	directoryservice "courtyard/internal/directory/service"
	jwttoken "courtyard/internal/jwt_token"
	paymentservice "courtyard/internal/payment/service"
	"courtyard/internal/platform/config"
	"courtyard/internal/platform/httpserver"
	"courtyard/internal/platform/logger"
	"courtyard/internal/platform/metrics"
	platformredis "courtyard/internal/platform/redis"
	"courtyard/internal/state"
	"courtyard/internal/storage"
	httptransport "courtyard/internal/transport/http"
	audit "courtyard/pkg/platform/audit"
	"courtyard/pkg/platform/audit/publisher"
	kafkasink "courtyard/pkg/platform/audit/publishers/kafka"
	auditmemory "courtyard/pkg/platform/audit/store/memory"
	auditpostgres "courtyard/pkg/platform/audit/store/postgres"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	cfg := config.FromEnv()
	log := logger.New()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	backend, err := openStorage(ctx, cfg)
	if err != nil {
		return fmt.Errorf("open storage: %w", err)
	}
	defer backend.cleanup()

	st, err := state.Open(ctx, backend.kv, log)
	if err != nil {
		return fmt.Errorf("hydrate state: %w", err)
	}

	// On the SQL backend audit history persists next to the application
	// state; elsewhere it stays queryable in memory for the process
	// lifetime and the Kafka sink, when configured, is the durable copy.
	var auditStore audit.Store = auditmemory.NewInMemoryStore()
	if backend.db != nil {
		auditStore, err = auditpostgres.New(ctx, backend.db)
		if err != nil {
			return fmt.Errorf("open audit store: %w", err)
		}
	}

	auditOpts := []publisher.Option{
		publisher.WithLogger(log),
		publisher.WithAsyncBuffer(256),
	}
	if len(cfg.KafkaBrokers) > 0 {
		sink, err := kafkasink.NewSink(ctx, cfg.KafkaBrokers, cfg.KafkaTopic)
		if err != nil {
			return fmt.Errorf("connect kafka audit sink: %w", err)
		}
		defer sink.Close()
		auditOpts = append(auditOpts, publisher.WithSink(sink))
	}
	auditPub := publisher.NewPublisher(auditStore, auditOpts...)
	defer auditPub.Close()

	m := metrics.New()
	tokens := jwttoken.NewJWTService(cfg.JWTSigningKey, "courtyard")

	handler := httptransport.NewHandler(
		log,
		directoryservice.New(st,
			directoryservice.WithLogger(log),
			directoryservice.WithAuditPublisher(auditPub),
			directoryservice.WithMetrics(m),
		),
		communityservice.New(st,
			communityservice.WithLogger(log),
			communityservice.WithAuditPublisher(auditPub),
			communityservice.WithMetrics(m),
		),
		paymentservice.New(st,
			paymentservice.WithLogger(log),
			paymentservice.WithAuditPublisher(auditPub),
			paymentservice.WithMetrics(m),
		),
		boardservice.New(st,
			boardservice.WithLogger(log),
			boardservice.WithAuditPublisher(auditPub),
			boardservice.WithMetrics(m),
		),
		tokens,
		auditPub,
		cfg.TokenTTL,
	)

	srv := httpserver.New(cfg.Addr, httptransport.NewRouter(handler, m))

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("server starting", "addr", cfg.Addr, "storage", cfg.StorageBackend)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		log.Info("server shutting down")
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

// storageBackend bundles the KV with whatever connection backs it. db is
// non-nil only for Postgres, where the audit store reuses the connection.
type storageBackend struct {
	kv      storage.KV
	db      *sql.DB
	cleanup func()
}

// openStorage selects the KV backend from config. The returned cleanup is
// safe to call once, after the server stops.
func openStorage(ctx context.Context, cfg config.Config) (storageBackend, error) {
	switch cfg.StorageBackend {
	case config.StorageMemory:
		return storageBackend{kv: storage.NewMemory(), cleanup: func() {}}, nil

	case config.StorageRedis:
		client, err := platformredis.New(ctx, cfg.RedisURL)
		if err != nil {
			return storageBackend{}, err
		}
		return storageBackend{
			kv:      storage.NewRedis(client.Client),
			cleanup: func() { client.Close() },
		}, nil

	case config.StoragePostgres:
		db, err := sql.Open("postgres", cfg.DatabaseURL)
		if err != nil {
			return storageBackend{}, err
		}
		kv, err := storage.NewPostgres(ctx, db)
		if err != nil {
			db.Close()
			return storageBackend{}, err
		}
		return storageBackend{
			kv:      kv,
			db:      db,
			cleanup: func() { db.Close() },
		}, nil

	default:
		return storageBackend{}, fmt.Errorf("unknown storage backend %q", cfg.StorageBackend)
	}
}
