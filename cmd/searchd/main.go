// Command searchd is the search-job runtime's process entrypoint: it loads
// configuration, constructs every component in dependency order, starts the
// HTTP/WebSocket transport, and shuts down gracefully on SIGINT/SIGTERM.
package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"github.com/shacharon/pizzasearch/internal/cache"
	"github.com/shacharon/pizzasearch/internal/config"
	"github.com/shacharon/pizzasearch/internal/dbmigrate"
	"github.com/shacharon/pizzasearch/internal/enrichment"
	"github.com/shacharon/pizzasearch/internal/idempotency"
	"github.com/shacharon/pizzasearch/internal/job"
	"github.com/shacharon/pizzasearch/internal/llmgateway"
	llmgrpc "github.com/shacharon/pizzasearch/internal/llmgateway/grpc"
	"github.com/shacharon/pizzasearch/internal/orchestrator"
	"github.com/shacharon/pizzasearch/internal/pipeline"
	"github.com/shacharon/pizzasearch/internal/session"
	"github.com/shacharon/pizzasearch/internal/subscribe"
	"github.com/shacharon/pizzasearch/internal/transport"

	"github.com/google/uuid"
)

func getEnv(key, defaultValue string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultValue
}

func main() {
	configDir := flag.String("config-dir",
		getEnv("CONFIG_DIR", "./deploy/config"),
		"Path to configuration directory")
	flag.Parse()

	envPath := filepath.Join(*configDir, ".env")
	if err := godotenv.Load(envPath); err != nil {
		slog.Warn("could not load .env file, continuing with existing environment", "path", envPath, "err", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Initialize(ctx, *configDir)
	if err != nil {
		slog.Error("failed to initialize configuration", "err", err)
		os.Exit(1)
	}

	jobs, sessions, closeDB := mustStores(ctx, cfg)
	if closeDB != nil {
		defer closeDB()
	}

	cacheStore, idemp, enrichLock, closeRedis := mustCaches(cfg)
	if closeRedis != nil {
		defer closeRedis()
	}

	gateway, closeGateway := mustGateway(cfg)
	if closeGateway != nil {
		defer closeGateway()
	}

	subscribers := subscribe.NewManager(orchestrator.NewJobOwnerLookup(jobs))
	publisher := subscribe.NewPublisher(subscribers)

	places := pipeline.NewHTTPPlacesProvider(cfg.Providers.Places.BaseURL, cfg.Providers.Places.APIKeyEnv)

	pl := pipeline.New(pipeline.Deps{
		Gateway: gateway,
		Places:  places,
		Model:   cfg.LLM.Model,
		Timeouts: pipeline.StageTimeouts{
			Gate:     cfg.LLM.GateTimeout,
			Intent:   cfg.LLM.IntentTimeout,
			Execute:  cfg.Providers.Places.ExecuteTimeout,
			Cuisine:  cfg.LLM.CuisineTimeout,
			Narrator: cfg.LLM.NarratorTimeout,
		},
	})

	resolver := enrichment.NewHTTPResolver(providerEndpoints(cfg))
	enrichQueue := enrichment.New(
		enrichment.Config{
			WorkerPoolSize: cfg.Queue.WorkerPoolSize,
			JobTimeout:     cfg.Queue.JobTimeout,
			SearchTimeout:  cfg.Queue.SearchTimeout,
			LockTTL:        cfg.Queue.LockTTL,
			RetryBackoff:   cfg.Queue.RetryBackoff,
		},
		cacheStore,
		enrichLock,
		resolver,
		publisher,
		cfg.Queue.WorkerPoolSize*4,
	)
	enrichQueue.Start(ctx, cfg.Queue.WorkerPoolSize)
	defer enrichQueue.Stop()

	providerNames := make([]string, 0, len(cfg.Providers.Enrichment))
	for _, p := range cfg.Providers.Enrichment {
		providerNames = append(providerNames, p.Name)
	}
	if !cfg.Features.ProviderEnrichmentEnabled {
		providerNames = nil
	}

	orch := orchestrator.New(orchestrator.Deps{
		Sessions:     sessions,
		Jobs:         jobs,
		Idempotency:  idemp,
		Subscribers:  subscribers,
		Publisher:    publisher,
		Pipeline:     pl,
		Enrichment:   enrichQueue,
		Providers:    providerNames,
		NewID:        func() string { return uuid.NewString() },
		JobTimeout:   cfg.Queue.JobTimeout,
		AuthRequired: cfg.Server.AuthRequired,
	})

	server := transport.NewServer(orch, subscribers, cfg.Server.AllowedOrigins, transport.HeartbeatConfig{
		Interval:    cfg.Server.HeartbeatInterval,
		IdleTimeout: cfg.Server.IdleTimeout,
	})

	go func() {
		slog.Info("search service listening", "addr", cfg.Server.ListenAddr)
		if err := server.Start(cfg.Server.ListenAddr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("http server exited", "err", err)
		}
	}()

	<-ctx.Done()
	stop()
	slog.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Error("graceful shutdown failed", "err", err)
	}
}

// mustStores builds the Job and Session stores, preferring Postgres (and
// applying embedded migrations) when a DSN is configured and falling back
// to the in-process implementations otherwise — the swap the contract in
// §4.1/§4.2 explicitly allows.
func mustStores(ctx context.Context, cfg *config.Config) (job.Store, session.Store, func()) {
	if cfg.Postgres.DSN == "" {
		if cfg.Server.AuthRequired {
			slog.Error("auth_required is set but no postgres DSN is configured")
			os.Exit(1)
		}
		slog.Warn("no postgres DSN configured, using in-memory job/session stores")
		return job.NewMemoryStore(), session.NewMemoryStore(cfg.Retention.SessionTTL), nil
	}

	dbClient, err := dbmigrate.NewClient(ctx, cfg.Postgres.DSN)
	if err != nil {
		slog.Error("failed to connect to postgres", "err", err)
		os.Exit(1)
	}
	if err := dbClient.Migrate(); err != nil {
		slog.Error("failed to apply migrations", "err", err)
		os.Exit(1)
	}
	slog.Info("connected to postgres and applied migrations")

	return job.NewPostgresStore(dbClient.Pool), session.NewPostgresStore(dbClient.Pool, cfg.Retention.SessionTTL), dbClient.Close
}

// mustCaches builds the Cache, Idempotency Registry, and enrichment Lock,
// preferring Redis when an address is configured and falling back to
// in-process implementations for a single-node deployment otherwise.
func mustCaches(cfg *config.Config) (cache.Cache, idempotency.Registry, enrichment.Lock, func()) {
	if cfg.Redis.Addr == "" {
		slog.Warn("no redis address configured, using in-memory cache/idempotency/lock")
		return cache.NewMemoryCache(), idempotency.NewMemoryRegistry(), enrichment.NewMemoryLock(), nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	slog.Info("connected to redis", "addr", cfg.Redis.Addr)

	return cache.NewRedisCache(client),
		idempotency.NewRedisRegistry(client, cfg.Retention.IdempotencyTTL),
		enrichment.NewRedisLock(client),
		func() { _ = client.Close() }
}

// mustGateway dials the LLM Gateway sidecar over gRPC.
func mustGateway(cfg *config.Config) (llmgateway.Gateway, func()) {
	gw, err := llmgrpc.Dial(cfg.LLM.GatewayAddr)
	if err != nil {
		slog.Error("failed to dial llm gateway", "err", err)
		os.Exit(1)
	}
	return gw, func() { _ = gw.Close() }
}

func providerEndpoints(cfg *config.Config) map[string]enrichment.ProviderEndpoint {
	out := make(map[string]enrichment.ProviderEndpoint, len(cfg.Providers.Enrichment))
	for _, p := range cfg.Providers.Enrichment {
		out[p.Name] = enrichment.ProviderEndpoint{BaseURL: p.BaseURL, APIKeyEnv: p.APIKeyEnv}
	}
	return out
}
