package config

import "time"

// DefaultConfig returns the built-in configuration, applied before any
// user-supplied search.yaml is merged on top, mirroring the teacher's
// GetBuiltinConfig() + mergo.Merge(..., mergo.WithOverride) layering.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			ListenAddr:        ":8080",
			AllowedOrigins:    []string{"http://localhost:5173"},
			AuthRequired:      false,
			HeartbeatInterval: 30 * time.Second,
			IdleTimeout:       15 * time.Minute,
		},
		Postgres: PostgresConfig{
			MigrationsTable: "schema_migrations",
		},
		Redis: RedisConfig{
			Addr: "localhost:6379",
			DB:   0,
		},
		LLM: LLMConfig{
			GatewayAddr:     "localhost:9090",
			Model:           "default",
			GateTimeout:     3 * time.Second,
			IntentTimeout:   4 * time.Second,
			CuisineTimeout:  5 * time.Second,
			NarratorTimeout: 3 * time.Second,
		},
		Providers: ProvidersConfig{
			Places: PlacesConfig{
				BaseURL:             "https://places.googleapis.com/v1",
				APIKeyEnv:           "PLACES_API_KEY",
				DefaultRadiusMeters: 2000,
				ExecuteTimeout:      8 * time.Second,
			},
			Enrichment: []EnrichmentProvider{
				{Name: "wolt", Concurrency: 4, BaseURL: "https://restaurant-api.wolt.com/v1/pages/search", APIKeyEnv: "WOLT_API_KEY"},
				{Name: "ubereats", Concurrency: 4, BaseURL: "https://api.uber.com/v1/eats/stores/search", APIKeyEnv: "UBEREATS_API_KEY"},
			},
		},
		Queue: QueueConfig{
			WorkerPoolSize: 8,
			JobTimeout:     30 * time.Second,
			SearchTimeout:  20 * time.Second,
			LockTTL:        60 * time.Second,
			RetryBackoff:   []time.Duration{1 * time.Second, 2 * time.Second, 4 * time.Second},
		},
		Retention: RetentionConfig{
			SessionTTL:     7 * 24 * time.Hour,
			FoundTTL:       7 * 24 * time.Hour,
			NotFoundTTL:    24 * time.Hour,
			IdempotencyTTL: 10 * time.Minute,
			JobGCInterval:  5 * time.Minute,
		},
		Features: FeatureFlags{
			NarratorEnabled:           true,
			ProviderEnrichmentEnabled: true,
		},
	}
}
