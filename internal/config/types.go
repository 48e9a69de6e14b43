// Package config loads and validates the search service's configuration,
// following the teacher's layered YAML + env-overlay + mergo pattern.
package config

import "time"

// Config is the fully-resolved, validated runtime configuration.
type Config struct {
	Server    ServerConfig
	Postgres  PostgresConfig
	Redis     RedisConfig
	LLM       LLMConfig
	Providers ProvidersConfig
	Queue     QueueConfig
	Retention RetentionConfig
	Features  FeatureFlags
}

// ServerConfig controls the HTTP/WebSocket transport.
type ServerConfig struct {
	ListenAddr        string        `yaml:"listen_addr"`
	AllowedOrigins    []string      `yaml:"allowed_origins"`
	AuthRequired      bool          `yaml:"auth_required"`
	HeartbeatInterval time.Duration `yaml:"heartbeat_interval"`
	IdleTimeout       time.Duration `yaml:"idle_timeout"`
}

// PostgresConfig configures the Job/Session Postgres stores (C12).
type PostgresConfig struct {
	DSN             string `yaml:"dsn"`
	MigrationsTable string `yaml:"migrations_table"`
}

// RedisConfig configures the Cache/Idempotency/Lock Redis stores (C13).
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

// LLMConfig configures the LLM Gateway (C7/C15).
type LLMConfig struct {
	GatewayAddr    string        `yaml:"gateway_addr"`
	Model          string        `yaml:"model"`
	GateTimeout    time.Duration `yaml:"gate_timeout"`
	IntentTimeout  time.Duration `yaml:"intent_timeout"`
	CuisineTimeout time.Duration `yaml:"cuisine_timeout"`
	NarratorTimeout time.Duration `yaml:"narrator_timeout"`
}

// ProvidersConfig configures the places provider and enrichment providers.
type ProvidersConfig struct {
	Places      PlacesConfig       `yaml:"places"`
	Enrichment  []EnrichmentProvider `yaml:"enrichment"`
}

// PlacesConfig configures the external places-search provider.
type PlacesConfig struct {
	BaseURL             string        `yaml:"base_url"`
	APIKeyEnv           string        `yaml:"api_key_env"`
	DefaultRadiusMeters int           `yaml:"default_radius_meters"`
	ExecuteTimeout      time.Duration `yaml:"execute_timeout"`
}

// EnrichmentProvider names one third-party deep-link provider, its
// per-provider concurrency cap, and where to resolve a deep link.
type EnrichmentProvider struct {
	Name        string `yaml:"name"`
	Concurrency int    `yaml:"concurrency"`
	BaseURL     string `yaml:"base_url"`
	APIKeyEnv   string `yaml:"api_key_env"`
}

// QueueConfig configures the provider enrichment queue (C9).
type QueueConfig struct {
	WorkerPoolSize int           `yaml:"worker_pool_size"`
	JobTimeout     time.Duration `yaml:"job_timeout"`
	SearchTimeout  time.Duration `yaml:"search_timeout"`
	LockTTL        time.Duration `yaml:"lock_ttl"`
	RetryBackoff   []time.Duration `yaml:"-"` // fixed schedule, not user-configurable
}

// RetentionConfig configures TTLs across stores.
type RetentionConfig struct {
	SessionTTL          time.Duration `yaml:"session_ttl"`
	FoundTTL            time.Duration `yaml:"found_ttl"`
	NotFoundTTL         time.Duration `yaml:"not_found_ttl"`
	IdempotencyTTL      time.Duration `yaml:"idempotency_ttl"`
	JobGCInterval       time.Duration `yaml:"job_gc_interval"`
}

// FeatureFlags toggle optional behavior per §6.
type FeatureFlags struct {
	NarratorEnabled           bool `yaml:"narrator_enabled"`
	ProviderEnrichmentEnabled bool `yaml:"provider_enrichment_enabled"`
}

// yamlDoc mirrors the on-disk search.yaml shape before defaults/merge are
// applied. Optional sections are pointers so "absent" and "present-but-zero"
// are distinguishable during merge, exactly as the teacher's TarsyYAMLConfig
// does for its own optional sections.
type yamlDoc struct {
	Server    *ServerConfig        `yaml:"server"`
	Postgres  *PostgresConfig      `yaml:"postgres"`
	Redis     *RedisConfig         `yaml:"redis"`
	LLM       *LLMConfig           `yaml:"llm"`
	Providers *ProvidersConfig     `yaml:"providers"`
	Queue     *QueueConfig         `yaml:"queue"`
	Retention *RetentionConfig     `yaml:"retention"`
	Features  *FeatureFlags        `yaml:"features"`
}
