package config

import (
	"fmt"
)

// Validator performs comprehensive validation on a loaded Config, mirroring
// the teacher's pkg/config/validator.go ValidateAll() entry point.
type Validator struct {
	cfg *Config
}

func NewValidator(cfg *Config) *Validator { return &Validator{cfg: cfg} }

// ValidateAll validates every section of Config, returning the first
// violation wrapped as a *ValidationError, or joining all of them if more
// than one component is inconsistent.
func (v *Validator) ValidateAll() error {
	var errs []error
	if err := v.validateServer(); err != nil {
		errs = append(errs, err)
	}
	if err := v.validatePostgres(); err != nil {
		errs = append(errs, err)
	}
	if err := v.validateRedis(); err != nil {
		errs = append(errs, err)
	}
	if err := v.validateLLM(); err != nil {
		errs = append(errs, err)
	}
	if err := v.validateQueue(); err != nil {
		errs = append(errs, err)
	}
	if len(errs) == 0 {
		return nil
	}
	joined := errs[0]
	for _, e := range errs[1:] {
		joined = fmt.Errorf("%w; %w", joined, e)
	}
	return fmt.Errorf("%w: %w", ErrValidationFailed, joined)
}

func (v *Validator) validateServer() error {
	s := v.cfg.Server
	if s.ListenAddr == "" {
		return NewValidationError("server", "listen_addr", fmt.Errorf("must not be empty"))
	}
	if s.HeartbeatInterval <= 0 {
		return NewValidationError("server", "heartbeat_interval", fmt.Errorf("must be positive"))
	}
	if s.IdleTimeout <= 0 {
		return NewValidationError("server", "idle_timeout", fmt.Errorf("must be positive"))
	}
	if s.AuthRequired && v.cfg.Redis.Addr == "" {
		return NewValidationError("server", "auth_required", fmt.Errorf("requires redis.addr to be set"))
	}
	return nil
}

func (v *Validator) validatePostgres() error {
	if v.cfg.Postgres.DSN == "" {
		return NewValidationError("postgres", "dsn", fmt.Errorf("must not be empty"))
	}
	return nil
}

func (v *Validator) validateRedis() error {
	if v.cfg.Redis.Addr == "" {
		return NewValidationError("redis", "addr", fmt.Errorf("must not be empty"))
	}
	return nil
}

func (v *Validator) validateLLM() error {
	l := v.cfg.LLM
	if l.GatewayAddr == "" {
		return NewValidationError("llm", "gateway_addr", fmt.Errorf("must not be empty"))
	}
	if l.GateTimeout <= 0 || l.IntentTimeout <= 0 || l.CuisineTimeout <= 0 || l.NarratorTimeout <= 0 {
		return NewValidationError("llm", "timeouts", fmt.Errorf("all stage timeouts must be positive"))
	}
	return nil
}

func (v *Validator) validateQueue() error {
	q := v.cfg.Queue
	if q.WorkerPoolSize <= 0 {
		return NewValidationError("queue", "worker_pool_size", fmt.Errorf("must be positive"))
	}
	if q.JobTimeout <= 0 || q.SearchTimeout <= 0 || q.LockTTL <= 0 {
		return NewValidationError("queue", "timeouts", fmt.Errorf("job_timeout, search_timeout and lock_ttl must be positive"))
	}
	if q.SearchTimeout >= q.JobTimeout {
		return NewValidationError("queue", "search_timeout", fmt.Errorf("must be less than job_timeout"))
	}
	return nil
}
