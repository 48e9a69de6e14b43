package config

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"dario.cat/mergo"
	"gopkg.in/yaml.v3"
)

// Initialize loads, merges, and validates configuration from configDir,
// mirroring the teacher's config.Initialize entry point: load YAML, expand
// env vars, merge user overrides onto built-in defaults, validate, return.
func Initialize(_ context.Context, configDir string) (*Config, error) {
	log := slog.With("config_dir", configDir)
	log.Info("initializing configuration")

	cfg, err := load(configDir)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	if err := NewValidator(cfg).ValidateAll(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	log.Info("configuration initialized",
		"listen_addr", cfg.Server.ListenAddr,
		"enrichment_providers", len(cfg.Providers.Enrichment))
	return cfg, nil
}

func load(configDir string) (*Config, error) {
	doc, err := loadYAML(configDir, "search.yaml")
	if err != nil {
		return nil, NewLoadError("search.yaml", err)
	}

	cfg := DefaultConfig()
	if err := mergeDoc(cfg, doc); err != nil {
		return nil, fmt.Errorf("failed to merge configuration: %w", err)
	}
	return cfg, nil
}

func loadYAML(configDir, filename string) (*yamlDoc, error) {
	path := filepath.Join(configDir, filename)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			// Absence of a user config file is not fatal — built-in
			// defaults are a valid configuration on their own.
			return &yamlDoc{}, nil
		}
		return nil, err
	}

	data = ExpandEnv(data)

	var doc yamlDoc
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidYAML, err)
	}
	return &doc, nil
}

// mergeDoc merges each present section of the user document onto the
// built-in defaults, using mergo.WithOverride exactly as the teacher's
// loader does for its QueueConfig section, generalized to every section.
func mergeDoc(cfg *Config, doc *yamlDoc) error {
	if doc.Server != nil {
		if err := mergo.Merge(&cfg.Server, doc.Server, mergo.WithOverride); err != nil {
			return err
		}
	}
	if doc.Postgres != nil {
		if err := mergo.Merge(&cfg.Postgres, doc.Postgres, mergo.WithOverride); err != nil {
			return err
		}
	}
	if doc.Redis != nil {
		if err := mergo.Merge(&cfg.Redis, doc.Redis, mergo.WithOverride); err != nil {
			return err
		}
	}
	if doc.LLM != nil {
		if err := mergo.Merge(&cfg.LLM, doc.LLM, mergo.WithOverride); err != nil {
			return err
		}
	}
	if doc.Providers != nil {
		if err := mergo.Merge(&cfg.Providers, doc.Providers, mergo.WithOverride, mergo.WithAppendSlice); err != nil {
			return err
		}
	}
	if doc.Queue != nil {
		if err := mergo.Merge(&cfg.Queue, doc.Queue, mergo.WithOverride); err != nil {
			return err
		}
	}
	if doc.Retention != nil {
		if err := mergo.Merge(&cfg.Retention, doc.Retention, mergo.WithOverride); err != nil {
			return err
		}
	}
	if doc.Features != nil {
		if err := mergo.Merge(&cfg.Features, doc.Features, mergo.WithOverride); err != nil {
			return err
		}
	}
	return nil
}
