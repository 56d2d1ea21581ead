// Package config loads the intelligence core's versioned TOML
// configuration: a Version field on the root struct is checked against
// CurrentConfigVersion at load time, so a stale config file fails fast
// instead of running against assumptions it no longer satisfies.
package config

import (
	"fmt"

	"github.com/knadh/koanf/parsers/toml/v2"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// CurrentConfigVersion is incremented whenever a breaking change is made
// to the config file's shape. Config files with a mismatched version fail
// to load rather than silently running with stale assumptions.
const CurrentConfigVersion = 1

// Config is the root configuration for the intelligence core.
type Config struct {
	Version   int       `koanf:"version"`
	Postgres  Postgres  `koanf:"postgres"`
	Redis     Redis     `koanf:"redis"`
	Vision    Vision    `koanf:"vision"`
	Generator Generator `koanf:"generator"`
	Pipeline  Pipeline  `koanf:"pipeline"`
	Prompt    Prompt    `koanf:"prompt"`
	Logging   Logging   `koanf:"logging"`
}

// Postgres holds the connection settings for the bun/pgdriver client.
type Postgres struct {
	Host     string `koanf:"host"`
	Port     int    `koanf:"port"`
	Database string `koanf:"database"`
	Username string `koanf:"username"`
	Password string `koanf:"password"`
	MaxConns int    `koanf:"max_conns"`
}

// Redis holds the connection settings shared by every database-index
// client the redis.Manager lazily creates.
type Redis struct {
	Host     string `koanf:"host"`
	Port     int    `koanf:"port"`
	Username string `koanf:"username"`
	Password string `koanf:"password"`
}

// Vision holds the OpenAI-compatible vision adapter's settings.
type Vision struct {
	BaseURL        string `koanf:"base_url"`
	APIKey         string `koanf:"api_key"`
	Model          string `koanf:"model"`
	MaxConcurrency int64  `koanf:"max_concurrency"`
	TimeoutSeconds int    `koanf:"timeout_seconds"`
}

// Generator holds the generator adapter's default provider settings.
type Generator struct {
	Provider       string `koanf:"provider"`
	TimeoutSeconds int    `koanf:"timeout_seconds"`
}

// Pipeline holds the descriptor extractor's concurrency and retry knobs.
type Pipeline struct {
	ImageConcurrency  int     `koanf:"image_concurrency"`
	ConfidenceFloor   float64 `koanf:"confidence_floor"`
	CompletenessFloor float64 `koanf:"completeness_floor"`
}

// Prompt holds the Prompt Builder's cache and brand-DNA defaults.
type Prompt struct {
	CacheCapacity           int     `koanf:"cache_capacity"`
	CacheTTLSeconds         int     `koanf:"cache_ttl_seconds"`
	DefaultBrandDNAStrength float64 `koanf:"default_brand_dna_strength"`
}

// Logging holds the session-rotated file logger's settings.
type Logging struct {
	Directory         string `koanf:"directory"`
	Level             string `koanf:"level"`
	MaxSessionsToKeep int    `koanf:"max_sessions_to_keep"`
}

// Load reads and parses the TOML config file at path, returning an error
// if the file's declared version does not match CurrentConfigVersion.
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(file.Provider(path), toml.Parser()); err != nil {
		return nil, fmt.Errorf("load config file %s: %w", path, err)
	}

	cfg := defaultConfig()
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if cfg.Version != CurrentConfigVersion {
		return nil, fmt.Errorf(
			"config version mismatch: file declares version %d, this build expects version %d; "+
				"update config.toml to match the current schema",
			cfg.Version, CurrentConfigVersion,
		)
	}

	return cfg, nil
}

func defaultConfig() *Config {
	return &Config{
		Version: CurrentConfigVersion,
		Postgres: Postgres{
			Port:     5432,
			MaxConns: 10,
		},
		Redis: Redis{
			Port: 6379,
		},
		Vision: Vision{
			Model:          "gpt-4o",
			MaxConcurrency: 3,
			TimeoutSeconds: 60,
		},
		Generator: Generator{
			TimeoutSeconds: 180,
		},
		Pipeline: Pipeline{
			ImageConcurrency:  3,
			ConfidenceFloor:   0.70,
			CompletenessFloor: 70,
		},
		Prompt: Prompt{
			CacheCapacity:           1024,
			CacheTTLSeconds:         600,
			DefaultBrandDNAStrength: 0.8,
		},
		Logging: Logging{
			Directory:         "logs",
			Level:             "info",
			MaxSessionsToKeep: 10,
		},
	}
}
