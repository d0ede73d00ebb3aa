package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

type Config struct {
	Version     string `koanf:"version"`
	Environment string `koanf:"environment"`
	LogLevel    string `koanf:"log_level"`

	Server   ServerConfig   `koanf:"server"`
	Database DatabaseConfig `koanf:"database"`
	Redis    RedisConfig    `koanf:"redis"`

	Scoring   ScoringConfig   `koanf:"scoring"`
	Security  SecurityConfig  `koanf:"security"`
	Telemetry TelemetryConfig `koanf:"telemetry"`
}

type ServerConfig struct {
	Port            int           `koanf:"port"`
	ReadTimeout     time.Duration `koanf:"read_timeout"`
	WriteTimeout    time.Duration `koanf:"write_timeout"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
}

type DatabaseConfig struct {
	URL             string        `koanf:"url"`
	MaxOpenConns    int           `koanf:"max_open_conns"`
	MaxIdleConns    int           `koanf:"max_idle_conns"`
	ConnMaxLifetime time.Duration `koanf:"conn_max_lifetime"`
}

type RedisConfig struct {
	URL      string `koanf:"url"`
	Password string `koanf:"password"`
	DB       int    `koanf:"db"`
}

// ScoringConfig tunes the analysis pipeline without touching the rule
// scores themselves.
type ScoringConfig struct {
	HistoryListLimit int           `koanf:"history_list_limit"`
	CacheTTL         time.Duration `koanf:"cache_ttl"`
}

type SecurityConfig struct {
	JWTSecret   string          `koanf:"jwt_secret"`
	TokenExpiry time.Duration   `koanf:"token_expiry"`
	RateLimit   RateLimitConfig `koanf:"rate_limit"`
}

type RateLimitConfig struct {
	RequestsPerMinute int `koanf:"requests_per_minute"`
}

type TelemetryConfig struct {
	OTLPEndpoint  string  `koanf:"otlp_endpoint"`
	MetricsAddr   string  `koanf:"metrics_addr"`
	SampleRate    float64 `koanf:"sample_rate"`
	EnableMetrics bool    `koanf:"enable_metrics"`
	EnableTracing bool    `koanf:"enable_tracing"`
}

func Load() (*Config, error) {
	k := koanf.New(".")

	// Load defaults
	defaults := &Config{
		Version:     "dev",
		Environment: "development",
		LogLevel:    "info",
		Server: ServerConfig{
			Port:            8080,
			ReadTimeout:     30 * time.Second,
			WriteTimeout:    30 * time.Second,
			ShutdownTimeout: 30 * time.Second,
		},
		Database: DatabaseConfig{
			MaxOpenConns:    25,
			MaxIdleConns:    5,
			ConnMaxLifetime: 5 * time.Minute,
		},
		Redis: RedisConfig{
			DB: 0,
		},
		Scoring: ScoringConfig{
			HistoryListLimit: 50,
			CacheTTL:         10 * time.Minute,
		},
		Security: SecurityConfig{
			TokenExpiry: 24 * time.Hour,
			RateLimit: RateLimitConfig{
				RequestsPerMinute: 120,
			},
		},
		Telemetry: TelemetryConfig{
			OTLPEndpoint:  "localhost:4317",
			MetricsAddr:   ":9090",
			SampleRate:    0.1,
			EnableMetrics: true,
			EnableTracing: true,
		},
	}

	if err := k.Load(structs.Provider(defaults, "koanf"), nil); err != nil {
		return nil, fmt.Errorf("loading defaults: %w", err)
	}

	// Config file is optional; environment variables win either way.
	_ = k.Load(file.Provider("configs/config.yaml"), yaml.Parser())

	// Double underscore separates nesting levels so keys that contain
	// underscores (jwt_secret, read_timeout) survive the mapping.
	if err := k.Load(env.Provider("CARDGUARD_", ".", func(s string) string {
		return strings.Replace(strings.ToLower(
			strings.TrimPrefix(s, "CARDGUARD_")), "__", ".", -1)
	}), nil); err != nil {
		return nil, fmt.Errorf("loading environment variables: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	return &cfg, nil
}
