package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// configuration for the service, loaded from environment variables

type Config struct {
	HTTP      HTTPConfig
	Auth      AuthConfig
	Sink      SinkConfig
	Dispatch  DispatchConfig
	RateLimit RateLimitConfig
	LogLevel  string `env:"LOG_LEVEL" envDefault:"INFO"`
}

type HTTPConfig struct {
	Port           int           `env:"PORT" envDefault:"8080"`
	RequestTimeout time.Duration `env:"REQUEST_TIMEOUT" envDefault:"10s"`
}

type AuthConfig struct {
	APIKey string `env:"API_KEY,required"`
}

type SinkConfig struct {
	// Mode selects the variant explicitly: "kafka" or "memory".
	Mode    string `env:"SINK_MODE" envDefault:"kafka"`
	Brokers string `env:"KAFKA_BROKERS"`
	Topic   string `env:"KAFKA_TOPIC" envDefault:"game-events-stream"`

	// FallbackMemory permits substituting the in-memory sink when the
	// durable one cannot be constructed. Off by default so broken
	// credentials fail startup instead of silently dropping durability.
	FallbackMemory bool `env:"SINK_FALLBACK_MEMORY" envDefault:"false"`

	RetryMaxAttempts int           `env:"RETRY_MAX_ATTEMPTS" envDefault:"1"`
	RetryBaseDelay   time.Duration `env:"RETRY_BASE_DELAY" envDefault:"100ms"`
}

type DispatchConfig struct {
	QueueSize     int `env:"DISPATCH_QUEUE_SIZE" envDefault:"10000"`
	DeadLetterCap int `env:"DEADLETTER_CAP" envDefault:"1000"`
}

type RateLimitConfig struct {
	// RPS is the sustained per-client, per-endpoint rate; Burst the
	// momentary allowance above it.
	RPS   float64 `env:"RATE_LIMIT_RPS" envDefault:"50"`
	Burst int     `env:"RATE_LIMIT_BURST" envDefault:"100"`
}

func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if err := validate(cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func validate(cfg Config) error {
	if cfg.HTTP.Port < 1 || cfg.HTTP.Port > 65535 {
		return fmt.Errorf("PORT must be between 1 and 65535 (got %d)", cfg.HTTP.Port)
	}
	if cfg.HTTP.RequestTimeout <= 0 {
		return fmt.Errorf("REQUEST_TIMEOUT must be > 0 (got %s)", cfg.HTTP.RequestTimeout)
	}

	switch cfg.Sink.Mode {
	case "kafka", "memory":
	default:
		return fmt.Errorf("SINK_MODE must be kafka or memory (got %q)", cfg.Sink.Mode)
	}
	if cfg.Sink.RetryMaxAttempts < 1 {
		return fmt.Errorf("RETRY_MAX_ATTEMPTS must be >= 1 (got %d)", cfg.Sink.RetryMaxAttempts)
	}
	if cfg.Sink.RetryBaseDelay <= 0 {
		return fmt.Errorf("RETRY_BASE_DELAY must be > 0 (got %s)", cfg.Sink.RetryBaseDelay)
	}

	if cfg.Dispatch.QueueSize <= 0 {
		return fmt.Errorf("DISPATCH_QUEUE_SIZE must be > 0 (got %d)", cfg.Dispatch.QueueSize)
	}
	if cfg.Dispatch.DeadLetterCap <= 0 {
		return fmt.Errorf("DEADLETTER_CAP must be > 0 (got %d)", cfg.Dispatch.DeadLetterCap)
	}

	if cfg.RateLimit.RPS <= 0 {
		return fmt.Errorf("RATE_LIMIT_RPS must be > 0 (got %g)", cfg.RateLimit.RPS)
	}
	if cfg.RateLimit.Burst < 1 {
		return fmt.Errorf("RATE_LIMIT_BURST must be >= 1 (got %d)", cfg.RateLimit.Burst)
	}
	return nil
}
