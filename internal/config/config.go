package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"go.uber.org/zap"
)

// EnvPrefix is prepended to every environment variable the exporter reads.
// Nesting uses a double underscore, e.g. DASHBOARD_EXPORTER__WEBHOOK__SECRET.
const EnvPrefix = "DASHBOARD_EXPORTER__"

type Config struct {
	API        APIConfig        `envPrefix:"API__"`
	Tiers      TierConfig       `envPrefix:"TIERS__"`
	Collectors CollectorConfig  `envPrefix:"COLLECTORS__"`
	Cache      CacheConfig      `envPrefix:"CACHE__"`
	Webhook    WebhookConfig    `envPrefix:"WEBHOOK__"`
	Server     ServerConfig     `envPrefix:"SERVER__"`
	Logging    LoggingConfig    `envPrefix:"LOGGING__"`
	Trace      TraceConfig      `envPrefix:"TRACE__"`
}

type APIConfig struct {
	Key           string        `env:"KEY"`
	BaseURL       string        `env:"BASE_URL" envDefault:"https://api.meraki.com/api/v1"`
	OrgID         string        `env:"ORG_ID"`
	Timeout       time.Duration `env:"TIMEOUT" envDefault:"30s"`
	MaxConcurrent int64         `env:"MAX_CONCURRENT" envDefault:"5"`
	MaxRetries    int           `env:"MAX_RETRIES" envDefault:"3"`
}

type TierConfig struct {
	Fast   time.Duration `env:"FAST" envDefault:"60s"`
	Medium time.Duration `env:"MEDIUM" envDefault:"300s"`
	Slow   time.Duration `env:"SLOW" envDefault:"900s"`

	// CollectorTimeout is a soft ceiling for one collection pass. It has to
	// be generous enough for a full paginated fetch.
	CollectorTimeout time.Duration `env:"COLLECTOR_TIMEOUT" envDefault:"120s"`
}

type CollectorConfig struct {
	Org      bool `env:"ORG" envDefault:"true"`
	Devices  bool `env:"DEVICES" envDefault:"true"`
	Networks bool `env:"NETWORKS" envDefault:"true"`
	Wireless bool `env:"WIRELESS" envDefault:"true"`
	Sensors  bool `env:"SENSORS" envDefault:"true"`
}

type CacheConfig struct {
	ClientTTL    time.Duration `env:"CLIENT_TTL" envDefault:"1h"`
	DiscoveryTTL time.Duration `env:"DISCOVERY_TTL" envDefault:"30m"`
}

type WebhookConfig struct {
	Enabled       bool   `env:"ENABLED" envDefault:"false"`
	Secret        string `env:"SECRET"`
	RequireSecret bool   `env:"REQUIRE_SECRET" envDefault:"true"`
	MaxBodyBytes  int64  `env:"MAX_BODY_BYTES" envDefault:"1048576"`
}

type ServerConfig struct {
	ListenAddr string `env:"LISTEN_ADDR" envDefault:":9099"`
	HealthAddr string `env:"HEALTH_ADDR" envDefault:":8086"`
}

type LoggingConfig struct {
	Level string `env:"LEVEL" envDefault:"PRODUCTION"`
}

type TraceConfig struct {
	Enabled bool   `env:"ENABLED" envDefault:"false"`
	Hz      int    `env:"HZ" envDefault:"99"`
	Addr    string `env:"ADDR" envDefault:":1337"`
}

// Load reads the configuration from the environment and validates it.
func Load() (Config, error) {
	var cfg Config
	err := env.ParseWithOptions(&cfg, env.Options{Prefix: EnvPrefix})
	if err != nil {
		return Config{}, fmt.Errorf("failed to parse environment: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks invariants that cannot be expressed as struct tags.
// Tier ordering is enforced here, not by the scheduler.
func (c Config) Validate() error {
	if c.API.Key == "" {
		return fmt.Errorf("%sAPI__KEY is required", EnvPrefix)
	}
	if c.API.OrgID == "" {
		return fmt.Errorf("%sAPI__ORG_ID is required", EnvPrefix)
	}
	if c.Tiers.Fast <= 0 || c.Tiers.Medium <= 0 || c.Tiers.Slow <= 0 {
		return fmt.Errorf("tier intervals must be positive, got fast=%s medium=%s slow=%s",
			c.Tiers.Fast, c.Tiers.Medium, c.Tiers.Slow)
	}
	if c.Tiers.Fast > c.Tiers.Medium || c.Tiers.Medium > c.Tiers.Slow {
		return fmt.Errorf("tier intervals must satisfy fast <= medium <= slow, got fast=%s medium=%s slow=%s",
			c.Tiers.Fast, c.Tiers.Medium, c.Tiers.Slow)
	}
	if c.Tiers.Medium%c.Tiers.Fast != 0 {
		zap.S().Warnf("Medium tier interval %s is not a multiple of the fast interval %s, ticks will not align", c.Tiers.Medium, c.Tiers.Fast)
	}
	if c.API.MaxConcurrent <= 0 {
		return fmt.Errorf("API__MAX_CONCURRENT must be positive, got %d", c.API.MaxConcurrent)
	}
	if c.Webhook.Enabled && c.Webhook.RequireSecret && c.Webhook.Secret == "" {
		return fmt.Errorf("WEBHOOK__SECRET is required when the webhook is enabled and REQUIRE_SECRET is set")
	}
	return nil
}
