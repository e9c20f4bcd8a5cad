package config

import (
	"context"
	"fmt"
	"time"

	"github.com/sethvargo/go-envconfig"
)

type Config struct {
	Port      string `env:"PORT,      default=8080"`
	Env       string `env:"ENV,       default=development"`
	JWTSecret string `env:"JWT_SECRET"`
	LogLevel  string `env:"LOG_LEVEL, default=info"`

	Mongo    MongoConfig
	Redis    RedisConfig
	Dispatch DispatchConfig
	Signals  SignalConfig
}

type MongoConfig struct {
	URI      string `env:"MONGO_URI, default=mongodb://localhost:27017"`
	Database string `env:"MONGO_DB,  default=event_pickup"`
}

// RedisConfig is optional: with an empty Addr the service runs without the
// cluster-wide dispatch lock, notification dedup and pub/sub delivery.
type RedisConfig struct {
	Addr string `env:"REDIS_ADDR"`
	DB   int    `env:"REDIS_DB, default=0"`
}

type DispatchConfig struct {
	AverageSpeedKmh     float64       `env:"DISPATCH_AVERAGE_SPEED_KMH,  default=30"`
	NotifyTimeout       time.Duration `env:"DISPATCH_NOTIFY_TIMEOUT,     default=5s"`
	NotifyConcurrency   int           `env:"DISPATCH_NOTIFY_CONCURRENCY, default=8"`
	LockTTL             time.Duration `env:"DISPATCH_LOCK_TTL,           default=30s"`
	NotifyChannelPrefix string        `env:"NOTIFY_CHANNEL_PREFIX,       default=pickup:notifications"`
}

type SignalConfig struct {
	Workers int `env:"SIGNAL_WORKERS, default=8"`
}

// Load reads configuration from the process environment.
func Load(ctx context.Context) (*Config, error) {
	return LoadWith(ctx, envconfig.OsLookuper())
}

// LoadWith reads configuration from l. Tests pass an envconfig.MapLookuper.
func LoadWith(ctx context.Context, l envconfig.Lookuper) (*Config, error) {
	var cfg Config
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{Target: &cfg, Lookuper: l}); err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if cfg.Dispatch.NotifyConcurrency <= 0 {
		return nil, fmt.Errorf("load config: DISPATCH_NOTIFY_CONCURRENCY must be positive, got %d", cfg.Dispatch.NotifyConcurrency)
	}
	if cfg.Signals.Workers <= 0 {
		return nil, fmt.Errorf("load config: SIGNAL_WORKERS must be positive, got %d", cfg.Signals.Workers)
	}
	return &cfg, nil
}

// RedisEnabled reports whether a Redis address was configured.
func (c *Config) RedisEnabled() bool {
	return c.Redis.Addr != ""
}
