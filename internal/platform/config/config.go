package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	env "github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"

	pkgstrings "activityboard/pkg/platform/strings"
)

// Store backends.
const (
	BackendMemory   = "memory"
	BackendRedis    = "redis"
	BackendPostgres = "postgres"
)

// Server captures HTTP server level configuration.
type Server struct {
	Addr            string        `env:"ACTIVITY_ADDR"    envDefault:":8000"`
	RequestTimeout  time.Duration `env:"REQUEST_TIMEOUT"  envDefault:"30s"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"10s"`
	StaticDir       string        `env:"STATIC_DIR"       envDefault:"static"`

	Log      LogConfig
	Store    StoreConfig
	Redis    RedisConfig    `envPrefix:"REDIS_"`
	Postgres PostgresConfig `envPrefix:"DATABASE_"`
	Audit    AuditConfig    `envPrefix:"AUDIT_"`
}

// LogConfig selects the slog handler.
type LogConfig struct {
	Level  string `env:"LOG_LEVEL"  envDefault:"info"`
	Format string `env:"LOG_FORMAT" envDefault:"json"`
}

// StoreConfig selects where activity state lives.
type StoreConfig struct {
	Backend  string `env:"STORE_BACKEND" envDefault:"memory"`
	SeedFile string `env:"SEED_FILE"`
}

// RedisConfig configures the Redis activity store.
type RedisConfig struct {
	URL          string        `env:"URL"`
	PoolSize     int           `env:"POOL_SIZE"      envDefault:"10"`
	MinIdleConns int           `env:"MIN_IDLE_CONNS" envDefault:"2"`
	DialTimeout  time.Duration `env:"DIAL_TIMEOUT"   envDefault:"5s"`
	ReadTimeout  time.Duration `env:"READ_TIMEOUT"   envDefault:"3s"`
	WriteTimeout time.Duration `env:"WRITE_TIMEOUT"  envDefault:"3s"`
}

// PostgresConfig configures the Postgres activity store.
type PostgresConfig struct {
	URL             string        `env:"URL"`
	MaxOpenConns    int           `env:"MAX_OPEN_CONNS"    envDefault:"10"`
	MaxIdleConns    int           `env:"MAX_IDLE_CONNS"    envDefault:"5"`
	ConnMaxLifetime time.Duration `env:"CONN_MAX_LIFETIME" envDefault:"30m"`
}

// AuditConfig configures where signup audit events go. Without brokers events
// are written to the log.
type AuditConfig struct {
	KafkaBrokersRaw string        `env:"KAFKA_BROKERS"`
	KafkaTopic      string        `env:"KAFKA_TOPIC" envDefault:"activity.audit"`
	ProduceTimeout  time.Duration `env:"PRODUCE_TIMEOUT" envDefault:"2s"`

	BreakerThreshold int           `env:"BREAKER_THRESHOLD" envDefault:"5"`
	BreakerCooldown  time.Duration `env:"BREAKER_COOLDOWN"  envDefault:"30s"`
}

// KafkaBrokers returns the configured broker list.
func (a AuditConfig) KafkaBrokers() []string {
	return pkgstrings.SplitList(a.KafkaBrokersRaw)
}

// FromEnv loads an optional .env file and builds a Server config from
// environment variables.
func FromEnv() (Server, error) {
	if path := os.Getenv("ENV_FILE"); path != "" {
		if err := godotenv.Load(path); err != nil {
			return Server{}, fmt.Errorf("load env file %s: %w", path, err)
		}
	} else {
		// .env is optional in development.
		_ = godotenv.Load()
	}

	var cfg Server
	if err := env.Parse(&cfg); err != nil {
		return Server{}, fmt.Errorf("parse environment: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Server{}, err
	}
	return cfg, nil
}

// Validate rejects configurations the server cannot start with.
func (c Server) Validate() error {
	switch c.Store.Backend {
	case BackendMemory:
	case BackendRedis:
		if c.Redis.URL == "" {
			return errors.New("REDIS_URL is required when STORE_BACKEND=redis")
		}
	case BackendPostgres:
		if c.Postgres.URL == "" {
			return errors.New("DATABASE_URL is required when STORE_BACKEND=postgres")
		}
	default:
		return fmt.Errorf("unknown STORE_BACKEND %q", c.Store.Backend)
	}
	if c.RequestTimeout <= 0 {
		return errors.New("REQUEST_TIMEOUT must be positive")
	}
	return nil
}
