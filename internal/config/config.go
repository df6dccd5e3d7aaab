package config

import (
	"fmt"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

type Config struct {
	Env     string  `yaml:"env" env:"APP_ENV" env-default:"development"`
	HTTP    HTTP    `yaml:"http"`
	GRPC    GRPC    `yaml:"grpc"`
	Store   Store   `yaml:"store"`
	Redis   Redis   `yaml:"redis"`
	Cache   Cache   `yaml:"cache"`
	Auth    Auth    `yaml:"auth"`
	Kafka   Kafka   `yaml:"kafka"`
	Events  Events  `yaml:"events"`
	Tracing Tracing `yaml:"tracing"`
}

type HTTP struct {
	Address         string        `yaml:"address"          env:"HTTP_ADDR"             env-default:":8080"`
	ReadTimeout     time.Duration `yaml:"read_timeout"     env:"HTTP_READ_TIMEOUT"     env-default:"10s"`
	WriteTimeout    time.Duration `yaml:"write_timeout"    env:"HTTP_WRITE_TIMEOUT"    env-default:"10s"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" env:"HTTP_SHUTDOWN_TIMEOUT" env-default:"5s"`
}

type GRPC struct {
	Address        string        `yaml:"address"         env:"GRPC_ADDR"            env-default:":50051"`
	HealthInterval time.Duration `yaml:"health_interval" env:"GRPC_HEALTH_INTERVAL" env-default:"10s"`
}

type Store struct {
	// Driver is "mysql" or "memory".
	Driver          string        `yaml:"driver"            env:"STORE_DRIVER"             env-default:"mysql"`
	DSN             string        `yaml:"dsn"               env:"MYSQL_DSN"                env-default:"root:root@tcp(localhost:3306)/logitrack?parseTime=true"`
	MaxOpenConns    int           `yaml:"max_open_conns"    env:"MYSQL_MAX_OPEN_CONNS"     env-default:"50"`
	MaxIdleConns    int           `yaml:"max_idle_conns"    env:"MYSQL_MAX_IDLE_CONNS"     env-default:"25"`
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime" env:"MYSQL_CONN_MAX_LIFETIME"  env-default:"5m"`
	Migrate         bool          `yaml:"migrate"           env:"STORE_MIGRATE"            env-default:"true"`
	Seed            bool          `yaml:"seed"              env:"STORE_SEED"               env-default:"true"`
}

type Redis struct {
	// Empty address keeps idempotency keys in process.
	Address  string `yaml:"address"   env:"REDIS_ADDR"`
	Password string `yaml:"password"  env:"REDIS_PASSWORD"`
	DB       int    `yaml:"db"        env:"REDIS_DB"        env-default:"0"`
	PoolSize int    `yaml:"pool_size" env:"REDIS_POOL_SIZE" env-default:"100"`
}

type Cache struct {
	SlidingWindow time.Duration `yaml:"sliding_window" env:"CACHE_SLIDING_WINDOW" env-default:"30s"`
	AbsoluteTTL   time.Duration `yaml:"absolute_ttl"   env:"CACHE_ABSOLUTE_TTL"   env-default:"5m"`
	// Strategy is "invalidate" or "rehydrate".
	Strategy string `yaml:"strategy" env:"CACHE_STRATEGY" env-default:"invalidate"`
}

type Auth struct {
	Secret   string        `yaml:"secret"    env:"JWT_SECRET"`
	Issuer   string        `yaml:"issuer"    env:"JWT_ISSUER"    env-default:"logitrack"`
	Audience string        `yaml:"audience"  env:"JWT_AUDIENCE"  env-default:"logitrack"`
	TokenTTL time.Duration `yaml:"token_ttl" env:"JWT_TOKEN_TTL" env-default:"2h"`
}

type Kafka struct {
	// No brokers means events are only logged.
	Brokers []string `yaml:"brokers" env:"KAFKA_BROKERS" env-separator:","`
	Topic   string   `yaml:"topic"   env:"KAFKA_TOPIC"   env-default:"logitrack.events"`
}

type Events struct {
	Workers   int `yaml:"workers"    env:"EVENT_WORKERS"    env-default:"4"`
	QueueSize int `yaml:"queue_size" env:"EVENT_QUEUE_SIZE" env-default:"1024"`
}

type Tracing struct {
	// Empty endpoint disables export.
	OTLPEndpoint   string `yaml:"otlp_endpoint"   env:"OTEL_EXPORTER_OTLP_ENDPOINT"`
	Insecure       bool   `yaml:"insecure"        env:"OTEL_EXPORTER_OTLP_INSECURE" env-default:"true"`
	ServiceName    string `yaml:"service_name"    env:"OTEL_SERVICE_NAME"           env-default:"logitrack-oms"`
	ServiceVersion string `yaml:"service_version" env:"SERVICE_VERSION"             env-default:"dev"`
}

// Load reads the YAML file named by CONFIG_PATH when set, environment
// variables otherwise. Environment variables override file values.
func Load() (*Config, error) {
	var cfg Config

	if path := os.Getenv("CONFIG_PATH"); path != "" {
		if _, err := os.Stat(path); err != nil {
			return nil, fmt.Errorf("config file %s: %w", path, err)
		}
		if err := cleanenv.ReadConfig(path, &cfg); err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
	} else if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("read env: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	switch c.Store.Driver {
	case "mysql", "memory":
	default:
		return fmt.Errorf("store.driver must be mysql or memory, got %q", c.Store.Driver)
	}
	switch c.Cache.Strategy {
	case "invalidate", "rehydrate":
	default:
		return fmt.Errorf("cache.strategy must be invalidate or rehydrate, got %q", c.Cache.Strategy)
	}
	if c.Cache.SlidingWindow < 0 || c.Cache.AbsoluteTTL < 0 {
		return fmt.Errorf("cache durations must not be negative")
	}
	if c.GRPC.HealthInterval <= 0 {
		return fmt.Errorf("grpc.health_interval must be positive, got %v", c.GRPC.HealthInterval)
	}
	if c.Auth.Secret == "" {
		return fmt.Errorf("auth.secret (JWT_SECRET) is required")
	}
	return nil
}
