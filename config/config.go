package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Env string

const (
	Dev        Env = "development"
	Test       Env = "test"
	Preview    Env = "preview"
	Production Env = "production"
)

type RabbitMQConfig struct {
	URL             string
	Exchange        string
	Queue           string
	RoutingKey      string
	Prefetch        int
	DeclareTopology bool
}

type TursoConfig struct {
	DSN   string
	Path  string
	Token string
}

type InngestConfig struct {
	AppID      string
	SigningKey string
	ServeHost  string
	ServePath  string
	Dev        string
}

// GateConfig holds the validation-gate tunables: per-identity rate
// limits, verdict cache TTL, and the outbound HTTP behavior shared by
// the URL normalizer and validator.
type GateConfig struct {
	RateLimitMaxCalls int
	RateLimitPeriod   time.Duration
	CacheTTL          time.Duration
	HTTPTimeout       time.Duration
	MaxRedirects      int
	UserAgent         string
}

type Config struct {
	AppName string
	ENV     Env
	AppPort int

	LogLevel string

	// Postgres events store (optional; enabled only when DBHost + DBName are set).
	DBUser     string
	DBPassword string
	DBHost     string
	DBPort     int
	DBName     string

	// Redis verdict cache (optional; enabled only when RedisHost is set).
	RedisUser     string
	RedisPassword string
	RedisHost     string
	RedisPort     int
	RedisScheme   string

	RabbitMQ RabbitMQConfig
	Turso    TursoConfig
	Inngest  InngestConfig
	Gate     GateConfig
}

func NewViper() *viper.Viper {
	v := viper.New()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("APP_NAME", "tokenhunter-event-gate")
	v.SetDefault("APP_ENV", "development")
	v.SetDefault("APP_PORT", 8080)
	v.SetDefault("LOG_LEVEL", "info")

	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_SCHEME", "redis")

	v.SetDefault("RABBITMQ_EXCHANGE", "events")
	v.SetDefault("RABBITMQ_QUEUE", "gate.event.scraped.v1")
	v.SetDefault("RABBITMQ_ROUTING_KEY", "gate.event.scraped.v1")
	v.SetDefault("RABBITMQ_PREFETCH", 1)
	v.SetDefault("RABBITMQ_DECLARE_TOPOLOGY", true)

	v.SetDefault("INNGEST_SERVE_PATH", "/api/inngest")

	v.SetDefault("GATE_RATE_LIMIT_MAX_CALLS", 100)
	v.SetDefault("GATE_RATE_LIMIT_PERIOD_SECONDS", 3600)
	v.SetDefault("GATE_CACHE_TTL_SECONDS", 3600)
	v.SetDefault("GATE_HTTP_TIMEOUT_SECONDS", 10)
	v.SetDefault("GATE_MAX_REDIRECTS", 10)
	v.SetDefault("GATE_USER_AGENT", "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36")

	return v
}

func NewConfig(v *viper.Viper) (*Config, error) {
	cfg := &Config{
		AppName: v.GetString("APP_NAME"),
		ENV:     envFromString(v.GetString("APP_ENV")),
		AppPort: v.GetInt("APP_PORT"),

		LogLevel: v.GetString("LOG_LEVEL"),

		DBUser:     v.GetString("DB_USER"),
		DBPassword: v.GetString("DB_PASSWORD"),
		DBHost:     v.GetString("DB_HOST"),
		DBPort:     v.GetInt("DB_PORT"),
		DBName:     v.GetString("DB_NAME"),

		RedisUser:     v.GetString("REDIS_USER"),
		RedisPassword: v.GetString("REDIS_PASSWORD"),
		RedisHost:     v.GetString("REDIS_HOST"),
		RedisPort:     v.GetInt("REDIS_PORT"),
		RedisScheme:   v.GetString("REDIS_SCHEME"),

		RabbitMQ: RabbitMQConfig{
			URL:             v.GetString("RABBITMQ_URL"),
			Exchange:        v.GetString("RABBITMQ_EXCHANGE"),
			Queue:           v.GetString("RABBITMQ_QUEUE"),
			RoutingKey:      v.GetString("RABBITMQ_ROUTING_KEY"),
			Prefetch:        v.GetInt("RABBITMQ_PREFETCH"),
			DeclareTopology: v.GetBool("RABBITMQ_DECLARE_TOPOLOGY"),
		},

		Turso: TursoConfig{
			DSN:   v.GetString("TURSO_SQLITE_DSN"),
			Path:  v.GetString("TURSO_SQLITE_PATH"),
			Token: v.GetString("TURSO_SQLITE_TOKEN"),
		},

		Inngest: InngestConfig{
			AppID:      v.GetString("INNGEST_APP_ID"),
			SigningKey: v.GetString("INNGEST_SIGNING_KEY"),
			ServeHost:  v.GetString("INNGEST_SERVE_HOST"),
			ServePath:  v.GetString("INNGEST_SERVE_PATH"),
			Dev:        v.GetString("INNGEST_DEV"),
		},

		Gate: GateConfig{
			RateLimitMaxCalls: v.GetInt("GATE_RATE_LIMIT_MAX_CALLS"),
			RateLimitPeriod:   time.Duration(v.GetInt("GATE_RATE_LIMIT_PERIOD_SECONDS")) * time.Second,
			CacheTTL:          time.Duration(v.GetInt("GATE_CACHE_TTL_SECONDS")) * time.Second,
			HTTPTimeout:       time.Duration(v.GetInt("GATE_HTTP_TIMEOUT_SECONDS")) * time.Second,
			MaxRedirects:      v.GetInt("GATE_MAX_REDIRECTS"),
			UserAgent:         v.GetString("GATE_USER_AGENT"),
		},
	}

	if cfg.AppPort <= 0 || cfg.AppPort > 65535 {
		return nil, fmt.Errorf("invalid APP_PORT %d", cfg.AppPort)
	}
	if cfg.DBPort <= 0 || cfg.DBPort > 65535 {
		return nil, fmt.Errorf("invalid DB_PORT %d", cfg.DBPort)
	}
	if cfg.RedisPort <= 0 || cfg.RedisPort > 65535 {
		return nil, fmt.Errorf("invalid REDIS_PORT %d", cfg.RedisPort)
	}
	if cfg.Gate.RateLimitMaxCalls <= 0 {
		return nil, fmt.Errorf("invalid GATE_RATE_LIMIT_MAX_CALLS %d", cfg.Gate.RateLimitMaxCalls)
	}
	if cfg.Gate.RateLimitPeriod <= 0 {
		return nil, fmt.Errorf("invalid GATE_RATE_LIMIT_PERIOD_SECONDS %s", cfg.Gate.RateLimitPeriod)
	}
	if cfg.Gate.MaxRedirects <= 0 {
		return nil, fmt.Errorf("invalid GATE_MAX_REDIRECTS %d", cfg.Gate.MaxRedirects)
	}

	return cfg, nil
}

func envFromString(raw string) Env {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "test":
		return Test
	case "preview":
		return Preview
	case "production", "prod":
		return Production
	default:
		return Dev
	}
}
