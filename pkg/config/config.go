package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App           AppConfig
	Redis         RedisConfig
	Upstream      UpstreamConfig
	Catalog       CatalogConfig
	Terminal      TerminalConfig
	History       HistoryConfig
	AuthRateLimit AuthRateLimitConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.Upstream.validate(); err != nil {
		return nil, err
	}
	if cfg.History.DefaultLimit > cfg.History.MaxLimit {
		return nil, fmt.Errorf("%s must not exceed %s", EnvHistoryDefaultLimit, EnvHistoryMaxLimit)
	}
	if _, err := cfg.App.Location(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env             string        `envconfig:"PDV_APP_ENV" required:"true"`
	Port            string        `envconfig:"PDV_APP_PORT" required:"true"`
	LogLevel        string        `envconfig:"PDV_LOG_LEVEL" default:"info"`
	LogWarnStack    bool          `envconfig:"PDV_LOG_WARN_STACK" default:"false"`
	ShutdownTimeout time.Duration `envconfig:"PDV_SHUTDOWN_TIMEOUT" default:"15s"`
	LogFormat       string        `envconfig:"PDV_LOG_FORMAT" default:"json"`
	Timezone        string        `envconfig:"PDV_TIMEZONE" default:"Local"`
	CORSOrigins     []string      `envconfig:"PDV_CORS_ORIGINS"`
}

// Location resolves Timezone. Date presets such as "today" are computed in it.
func (a AppConfig) Location() (*time.Location, error) {
	name := strings.TrimSpace(a.Timezone)
	if name == "" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("invalid %s %q: %w", EnvTimezone, name, err)
	}
	return loc, nil
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd) || strings.EqualFold(a.Env, "production")
}

type RedisConfig struct {
	URL          string        `envconfig:"PDV_REDIS_URL" required:"true"`
	Address      string        `envconfig:"PDV_REDIS_ADDR"`
	Password     string        `envconfig:"PDV_REDIS_PASSWORD"`
	DB           int           `envconfig:"PDV_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"PDV_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"PDV_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"PDV_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"PDV_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"PDV_REDIS_WRITE_TIMEOUT" default:"5s"`
}

// UpstreamConfig points at the PDV HTTP API that owns products, sales and users.
type UpstreamConfig struct {
	BaseURL         string        `envconfig:"PDV_API_BASE_URL" required:"true"`
	Timeout         time.Duration `envconfig:"PDV_API_TIMEOUT" default:"10s"`
	UserAgent       string        `envconfig:"PDV_API_USER_AGENT" default:"pdv-terminal"`
	BreakerFailures uint32        `envconfig:"PDV_API_BREAKER_FAILURES" default:"5"`
	BreakerCooldown time.Duration `envconfig:"PDV_API_BREAKER_COOLDOWN" default:"30s"`
}

func (u UpstreamConfig) validate() error {
	parsed, err := url.Parse(u.BaseURL)
	if err != nil {
		return fmt.Errorf("invalid %s: %w", EnvAPIBaseURL, err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return fmt.Errorf("%s must be an http(s) url, got %q", EnvAPIBaseURL, u.BaseURL)
	}
	if u.Timeout <= 0 {
		return fmt.Errorf("%s must be positive", EnvAPITimeout)
	}
	return nil
}

type CatalogConfig struct {
	LookupCacheTTL time.Duration `envconfig:"PDV_CATALOG_LOOKUP_CACHE_TTL" default:"2m"`
}

type TerminalConfig struct {
	SessionIdleTTL time.Duration `envconfig:"PDV_TERMINAL_SESSION_IDLE_TTL" default:"8h"`
	SweepInterval  time.Duration `envconfig:"PDV_TERMINAL_SWEEP_INTERVAL" default:"5m"`
	IdempotencyTTL time.Duration `envconfig:"PDV_TERMINAL_IDEMPOTENCY_TTL" default:"168h"`
}

type HistoryConfig struct {
	DefaultLimit int `envconfig:"PDV_HISTORY_DEFAULT_LIMIT" default:"20"`
	MaxLimit     int `envconfig:"PDV_HISTORY_MAX_LIMIT" default:"500"`
	ClientsLimit int `envconfig:"PDV_CLIENTS_LIMIT" default:"50"`
}

type AuthRateLimitConfig struct {
	LoginWindow        time.Duration `envconfig:"PDV_LOGIN_RATE_WINDOW" default:"1m"`
	LoginIPLimit       int           `envconfig:"PDV_LOGIN_RATE_IP_LIMIT" default:"20"`
	LoginUsernameLimit int           `envconfig:"PDV_LOGIN_RATE_USERNAME_LIMIT" default:"5"`
}
