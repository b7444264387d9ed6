package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Sensor feed backends.
const (
	SensorFeedLocal  = "local"
	SensorFeedValkey = "valkey"
)

// Config aggregates runtime configuration used across the service.
type Config struct {
	HTTP          HTTPConfig          `yaml:"http"`
	Auth          AuthConfig          `yaml:"auth"`
	LLM           LLMConfig           `yaml:"llm"`
	Advice        AdviceConfig        `yaml:"advice"`
	Monitor       MonitorConfig       `yaml:"monitor"`
	Notifications NotificationsConfig `yaml:"notifications"`
	Sensor        SensorConfig        `yaml:"sensor"`
	Postgres      PostgresConfig      `yaml:"postgres"`
	Valkey        ValkeyConfig        `yaml:"valkey"`
	Ingest        IngestConfig        `yaml:"ingest"`
}

// HTTPConfig controls server level behavior.
type HTTPConfig struct {
	Address        string          `yaml:"address"`
	ReadTimeout    time.Duration   `yaml:"readTimeout"`
	WriteTimeout   time.Duration   `yaml:"writeTimeout"`
	AllowedOrigins []string        `yaml:"allowedOrigins"`
	RateLimit      RateLimitConfig `yaml:"rateLimit"`
	Retry          RetryConfig     `yaml:"retry"`
}

// RateLimitConfig drives the request limiting middleware.
type RateLimitConfig struct {
	Enabled           bool `yaml:"enabled"`
	RequestsPerMinute int  `yaml:"requestsPerMinute"`
	Burst             int  `yaml:"burst"`
}

// RetryConfig configures best-effort retries for idempotent requests.
type RetryConfig struct {
	Enabled     bool          `yaml:"enabled"`
	MaxAttempts int           `yaml:"maxAttempts"`
	BaseBackoff time.Duration `yaml:"baseBackoff"`
	Exclude     []string      `yaml:"exclude"`
}

// AuthConfig holds JWT settings.
type AuthConfig struct {
	Secret          string        `yaml:"secret"`
	TokenTTL        time.Duration `yaml:"tokenTtl"`
	RefreshTokenTTL time.Duration `yaml:"refreshTokenTtl"`
}

// LLMConfig contains ChatGPT/OpenAI settings. An empty APIKey disables remote calls.
type LLMConfig struct {
	APIKey      string  `yaml:"apiKey"`
	BaseURL     string  `yaml:"baseUrl"`
	Model       string  `yaml:"model"`
	Temperature float32 `yaml:"temperature"`
	MaxTokens   int     `yaml:"maxTokens"`
}

// AdviceConfig controls advice generation and caching.
type AdviceConfig struct {
	Timeout        time.Duration `yaml:"timeout"`
	CacheTTL       time.Duration `yaml:"cacheTtl"`
	CacheSize      int           `yaml:"cacheSize"`
	SummaryPrompt  string        `yaml:"summaryPrompt"`
	SeverityPrompt string        `yaml:"severityPrompt"`
}

// MonitorConfig drives the live risk monitor.
type MonitorConfig struct {
	AutoStart        bool          `yaml:"autoStart"`
	UVDeltaThreshold int           `yaml:"uvDeltaThreshold"`
	RecalcInterval   time.Duration `yaml:"recalcInterval"`
	WriteConcurrency int           `yaml:"writeConcurrency"`
	WriteTimeout     time.Duration `yaml:"writeTimeout"`
}

// NotificationsConfig controls notification gates and server-side delivery.
type NotificationsConfig struct {
	UVThreshold   int    `yaml:"uvThreshold"`
	ServerSession bool   `yaml:"serverSession"`
	OutboxKey     string `yaml:"outboxKey"`
	OutboxLength  int64  `yaml:"outboxLength"`
}

// SensorConfig selects the feed backend and the optional public UV poller.
type SensorConfig struct {
	Feed   string       `yaml:"feed"`
	Prefix string       `yaml:"prefix"`
	Poller PollerConfig `yaml:"poller"`
}

// PollerConfig controls the data.gov.sg UV poller.
type PollerConfig struct {
	Enabled    bool          `yaml:"enabled"`
	APIBaseURL string        `yaml:"apiBaseUrl"`
	Interval   time.Duration `yaml:"interval"`
	Scale      float64       `yaml:"scale"`
}

// PostgresConfig contains DSN and pooling settings. An empty DSN selects memory stores.
type PostgresConfig struct {
	DSN         string `yaml:"dsn"`
	MaxConns    int32  `yaml:"maxConns"`
	MinConns    int32  `yaml:"minConns"`
	AutoMigrate bool   `yaml:"autoMigrate"`
}

// ValkeyConfig contains connection information for the shared cache and feed.
type ValkeyConfig struct {
	Enabled bool   `yaml:"enabled"`
	Addr    string `yaml:"addr"`
}

// IngestConfig guards the sensor upload endpoint.
type IngestConfig struct {
	DeviceKey string `yaml:"deviceKey"`
}

// Load reads configuration from a YAML file and environment variables.
func Load() (*Config, error) {
	cfg := defaultConfig()

	if path := os.Getenv("CONFIG_PATH"); path != "" {
		if err := hydrateFromFile(cfg, path); err != nil {
			return nil, err
		}
	} else if _, err := os.Stat("configs/config.yaml"); err == nil {
		if err := hydrateFromFile(cfg, "configs/config.yaml"); err != nil {
			return nil, err
		}
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

func hydrateFromFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config file: %w", err)
	}
	return nil
}

func applyEnvOverrides(cfg *Config) {
	envString("HTTP_ADDRESS", &cfg.HTTP.Address)
	if v := os.Getenv("HTTP_ALLOWED_ORIGINS"); v != "" {
		cfg.HTTP.AllowedOrigins = splitList(v)
	}
	envBool("HTTP_RATE_LIMIT_ENABLED", &cfg.HTTP.RateLimit.Enabled)
	envInt("HTTP_RATE_LIMIT_RPM", &cfg.HTTP.RateLimit.RequestsPerMinute)
	envInt("HTTP_RATE_LIMIT_BURST", &cfg.HTTP.RateLimit.Burst)
	envBool("HTTP_RETRY_ENABLED", &cfg.HTTP.Retry.Enabled)
	envInt("HTTP_RETRY_MAX_ATTEMPTS", &cfg.HTTP.Retry.MaxAttempts)
	envDuration("HTTP_RETRY_BASE_BACKOFF", &cfg.HTTP.Retry.BaseBackoff)

	envString("AUTH_SECRET", &cfg.Auth.Secret)
	envDuration("AUTH_TOKEN_TTL", &cfg.Auth.TokenTTL)
	envDuration("AUTH_REFRESH_TOKEN_TTL", &cfg.Auth.RefreshTokenTTL)

	envString("LLM_API_KEY", &cfg.LLM.APIKey)
	envString("LLM_BASE_URL", &cfg.LLM.BaseURL)
	envString("LLM_MODEL", &cfg.LLM.Model)
	if v := os.Getenv("LLM_TEMPERATURE"); v != "" {
		if parsed, err := strconv.ParseFloat(v, 32); err == nil {
			cfg.LLM.Temperature = float32(parsed)
		}
	}
	envInt("LLM_MAX_TOKENS", &cfg.LLM.MaxTokens)

	envDuration("ADVICE_TIMEOUT", &cfg.Advice.Timeout)
	envDuration("ADVICE_CACHE_TTL", &cfg.Advice.CacheTTL)
	envInt("ADVICE_CACHE_SIZE", &cfg.Advice.CacheSize)

	envBool("MONITOR_AUTO_START", &cfg.Monitor.AutoStart)
	envInt("MONITOR_UV_DELTA_THRESHOLD", &cfg.Monitor.UVDeltaThreshold)
	envDuration("MONITOR_RECALC_INTERVAL", &cfg.Monitor.RecalcInterval)
	envInt("MONITOR_WRITE_CONCURRENCY", &cfg.Monitor.WriteConcurrency)
	envDuration("MONITOR_WRITE_TIMEOUT", &cfg.Monitor.WriteTimeout)

	envInt("NOTIFY_UV_THRESHOLD", &cfg.Notifications.UVThreshold)
	envBool("NOTIFY_SERVER_SESSION", &cfg.Notifications.ServerSession)
	envString("NOTIFY_OUTBOX_KEY", &cfg.Notifications.OutboxKey)

	envString("SENSOR_FEED", &cfg.Sensor.Feed)
	envString("SENSOR_PREFIX", &cfg.Sensor.Prefix)
	envBool("SENSOR_POLLER_ENABLED", &cfg.Sensor.Poller.Enabled)
	envString("UV_API_BASE_URL", &cfg.Sensor.Poller.APIBaseURL)
	envDuration("SENSOR_POLLER_INTERVAL", &cfg.Sensor.Poller.Interval)
	if v := os.Getenv("SENSOR_POLLER_SCALE"); v != "" {
		if parsed, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.Sensor.Poller.Scale = parsed
		}
	}

	envString("POSTGRES_DSN", &cfg.Postgres.DSN)
	if v := os.Getenv("POSTGRES_MAX_CONNS"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			cfg.Postgres.MaxConns = int32(parsed)
		}
	}
	if v := os.Getenv("POSTGRES_MIN_CONNS"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			cfg.Postgres.MinConns = int32(parsed)
		}
	}
	envBool("POSTGRES_AUTO_MIGRATE", &cfg.Postgres.AutoMigrate)

	envBool("VALKEY_ENABLED", &cfg.Valkey.Enabled)
	envString("VALKEY_ADDR", &cfg.Valkey.Addr)

	envString("INGEST_DEVICE_KEY", &cfg.Ingest.DeviceKey)
}

func envString(key string, dst *string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func envInt(key string, dst *int) {
	if v := os.Getenv(key); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			*dst = parsed
		}
	}
}

func envBool(key string, dst *bool) {
	if v := os.Getenv(key); v != "" {
		*dst = v == "1" || strings.EqualFold(v, "true")
	}
}

func envDuration(key string, dst *time.Duration) {
	if v := os.Getenv(key); v != "" {
		if parsed, err := time.ParseDuration(v); err == nil {
			*dst = parsed
		}
	}
}

func splitList(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func defaultConfig() *Config {
	return &Config{
		HTTP: HTTPConfig{
			Address:        ":8080",
			ReadTimeout:    5 * time.Second,
			WriteTimeout:   35 * time.Second,
			AllowedOrigins: []string{"http://localhost:3000", "http://localhost:5173"},
			RateLimit: RateLimitConfig{
				Enabled:           true,
				RequestsPerMinute: 120,
				Burst:             30,
			},
			Retry: RetryConfig{
				Enabled:     true,
				MaxAttempts: 3,
				BaseBackoff: 150 * time.Millisecond,
				Exclude: []string{
					"/api/v1/sessions/ws",
					"/api/v1/profile/advice",
					"/api/v1/auth/register",
				},
			},
		},
		Auth: AuthConfig{
			Secret:          "suncare-dev-secret",
			TokenTTL:        time.Hour,
			RefreshTokenTTL: 30 * 24 * time.Hour,
		},
		LLM: LLMConfig{
			BaseURL:     "https://api.openai.com/v1",
			Model:       "gpt-4o-mini",
			Temperature: 0.3,
			MaxTokens:   600,
		},
		Advice: AdviceConfig{
			Timeout:   20 * time.Second,
			CacheTTL:  24 * time.Hour,
			CacheSize: 512,
		},
		Monitor: MonitorConfig{
			AutoStart:        true,
			UVDeltaThreshold: 100,
			RecalcInterval:   15 * time.Minute,
			WriteConcurrency: 8,
			WriteTimeout:     5 * time.Second,
		},
		Notifications: NotificationsConfig{
			UVThreshold:   10,
			ServerSession: true,
			OutboxKey:     "suncare:notifications",
			OutboxLength:  1000,
		},
		Sensor: SensorConfig{
			Feed:   SensorFeedLocal,
			Prefix: "suncare:sensor",
			Poller: PollerConfig{
				APIBaseURL: "https://api-open.data.gov.sg/v2/real-time/api/uv",
				Interval:   15 * time.Minute,
				Scale:      15,
			},
		},
		Postgres: PostgresConfig{
			MaxConns: 4,
		},
	}
}

// Validate ensures the configuration is safe to use.
func (c *Config) Validate() error {
	if c.HTTP.Address == "" {
		return errors.New("http.address cannot be empty")
	}
	if strings.TrimSpace(c.Auth.Secret) == "" {
		return errors.New("auth.secret cannot be empty")
	}
	if c.Auth.TokenTTL <= 0 || c.Auth.RefreshTokenTTL <= 0 {
		return errors.New("auth token ttls must be positive")
	}
	if c.Advice.Timeout < 0 {
		return errors.New("advice.timeout cannot be negative")
	}
	if c.Advice.CacheTTL < 0 {
		return errors.New("advice.cacheTtl cannot be negative")
	}
	if c.Monitor.UVDeltaThreshold < 0 {
		return errors.New("monitor.uvDeltaThreshold cannot be negative")
	}
	if c.Monitor.RecalcInterval <= 0 {
		return errors.New("monitor.recalcInterval must be positive")
	}
	if c.Monitor.WriteConcurrency <= 0 {
		return errors.New("monitor.writeConcurrency must be positive")
	}
	if c.Notifications.UVThreshold <= 0 {
		return errors.New("notifications.uvThreshold must be positive")
	}
	switch c.Sensor.Feed {
	case SensorFeedLocal:
	case SensorFeedValkey:
		if !c.Valkey.Enabled {
			return errors.New("sensor.feed valkey requires valkey.enabled")
		}
	default:
		return fmt.Errorf("sensor.feed must be %q or %q", SensorFeedLocal, SensorFeedValkey)
	}
	if c.Sensor.Poller.Enabled {
		if c.Sensor.Poller.APIBaseURL == "" {
			return errors.New("sensor.poller.apiBaseUrl cannot be empty")
		}
		if c.Sensor.Poller.Interval <= 0 || c.Sensor.Poller.Scale <= 0 {
			return errors.New("sensor.poller interval and scale must be positive")
		}
	}
	if c.Valkey.Enabled && strings.TrimSpace(c.Valkey.Addr) == "" {
		return errors.New("valkey.addr cannot be empty when valkey is enabled")
	}
	if c.HTTP.RateLimit.Enabled {
		if c.HTTP.RateLimit.RequestsPerMinute <= 0 {
			return errors.New("http.rateLimit.requestsPerMinute must be positive")
		}
		if c.HTTP.RateLimit.Burst <= 0 {
			return errors.New("http.rateLimit.burst must be positive")
		}
	}
	if c.HTTP.Retry.Enabled {
		if c.HTTP.Retry.MaxAttempts <= 0 {
			return errors.New("http.retry.maxAttempts must be positive")
		}
		if c.HTTP.Retry.BaseBackoff <= 0 {
			return errors.New("http.retry.baseBackoff must be positive")
		}
	}
	return nil
}
