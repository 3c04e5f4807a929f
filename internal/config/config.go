package config

import (
	"errors"
	"fmt"
	"net/url"
	"time"

	pkgconfig "github.com/AnhTuan1407/shopsphere-fe-sub001/pkg/config"
)

// Config holds all configuration for the storefront cart service.
type Config struct {
	Environment string `env:"ENVIRONMENT" envDefault:"development"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`

	// HTTP server
	HTTPPort              int      `env:"STOREFRONT_HTTP_PORT" envDefault:"8010"`
	RequestTimeoutSeconds int      `env:"REQUEST_TIMEOUT_SECONDS" envDefault:"30"`
	CORSAllowedOrigins    []string `env:"CORS_ALLOWED_ORIGINS" envDefault:"*" envSeparator:","`

	// Remote shop API
	ShopAPIBaseURL        string `env:"SHOP_API_BASE_URL" envDefault:"http://localhost:8080/api"`
	ShopAPISuccessCode    int    `env:"SHOP_API_SUCCESS_CODE" envDefault:"1000"`
	ShopAPITimeoutSeconds int    `env:"SHOP_API_TIMEOUT_SECONDS" envDefault:"10"`
	ShopAPIMaxRetries     int    `env:"SHOP_API_MAX_RETRIES" envDefault:"2"`

	// Circuit breaker around the shop API
	CBMaxRequests  uint32  `env:"CB_MAX_REQUESTS" envDefault:"1"`
	CBInterval     int     `env:"CB_INTERVAL_SECONDS" envDefault:"60"`
	CBTimeout      int     `env:"CB_TIMEOUT_SECONDS" envDefault:"30"`
	CBFailureRatio float64 `env:"CB_FAILURE_RATIO" envDefault:"0.5"`
	CBMinRequests  uint32  `env:"CB_MIN_REQUESTS" envDefault:"5"`

	// Sessions; used when the API token carries no exp claim
	SessionTTLHours int `env:"SESSION_TTL_HOURS" envDefault:"24"`

	// Redis
	RedisAddr string `env:"REDIS_ADDR" envDefault:"localhost:6379"`
	RedisPass string `env:"REDIS_PASSWORD" envDefault:""`
	RedisDB   int    `env:"REDIS_DB" envDefault:"0"`

	// Products, suppliers and flash sales
	ReferenceCacheTTLSeconds int `env:"REFERENCE_CACHE_TTL_SECONDS" envDefault:"60"`

	// Kafka
	KafkaBrokers           []string `env:"KAFKA_BROKERS" envDefault:"localhost:9092" envSeparator:","`
	KafkaConsumerGroup     string   `env:"KAFKA_CONSUMER_GROUP" envDefault:"storefront-cart-invalidation"`
	KafkaConsumerEnabled   bool     `env:"KAFKA_CONSUMER_ENABLED" envDefault:"true"`
	KafkaDeadLetterEnabled bool     `env:"KAFKA_DEAD_LETTER_ENABLED" envDefault:"true"`

	// Cart view
	SelectAllConcurrency int    `env:"SELECT_ALL_CONCURRENCY" envDefault:"4"`
	DisplayLocale        string `env:"DISPLAY_LOCALE" envDefault:"vi-VN"`

	// Profiling endpoints, reachable only from the listed prefixes
	PprofEnabled      bool     `env:"PPROF_ENABLED" envDefault:"false"`
	PprofAllowedCIDRs []string `env:"PPROF_ALLOWED_CIDRS" envDefault:"127.0.0.0/8,::1/128" envSeparator:","`

	// OpenTelemetry
	OTELEnabled    bool    `env:"OTEL_ENABLED" envDefault:"false"`
	OTELEndpoint   string  `env:"OTEL_EXPORTER_OTLP_ENDPOINT" envDefault:"localhost:4318"`
	OTELSampleRate float64 `env:"OTEL_SAMPLE_RATE" envDefault:"1.0"`
}

// Load reads and validates the storefront configuration.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := pkgconfig.Load(cfg); err != nil {
		return nil, fmt.Errorf("load storefront config: %w", err)
	}
	return cfg, nil
}

// Validate reports every invalid setting at once.
func (c *Config) Validate() error {
	var errs []error
	check := func(ok bool, format string, args ...any) {
		if !ok {
			errs = append(errs, fmt.Errorf(format, args...))
		}
	}

	check(c.HTTPPort >= 1 && c.HTTPPort <= 65535, "STOREFRONT_HTTP_PORT out of range: %d", c.HTTPPort)
	if c.ShopAPIBaseURL == "" {
		errs = append(errs, errors.New("SHOP_API_BASE_URL is required"))
	} else if u, err := url.ParseRequestURI(c.ShopAPIBaseURL); err != nil || u.Host == "" {
		errs = append(errs, fmt.Errorf("SHOP_API_BASE_URL %q is not an absolute URL", c.ShopAPIBaseURL))
	}
	check(c.ShopAPIMaxRetries >= 0, "SHOP_API_MAX_RETRIES must not be negative, got %d", c.ShopAPIMaxRetries)
	check(c.SessionTTLHours >= 1, "SESSION_TTL_HOURS must be positive, got %d", c.SessionTTLHours)
	check(c.ReferenceCacheTTLSeconds >= 1, "REFERENCE_CACHE_TTL_SECONDS must be positive, got %d", c.ReferenceCacheTTLSeconds)
	check(c.SelectAllConcurrency >= 1, "SELECT_ALL_CONCURRENCY must be positive, got %d", c.SelectAllConcurrency)
	check(len(c.KafkaBrokers) > 0, "KAFKA_BROKERS is required")
	check(c.CBFailureRatio > 0 && c.CBFailureRatio <= 1, "CB_FAILURE_RATIO must be in (0, 1], got %g", c.CBFailureRatio)
	check(!c.PprofEnabled || len(c.PprofAllowedCIDRs) > 0, "PPROF_ALLOWED_CIDRS is required when PPROF_ENABLED is set")
	check(c.OTELSampleRate >= 0 && c.OTELSampleRate <= 1, "OTEL_SAMPLE_RATE must be in [0, 1], got %g", c.OTELSampleRate)

	return errors.Join(errs...)
}

// SessionTTL is the fallback session lifetime.
func (c *Config) SessionTTL() time.Duration {
	return time.Duration(c.SessionTTLHours) * time.Hour
}

// ReferenceCacheTTL is how long reference data stays cached in Redis.
func (c *Config) ReferenceCacheTTL() time.Duration {
	return time.Duration(c.ReferenceCacheTTLSeconds) * time.Second
}

// RequestTimeout bounds each HTTP request.
func (c *Config) RequestTimeout() time.Duration {
	return time.Duration(c.RequestTimeoutSeconds) * time.Second
}
