// Package config loads service configuration from the environment, reading
// a .env file first when one is present.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/airpulse/airpulse/internal/database"
)

// Store drivers.
const (
	StoreDriverMemory   = "memory"
	StoreDriverPostgres = "postgres"
)

// Alert publishers.
const (
	PublisherLog    = "log"
	PublisherPubSub = "pubsub"
	PublisherKafka  = "kafka"
)

// ErrInvalidConfig is returned by Validate.
var ErrInvalidConfig = errors.New("invalid configuration")

// Config is the complete service configuration.
type Config struct {
	App         AppConfig
	Telemetry   TelemetryConfig
	StoreDriver string
	Database    database.Config
	OpenAQ      ProviderConfig
	OpenWeather ProviderConfig
	Refresh     RefreshConfig
	Redis       RedisConfig
	Alerts      AlertsConfig
	RateLimit   RateLimitConfig

	// FeatureFlags overrides flag defaults, e.g. "alerts_enabled=false".
	FeatureFlags string
}

// AppConfig holds HTTP server settings.
type AppConfig struct {
	Port            string
	Env             string
	LogLevel        string
	ShutdownTimeout time.Duration

	// RequireTLS rejects requests forwarded over plain HTTP.
	RequireTLS bool
}

// TelemetryConfig holds OpenTelemetry settings.
type TelemetryConfig struct {
	Enabled      bool
	OTLPEndpoint string
	SampleRatio  float64
}

// ProviderConfig holds upstream API settings.
type ProviderConfig struct {
	BaseURL    string
	APIKey     string
	Timeout    time.Duration
	MaxRetries int
}

// RefreshConfig holds freshness settings for current conditions.
type RefreshConfig struct {
	FreshnessWindow time.Duration
	UpstreamTimeout time.Duration
	WeatherCacheTTL time.Duration
}

// RedisConfig holds the alert state store connection. An empty Addr keeps
// alert state in memory.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	StateTTL time.Duration
}

// AlertsConfig selects and configures the alert publisher.
type AlertsConfig struct {
	Publisher     string
	PubSubProject string
	PubSubTopic   string
	KafkaBrokers  []string
	KafkaTopic    string
}

// RateLimitConfig holds per-client request limits.
type RateLimitConfig struct {
	RequestsPerMinute int
}

// Load reads configuration from the environment.
func Load() (*Config, error) {
	// Load .env file if it exists (ignore error if not present)
	_ = godotenv.Load()

	cfg := &Config{
		App: AppConfig{
			Port:            getEnv("APP_PORT", "8080"),
			Env:             getEnv("APP_ENV", "development"),
			LogLevel:        getEnv("LOG_LEVEL", "info"),
			ShutdownTimeout: getEnvAsDuration("SHUTDOWN_TIMEOUT", 30*time.Second),
			RequireTLS:      getEnvAsBool("REQUIRE_TLS", false),
		},
		Telemetry: TelemetryConfig{
			Enabled:      getEnvAsBool("OTEL_ENABLED", false),
			OTLPEndpoint: getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317"),
			SampleRatio:  getEnvAsFloat("OTEL_TRACES_SAMPLE_RATIO", 1),
		},
		StoreDriver: strings.ToLower(getEnv("STORE_DRIVER", StoreDriverMemory)),
		Database: database.Config{
			Host:            getEnv("DB_HOST", "localhost"),
			Port:            getEnvAsInt("DB_PORT", 5432),
			User:            getEnv("DB_USER", "airpulse"),
			Password:        getEnv("DB_PASSWORD", "airpulse"),
			Database:        getEnv("DB_NAME", "airpulse"),
			SSLMode:         getEnv("DB_SSLMODE", "disable"),
			MaxOpenConns:    getEnvAsInt("DB_MAX_OPEN_CONNS", 10),
			MaxIdleConns:    getEnvAsInt("DB_MAX_IDLE_CONNS", 2),
			ConnMaxLifetime: getEnvAsDuration("DB_CONN_MAX_LIFETIME", 30*time.Minute),
			AutoMigrate:     getEnvAsBool("DB_AUTO_MIGRATE", true),
		},
		OpenAQ: ProviderConfig{
			BaseURL:    getEnv("OPENAQ_BASE_URL", "https://api.openaq.org/v2"),
			APIKey:     getEnv("OPENAQ_API_KEY", ""),
			Timeout:    getEnvAsDuration("OPENAQ_TIMEOUT", 10*time.Second),
			MaxRetries: getEnvAsInt("OPENAQ_MAX_RETRIES", 2),
		},
		OpenWeather: ProviderConfig{
			BaseURL:    getEnv("OPENWEATHER_BASE_URL", "https://api.openweathermap.org/data/2.5"),
			APIKey:     getEnv("OPENWEATHER_API_KEY", ""),
			Timeout:    getEnvAsDuration("OPENWEATHER_TIMEOUT", 10*time.Second),
			MaxRetries: getEnvAsInt("OPENWEATHER_MAX_RETRIES", 2),
		},
		Refresh: RefreshConfig{
			FreshnessWindow: getEnvAsDuration("FRESHNESS_WINDOW", 30*time.Minute),
			UpstreamTimeout: getEnvAsDuration("UPSTREAM_TIMEOUT", 10*time.Second),
			WeatherCacheTTL: getEnvAsDuration("WEATHER_CACHE_TTL", 5*time.Minute),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", ""),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
			StateTTL: getEnvAsDuration("ALERT_STATE_TTL", 24*time.Hour),
		},
		Alerts: AlertsConfig{
			Publisher:     strings.ToLower(getEnv("ALERT_PUBLISHER", PublisherLog)),
			PubSubProject: getEnv("PUBSUB_PROJECT_ID", ""),
			PubSubTopic:   getEnv("PUBSUB_ALERT_TOPIC", "aqi-alerts"),
			KafkaBrokers:  getEnvAsList("KAFKA_BROKERS", []string{"localhost:9092"}),
			KafkaTopic:    getEnv("KAFKA_ALERT_TOPIC", "airpulse.alerts"),
		},
		RateLimit: RateLimitConfig{
			RequestsPerMinute: getEnvAsInt("RATE_LIMIT_PER_MINUTE", 120),
		},
		FeatureFlags: getEnv("FEATURE_FLAGS", ""),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks option values that would otherwise fail late.
func (c *Config) Validate() error {
	switch c.StoreDriver {
	case StoreDriverMemory, StoreDriverPostgres:
	default:
		return fmt.Errorf("%w: unknown STORE_DRIVER %q", ErrInvalidConfig, c.StoreDriver)
	}

	switch c.Alerts.Publisher {
	case PublisherLog:
	case PublisherPubSub:
		if c.Alerts.PubSubProject == "" {
			return fmt.Errorf("%w: PUBSUB_PROJECT_ID is required for the pubsub publisher", ErrInvalidConfig)
		}
	case PublisherKafka:
		if len(c.Alerts.KafkaBrokers) == 0 {
			return fmt.Errorf("%w: KAFKA_BROKERS is required for the kafka publisher", ErrInvalidConfig)
		}
	default:
		return fmt.Errorf("%w: unknown ALERT_PUBLISHER %q", ErrInvalidConfig, c.Alerts.Publisher)
	}

	if c.Refresh.FreshnessWindow <= 0 {
		return fmt.Errorf("%w: FRESHNESS_WINDOW must be positive", ErrInvalidConfig)
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseFloat(valueStr, 64); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsList(key string, defaultValue []string) []string {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}

	var out []string
	for _, item := range strings.Split(valueStr, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
