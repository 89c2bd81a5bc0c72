// Package main provides the entrypoint for the AirPulse API server.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/airpulse/airpulse/internal/airquality"
	"github.com/airpulse/airpulse/internal/airquality/openaq"
	"github.com/airpulse/airpulse/internal/alerting"
	"github.com/airpulse/airpulse/internal/api"
	"github.com/airpulse/airpulse/internal/api/handler"
	"github.com/airpulse/airpulse/internal/api/middleware"
	"github.com/airpulse/airpulse/internal/config"
	"github.com/airpulse/airpulse/internal/database"
	"github.com/airpulse/airpulse/internal/featureflags"
	"github.com/airpulse/airpulse/internal/forecast"
	"github.com/airpulse/airpulse/internal/nearby"
	"github.com/airpulse/airpulse/internal/provider/resilience"
	"github.com/airpulse/airpulse/internal/refresh"
	"github.com/airpulse/airpulse/internal/store"
	"github.com/airpulse/airpulse/internal/telemetry"
	"github.com/airpulse/airpulse/internal/weather"
	"github.com/airpulse/airpulse/internal/weather/openweathermap"
)

// Version and BuildTime are set at compile time via ldflags.
var (
	Version   = "dev"
	BuildTime = "unknown"
)

func main() {
	const serviceName = "airpulse-api"

	cfg, err := config.Load()
	if err != nil {
		bootLog := zerolog.New(os.Stderr).With().Timestamp().Str("service", serviceName).Logger()
		bootLog.Fatal().Err(err).Msg("failed to load configuration")
	}

	level, err := zerolog.ParseLevel(cfg.App.LogLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}

	// Setup structured logging
	log := zerolog.New(os.Stdout).
		Level(level).
		With().
		Timestamp().
		Str("service", serviceName).
		Str("version", Version).
		Logger()

	log.Info().
		Str("build_time", BuildTime).
		Str("env", cfg.App.Env).
		Msg("starting AirPulse API")

	// Initialize OpenTelemetry
	ctx := context.Background()

	tp, err := telemetry.Init(ctx, telemetry.Config{
		ServiceName:    serviceName,
		ServiceVersion: Version,
		Environment:    cfg.App.Env,
		OTLPEndpoint:   cfg.Telemetry.OTLPEndpoint,
		Enabled:        cfg.Telemetry.Enabled,
		SampleRatio:    cfg.Telemetry.SampleRatio,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize telemetry")
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if shutdownErr := tp.Shutdown(shutdownCtx); shutdownErr != nil {
			log.Error().Err(shutdownErr).Msg("failed to shutdown telemetry")
		}
	}()

	if cfg.Telemetry.Enabled {
		log.Info().
			Str("otlp_endpoint", cfg.Telemetry.OTLPEndpoint).
			Msg("OpenTelemetry initialized")
	}

	// Initialize metrics
	metrics, err := middleware.NewMetrics()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize metrics")
	}
	providerMetrics, err := telemetry.NewProviderMetrics()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize provider metrics")
	}

	var checks []handler.Check

	flagDefaults := featureflags.Merge(featureflags.DefaultFlags(), featureflags.ParseOverrides(cfg.FeatureFlags))

	// Open the store and the feature flag repository
	var (
		st     store.Store
		ffRepo featureflags.Repository
	)
	switch cfg.StoreDriver {
	case config.StoreDriverPostgres:
		pool, err := database.Connect(ctx, cfg.Database)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to connect to database")
		}
		log.Info().
			Str("host", cfg.Database.Host).
			Int("port", cfg.Database.Port).
			Str("database", cfg.Database.Database).
			Msg("database connected")
		st = store.NewPostgresStore(pool)
		ffRepo = featureflags.NewPostgresRepository(pool)
	default:
		st = store.NewMemoryStore(store.MemoryConfig{Seed: true})
		ffRepo = featureflags.NewInMemoryRepositoryWithFlags(flagDefaults)
		log.Warn().Msg("using in-memory store, data is lost on restart")
	}
	defer st.Close()
	checks = append(checks, handler.Check{Name: "store", Probe: st.Ping})

	// Initialize feature flags
	ffService := featureflags.NewService(featureflags.ServiceConfig{
		Repository:   ffRepo,
		Logger:       log,
		CacheTTL:     1 * time.Minute,
		DefaultFlags: flagDefaults,
	})
	log.Info().Msg("feature flags service initialized")

	// Upstream provider clients
	registry := resilience.NewRegistry()

	openaqHTTP := newProviderClient(openaq.ProviderName, cfg.OpenAQ, &log)
	openweatherHTTP := newProviderClient(openweathermap.ProviderName, cfg.OpenWeather, &log)
	registry.Register(openaqHTTP)
	registry.Register(openweatherHTTP)

	if cfg.OpenWeather.APIKey == "" {
		log.Warn().Msg("OPENWEATHER_API_KEY not set - weather refreshes will fail")
	}

	airQualityService := airquality.NewService(airquality.ServiceConfig{
		Provider: openaq.NewClient(openaq.ClientConfig{
			BaseURL:    cfg.OpenAQ.BaseURL,
			APIKey:     cfg.OpenAQ.APIKey,
			HTTPClient: openaqHTTP,
		}),
		Logger:   log,
		Registry: registry,
		Metrics:  providerMetrics,
	})

	weatherService := weather.NewService(weather.ServiceConfig{
		Provider: openweathermap.NewClient(openweathermap.ClientConfig{
			APIKey:     cfg.OpenWeather.APIKey,
			BaseURL:    cfg.OpenWeather.BaseURL,
			HTTPClient: openweatherHTTP,
			Logger:     log,
		}),
		Logger:   log,
		Registry: registry,
		Metrics:  providerMetrics,
		CacheTTL: cfg.Refresh.WeatherCacheTTL,
	})

	// Initialize alerting
	alertStates, redisClient := newAlertStateStore(cfg.Redis)
	if redisClient != nil {
		defer redisClient.Close()
		checks = append(checks, handler.Check{Name: "redis", Probe: func(ctx context.Context) error {
			return redisClient.Ping(ctx).Err()
		}})
		log.Info().Str("addr", cfg.Redis.Addr).Msg("alert state stored in redis")
	}

	publisher, err := newAlertPublisher(ctx, cfg.Alerts, log)
	if err != nil {
		log.Fatal().Err(err).Str("publisher", cfg.Alerts.Publisher).Msg("failed to initialize alert publisher")
	}

	alertService := alerting.NewService(alerting.ServiceConfig{
		Preferences: st,
		States:      alertStates,
		Publisher:   publisher,
		Gate:        ffService,
		Logger:      log,
		Metrics:     providerMetrics,
	})
	defer func() {
		if err := alertService.Close(); err != nil {
			log.Error().Err(err).Msg("failed to close alert publisher")
		}
	}()
	log.Info().Str("publisher", cfg.Alerts.Publisher).Msg("alerting service initialized")

	orchestrator := refresh.NewOrchestrator(refresh.Config{
		Store:           st,
		Provider:        refresh.NewUpstream(airQualityService, weatherService),
		Logger:          log,
		Metrics:         providerMetrics,
		Alerts:          alertService,
		Flags:           ffService,
		FreshnessWindow: cfg.Refresh.FreshnessWindow,
		UpstreamTimeout: cfg.Refresh.UpstreamTimeout,
	})

	forecastService := forecast.NewService(forecast.ServiceConfig{Store: st, Logger: log})
	nearbyService := nearby.NewService(nearby.ServiceConfig{Store: st, Logger: log})

	// Create router with configuration
	router := api.NewRouter(api.RouterConfig{
		Version:      Version,
		BuildTime:    BuildTime,
		Logger:       log,
		Metrics:      metrics,
		RequireTLS:   cfg.App.RequireTLS,
		RateLimit:    middleware.PerMinute(cfg.RateLimit.RequestsPerMinute),
		Store:        st,
		Current:      orchestrator,
		Resolver:     orchestrator,
		Forecast:     forecastService,
		Nearby:       nearbyService,
		FeatureFlags: ffService,
		Caches:       []handler.CacheInvalidator{weatherService},
		Registry:     registry,
		Checks:       checks,
	})

	// Create HTTP server
	server := &http.Server{
		Addr:         ":" + cfg.App.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Info().
			Str("addr", server.Addr).
			Msg("server listening")

		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server")

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.App.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
		return
	}

	log.Info().Msg("server stopped")
}

// newProviderClient builds the resilient HTTP client for an upstream.
func newProviderClient(name string, cfg config.ProviderConfig, log *zerolog.Logger) *resilience.Client {
	clientCfg := resilience.DefaultClientConfig(name)
	if cfg.Timeout > 0 {
		clientCfg.Timeout = cfg.Timeout
	}
	if cfg.MaxRetries >= 0 {
		clientCfg.MaxRetries = uint64(cfg.MaxRetries)
	}
	clientCfg.Logger = log
	return resilience.NewClient(clientCfg)
}

// newAlertStateStore returns a Redis backed store when an address is
// configured, otherwise an in-memory one. The client is nil in the latter case.
func newAlertStateStore(cfg config.RedisConfig) (alerting.StateStore, *redis.Client) {
	if cfg.Addr == "" {
		return alerting.NewMemoryStateStore(cfg.StateTTL, nil), nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	return alerting.NewRedisStateStore(client, cfg.StateTTL), client
}

func newAlertPublisher(ctx context.Context, cfg config.AlertsConfig, log zerolog.Logger) (alerting.Publisher, error) {
	switch cfg.Publisher {
	case config.PublisherPubSub:
		return alerting.NewPubSubPublisher(ctx, alerting.PubSubConfig{
			ProjectID: cfg.PubSubProject,
			TopicID:   cfg.PubSubTopic,
		})
	case config.PublisherKafka:
		return alerting.NewKafkaPublisher(cfg.KafkaBrokers, cfg.KafkaTopic), nil
	default:
		return alerting.NewLogPublisher(log), nil
	}
}
