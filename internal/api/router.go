// Package api provides the HTTP API for the AirPulse dashboard.
package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/airpulse/airpulse/internal/api/handler"
	"github.com/airpulse/airpulse/internal/api/middleware"
	"github.com/airpulse/airpulse/internal/api/models"
	"github.com/airpulse/airpulse/internal/featureflags"
	"github.com/airpulse/airpulse/internal/provider/resilience"
	"github.com/airpulse/airpulse/internal/store"
)

// RouterConfig holds configuration for the router.
type RouterConfig struct {
	Version   string
	BuildTime string
	Logger    zerolog.Logger
	Metrics   *middleware.Metrics

	// RequireTLS rejects requests forwarded over plain HTTP.
	RequireTLS bool

	// RateLimit applies per client IP to every /api route.
	// Default: middleware.StandardRateLimit.
	RateLimit middleware.RateLimitConfig

	// UpstreamRateLimit additionally applies to routes that may call
	// upstream providers. Default: middleware.UpstreamRateLimit.
	UpstreamRateLimit middleware.RateLimitConfig

	Store    store.Store
	Current  handler.CurrentService
	Resolver handler.LocationResolver
	Forecast handler.ForecastService
	Nearby   handler.NearbyService

	// FeatureFlags switches search behaviour and backs /api/ops/flags. Optional.
	FeatureFlags *featureflags.Service

	// Caches are dropped by POST /api/ops/flags/invalidate. Optional.
	Caches []handler.CacheInvalidator

	// Registry and Checks feed the ops endpoints. Optional.
	Registry *resilience.Registry
	Checks   []handler.Check
}

// NewRouter creates a new chi router with all API routes configured.
func NewRouter(cfg RouterConfig) *chi.Mux {
	r := chi.NewRouter()

	// Global middleware - order matters
	r.Use(middleware.RequestID) // Generate/propagate request ID first
	r.Use(middleware.Tracing()) // Distributed tracing
	if cfg.Metrics != nil {
		r.Use(cfg.Metrics.Middleware()) // HTTP metrics
	}
	r.Use(middleware.Logger(cfg.Logger))         // Structured logging
	r.Use(middleware.Recovery(cfg.Logger))       // Panic recovery
	r.Use(chimiddleware.RealIP)                  // Real IP extraction
	r.Use(middleware.SecurityHeaders)            // Security headers (HSTS, CSP, etc.)
	r.Use(middleware.RequireTLS(cfg.RequireTLS)) // TLS enforcement
	r.Use(middleware.ContentTypeJSON)            // JSON content type

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		problem := models.NewNotFound(middleware.GetRequestID(r.Context()), "no route for "+r.URL.Path)
		problem.Instance = r.URL.Path
		problem.Write(w)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		problem := models.NewProblem(models.ProblemTypeValidation, "Method not allowed",
			http.StatusMethodNotAllowed, middleware.GetRequestID(r.Context()))
		problem.Instance = r.URL.Path
		problem.Write(w)
	})

	// Avoid typed-nil interfaces when flags are not configured.
	var searchFlags handler.SearchFlags
	if cfg.FeatureFlags != nil {
		searchFlags = cfg.FeatureFlags
	}

	// Initialize handlers
	opsHandler := handler.NewOpsHandler(handler.OpsConfig{
		Version:   cfg.Version,
		BuildTime: cfg.BuildTime,
		Checks:    cfg.Checks,
		Registry:  cfg.Registry,
	})
	currentHandler := handler.NewCurrentHandler(cfg.Current, cfg.Logger)
	forecastHandler := handler.NewForecastHandler(cfg.Forecast, cfg.Logger)
	locationHandler := handler.NewLocationHandler(cfg.Store, cfg.Resolver, searchFlags, cfg.Logger)
	aqiHandler := handler.NewAQIHandler(cfg.Store, cfg.Logger)
	alertHandler := handler.NewAlertHandler(cfg.Store, cfg.Logger)
	nearbyHandler := handler.NewNearbyHandler(cfg.Nearby, cfg.Logger)

	standard := cfg.RateLimit
	if standard.RequestLimit <= 0 {
		standard = middleware.StandardRateLimit
	}
	upstream := cfg.UpstreamRateLimit
	if upstream.RequestLimit <= 0 {
		upstream = middleware.UpstreamRateLimit
	}
	upstreamRateLimit := middleware.RateLimitByIP(upstream)

	r.Route("/api", func(r chi.Router) {
		// Ops endpoints are not rate limited so probes never see 429.
		r.Route("/ops", func(r chi.Router) {
			r.Get("/health", opsHandler.HealthCheck)
			r.Get("/ready", opsHandler.ReadinessCheck)
			r.Get("/status", opsHandler.SystemStatus)

			if cfg.FeatureFlags != nil {
				flagsHandler := handler.NewFeatureFlagsHandler(cfg.FeatureFlags, cfg.Caches...)
				r.Get("/flags", flagsHandler.ListFeatureFlags)
				r.Post("/flags/invalidate", flagsHandler.InvalidateCache)
			}
		})

		r.Group(func(r chi.Router) {
			r.Use(middleware.RateLimitByIP(standard))

			r.With(upstreamRateLimit).Get("/current/{locationId}", currentHandler.GetCurrent)

			r.Route("/forecast/{locationId}", func(r chi.Router) {
				r.Get("/", forecastHandler.GetForecast)
				r.Delete("/", forecastHandler.ClearForecast)
			})

			r.Route("/locations", func(r chi.Router) {
				r.Get("/search", locationHandler.SearchLocations)
				r.With(upstreamRateLimit).Get("/coords", locationHandler.ResolveCoordinates)
			})

			r.Get("/aqi/history/{locationId}", aqiHandler.GetHistory)
			r.Get("/health-recommendations", aqiHandler.GetRecommendations)

			r.Route("/alerts", func(r chi.Router) {
				r.Get("/", alertHandler.GetAlertPreference)
				r.With(middleware.RequireJSON).Post("/", alertHandler.UpsertAlertPreference)
			})

			r.Get("/nearby/{locationId}", nearbyHandler.GetNearby)
		})
	})

	return r
}
