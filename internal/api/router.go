package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// RouterOptions carries the router's tunables.
type RouterOptions struct {
	// BearerToken protects the data routes. Empty disables authentication.
	BearerToken       string
	AllowedOrigins    []string
	RequestsPerMinute int
}

// NewRouter builds and returns the Chi router with all routes configured.
// Health and metrics are unauthenticated; data routes require bearer auth
// when a token is configured. Rate limiting is applied per IP.
func NewRouter(handlers *Handlers, opts RouterOptions, health HealthChecks, log *slog.Logger) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: opts.AllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type", "X-Request-Id"},
		ExposedHeaders: []string{"X-Request-Id"},
		MaxAge:         300,
	}))
	r.Use(httprate.LimitByIP(opts.RequestsPerMinute, time.Minute))
	r.Use(Metrics)

	r.Get("/api/v1/health", HealthHandlerFunc(health, log))
	r.Handle("/metrics", promhttp.Handler())

	r.Group(func(r chi.Router) {
		if opts.BearerToken != "" {
			r.Use(BearerAuth(opts.BearerToken))
		}

		r.Post("/api/v1/planning/itineraries", handlers.PlanItinerary)

		r.Post("/api/v1/destinations/features", handlers.ScoreDestinations)
		r.Get("/api/v1/destinations/random", handlers.RandomDestination)
		r.Post("/api/v1/destinations/availability/cities", handlers.ReachableCities)

		r.Get("/api/v1/cities/{cityId}", handlers.GetCity)
		r.Get("/api/v1/cities/{cityId}/pois", handlers.ListCityPOIs)
		r.Get("/api/v1/cities/{cityId}/hotels", handlers.ListCityHotels)

		r.Get("/api/v1/recommendations/cities/top-attractions", handlers.TopAttractionCities)
		r.Get("/api/v1/recommendations/cities/warm-budget", handlers.WarmBudgetCities)
	})

	return r
}

// Ensure chi.Mux implements http.Handler.
var _ http.Handler = (*chi.Mux)(nil)
