// Package web assembles the HTTP routes: the dashboard and users pages, the JSON API,
// health and metrics.
package web

import (
	"errors"
	"net/http"
	"strings"

	"filippo.io/csrf"
	"github.com/go-chi/chi/v5"
	"github.com/klauspost/compress/gzhttp"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	httpmiddleware "github.com/wolfeidau/sensordash/internal/http"
	"github.com/wolfeidau/sensordash/internal/logger"
	"github.com/wolfeidau/sensordash/internal/state"
)

const (
	dashboardTemplate = "dashboard.html"
	usersTemplate     = "users.html"
	errorTemplate     = "error.html"
)

// Config carries the router options that are not part of the shared state.
type Config struct {
	Logger zerolog.Logger

	// CORSOrigins are allowed to call the /api/ routes from a browser.
	CORSOrigins []string
	// TrustedOrigins may submit the HTML forms cross-origin.
	TrustedOrigins []string

	// StaticDir is served under /static/ in development.
	StaticDir string

	// Registry receives the request metrics and backs /metrics.
	// Defaults to a fresh registry with the Go and process collectors.
	Registry *prometheus.Registry

	// Tracing wraps the router in an OpenTelemetry server span.
	Tracing bool
}

// NewRouter builds the application handler around the shared state.
func NewRouter(st *state.State, cfg Config) (http.Handler, error) {
	if st == nil {
		return nil, errors.New("state is required")
	}

	reg := cfg.Registry
	if reg == nil {
		reg = prometheus.NewRegistry()
		reg.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
	}

	protection := csrf.New()
	for _, origin := range cfg.TrustedOrigins {
		if err := protection.AddTrustedOrigin(origin); err != nil {
			return nil, err
		}
	}

	corsHandler := cors.New(cors.Options{
		AllowedOrigins: cfg.CORSOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type", httpmiddleware.RequestIDHeader},
		ExposedHeaders: []string{httpmiddleware.RequestIDHeader},
	})

	r := chi.NewRouter()

	r.Use(httpmiddleware.RequestIDMiddleware())
	r.Use(logger.NewRequests(cfg.Logger, httpmiddleware.RequestID).Handler)
	r.Use(httpmiddleware.ClientIPMiddleware())
	r.Use(httpmiddleware.RecoverMiddleware())
	r.Use(httpmiddleware.MetricsMiddleware(httpmiddleware.WithRegistry(reg)))
	r.Use(func(next http.Handler) http.Handler {
		return gzhttp.GzipHandler(next)
	})
	r.Use(func(next http.Handler) http.Handler {
		// API routes get CORS, HTML routes get CSRF
		api := corsHandler.Handler(next)
		html := protection.Handler(next)
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if isAPIRoute(r.URL.Path) {
				api.ServeHTTP(w, r)
				return
			}
			html.ServeHTTP(w, r)
		})
	})

	h := &handlers{state: st}

	r.Group(h.dashboardRoutes)
	r.Route("/users", h.userRoutes)
	r.Route("/api", func(r chi.Router) {
		r.Route("/sensors", h.sensorAPIRoutes)
		r.Route("/users", h.userAPIRoutes)
	})

	r.Get("/health", h.health)
	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))

	if st.Dev() && cfg.StaticDir != "" {
		fs := http.StripPrefix("/static/", http.FileServer(http.Dir(cfg.StaticDir)))
		r.Handle("/static/*", fs)
	}

	if cfg.Tracing {
		return otelhttp.NewHandler(r, "sensordash",
			otelhttp.WithSpanNameFormatter(func(operation string, r *http.Request) string {
				return r.Method + " " + r.URL.Path
			}),
		), nil
	}

	return r, nil
}

// isAPIRoute returns true if the path is an API route that needs CORS instead of CSRF
func isAPIRoute(path string) bool {
	return path == "/api" || strings.HasPrefix(path, "/api/")
}

type handlers struct {
	state *state.State
}
