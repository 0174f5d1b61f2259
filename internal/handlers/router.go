// Package handlers serves the storefront pages, htmx fragments and JSON endpoints.
package handlers

import (
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	custommw "github.com/vikenamera/CraftVersee/internal/middleware"
	"github.com/vikenamera/CraftVersee/internal/platform/httpx"
	"github.com/vikenamera/CraftVersee/internal/platform/observability"
)

// RouteRegistrar registers a set of routes against the provided router.
type RouteRegistrar func(r chi.Router)

type routerConfig struct {
	middlewares []func(http.Handler) http.Handler
	health      *HealthHandlers
	assets      http.Handler
	registrars  []RouteRegistrar
}

// Option customises the router configuration before construction.
type Option func(*routerConfig)

const (
	defaultTimeout    = 30 * time.Second
	errorNotFoundCode = "route_not_found"
)

// NewRouter constructs the chi router with shared middleware and the registered route groups.
func NewRouter(opts ...Option) chi.Router {
	cfg := routerConfig{
		middlewares: []func(http.Handler) http.Handler{
			middleware.RequestID,
			middleware.RealIP,
		},
	}

	for _, opt := range opts {
		opt(&cfg)
	}

	r := chi.NewRouter()

	if cfg.health == nil {
		cfg.health = NewHealthHandlers()
	}
	if cfg.assets == nil {
		cfg.assets = Assets()
	}

	for _, mw := range cfg.middlewares {
		if mw != nil {
			r.Use(mw)
		}
	}

	r.NotFound(func(w http.ResponseWriter, req *http.Request) {
		httpx.WriteError(req.Context(), w, httpx.NewError(errorNotFoundCode, fmt.Sprintf("no route for %s", req.URL.Path), http.StatusNotFound))
	})

	r.MethodNotAllowed(func(w http.ResponseWriter, req *http.Request) {
		httpx.WriteError(req.Context(), w, httpx.NewError("method_not_allowed", fmt.Sprintf("method %s not allowed on %s", req.Method, req.URL.Path), http.StatusMethodNotAllowed))
	})

	r.Get("/healthz", cfg.health.Healthz)
	r.Get("/readyz", cfg.health.Readyz)
	r.Handle("/assets/*", http.StripPrefix("/assets", cfg.assets))

	for _, reg := range cfg.registrars {
		if reg != nil {
			reg(r)
		}
	}

	return r
}

// StandardMiddlewares returns the storefront middleware chain in execution order. It runs
// after RequestID and RealIP, which NewRouter installs first.
func StandardMiddlewares(logger *zap.Logger, sessions *custommw.Sessions) []func(http.Handler) http.Handler {
	chain := []func(http.Handler) http.Handler{
		observability.TraceMiddleware(),
		observability.InjectLoggerMiddleware(logger),
		observability.RecoveryMiddleware(logger),
	}
	if sessions != nil {
		chain = append(chain, sessions.Middleware)
	}
	return append(chain,
		custommw.HTMX,
		observability.RequestLoggerMiddleware(),
		custommw.CSRF,
		middleware.Timeout(defaultTimeout),
		middleware.Compress(5),
	)
}

// WithMiddlewares appends additional global middleware to the router.
func WithMiddlewares(mw ...func(http.Handler) http.Handler) Option {
	return func(cfg *routerConfig) {
		cfg.middlewares = append(cfg.middlewares, mw...)
	}
}

// WithHealthHandlers overrides the handlers used for /healthz and /readyz endpoints.
func WithHealthHandlers(h *HealthHandlers) Option {
	return func(cfg *routerConfig) {
		cfg.health = h
	}
}

// WithAssets overrides the handler serving /assets/*.
func WithAssets(h http.Handler) Option {
	return func(cfg *routerConfig) {
		cfg.assets = h
	}
}

// WithRoutes appends route registrars, applied in order.
func WithRoutes(reg ...RouteRegistrar) Option {
	return func(cfg *routerConfig) {
		cfg.registrars = append(cfg.registrars, reg...)
	}
}
