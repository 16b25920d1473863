package rest

import (
	"context"
	"net/http"
	"time"

	commandbus "degrees/application/commands/bus"
	querybus "degrees/application/queries/bus"
	"degrees/interfaces/http/rest/handlers"
	"degrees/interfaces/http/rest/middleware"
	"degrees/pkg/auth"
	pkgerrors "degrees/pkg/errors"
	"degrees/pkg/observability"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"
)

// APIVersion is reported in the X-API-Version header.
const APIVersion = "v2"

// Pinger reports whether the graph store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Options configures the router. Nil collaborators switch their feature off:
// no Metrics means no /metrics route, no Limiter means no rate limiting.
type Options struct {
	CommandBus *commandbus.CommandBus
	QueryBus   *querybus.QueryBus
	Store      Pinger
	Validator  *auth.JWTValidator
	Limiter    *auth.RateLimiter
	Metrics    *observability.Collector
	Tracer     *observability.Tracer

	RateLimitPerMinute int
	EnableCORS         bool
	AllowedOrigins     []string
	Debug              bool
}

// Router creates and configures the HTTP router
type Router struct {
	opts   Options
	errors *pkgerrors.ErrorHandler
	logger *zap.Logger
}

// NewRouter creates a new router instance
func NewRouter(opts Options, logger *zap.Logger) *Router {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Router{
		opts:   opts,
		errors: pkgerrors.NewErrorHandler(logger, opts.Debug),
		logger: logger,
	}
}

// Setup configures all routes and middleware
func (rt *Router) Setup() http.Handler {
	router := chi.NewRouter()

	// Global middleware
	router.Use(chimiddleware.RequestID)
	router.Use(chimiddleware.RealIP)
	router.Use(rt.errors.Recoverer)
	router.Use(middleware.Logger(rt.logger))
	if rt.opts.Metrics != nil {
		router.Use(middleware.Metrics(rt.opts.Metrics))
	}
	router.Use(versionMiddleware)

	if rt.opts.EnableCORS {
		origins := rt.opts.AllowedOrigins
		if len(origins) == 0 {
			origins = []string{"*"}
		}
		router.Use(cors.Handler(cors.Options{
			AllowedOrigins: origins,
			AllowedMethods: []string{"GET", "POST", "OPTIONS"},
			AllowedHeaders: []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
			ExposedHeaders: []string{"X-Request-ID", "X-API-Version"},
			MaxAge:         300,
		}))
	}
	router.Use(middleware.Viewer(rt.opts.Validator, rt.errors, rt.logger))

	router.NotFound(func(w http.ResponseWriter, r *http.Request) {
		rt.errors.Handle(w, r, pkgerrors.NewNotFoundError("route"))
	})

	router.Get("/health", rt.healthCheck)
	router.Get("/ready", rt.readinessCheck)
	if rt.opts.Metrics != nil {
		router.Method(http.MethodGet, "/metrics", rt.opts.Metrics.Handler())
	}

	journeys := handlers.NewJourneyHandler(rt.opts.QueryBus, rt.errors, rt.logger)
	graph := handlers.NewGraphHandler(rt.opts.CommandBus, rt.errors, rt.logger)

	router.Route("/api/"+APIVersion, func(r chi.Router) {
		r.Use(rt.opts.Tracer.Middleware)

		// Searches are the expensive routes
		r.Group(func(r chi.Router) {
			if rt.opts.Limiter != nil {
				var onLimited func()
				if rt.opts.Metrics != nil {
					onLimited = rt.opts.Metrics.RateLimited
				}
				r.Use(middleware.RateLimit(rt.opts.Limiter, rt.opts.RateLimitPerMinute, rt.errors, onLimited))
			}
			r.Get("/journeys/discover", journeys.Discover)
			r.Get("/journeys/random", journeys.Random)
			r.Get("/paths", journeys.Path)
		})

		r.Get("/nodes/{nodeID}", journeys.GetNode)

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireAdmin(rt.errors))
			r.Post("/nodes", graph.CreateNode)
			r.Post("/edges", graph.CreateEdge)
			r.Post("/import", graph.Import)
		})
	})

	return router
}

// healthCheck handles health check requests
func (rt *Router) healthCheck(w http.ResponseWriter, req *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"healthy"}`))
}

// readinessCheck pings the store
func (rt *Router) readinessCheck(w http.ResponseWriter, req *http.Request) {
	if rt.opts.Store != nil {
		ctx, cancel := context.WithTimeout(req.Context(), 2*time.Second)
		defer cancel()
		if err := rt.opts.Store.Ping(ctx); err != nil {
			rt.errors.Handle(w, req, pkgerrors.NewUnavailableError("graph store", err))
			return
		}
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"ready"}`))
}

// versionMiddleware adds API version headers to all responses
func versionMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-API-Version", APIVersion)
		next.ServeHTTP(w, r)
	})
}
