package api

import (
	"io/fs"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/carris-monitor/busmon/internal/api/handlers"
	"github.com/carris-monitor/busmon/internal/cache"
	"github.com/carris-monitor/busmon/internal/config"
	"github.com/carris-monitor/busmon/internal/metrics"
	"github.com/carris-monitor/busmon/internal/tracker"
)

// NewRouter creates and configures the HTTP router with all routes and
// middleware. snapshots, collector and webFS may be nil. The caller owns
// snapshots and closes it.
func NewRouter(
	cfg *config.Config,
	buses handlers.BusProvider,
	directions handlers.DirectionProvider,
	snapshots *cache.Cache[tracker.Snapshot],
	collector *metrics.Collector,
	webFS fs.FS,
) http.Handler {
	mux := http.NewServeMux()

	var cacheObserver handlers.CacheObserver
	if collector != nil {
		cacheObserver = collector
	}

	// Initialize handlers
	healthHandler := handlers.NewHealthHandler()
	rootHandler := handlers.NewRootHandler()
	transitHandler := handlers.NewTransitHandler(buses, directions, snapshots, cacheObserver, cfg.Location, 2*cfg.HTTPTimeout)

	// Serve frontend (if provided)
	if webFS != nil {
		mux.Handle("GET /{$}", http.FileServer(http.FS(webFS)))
	} else {
		mux.HandleFunc("GET /{$}", rootHandler.Index)
	}
	mux.HandleFunc("/", rootHandler.NotFound)

	// Core routes
	mux.HandleFunc("GET /health", healthHandler.Health)
	if collector != nil {
		mux.Handle("GET /metrics", collector.Handler())
	}

	// API routes, rate limited per client IP
	limited := RateLimit(cfg.RateLimit)
	mux.Handle("GET /api", limited(http.HandlerFunc(rootHandler.Index)))
	mux.Handle("GET /api/buses", limited(http.HandlerFunc(transitHandler.GetBuses)))
	mux.Handle("GET /api/directions", limited(http.HandlerFunc(transitHandler.GetDirections)))
	mux.Handle("GET /api/schedule", limited(http.HandlerFunc(transitHandler.GetSchedule)))

	timeout := 2*cfg.HTTPTimeout + 5*time.Second

	// Apply middleware stack. Forwarding headers are only believed behind a
	// trusted proxy; otherwise the rate limiter keys on the connection address.
	stack := []func(http.Handler) http.Handler{RequestID, Recovery}
	if cfg.TrustedProxy {
		stack = append(stack, middleware.RealIP)
	}
	stack = append(stack,
		Logging,
		SecurityHeaders,
		TrustedHost(cfg.AllowedHosts),
		CORS(cfg.AllowedOrigins),
		Timeout(timeout),
	)
	handler := Chain(mux, stack...)

	return otelhttp.NewHandler(handler, "busmon",
		otelhttp.WithSpanNameFormatter(func(_ string, r *http.Request) string {
			return r.Method + " " + r.URL.Path
		}),
	)
}
