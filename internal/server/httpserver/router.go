package httpserver

import (
	"net/http"
	"net/netip"

	"github.com/yndnr/recordsvc/internal/core/domain"
	"github.com/yndnr/recordsvc/internal/core/service"
	"github.com/yndnr/recordsvc/internal/server/httpserver/handler"
	"github.com/yndnr/recordsvc/internal/telemetry/logger"
)

// RouterConfig holds configuration for the HTTP router.
type RouterConfig struct {
	// Handler serves the record, health and readiness endpoints.
	Handler *handler.Handler

	// AuthService authenticates API keys. Nil disables authentication.
	AuthService *service.AuthService

	// Logger for request logging.
	Logger logger.Logger

	// Metrics receives per-request observations. Nil disables them.
	Metrics RequestObserver

	// MetricsHandler serves GET /metrics. Nil leaves the route unregistered.
	MetricsHandler http.Handler

	// MetricsAuthRequired puts /metrics behind the metrics.read permission.
	MetricsAuthRequired bool

	// CORSAllowedOrigins is the list of allowed CORS origins (empty = allow all).
	CORSAllowedOrigins []string

	// TrustedProxies are the peers whose forwarding headers name the client.
	TrustedProxies []netip.Prefix

	// RateLimit is the request rate per client IP (requests/second, 0 = off).
	RateLimit int

	// EnableAudit enables audit logging for record requests.
	EnableAudit bool
}

// NewRouter creates and configures the HTTP router with all routes and middleware.
//
// Record routes run Recover, ClientIP, RequestID, CORS, RateLimit, Metrics, Audit and,
// when an AuthService is configured, Auth plus the permission for the method.
func NewRouter(cfg *RouterConfig) http.Handler {
	l := cfg.Logger
	if l == nil {
		l = logger.Default()
	}
	h := cfg.Handler

	base := []Middleware{Recover(l), ClientIP(cfg.TrustedProxies), RequestID(), CORS(cfg.CORSAllowedOrigins)}
	if cfg.RateLimit > 0 {
		base = append(base, RateLimit(cfg.RateLimit))
	}
	if cfg.Metrics != nil {
		base = append(base, Metrics(cfg.Metrics))
	}

	records := base
	if cfg.EnableAudit {
		records = append(records[:len(records):len(records)], Audit(l))
	}

	protect := func(perm domain.Permission) http.Handler {
		chain := records
		if cfg.AuthService != nil {
			chain = append(chain[:len(chain):len(chain)], Auth(cfg.AuthService), RequirePermission(cfg.AuthService, perm))
		}
		return Chain(h, chain...)
	}
	readHandler := protect(domain.PermRecordsRead)
	writeHandler := protect(domain.PermRecordsWrite)
	preflight := Chain(http.NotFoundHandler(), Recover(l), RequestID(), CORS(cfg.CORSAllowedOrigins))

	mux := http.NewServeMux()

	// Health endpoints - no authentication required
	open := Chain(h, base...)
	mux.Handle("GET /health", open)
	mux.Handle("GET /ready", open)

	if cfg.MetricsHandler != nil {
		chain := base
		if cfg.MetricsAuthRequired && cfg.AuthService != nil {
			chain = append(chain[:len(chain):len(chain)], Auth(cfg.AuthService), RequirePermission(cfg.AuthService, domain.PermMetricsRead))
		}
		mux.Handle("GET /metrics", Chain(cfg.MetricsHandler, chain...))
	}

	collection := h.RecordsPath()
	item := collection + "/{id}"

	mux.Handle("GET "+collection, readHandler)
	mux.Handle("POST "+collection, writeHandler)
	mux.Handle("GET "+item, readHandler)
	mux.Handle("PUT "+item, writeHandler)
	mux.Handle("DELETE "+item, writeHandler)

	mux.Handle("OPTIONS "+collection, preflight)
	mux.Handle("OPTIONS "+item, preflight)

	return mux
}
