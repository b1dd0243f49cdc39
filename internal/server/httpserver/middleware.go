package httpserver

import (
	"context"
	"net"
	"net/http"
	"net/netip"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/yndnr/recordsvc/internal/core/domain"
	"github.com/yndnr/recordsvc/internal/core/service"
	"github.com/yndnr/recordsvc/internal/server/httpserver/handler"
	"github.com/yndnr/recordsvc/internal/telemetry/logger"
)

// Context keys for request-scoped values.
type contextKey string

const (
	// ContextKeyAPIKey is the context key for authenticated API key.
	ContextKeyAPIKey contextKey = "api_key"

	// ContextKeyStartTime is the context key for request start time.
	ContextKeyStartTime contextKey = "start_time"

	// contextKeyAuditEntry carries the audit entry filled in by inner middleware.
	contextKeyAuditEntry contextKey = "audit_entry"

	contextKeyClientIP contextKey = "client_ip"
)

// auditEntry collects facts learned deeper in the chain for the access log.
type auditEntry struct {
	apiKey *domain.APIKey
}

// maxRequestIDLength bounds inbound X-Request-ID values that are echoed back.
const maxRequestIDLength = 128

// Middleware wraps an http.Handler with additional functionality.
type Middleware func(http.Handler) http.Handler

// Chain chains multiple middlewares together. The first middleware is the
// outermost one.
func Chain(h http.Handler, middlewares ...Middleware) http.Handler {
	for i := len(middlewares) - 1; i >= 0; i-- {
		h = middlewares[i](h)
	}
	return h
}

// RequestObserver records per-request metrics.
type RequestObserver interface {
	ObserveRequest(method, route string, status int, elapsed time.Duration)
}

// RequestID adds a unique request ID to each request.
// An inbound X-Request-ID is kept when present and reasonably short.
func RequestID() Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			requestID := r.Header.Get("X-Request-ID")
			if requestID == "" || len(requestID) > maxRequestIDLength {
				requestID = "req-" + strings.ToLower(ulid.Make().String())
			}

			w.Header().Set("X-Request-ID", requestID)

			ctx := logger.WithRequestID(r.Context(), requestID)
			ctx = context.WithValue(ctx, ContextKeyStartTime, time.Now())

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// Auth authenticates the caller with an API key and stores it in the
// request context.
func Auth(authSvc *service.AuthService) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			keyID, keySecret := extractAPIKeyCredentials(r)
			if keyID == "" || keySecret == "" {
				handler.WriteDomainError(w, r, domain.ErrAPIKeyMissing)
				return
			}

			resp, err := authSvc.ValidateAPIKey(r.Context(), &service.ValidateAPIKeyRequest{
				KeyID:     keyID,
				KeySecret: keySecret,
				ClientIP:  getClientIP(r),
			})
			if err != nil {
				handler.WriteDomainError(w, r, err)
				return
			}
			if !resp.Valid || resp.APIKey == nil {
				handler.WriteDomainError(w, r, domain.ErrAPIKeyInvalid)
				return
			}

			if err := authSvc.CheckRateLimit(r.Context(), resp.APIKey.KeyID, resp.APIKey.RateLimit); err != nil {
				w.Header().Set("Retry-After", "1")
				handler.WriteDomainError(w, r, err)
				return
			}

			if entry, ok := r.Context().Value(contextKeyAuditEntry).(*auditEntry); ok {
				entry.apiKey = resp.APIKey
			}

			ctx := context.WithValue(r.Context(), ContextKeyAPIKey, resp.APIKey)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequirePermission creates a middleware that checks for specific permission.
// It must run after Auth.
func RequirePermission(authSvc *service.AuthService, perm domain.Permission) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			apiKey := GetAPIKeyFromContext(r.Context())
			if apiKey == nil {
				handler.WriteDomainError(w, r, domain.ErrAPIKeyMissing)
				return
			}

			if err := authSvc.CheckPermission(apiKey, perm); err != nil {
				handler.WriteDomainError(w, r, err)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// RateLimit applies per client IP rate limiting with a token bucket of
// requestsPerSecond tokens.
func RateLimit(requestsPerSecond int) Middleware {
	limiters := service.NewRateLimiterRegistry()

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !limiters.GetOrCreate(getClientIP(r), requestsPerSecond).Allow() {
				w.Header().Set("Retry-After", "1")
				handler.WriteDomainError(w, r, domain.ErrRateLimited)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// Metrics reports method, matched route, status and latency of each request.
func Metrics(obs RequestObserver) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			wrapped := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

			next.ServeHTTP(wrapped, r)

			obs.ObserveRequest(r.Method, routeLabel(r), wrapped.statusCode, time.Since(start))
		})
	}
}

// routeLabel returns the path part of the matched ServeMux pattern so that
// label cardinality stays bounded.
func routeLabel(r *http.Request) string {
	pattern := r.Pattern
	if pattern == "" {
		return "unmatched"
	}
	if i := strings.IndexByte(pattern, ' '); i >= 0 {
		pattern = pattern[i+1:]
	}
	return pattern
}

// Audit logs request/response for audit trail.
func Audit(l logger.Logger) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			wrapped := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
			entry := &auditEntry{}

			next.ServeHTTP(wrapped, r.WithContext(context.WithValue(r.Context(), contextKeyAuditEntry, entry)))

			startTime, ok := r.Context().Value(ContextKeyStartTime).(time.Time)
			if !ok {
				startTime = time.Now()
			}

			attrs := []any{
				"request_id", logger.RequestIDFromContext(r.Context()),
				"method", r.Method,
				"path", r.URL.Path,
				"status", wrapped.statusCode,
				"duration_ms", time.Since(startTime).Milliseconds(),
				"client_ip", getClientIP(r),
			}

			if entry.apiKey != nil {
				attrs = append(attrs, "api_key_id", entry.apiKey.KeyID, "role", string(entry.apiKey.Role))
			}

			switch {
			case wrapped.statusCode >= 500:
				l.Error("request completed with error", attrs...)
			case wrapped.statusCode >= 400:
				l.Warn("request completed with client error", attrs...)
			default:
				l.Info("request completed", attrs...)
			}
		})
	}
}

// Recover recovers from panics and returns 500 error.
func Recover(l logger.Logger) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if err := recover(); err != nil {
					if err == http.ErrAbortHandler {
						panic(err)
					}
					l.Error("panic recovered",
						"request_id", logger.RequestIDFromContext(r.Context()),
						"error", err,
						"path", r.URL.Path,
					)
					handler.WriteDomainError(w, r, domain.ErrInternalServer)
				}
			}()

			next.ServeHTTP(w, r)
		})
	}
}

// extractAPIKeyCredentials extracts API key credentials from request headers.
// It supports three formats:
// 1. Authorization: Bearer <key_id>:<key_secret>
// 2. X-API-Key: <key_id>:<key_secret>
// 3. X-API-Key-ID + X-API-Key headers
func extractAPIKeyCredentials(r *http.Request) (keyID, keySecret string) {
	authHeader := r.Header.Get("Authorization")
	if strings.HasPrefix(authHeader, "Bearer ") {
		token := strings.TrimPrefix(authHeader, "Bearer ")
		if id, secret, ok := strings.Cut(token, ":"); ok {
			return id, secret
		}
	}

	if apiKey := r.Header.Get("X-API-Key"); apiKey != "" {
		if id, secret, ok := strings.Cut(apiKey, ":"); ok {
			return id, secret
		}
	}

	return r.Header.Get("X-API-Key-ID"), r.Header.Get("X-API-Key")
}

// CORSMethods are the methods advertised to browsers.
const CORSMethods = "GET, POST, PUT, DELETE, OPTIONS"

// CORS adds Cross-Origin Resource Sharing headers.
// An empty allowedOrigins allows every origin; credentials are only allowed
// for origins that are listed explicitly.
func CORS(allowedOrigins []string) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")

			allowed := len(allowedOrigins) == 0
			explicit := false
			for _, o := range allowedOrigins {
				if o == origin {
					allowed, explicit = true, true
					break
				}
				if o == "*" {
					allowed = true
				}
			}

			if allowed && origin != "" {
				h := w.Header()
				h.Set("Access-Control-Allow-Origin", origin)
				h.Add("Vary", "Origin")
				h.Set("Access-Control-Allow-Methods", CORSMethods)
				h.Set("Access-Control-Allow-Headers", "Content-Type, X-API-Key-ID, X-API-Key, X-Request-ID, Authorization")
				h.Set("Access-Control-Expose-Headers", "Location, X-Request-ID, X-Error-Code")
				h.Set("Access-Control-Max-Age", "86400")
				if explicit {
					h.Set("Access-Control-Allow-Credentials", "true")
				}
			}

			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// responseWriter wraps http.ResponseWriter to capture status code.
type responseWriter struct {
	http.ResponseWriter
	statusCode  int
	wroteHeader bool
}

func (w *responseWriter) WriteHeader(code int) {
	if !w.wroteHeader {
		w.statusCode = code
		w.wroteHeader = true
	}
	w.ResponseWriter.WriteHeader(code)
}

func (w *responseWriter) Write(b []byte) (int, error) {
	w.wroteHeader = true
	return w.ResponseWriter.Write(b)
}

// Unwrap lets http.ResponseController reach the underlying writer.
func (w *responseWriter) Unwrap() http.ResponseWriter {
	return w.ResponseWriter
}

// GetAPIKeyFromContext retrieves the authenticated API key from context.
func GetAPIKeyFromContext(ctx context.Context) *domain.APIKey {
	if apiKey, ok := ctx.Value(ContextKeyAPIKey).(*domain.APIKey); ok {
		return apiKey
	}
	return nil
}

// getClientIP returns the address resolved by ClientIP, or the socket peer
// when the middleware did not run.
func getClientIP(r *http.Request) string {
	if ip, ok := r.Context().Value(contextKeyClientIP).(string); ok {
		return ip
	}
	return remoteHost(r)
}

// ClientIP resolves the caller address once per request for the rate
// limiter, the allowlist check and the access log. X-Forwarded-For and
// X-Real-IP are believed only when the socket peer is a trusted proxy.
func ClientIP(trustedProxies []netip.Prefix) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := context.WithValue(r.Context(), contextKeyClientIP, resolveClientIP(r, trustedProxies))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func resolveClientIP(r *http.Request, trusted []netip.Prefix) string {
	peer := remoteHost(r)
	if len(trusted) == 0 {
		return peer
	}
	peerAddr, err := netip.ParseAddr(peer)
	if err != nil || !domain.PrefixesContain(trusted, peerAddr) {
		return peer
	}

	// The rightmost hop that is not a trusted proxy is the client.
	if values := r.Header.Values("X-Forwarded-For"); len(values) > 0 {
		hops := strings.Split(strings.Join(values, ","), ",")
		var addr netip.Addr
		for i := len(hops) - 1; i >= 0; i-- {
			addr, err = netip.ParseAddr(strings.TrimSpace(hops[i]))
			if err != nil {
				return peer
			}
			if !domain.PrefixesContain(trusted, addr) {
				return addr.String()
			}
		}
		return addr.String()
	}

	if xri := strings.TrimSpace(r.Header.Get("X-Real-IP")); xri != "" {
		if addr, err := netip.ParseAddr(xri); err == nil {
			return addr.String()
		}
	}
	return peer
}

// remoteHost strips the port from RemoteAddr; [::1]:8080 yields ::1.
func remoteHost(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
