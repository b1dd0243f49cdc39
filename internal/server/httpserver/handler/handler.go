package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/yndnr/recordsvc/internal/core/domain"
	"github.com/yndnr/recordsvc/internal/infra/buildinfo"
	"github.com/yndnr/recordsvc/internal/telemetry/logger"
)

// RecordService is the record use-case API the handlers depend on.
type RecordService interface {
	List(ctx context.Context) ([]*domain.Record, error)
	Get(ctx context.Context, id int64) (*domain.Record, error)
	Create(ctx context.Context, record *domain.Record) (*domain.Record, error)
	Update(ctx context.Context, pathID int64, record *domain.Record) (*domain.Record, error)
	Delete(ctx context.Context, id int64) error
}

// Config holds the dependencies of a Handler.
type Config struct {
	Records RecordService
	Logger  logger.Logger

	// PathPrefix is prepended to the records routes ("" or e.g. "/api").
	PathPrefix string

	// Build is reported by GET /ready.
	Build buildinfo.Info
}

// Handler is the main HTTP handler that routes requests to appropriate handlers.
type Handler struct {
	records RecordService
	logger  logger.Logger
	prefix  string
	build   buildinfo.Info
	mux     *http.ServeMux
}

// New creates a new Handler with the given services.
func New(cfg Config) *Handler {
	h := &Handler{
		records: cfg.Records,
		logger:  cfg.Logger,
		prefix:  cfg.PathPrefix,
		build:   cfg.Build,
		mux:     http.NewServeMux(),
	}
	if h.logger == nil {
		h.logger = logger.Default()
	}

	h.registerRoutes()
	return h
}

// ServeHTTP implements http.Handler.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mux.ServeHTTP(w, r)
}

// RecordsPath returns the collection path for the configured prefix.
func (h *Handler) RecordsPath() string {
	return h.prefix + "/records"
}

// registerRoutes registers all HTTP routes.
func (h *Handler) registerRoutes() {
	h.mux.HandleFunc("GET /health", h.handleHealth)
	h.mux.HandleFunc("GET /ready", h.handleReady)

	records := h.RecordsPath()
	h.mux.HandleFunc("GET "+records, h.handleListRecords)
	h.mux.HandleFunc("POST "+records, h.handleCreateRecord)
	h.mux.HandleFunc("GET "+records+"/{id}", h.handleGetRecord)
	h.mux.HandleFunc("PUT "+records+"/{id}", h.handleUpdateRecord)
	h.mux.HandleFunc("DELETE "+records+"/{id}", h.handleDeleteRecord)
}

// writeJSON writes data as a bare JSON body.
func (h *Handler) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("failed to encode response", "error", err)
	}
}

// handleServiceError converts service errors to HTTP responses.
func (h *Handler) handleServiceError(w http.ResponseWriter, r *http.Request, err error) {
	if domain.IsDomainError(err, "") {
		WriteDomainError(w, r, err)
		return
	}

	logger.L(r.Context()).Error("internal error", "error", err, "path", r.URL.Path)
	WriteError(w, r, domain.ErrInternalServer.Code, domain.ErrInternalServer.Message, nil)
}

// WriteDomainError writes err in the error envelope. Errors that are not
// domain errors are reported as internal errors without their text.
func WriteDomainError(w http.ResponseWriter, r *http.Request, err error) {
	var de *domain.DomainError
	if !errors.As(err, &de) {
		de = domain.ErrInternalServer
	}

	var details any
	if de.Details != "" {
		details = de.Details
	}
	WriteError(w, r, de.Code, de.Message, details)
}

// WriteError writes an error response with the standard envelope format.
// The HTTP status is derived from the error code.
func WriteError(w http.ResponseWriter, r *http.Request, code, message string, details any) {
	requestID := logger.RequestIDFromContext(r.Context())
	response := NewErrorResponse(requestID, code, message, details)

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("X-Error-Code", code)
	w.WriteHeader(StatusForCode(code))
	_ = json.NewEncoder(w).Encode(response)
}

// StatusForCode maps error codes to HTTP status codes.
func StatusForCode(code string) int {
	switch {
	case strings.HasSuffix(code, "-4040"):
		return http.StatusNotFound
	case strings.HasSuffix(code, "-4090"):
		return http.StatusConflict
	case strings.HasSuffix(code, "-4290"):
		return http.StatusTooManyRequests
	case strings.HasSuffix(code, "-4000"), strings.HasSuffix(code, "-4001"), strings.HasSuffix(code, "-4002"):
		return http.StatusBadRequest
	case strings.HasSuffix(code, "-4010"), strings.HasSuffix(code, "-4011"), strings.HasSuffix(code, "-4012"):
		return http.StatusUnauthorized
	case strings.HasSuffix(code, "-4030"), strings.HasSuffix(code, "-4031"):
		return http.StatusForbidden
	case strings.HasPrefix(code, "RM-ARG-"):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func nowUTC() time.Time {
	return time.Now().UTC()
}
