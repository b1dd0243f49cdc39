package handler

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/yndnr/recordsvc/internal/core/domain"
	"github.com/yndnr/recordsvc/internal/infra/buildinfo"
)

// ErrorResponse is the error envelope written for every failed request.
type ErrorResponse struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	RequestID string `json:"request_id"`
	Timestamp int64  `json:"timestamp"`
	Details   any    `json:"details,omitempty"`
}

// NewErrorResponse creates an error response.
func NewErrorResponse(requestID, code, message string, details any) *ErrorResponse {
	return &ErrorResponse{
		Code:      code,
		Message:   message,
		RequestID: requestID,
		Timestamp: time.Now().UnixMilli(),
		Details:   details,
	}
}

// Timestamp is a point in time accepted as RFC 3339, as a date-time without
// zone (read as UTC), or as a plain date.
type Timestamp struct {
	time.Time
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02",
}

// UnmarshalJSON implements json.Unmarshaler.
func (t *Timestamp) UnmarshalJSON(data []byte) error {
	if bytes.Equal(data, []byte("null")) {
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("timestamp must be a string: %w", err)
	}
	for _, layout := range timestampLayouts {
		if parsed, err := time.Parse(layout, s); err == nil {
			t.Time = parsed
			return nil
		}
	}
	return fmt.Errorf("invalid timestamp %q", s)
}

func (t *Timestamp) timePtr() *time.Time {
	if t == nil {
		return nil
	}
	v := t.Time
	return &v
}

// RecordRequest is the request body for POST /records and PUT /records/{id}.
// Amounts accept JSON numbers or numeric strings.
type RecordRequest struct {
	ID                       int64            `json:"id"`
	Date                     *Timestamp       `json:"date"`
	Name                     string           `json:"name"`
	Alpha                    *decimal.Decimal `json:"alpha"`
	Beta                     *decimal.Decimal `json:"beta"`
	Gamma                    *decimal.Decimal `json:"gamma"`
	Delta                    *decimal.Decimal `json:"delta"`
	Milestone1StartDate      *Timestamp       `json:"milestone1StartDate"`
	Milestone1CompletionDate *Timestamp       `json:"milestone1CompletionDate"`
	Milestone2StartDate      *Timestamp       `json:"milestone2StartDate"`
	Milestone2CompletionDate *Timestamp       `json:"milestone2CompletionDate"`
	ClientName               string           `json:"clientName"`
	AgentName                string           `json:"agentName"`
}

// ToRecord converts the payload into a domain record.
// Absent amounts are reported together with any other field violations.
func (req *RecordRequest) ToRecord() (*domain.Record, error) {
	rec := &domain.Record{
		ID:                       req.ID,
		Name:                     req.Name,
		Milestone1StartDate:      req.Milestone1StartDate.timePtr(),
		Milestone1CompletionDate: req.Milestone1CompletionDate.timePtr(),
		Milestone2StartDate:      req.Milestone2StartDate.timePtr(),
		Milestone2CompletionDate: req.Milestone2CompletionDate.timePtr(),
		ClientName:               req.ClientName,
		AgentName:                req.AgentName,
	}
	if req.Date != nil {
		rec.Date = req.Date.Time
	}

	var missing []string
	amounts := []struct {
		name string
		src  *decimal.Decimal
		dst  *decimal.Decimal
	}{
		{"alpha", req.Alpha, &rec.Alpha},
		{"beta", req.Beta, &rec.Beta},
		{"gamma", req.Gamma, &rec.Gamma},
		{"delta", req.Delta, &rec.Delta},
	}
	for _, a := range amounts {
		if a.src == nil {
			missing = append(missing, a.name+" is required")
			continue
		}
		*a.dst = *a.src
	}

	if len(missing) == 0 {
		return rec, nil
	}

	if err := rec.Validate(); err != nil {
		var de *domain.DomainError
		if errors.As(err, &de) && de.Details != "" {
			missing = append(strings.Split(de.Details, "; "), missing...)
		}
	}
	return nil, domain.ErrRecordValidation.WithDetails(strings.Join(missing, "; "))
}

// RecordResponse is a record as returned by the API. Amounts are JSON
// numbers carrying the exact decimal value; absent milestones are null.
type RecordResponse struct {
	ID                       int64       `json:"id"`
	Date                     time.Time   `json:"date"`
	Name                     string      `json:"name"`
	Alpha                    json.Number `json:"alpha"`
	Beta                     json.Number `json:"beta"`
	Gamma                    json.Number `json:"gamma"`
	Delta                    json.Number `json:"delta"`
	Milestone1StartDate      *time.Time  `json:"milestone1StartDate"`
	Milestone1CompletionDate *time.Time  `json:"milestone1CompletionDate"`
	Milestone2StartDate      *time.Time  `json:"milestone2StartDate"`
	Milestone2CompletionDate *time.Time  `json:"milestone2CompletionDate"`
	ClientName               string      `json:"clientName"`
	AgentName                string      `json:"agentName"`
}

// NewRecordResponse converts a domain record for encoding.
func NewRecordResponse(r *domain.Record) RecordResponse {
	return RecordResponse{
		ID:                       r.ID,
		Date:                     r.Date,
		Name:                     r.Name,
		Alpha:                    amountNumber(r.Alpha),
		Beta:                     amountNumber(r.Beta),
		Gamma:                    amountNumber(r.Gamma),
		Delta:                    amountNumber(r.Delta),
		Milestone1StartDate:      r.Milestone1StartDate,
		Milestone1CompletionDate: r.Milestone1CompletionDate,
		Milestone2StartDate:      r.Milestone2StartDate,
		Milestone2CompletionDate: r.Milestone2CompletionDate,
		ClientName:               r.ClientName,
		AgentName:                r.AgentName,
	}
}

// amountNumber renders d as a JSON number, keeping the scale it was
// given with (156.00 stays 156.00).
func amountNumber(d decimal.Decimal) json.Number {
	if exp := d.Exponent(); exp < 0 {
		return json.Number(d.StringFixed(-exp))
	}
	return json.Number(d.String())
}

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
}

// ReadyResponse is the body of GET /ready.
type ReadyResponse struct {
	Status    string         `json:"status"`
	Timestamp string         `json:"timestamp"`
	Build     buildinfo.Info `json:"build"`
}
