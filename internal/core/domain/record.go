package domain

import (
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/shopspring/decimal"
)

// Record constraints.
const (
	MaxNameLength       = 200
	MaxClientNameLength = 200
	MaxAgentNameLength  = 200
)

// Record is the single business entity tracked by the service: a named item
// with four decimal amounts, a date, two optional milestone date pairs and the
// client/agent it belongs to.
type Record struct {
	// ID is assigned by the store and never reused within a process lifetime.
	ID int64 `json:"id"`

	Date time.Time `json:"date"`
	Name string    `json:"name"`

	Alpha decimal.Decimal `json:"alpha"`
	Beta  decimal.Decimal `json:"beta"`
	Gamma decimal.Decimal `json:"gamma"`
	Delta decimal.Decimal `json:"delta"`

	// Milestone timestamps are nil while the milestone has not started or
	// completed.
	Milestone1StartDate      *time.Time `json:"milestone1StartDate"`
	Milestone1CompletionDate *time.Time `json:"milestone1CompletionDate"`
	Milestone2StartDate      *time.Time `json:"milestone2StartDate"`
	Milestone2CompletionDate *time.Time `json:"milestone2CompletionDate"`

	ClientName string `json:"clientName"`
	AgentName  string `json:"agentName"`
}

// Validate checks required fields and length bounds.
// Returns ErrRecordValidation with every violation listed in Details.
func (r *Record) Validate() error {
	var violations []string

	if r.Date.IsZero() {
		violations = append(violations, "date is required")
	}

	violations = appendTextViolations(violations, "name", r.Name, MaxNameLength)
	violations = appendTextViolations(violations, "clientName", r.ClientName, MaxClientNameLength)
	violations = appendTextViolations(violations, "agentName", r.AgentName, MaxAgentNameLength)

	if len(violations) > 0 {
		return ErrRecordValidation.WithDetails(strings.Join(violations, "; "))
	}
	return nil
}

func appendTextViolations(violations []string, field, value string, max int) []string {
	if strings.TrimSpace(value) == "" {
		return append(violations, field+" is required")
	}
	if utf8.RuneCountInString(value) > max {
		return append(violations, field+" exceeds "+strconv.Itoa(max)+" characters")
	}
	return violations
}

// Clone creates a deep copy of the record.
func (r *Record) Clone() *Record {
	clone := *r
	clone.Milestone1StartDate = cloneTime(r.Milestone1StartDate)
	clone.Milestone1CompletionDate = cloneTime(r.Milestone1CompletionDate)
	clone.Milestone2StartDate = cloneTime(r.Milestone2StartDate)
	clone.Milestone2CompletionDate = cloneTime(r.Milestone2CompletionDate)
	return &clone
}

// Equal reports whether two records hold the same id and field values.
// Amounts compare numerically (1.5 equals 1.50) and times by instant.
func (r *Record) Equal(o *Record) bool {
	if r == nil || o == nil {
		return r == o
	}
	return r.ID == o.ID &&
		r.Date.Equal(o.Date) &&
		r.Name == o.Name &&
		r.Alpha.Equal(o.Alpha) &&
		r.Beta.Equal(o.Beta) &&
		r.Gamma.Equal(o.Gamma) &&
		r.Delta.Equal(o.Delta) &&
		timePtrEqual(r.Milestone1StartDate, o.Milestone1StartDate) &&
		timePtrEqual(r.Milestone1CompletionDate, o.Milestone1CompletionDate) &&
		timePtrEqual(r.Milestone2StartDate, o.Milestone2StartDate) &&
		timePtrEqual(r.Milestone2CompletionDate, o.Milestone2CompletionDate) &&
		r.ClientName == o.ClientName &&
		r.AgentName == o.AgentName
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}

func timePtrEqual(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.Equal(*b)
}
