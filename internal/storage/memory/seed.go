package memory

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/yndnr/recordsvc/internal/core/domain"
)

// SampleRecords returns the demo records loaded at start-up, with dates
// expressed relative to now.
func SampleRecords(now time.Time) []*domain.Record {
	now = now.UTC()
	daysAgo := func(d int) time.Time { return now.AddDate(0, 0, -d) }
	ptr := func(t time.Time) *time.Time { return &t }
	amount := decimal.RequireFromString

	return []*domain.Record{
		{
			Date:                     daysAgo(5),
			Name:                     "Project Alpha",
			Alpha:                    amount("125.50"),
			Beta:                     amount("87.25"),
			Gamma:                    amount("203.75"),
			Delta:                    amount("156.00"),
			Milestone1StartDate:      ptr(daysAgo(30)),
			Milestone1CompletionDate: ptr(daysAgo(20)),
			Milestone2StartDate:      ptr(daysAgo(15)),
			ClientName:               "Acme Corporation",
			AgentName:                "John Smith",
		},
		{
			Date:                     daysAgo(3),
			Name:                     "Project Beta",
			Alpha:                    amount("98.75"),
			Beta:                     amount("145.30"),
			Gamma:                    amount("78.90"),
			Delta:                    amount("234.15"),
			Milestone1StartDate:      ptr(daysAgo(25)),
			Milestone1CompletionDate: ptr(daysAgo(18)),
			Milestone2StartDate:      ptr(daysAgo(10)),
			Milestone2CompletionDate: ptr(daysAgo(2)),
			ClientName:               "TechCorp Industries",
			AgentName:                "Sarah Johnson",
		},
		{
			Date:                     daysAgo(10),
			Name:                     "Project Gamma",
			Alpha:                    amount("67.25"),
			Beta:                     amount("189.50"),
			Gamma:                    amount("123.75"),
			Delta:                    amount("87.60"),
			Milestone1StartDate:      ptr(daysAgo(40)),
			Milestone1CompletionDate: ptr(daysAgo(35)),
			ClientName:               "Global Solutions Ltd",
			AgentName:                "Mike Davis",
		},
	}
}

// Seed creates the sample records through the store, so they receive the
// first ids and the counter continues after them.
func (s *RecordStore) Seed(ctx context.Context, now time.Time) error {
	for _, r := range SampleRecords(now) {
		if _, err := s.Create(ctx, r); err != nil {
			return err
		}
	}
	return nil
}
