package benchmark

import (
	"context"
	"fmt"
	"io"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/yndnr/recordsvc/internal/core/domain"
	"github.com/yndnr/recordsvc/internal/storage/memory"
	"github.com/yndnr/recordsvc/internal/telemetry/logger"
)

// RecordCounts are the store sizes the list benchmarks run against.
var RecordCounts = []int{100, 1000, 10000}

func newRecord(i int) *domain.Record {
	start := time.Now().UTC().AddDate(0, 0, -30)
	return &domain.Record{
		Date:                time.Now().UTC(),
		Name:                fmt.Sprintf("Project %d", i),
		Alpha:               decimal.NewFromFloat(125.5),
		Beta:                decimal.NewFromInt(int64(i)),
		Gamma:               decimal.RequireFromString("203.75"),
		Delta:               decimal.Zero,
		Milestone1StartDate: &start,
		ClientName:          "Acme Corporation",
		AgentName:           "John Smith",
	}
}

func prefillStore(b *testing.B, store *memory.RecordStore, count int) []int64 {
	b.Helper()
	ids := make([]int64, count)
	for i := 0; i < count; i++ {
		r, err := store.Create(context.Background(), newRecord(i))
		if err != nil {
			b.Fatalf("Create() error = %v", err)
		}
		ids[i] = r.ID
	}
	return ids
}

func quietLogger(b *testing.B) logger.Logger {
	b.Helper()
	log, err := logger.New(logger.Config{Level: "error", Output: io.Discard})
	if err != nil {
		b.Fatal(err)
	}
	return log
}
