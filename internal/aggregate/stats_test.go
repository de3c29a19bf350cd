package aggregate

import (
	"context"
	"fmt"
	"math"
	"testing"

	"github.com/rollcall/gradebook/internal/errors"
	"github.com/rollcall/gradebook/internal/record"
)

// uniformRecords builds n records where every subject's score is the record
// index plus one, giving a known uniform distribution 1..n per field.
func uniformRecords(n int) record.Set {
	set := make(record.Set, 0, n)
	for i := 1; i <= n; i++ {
		v := fmt.Sprintf("%d", i)
		set = append(set, rec(fmt.Sprintf("s%03d", i), fmt.Sprintf("student %d", i), v, v, v))
	}
	return set
}

func TestComputeFieldSummaries(t *testing.T) {
	e := newTestEngine(8, AbortOnError)

	sum, err := e.ComputeFieldSummaries(context.Background(), uniformRecords(100))
	if err != nil {
		t.Fatalf("ComputeFieldSummaries() = %v", err)
	}

	if len(sum.Fields) != 3 {
		t.Fatalf("got %d field summaries, want 3", len(sum.Fields))
	}

	wantFields := []string{"english", "maths", "science"}
	for i, stats := range sum.Fields {
		if stats.Field != wantFields[i] {
			t.Errorf("summary %d is for %q, want %q", i, stats.Field, wantFields[i])
		}
		if stats.Count != 100 {
			t.Errorf("%s: count = %d, want 100", stats.Field, stats.Count)
		}
		if stats.Min != 1 {
			t.Errorf("%s: min = %v, want 1", stats.Field, stats.Min)
		}
		if stats.Max != 100 {
			t.Errorf("%s: max = %v, want 100", stats.Field, stats.Max)
		}
		if stats.Avg != 50.5 {
			t.Errorf("%s: avg = %v, want 50.5", stats.Field, stats.Avg)
		}

		// DDSketch quantiles are approximate; allow 5% relative error.
		if rel := math.Abs(stats.P50-50.5) / 50.5; rel > 0.05 {
			t.Errorf("%s: p50 = %v, want ~50.5", stats.Field, stats.P50)
		}
		if rel := math.Abs(stats.P99-99) / 99; rel > 0.05 {
			t.Errorf("%s: p99 = %v, want ~99", stats.Field, stats.P99)
		}
		if stats.P50 > stats.P95 || stats.P95 > stats.P99 {
			t.Errorf("%s: quantiles not monotonic: p50=%v p95=%v p99=%v",
				stats.Field, stats.P50, stats.P95, stats.P99)
		}
	}
}

func TestComputeFieldSummariesWorkerCounts(t *testing.T) {
	records := uniformRecords(50)

	for _, workers := range []int{1, 5, 50} {
		e := newTestEngine(workers, AbortOnError)
		sum, err := e.ComputeFieldSummaries(context.Background(), records)
		if err != nil {
			t.Fatalf("ComputeFieldSummaries(workers=%d) = %v", workers, err)
		}
		for _, stats := range sum.Fields {
			if stats.Count != 50 || stats.Min != 1 || stats.Max != 50 || stats.Avg != 25.5 {
				t.Errorf("workers=%d %s: %+v", workers, stats.Field, stats)
			}
		}
	}
}

func TestComputeFieldSummariesAbortsOnBadRecord(t *testing.T) {
	e := newTestEngine(4, AbortOnError)

	records := uniformRecords(10)
	records[4] = rec("bad", "Broken", "1", "not-a-number", "3")

	_, err := e.ComputeFieldSummaries(context.Background(), records)
	if !errors.IsFieldParse(err) {
		t.Errorf("ComputeFieldSummaries() = %v, want ErrFieldParse", err)
	}
}

func TestComputeFieldSummariesCollectFailures(t *testing.T) {
	e := newTestEngine(4, CollectFailures)

	records := uniformRecords(10)
	records[4] = rec("bad", "Broken", "1", "not-a-number", "3")

	sum, err := e.ComputeFieldSummaries(context.Background(), records)
	if err != nil {
		t.Fatalf("ComputeFieldSummaries() = %v", err)
	}
	if len(sum.Failures) != 1 || sum.Failures[0].ID != "bad" {
		t.Fatalf("failures = %+v, want one failure for record bad", sum.Failures)
	}
	// A failed record contributes to no field at all.
	for _, stats := range sum.Fields {
		if stats.Count != 9 {
			t.Errorf("%s: count = %d, want 9", stats.Field, stats.Count)
		}
	}
}

func TestComputeFieldSummariesEmptyInput(t *testing.T) {
	e := newTestEngine(4, AbortOnError)

	sum, err := e.ComputeFieldSummaries(context.Background(), nil)
	if err != nil {
		t.Fatalf("ComputeFieldSummaries(empty) = %v", err)
	}
	if len(sum.Fields) != 3 {
		t.Fatalf("got %d field summaries, want 3", len(sum.Fields))
	}
	for _, stats := range sum.Fields {
		if stats.Count != 0 {
			t.Errorf("%s: count = %d, want 0", stats.Field, stats.Count)
		}
	}
}
