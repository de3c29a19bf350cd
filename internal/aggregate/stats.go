package aggregate

import (
	"context"
	"math"
	"sync"

	"github.com/DataDog/sketches-go/ddsketch"
	"golang.org/x/sync/errgroup"

	"github.com/rollcall/gradebook/internal/errors"
	"github.com/rollcall/gradebook/internal/record"
)

// =============================================================================
// Field Summary
// =============================================================================

// fieldSummary maintains running statistics for one numeric field across a
// run. Workers from all chunks add into it, so it carries its own lock; the
// critical section is a single observation.
type fieldSummary struct {
	mu sync.Mutex

	field string

	count int64
	sum   float64
	min   float64
	max   float64

	sketch *ddsketch.DDSketch
}

func newFieldSummary(field string, accuracy float64) *fieldSummary {
	fs := &fieldSummary{
		field: field,
		min:   math.MaxFloat64,
		max:   -math.MaxFloat64,
	}

	sketch, err := ddsketch.NewDefaultDDSketch(accuracy)
	if err == nil {
		fs.sketch = sketch
	}

	return fs
}

func (f *fieldSummary) add(value float64) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.count++
	f.sum += value

	if value < f.min {
		f.min = value
	}
	if value > f.max {
		f.max = value
	}

	if f.sketch != nil {
		f.sketch.Add(value)
	}
}

// SummaryStats is the finished distribution summary for one numeric field.
type SummaryStats struct {
	Field string  `json:"field"`
	Count int64   `json:"count"`
	Min   float64 `json:"min"`
	Max   float64 `json:"max"`
	Avg   float64 `json:"avg"`
	P50   float64 `json:"p50"`
	P95   float64 `json:"p95"`
	P99   float64 `json:"p99"`
}

func (f *fieldSummary) stats() SummaryStats {
	f.mu.Lock()
	defer f.mu.Unlock()

	stats := SummaryStats{Field: f.field, Count: f.count}
	if f.count == 0 {
		return stats
	}

	stats.Avg = Round2(f.sum / float64(f.count))
	stats.Min = f.min
	stats.Max = f.max

	if f.sketch != nil {
		p50, _ := f.sketch.GetValueAtQuantile(0.50)
		p95, _ := f.sketch.GetValueAtQuantile(0.95)
		p99, _ := f.sketch.GetValueAtQuantile(0.99)
		stats.P50 = p50
		stats.P95 = p95
		stats.P99 = p99
	}

	return stats
}

// =============================================================================
// ComputeFieldSummaries
// =============================================================================

// Summary is the merged output of one field-summary run.
type Summary struct {
	// Fields holds one entry per declared numeric field, in schema order.
	Fields []SummaryStats

	// Failures is populated only under CollectFailures.
	Failures []*errors.FieldParseError
}

// ComputeFieldSummaries computes per-field distribution summaries using the
// same chunked worker pool and failure policy as ComputeAverages.
func (e *Engine) ComputeFieldSummaries(ctx context.Context, records record.Set) (*Summary, error) {
	summaries := make([]*fieldSummary, len(e.schema.NumericFields))
	for i, field := range e.schema.NumericFields {
		summaries[i] = newFieldSummary(field, e.accuracy)
	}

	summary := &Summary{}
	if len(records) == 0 {
		for _, fs := range summaries {
			summary.Fields = append(summary.Fields, fs.stats())
		}
		return summary, nil
	}

	chunks := Partition(records, e.workers)

	jobs := make(chan record.Set, len(chunks))
	for _, chunk := range chunks {
		jobs <- chunk
	}
	close(jobs)

	failures := make(chan []*errors.FieldParseError, len(chunks))

	g, ctx := errgroup.WithContext(ctx)
	for i := 0; i < e.workers; i++ {
		g.Go(func() error {
			for chunk := range jobs {
				if err := ctx.Err(); err != nil {
					return err
				}
				var failed []*errors.FieldParseError
				for j := range chunk {
					values, perr := e.parseFields(chunk[j])
					if perr != nil {
						if e.mode == AbortOnError {
							return perr
						}
						failed = append(failed, perr)
						continue
					}
					for k, field := range e.schema.NumericFields {
						summaries[k].add(values[field])
					}
				}
				failures <- failed
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		log.Warn("summary run failed", "records", len(records), "error", err)
		return nil, err
	}
	close(failures)

	for failed := range failures {
		summary.Failures = append(summary.Failures, failed...)
	}
	for _, fs := range summaries {
		summary.Fields = append(summary.Fields, fs.stats())
	}

	log.Info("summary run complete",
		"records", len(records), "fields", len(summary.Fields), "failures", len(summary.Failures))
	return summary, nil
}
