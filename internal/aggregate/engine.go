package aggregate

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/rollcall/gradebook/config"
	"github.com/rollcall/gradebook/internal/errors"
	"github.com/rollcall/gradebook/internal/logging"
	"github.com/rollcall/gradebook/internal/record"
	"github.com/rollcall/gradebook/internal/schema"
)

var log = logging.Component("aggregate")

// =============================================================================
// Failure Mode
// =============================================================================

// FailureMode controls how a run reacts to a record that fails to parse.
type FailureMode int

const (
	// AbortOnError fails the entire run on the first bad record.
	// One bad record poisons the whole batch; no partial result is returned.
	AbortOnError FailureMode = iota

	// CollectFailures returns successful metrics together with the list of
	// per-record failures.
	CollectFailures
)

// String returns the config-file name of the mode.
func (m FailureMode) String() string {
	switch m {
	case AbortOnError:
		return "abort"
	case CollectFailures:
		return "partial"
	default:
		return fmt.Sprintf("FailureMode(%d)", int(m))
	}
}

// ParseFailureMode converts a config-file string to a FailureMode.
func ParseFailureMode(s string) (FailureMode, error) {
	switch s {
	case "", "abort":
		return AbortOnError, nil
	case "partial":
		return CollectFailures, nil
	default:
		return AbortOnError, fmt.Errorf("unknown failure mode %q", s)
	}
}

// =============================================================================
// Engine Configuration
// =============================================================================

// Config holds engine configuration.
type Config struct {
	// Workers is the number of concurrent workers. Workers beyond the number
	// of chunks find no work and exit immediately.
	Workers int

	// Mode is the failure policy for records that fail to parse.
	Mode FailureMode

	// PercentileAccuracy is the DDSketch relative accuracy for field
	// summaries.
	PercentileAccuracy float64
}

// DefaultConfig returns default engine configuration.
func DefaultConfig() *Config {
	return &Config{
		Workers:            config.DefaultAggregateWorkers,
		Mode:               AbortOnError,
		PercentileAccuracy: config.DefaultPercentileAccuracy,
	}
}

// =============================================================================
// Engine
// =============================================================================

// Engine computes derived metrics for record sets.
//
// Engine is stateless between runs and safe for concurrent use.
type Engine struct {
	schema   schema.Schema
	workers  int
	mode     FailureMode
	accuracy float64
}

// New creates an Engine for the given schema.
func New(s schema.Schema, cfg *Config) *Engine {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	workers := cfg.Workers
	if workers < 1 {
		workers = 1
	}
	accuracy := cfg.PercentileAccuracy
	if accuracy <= 0 {
		accuracy = config.DefaultPercentileAccuracy
	}
	return &Engine{
		schema:   s,
		workers:  workers,
		mode:     cfg.Mode,
		accuracy: accuracy,
	}
}

// Mode returns the engine's failure policy.
func (e *Engine) Mode() FailureMode {
	return e.mode
}

// =============================================================================
// Partitioning
// =============================================================================

// ChunkSize returns the static chunk size for n records and the given worker
// count: max(n/workers, 1). Tail chunks may be smaller.
func ChunkSize(n, workers int) int {
	if workers < 1 {
		workers = 1
	}
	size := n / workers
	if size < 1 {
		size = 1
	}
	return size
}

// Partition splits the record set into contiguous chunks of ChunkSize
// records. Every record lands in exactly one chunk and concatenating the
// chunks in order reconstructs the input.
func Partition(records record.Set, workers int) []record.Set {
	if len(records) == 0 {
		return nil
	}
	size := ChunkSize(len(records), workers)
	chunks := make([]record.Set, 0, (len(records)+size-1)/size)
	for start := 0; start < len(records); start += size {
		end := start + size
		if end > len(records) {
			end = len(records)
		}
		chunks = append(chunks, records[start:end])
	}
	return chunks
}

// =============================================================================
// ComputeAverages
// =============================================================================

// Metric is the derived output for one record: the arithmetic mean of its
// numeric fields, rounded to two decimals.
type Metric struct {
	ID      string  `json:"id"`
	Name    string  `json:"name"`
	Average float64 `json:"average"`
}

// Result is the merged output of one run. Failures is populated only under
// CollectFailures.
type Result struct {
	Metrics  []Metric
	Failures []*errors.FieldParseError
}

// AllFailed reports whether a non-empty input produced no metrics at all, a
// condition distinct from "nothing to process".
func (r *Result) AllFailed() bool {
	return len(r.Metrics) == 0 && len(r.Failures) > 0
}

// chunkResult carries one worker's output for one chunk to the collector.
type chunkResult struct {
	metrics  []Metric
	failures []*errors.FieldParseError
}

// ComputeAverages computes one Metric per record using the engine's worker
// pool. An empty record set yields an empty result without error.
//
// Under AbortOnError the first parse failure cancels the run through the
// group context and is returned; no partial result escapes. The context is
// also checked between chunks, so callers can cancel or time out a run.
func (e *Engine) ComputeAverages(ctx context.Context, records record.Set) (*Result, error) {
	if len(records) == 0 {
		return &Result{}, nil
	}

	chunks := Partition(records, e.workers)

	// The work queue is fully deposited and closed before any worker starts:
	// each chunk is delivered to exactly one worker.
	jobs := make(chan record.Set, len(chunks))
	for _, chunk := range chunks {
		jobs <- chunk
	}
	close(jobs)

	// Buffered to chunk count so workers never block on the collector.
	results := make(chan chunkResult, len(chunks))

	log.Debug("run partitioned",
		"records", len(records), "chunks", len(chunks), "workers", e.workers)

	g, ctx := errgroup.WithContext(ctx)
	for i := 0; i < e.workers; i++ {
		g.Go(func() error {
			for chunk := range jobs {
				if err := ctx.Err(); err != nil {
					return err
				}
				cr, err := e.processChunk(chunk)
				if err != nil {
					return err
				}
				results <- cr
			}
			return nil
		})
	}

	// Join barrier: every worker must have observed the empty queue and
	// exited before any result is merged.
	if err := g.Wait(); err != nil {
		log.Warn("run failed", "records", len(records), "error", err)
		return nil, err
	}
	close(results)

	res := &Result{}
	for cr := range results {
		res.Metrics = append(res.Metrics, cr.metrics...)
		res.Failures = append(res.Failures, cr.failures...)
	}

	log.Info("run complete",
		"records", len(records), "metrics", len(res.Metrics), "failures", len(res.Failures))
	return res, nil
}

// processChunk computes metrics for one chunk, preserving the chunk's input
// order in its contribution.
func (e *Engine) processChunk(chunk record.Set) (chunkResult, error) {
	var cr chunkResult
	for i := range chunk {
		avg, perr := e.averageOf(chunk[i])
		if perr != nil {
			if e.mode == AbortOnError {
				return chunkResult{}, perr
			}
			cr.failures = append(cr.failures, perr)
			continue
		}
		cr.metrics = append(cr.metrics, Metric{
			ID:      chunk[i].ID,
			Name:    chunk[i].Name,
			Average: avg,
		})
	}
	return cr, nil
}
