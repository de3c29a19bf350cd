// Package config provides configuration defaults and utilities
// for the gradebook application.
//
// This package defines all configurable constants with documented defaults.
// Users can override these values via config.yaml or environment variables.
package config

import "time"

// =============================================================================
// Network Defaults
// =============================================================================

const (
	// DefaultListenAddress is the default HTTP listen address.
	// Override via config: listen
	DefaultListenAddress = "0.0.0.0:8080"

	// DefaultReadHeaderTimeout bounds how long the server waits for request
	// headers before giving up on a connection.
	// Override via config: server.read_header_timeout_sec
	DefaultReadHeaderTimeout = 10 * time.Second
)

// =============================================================================
// Storage Defaults
// =============================================================================

const (
	// DefaultCSVPath is the default backing file for the record store.
	// Every mutation rewrites this file in full.
	// Override via config: csv.file_path
	DefaultCSVPath = "data.csv"
)

// =============================================================================
// Aggregation Defaults
// =============================================================================

const (
	// DefaultAggregateWorkers is the number of concurrent workers used to
	// compute per-record averages. Workers beyond the number of chunks find
	// no work and exit immediately.
	// Override via config: aggregate.workers
	DefaultAggregateWorkers = 10

	// DefaultFailureMode controls how the aggregation engine reacts to a
	// record that fails to parse. "abort" stops the whole run on the first
	// bad record; "partial" collects successes alongside per-record failures.
	// Override via config: aggregate.failure_mode
	DefaultFailureMode = "abort"

	// DefaultPercentileAccuracy is the DDSketch relative accuracy used for
	// per-subject distribution summaries.
	// Override via config: aggregate.percentile_accuracy
	DefaultPercentileAccuracy = 0.01
)

// =============================================================================
// Schema Defaults
// =============================================================================

// Default declared schema. The key field uniquely identifies a record; the
// numeric fields are the ones averaged by the aggregation engine.
const (
	// DefaultKeyField is the record identifier column.
	// Override via config: schema.key_field
	DefaultKeyField = "Rollno"

	// DefaultNameField is the record display-name column.
	// Override via config: schema.name_field
	DefaultNameField = "name"
)

// DefaultNumericFields returns the default ordered numeric field names.
// Override via config: schema.numeric_fields
func DefaultNumericFields() []string {
	return []string{"english", "maths", "science"}
}

// =============================================================================
// Shutdown Defaults
// =============================================================================

const (
	// DefaultDrainTimeoutSec is how long to wait for in-flight requests
	// during shutdown. This follows the Kubernetes convention
	// (terminationGracePeriodSeconds = 30s).
	// Override via config: server.drain_timeout_sec
	DefaultDrainTimeoutSec = 30
)
