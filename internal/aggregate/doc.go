// Package aggregate computes derived metrics over a record set with a fixed
// pool of concurrent workers.
//
// A run is one-shot: the record set is partitioned into contiguous chunks,
// the chunks are deposited into a work queue before any worker starts, and a
// bounded pool of workers drains the queue. Each worker parses the schema's
// numeric fields of every record in its chunk and emits one metric per
// record. Per-chunk results are merged by a single collector after every
// worker has exited, so no result is visible before the join barrier.
//
// Ordering: within one chunk's contribution the input order is preserved;
// across chunks no ordering is guaranteed.
//
// Failure policy: under AbortOnError (the default) the first record that
// fails to parse cancels the whole run and no partial result is returned.
// CollectFailures instead returns the successful metrics alongside the list
// of per-record failures.
package aggregate
