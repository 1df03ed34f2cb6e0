// Package prometheus exposes goNotes counters and latency histograms through
// a prometheus.Collector.
//
// [NewCollector] accepts a [goNotes.Engine]; [Handler] serves it in the
// Prometheus exposition format. Counter names are notes_*_total and latency
// histograms are notes_*_latency_seconds.
//
// # What this package must NOT do
//
//   - Register metrics in the global Prometheus registry.
//   - Mutate engine state.
package prometheus
