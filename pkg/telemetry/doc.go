// Package telemetry provides Prometheus metrics and OpenTelemetry tracing
// for storage mediums and outbound fetches.
//
// Metrics collected (namespace "hooks" by default):
//   - hooks_storage_operations_total: Counter by backend, op and result
//   - hooks_storage_operation_duration_seconds: Histogram by backend and op
//   - hooks_storage_cache_lookups_total: Counter of cache lookups by result
//   - hooks_fetch_requests_total: Counter of fetches by status code
//   - hooks_fetch_duration_seconds: Histogram of fetch duration
//
// Example:
//
//	reg := prometheus.NewRegistry()
//	m := telemetry.NewMetrics(telemetry.WithRegistry(reg))
//	medium := storage.Instrument(storage.NewMemory(), "memory", m, nil)
//
// All Metrics methods are safe to call on a nil *Metrics, which records
// nothing.
package telemetry
