// Package metrics collects per-host dispatch metrics.
//
// It uses a channel-based event pipeline to asynchronously record:
//   - Attempts and transport failures per host
//   - Host disable and recovery transitions
//   - Response times with percentile calculations (P50, P95, P99)
//   - Status code distribution of application responses
//   - Dispatches that exhausted their retry budget
//
// The collector runs in a dedicated goroutine. Emit never blocks the
// dispatch path; events are dropped when the buffer is full.
//
// Example usage:
//
//	collector := metrics.NewCollector(1000, logger)
//	go collector.Run(ctx)
//
//	collector.Emit(metrics.MetricEvent{
//		Type:       metrics.EventResponseCompleted,
//		Host:       "db1.local:8086",
//		Duration:   150 * time.Millisecond,
//		StatusCode: 200,
//	})
//
//	snapshot := collector.Snapshot("round-robin")
package metrics
