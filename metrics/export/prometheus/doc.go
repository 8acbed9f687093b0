// Package prometheus exposes engine metrics as a prometheus.Collector.
//
// Counters are named authchain_*_total and the latency histogram is
// authchain_verify_latency_seconds. Nothing is registered globally; callers
// register the [Collector] or mount [Handler].
package prometheus
