// Package otel exports engine metrics as OpenTelemetry observable
// instruments.
//
// [NewExporter] registers one Int64ObservableCounter per engine counter and
// one Int64ObservableGauge per cumulative latency bucket. A single callback
// reads the engine snapshot on each collection. Callers own the
// MeterProvider.
package otel
