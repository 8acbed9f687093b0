// Package internaldefs holds the metric names, help strings and bucket
// bounds shared by the exporters, so the Prometheus and OpenTelemetry views
// of an engine stay identical.
//
// It performs no I/O.
package internaldefs
