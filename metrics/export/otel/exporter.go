package otel

import (
	"context"
	"errors"
	"fmt"

	"go.opentelemetry.io/otel/metric"

	"github.com/MrEthical07/authchain"
	"github.com/MrEthical07/authchain/metrics/export/internaldefs"
)

var (
	ErrNilMeter  = errors.New("nil meter")
	ErrNilSource = errors.New("nil metrics source")
)

// Source is what the exporter reads. *authchain.Engine implements it.
type Source interface {
	MetricsSnapshot() authchain.MetricsSnapshot
	AuditDropped() uint64
}

type observedCounter struct {
	id         authchain.MetricID
	instrument metric.Int64ObservableCounter
}

// Exporter publishes engine metrics as OpenTelemetry observable instruments.
type Exporter struct {
	source       Source
	registration metric.Registration
	counters     []observedCounter
	buckets      [authchain.HistogramBuckets]metric.Int64ObservableGauge
	count        metric.Int64ObservableGauge
	auditDropped metric.Int64ObservableCounter
}

// NewExporter registers instruments and a callback on meter. Call Close to
// unregister.
func NewExporter(meter metric.Meter, source Source) (*Exporter, error) {
	if meter == nil {
		return nil, ErrNilMeter
	}
	if source == nil {
		return nil, ErrNilSource
	}

	e := &Exporter{
		source:   source,
		counters: make([]observedCounter, 0, len(internaldefs.CounterDefs)),
	}
	observables := make([]metric.Observable, 0, len(internaldefs.CounterDefs)+authchain.HistogramBuckets+2)

	for _, def := range internaldefs.CounterDefs {
		ins, err := meter.Int64ObservableCounter(def.Name, metric.WithDescription(def.Help))
		if err != nil {
			return nil, fmt.Errorf("create observable counter %s: %w", def.Name, err)
		}
		e.counters = append(e.counters, observedCounter{id: def.ID, instrument: ins})
		observables = append(observables, ins)
	}

	for i, suffix := range internaldefs.BoundSuffix {
		name := internaldefs.LatencyName + "_bucket_le_" + suffix
		ins, err := meter.Int64ObservableGauge(name, metric.WithDescription("Cumulative histogram bucket count."))
		if err != nil {
			return nil, fmt.Errorf("create histogram bucket gauge %s: %w", name, err)
		}
		e.buckets[i] = ins
		observables = append(observables, ins)
	}
	count, err := meter.Int64ObservableGauge(internaldefs.LatencyName+"_count", metric.WithDescription("Histogram total sample count."))
	if err != nil {
		return nil, fmt.Errorf("create histogram count gauge: %w", err)
	}
	e.count = count
	observables = append(observables, count)

	dropped, err := meter.Int64ObservableCounter(internaldefs.AuditDroppedName, metric.WithDescription(internaldefs.AuditDroppedHelp))
	if err != nil {
		return nil, fmt.Errorf("create audit dropped counter: %w", err)
	}
	e.auditDropped = dropped
	observables = append(observables, dropped)

	e.registration, err = meter.RegisterCallback(e.observe, observables...)
	if err != nil {
		return nil, fmt.Errorf("register callback: %w", err)
	}
	return e, nil
}

func (e *Exporter) observe(_ context.Context, observer metric.Observer) error {
	snapshot := e.source.MetricsSnapshot()
	for _, c := range e.counters {
		observer.ObserveInt64(c.instrument, int64(snapshot.Counters[c.id]))
	}
	if snapshot.Latency != nil {
		cumulative := internaldefs.CumulativeBuckets(internaldefs.NormalizeBuckets(snapshot.Latency))
		for i, v := range cumulative {
			observer.ObserveInt64(e.buckets[i], int64(v))
		}
		observer.ObserveInt64(e.count, int64(cumulative[len(cumulative)-1]))
	}
	observer.ObserveInt64(e.auditDropped, int64(e.source.AuditDropped()))
	return nil
}

// Close unregisters the callback.
func (e *Exporter) Close() error {
	if e == nil || e.registration == nil {
		return nil
	}
	return e.registration.Unregister()
}
