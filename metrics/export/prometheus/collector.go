package prometheus

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/MrEthical07/authchain"
	"github.com/MrEthical07/authchain/metrics/export/internaldefs"
)

// Source is what the collector reads. *authchain.Engine implements it.
type Source interface {
	MetricsSnapshot() authchain.MetricsSnapshot
	AuditDropped() uint64
}

type counterDesc struct {
	id   authchain.MetricID
	desc *prometheus.Desc
}

// Collector reads one engine snapshot per scrape.
type Collector struct {
	source   Source
	counters []counterDesc
	latency  *prometheus.Desc
	dropped  *prometheus.Desc
}

// NewCollector reads source on every scrape.
func NewCollector(source Source) *Collector {
	c := &Collector{
		source:   source,
		counters: make([]counterDesc, 0, len(internaldefs.CounterDefs)),
		latency:  prometheus.NewDesc(internaldefs.LatencyName, internaldefs.LatencyHelp, nil, nil),
		dropped:  prometheus.NewDesc(internaldefs.AuditDroppedName, internaldefs.AuditDroppedHelp, nil, nil),
	}
	for _, def := range internaldefs.CounterDefs {
		c.counters = append(c.counters, counterDesc{id: def.ID, desc: prometheus.NewDesc(def.Name, def.Help, nil, nil)})
	}
	return c
}

func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	for _, cd := range c.counters {
		ch <- cd.desc
	}
	ch <- c.latency
	ch <- c.dropped
}

func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	if c.source == nil {
		return
	}
	snapshot := c.source.MetricsSnapshot()
	for _, cd := range c.counters {
		ch <- prometheus.MustNewConstMetric(cd.desc, prometheus.CounterValue, float64(snapshot.Counters[cd.id]))
	}

	if snapshot.Latency != nil {
		cumulative := internaldefs.CumulativeBuckets(internaldefs.NormalizeBuckets(snapshot.Latency))
		buckets := make(map[float64]uint64, len(internaldefs.BoundSeconds))
		for i, bound := range internaldefs.BoundSeconds {
			buckets[bound] = cumulative[i]
		}
		// The engine keeps no latency sum.
		ch <- prometheus.MustNewConstHistogram(c.latency, cumulative[len(cumulative)-1], 0, buckets)
	}

	ch <- prometheus.MustNewConstMetric(c.dropped, prometheus.CounterValue, float64(c.source.AuditDropped()))
}

// Handler serves the collector and Go runtime metrics from a
// private registry.
func Handler(source Source) (http.Handler, error) {
	reg := prometheus.NewRegistry()
	if err := reg.Register(NewCollector(source)); err != nil {
		return nil, err
	}
	if err := reg.Register(collectors.NewGoCollector()); err != nil {
		return nil, err
	}
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}), nil
}
