// Package prometheus exposes the gate's metrics through
// prometheus/client_golang.
package prometheus

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	samunu "github.com/nestorzamili/samunu-project"
	"github.com/nestorzamili/samunu-project/metrics/export/internaldefs"
)

type metricsSource interface {
	MetricsSnapshot() samunu.MetricsSnapshot
	AuditDropped() uint64
}

// Exporter is a [prometheus.Collector] reading from an engine snapshot
// on every scrape. Register it with a registry, or use [Exporter.Handler]
// for a self-contained /metrics endpoint.
type Exporter struct {
	source metricsSource

	counterDescs map[samunu.MetricID]*prometheus.Desc
	histDescs    map[samunu.MetricID]*prometheus.Desc
	droppedDesc  *prometheus.Desc
}

// NewExporter creates an exporter reading from the given engine.
func NewExporter(engine *samunu.Engine) *Exporter {
	return NewExporterFromSource(engine)
}

// NewExporterFromSource creates an exporter from a custom source.
func NewExporterFromSource(source metricsSource) *Exporter {
	e := &Exporter{
		source:       source,
		counterDescs: make(map[samunu.MetricID]*prometheus.Desc, len(internaldefs.CounterDefs)),
		histDescs:    make(map[samunu.MetricID]*prometheus.Desc, len(internaldefs.HistogramDefs)),
		droppedDesc: prometheus.NewDesc(
			"samunu_audit_dropped_total",
			"Dropped audit events due to dispatcher backpressure.",
			nil, nil,
		),
	}

	for _, def := range internaldefs.CounterDefs {
		e.counterDescs[def.ID] = prometheus.NewDesc(def.Name, def.Help, nil, nil)
	}
	for _, def := range internaldefs.HistogramDefs {
		e.histDescs[def.ID] = prometheus.NewDesc(def.Name, def.Help, nil, nil)
	}

	return e
}

// Describe implements [prometheus.Collector].
func (e *Exporter) Describe(ch chan<- *prometheus.Desc) {
	for _, desc := range e.counterDescs {
		ch <- desc
	}
	for _, desc := range e.histDescs {
		ch <- desc
	}
	ch <- e.droppedDesc
}

// Collect implements [prometheus.Collector].
func (e *Exporter) Collect(ch chan<- prometheus.Metric) {
	if e == nil || e.source == nil {
		return
	}

	snapshot := e.source.MetricsSnapshot()

	for _, def := range internaldefs.CounterDefs {
		ch <- prometheus.MustNewConstMetric(
			e.counterDescs[def.ID],
			prometheus.CounterValue,
			float64(snapshot.Counters[def.ID]),
		)
	}

	for _, def := range internaldefs.HistogramDefs {
		raw, ok := snapshot.Histograms[def.ID]
		if !ok {
			continue
		}

		cumulative := internaldefs.CumulativeBuckets(internaldefs.NormalizeBuckets(raw))
		buckets := make(map[float64]uint64, len(internaldefs.HistogramBounds))
		for i, bound := range internaldefs.HistogramBounds {
			buckets[bound] = cumulative[i]
		}

		ch <- prometheus.MustNewConstHistogram(
			e.histDescs[def.ID],
			snapshot.LatencyCount,
			time.Duration(snapshot.LatencySumNs).Seconds(),
			buckets,
		)
	}

	ch <- prometheus.MustNewConstMetric(
		e.droppedDesc,
		prometheus.CounterValue,
		float64(e.source.AuditDropped()),
	)
}

// Handler returns an http.Handler serving only this exporter's metrics.
func (e *Exporter) Handler() http.Handler {
	registry := prometheus.NewRegistry()
	registry.MustRegister(e)
	return promhttp.HandlerFor(registry, promhttp.HandlerOpts{})
}
