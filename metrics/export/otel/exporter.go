// Package otel bridges the gate's metrics into an OpenTelemetry meter
// via observable instruments read from engine snapshots.
package otel

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/metric"

	samunu "github.com/nestorzamili/samunu-project"
	"github.com/nestorzamili/samunu-project/metrics/export/internaldefs"
)

var (
	// ErrNilMeter is returned when no meter is supplied.
	ErrNilMeter = errors.New("nil meter")
	// ErrNilSource is returned when no metrics source is supplied.
	ErrNilSource = errors.New("nil metrics source")
)

type metricsSource interface {
	MetricsSnapshot() samunu.MetricsSnapshot
	AuditDropped() uint64
}

type observedCounter struct {
	id         samunu.MetricID
	instrument metric.Int64ObservableCounter
}

type observedHistogram struct {
	id    samunu.MetricID
	count metric.Int64ObservableCounter
	sum   metric.Float64ObservableCounter
}

// Exporter registers observable instruments for every counter and
// histogram and feeds them from snapshots on collection.
type Exporter struct {
	source       metricsSource
	registration metric.Registration
	counters     []observedCounter
	histograms   []observedHistogram
	auditDropped metric.Int64ObservableCounter
}

// NewExporter wires the engine's metrics into the given meter.
func NewExporter(meter metric.Meter, engine *samunu.Engine) (*Exporter, error) {
	return NewExporterFromSource(meter, engine)
}

// NewExporterFromSource wires a custom source into the given meter.
func NewExporterFromSource(meter metric.Meter, source metricsSource) (*Exporter, error) {
	if meter == nil {
		return nil, ErrNilMeter
	}
	if source == nil {
		return nil, ErrNilSource
	}

	exporter := &Exporter{
		source:     source,
		counters:   make([]observedCounter, 0, len(internaldefs.CounterDefs)),
		histograms: make([]observedHistogram, 0, len(internaldefs.HistogramDefs)),
	}

	observables := make([]metric.Observable, 0, len(internaldefs.CounterDefs)+len(internaldefs.HistogramDefs)*2+1)

	for _, def := range internaldefs.CounterDefs {
		instrument, err := meter.Int64ObservableCounter(def.Name, metric.WithDescription(def.Help))
		if err != nil {
			return nil, fmt.Errorf("register %s: %w", def.Name, err)
		}
		exporter.counters = append(exporter.counters, observedCounter{id: def.ID, instrument: instrument})
		observables = append(observables, instrument)
	}

	for _, def := range internaldefs.HistogramDefs {
		count, err := meter.Int64ObservableCounter(def.Name+"_count", metric.WithDescription(def.Help))
		if err != nil {
			return nil, fmt.Errorf("register %s_count: %w", def.Name, err)
		}
		sum, err := meter.Float64ObservableCounter(def.Name+"_sum", metric.WithDescription(def.Help))
		if err != nil {
			return nil, fmt.Errorf("register %s_sum: %w", def.Name, err)
		}
		exporter.histograms = append(exporter.histograms, observedHistogram{id: def.ID, count: count, sum: sum})
		observables = append(observables, count, sum)
	}

	dropped, err := meter.Int64ObservableCounter(
		"samunu_audit_dropped_total",
		metric.WithDescription("Dropped audit events due to dispatcher backpressure."),
	)
	if err != nil {
		return nil, fmt.Errorf("register samunu_audit_dropped_total: %w", err)
	}
	exporter.auditDropped = dropped
	observables = append(observables, dropped)

	registration, err := meter.RegisterCallback(exporter.observe, observables...)
	if err != nil {
		return nil, fmt.Errorf("register callback: %w", err)
	}
	exporter.registration = registration

	return exporter, nil
}

func (e *Exporter) observe(_ context.Context, observer metric.Observer) error {
	snapshot := e.source.MetricsSnapshot()

	for _, counter := range e.counters {
		observer.ObserveInt64(counter.instrument, int64(snapshot.Counters[counter.id]))
	}

	for _, hist := range e.histograms {
		observer.ObserveInt64(hist.count, int64(snapshot.LatencyCount))
		observer.ObserveFloat64(hist.sum, time.Duration(snapshot.LatencySumNs).Seconds())
	}

	observer.ObserveInt64(e.auditDropped, int64(e.source.AuditDropped()))

	return nil
}

// Close unregisters the collection callback.
func (e *Exporter) Close() error {
	if e == nil || e.registration == nil {
		return nil
	}
	return e.registration.Unregister()
}
