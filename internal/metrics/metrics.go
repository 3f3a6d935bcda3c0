// Package metrics defines the Prometheus counters and gauges the
// /metrics HTTP endpoint exposes: payload ingest/delete counts, per-stage
// queue length, and KVS size/eviction counters.
package metrics

import "github.com/prometheus/client_golang/prometheus"

// Metrics groups every collector this module registers. Construct once at
// startup with New, which registers every collector on the given
// prometheus.Registerer.
type Metrics struct {
	PayloadsIngested prometheus.Counter
	PayloadsDeleted  prometheus.Counter
	StageQueueLen    *prometheus.GaugeVec
	KVSSize          prometheus.Gauge
	KVSEvictions     prometheus.Counter
}

// New constructs a Metrics with all collectors registered on reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		PayloadsIngested: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "pipeline_payloads_ingested_total",
			Help: "Total number of payloads admitted via AddFrame/AddFrameWithTelemetry.",
		}),
		PayloadsDeleted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "pipeline_payloads_deleted_total",
			Help: "Total number of payloads removed via Delete.",
		}),
		StageQueueLen: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "pipeline_stage_queue_length",
			Help: "Current number of payloads held in a stage.",
		}, []string{"stage"}),
		KVSSize: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "kvs_entries",
			Help: "Current number of entries held in the KVS, including expired ones not yet lazily removed.",
		}),
		KVSEvictions: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "kvs_evictions_total",
			Help: "Total number of entries evicted from the KVS under capacity pressure.",
		}),
	}
	reg.MustRegister(m.PayloadsIngested, m.PayloadsDeleted, m.StageQueueLen, m.KVSSize, m.KVSEvictions)
	return m
}

// The methods below satisfy pipeline.MetricsSink and kvs.MetricsSink, so a
// *Metrics can be wired into both a Pipeline and a kvs.Store directly.

// IncPayloadsIngested implements pipeline.MetricsSink.
func (m *Metrics) IncPayloadsIngested() { m.PayloadsIngested.Inc() }

// IncPayloadsDeleted implements pipeline.MetricsSink.
func (m *Metrics) IncPayloadsDeleted() { m.PayloadsDeleted.Inc() }

// SetStageQueueLen implements pipeline.MetricsSink.
func (m *Metrics) SetStageQueueLen(stage string, n int) {
	m.StageQueueLen.WithLabelValues(stage).Set(float64(n))
}

// SetSize implements kvs.MetricsSink.
func (m *Metrics) SetSize(n int) { m.KVSSize.Set(float64(n)) }

// IncEvictions implements kvs.MetricsSink.
func (m *Metrics) IncEvictions() { m.KVSEvictions.Inc() }
