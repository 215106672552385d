// Package metrics exposes Prometheus collectors for parse activity
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"tagstream/parser"
)

// Metrics groups the collectors recorded for every parse
type Metrics struct {
	registry        *prometheus.Registry
	parses          *prometheus.CounterVec
	parseDuration   prometheus.Histogram
	tags            *prometheus.CounterVec
	syntheticCloses *prometheus.CounterVec
	streamChunks    prometheus.Counter
}

// New creates collectors on a dedicated registry
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		parses: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "tagstream_parses_total",
			Help: "Number of buffer parses, by streaming status.",
		}, []string{"streaming"}),
		parseDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "tagstream_parse_duration_seconds",
			Help:    "Time spent parsing one buffer snapshot.",
			Buckets: prometheus.ExponentialBuckets(0.00001, 4, 10),
		}),
		tags: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "tagstream_tags_total",
			Help: "Tags in final (non-streaming) snapshots, by name and lifecycle state.",
		}, []string{"tag", "state"}),
		syntheticCloses: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "tagstream_synthetic_closes_total",
			Help: "Closing tags appended to repair final (non-streaming) snapshots.",
		}, []string{"tag"}),
		streamChunks: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "tagstream_stream_chunks_total",
			Help: "Chunks appended to streaming sessions.",
		}),
	}
	m.registry.MustRegister(m.parses, m.parseDuration, m.tags, m.syntheticCloses, m.streamChunks)
	return m
}

// Registry returns the registry holding the collectors
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// ObserveParse records one parsed snapshot. Tag and synthetic-close counts
// come only from final snapshots, so a tag streamed over many chunks is
// counted once. A nil *Metrics records nothing.
func (m *Metrics) ObserveParse(msg *parser.Message, elapsed time.Duration) {
	if m == nil || msg == nil {
		return
	}
	streaming := "false"
	if msg.IsStreaming {
		streaming = "true"
	}
	m.parses.WithLabelValues(streaming).Inc()
	m.parseDuration.Observe(elapsed.Seconds())
	if msg.IsStreaming {
		return
	}

	for _, piece := range msg.Tags() {
		m.tags.WithLabelValues(piece.Tag.Name.String(), piece.State.String()).Inc()
	}
	for name, count := range msg.SyntheticCloses {
		m.syntheticCloses.WithLabelValues(name.String()).Add(float64(count))
	}
}

// ObserveChunk counts one appended stream chunk
func (m *Metrics) ObserveChunk() {
	if m == nil {
		return
	}
	m.streamChunks.Inc()
}
