// Package telemetry holds the process metrics and tracer.
package telemetry

import (
	"context"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Registry holds every localmind collector. It is separate from the
// default registry so tests can construct servers repeatedly.
var Registry = prometheus.NewRegistry()

// Prometheus metrics
var (
	IngestTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "localmind_ingest_total",
			Help: "Ingest attempts by source and result",
		},
		[]string{"source", "result"},
	)
	SearchTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "localmind_search_total",
			Help: "Searches by kind (search, load_more) and result",
		},
		[]string{"kind", "result"},
	)
	SearchDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "localmind_search_duration_seconds",
			Help:    "Search latency including query embedding",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 14), // 1ms to ~8s
		},
	)
	EmbedRetries = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "localmind_embed_retries_total",
			Help: "Embedding requests retried because the backend was loading or unreachable",
		},
	)
	EmbedDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "localmind_embed_duration_seconds",
			Help:    "Duration of single embedding requests including retries",
			Buckets: prometheus.ExponentialBuckets(0.005, 2, 12),
		},
	)
	IndexedChunks = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "localmind_index_chunks",
			Help: "Chunk vectors resident in the in-memory index",
		},
	)
	SweepRemoved = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "localmind_sweep_removed_total",
			Help: "Documents removed by exclusion sweeps",
		},
	)
	HTTPRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "localmind_http_requests_total",
			Help: "HTTP requests by method and status code",
		},
		[]string{"method", "status"},
	)
)

var tracer = otel.Tracer("github.com/custodia-labs/localmind-core")

func init() {
	Registry.MustRegister(
		IngestTotal, SearchTotal, SearchDuration,
		EmbedRetries, EmbedDuration, IndexedChunks,
		SweepRemoved, HTTPRequests,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
}

// Handler serves the registry in the prometheus exposition format
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}

// StartSpan starts a span on the localmind tracer.
func StartSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return tracer.Start(ctx, name, trace.WithAttributes(attrs...))
}

// EndSpan records err on the span, if any, and ends it.
func EndSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
	}
	span.End()
}

// Result labels an outcome for counters
func Result(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
