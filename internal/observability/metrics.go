// Package observability provides logging, metrics, and tracing.
package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RedisErrors counts Redis errors by command name.
	RedisErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "atelier_redis_errors_total",
		Help: "Total number of Redis errors by command",
	}, []string{"operation"})

	// DatabaseQueryLatency records database query latency by operation and table.
	DatabaseQueryLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "atelier_database_query_latency_seconds",
		Help:    "Database query latency in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation", "table"})

	// AppreciationToggles counts appreciation toggles by direction.
	AppreciationToggles = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "atelier_appreciation_toggles_total",
		Help: "Total number of appreciation toggles by direction",
	}, []string{"direction"})

	// FollowToggles counts follow toggles by direction.
	FollowToggles = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "atelier_follow_toggles_total",
		Help: "Total number of follow toggles by direction",
	}, []string{"direction"})

	// UploadBytes totals the bytes accepted by the media ingest service.
	UploadBytes = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "atelier_upload_bytes_total",
		Help: "Total bytes accepted by the upload service per folder",
	}, []string{"folder"})
)

// TrackQuery returns a function that records query latency when called (e.g. defer).
func TrackQuery(operation, table string) func() {
	start := time.Now()
	return func() {
		DatabaseQueryLatency.WithLabelValues(operation, table).Observe(time.Since(start).Seconds())
	}
}
