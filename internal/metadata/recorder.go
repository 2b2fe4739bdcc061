package metadata

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"
)

/*
Metadata Collected
- Upstream fetch URL, status, duration, retries, body fingerprint
- Entity cache outcomes per kind
- Tool call outcomes and latency
- Classified errors

Metadata is write-only.
No component may read metadata to influence lookup, caching or retry decisions.
*/

type MetadataSink interface {
	RecordError(
		observedAt time.Time,
		packageName string,
		action string,
		cause ErrorCause,
		details string,
		attrs []Attribute,
	)

	RecordFetch(
		fetchUrl string,
		httpStatus int,
		duration time.Duration,
		contentHash string,
		retryCount int,
	)

	RecordCache(kind string, outcome CacheOutcome)

	RecordToolCall(tool string, status string, duration time.Duration)
}

/*
Recorder writes structured events to a zap logger and to Prometheus
collectors registered on the given registerer.
It must not:
- perform I/O decisions
- affect control flow
*/
type Recorder struct {
	logger       *zap.Logger
	errors       *prometheus.CounterVec
	fetches      *prometheus.CounterVec
	fetchLatency *prometheus.HistogramVec
	cache        *prometheus.CounterVec
	toolCalls    *prometheus.CounterVec
	toolLatency  *prometheus.HistogramVec
}

func NewRecorder(logger *zap.Logger, registerer prometheus.Registerer) *Recorder {
	if logger == nil {
		logger = zap.NewNop()
	}
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}
	factory := promauto.With(registerer)

	return &Recorder{
		logger: logger.Named("metadata"),
		errors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "imdb_mcp_errors_total",
				Help: "Total number of classified errors by package and cause",
			},
			[]string{"package", "cause"},
		),
		fetches: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "imdb_mcp_upstream_fetches_total",
				Help: "Total number of upstream fetches by HTTP status",
			},
			[]string{"status"},
		),
		fetchLatency: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "imdb_mcp_upstream_fetch_duration_seconds",
				Help:    "Duration of upstream fetches in seconds",
				Buckets: []float64{.05, .1, .25, .5, 1, 2.5, 5, 10, 30},
			},
			[]string{"status"},
		),
		cache: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "imdb_mcp_cache_events_total",
				Help: "Entity cache outcomes by entity kind",
			},
			[]string{"kind", "outcome"},
		),
		toolCalls: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "imdb_mcp_tool_calls_total",
				Help: "Total number of tool calls by tool and status",
			},
			[]string{"tool", "status"},
		),
		toolLatency: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "imdb_mcp_tool_call_duration_seconds",
				Help:    "Duration of tool calls in seconds",
				Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10, 30},
			},
			[]string{"tool"},
		),
	}
}

func (r *Recorder) RecordError(
	observedAt time.Time,
	packageName string,
	action string,
	cause ErrorCause,
	details string,
	attrs []Attribute,
) {
	r.errors.WithLabelValues(packageName, cause.String()).Inc()

	fields := make([]zap.Field, 0, len(attrs)+5)
	fields = append(fields,
		zap.Time("observed_at", observedAt),
		zap.String("package", packageName),
		zap.String("action", action),
		zap.Stringer("cause", cause),
		zap.String("details", details),
	)
	for _, a := range attrs {
		fields = append(fields, zap.String(string(a.Key), a.Value))
	}
	r.logger.Warn("error recorded", fields...)
}

func (r *Recorder) RecordFetch(
	fetchUrl string,
	httpStatus int,
	duration time.Duration,
	contentHash string,
	retryCount int,
) {
	status := statusLabel(httpStatus)
	r.fetches.WithLabelValues(status).Inc()
	r.fetchLatency.WithLabelValues(status).Observe(duration.Seconds())

	r.logger.Debug("upstream fetch",
		zap.String("url", fetchUrl),
		zap.Int("http_status", httpStatus),
		zap.Duration("duration", duration),
		zap.String("content_hash", contentHash),
		zap.Int("retries", retryCount),
	)
}

func (r *Recorder) RecordCache(kind string, outcome CacheOutcome) {
	r.cache.WithLabelValues(kind, string(outcome)).Inc()
}

func (r *Recorder) RecordToolCall(tool string, status string, duration time.Duration) {
	r.toolCalls.WithLabelValues(tool, status).Inc()
	r.toolLatency.WithLabelValues(tool).Observe(duration.Seconds())

	r.logger.Info("tool call",
		zap.String("tool", tool),
		zap.String("status", status),
		zap.Duration("duration", duration),
	)
}

func statusLabel(httpStatus int) string {
	switch {
	case httpStatus <= 0:
		return "error"
	case httpStatus < 300:
		return "2xx"
	case httpStatus < 400:
		return "3xx"
	case httpStatus < 500:
		return "4xx"
	default:
		return "5xx"
	}
}

// NoopSink, struct that implements metadata.MetadataSink but does nothing
// Wiring (or Test) can decide whether to inject Recorder or NoopSink
// Purpose is to make metadata orthogonal
type NoopSink struct{}

func (n *NoopSink) RecordError(
	observedAt time.Time,
	packageName string,
	action string,
	cause ErrorCause,
	details string,
	attrs []Attribute,
) {
}

func (n *NoopSink) RecordFetch(
	fetchUrl string,
	httpStatus int,
	duration time.Duration,
	contentHash string,
	retryCount int,
) {
}

func (n *NoopSink) RecordCache(kind string, outcome CacheOutcome) {}

func (n *NoopSink) RecordToolCall(tool string, status string, duration time.Duration) {}

var (
	_ MetadataSink = (*Recorder)(nil)
	_ MetadataSink = (*NoopSink)(nil)
)
