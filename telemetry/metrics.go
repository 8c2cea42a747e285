// Package telemetry provides Prometheus metrics, tracing, and trace-aware logging.
package telemetry

import (
	"context"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	once sync.Once

	// Counters
	ResolveRequests *prometheus.CounterVec
	PollTicks       prometheus.Counter
	PollFailures    *prometheus.CounterVec
	MessagesMerged  prometheus.Counter
	ArchiveWrites   *prometheus.CounterVec
	ArchivePruned   prometheus.Counter

	// Histograms (seconds)
	APIRequestDuration *prometheus.HistogramVec

	// Gauges
	MessageListSize   prometheus.Gauge
	ActivePollers     prometheus.Gauge
	StreamSubscribers prometheus.Gauge
)

// Init registers metrics (idempotent).
func Init() {
	once.Do(func() {
		ResolveRequests = promauto.NewCounterVec(prometheus.CounterOpts{Name: "livechat_resolve_requests_total", Help: "Live chat id lookups by result"}, []string{"result"})
		PollTicks = promauto.NewCounter(prometheus.CounterOpts{Name: "livechat_poll_ticks_total", Help: "Number of poll ticks executed"})
		PollFailures = promauto.NewCounterVec(prometheus.CounterOpts{Name: "livechat_poll_failures_total", Help: "Failed message fetches by error class"}, []string{"class"})
		MessagesMerged = promauto.NewCounter(prometheus.CounterOpts{Name: "livechat_messages_merged_total", Help: "Messages newly added to the list"})
		ArchiveWrites = promauto.NewCounterVec(prometheus.CounterOpts{Name: "livechat_archive_writes_total", Help: "Archive batch writes by result"}, []string{"result"})
		ArchivePruned = promauto.NewCounter(prometheus.CounterOpts{Name: "livechat_archive_pruned_total", Help: "Archived messages removed by retention"})
		APIRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{Name: "livechat_api_request_duration_seconds", Help: "YouTube API request duration seconds", Buckets: prometheus.DefBuckets}, []string{"endpoint"})
		MessageListSize = promauto.NewGauge(prometheus.GaugeOpts{Name: "livechat_message_list_size", Help: "Messages currently retained"})
		ActivePollers = promauto.NewGauge(prometheus.GaugeOpts{Name: "livechat_active_pollers", Help: "Running poll tasks (0 or 1)"})
		StreamSubscribers = promauto.NewGauge(prometheus.GaugeOpts{Name: "livechat_stream_subscribers", Help: "Connected SSE and WebSocket clients"})
	})
}

// RecordResolve counts a chat id lookup outcome.
func RecordResolve(result string) {
	if ResolveRequests != nil {
		ResolveRequests.WithLabelValues(result).Inc()
	}
}

// RecordPollTick counts one poll tick.
func RecordPollTick() {
	if PollTicks != nil {
		PollTicks.Inc()
	}
}

// RecordPollFailure counts a failed tick under its error class.
func RecordPollFailure(class string) {
	if PollFailures != nil {
		PollFailures.WithLabelValues(class).Inc()
	}
}

// RecordMerged adds n merged messages and records the resulting list size.
func RecordMerged(n, size int) {
	if MessagesMerged != nil {
		MessagesMerged.Add(float64(n))
	}
	if MessageListSize != nil {
		MessageListSize.Set(float64(size))
	}
}

// RecordArchive counts an archive write.
func RecordArchive(err error) {
	if ArchiveWrites == nil {
		return
	}
	if err != nil {
		ArchiveWrites.WithLabelValues("error").Inc()
		return
	}
	ArchiveWrites.WithLabelValues("ok").Inc()
}

// RecordPruned counts messages removed by the retention job.
func RecordPruned(n int64) {
	if ArchivePruned != nil && n > 0 {
		ArchivePruned.Add(float64(n))
	}
}

// SetActivePollers records the number of running poll tasks.
func SetActivePollers(n int) {
	if ActivePollers != nil {
		ActivePollers.Set(float64(n))
	}
}

// AddStreamSubscribers adjusts the connected stream client gauge by delta.
func AddStreamSubscribers(delta int) {
	if StreamSubscribers != nil {
		StreamSubscribers.Add(float64(delta))
	}
}

// ObserveAPI records the duration of one API request.
func ObserveAPI(endpoint string, d time.Duration) {
	if APIRequestDuration != nil {
		APIRequestDuration.WithLabelValues(endpoint).Observe(d.Seconds())
	}
}

// Correlation ID helpers ----------------------------------------------------
type corrKeyType struct{}

var corrKey corrKeyType

// WithCorrelation returns a new context embedding the correlation id.
func WithCorrelation(ctx context.Context, id string) context.Context { return context.WithValue(ctx, corrKey, id) }

// GetCorrelation returns correlation id or empty string.
func GetCorrelation(ctx context.Context) string {
	v := ctx.Value(corrKey)
	if s, ok := v.(string); ok {
		return s
	}
	return ""
}
