package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// LogStore metrics
	LogRotationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "nockit_log_rotations_total",
			Help: "Total number of log segment rotations by stream",
		},
		[]string{"stream"},
	)

	LogParseFailuresTotal = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "nockit_log_parse_failures_total",
			Help: "Cumulative count of unparseable log lines across all streams",
		},
	)

	LogWriteFailuresTotal = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "nockit_log_write_failures_total",
			Help: "Cumulative count of failed log writes across all streams",
		},
	)

	LogActiveSegmentBytes = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "nockit_log_active_segment_bytes",
			Help: "Current size of each stream's active log segment",
		},
		[]string{"stream"},
	)

	// ProcessSupervisor metrics
	SupervisorRestartsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "nockit_supervisor_restarts_total",
			Help: "Total number of times a supervised process transitioned to Crashed",
		},
		[]string{"stream"},
	)

	SupervisorState = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "nockit_supervisor_state",
			Help: "Supervised process FSM state (1 = currently in this state, 0 otherwise)",
		},
		[]string{"stream", "state"},
	)

	// HealthAggregator metrics
	HealthChecksTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "nockit_health_checks_total",
			Help: "Total number of HealthAggregator classifications performed",
		},
	)

	HealthOverallStatus = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "nockit_health_overall_status",
			Help: "Most recent overall HealthReport status (1 = current status, 0 otherwise)",
		},
		[]string{"status"},
	)

	HealthSampleDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "nockit_health_sample_duration_seconds",
			Help:    "Time taken for one MonitorLoop tick (sample + classify + render)",
			Buckets: prometheus.DefBuckets,
		},
	)

	// SystemProbe metrics
	SystemProbePartialFailuresTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "nockit_sysprobe_partial_failures_total",
			Help: "Total number of individual metric sampling failures by metric name",
		},
		[]string{"metric"},
	)

	// NetworkProbe metrics
	NetworkPeerCount = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "nockit_network_peer_count",
			Help: "Number of bootstrap peers that parsed as valid multiaddresses",
		},
	)
)

func init() {
	prometheus.MustRegister(LogRotationsTotal)
	prometheus.MustRegister(LogParseFailuresTotal)
	prometheus.MustRegister(LogWriteFailuresTotal)
	prometheus.MustRegister(LogActiveSegmentBytes)
	prometheus.MustRegister(SupervisorRestartsTotal)
	prometheus.MustRegister(SupervisorState)
	prometheus.MustRegister(HealthChecksTotal)
	prometheus.MustRegister(HealthOverallStatus)
	prometheus.MustRegister(HealthSampleDuration)
	prometheus.MustRegister(SystemProbePartialFailuresTotal)
	prometheus.MustRegister(NetworkPeerCount)
}

// Handler returns the Prometheus HTTP handler, mounted by `nockit
// monitor --metrics-addr` for scraping alongside the interactive
// dashboard.
func Handler() http.Handler {
	return promhttp.Handler()
}

// Timer is a helper for timing operations.
type Timer struct {
	start time.Time
}

// NewTimer creates a new timer.
func NewTimer() *Timer {
	return &Timer{start: time.Now()}
}

// ObserveDuration records the duration to a histogram.
func (t *Timer) ObserveDuration(histogram prometheus.Histogram) {
	duration := time.Since(t.start).Seconds()
	histogram.Observe(duration)
}

// ObserveDurationVec records the duration to a histogram vec with labels.
func (t *Timer) ObserveDurationVec(histogram prometheus.ObserverVec, labels ...string) {
	duration := time.Since(t.start).Seconds()
	histogram.WithLabelValues(labels...).Observe(duration)
}

// Duration returns the elapsed time since the timer started.
func (t *Timer) Duration() time.Duration {
	return time.Since(t.start)
}
