package metrics

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	botCommandsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bot_commands_total",
			Help: "Total number of bot commands received labeled by command and status",
		},
		[]string{"command", "status"},
	)
	commandDurationSeconds = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "command_duration_seconds",
			Help:    "Duration of bot commands in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"command"},
	)
	fundAPIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fund_api_requests_total",
			Help: "Total number of fund API requests labeled by method, path and status",
		},
		[]string{"method", "path", "status"},
	)
	fundAPIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "fund_api_request_duration_seconds",
			Help:    "Fund API request latency distributions",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)
	portfolioReloadsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "portfolio_reloads_total",
			Help: "Total number of full portfolio reloads by outcome",
		},
		[]string{"status"},
	)
	portfolioReloadDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "portfolio_reload_duration_seconds",
			Help:    "Duration of the parallel portfolio load in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)
	stateTransitionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "state_transitions_total",
			Help: "Total number of state transitions",
		},
		[]string{"from", "to"},
	)
	errorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "errors_total",
			Help: "Total number of errors split by type and severity",
		},
		[]string{"type", "severity"},
	)
	activeUsers = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "active_users",
			Help: "Current number of users with a stored dialog state",
		},
	)
	usersByState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "users_by_state",
			Help: "Number of users per dialog state",
		},
		[]string{"state"},
	)
)

// RecordCommand increments command counters and records duration.
func RecordCommand(command, status string, duration time.Duration) {
	if command == "" {
		command = "unknown"
	}
	if status == "" {
		status = "unknown"
	}

	botCommandsTotal.WithLabelValues(command, status).Inc()
	commandDurationSeconds.WithLabelValues(command).Observe(duration.Seconds())
}

// RecordAPIRequest tracks one outbound fund API call.
func RecordAPIRequest(method, path, status string, duration time.Duration) {
	if status == "" {
		status = "unknown"
	}

	fundAPIRequestsTotal.WithLabelValues(method, path, status).Inc()
	fundAPIRequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

// RecordReload tracks one full portfolio reload.
func RecordReload(status string, duration time.Duration) {
	if status == "" {
		status = "unknown"
	}

	portfolioReloadsTotal.WithLabelValues(status).Inc()
	portfolioReloadDuration.Observe(duration.Seconds())
}

// RecordStateTransition tracks FSM transitions.
func RecordStateTransition(from, to string) {
	if from == "" {
		from = "unknown"
	}
	if to == "" {
		to = "unknown"
	}

	stateTransitionsTotal.WithLabelValues(from, to).Inc()
}

// RecordError increments error counters with metadata.
func RecordError(errType, severity string) {
	if errType == "" {
		errType = "unknown"
	}
	if severity == "" {
		severity = "unknown"
	}

	errorsTotal.WithLabelValues(errType, severity).Inc()
}

// SetActiveUsers updates the gauge for current active users.
func SetActiveUsers(count int) {
	activeUsers.Set(float64(count))
}

// SetUsersByState updates the gauge for the given state.
func SetUsersByState(state string, count int) {
	if state == "" {
		state = "unknown"
	}

	usersByState.WithLabelValues(state).Set(float64(count))
}

// StateSource lists every stored dialog state label.
type StateSource interface {
	StateLabels(ctx context.Context) ([]string, error)
}

// StateCollector periodically gathers dialog state counts and emits gauge metrics.
type StateCollector struct {
	source StateSource
}

// NewStateCollector builds a metrics collector bound to the provided source.
func NewStateCollector(source StateSource) *StateCollector {
	return &StateCollector{source: source}
}

// Run polls the source every 10 seconds, updating the gauges until ctx is cancelled.
func (c *StateCollector) Run(ctx context.Context) {
	if c == nil || c.source == nil {
		return
	}
	if ctx == nil {
		ctx = context.Background()
	}

	for {
		_ = c.collect(ctx)

		select {
		case <-ctx.Done():
			return
		case <-time.After(10 * time.Second):
		}
	}
}

func (c *StateCollector) collect(ctx context.Context) error {
	labels, err := c.source.StateLabels(ctx)
	if err != nil {
		return err
	}

	SetActiveUsers(len(labels))

	stateCounts := make(map[string]int, len(labels))
	for _, label := range labels {
		if label == "" {
			label = "unknown"
		}
		stateCounts[label]++
	}

	usersByState.Reset()

	for label, count := range stateCounts {
		SetUsersByState(label, count)
	}

	return nil
}
