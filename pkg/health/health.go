package health

import (
	"context"
	"time"

	"github.com/docxology/nockchain/pkg/supervisor"
	"github.com/docxology/nockchain/pkg/types"
)

// CheckType represents the type of health check
type CheckType string

const (
	CheckTypeHTTP CheckType = "http"
	CheckTypeTCP  CheckType = "tcp"
	CheckTypeExec CheckType = "exec"
)

// Result represents the outcome of a health check
type Result struct {
	Healthy   bool
	Message   string
	CheckedAt time.Time
	Duration  time.Duration
}

// Checker is the interface that all health checkers must implement
type Checker interface {
	// Check performs the health check and returns the result
	Check(ctx context.Context) Result

	// Type returns the type of health check
	Type() CheckType
}

// Config contains common configuration for all health checks
type Config struct {
	// Interval is the time between health checks
	Interval time.Duration

	// Timeout is the maximum time to wait for a health check to complete
	Timeout time.Duration

	// Retries is the number of consecutive failures before marking as unhealthy
	Retries int

	// StartPeriod is the grace period before starting health checks
	// Used to allow slow-starting containers to initialize
	StartPeriod time.Duration
}

// DefaultConfig returns a Config with sensible defaults
func DefaultConfig() Config {
	return Config{
		Interval:    30 * time.Second,
		Timeout:     10 * time.Second,
		Retries:     3,
		StartPeriod: 0,
	}
}

// Status tracks the current health status of a container
type Status struct {
	// ConsecutiveFailures tracks the number of consecutive failed checks
	ConsecutiveFailures int

	// ConsecutiveSuccesses tracks the number of consecutive successful checks
	ConsecutiveSuccesses int

	// LastCheck is the timestamp of the last health check
	LastCheck time.Time

	// LastResult is the result of the last health check
	LastResult Result

	// Healthy indicates if the container is currently considered healthy
	Healthy bool

	// StartedAt is when health monitoring started for this container
	StartedAt time.Time
}

// NewStatus creates a new Status with default values
func NewStatus() *Status {
	return &Status{
		Healthy:   true, // Assume healthy until proven otherwise
		StartedAt: time.Now(),
	}
}

// Update updates the status based on a new health check result
func (s *Status) Update(result Result, config Config) {
	s.LastCheck = result.CheckedAt
	s.LastResult = result

	if result.Healthy {
		s.ConsecutiveSuccesses++
		s.ConsecutiveFailures = 0

		// Mark as healthy after first success
		s.Healthy = true
	} else {
		s.ConsecutiveFailures++
		s.ConsecutiveSuccesses = 0

		// Mark as unhealthy after reaching retry threshold
		if s.ConsecutiveFailures >= config.Retries {
			s.Healthy = false
		}
	}
}

// InStartPeriod returns true if we're still in the startup grace period
func (s *Status) InStartPeriod(config Config) bool {
	if config.StartPeriod == 0 {
		return false
	}
	return time.Since(s.StartedAt) < config.StartPeriod
}

// Aggregator implements HealthAggregator: one classification
// call per tick, combining a system sample, the supervised node's
// observed state, and an hourly error count into a HealthReport.
type Aggregator struct {
	expectRunning bool
}

// NewAggregator returns an Aggregator. expectRunning marks whether the
// supervised node is expected to be running in this invocation's
// context: nockchain not running while it was expected to escalates
// the report to Critical.
func NewAggregator(expectRunning bool) *Aggregator {
	return &Aggregator{expectRunning: expectRunning}
}

// Classify combines one sample into a HealthReport using the
// deterministic, monotone Healthy→Warning→Critical ladder from spec
// §4.7. Unknown is returned only if the sample itself is unusable
// (every metric partial).
func (a *Aggregator) Classify(sample types.SystemSample, snap supervisor.Snapshot, peerCount uint64, errorsLastHour uint64) types.HealthReport {
	if len(sample.PartialMetrics) >= 4 {
		nockchain := types.NockchainState{Status: types.NodeUnknown}
		return types.HealthReport{
			Timestamp: sample.Timestamp,
			System:    sample,
			Nockchain: nockchain,
			Overall:   types.NodeUnknown,
		}
	}

	nockchain := classifyNockchain(snap, peerCount, errorsLastHour)

	overall := types.NodeHealthy
	if sample.MemoryPercent >= 80 || sample.CPUPercent >= 80 ||
		sample.DiskPercent >= 85 || nockchain.Status == types.NodeWarning ||
		nockchain.Status == types.NodeUnknown ||
		errorsLastHour > 10 || (nockchain.Running && peerCount < 3) {
		overall = types.NodeWarning
	}
	if sample.MemoryPercent >= 95 || sample.DiskPercent >= 95 ||
		nockchain.Status == types.NodeCritical || errorsLastHour > 100 ||
		(a.expectRunning && !nockchain.Running) {
		overall = types.NodeCritical
	}

	return types.HealthReport{
		Timestamp: sample.Timestamp,
		System:    sample,
		Nockchain: nockchain,
		Overall:   overall,
	}
}

// classifyNockchain maps a ProcessSupervisor snapshot into the
// NockchainState shape HealthReport carries.
func classifyNockchain(snap supervisor.Snapshot, peerCount uint64, errorsLastHour uint64) types.NockchainState {
	state := types.NockchainState{
		PeerCount:      peerCount,
		ErrorsLastHour: errorsLastHour,
	}

	switch snap.State {
	case supervisor.Running, supervisor.Stopping:
		state.Running = true
		state.PID = snap.PID
		state.UptimeSeconds = snap.UptimeSeconds
		state.Status = types.NodeHealthy
	case supervisor.Crashed, supervisor.Stopped:
		state.Running = false
		state.Status = types.NodeCritical
	case supervisor.Absent:
		// Never spawned this run: not merely unhealthy, indeterminate.
		state.Running = false
		state.Status = types.NodeUnknown
	default:
		state.Status = types.NodeUnknown
	}
	return state
}
