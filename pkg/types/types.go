// Package types holds the data shapes shared across Nockit's components:
// configuration, key material, log records, health reports, mining
// statistics and benchmark results. Keeping them in one package avoids
// import cycles between keystore, logstore, health and monitor.
package types

import "time"

// LogLevel is one of the five severities a LogRecord can carry.
type LogLevel string

const (
	LevelTrace LogLevel = "trace"
	LevelDebug LogLevel = "debug"
	LevelInfo  LogLevel = "info"
	LevelWarn  LogLevel = "warn"
	LevelError LogLevel = "error"
)

// LogFormat selects how LogStore renders a record to its active segment.
type LogFormat string

const (
	FormatPretty  LogFormat = "pretty"
	FormatJSON    LogFormat = "json"
	FormatCompact LogFormat = "compact"
)

// LogRecord is one structured entry in a LogStore stream.
type LogRecord struct {
	Timestamp time.Time         `json:"ts"`
	Seq       uint64            `json:"seq"`
	Level     LogLevel          `json:"level"`
	Component string            `json:"component"`
	Message   string            `json:"message"`
	Fields    map[string]string `json:"fields,omitempty"`
}

// KeyPair is an Ed25519 public/private pair. Private is the 32-byte seed.
//
// String/format methods never expose Private; see keystore.Redacted.
type KeyPair struct {
	Public  [32]byte
	Private [32]byte
}

// BackupEnvelope is the on-disk JSON document produced by
// KeyStore.ExportBackup and consumed by KeyStore.ImportBackup. It has
// no integrity tag; it is treated as secret-at-rest, not tamper-evident
// (spec Open Question, left unresolved by design).
type BackupEnvelope struct {
	Version    uint32            `json:"version"`
	Format     string            `json:"format"`
	CreatedAt  time.Time         `json:"created_at"`
	PublicB58  string            `json:"public_base58"`
	PrivateHex string            `json:"private_hex"`
	Metadata   map[string]string `json:"metadata,omitempty"`
}

// NodeStatus is the classification of the supervised nockchain node as
// observed by ProcessSupervisor + HealthAggregator.
type NodeStatus string

const (
	NodeHealthy  NodeStatus = "Healthy"
	NodeWarning  NodeStatus = "Warning"
	NodeCritical NodeStatus = "Critical"
	NodeUnknown  NodeStatus = "Unknown"
)

// SystemSample is one SystemProbe.Sample() reading.
type SystemSample struct {
	Timestamp      time.Time
	CPUPercent     float64
	MemoryPercent  float64
	DiskPercent    float64
	NetRxBytes     uint64
	NetTxBytes     uint64
	ProcessCount   uint64
	PartialMetrics []string // names of metrics that could not be sampled
}

// NockchainState summarizes the supervised node for a HealthReport.
type NockchainState struct {
	Running         bool
	PID             *uint64
	UptimeSeconds   *uint64
	LastBlockHeight *uint64
	PeerCount       uint64
	ErrorsLastHour  uint64
	Status          NodeStatus
}

// HealthReport is the per-tick record MonitorLoop appends to the
// `monitor` stream.
type HealthReport struct {
	Timestamp time.Time
	System    SystemSample
	Nockchain NockchainState
	Overall   NodeStatus
}

// MiningStats is the rolled-up mining telemetry for `mining stats`.
type MiningStats struct {
	StartTime     time.Time
	BlocksMined   uint64
	HashRateHPS   float64
	Difficulty    uint64
	RewardsEarned uint64
	UptimeSeconds uint64
	LastBlockTime *time.Time
	ErrorCount    uint64
	LastError     string
}

// BenchmarkResult is one named timed run from the Benchmarker.
type BenchmarkResult struct {
	Name                string
	Iterations          int
	Warmup              int
	TotalDurationNS     int64
	MeanNS              float64
	MedianNS            float64
	P95NS               float64
	P99NS               float64
	ThroughputOpsPerSec float64
	MemoryDeltaBytes    int64
	SuccessRatePct      float64
	ErrorCount          int
}

// SystemInfo is the host snapshot recorded with every benchmark suite.
type SystemInfo struct {
	OS          string
	Arch        string
	CPUCount    int
	TotalMemory uint64
}

// BenchmarkSuite is an ordered set of results plus the host snapshot.
type BenchmarkSuite struct {
	RunID      string
	StartedAt  time.Time
	FinishedAt time.Time
	System     SystemInfo
	Results    []BenchmarkResult
}
