/*
Package types defines the core data structures shared across Nockit.

This package has no logic of its own: every other package constructs,
samples, or persists these types rather than defining its own shape for
the same concept, so a LogRecord read back from pkg/logstore is the
same LogRecord pkg/monitor renders and pkg/metrics counts.

# Core Types

Logging:
  - LogLevel, LogFormat: typed string enums for severity and encoding
  - LogRecord: one structured entry in a LogStore stream

Keys and backups:
  - KeyPair: an Ed25519 public/private pair (never serialized raw)
  - BackupEnvelope: the on-disk shape of `wallet backup`/`wallet restore`

Node state:
  - NodeStatus: Healthy, Warning, Critical, Unknown
  - SystemSample: one SystemProbe reading (CPU, memory, disk, uptime)
  - NockchainState: one NetworkProbe reading (peer count, sync height)
  - HealthReport: a classified tick combining both plus partial-failure
    detail, the unit MonitorLoop appends to its stream and renders

Mining and benchmarking:
  - MiningStats: one point in the mining-stats history persisted by
    pkg/storage
  - BenchmarkResult, SystemInfo, BenchmarkSuite: one named benchmark's
    percentile stats, the host it ran on, and a full suite run

# Design Patterns

Enums are typed string constants, not ints, so a JSON-encoded
LogRecord or HealthReport is readable without a lookup table:

	type NodeStatus string
	const (
	    NodeHealthy  NodeStatus = "healthy"
	    NodeWarning  NodeStatus = "warning"
	)

# Thread Safety

Values in this package carry no synchronization of their own. Callers
read and write them under whatever lock the owning package (LogStore,
ProcessSupervisor, BoltStore) already holds.
*/
package types
