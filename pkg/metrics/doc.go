// Package metrics defines Nockit's internal Prometheus metrics: log
// rotation/parse/write counters from LogStore, FSM state and restart
// counts from ProcessSupervisor, classification counts from
// HealthAggregator, and partial-sample counts from SystemProbe.
// Collector polls the first two on a ticker; ObserveHealthReport is
// called once per MonitorLoop tick for the rest. Handler exposes the
// registry over HTTP for `nockit monitor --metrics-addr`.
//
// HealthChecker/HealthStatus (health.go) and Timer (metrics.go) are
// generic, domain-agnostic helpers; they carry no node-specific
// assumptions.
package metrics
