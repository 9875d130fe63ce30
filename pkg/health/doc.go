// Package health implements HealthAggregator plus the generic
// Checker/Result/Status machinery NetworkProbe reuses for raw TCP and
// HTTP reachability checks and CommandSurface reuses for an
// exec-based node RPC probe.
//
// Aggregator.Classify is the one entry point CommandSurface and
// MonitorLoop call once per tick: it takes a SystemProbe sample, a
// ProcessSupervisor snapshot and an hourly error count and returns a
// HealthReport whose Overall field climbs Healthy -> Warning ->
// Critical through a fixed threshold ladder, never the other
// direction for the same or worse inputs.
package health
