// Package health tracks component health and aggregates it into one report
// for the /health endpoint.
//
// A Status is healthy, degraded or unhealthy. Monitor keeps the latest Status
// per component and reports state changes from Update; AggregateHealth folds them: any unhealthy component makes
// the whole service unhealthy, otherwise any degraded one makes it degraded.
//
//	monitor := health.NewMonitor()
//	monitor.Update("stormfront", health.FromComponentHealth("stormfront", comp.Health()))
//	monitor.UpdateDegraded("nats", "reconnecting")
//
//	report := monitor.AggregateHealth("outlander")
//	if !report.IsHealthy() { ... }
//
// Error text copied into a Status is sanitized: URLs, paths, addresses and
// credentials are replaced by placeholders before the report leaves the
// process.
package health
