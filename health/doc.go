// Package health reports the health of a tiered cache and its storage.
//
// A Checker reports a Result with a Status of Healthy, Degraded or
// Unhealthy. Two checkers ship with the package:
//
//   - BudgetChecker compares a cache's byte size against its budget.
//   - PingChecker verifies a storage backend is reachable.
//
// Aggregator runs a set of checkers under one timeout and folds the results
// into an overall status:
//
//	agg := health.NewAggregator()
//	agg.Register("budget", health.NewBudgetChecker(c, health.BudgetCheckerConfig{}))
//	agg.Register("sqlite", health.NewPingChecker("sqlite", db))
//
//	report := agg.Report(ctx)
//	if report.Status == health.StatusUnhealthy {
//	    ...
//	}
package health
