package health

import (
	"context"
	"slices"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
)

// AggregatorConfig configures the health aggregator.
type AggregatorConfig struct {
	// Timeout bounds one full round of checks. Default: 5 seconds
	Timeout time.Duration
}

// Aggregator runs a set of named checkers and folds their results.
type Aggregator struct {
	config   AggregatorConfig
	mu       sync.RWMutex
	checkers map[string]Checker
	order    []string
}

// NamedResult pairs a checker name with its result.
type NamedResult struct {
	Name   string
	Result Result
}

// Report is the outcome of one round of checks, in registration order.
type Report struct {
	Status  Status
	Results []NamedResult
}

// NewAggregator creates a new health aggregator.
func NewAggregator(config ...AggregatorConfig) *Aggregator {
	cfg := AggregatorConfig{Timeout: 5 * time.Second}
	if len(config) > 0 && config[0].Timeout > 0 {
		cfg = config[0]
	}
	return &Aggregator{
		config:   cfg,
		checkers: make(map[string]Checker),
	}
}

// Register adds or replaces a named checker.
func (a *Aggregator) Register(name string, checker Checker) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if _, exists := a.checkers[name]; !exists {
		a.order = append(a.order, name)
	}
	a.checkers[name] = checker
}

// Unregister removes a named checker.
func (a *Aggregator) Unregister(name string) {
	a.mu.Lock()
	defer a.mu.Unlock()

	delete(a.checkers, name)
	a.order = slices.DeleteFunc(a.order, func(n string) bool { return n == name })
}

// CheckerNames returns registered names in registration order.
func (a *Aggregator) CheckerNames() []string {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return slices.Clone(a.order)
}

// Check runs a single named check.
func (a *Aggregator) Check(ctx context.Context, name string) (Result, error) {
	a.mu.RLock()
	checker, ok := a.checkers[name]
	a.mu.RUnlock()
	if !ok {
		return Result{}, ErrCheckerNotFound
	}

	ctx, cancel := context.WithTimeout(ctx, a.config.Timeout)
	defer cancel()
	return runCheck(ctx, checker), nil
}

// Report runs every check in parallel under the configured timeout.
func (a *Aggregator) Report(ctx context.Context) Report {
	a.mu.RLock()
	names := slices.Clone(a.order)
	checkers := make([]Checker, len(names))
	for i, n := range names {
		checkers[i] = a.checkers[n]
	}
	a.mu.RUnlock()

	ctx, cancel := context.WithTimeout(ctx, a.config.Timeout)
	defer cancel()

	results := make([]NamedResult, len(names))
	var g errgroup.Group
	for i := range names {
		g.Go(func() error {
			results[i] = NamedResult{Name: names[i], Result: runCheck(ctx, checkers[i])}
			return nil
		})
	}
	_ = g.Wait()

	return Report{Status: OverallStatus(results), Results: results}
}

// OverallStatus returns the worst status among results, or Healthy when
// there are none.
func OverallStatus(results []NamedResult) Status {
	worst := StatusHealthy
	for _, r := range results {
		if r.Result.Status > worst {
			worst = r.Result.Status
		}
	}
	return worst
}

func runCheck(ctx context.Context, checker Checker) Result {
	start := time.Now()
	resultCh := make(chan Result, 1)

	go func() {
		result := checker.Check(ctx)
		result.Duration = time.Since(start)
		if result.Timestamp.IsZero() {
			result.Timestamp = start
		}
		resultCh <- result
	}()

	select {
	case result := <-resultCh:
		return result
	case <-ctx.Done():
		return Result{
			Status:    StatusUnhealthy,
			Message:   "check timed out",
			Error:     ErrCheckTimeout,
			Duration:  time.Since(start),
			Timestamp: start,
		}
	}
}
