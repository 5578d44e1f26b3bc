package health

import (
	"context"
	"fmt"
)

// Budget is anything with a byte size and a byte ceiling.
type Budget interface {
	Size() int64
	MaxSize() int64
}

// BudgetCheckerConfig configures a BudgetChecker.
type BudgetCheckerConfig struct {
	// WarningThreshold is the usage ratio that reports degraded.
	// Value should be between 0 and 1. Default: 0.8
	WarningThreshold float64

	// CriticalThreshold is the usage ratio that reports unhealthy.
	// Value should be between 0 and 1. Default: 0.95
	CriticalThreshold float64
}

// BudgetChecker reports how close a cache is to its byte budget.
type BudgetChecker struct {
	budget Budget
	config BudgetCheckerConfig
}

// NewBudgetChecker creates a BudgetChecker. Out-of-range thresholds fall
// back to the defaults; a critical threshold below the warning threshold
// is raised to it.
func NewBudgetChecker(b Budget, config BudgetCheckerConfig) *BudgetChecker {
	if config.WarningThreshold <= 0 || config.WarningThreshold >= 1 {
		config.WarningThreshold = 0.8
	}
	if config.CriticalThreshold <= 0 || config.CriticalThreshold > 1 {
		config.CriticalThreshold = 0.95
	}
	if config.CriticalThreshold < config.WarningThreshold {
		config.CriticalThreshold = config.WarningThreshold
	}
	return &BudgetChecker{budget: b, config: config}
}

// Name returns "budget".
func (c *BudgetChecker) Name() string { return "budget" }

// Check compares the current size to the budget.
func (c *BudgetChecker) Check(ctx context.Context) Result {
	if err := ctx.Err(); err != nil {
		return Unhealthy("context cancelled", err)
	}

	size, limit := c.budget.Size(), c.budget.MaxSize()
	if limit <= 0 {
		return Unhealthy("no byte budget configured", ErrCheckFailed)
	}
	usage := float64(size) / float64(limit)
	details := map[string]any{
		"size_bytes":    size,
		"max_bytes":     limit,
		"usage_percent": usage * 100,
	}

	switch {
	case usage >= c.config.CriticalThreshold:
		return Unhealthy(fmt.Sprintf("cache budget critical: %.1f%%", usage*100), ErrCheckFailed).WithDetails(details)
	case usage >= c.config.WarningThreshold:
		return Degraded(fmt.Sprintf("cache budget high: %.1f%%", usage*100)).WithDetails(details)
	default:
		return Healthy(fmt.Sprintf("cache budget normal: %.1f%%", usage*100)).WithDetails(details)
	}
}
