package health_test

import (
	"context"
	"fmt"

	"github.com/jonwraymond/tiercache/health"
)

type usage struct{ size, max int64 }

func (u usage) Size() int64    { return u.size }
func (u usage) MaxSize() int64 { return u.max }

func ExampleBudgetChecker() {
	checker := health.NewBudgetChecker(usage{size: 45 << 20, max: 50 << 20}, health.BudgetCheckerConfig{})

	result := checker.Check(context.Background())
	fmt.Println(result.Status)
	fmt.Println(result.Message)
	// Output:
	// degraded
	// cache budget high: 90.0%
}

func ExampleAggregator_Report() {
	agg := health.NewAggregator()
	agg.Register("budget", health.NewBudgetChecker(usage{size: 1 << 20, max: 50 << 20}, health.BudgetCheckerConfig{}))
	agg.Register("store", health.NewCheckerFunc("store", func(context.Context) health.Result {
		return health.Healthy("ok")
	}))

	report := agg.Report(context.Background())
	for _, r := range report.Results {
		fmt.Printf("%s: %s\n", r.Name, r.Result.Status)
	}
	fmt.Println("overall:", report.Status)
	// Output:
	// budget: healthy
	// store: healthy
	// overall: healthy
}
