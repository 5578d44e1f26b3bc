// Package resilience provides retry with backoff for storage operations.
//
// The cache's persistent stores are local, so faults are rare and short:
// a writer holding the database lock, or a checkpoint in progress. Retry
// absorbs those without surfacing them to cache callers.
//
//	retry := resilience.NewRetry(resilience.RetryConfig{
//	    MaxAttempts:  4,
//	    InitialDelay: 5 * time.Millisecond,
//	    RetryIf:      isBusy,
//	})
//
//	err := retry.Execute(ctx, func(ctx context.Context) error {
//	    _, err := db.ExecContext(ctx, query, args...)
//	    return err
//	})
package resilience
