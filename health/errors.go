package health

import "errors"

// ErrCheckFailed is attached to unhealthy results that carry no underlying
// error of their own, such as an exhausted byte budget.
var ErrCheckFailed = errors.New("health: check failed")

// ErrCheckTimeout is the result error of a check that outlived the
// aggregator timeout.
var ErrCheckTimeout = errors.New("health: check timed out")

// ErrCheckerNotFound is returned by Aggregator.Check for an unregistered name.
var ErrCheckerNotFound = errors.New("health: checker not registered")
