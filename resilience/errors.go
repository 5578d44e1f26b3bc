package resilience

import "errors"

// ErrMaxRetriesExceeded is returned when every retry attempt failed.
var ErrMaxRetriesExceeded = errors.New("resilience: max retries exceeded")
