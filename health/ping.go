package health

import (
	"context"
	"fmt"
)

// Pinger is a backend that can verify it is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// PingChecker reports unhealthy when its Pinger fails.
type PingChecker struct {
	name string
	p    Pinger
}

// NewPingChecker creates a PingChecker with the given name.
func NewPingChecker(name string, p Pinger) *PingChecker {
	return &PingChecker{name: name, p: p}
}

// Name returns the checker name.
func (c *PingChecker) Name() string { return c.name }

// Check pings the backend.
func (c *PingChecker) Check(ctx context.Context) Result {
	if err := c.p.Ping(ctx); err != nil {
		return Unhealthy(fmt.Sprintf("%s unreachable", c.name), err)
	}
	return Healthy(fmt.Sprintf("%s reachable", c.name))
}
