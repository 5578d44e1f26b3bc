package cache

import (
	"errors"
	"fmt"
	"maps"
	"time"
)

// Category selects the TTL applied to an entry at write time.
type Category string

// Known categories.
const (
	PlayerStats   Category = "player-stats"
	Weather       Category = "weather"
	TradeAnalysis Category = "trade-analysis"
	VideoContent  Category = "video-content"
)

// ErrInvalidPolicy indicates a Policy that cannot resolve TTLs.
var ErrInvalidPolicy = errors.New("cache: invalid policy")

// Policy maps categories to TTLs.
type Policy struct {
	// TTLs is the per-category table. It must not be empty.
	TTLs map[Category]time.Duration

	// MaxTTL clamps every resolved TTL. If zero, no maximum is enforced.
	MaxTTL time.Duration
}

// DefaultPolicy returns the default TTL table.
// player-stats 5m, weather 30m, trade-analysis 15m, video-content 24h; MaxTTL 24h.
func DefaultPolicy() Policy {
	return Policy{
		TTLs: map[Category]time.Duration{
			PlayerStats:   5 * time.Minute,
			Weather:       30 * time.Minute,
			TradeAnalysis: 15 * time.Minute,
			VideoContent:  24 * time.Hour,
		},
		MaxTTL: 24 * time.Hour,
	}
}

// Clone returns a copy of p that shares no state with it.
func (p Policy) Clone() Policy {
	p.TTLs = maps.Clone(p.TTLs)
	return p
}

// Validate reports whether every TTL, and MaxTTL when set, is a whole
// number of seconds no smaller than one second. Records store the TTL in
// seconds, so anything finer could not be persisted as configured.
func (p Policy) Validate() error {
	if len(p.TTLs) == 0 {
		return fmt.Errorf("%w: empty TTL table", ErrInvalidPolicy)
	}
	for cat, ttl := range p.TTLs {
		if err := validTTL(ttl); err != nil {
			return fmt.Errorf("%w: ttl for %q: %w", ErrInvalidPolicy, cat, err)
		}
	}
	if p.MaxTTL < 0 {
		return fmt.Errorf("%w: negative max ttl", ErrInvalidPolicy)
	}
	if p.MaxTTL > 0 {
		if err := validTTL(p.MaxTTL); err != nil {
			return fmt.Errorf("%w: max ttl: %w", ErrInvalidPolicy, err)
		}
	}
	return nil
}

func validTTL(ttl time.Duration) error {
	if ttl < time.Second {
		return fmt.Errorf("%s is below the 1s minimum", ttl)
	}
	if ttl%time.Second != 0 {
		return fmt.Errorf("%s is not a whole number of seconds", ttl)
	}
	return nil
}

// Shortest returns the smallest TTL in the table.
func (p Policy) Shortest() time.Duration {
	var shortest time.Duration
	for _, ttl := range p.TTLs {
		if shortest == 0 || ttl < shortest {
			shortest = ttl
		}
	}
	return shortest
}

// TTLFor resolves the TTL for cat. An unknown category gets the shortest
// configured TTL.
func (p Policy) TTLFor(cat Category) time.Duration {
	ttl, ok := p.TTLs[cat]
	if !ok {
		ttl = p.Shortest()
	}
	if p.MaxTTL > 0 && ttl > p.MaxTTL {
		ttl = p.MaxTTL
	}
	return ttl
}
