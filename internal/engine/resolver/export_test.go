package resolver

import "time"

// WithClock replaces the clock used for resolution timestamps.
func (r *Resolver) WithClock(now func() time.Time) *Resolver {
	r.now = now
	return r
}
