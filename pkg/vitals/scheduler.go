package vitals

import "time"

// Cadence drives one periodic acquisition schedule from a shared clock.
// The due time always advances by a whole period from the previous due
// time, never from "now", so a tick that is serviced late does not push
// every subsequent tick later.
type Cadence struct {
	period time.Duration
	next   time.Time
}

// NewCadence creates a cadence with the given period, first due at start.
func NewCadence(period time.Duration, start time.Time) Cadence {
	return Cadence{period: period, next: start}
}

// Fire reports whether the cadence is due at now and, if so, advances the
// due time by one period.
func (c *Cadence) Fire(now time.Time) bool {
	if now.Before(c.next) {
		return false
	}
	c.next = c.next.Add(c.period)
	return true
}

// Period returns the cadence period.
func (c *Cadence) Period() time.Duration {
	return c.period
}

// Next returns the next due time.
func (c *Cadence) Next() time.Time {
	return c.next
}
