package vitals

import (
	"time"

	"github.com/chewxy/math32"
)

// IntervalCapacity is the number of inter-beat gaps kept for rate
// smoothing. Fixed so the rate memory stays bounded.
const IntervalCapacity = 6

// CardiacParams holds the tunables of the cardiac detector.
type CardiacParams struct {
	BaselineAlpha   float32       // baseline smoothing factor, applied every sample
	ThresholdOffset int32         // detection threshold above the rounded baseline
	Refractory      time.Duration // minimum gap between accepted beats
	PulseWidth      time.Duration // duration of the reported beat flag
	StaleAfter      time.Duration // no beat for this long clears the rate
}

// DefaultCardiacParams returns the detector defaults.
func DefaultCardiacParams() CardiacParams {
	return CardiacParams{
		BaselineAlpha:   0.001,
		ThresholdOffset: 50,
		Refractory:      600 * time.Millisecond,
		PulseWidth:      120 * time.Millisecond,
		StaleAfter:      5 * time.Second,
	}
}

// intervalRing is a fixed-capacity overwrite-oldest buffer of inter-beat
// gaps in milliseconds.
type intervalRing struct {
	gaps   [IntervalCapacity]float32
	cursor int
	count  int
}

func (r *intervalRing) push(gap float32) {
	r.gaps[r.cursor] = gap
	r.cursor = (r.cursor + 1) % IntervalCapacity
	if r.count < IntervalCapacity {
		r.count++
	}
}

func (r *intervalRing) mean() float32 {
	if r.count == 0 {
		return 0
	}
	var sum float32
	for i := 0; i < r.count; i++ {
		sum += r.gaps[i]
	}
	return sum / float32(r.count)
}

func (r *intervalRing) reset() {
	r.cursor = 0
	r.count = 0
}

type beatState int

const (
	stateIdle beatState = iota
	statePulseActive
)

// Cardiac processes one cardiac sample stream: an adaptive threshold over
// an exponential baseline, refractory-debounced beat detection, a
// fixed-width pulse flag and a smoothed rate over the last few inter-beat
// intervals.
//
// It is a two-state machine. Idle goes to PulseActive when a sample
// exceeds the threshold and the refractory gap since the last accepted
// beat has passed; PulseActive goes back to Idle when the pulse width
// elapses. An interval is only ever computed against the previous
// accepted beat, never a rejected edge.
type Cardiac struct {
	p CardiacParams

	baseline  Baseline
	threshold int32

	state      beatState
	lastBeat   time.Time
	pulseStart time.Time
	hasBeat    bool

	intervals intervalRing
	bpm       float32
}

// NewCardiac creates a cardiac processor with the given parameters.
func NewCardiac(p CardiacParams) *Cardiac {
	return &Cardiac{
		p:        p,
		baseline: NewBaseline(p.BaselineAlpha),
	}
}

// Process folds one raw sample into the detector. It returns the rounded
// smoothed rate (0 when unknown) and the current pulse-flag state.
func (c *Cardiac) Process(raw uint16, now time.Time) (bpm int, beat bool) {
	c.baseline.Update(float32(raw))
	c.threshold = int32(math32.Round(c.baseline.Value())) + c.p.ThresholdOffset

	// Staleness guard: a signal that stops crossing the threshold must
	// not keep reporting the last known rate, and the first beat after a
	// long gap must not produce an interval against stale state.
	if c.hasBeat && now.Sub(c.lastBeat) > c.p.StaleAfter {
		c.bpm = 0
		c.intervals.reset()
		c.hasBeat = false
	}

	switch c.state {
	case stateIdle:
		if int32(raw) > c.threshold && (!c.hasBeat || now.Sub(c.lastBeat) > c.p.Refractory) {
			if c.hasBeat {
				gap := float32(now.Sub(c.lastBeat)) / float32(time.Millisecond)
				c.intervals.push(gap)
				if m := c.intervals.mean(); m > 0 {
					c.bpm = 60000 / m
				}
			}
			c.lastBeat = now
			c.hasBeat = true
			c.pulseStart = now
			c.state = statePulseActive
		}
	case statePulseActive:
		if now.Sub(c.pulseStart) >= c.p.PulseWidth {
			c.state = stateIdle
		}
	}

	return int(math32.Round(c.bpm)), c.state == statePulseActive
}

// Rate returns the current smoothed rate in beats per minute, 0 when
// unknown.
func (c *Cardiac) Rate() float32 {
	return c.bpm
}

// Threshold returns the detection threshold computed for the last sample.
func (c *Cardiac) Threshold() int32 {
	return c.threshold
}

// IntervalCount returns how many inter-beat gaps are currently held.
func (c *Cardiac) IntervalCount() int {
	return c.intervals.count
}
