package monitor

import "time"

// GapCapacity is the number of consecutive beat-to-beat gaps kept by the
// interval estimator. Fixed so the estimator memory stays bounded.
const GapCapacity = 6

// windowEstimator derives a rate from the count of beat edges within a
// trailing time window.
type windowEstimator struct {
	window time.Duration
	times  []time.Time
}

func newWindowEstimator(window time.Duration) windowEstimator {
	return windowEstimator{window: window}
}

func (e *windowEstimator) add(ts time.Time) {
	e.times = append(e.times, ts)
}

// prune discards timestamps older than the trailing window. Called on
// every update, so the retained slice stays bounded by the window.
func (e *windowEstimator) prune(now time.Time) {
	cutoff := now.Add(-e.window)
	keep := 0
	for keep < len(e.times) && !e.times[keep].After(cutoff) {
		keep++
	}
	if keep > 0 {
		e.times = e.times[keep:]
	}
}

func (e *windowEstimator) rate() (float64, bool) {
	if len(e.times) == 0 {
		return 0, false
	}
	return float64(len(e.times)) / e.window.Seconds() * 60, true
}

func (e *windowEstimator) reset() {
	e.times = e.times[:0]
}

// intervalEstimator derives a rate from the mean of a bounded ring of
// consecutive beat-to-beat gaps.
type intervalEstimator struct {
	gaps   [GapCapacity]float64 // milliseconds
	cursor int
	count  int
}

func (e *intervalEstimator) add(gap time.Duration) {
	e.gaps[e.cursor] = float64(gap) / float64(time.Millisecond)
	e.cursor = (e.cursor + 1) % GapCapacity
	if e.count < GapCapacity {
		e.count++
	}
}

func (e *intervalEstimator) rate() (float64, bool) {
	if e.count == 0 {
		return 0, false
	}
	var sum float64
	for i := 0; i < e.count; i++ {
		sum += e.gaps[i]
	}
	mean := sum / float64(e.count)
	if mean <= 0 {
		return 0, false
	}
	return 60000 / mean, true
}

func (e *intervalEstimator) reset() {
	e.cursor = 0
	e.count = 0
}
