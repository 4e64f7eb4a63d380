package vitals

import (
	"time"

	"github.com/chewxy/math32"
)

// ContactWindowCapacity is the number of conductance readings kept for
// the variance estimate. Fixed so the classifier memory stays bounded.
const ContactWindowCapacity = 40

// ConductanceParams holds the tunables of the contact classifier.
type ConductanceParams struct {
	FilterBeta    float32 // fast smoothing factor for the filtered value
	BaselineDecay float32 // slow decay factor for the reference level
	StddevFloor   float32 // below this variability, coupling is doubtful
	SignalFloor   float32 // below this baseline deviation, coupling is doubtful
}

// DefaultConductanceParams returns the classifier defaults.
func DefaultConductanceParams() ConductanceParams {
	return ConductanceParams{
		FilterBeta:    0.18,
		BaselineDecay: 0.997,
		StddevFloor:   2.0,
		SignalFloor:   6.0,
	}
}

// varianceRing is a fixed-capacity overwrite-oldest buffer of conductance
// readings, used only to compute mean and population standard deviation.
type varianceRing struct {
	values [ContactWindowCapacity]float32
	cursor int
	count  int
}

func (r *varianceRing) push(v float32) {
	r.values[r.cursor] = v
	r.cursor = (r.cursor + 1) % ContactWindowCapacity
	if r.count < ContactWindowCapacity {
		r.count++
	}
}

func (r *varianceRing) mean() float32 {
	if r.count == 0 {
		return 0
	}
	var sum float32
	for i := 0; i < r.count; i++ {
		sum += r.values[i]
	}
	return sum / float32(r.count)
}

func (r *varianceRing) stddev() float32 {
	if r.count == 0 {
		return 0
	}
	m := r.mean()
	var sum float32
	for i := 0; i < r.count; i++ {
		d := r.values[i] - m
		sum += d * d
	}
	return math32.Sqrt(sum / float32(r.count))
}

// Conductance classifies sensor-skin contact from the variability of the
// skin-conductance signal and its deviation from a slow reference level.
// Genuine contact produces both; a quiet signal sitting on its baseline
// means the sensor is not coupled to skin.
type Conductance struct {
	p ConductanceParams

	filtered float32
	baseline float32

	window varianceRing
}

// NewConductance creates a contact classifier with the given parameters.
func NewConductance(p ConductanceParams) *Conductance {
	return &Conductance{p: p}
}

// Process folds one noise-reduced reading into the classifier. It returns
// the rounded filtered value, the rounded baseline-relative signal value
// and the contact classification.
func (g *Conductance) Process(raw uint16) (filtered, signal int, contact bool) {
	v := float32(raw)
	g.filtered = g.filtered*(1-g.p.FilterBeta) + v*g.p.FilterBeta
	g.baseline = g.baseline*g.p.BaselineDecay + g.filtered*(1-g.p.BaselineDecay)

	g.window.push(v)

	dev := math32.Abs(g.filtered - g.baseline)
	contact = g.window.stddev() >= g.p.StddevFloor || dev >= g.p.SignalFloor

	return int(math32.Round(g.filtered)), int(math32.Round(g.filtered - g.baseline)), contact
}

// Filtered returns the current fast-smoothed value.
func (g *Conductance) Filtered() float32 {
	return g.filtered
}

// Reference returns the current slow reference level.
func (g *Conductance) Reference() float32 {
	return g.baseline
}

// Oversample reads n back-to-back raw sub-samples with a fixed delay
// between reads and returns their mean. It blocks for up to n*delay and
// the caller must budget that bound against the fastest cadence period;
// it is a deliberate bounded batch, not asynchronous I/O.
func Oversample(read func() uint16, n int, delay time.Duration) uint16 {
	if n <= 0 {
		n = 1
	}
	var sum uint32
	for i := 0; i < n; i++ {
		if i > 0 && delay > 0 {
			time.Sleep(delay)
		}
		sum += uint32(read())
	}
	return uint16(sum / uint32(n))
}
