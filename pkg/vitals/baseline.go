package vitals

// Baseline tracks the slow DC component of a signal with exponential
// smoothing. The tracked value only ever approaches new input, it never
// jumps to it.
type Baseline struct {
	value float32
	alpha float32
}

// NewBaseline creates a baseline tracker with the given smoothing factor.
// Smaller alpha means slower tracking. The baseline starts at zero and
// converges toward the input over roughly 1/alpha samples.
func NewBaseline(alpha float32) Baseline {
	return Baseline{alpha: alpha}
}

// Update folds one raw value into the baseline and returns the new value.
func (b *Baseline) Update(raw float32) float32 {
	b.value = b.value*(1-b.alpha) + raw*b.alpha
	return b.value
}

// Value returns the current baseline value.
func (b *Baseline) Value() float32 {
	return b.value
}
