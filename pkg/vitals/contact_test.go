package vitals

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConductance_ConstantInput_ContactAbsent(t *testing.T) {
	g := NewConductance(DefaultConductanceParams())

	// A constant input sustained well past the variance window: the
	// window variance collapses and the filtered value settles onto the
	// slow reference, so coupling is ruled out.
	var contact bool
	for i := 0; i < 3000; i++ {
		_, _, contact = g.Process(300)
	}

	assert.False(t, contact)
	assert.InDelta(t, 300, float64(g.Filtered()), 1.0)
	assert.InDelta(t, 300, float64(g.Reference()), 6.0)
}

func TestConductance_ConstantInput_PresentUntilSettled(t *testing.T) {
	g := NewConductance(DefaultConductanceParams())

	// Early on the filtered value is still far from the slow reference,
	// so contact reads present even though the input is flat. There is
	// no explicit sensor-presence signal; absence is inferred only once
	// both signatures are gone.
	var contact bool
	for i := 0; i < ContactWindowCapacity+10; i++ {
		_, _, contact = g.Process(300)
	}

	assert.True(t, contact)
}

func TestConductance_AlternatingInput_ContactPresent(t *testing.T) {
	g := NewConductance(DefaultConductanceParams())

	var contact bool
	for i := 0; i < 3000; i++ {
		v := uint16(280)
		if i%2 == 0 {
			v = 320
		}
		_, _, contact = g.Process(v)
	}

	// Range 40 across the whole window: stddev is ~20, far above the
	// variability floor.
	assert.True(t, contact)
}

func TestConductance_SignalTracksFilteredMinusReference(t *testing.T) {
	g := NewConductance(DefaultConductanceParams())

	var filtered, signal int
	for i := 0; i < 100; i++ {
		filtered, signal, _ = g.Process(400)
	}

	require.Greater(t, filtered, 0)
	// The reported signal value is the rounded gap between the fast and
	// slow trackers.
	assert.InDelta(t, float64(g.Filtered()-g.Reference()), float64(signal), 1.0)
}

func TestVarianceRing_Stddev(t *testing.T) {
	tests := []struct {
		name   string
		values []float32
		want   float64
	}{
		{name: "empty", values: nil, want: 0},
		{name: "single value", values: []float32{5}, want: 0},
		{name: "identical values", values: []float32{7, 7, 7, 7}, want: 0},
		{name: "two-point spread", values: []float32{10, 20}, want: 5},
		{name: "symmetric spread", values: []float32{8, 12, 8, 12}, want: 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var r varianceRing
			for _, v := range tt.values {
				r.push(v)
			}
			assert.InDelta(t, tt.want, float64(r.stddev()), 0.001)
		})
	}
}

func TestVarianceRing_OverwriteOldest(t *testing.T) {
	var r varianceRing

	for i := 0; i < ContactWindowCapacity; i++ {
		r.push(100)
	}
	require.InDelta(t, 0, float64(r.stddev()), 0.001)

	// Refill with a different level: once the old values are fully
	// overwritten the variance collapses again.
	for i := 0; i < ContactWindowCapacity; i++ {
		r.push(200)
	}

	assert.Equal(t, ContactWindowCapacity, r.count)
	assert.InDelta(t, 200, float64(r.mean()), 0.001)
	assert.InDelta(t, 0, float64(r.stddev()), 0.001)
}

func TestOversample(t *testing.T) {
	readings := []uint16{10, 20, 30, 40}
	i := 0
	read := func() uint16 {
		v := readings[i%len(readings)]
		i++
		return v
	}

	assert.Equal(t, uint16(25), Oversample(read, 4, 0))

	// A non-positive count degrades to a single read.
	i = 0
	assert.Equal(t, uint16(10), Oversample(read, 0, 0))
}

func TestOversample_BlockingBound(t *testing.T) {
	start := time.Now()
	Oversample(func() uint16 { return 1 }, 4, time.Millisecond)
	elapsed := time.Since(start)

	// n reads incur n-1 inter-read delays.
	assert.GreaterOrEqual(t, elapsed, 3*time.Millisecond)
	assert.Less(t, elapsed, 100*time.Millisecond)
}
