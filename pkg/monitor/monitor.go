package monitor

import (
	"math"
	"sync"
	"time"

	"github.com/itohio/gopulse/pkg/config"
	"github.com/itohio/gopulse/pkg/telemetry"
)

// TracePoint is one displayable cardiac waveform sample.
type TracePoint struct {
	Timestamp time.Time
	Raw       int
	Beat      bool
}

// Rate is one beats-per-minute estimate that may be absent.
type Rate struct {
	BPM   float64
	Valid bool
}

// Snapshot is the latest consumer state, read by presentation at its own
// pace with last-value-wins semantics.
type Snapshot struct {
	Timestamp time.Time

	// Cardiac
	Raw      int
	Beat     bool
	Reported Rate // producer-reported rate, as received
	Window   Rate // count of local beat edges in the trailing window
	Interval Rate // mean of the last few local beat-to-beat gaps
	Mismatch bool // reported and window rates disagree beyond the margin

	// Conductance
	Filtered int
	Signal   int
	Contact  bool
}

// Monitor re-derives independent rate estimates from the telemetry stream
// and cross-checks them against the producer-reported rate. All state is
// mutated by exactly one record-processing goroutine; accessors copy out
// under a read lock.
//
// All time arithmetic uses record timestamps, so an identical record
// sequence fed to a fresh Monitor yields an identical snapshot.
type Monitor struct {
	mu sync.RWMutex

	// Cardiac waveform kept for display, pruned by timestamp.
	trace       []TracePoint
	traceWindow time.Duration

	// Local beat-edge detection. The edge debounce is the consumer's own
	// minimum gap, independent of the producer's refractory gap.
	edgeDebounce time.Duration
	lastBeatFlag bool
	lastEdge     time.Time
	hasEdge      bool

	window    windowEstimator
	intervals intervalEstimator
	margin    float64

	snap Snapshot

	// Update callbacks
	callbacks []func(Snapshot)
	cbMu      sync.RWMutex

	// Set when the input channel closes, prevents further callbacks.
	shutdown bool
}

// New creates a new Monitor instance.
func New(cfg *config.Config) *Monitor {
	return &Monitor{
		traceWindow:  cfg.Monitor.TraceWindow,
		edgeDebounce: cfg.Monitor.EdgeDebounce,
		window:       newWindowEstimator(cfg.Monitor.RateWindow),
		margin:       cfg.Monitor.MismatchMargin,
	}
}

// ProcessRecords processes records from the input channel until it
// closes, then sets the shutdown flag to prevent further callbacks.
func (m *Monitor) ProcessRecords(input <-chan telemetry.Record) {
	for rec := range input {
		m.processRecord(rec)
	}
	m.mu.Lock()
	m.shutdown = true
	m.mu.Unlock()
}

// processRecord folds one decoded record into the consumer state.
func (m *Monitor) processRecord(rec telemetry.Record) {
	m.mu.Lock()

	now := rec.Timestamp
	m.snap.Timestamp = now

	if rec.HasCardiac() {
		m.processCardiac(rec, now)
	}
	if rec.HasConductance() {
		m.processConductance(rec)
	}

	shouldNotify := !m.shutdown
	snap := m.snap
	m.mu.Unlock()

	if shouldNotify {
		m.notifyCallbacks(snap)
	}
}

func (m *Monitor) processCardiac(rec telemetry.Record, now time.Time) {
	if rec.Raw.Valid {
		m.snap.Raw = rec.Raw.Value
	}

	if rec.BPM.Valid {
		// The producer reports 0 when its own rate is unknown.
		m.snap.Reported = Rate{
			BPM:   float64(rec.BPM.Value),
			Valid: rec.BPM.Value > 0,
		}
	}

	if rec.Beat.Valid {
		flag := rec.Beat.Value != 0
		if flag && !m.lastBeatFlag {
			m.acceptEdge(now)
		}
		m.lastBeatFlag = flag
		m.snap.Beat = flag
	}

	if rec.Raw.Valid {
		m.trace = append(m.trace, TracePoint{
			Timestamp: now,
			Raw:       rec.Raw.Value,
			Beat:      m.snap.Beat,
		})
		m.pruneTrace(now)
	}

	// Recompute both local estimates and the cross-check on every
	// cardiac record: the window estimate decays as edges age out even
	// without new beats.
	m.window.prune(now)
	m.snap.Window.BPM, m.snap.Window.Valid = m.window.rate()
	m.snap.Interval.BPM, m.snap.Interval.Valid = m.intervals.rate()
	m.snap.Mismatch = m.snap.Reported.Valid && m.snap.Window.Valid &&
		math.Abs(m.snap.Reported.BPM-m.snap.Window.BPM) > m.margin
}

// acceptEdge records a locally-detected beat edge, debounced by the
// consumer's own minimum gap. An interval is only computed against the
// previous accepted edge, never a rejected one.
func (m *Monitor) acceptEdge(now time.Time) {
	if m.hasEdge && now.Sub(m.lastEdge) <= m.edgeDebounce {
		return
	}
	if m.hasEdge {
		m.intervals.add(now.Sub(m.lastEdge))
	}
	m.window.add(now)
	m.lastEdge = now
	m.hasEdge = true
}

func (m *Monitor) processConductance(rec telemetry.Record) {
	if rec.Filtered.Valid {
		m.snap.Filtered = rec.Filtered.Value
	}
	if rec.Signal.Valid {
		m.snap.Signal = rec.Signal.Value
	}
	if rec.Contact.Valid {
		m.snap.Contact = rec.Contact.Value != 0
	}
}

func (m *Monitor) pruneTrace(now time.Time) {
	cutoff := now.Add(-m.traceWindow)
	keep := 0
	for keep < len(m.trace) && !m.trace[keep].Timestamp.After(cutoff) {
		keep++
	}
	if keep > 0 {
		m.trace = m.trace[keep:]
	}
}

// Snapshot returns the latest consumer state.
func (m *Monitor) Snapshot() Snapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.snap
}

// Trace returns a copy of the current waveform buffer, oldest first.
func (m *Monitor) Trace() []TracePoint {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]TracePoint, len(m.trace))
	copy(result, m.trace)
	return result
}

// Reset clears all consumer state, as after a disconnect.
func (m *Monitor) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.trace = m.trace[:0]
	m.lastBeatFlag = false
	m.hasEdge = false
	m.lastEdge = time.Time{}
	m.window.reset()
	m.intervals.reset()
	m.snap = Snapshot{}
}

// ResetShutdown resets the shutdown flag, allowing callbacks to be sent
// again. Call before starting a new processing chain.
func (m *Monitor) ResetShutdown() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.shutdown = false
}

// OnUpdate registers a callback invoked after each processed record with
// the resulting snapshot. The callback should return quickly.
func (m *Monitor) OnUpdate(callback func(Snapshot)) {
	m.cbMu.Lock()
	defer m.cbMu.Unlock()
	m.callbacks = append(m.callbacks, callback)
}

// notifyCallbacks invokes all registered callbacks without holding the
// state lock.
func (m *Monitor) notifyCallbacks(snap Snapshot) {
	m.cbMu.RLock()
	callbacks := make([]func(Snapshot), len(m.callbacks))
	copy(callbacks, m.callbacks)
	m.cbMu.RUnlock()

	for _, cb := range callbacks {
		if cb != nil {
			cb(snap)
		}
	}
}
