package device

import (
	"context"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/itohio/gopulse/pkg/config"
	"github.com/itohio/gopulse/pkg/telemetry"
	"github.com/itohio/gopulse/pkg/vitals"
)

// Mock simulates a sensor device for testing and development. It
// synthesizes a cardiac waveform and a skin-conductance signal, runs them
// through the real acquisition pipeline at the real cadences, and emits
// records through the real encoder and parser, so the full wire path is
// exercised without hardware.
type Mock struct {
	cfg *config.Config

	records   chan telemetry.Record
	done      chan struct{}
	mu        sync.RWMutex
	ctx       context.Context
	cancel    context.CancelFunc
	connected bool

	// Simulation state
	startTime   time.Time
	phase       float64
	cardiac     *vitals.Cardiac
	conductance *vitals.Conductance
}

// NewMock creates a new mocked device instance.
func NewMock(cfg *config.Config) *Mock {
	if cfg == nil {
		cfg = config.Default()
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &Mock{
		cfg:     cfg,
		records: make(chan telemetry.Record, DefaultBufferSize),
		ctx:     ctx,
		cancel:  cancel,
	}
}

// Connect starts the simulated acquisition loop.
func (m *Mock) Connect() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.connected {
		return fmt.Errorf("already connected")
	}

	m.connected = true
	m.startTime = time.Now()
	m.phase = 0
	m.cardiac = vitals.NewCardiac(m.cfg.CardiacParams())
	m.conductance = vitals.NewConductance(m.cfg.ConductanceParams())
	m.done = make(chan struct{})

	go m.run()

	return nil
}

// Close stops the mocked device. The records channel is closed by the
// simulation goroutine itself, never concurrently with one of its sends;
// Close waits for that goroutine to exit before returning.
func (m *Mock) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.connected {
		return nil
	}

	m.cancel()
	<-m.done
	m.connected = false

	return nil
}

// Records returns the channel of decoded telemetry records.
func (m *Mock) Records() <-chan telemetry.Record {
	return m.records
}

// IsConnected returns whether the device is currently connected.
func (m *Mock) IsConnected() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.connected
}

// run drives the two acquisition cadences the same way the firmware does:
// each cadence fires from its own due-time marker so neither drifts. It is
// the sole sender on the records channel and closes it on exit.
func (m *Mock) run() {
	defer close(m.done)
	defer close(m.records)

	now := time.Now()
	fast := vitals.NewCadence(m.cfg.Cardiac.SamplePeriod, now)
	slow := vitals.NewCadence(m.cfg.Conductance.SamplePeriod, now)

	ticker := time.NewTicker(m.cfg.Cardiac.SamplePeriod)
	defer ticker.Stop()

	for {
		select {
		case <-m.ctx.Done():
			return
		case now = <-ticker.C:
			if fast.Fire(now) {
				raw := m.cardiacSample(now)
				bpm, beat := m.cardiac.Process(raw, now)
				m.emit(telemetry.CardiacLine(raw, bpm, beat), now)
			}
			if slow.Fire(now) {
				reading := vitals.Oversample(func() uint16 {
					return m.conductanceSample(time.Now())
				}, m.cfg.Conductance.Oversample, 0)
				filtered, signal, contact := m.conductance.Process(reading)
				m.emit(telemetry.ConductanceLine(filtered, signal, contact), now)
			}
		}
	}
}

// emit routes one encoded line back through the parser, as if it had
// arrived over the wire.
func (m *Mock) emit(line string, ts time.Time) {
	rec, ok := telemetry.ParseLine(line, ts)
	if !ok {
		return
	}

	select {
	case m.records <- rec:
	case <-m.ctx.Done():
	default:
		// Channel full, skip
	}
}

// cardiacSample synthesizes one cardiac waveform sample: a resting level
// with a narrow systolic peak once per cycle plus deterministic noise.
func (m *Mock) cardiacSample(now time.Time) uint16 {
	cycle := time.Duration(float64(time.Minute) / m.cfg.Mock.HeartRateBPM)
	elapsed := now.Sub(m.startTime)
	m.phase = math.Mod(elapsed.Seconds()/cycle.Seconds(), 1.0)

	peak := 340.0 * gauss(m.phase, 0.3, 0.025)
	noise := m.cfg.Mock.NoiseLevel * 0.5 *
		(math.Sin(float64(elapsed.Nanoseconds())*0.0011) +
			math.Cos(float64(elapsed.Nanoseconds())*0.0007))

	return clampADC(512 + peak + noise)
}

// conductanceSample synthesizes one raw conductance sub-sample. A coupled
// sensor shows a slow wander plus jitter; an uncoupled one sits still.
func (m *Mock) conductanceSample(now time.Time) uint16 {
	if !m.cfg.Mock.Contact {
		return 200
	}

	elapsed := now.Sub(m.startTime).Seconds()
	wander := 40 * math.Sin(2*math.Pi*0.05*elapsed)
	jitter := 6 * math.Sin(float64(now.UnixNano())*0.013)

	return clampADC(300 + wander + jitter)
}

func gauss(x, mu, sigma float64) float64 {
	z := (x - mu) / sigma
	return math.Exp(-0.5 * z * z)
}

func clampADC(v float64) uint16 {
	if v < 0 {
		return 0
	}
	if v > 1023 {
		return 1023
	}
	return uint16(v)
}
