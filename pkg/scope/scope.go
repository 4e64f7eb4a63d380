package scope

import (
	"image/color"
	"sync"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/widget"

	"github.com/itohio/gopulse/pkg/config"
	"github.com/itohio/gopulse/pkg/monitor"
)

// ScopeWidget is a custom Fyne widget that displays the cardiac waveform
// with beat marks, plus a pulsing indicator and contact state.
type ScopeWidget struct {
	widget.BaseWidget

	cfg *config.Config

	// Data (protected by mu)
	mu    sync.RWMutex
	trace []monitor.TracePoint
	snap  monitor.Snapshot

	// Display buffer (reused for downsampling)
	displayTrace []monitor.TracePoint

	// Auto-scaling
	yMin, yMax float64
	xMin, xMax time.Time

	maxDisplayPoints int
}

// New creates a new ScopeWidget instance.
func New(cfg *config.Config) *ScopeWidget {
	s := &ScopeWidget{
		cfg:              cfg,
		displayTrace:     make([]monitor.TracePoint, 0, 1000),
		maxDisplayPoints: 1000, // Limit points for efficient rendering
	}
	s.ExtendBaseWidget(s)
	s.Refresh()
	return s
}

// UpdateData updates the widget with the latest waveform and snapshot.
// Call from the monitor callback via fyne.Do().
func (s *ScopeWidget) UpdateData(trace []monitor.TracePoint, snap monitor.Snapshot) {
	s.mu.Lock()

	s.displayTrace = monitor.DownsampleTrace(s.displayTrace, trace, s.maxDisplayPoints)
	s.trace = trace
	s.snap = snap
	s.updateAutoScale()

	s.mu.Unlock()

	// Refresh outside the lock to avoid a deadlock with the renderer.
	s.Refresh()
}

// updateAutoScale calculates the axis ranges from current data.
func (s *ScopeWidget) updateAutoScale() {
	if len(s.displayTrace) == 0 {
		s.yMin = 0
		s.yMax = 1023
		s.xMin = time.Now()
		s.xMax = s.xMin.Add(s.cfg.Monitor.TraceWindow)
		return
	}

	s.yMin = float64(s.displayTrace[0].Raw)
	s.yMax = s.yMin
	for _, p := range s.displayTrace {
		if float64(p.Raw) < s.yMin {
			s.yMin = float64(p.Raw)
		}
		if float64(p.Raw) > s.yMax {
			s.yMax = float64(p.Raw)
		}
	}

	// Add 10% margin
	span := s.yMax - s.yMin
	if span == 0 {
		span = 1.0
	}
	s.yMin -= span * 0.1
	s.yMax += span * 0.1

	s.xMin = s.displayTrace[0].Timestamp
	s.xMax = s.displayTrace[len(s.displayTrace)-1].Timestamp
	if s.xMax.Sub(s.xMin) < s.cfg.Monitor.TraceWindow {
		s.xMax = s.xMin.Add(s.cfg.Monitor.TraceWindow)
	}
}

// CreateRenderer creates the widget renderer.
func (s *ScopeWidget) CreateRenderer() fyne.WidgetRenderer {
	bg := canvas.NewRectangle(color.RGBA{R: 20, G: 20, B: 20, A: 255}) // Dark background
	return &scopeRenderer{
		scope:   s,
		bg:      bg,
		objects: []fyne.CanvasObject{bg},
	}
}
