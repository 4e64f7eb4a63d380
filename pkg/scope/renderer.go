package scope

import (
	"image/color"
	"strconv"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"

	"github.com/itohio/gopulse/pkg/monitor"
)

// scopeRenderer renders the scope widget.
type scopeRenderer struct {
	scope *ScopeWidget

	bg      *canvas.Rectangle
	objects []fyne.CanvasObject

	lastSize fyne.Size
}

// MinSize returns the minimum size of the widget.
func (r *scopeRenderer) MinSize() fyne.Size {
	return fyne.NewSize(400, 300)
}

// Layout arranges the widget components.
func (r *scopeRenderer) Layout(size fyne.Size) {
	r.bg.Resize(size)

	if r.lastSize.Width != size.Width || r.lastSize.Height != size.Height {
		r.lastSize = size
		// Size changed, redraw with new dimensions.
		r.scope.BaseWidget.Refresh()
	}
}

// Refresh updates the widget display.
func (r *scopeRenderer) Refresh() {
	r.scope.mu.RLock()
	trace := r.scope.displayTrace
	snap := r.scope.snap
	yMin := r.scope.yMin
	yMax := r.scope.yMax
	xMin := r.scope.xMin
	xMax := r.scope.xMax
	r.scope.mu.RUnlock()

	size := r.scope.Size()
	if size.Width == 0 || size.Height == 0 {
		return
	}

	// Rebuild the object list (keep background)
	r.objects = []fyne.CanvasObject{r.bg}

	marginLeft := float32(50.0)
	marginRight := float32(20.0)
	marginTop := float32(20.0)
	marginBottom := float32(30.0)

	plotWidth := size.Width - marginLeft - marginRight
	plotHeight := size.Height - marginTop - marginBottom
	plotX := marginLeft
	plotY := marginTop

	r.drawGrid(plotX, plotY, plotWidth, plotHeight, yMin, yMax, xMin, xMax)

	if len(trace) > 1 {
		r.drawWaveform(plotX, plotY, plotWidth, plotHeight, trace, yMin, yMax, xMin, xMax)
	}

	r.drawPulseIndicator(plotX, plotY, plotWidth, snap)
}

// drawGrid draws the oscilloscope-style grid.
func (r *scopeRenderer) drawGrid(plotX, plotY, plotWidth, plotHeight float32, yMin, yMax float64, xMin, xMax time.Time) {
	gridColor := color.RGBA{R: 40, G: 40, B: 40, A: 255}
	labelColor := color.RGBA{R: 150, G: 150, B: 150, A: 255}

	// Horizontal grid lines (raw value)
	numHLines := 8
	for i := 0; i <= numHLines; i++ {
		y := plotY + float32(i)*plotHeight/float32(numHLines)
		line := canvas.NewLine(gridColor)
		line.Position1 = fyne.NewPos(plotX, y)
		line.Position2 = fyne.NewPos(plotX+plotWidth, y)
		line.StrokeWidth = 1
		r.objects = append(r.objects, line)

		value := yMax - float64(i)*(yMax-yMin)/float64(numHLines)
		text := canvas.NewText(strconv.Itoa(int(value)), labelColor)
		text.TextSize = 10
		text.Alignment = fyne.TextAlignTrailing
		text.Move(fyne.NewPos(plotX-5, y-6))
		r.objects = append(r.objects, text)
	}

	// Vertical grid lines (time)
	numVLines := 10
	span := xMax.Sub(xMin)
	for i := 0; i <= numVLines; i++ {
		x := plotX + float32(i)*plotWidth/float32(numVLines)
		line := canvas.NewLine(gridColor)
		line.Position1 = fyne.NewPos(x, plotY)
		line.Position2 = fyne.NewPos(x, plotY+plotHeight)
		line.StrokeWidth = 1
		r.objects = append(r.objects, line)

		offset := span.Seconds() * float64(i) / float64(numVLines)
		text := canvas.NewText(formatSeconds(offset), labelColor)
		text.TextSize = 10
		text.Alignment = fyne.TextAlignCenter
		text.Move(fyne.NewPos(x-15, plotY+plotHeight+5))
		r.objects = append(r.objects, text)
	}
}

// drawWaveform draws the cardiac trace (green) with beat marks (red).
func (r *scopeRenderer) drawWaveform(plotX, plotY, plotWidth, plotHeight float32, trace []monitor.TracePoint, yMin, yMax float64, xMin, xMax time.Time) {
	span := xMax.Sub(xMin).Seconds()
	if span <= 0 {
		return
	}

	waveColor := color.RGBA{R: 80, G: 220, B: 100, A: 255}
	beatColor := color.RGBA{R: 230, G: 60, B: 60, A: 255}

	var prev fyne.Position
	var prevBeat bool
	for i, p := range trace {
		x := plotX + float32(p.Timestamp.Sub(xMin).Seconds()/span)*plotWidth
		y := plotY + plotHeight - float32((float64(p.Raw)-yMin)/(yMax-yMin))*plotHeight
		pos := fyne.NewPos(x, y)

		if i > 0 {
			line := canvas.NewLine(waveColor)
			line.Position1 = prev
			line.Position2 = pos
			line.StrokeWidth = 1.5
			r.objects = append(r.objects, line)
		}

		// Mark the rising edge of the beat flag
		if p.Beat && !prevBeat {
			mark := canvas.NewLine(beatColor)
			mark.Position1 = fyne.NewPos(x, plotY)
			mark.Position2 = fyne.NewPos(x, plotY+plotHeight)
			mark.StrokeWidth = 1
			r.objects = append(r.objects, mark)
		}

		prev = pos
		prevBeat = p.Beat
	}
}

// drawPulseIndicator draws a circle that fills while the beat flag is
// high, and dims when skin contact is absent.
func (r *scopeRenderer) drawPulseIndicator(plotX, plotY, plotWidth float32, snap monitor.Snapshot) {
	c := canvas.NewCircle(color.RGBA{R: 60, G: 60, B: 60, A: 255})
	if snap.Beat {
		c.FillColor = color.RGBA{R: 230, G: 60, B: 60, A: 255}
	}
	if !snap.Contact {
		c.FillColor = color.RGBA{R: 40, G: 40, B: 40, A: 255}
		c.StrokeColor = color.RGBA{R: 90, G: 90, B: 90, A: 255}
		c.StrokeWidth = 1
	}

	const radius = float32(10)
	c.Resize(fyne.NewSize(2*radius, 2*radius))
	c.Move(fyne.NewPos(plotX+plotWidth-3*radius, plotY+radius))
	r.objects = append(r.objects, c)

	if snap.Mismatch {
		warn := canvas.NewText("rate mismatch", color.RGBA{R: 250, G: 180, B: 40, A: 255})
		warn.TextSize = 12
		warn.Alignment = fyne.TextAlignTrailing
		warn.Move(fyne.NewPos(plotX+plotWidth-4*radius, plotY+radius-6))
		r.objects = append(r.objects, warn)
	}
}

// Objects returns all canvas objects for rendering.
func (r *scopeRenderer) Objects() []fyne.CanvasObject {
	return r.objects
}

// Destroy cleans up resources.
func (r *scopeRenderer) Destroy() {
	// Cleanup handled by Fyne
}

func formatSeconds(s float64) string {
	return strconv.FormatFloat(s, 'f', 1, 64) + "s"
}
