package main

import (
	"flag"
	"fmt"
	"log"
	"sync"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"

	"github.com/itohio/gopulse/pkg/config"
	"github.com/itohio/gopulse/pkg/device"
	"github.com/itohio/gopulse/pkg/monitor"
	"github.com/itohio/gopulse/pkg/scope"
)

func main() {
	var (
		portFlag   = flag.String("p", "", "Serial port override (e.g., COM3 or /dev/ttyACM0)")
		configFlag = flag.String("config", "config.yaml", "Configuration file path")
		mockFlag   = flag.Bool("mock", false, "Use mocked device instead of serial port")
	)
	flag.Parse()

	cfg, err := config.Load(*configFlag)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	if *portFlag != "" {
		cfg.Serial.Port = *portFlag
	}

	application := app.NewWithID("com.itohio.gopulse")

	window := application.NewWindow("Pulse Monitor")
	window.Resize(fyne.NewSize(1000, 600))
	window.CenterOnScreen()

	mon := monitor.New(cfg)

	state := &appState{
		cfg:     cfg,
		monitor: mon,
		window:  window,
		useMock: *mockFlag,
	}

	toolbar := createToolbar(state)

	scopeWidget := scope.New(cfg)
	state.scopeWidget = scopeWidget

	status := createStatusBar(state)

	// Presentation callback, registered once for the lifetime of the app.
	// Throttled to ~60 FPS; a presentation tick simply sees the most
	// recent snapshot, there is no queueing.
	const updateInterval = 16 * time.Millisecond
	mon.OnUpdate(func(snap monitor.Snapshot) {
		state.updateMu.Lock()
		now := time.Now()
		tooSoon := now.Sub(state.lastUpdateTime) < updateInterval
		if !tooSoon {
			state.lastUpdateTime = now
		}
		state.updateMu.Unlock()

		if tooSoon {
			return
		}

		trace := mon.Trace()
		fyne.Do(func() {
			state.scopeWidget.UpdateData(trace, snap)
			updateStatusLabels(state, snap)
		})
	})

	window.SetContent(container.NewBorder(
		toolbar,
		status,
		nil,
		nil,
		scopeWidget,
	))

	window.ShowAndRun()
}

// appState holds the application state.
type appState struct {
	cfg         *config.Config
	device      device.Device
	monitor     *monitor.Monitor
	scopeWidget *scope.ScopeWidget
	window      fyne.Window
	connectBtn  *widget.Button
	useMock     bool
	chain       *chainHandles // Current processing chain (nil if not connected)

	// Status labels
	reportedLabel *widget.Label
	windowLabel   *widget.Label
	intervalLabel *widget.Label
	contactLabel  *widget.Label
	mismatchLabel *widget.Label

	// Throttling for scope updates
	lastUpdateTime time.Time
	updateMu       sync.Mutex
}

// chainHandles tracks the record-processing chain for graceful shutdown.
type chainHandles struct {
	device           device.Device
	monitorGoroutine chan struct{} // Closed when the monitor goroutine exits
}

// createToolbar creates the application toolbar with the Connect button.
func createToolbar(state *appState) fyne.CanvasObject {
	connectBtn := widget.NewButtonWithIcon("", theme.LoginIcon(), func() {
		handleConnect(state)
	})
	state.connectBtn = connectBtn

	return container.NewBorder(
		nil, // top
		nil, // bottom
		container.NewHBox(connectBtn), // left
		nil, // right
		nil, // center (spacer)
	)
}

// createStatusBar creates the row of rate and state labels below the
// scope.
func createStatusBar(state *appState) fyne.CanvasObject {
	state.reportedLabel = widget.NewLabel("reported: --")
	state.windowLabel = widget.NewLabel("window: --")
	state.intervalLabel = widget.NewLabel("interval: --")
	state.contactLabel = widget.NewLabel("contact: --")
	state.mismatchLabel = widget.NewLabel("")

	return container.NewHBox(
		state.reportedLabel,
		state.windowLabel,
		state.intervalLabel,
		state.contactLabel,
		state.mismatchLabel,
	)
}

// closeProcessingChain gracefully closes the record-processing chain.
func closeProcessingChain(chain *chainHandles) {
	if chain == nil {
		return
	}

	// Closing the device closes the records channel, which lets the
	// monitor goroutine drain and exit.
	if chain.device != nil {
		chain.device.Close()
	}

	if chain.monitorGoroutine != nil {
		<-chain.monitorGoroutine
	}
}

// handleConnect handles the connect/disconnect button click.
func handleConnect(state *appState) {
	if state.device != nil && state.device.IsConnected() {
		// Disconnect - gracefully close the processing chain. Consumer
		// state does not survive a disconnect.
		closeProcessingChain(state.chain)
		state.chain = nil
		state.device = nil
		state.monitor.Reset()
		if state.useMock {
			fmt.Println("Disconnected from mocked device")
		} else {
			fmt.Println("Disconnected from serial port")
		}
		return
	}

	// Connect
	var dev device.Device
	if state.useMock {
		dev = device.NewMock(state.cfg)
		fmt.Println("Using mocked device")
	} else {
		dev = device.New(state.cfg.Serial.Port, device.DefaultBaudRate, device.DefaultBufferSize)
	}

	if err := dev.Connect(); err != nil {
		if state.useMock {
			dialog.ShowError(fmt.Errorf("failed to connect to mocked device: %w", err), state.window)
		} else {
			dialog.ShowError(fmt.Errorf("failed to connect to %s: %w", state.cfg.Serial.Port, err), state.window)
		}
		return
	}
	state.device = dev
	if state.useMock {
		fmt.Printf("Connected to mocked device\n")
	} else {
		fmt.Printf("Connected to serial port: %s\n", state.cfg.Serial.Port)
	}

	// Reset monitor shutdown flag for the new chain
	state.monitor.ResetShutdown()

	monitorDone := make(chan struct{})
	go func() {
		defer close(monitorDone)
		state.monitor.ProcessRecords(dev.Records())
	}()

	state.chain = &chainHandles{
		device:           dev,
		monitorGoroutine: monitorDone,
	}
}

// updateStatusLabels refreshes the rate and state labels. Must run on the
// main Fyne thread.
func updateStatusLabels(state *appState, snap monitor.Snapshot) {
	state.reportedLabel.SetText("reported: " + formatRate(snap.Reported))
	state.windowLabel.SetText("window: " + formatRate(snap.Window))
	state.intervalLabel.SetText("interval: " + formatRate(snap.Interval))

	if snap.Contact {
		state.contactLabel.SetText("contact: yes")
	} else {
		state.contactLabel.SetText("contact: no")
	}

	if snap.Mismatch {
		state.mismatchLabel.SetText("RATE MISMATCH")
	} else {
		state.mismatchLabel.SetText("")
	}
}

func formatRate(r monitor.Rate) string {
	if !r.Valid {
		return "--"
	}
	return fmt.Sprintf("%.0f bpm", r.BPM)
}
