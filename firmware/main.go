//go:generate tinygo flash -target=xiao

package main

import (
	"machine"
	"time"

	"github.com/itohio/gopulse/pkg/telemetry"
	"github.com/itohio/gopulse/pkg/vitals"
)

var (
	adcCardiac     machine.ADC
	adcConductance machine.ADC
	uart           = machine.UART0

	cardiac     *vitals.Cardiac
	conductance *vitals.Conductance

	// Reused line buffer for telemetry output
	lineBuf [48]byte
)

func main() {
	// Configure the beat indicator
	PIN_BEAT_LED.Configure(machine.PinConfig{Mode: machine.PinOutput})

	// Configure ADC pins
	PIN_CARDIAC.Configure(machine.PinConfig{Mode: machine.PinInput})
	PIN_CONDUCTANCE.Configure(machine.PinConfig{Mode: machine.PinInput})

	adcCardiac = machine.ADC{Pin: PIN_CARDIAC}
	adcConductance = machine.ADC{Pin: PIN_CONDUCTANCE}

	adcConfig := machine.ADCConfig{
		Reference:  ADC_REFERENCE_MV,
		Resolution: ADC_RESOLUTION,
	}

	adcCardiac.Configure(adcConfig)
	adcConductance.Configure(adcConfig)

	uart.Configure(machine.UARTConfig{
		BaudRate: UART_BAUD_RATE,
	})

	cardiac = vitals.NewCardiac(vitals.DefaultCardiacParams())
	conductance = vitals.NewConductance(vitals.DefaultConductanceParams())

	now := time.Now()
	fast := vitals.NewCadence(CARDIAC_INTERVAL_MS*time.Millisecond, now)
	slow := vitals.NewCadence(CONDUCTANCE_INTERVAL_MS*time.Millisecond, now)

	// Main loop: single cooperative thread, both cadences checked every
	// iteration. Each cadence advances from its previous due time, so a
	// late iteration does not accumulate drift.
	for {
		now = time.Now()

		if fast.Fire(now) {
			sampleCardiac(now)
		}

		if slow.Fire(now) {
			sampleConductance()
		}

		// Small delay to prevent tight loop (but still allow precise timing)
		time.Sleep(100 * time.Microsecond)
	}
}

func sampleCardiac(now time.Time) {
	raw := adcCardiac.Get()
	bpm, beat := cardiac.Process(raw, now)

	if beat {
		PIN_BEAT_LED.High()
	} else {
		PIN_BEAT_LED.Low()
	}

	line := telemetry.AppendCardiacLine(lineBuf[:0], raw, bpm, beat)
	uart.Write(line)
}

// sampleConductance takes the oversampled reading and emits one
// conductance line. The oversampling batch blocks for up to
// OVERSAMPLE*OVERSAMPLE_DELAY_US microseconds; see pins.go for the
// budget against the cardiac interval.
func sampleConductance() {
	reading := vitals.Oversample(func() uint16 {
		return adcConductance.Get()
	}, OVERSAMPLE, OVERSAMPLE_DELAY_US*time.Microsecond)

	filtered, signal, contact := conductance.Process(reading)

	line := telemetry.AppendConductanceLine(lineBuf[:0], filtered, signal, contact)
	uart.Write(line)
}
