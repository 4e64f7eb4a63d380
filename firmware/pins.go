package main

import "machine"

const (
	// Sampling configuration
	CARDIAC_INTERVAL_MS     = 4   // cardiac acquisition cadence (~250 Hz)
	CONDUCTANCE_INTERVAL_MS = 100 // skin-conductance acquisition cadence (~10 Hz)

	// Conductance oversampling: 16 back-to-back sub-samples with 30us
	// between reads. Worst-case blocking is 16*30us + conversion time,
	// well under one cardiac interval, so the fast cadence cannot miss
	// its due-time check by more than a fraction of its period.
	OVERSAMPLE          = 16
	OVERSAMPLE_DELAY_US = 30

	// ADC configuration
	ADC_REFERENCE_MV = 3300 // Reference voltage in millivolts (3.3V)
	ADC_RESOLUTION   = 10   // ADC resolution in bits (10-bit = 0-1023)

	// Sensor pins
	PIN_CARDIAC     = machine.A1
	PIN_CONDUCTANCE = machine.A2

	// Beat indicator LED, high while the pulse flag is active
	PIN_BEAT_LED = machine.D7

	// Serial configuration
	// Baud rate calculation: cardiac line "RAW 1023 BPM 200 Beat 1\n"
	// = ~25 bytes, 250 lines/sec = 6,250 bytes/sec; conductance line
	// "Value2 1023 Value4 -999 Contact 1\n" = ~35 bytes at 10 lines/sec.
	// Total ~6,600 bytes/sec. UART 8N1: 10 bits/byte = 66,000 baud
	// minimum. 115200 provides ~1.7x headroom.
	UART_BAUD_RATE = 115200
)
