package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/itohio/gopulse/pkg/vitals"
)

// Config represents the application configuration.
type Config struct {
	Serial      SerialConfig      `yaml:"serial"`
	Cardiac     CardiacConfig     `yaml:"cardiac"`
	Conductance ConductanceConfig `yaml:"conductance"`
	Monitor     MonitorConfig     `yaml:"monitor"`
	Mock        MockConfig        `yaml:"mock"`
}

// SerialConfig contains serial port configuration.
type SerialConfig struct {
	Port string `yaml:"port"`
}

// CardiacConfig contains the cardiac detector tunables.
type CardiacConfig struct {
	SamplePeriod    time.Duration `yaml:"sample_period"`    // fast acquisition cadence
	BaselineAlpha   float64       `yaml:"baseline_alpha"`   // baseline smoothing per sample
	ThresholdOffset int           `yaml:"threshold_offset"` // detection threshold above baseline
	Refractory      time.Duration `yaml:"refractory"`       // minimum gap between accepted beats
	PulseWidth      time.Duration `yaml:"pulse_width"`      // reported beat flag duration
	StaleAfter      time.Duration `yaml:"stale_after"`      // no beat for this long clears the rate
}

// ConductanceConfig contains the contact classifier tunables.
type ConductanceConfig struct {
	SamplePeriod  time.Duration `yaml:"sample_period"`  // slow acquisition cadence
	Oversample    int           `yaml:"oversample"`     // sub-samples averaged per reading
	FilterBeta    float64       `yaml:"filter_beta"`    // fast smoothing factor
	BaselineDecay float64       `yaml:"baseline_decay"` // slow reference decay
	StddevFloor   float64       `yaml:"stddev_floor"`   // minimum variability for contact
	SignalFloor   float64       `yaml:"signal_floor"`   // minimum baseline deviation for contact
}

// MonitorConfig contains the consumer-side estimator tunables.
//
// EdgeDebounce is deliberately independent of CardiacConfig.Refractory:
// the consumer applies its own, looser minimum gap to transmitted beat
// edges. Keep the two knobs separately tunable.
type MonitorConfig struct {
	EdgeDebounce   time.Duration `yaml:"edge_debounce"`   // minimum gap between accepted beat edges
	RateWindow     time.Duration `yaml:"rate_window"`     // trailing window for the count-based rate
	MismatchMargin float64       `yaml:"mismatch_margin"` // bpm difference that raises the mismatch flag
	TraceWindow    time.Duration `yaml:"trace_window"`    // how much raw waveform to keep for display
}

// MockConfig contains mock device configuration.
type MockConfig struct {
	HeartRateBPM float64 `yaml:"heart_rate_bpm"` // simulated heart rate
	NoiseLevel   float64 `yaml:"noise_level"`    // waveform noise amplitude (ADC counts)
	Contact      bool    `yaml:"contact"`        // simulate a coupled conductance sensor
}

// Default returns a default configuration with sensible values.
func Default() *Config {
	return &Config{
		Serial: SerialConfig{
			Port: "COM3", // Default for Windows, should be "/dev/ttyACM0" on Linux/Mac
		},
		Cardiac: CardiacConfig{
			SamplePeriod:    4 * time.Millisecond,
			BaselineAlpha:   0.001,
			ThresholdOffset: 50,
			Refractory:      600 * time.Millisecond,
			PulseWidth:      120 * time.Millisecond,
			StaleAfter:      5 * time.Second,
		},
		Conductance: ConductanceConfig{
			SamplePeriod:  100 * time.Millisecond,
			Oversample:    16,
			FilterBeta:    0.18,
			BaselineDecay: 0.997,
			StddevFloor:   2.0,
			SignalFloor:   6.0,
		},
		Monitor: MonitorConfig{
			EdgeDebounce:   250 * time.Millisecond,
			RateWindow:     10 * time.Second,
			MismatchMargin: 15,
			TraceWindow:    10 * time.Second,
		},
		Mock: MockConfig{
			HeartRateBPM: 72,
			NoiseLevel:   8,
			Contact:      true,
		},
	}
}

// Load loads configuration from a YAML file. If the file doesn't exist or
// fields are missing, it uses default values.
func Load(filename string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(filename)
	if err != nil {
		if os.IsNotExist(err) {
			// File doesn't exist, return defaults
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	cfg.ensureDefaults()

	return cfg, nil
}

// Save saves the configuration to a YAML file.
func (c *Config) Save(filename string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(filename, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// CardiacParams converts the cardiac section to detector parameters.
func (c *Config) CardiacParams() vitals.CardiacParams {
	return vitals.CardiacParams{
		BaselineAlpha:   float32(c.Cardiac.BaselineAlpha),
		ThresholdOffset: int32(c.Cardiac.ThresholdOffset),
		Refractory:      c.Cardiac.Refractory,
		PulseWidth:      c.Cardiac.PulseWidth,
		StaleAfter:      c.Cardiac.StaleAfter,
	}
}

// ConductanceParams converts the conductance section to classifier
// parameters.
func (c *Config) ConductanceParams() vitals.ConductanceParams {
	return vitals.ConductanceParams{
		FilterBeta:    float32(c.Conductance.FilterBeta),
		BaselineDecay: float32(c.Conductance.BaselineDecay),
		StddevFloor:   float32(c.Conductance.StddevFloor),
		SignalFloor:   float32(c.Conductance.SignalFloor),
	}
}

// ensureDefaults ensures that all required fields have default values if
// missing.
func (c *Config) ensureDefaults() {
	def := Default()

	if c.Serial.Port == "" {
		c.Serial.Port = def.Serial.Port
	}

	if c.Cardiac.SamplePeriod == 0 {
		c.Cardiac.SamplePeriod = def.Cardiac.SamplePeriod
	}
	if c.Cardiac.BaselineAlpha == 0 {
		c.Cardiac.BaselineAlpha = def.Cardiac.BaselineAlpha
	}
	if c.Cardiac.ThresholdOffset == 0 {
		c.Cardiac.ThresholdOffset = def.Cardiac.ThresholdOffset
	}
	if c.Cardiac.Refractory == 0 {
		c.Cardiac.Refractory = def.Cardiac.Refractory
	}
	if c.Cardiac.PulseWidth == 0 {
		c.Cardiac.PulseWidth = def.Cardiac.PulseWidth
	}
	if c.Cardiac.StaleAfter == 0 {
		c.Cardiac.StaleAfter = def.Cardiac.StaleAfter
	}

	if c.Conductance.SamplePeriod == 0 {
		c.Conductance.SamplePeriod = def.Conductance.SamplePeriod
	}
	if c.Conductance.Oversample == 0 {
		c.Conductance.Oversample = def.Conductance.Oversample
	}
	if c.Conductance.FilterBeta == 0 {
		c.Conductance.FilterBeta = def.Conductance.FilterBeta
	}
	if c.Conductance.BaselineDecay == 0 {
		c.Conductance.BaselineDecay = def.Conductance.BaselineDecay
	}
	if c.Conductance.StddevFloor == 0 {
		c.Conductance.StddevFloor = def.Conductance.StddevFloor
	}
	if c.Conductance.SignalFloor == 0 {
		c.Conductance.SignalFloor = def.Conductance.SignalFloor
	}

	if c.Monitor.EdgeDebounce == 0 {
		c.Monitor.EdgeDebounce = def.Monitor.EdgeDebounce
	}
	if c.Monitor.RateWindow == 0 {
		c.Monitor.RateWindow = def.Monitor.RateWindow
	}
	if c.Monitor.MismatchMargin == 0 {
		c.Monitor.MismatchMargin = def.Monitor.MismatchMargin
	}
	if c.Monitor.TraceWindow == 0 {
		c.Monitor.TraceWindow = def.Monitor.TraceWindow
	}

	if c.Mock.HeartRateBPM == 0 {
		c.Mock.HeartRateBPM = def.Mock.HeartRateBPM
	}
	if c.Mock.NoiseLevel == 0 {
		c.Mock.NoiseLevel = def.Mock.NoiseLevel
	}
}
