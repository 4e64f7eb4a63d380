package device

import "github.com/itohio/gopulse/pkg/telemetry"

// Device defines the interface for sensor devices (real or mocked).
type Device interface {
	Connect() error
	Close() error
	Records() <-chan telemetry.Record
	IsConnected() bool
}

// Ensure Serial implements Device.
var _ Device = (*Serial)(nil)

// Ensure Mock implements Device.
var _ Device = (*Mock)(nil)
