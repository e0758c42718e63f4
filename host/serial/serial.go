// Package serial opens the USB CDC link the firmware streams telemetry on.
package serial

import (
	"io"

	"servosweep/config"
)

// Port is a byte stream to the firmware. Tests substitute pipes.
type Port interface {
	io.ReadWriteCloser

	// Flush flushes any buffered data
	Flush() error
}

// Config holds serial port configuration
type Config struct {
	// Device path (e.g., "/dev/ttyACM0", "COM3")
	Device string

	// Baud rate; USB CDC ignores it
	Baud int

	// Read timeout in milliseconds (0 = blocking)
	ReadTimeout int
}

// DefaultConfig returns the settings used for the firmware's CDC port
func DefaultConfig(device string) *Config {
	return &Config{
		Device:      device,
		Baud:        250000,
		ReadTimeout: 100,
	}
}

// FromTelemetry builds a port config from the telemetry file section
func FromTelemetry(t config.TelemetryConfig) *Config {
	cfg := DefaultConfig(t.Device)
	if t.Baud != 0 {
		cfg.Baud = t.Baud
	}
	return cfg
}
