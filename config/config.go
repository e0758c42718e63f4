package config

import (
	"encoding/json"
	"fmt"
	"os"

	"servosweep/core"
)

// Config is the host-side configuration file: one servo channel plus the
// output and telemetry settings the CLI needs
type Config struct {
	Servo     core.ServoConfig `json:"servo"`
	Output    OutputConfig     `json:"output"`
	Telemetry TelemetryConfig  `json:"telemetry"`
}

// OutputConfig selects where `run` drives the pulse
type OutputConfig struct {
	// periph bus name and PCA9685 address
	Bus     string `json:"i2c_bus"`
	Address uint16 `json:"address"`
	Channel int    `json:"channel"`

	// gpiocdev line raised during each tick, -1 for none
	Chip   string `json:"gpio_chip"`
	Marker int    `json:"marker_line"`
}

// TelemetryConfig is the serial link to the firmware
type TelemetryConfig struct {
	Device     string `json:"device"`
	Baud       int    `json:"baud"`
	IntervalMS uint32 `json:"interval_ms"`
}

// LoadConfig parses a JSON configuration and returns a validated Config.
// Servo fields missing from the file keep the reference values, so an
// explicit zero step survives.
func LoadConfig(jsonData []byte) (*Config, error) {
	config := Config{Servo: core.DefaultServoConfig()}
	config.Output.Marker = -1

	if err := json.Unmarshal(jsonData, &config); err != nil {
		return nil, err
	}

	applyDefaults(&config)

	if err := config.Servo.ResolveNames(); err != nil {
		return nil, err
	}
	if err := config.Servo.Validate(); err != nil {
		return nil, err
	}
	return &config, nil
}

// LoadFile reads and parses a configuration file
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config %s: %w", path, err)
	}
	config, err := LoadConfig(data)
	if err != nil {
		return nil, fmt.Errorf("failed to load config %s: %w", path, err)
	}
	return config, nil
}

// applyDefaults fills in missing configuration values with sensible defaults
func applyDefaults(config *Config) {
	if config.Output.Bus == "" {
		config.Output.Bus = "I2C1"
	}
	if config.Output.Address == 0 {
		config.Output.Address = 0x40 // PCA9685 power-on address
	}
	if config.Output.Chip == "" {
		config.Output.Chip = "gpiochip0"
	}

	if config.Telemetry.Device == "" {
		config.Telemetry.Device = "/dev/ttyACM0"
	}
	if config.Telemetry.Baud == 0 {
		config.Telemetry.Baud = 250000 // USB CDC ignores this
	}
	if config.Telemetry.IntervalMS == 0 {
		config.Telemetry.IntervalMS = 500
	}
}

// Default returns the reference configuration
func Default() *Config {
	config := Config{Servo: core.DefaultServoConfig()}
	config.Output.Marker = -1
	applyDefaults(&config)
	return &config
}
