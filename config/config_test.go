package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"servosweep/core"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig([]byte(`{}`))
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if cfg.Servo != core.DefaultServoConfig() {
		t.Errorf("Empty file should give the reference servo config, got %+v", cfg.Servo)
	}
	if cfg.Output.Bus != "I2C1" || cfg.Output.Address != 0x40 || cfg.Output.Marker != -1 {
		t.Errorf("Unexpected output defaults: %+v", cfg.Output)
	}
	if cfg.Telemetry.IntervalMS != 500 || cfg.Telemetry.Baud != 250000 {
		t.Errorf("Unexpected telemetry defaults: %+v", cfg.Telemetry)
	}
}

func TestLoadConfigOverrides(t *testing.T) {
	data := []byte(`{
		"servo": {"mode": "static", "initial_width": 24000, "step": 0, "initial_direction": "down"},
		"output": {"channel": 3, "marker_line": 17},
		"telemetry": {"device": "/dev/ttyUSB1"}
	}`)

	cfg, err := LoadConfig(data)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if cfg.Servo.Mode != core.ModeStatic || cfg.Servo.InitialWidth != 24000 {
		t.Errorf("Servo overrides not applied: %+v", cfg.Servo)
	}
	if cfg.Servo.Step != 0 {
		t.Errorf("Explicit zero step replaced with %d", cfg.Servo.Step)
	}
	if cfg.Servo.InitialDirection != core.Falling {
		t.Errorf("Direction alias not resolved: %v", cfg.Servo.InitialDirection)
	}
	if cfg.Servo.MaxWidth != core.PulseWidthMax {
		t.Errorf("Missing max_width should keep the default, got %d", cfg.Servo.MaxWidth)
	}
	if cfg.Output.Channel != 3 || cfg.Output.Marker != 17 {
		t.Errorf("Output overrides not applied: %+v", cfg.Output)
	}
	if cfg.Telemetry.Device != "/dev/ttyUSB1" {
		t.Errorf("Telemetry device not applied: %q", cfg.Telemetry.Device)
	}
}

func TestLoadConfigRejects(t *testing.T) {
	testCases := []struct {
		name string
		data string
		err  error
	}{
		{"bad mode", `{"servo": {"mode": "spin"}}`, core.ErrUnknownMode},
		{"bad direction", `{"servo": {"initial_direction": "sideways"}}`, core.ErrUnknownDirection},
		{"inverted bounds", `{"servo": {"min_width": 40000, "max_width": 100}}`, core.ErrInvalidBounds},
		{"too long", `{"servo": {"max_width": 2000000}}`, core.ErrCompareExceedsPeriod},
		{"negative static width", `{"servo": {"mode": "static", "initial_width": -60000}}`, core.ErrWidthBelowBound},
	}

	for _, tc := range testCases {
		_, err := LoadConfig([]byte(tc.data))
		if !errors.Is(err, tc.err) {
			t.Errorf("%s: expected %v, got %v", tc.name, tc.err, err)
		}
	}

	if _, err := LoadConfig([]byte(`{"servo": `)); err == nil {
		t.Errorf("Expected an error for truncated JSON")
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "servo.json")
	if err := os.WriteFile(path, []byte(`{"servo": {"step": 960}}`), 0o644); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile failed: %v", err)
	}
	if cfg.Servo.Step != 960 {
		t.Errorf("Expected step 960, got %d", cfg.Servo.Step)
	}

	if _, err := LoadFile(filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Errorf("Expected an error for a missing file")
	}
}

func TestDefault(t *testing.T) {
	cfg := Default()
	if err := cfg.Servo.Validate(); err != nil {
		t.Errorf("Default config invalid: %v", err)
	}
	if cfg.Telemetry.Device != "/dev/ttyACM0" {
		t.Errorf("Unexpected default device %q", cfg.Telemetry.Device)
	}
}
