//go:build rp2040

package main

import (
	"machine"

	"servosweep/core"
	"servosweep/targets/boot"
)

// Pin assignments. Straps are pulled up and read once at reset.
const (
	servoPin       = machine.GPIO2  // PWM slice 1 channel A
	tracePin       = machine.GPIO12 // Pull low to record every period in the timing ring
	servoDriverPin = machine.GPIO13 // Pull low for the drivers/servo backend
	pioPin         = machine.GPIO14 // Pull low for the PIO backend
	modePin        = machine.GPIO15 // Pull low for static mode
)

// ModeConfig determines what the firmware generates and how
type ModeConfig struct {
	Servo   core.ServoConfig
	Backend boot.Backend
	Pin     machine.Pin

	// StatusIntervalUS is the telemetry frame interval, 0 to disable
	StatusIntervalUS uint32

	// TickTracing records every period in the timing ring
	TickTracing bool
}

// strapped reports whether a pulled-up strap pin is held low
func strapped(pin machine.Pin) bool {
	pin.Configure(machine.PinConfig{Mode: machine.PinInputPullup})
	return !pin.Get()
}

// GetMode returns the current mode configuration.
// The reference sweep runs on the PWM slice unless straps say otherwise.
func GetMode() ModeConfig {
	sel := boot.Select(boot.Straps{
		Static:      strapped(modePin),
		ServoDriver: strapped(servoDriverPin),
		PIO:         strapped(pioPin),
		TickTrace:   strapped(tracePin),
	})

	return ModeConfig{
		Servo:            sel.Servo,
		Backend:          sel.Backend,
		Pin:              servoPin,
		StatusIntervalUS: 500000,
		TickTracing:      sel.TickTracing,
	}
}
