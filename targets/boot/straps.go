// Package boot decodes the strap pins sampled at reset into the firmware's
// startup selection. It has no hardware dependencies so the decoding can
// be checked on the host.
package boot

import "servosweep/core"

// Backend selects which peripheral generates the pulse
type Backend uint8

const (
	BackendPWM         Backend = iota // Hardware PWM slice, compare in timer ticks
	BackendServoDriver                // tinygo.org/x/drivers/servo, compare in microseconds
	BackendPIO                        // PIO state machine, edges timed by the PIO
)

func (b Backend) String() string {
	switch b {
	case BackendPWM:
		return "pwm"
	case BackendServoDriver:
		return "servo-driver"
	case BackendPIO:
		return "pio"
	default:
		return "unknown"
	}
}

// Straps holds the strap pins read at reset. A field is true when its pin
// is held low; all pins are pulled up, so an unstrapped board reads false.
type Straps struct {
	Static      bool
	ServoDriver bool
	PIO         bool
	TickTrace   bool
}

// Selection is what the firmware runs after reset
type Selection struct {
	Servo       core.ServoConfig
	Backend     Backend
	TickTracing bool
}

// Select maps the straps to a selection. With no straps fitted the
// reference sweep runs on the hardware PWM slice. The PIO strap wins when
// both backend straps are fitted.
func Select(s Straps) Selection {
	sel := Selection{
		Servo:       core.DefaultServoConfig(),
		Backend:     BackendPWM,
		TickTracing: s.TickTrace,
	}
	if s.Static {
		sel.Servo = core.DefaultStaticConfig()
	}
	switch {
	case s.PIO:
		sel.Backend = BackendPIO
	case s.ServoDriver:
		sel.Backend = BackendServoDriver
	}
	return sel
}
