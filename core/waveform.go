// Waveform generation for the servo pulse width
// Pure state transitions, safe to call from interrupt context
package core

// PulseWidth is the variable part of the servo pulse in timer ticks.
// It is added to the baseline (1ms) to form the compare value.
type PulseWidth int32

// Reference pulse width range: 0..48000 ticks at 48MHz is 0..1ms on top
// of the 1ms baseline.
const (
	PulseWidthMin PulseWidth = 0
	PulseWidthMax PulseWidth = 48000
)

// SweepDirection is the travel direction of a sweep
type SweepDirection uint8

const (
	Rising SweepDirection = iota
	Falling
)

func (d SweepDirection) String() string {
	switch d {
	case Rising:
		return "rising"
	case Falling:
		return "falling"
	default:
		return "unknown"
	}
}

// Reverse returns the opposite direction
func (d SweepDirection) Reverse() SweepDirection {
	if d == Rising {
		return Falling
	}
	return Rising
}

// ParseSweepDirection converts a configuration string to a direction
func ParseSweepDirection(s string) (SweepDirection, error) {
	switch s {
	case "rising", "up":
		return Rising, nil
	case "falling", "down":
		return Falling, nil
	default:
		return Rising, ErrUnknownDirection
	}
}

// OperatingMode selects between a fixed commanded pulse and a sweep
type OperatingMode uint8

const (
	// ModeStatic holds the commanded pulse width (upper bound clamped only)
	ModeStatic OperatingMode = iota
	// ModeSweep bounces the pulse width between the bounds
	ModeSweep
)

func (m OperatingMode) String() string {
	switch m {
	case ModeStatic:
		return "static"
	case ModeSweep:
		return "sweep"
	default:
		return "unknown"
	}
}

// ParseOperatingMode converts a configuration string to a mode
func ParseOperatingMode(s string) (OperatingMode, error) {
	switch s {
	case "static":
		return ModeStatic, nil
	case "sweep", "triangle":
		return ModeSweep, nil
	default:
		return ModeStatic, ErrUnknownMode
	}
}

// Bounds is the inclusive pulse width range
type Bounds struct {
	Min PulseWidth
	Max PulseWidth
}

// DefaultBounds is the standard 1-2ms servo command range
var DefaultBounds = Bounds{Min: PulseWidthMin, Max: PulseWidthMax}

// Advance computes the next pulse width and direction over DefaultBounds
func Advance(current PulseWidth, dir SweepDirection, step int32, mode OperatingMode) (PulseWidth, SweepDirection) {
	return DefaultBounds.Advance(current, dir, step, mode)
}

// Advance computes the next pulse width and direction.
//
// Static mode only clamps the upper bound; a value below Min is passed
// through unchanged. Sweep mode applies |step| in the travel direction;
// touching or crossing a bound snaps to it and reverses in the same step.
func (b Bounds) Advance(current PulseWidth, dir SweepDirection, step int32, mode OperatingMode) (PulseWidth, SweepDirection) {
	if mode != ModeSweep {
		if current > b.Max {
			return b.Max, dir
		}
		return current, dir
	}

	// int64 so that a full int32 step at either bound cannot wrap
	delta := int64(step)
	if delta < 0 {
		delta = -delta
	}
	if dir == Falling {
		delta = -delta
	}
	tentative := int64(current) + delta

	if tentative >= int64(b.Max) {
		return b.Max, Falling
	}
	if tentative <= int64(b.Min) {
		return b.Min, Rising
	}
	return PulseWidth(tentative), dir
}

// Contains reports whether w lies inside the bounds
func (b Bounds) Contains(w PulseWidth) bool {
	return w >= b.Min && w <= b.Max
}

// SweepPeriod returns the number of ticks for a full triangle cycle
// starting at Min. Zero step never reaches a bound and returns 0.
func (b Bounds) SweepPeriod(step int32) uint32 {
	s := int64(step)
	if s < 0 {
		s = -s
	}
	if s == 0 {
		return 0
	}
	span := int64(b.Max) - int64(b.Min)
	half := (span + s - 1) / s
	if half == 0 {
		half = 1
	}
	return uint32(2 * half)
}
