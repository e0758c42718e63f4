package core

import "errors"

// Reference timing: 48MHz timer, 50Hz servo frame, 1ms baseline pulse
const (
	DefaultClockHz  = 48000000
	DefaultPeriodUS = 20000
	DefaultBaseline = 48000
	DefaultStep     = 480
)

var (
	ErrInvalidBounds        = errors.New("lower bound above upper bound")
	ErrNegativeBaseline     = errors.New("baseline plus lower bound is negative")
	ErrCompareExceedsPeriod = errors.New("baseline plus upper bound exceeds period")
	ErrZeroPeriod           = errors.New("period is zero")
	ErrWidthBelowBound      = errors.New("pulse width below lower bound")
	ErrUnknownMode          = errors.New("unknown operating mode")
	ErrUnknownDirection     = errors.New("unknown sweep direction")
)

// ConfigError reports an invalid startup configuration value
type ConfigError struct {
	Field string
	Err   error
}

func (e *ConfigError) Error() string {
	return "servo config: " + e.Field + ": " + e.Err.Error()
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}

// ServoConfig is the startup configuration of a servo channel.
// It is set once, outside the tick path.
type ServoConfig struct {
	Mode             OperatingMode  `json:"-"`
	ModeName         string         `json:"mode"`
	Step             int32          `json:"step"`
	InitialWidth     PulseWidth     `json:"initial_width"`
	InitialDirection SweepDirection `json:"-"`
	DirectionName    string         `json:"initial_direction"`
	MinWidth         PulseWidth     `json:"min_width"`
	MaxWidth         PulseWidth     `json:"max_width"`
	Baseline         uint32         `json:"baseline"`
	ClockHz          uint32         `json:"clock_hz"`
	PeriodUS         uint32         `json:"period_us"`
}

// DefaultServoConfig returns the reference sweep: 0..48000 ticks in steps
// of 480 per 20ms period, which is a full triangle every 4 seconds.
func DefaultServoConfig() ServoConfig {
	return ServoConfig{
		Mode:             ModeSweep,
		ModeName:         ModeSweep.String(),
		Step:             DefaultStep,
		InitialWidth:     PulseWidthMin,
		InitialDirection: Rising,
		DirectionName:    Rising.String(),
		MinWidth:         PulseWidthMin,
		MaxWidth:         PulseWidthMax,
		Baseline:         DefaultBaseline,
		ClockHz:          DefaultClockHz,
		PeriodUS:         DefaultPeriodUS,
	}
}

// DefaultStaticConfig returns a static 10000 tick pulse (about 1.2ms total)
func DefaultStaticConfig() ServoConfig {
	cfg := DefaultServoConfig()
	cfg.Mode = ModeStatic
	cfg.ModeName = ModeStatic.String()
	cfg.InitialWidth = 10000
	return cfg
}

// Bounds returns the configured pulse width range
func (c ServoConfig) Bounds() Bounds {
	return Bounds{Min: c.MinWidth, Max: c.MaxWidth}
}

// PeriodTicks returns the period length in timer ticks
func (c ServoConfig) PeriodTicks() uint32 {
	return uint32(uint64(c.ClockHz) * uint64(c.PeriodUS) / 1000000)
}

// ResolveNames fills Mode and InitialDirection from their string forms.
// Empty names keep the current values.
func (c *ServoConfig) ResolveNames() error {
	if c.ModeName != "" {
		m, err := ParseOperatingMode(c.ModeName)
		if err != nil {
			return &ConfigError{Field: "mode", Err: err}
		}
		c.Mode = m
	}
	if c.DirectionName != "" {
		d, err := ParseSweepDirection(c.DirectionName)
		if err != nil {
			return &ConfigError{Field: "initial_direction", Err: err}
		}
		c.InitialDirection = d
	}
	return nil
}

// Validate checks the configuration. A zero step in sweep mode is valid
// and gives a sweep that never moves.
func (c ServoConfig) Validate() error {
	if c.MinWidth > c.MaxWidth {
		return &ConfigError{Field: "min_width", Err: ErrInvalidBounds}
	}
	if c.ClockHz == 0 || c.PeriodUS == 0 || c.PeriodTicks() == 0 {
		return &ConfigError{Field: "period_us", Err: ErrZeroPeriod}
	}
	if int64(c.Baseline)+int64(c.MinWidth) < 0 {
		return &ConfigError{Field: "baseline", Err: ErrNegativeBaseline}
	}
	if c.InitialWidth < c.MinWidth {
		return &ConfigError{Field: "initial_width", Err: ErrWidthBelowBound}
	}
	if int64(c.Baseline)+int64(c.MaxWidth) > int64(c.PeriodTicks()) {
		return &ConfigError{Field: "max_width", Err: ErrCompareExceedsPeriod}
	}
	if c.Mode != ModeStatic && c.Mode != ModeSweep {
		return &ConfigError{Field: "mode", Err: ErrUnknownMode}
	}
	return nil
}
