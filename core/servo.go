// Servo pulse channel
// Drives one timer compare channel from the period interrupt
package core

// ServoState is a consistent copy of a channel's state for readers
// outside the tick handler
type ServoState struct {
	Width     PulseWidth
	Direction SweepDirection
	Mode      OperatingMode
	Compare   uint32 // Last value written to the compare register
	Periods   uint32 // Ticks handled since start
	Overruns  uint32 // Periods missed, if a monitor is attached
}

// ServoChannel owns the pulse width and sweep direction of one servo
// output and updates them once per timer period.
//
// Tick is not reentrant. The tick source must call it from a single
// context (interrupt handler, timer dispatch, or one goroutine) and never
// nest calls. Everything else reads and writes state through the methods
// that mask the tick handler.
type ServoChannel struct {
	src      TickSource
	bounds   Bounds
	baseline uint32
	step     int32
	mode     OperatingMode

	// Updated together, only inside Tick or with interrupts masked
	width PulseWidth
	dir   SweepDirection

	compare uint32
	periods uint32
	monitor *OverrunMonitor
}

// NewServoChannel validates cfg and programs the initial 1ms pulse
// (baseline + lower bound). The first Tick applies the configured mode.
func NewServoChannel(src TickSource, cfg ServoConfig) (*ServoChannel, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	s := &ServoChannel{
		src:      src,
		bounds:   cfg.Bounds(),
		baseline: cfg.Baseline,
		step:     cfg.Step,
		mode:     cfg.Mode,
		width:    cfg.InitialWidth,
		dir:      cfg.InitialDirection,
	}
	s.compare = s.CompareValue(s.bounds.Min)
	src.SetCompare(s.compare)
	return s, nil
}

// SetOverrunMonitor attaches a monitor fed on every acknowledgement
func (s *ServoChannel) SetOverrunMonitor(m *OverrunMonitor) {
	state := disableInterrupts()
	s.monitor = m
	restoreInterrupts(state)
}

// CompareValue maps a pulse width to the compare register value
func (s *ServoChannel) CompareValue(w PulseWidth) uint32 {
	return uint32(int64(s.baseline) + int64(w))
}

// Tick handles one elapsed period: acknowledge, advance, program.
// Runs in the period interrupt; must finish well inside one period.
func (s *ServoChannel) Tick() {
	s.src.AckPeriod()
	now := GetTime()
	if s.monitor != nil {
		s.monitor.Observe(now)
	}

	prevDir := s.dir
	next, dir := s.bounds.Advance(s.width, s.dir, s.step, s.mode)
	if s.mode == ModeSweep && dir != prevDir {
		RecordTiming(EvtReverse, now, uint32(next), uint32(dir))
	} else if s.mode == ModeStatic && next != s.width {
		RecordTiming(EvtClamp, now, uint32(s.width), uint32(next))
	}
	s.width, s.dir = next, dir

	s.compare = s.CompareValue(next)
	s.src.SetCompare(s.compare)
	s.periods++

	if tickTracing {
		RecordTiming(EvtTick, now, s.compare, s.periods)
	}
}

// Snapshot returns the current state with the tick handler masked
func (s *ServoChannel) Snapshot() ServoState {
	state := disableInterrupts()
	defer restoreInterrupts(state)

	st := ServoState{
		Width:     s.width,
		Direction: s.dir,
		Mode:      s.mode,
		Compare:   s.compare,
		Periods:   s.periods,
	}
	if s.monitor != nil {
		st.Overruns = s.monitor.Missed()
	}
	return st
}

// SetMode switches between static and sweep at runtime. The current
// width and direction carry over; the next Tick applies the new mode.
func (s *ServoChannel) SetMode(mode OperatingMode) error {
	if mode != ModeStatic && mode != ModeSweep {
		return ErrUnknownMode
	}
	state := disableInterrupts()
	defer restoreInterrupts(state)

	if mode != s.mode {
		RecordTiming(EvtModeChange, GetTime(), uint32(s.mode), uint32(mode))
		s.mode = mode
	}
	return nil
}

// SetPulseWidth sets the commanded width. Values below the lower bound
// are raised to it. In static mode the next Tick clamps to the upper bound
// and programs it; in sweep mode the sweep continues from it.
func (s *ServoChannel) SetPulseWidth(w PulseWidth) {
	state := disableInterrupts()
	defer restoreInterrupts(state)

	if w < s.bounds.Min {
		RecordTiming(EvtClamp, GetTime(), uint32(w), uint32(s.bounds.Min))
		w = s.bounds.Min
	}
	s.width = w
}

// Bounds returns the configured pulse width range
func (s *ServoChannel) Bounds() Bounds {
	return s.bounds
}

// PeriodTicks returns the period of the underlying tick source
func (s *ServoChannel) PeriodTicks() uint32 {
	return s.src.PeriodTicks()
}
