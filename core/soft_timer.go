package core

// SoftTimer is a TickSource run from the software timer list.
// Each wake latches the period-elapsed flag, calls the handler and
// reschedules itself one interval later. Used on the host and in tests
// where there is no hardware timer.
type SoftTimer struct {
	timer       Timer
	interval    uint32 // system timer ticks between periods
	periodTicks uint32 // servo timer ticks per period
	handler     func()
	running     bool

	pending bool
	acks    uint32
	compare uint32
	writes  []uint32
	record  bool
}

// NewSoftTimer creates a software tick source. periodTicks is the period
// in servo timer ticks reported to the channel; periodUS is the wake
// interval on the system clock.
func NewSoftTimer(periodTicks, periodUS uint32) *SoftTimer {
	t := &SoftTimer{
		interval:    TimerFromUS(periodUS),
		periodTicks: periodTicks,
	}
	t.timer.Handler = t.fire
	return t
}

// RecordCompares keeps every compare write for later inspection
func (t *SoftTimer) RecordCompares(enabled bool) {
	t.record = enabled
}

// Start schedules the first period one interval after now
func (t *SoftTimer) Start(now uint32, handler func()) {
	if t.running {
		CancelTimer(&t.timer)
	}
	t.handler = handler
	t.running = true
	t.timer.Next = nil
	t.timer.WakeTime = now + t.interval
	ScheduleTimer(&t.timer)
}

// Stop removes the timer from the schedule
func (t *SoftTimer) Stop() {
	if !t.running {
		return
	}
	CancelTimer(&t.timer)
	t.running = false
}

func (t *SoftTimer) fire(tm *Timer) uint8 {
	t.pending = true
	if t.handler != nil {
		t.handler()
	}
	tm.WakeTime += t.interval
	return SF_RESCHEDULE
}

// PeriodTicks implements TickSource
func (t *SoftTimer) PeriodTicks() uint32 {
	return t.periodTicks
}

// AckPeriod implements TickSource
func (t *SoftTimer) AckPeriod() {
	if t.pending {
		t.acks++
	}
	t.pending = false
}

// SetCompare implements TickSource
func (t *SoftTimer) SetCompare(ticks uint32) {
	t.compare = ticks
	if t.record {
		t.writes = append(t.writes, ticks)
	}
}

// Compare returns the last programmed compare value
func (t *SoftTimer) Compare() uint32 {
	return t.compare
}

// Pending reports whether a period elapsed without acknowledgement
func (t *SoftTimer) Pending() bool {
	return t.pending
}

// Acks returns the number of periods acknowledged
func (t *SoftTimer) Acks() uint32 {
	return t.acks
}

// Writes returns the recorded compare writes
func (t *SoftTimer) Writes() []uint32 {
	return t.writes
}

// HighTimeUS converts a compare value to the emitted high time in
// microseconds for a timer running at clockHz
func HighTimeUS(compare, clockHz uint32) uint32 {
	if clockHz == 0 {
		return 0
	}
	return uint32(uint64(compare) * 1000000 / uint64(clockHz))
}
