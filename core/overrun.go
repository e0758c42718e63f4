package core

// OverrunMonitor counts missed periods by comparing the system time of
// successive period acknowledgements. The tick path cannot recover from
// an overrun; this only makes it visible.
type OverrunMonitor struct {
	period uint32 // expected gap in system timer ticks
	last   uint32
	primed bool
	missed uint32
	events uint32
}

// NewOverrunMonitor creates a monitor for a period given in microseconds
func NewOverrunMonitor(periodUS uint32) *OverrunMonitor {
	return &OverrunMonitor{period: TimerFromUS(periodUS)}
}

// Observe records an acknowledgement at system time now and returns the
// number of periods missed since the previous one. A gap of 1.5 periods
// or more counts as one miss, 2.5 as two, and so on.
func (m *OverrunMonitor) Observe(now uint32) uint32 {
	if m.period == 0 {
		return 0
	}
	if !m.primed {
		m.primed = true
		m.last = now
		return 0
	}

	gap := now - m.last // wraps correctly on counter rollover
	m.last = now

	elapsed := (gap + m.period/2) / m.period
	if elapsed <= 1 {
		return 0
	}
	missed := elapsed - 1
	m.missed += missed
	m.events++
	RecordTiming(EvtOverrun, now, missed, gap)
	return missed
}

// Missed returns the total number of missed periods
func (m *OverrunMonitor) Missed() uint32 {
	return m.missed
}

// Events returns how many acknowledgements arrived late
func (m *OverrunMonitor) Events() uint32 {
	return m.events
}

// Reset forgets the previous acknowledgement and all counts
func (m *OverrunMonitor) Reset() {
	*m = OverrunMonitor{period: m.period}
}
