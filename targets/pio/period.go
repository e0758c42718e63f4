package pio

// CycleHz is the state machine clock: 0.5us per cycle, so a 20ms period
// is 40000 cycles and both phase counters fit in 16 bits
const CycleHz = 2000000

// Fixed instruction overhead per phase, in cycles
const (
	highOverhead = 3
	lowOverhead  = 6
)

// PeriodCycles converts a period in microseconds to state machine cycles
func PeriodCycles(periodUS uint32) uint32 {
	return uint32(uint64(periodUS) * CycleHz / 1000000)
}

// PeriodWord converts a compare value in timer ticks into the high/low
// loop counts for one period of periodCycles. The high phase is clamped
// so both loop counts stay non-negative.
func PeriodWord(ticks, periodTicks, periodCycles uint32) uint32 {
	if periodTicks == 0 || periodCycles < highOverhead+lowOverhead {
		return 0
	}
	high := uint32(uint64(ticks) * uint64(periodCycles) / uint64(periodTicks))
	if high < highOverhead {
		high = highOverhead
	}
	if high > periodCycles-lowOverhead {
		high = periodCycles - lowOverhead
	}
	low := periodCycles - high
	return (high - highOverhead) | (low-lowOverhead)<<16
}

// WordCycles returns the high and low phase lengths a period word produces
func WordCycles(word uint32) (high, low uint32) {
	return word&0xFFFF + highOverhead, word>>16 + lowOverhead
}
