package core

import "sync/atomic"

// TimerFreq is the system clock rate: a free-running microsecond counter
// on RP2040, a simulated one on the host
const TimerFreq = 1000000

var (
	systemTicks atomic.Uint32
	bootTime    uint32
)

// GetTime returns the current system time in timer ticks
func GetTime() uint32 {
	return systemTicks.Load()
}

// SetTime sets the current system time (from the hardware counter, or
// from a simulation loop)
func SetTime(ticks uint32) {
	systemTicks.Store(ticks)
}

// GetUptime returns ticks since TimerInit, wrapping at 32 bits
func GetUptime() uint32 {
	return GetTime() - bootTime
}

// TimerFromUS converts microseconds to timer ticks
func TimerFromUS(us uint32) uint32 {
	return uint32(uint64(us) * TimerFreq / 1000000)
}

// TimerToUS converts timer ticks to microseconds
func TimerToUS(ticks uint32) uint32 {
	return uint32(uint64(ticks) * 1000000 / TimerFreq)
}

// TimerInit records the boot time for uptime calculation
func TimerInit() {
	bootTime = GetTime()
}

// ProcessTimers processes scheduled timers
func ProcessTimers() {
	currentTime = GetTime()
	TimerDispatch()
}

// AdvanceTime moves the system clock forward by delta ticks and runs
// every timer that became due. Simulation and tests only.
func AdvanceTime(delta uint32) {
	SetTime(GetTime() + delta)
	ProcessTimers()
}
