package core

// TickSource is the periodic timer channel a ServoChannel drives.
// Platform-specific implementations own the hardware; core code only
// acknowledges periods and programs the compare value.
//
// Implementations must invoke the owning ServoChannel's Tick exactly once
// per period and never nest invocations.
type TickSource interface {
	// PeriodTicks returns the fixed period length in timer ticks
	PeriodTicks() uint32

	// AckPeriod clears the period-elapsed condition so the source does not
	// re-signal the same period. Calling it twice is harmless.
	AckPeriod()

	// SetCompare programs the compare register in timer ticks. The output
	// stays high while the free-running counter is below this value.
	SetCompare(ticks uint32)
}
