package core

// WithInterruptsDisabled runs fn with the tick handler masked.
// Host tick loops use it around ServoChannel.Tick so readers of servo
// state never observe a half-updated period. fn must not call back into
// anything that masks interrupts itself.
func WithInterruptsDisabled(fn func()) {
	state := disableInterrupts()
	defer restoreInterrupts(state)
	fn()
}
