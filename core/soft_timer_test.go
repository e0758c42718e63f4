package core

import "testing"

func resetClock() {
	ResetTimers()
	SetTime(0)
	TimerInit()
}

func TestSoftTimerDrivesChannel(t *testing.T) {
	resetClock()
	cfg := DefaultServoConfig()
	src := NewSoftTimer(cfg.PeriodTicks(), cfg.PeriodUS)
	src.RecordCompares(true)

	ch, err := NewServoChannel(src, cfg)
	if err != nil {
		t.Fatalf("NewServoChannel failed: %v", err)
	}
	src.Start(GetTime(), ch.Tick)
	defer src.Stop()

	interval := TimerFromUS(cfg.PeriodUS)
	for i := 0; i < 100; i++ {
		AdvanceTime(interval)
	}

	if src.Acks() != 100 {
		t.Errorf("Expected 100 acknowledged periods, got %d", src.Acks())
	}
	if src.Pending() {
		t.Errorf("Period left pending after tick")
	}
	if src.Compare() != 96000 {
		t.Errorf("Expected compare 96000 after 100 periods, got %d", src.Compare())
	}
	// initial write plus one per period
	if n := len(src.Writes()); n != 101 {
		t.Errorf("Expected 101 compare writes, got %d", n)
	}
	if GetUptime() != 100*interval {
		t.Errorf("Uptime %d, expected %d", GetUptime(), 100*interval)
	}
}

func TestSoftTimerCatchesUp(t *testing.T) {
	resetClock()
	src := NewSoftTimer(960000, 20000)
	ticks := 0
	src.Start(0, func() { ticks++ })
	defer src.Stop()

	// One long stall still yields one callback per elapsed period
	AdvanceTime(TimerFromUS(100000))
	if ticks != 5 {
		t.Errorf("Expected 5 periods after 100ms, got %d", ticks)
	}
}

func TestSoftTimerStop(t *testing.T) {
	resetClock()
	src := NewSoftTimer(960000, 20000)
	ticks := 0
	src.Start(0, func() { ticks++ })

	AdvanceTime(TimerFromUS(20000))
	src.Stop()
	AdvanceTime(TimerFromUS(60000))

	if ticks != 1 {
		t.Errorf("Expected 1 period before Stop, got %d", ticks)
	}
	if _, ok := NextWakeTime(); ok {
		t.Errorf("Timer still queued after Stop")
	}
}

func TestHighTimeUS(t *testing.T) {
	if got := HighTimeUS(48000, DefaultClockHz); got != 1000 {
		t.Errorf("HighTimeUS(48000) = %d, expected 1000", got)
	}
	if got := HighTimeUS(96000, DefaultClockHz); got != 2000 {
		t.Errorf("HighTimeUS(96000) = %d, expected 2000", got)
	}
	if got := HighTimeUS(1, 0); got != 0 {
		t.Errorf("HighTimeUS with zero clock = %d", got)
	}
}
