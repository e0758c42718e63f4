package core

import (
	"errors"
	"testing"
)

// mockTickSource records the calls a ServoChannel makes per period
type mockTickSource struct {
	period   uint32
	pending  bool
	calls    []string
	compares []uint32
}

func (m *mockTickSource) PeriodTicks() uint32 { return m.period }

func (m *mockTickSource) AckPeriod() {
	m.pending = false
	m.calls = append(m.calls, "ack")
}

func (m *mockTickSource) SetCompare(ticks uint32) {
	m.compares = append(m.compares, ticks)
	m.calls = append(m.calls, "compare")
}

func newTestChannel(t *testing.T, cfg ServoConfig) (*ServoChannel, *mockTickSource) {
	t.Helper()
	src := &mockTickSource{period: cfg.PeriodTicks()}
	ch, err := NewServoChannel(src, cfg)
	if err != nil {
		t.Fatalf("NewServoChannel failed: %v", err)
	}
	return ch, src
}

func TestServoChannelInitialCompare(t *testing.T) {
	_, src := newTestChannel(t, DefaultServoConfig())

	if len(src.compares) != 1 || src.compares[0] != 48000 {
		t.Errorf("Expected initial compare of 48000 (1ms), got %v", src.compares)
	}
}

func TestServoChannelRejectsInvalidConfig(t *testing.T) {
	cfg := DefaultServoConfig()
	cfg.MinWidth = 10
	cfg.MaxWidth = 5
	src := &mockTickSource{period: cfg.PeriodTicks()}
	if _, err := NewServoChannel(src, cfg); err == nil {
		t.Fatalf("Expected an error for inverted bounds")
	}
	if len(src.compares) != 0 {
		t.Errorf("Invalid config must not touch the compare register")
	}
}

func TestServoChannelTickOrder(t *testing.T) {
	ch, src := newTestChannel(t, DefaultServoConfig())
	src.calls = nil

	src.pending = true
	ch.Tick()

	if len(src.calls) != 2 || src.calls[0] != "ack" || src.calls[1] != "compare" {
		t.Errorf("Expected ack then compare, got %v", src.calls)
	}
	if src.pending {
		t.Errorf("Period left unacknowledged")
	}
}

func TestServoChannelCompareMapping(t *testing.T) {
	ch, _ := newTestChannel(t, DefaultServoConfig())

	if got := ch.CompareValue(0); got != 48000 {
		t.Errorf("CompareValue(0) = %d, expected 48000", got)
	}
	if got := ch.CompareValue(48000); got != 96000 {
		t.Errorf("CompareValue(48000) = %d, expected 96000", got)
	}
}

func TestServoChannelSweepWrites(t *testing.T) {
	ch, src := newTestChannel(t, DefaultServoConfig())
	src.compares = nil

	for i := 0; i < 200; i++ {
		ch.Tick()
	}

	if len(src.compares) != 200 {
		t.Fatalf("Expected 200 compare writes, got %d", len(src.compares))
	}
	if src.compares[0] != 48480 {
		t.Errorf("First write %d, expected 48480", src.compares[0])
	}
	if src.compares[99] != 96000 {
		t.Errorf("Write 100 is %d, expected 96000 at the top of the sweep", src.compares[99])
	}
	if src.compares[199] != 48000 {
		t.Errorf("Write 200 is %d, expected 48000 at the bottom of the sweep", src.compares[199])
	}
	for i, c := range src.compares {
		if c < 48000 || c > 96000 {
			t.Fatalf("Write %d out of range: %d", i, c)
		}
	}

	st := ch.Snapshot()
	if st.Width != 0 || st.Direction != Rising || st.Periods != 200 || st.Compare != 48000 {
		t.Errorf("Unexpected state after a full cycle: %+v", st)
	}
}

func TestServoChannelStaticClamp(t *testing.T) {
	ClearTimingRing()
	cfg := DefaultStaticConfig()
	cfg.InitialWidth = 60000
	ch, src := newTestChannel(t, cfg)

	ch.Tick()
	ch.Tick()

	if src.compares[1] != 96000 || src.compares[2] != 96000 {
		t.Errorf("Static width not clamped: %v", src.compares)
	}

	clamps := 0
	for _, evt := range TimingEvents() {
		if evt.EventType == EvtClamp {
			clamps++
			if evt.Value1 != 60000 || evt.Value2 != 48000 {
				t.Errorf("Clamp event recorded %d -> %d", evt.Value1, evt.Value2)
			}
		}
	}
	if clamps != 1 {
		t.Errorf("Expected one clamp event, got %d", clamps)
	}
}

func TestServoChannelRecordsReversals(t *testing.T) {
	ClearTimingRing()
	ch, _ := newTestChannel(t, DefaultServoConfig())

	for i := 0; i < 200; i++ {
		ch.Tick()
	}

	var reversals []TimingEvent
	for _, evt := range TimingEvents() {
		if evt.EventType == EvtReverse {
			reversals = append(reversals, evt)
		}
	}
	if len(reversals) != 2 {
		t.Fatalf("Expected 2 reversals, got %d", len(reversals))
	}
	if reversals[0].Value1 != 48000 || SweepDirection(reversals[0].Value2) != Falling {
		t.Errorf("First reversal %+v", reversals[0])
	}
	if reversals[1].Value1 != 0 || SweepDirection(reversals[1].Value2) != Rising {
		t.Errorf("Second reversal %+v", reversals[1])
	}
}

func TestServoChannelRuntimeMode(t *testing.T) {
	ch, src := newTestChannel(t, DefaultServoConfig())

	for i := 0; i < 10; i++ {
		ch.Tick()
	}
	if err := ch.SetMode(ModeStatic); err != nil {
		t.Fatalf("SetMode failed: %v", err)
	}
	ch.Tick()
	ch.Tick()
	last := src.compares[len(src.compares)-1]
	if last != 48000+4800 {
		t.Errorf("Static mode should hold 4800, compare is %d", last)
	}

	ch.SetPulseWidth(12000)
	ch.Tick()
	if got := src.compares[len(src.compares)-1]; got != 60000 {
		t.Errorf("Commanded width not applied, compare is %d", got)
	}

	if err := ch.SetMode(OperatingMode(9)); err != ErrUnknownMode {
		t.Errorf("Expected ErrUnknownMode, got %v", err)
	}
	if ch.Snapshot().Mode != ModeStatic {
		t.Errorf("Invalid SetMode changed the mode")
	}
}

func TestServoChannelRejectsNegativeStaticWidth(t *testing.T) {
	cfg := DefaultStaticConfig()
	cfg.InitialWidth = -60000
	src := &mockTickSource{period: cfg.PeriodTicks()}
	if _, err := NewServoChannel(src, cfg); !errors.Is(err, ErrWidthBelowBound) {
		t.Fatalf("Expected ErrWidthBelowBound, got %v", err)
	}
	if len(src.compares) != 0 {
		t.Errorf("Rejected config wrote compare values %v", src.compares)
	}
}

func TestServoChannelPulseWidthFloor(t *testing.T) {
	ClearTimingRing()
	cfg := DefaultStaticConfig()
	ch, src := newTestChannel(t, cfg)

	ch.SetPulseWidth(-50000)
	ch.Tick()

	got := src.compares[len(src.compares)-1]
	if got != 48000 {
		t.Errorf("Compare after negative width is %d, expected 48000", got)
	}
	if got > cfg.PeriodTicks() {
		t.Errorf("Compare %d exceeds the %d tick period", got, cfg.PeriodTicks())
	}
	if st := ch.Snapshot(); st.Width != 0 {
		t.Errorf("Width %d stored below the lower bound", st.Width)
	}

	clamped := false
	for _, evt := range TimingEvents() {
		if evt.EventType == EvtClamp && int32(evt.Value1) == -50000 && evt.Value2 == 0 {
			clamped = true
		}
	}
	if !clamped {
		t.Errorf("Raising the width to the lower bound was not recorded")
	}
}

func TestServoChannelOverrunCount(t *testing.T) {
	SetTime(0)
	ch, _ := newTestChannel(t, DefaultServoConfig())
	ch.SetOverrunMonitor(NewOverrunMonitor(DefaultPeriodUS))

	ch.Tick()
	SetTime(TimerFromUS(20000))
	ch.Tick()
	SetTime(TimerFromUS(80000)) // two periods skipped
	ch.Tick()

	if st := ch.Snapshot(); st.Overruns != 2 {
		t.Errorf("Expected 2 missed periods, got %d", st.Overruns)
	}
}

func TestFormatState(t *testing.T) {
	st := ServoState{Width: 480, Direction: Falling, Mode: ModeSweep, Compare: 48480, Periods: 3}
	want := "width=480 dir=falling mode=sweep compare=48480 periods=3 overruns=0"
	if got := FormatState(st); got != want {
		t.Errorf("FormatState = %q, expected %q", got, want)
	}
}
