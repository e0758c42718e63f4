package core

import "testing"

func TestTimerDispatchOrder(t *testing.T) {
	resetClock()

	var order []uint32
	handler := func(tm *Timer) uint8 {
		order = append(order, tm.WakeTime)
		return SF_DONE
	}
	timers := []*Timer{
		{WakeTime: 300, Handler: handler},
		{WakeTime: 100, Handler: handler},
		{WakeTime: 200, Handler: handler},
	}
	for _, tm := range timers {
		ScheduleTimer(tm)
	}

	if next, ok := NextWakeTime(); !ok || next != 100 {
		t.Errorf("NextWakeTime = %d, %v", next, ok)
	}

	AdvanceTime(250)
	if len(order) != 2 || order[0] != 100 || order[1] != 200 {
		t.Errorf("Expected [100 200], got %v", order)
	}
	AdvanceTime(100)
	if len(order) != 3 || order[2] != 300 {
		t.Errorf("Expected 300 last, got %v", order)
	}
}

func TestTimerReschedule(t *testing.T) {
	resetClock()

	fired := 0
	tm := &Timer{WakeTime: 10}
	tm.Handler = func(tm *Timer) uint8 {
		fired++
		if fired == 3 {
			return SF_DONE
		}
		tm.WakeTime += 10
		return SF_RESCHEDULE
	}
	ScheduleTimer(tm)

	AdvanceTime(100)
	if fired != 3 {
		t.Errorf("Expected 3 runs, got %d", fired)
	}
	if _, ok := NextWakeTime(); ok {
		t.Errorf("Timer queued after SF_DONE")
	}
}

func TestCancelTimer(t *testing.T) {
	resetClock()

	fired := false
	a := &Timer{WakeTime: 10, Handler: func(*Timer) uint8 { fired = true; return SF_DONE }}
	b := &Timer{WakeTime: 20, Handler: func(*Timer) uint8 { return SF_DONE }}
	ScheduleTimer(a)
	ScheduleTimer(b)
	CancelTimer(a)

	if next, _ := NextWakeTime(); next != 20 {
		t.Errorf("Expected b at head, got %d", next)
	}
	AdvanceTime(50)
	if fired {
		t.Errorf("Cancelled timer fired")
	}
}
