package timing

import (
	"testing"
	"time"
)

func TestScheduleNonPositiveDelayRunsSynchronously(t *testing.T) {
	for _, delay := range []time.Duration{0, -time.Second} {
		fired := false

		Schedule(delay, func() {
			fired = true
		})

		if !fired {
			t.Errorf("Schedule(%v) did not invoke the callback synchronously", delay)
		}
	}
}

func TestScheduleShortDelayFires(t *testing.T) {
	delay := time.Millisecond * 10
	start := time.Now()
	done := make(chan time.Time, 1)

	Schedule(delay, func() {
		done <- time.Now()
	})

	select {
	case fired := <-done:
		if elapsed := fired.Sub(start); elapsed < delay {
			t.Errorf("callback fired after %v, want at least %v", elapsed, delay)
		}
	case <-time.After(time.Second):
		t.Fatal("callback did not fire")
	}
}

func TestScheduleFiresWithinTolerance(t *testing.T) {
	delay := time.Millisecond * 1450
	tolerance := time.Millisecond * 5

	start := time.Now()
	done := make(chan time.Time, 1)

	Schedule(delay, func() {
		done <- time.Now()
	})

	select {
	case fired := <-done:
		drift := fired.Sub(start) - delay

		if drift < -time.Millisecond {
			t.Errorf("callback fired %v early", -drift)
		}

		if drift > tolerance {
			t.Errorf("callback fired %v late, want within %v", drift, tolerance)
		}
	case <-time.After(delay + time.Second):
		t.Fatal("callback did not fire")
	}
}
