package player

import (
	"math"
	"sync"
	"testing"
	"time"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.now = c.now.Add(d)
}

func newTestModel(t *testing.T) (*Model, *fakeClock) {
	t.Helper()

	clock := &fakeClock{
		now: time.Unix(1000, 0),
	}

	model := NewModel()
	model.now = clock.Now

	return model, clock
}

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestPositionAdvancesWhilePlaying(t *testing.T) {
	model, clock := newTestModel(t)

	model.Update(10, 300, StatusPlaying)

	clock.Advance(time.Second * 3)

	if got := model.Position(); !almostEqual(got, 13) {
		t.Errorf("Position() after 3s = %v, want 13", got)
	}

	clock.Advance(time.Second)

	if got := model.Position(); !almostEqual(got, 14) {
		t.Errorf("Position() after 4s = %v, want 14", got)
	}
}

func TestPositionIsCappedAtDuration(t *testing.T) {
	model, clock := newTestModel(t)

	model.Update(290, 300, StatusPlaying)

	clock.Advance(time.Second * 60)

	if got := model.Position(); !almostEqual(got, 300) {
		t.Errorf("Position() = %v, want the 300s duration cap", got)
	}
}

func TestPositionIsZeroWithoutDuration(t *testing.T) {
	model, clock := newTestModel(t)

	model.Update(10, 0, StatusPlaying)

	clock.Advance(time.Second * 5)

	if got := model.Position(); got != 0 {
		t.Errorf("Position() = %v, want 0 with an unknown duration", got)
	}
}

func TestPositionFrozenWhenNotPlaying(t *testing.T) {
	for _, status := range []Status{StatusPaused, StatusStopped} {
		model, clock := newTestModel(t)

		model.Update(42, 300, status)

		clock.Advance(time.Minute)

		if got := model.Position(); !almostEqual(got, 42) {
			t.Errorf("Position() with status %v = %v, want 42", status, got)
		}
	}
}

func TestRefreshDoesNotDoubleCountElapsedTime(t *testing.T) {
	model, clock := newTestModel(t)

	model.Update(10, 300, StatusPlaying)

	clock.Advance(time.Second * 2)

	if got := model.Refresh(); !almostEqual(got, 12) {
		t.Fatalf("Refresh() = %v, want 12", got)
	}

	clock.Advance(time.Second)

	if got := model.Position(); !almostEqual(got, 13) {
		t.Errorf("Position() after re-base = %v, want 13", got)
	}

	if got := model.Refresh(); !almostEqual(got, 13) {
		t.Errorf("Refresh() after re-base = %v, want 13", got)
	}
}

func TestUpdateAtAnchorsAtAFutureInstant(t *testing.T) {
	model, clock := newTestModel(t)

	model.UpdateAt(20, 300, StatusPlaying, clock.Now().Add(time.Second*2))

	if got := model.Position(); !almostEqual(got, 18) {
		t.Errorf("Position() 2s before the anchor instant = %v, want 18", got)
	}

	// Re-basing in between must keep the projection linear through the
	// anchor instant.
	clock.Advance(time.Second)
	model.Refresh()

	clock.Advance(time.Second)

	if got := model.Position(); !almostEqual(got, 20) {
		t.Errorf("Position() at the anchor instant = %v, want 20", got)
	}

	clock.Advance(time.Second)

	if got := model.Position(); !almostEqual(got, 21) {
		t.Errorf("Position() 1s past the anchor instant = %v, want 21", got)
	}
}

func TestUpdateClampsPositionIntoRange(t *testing.T) {
	model, _ := newTestModel(t)

	model.Update(-5, 300, StatusPaused)

	if got := model.Anchor().Position; got != 0 {
		t.Errorf("anchor position = %v, want 0 for negative input", got)
	}

	model.Update(400, 300, StatusPaused)

	if got := model.Anchor().Position; !almostEqual(got, 300) {
		t.Errorf("anchor position = %v, want the 300s duration", got)
	}
}
