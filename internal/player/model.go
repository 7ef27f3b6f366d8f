package player

import (
	"math"
	"time"
)

// Anchor is the last authoritative position tuple received from the server.
// It is replaced wholesale on every update so readers never observe a
// half-written generation.
type Anchor struct {
	Position   float64
	Duration   float64
	Status     Status
	AnchorTime time.Time
}

// Model owns the anchor and extrapolates the current playback position from
// it. It is not safe for concurrent use on its own; the Manager serializes
// all access to it.
type Model struct {
	anchor Anchor

	now func() time.Time
}

func NewModel() *Model {
	return &Model{
		now: time.Now,
	}
}

// Update replaces the anchor with a fresh authoritative tuple. The position
// is clamped into [0, duration] when a duration is known.
func (m *Model) Update(position, duration float64, status Status) {
	m.UpdateAt(position, duration, status, m.now())
}

// UpdateAt replaces the anchor like Update but bases it at an explicit
// instant. The instant may lie in the future; the projection then passes
// through exactly the given position at that instant.
func (m *Model) UpdateAt(position, duration float64, status Status, anchorTime time.Time) {
	if position < 0 {
		position = 0
	}

	if duration > 0 && position > duration {
		position = duration
	}

	m.anchor = Anchor{
		Position:   position,
		Duration:   duration,
		Status:     status,
		AnchorTime: anchorTime,
	}
}

func (m *Model) Anchor() Anchor {
	return m.anchor
}

// Position returns the extrapolated current position without touching the
// anchor, so any number of observers can read it safely through the Manager.
func (m *Model) Position() float64 {
	if m.anchor.Duration == 0 {
		return 0
	}

	if m.anchor.Status == StatusPlaying {
		elapsed := m.now().Sub(m.anchor.AnchorTime).Seconds()

		return math.Min(m.anchor.Position+elapsed, m.anchor.Duration)
	}

	return m.anchor.Position
}

// Refresh folds the elapsed time into the anchor and re-bases its timestamp,
// so elapsed time is counted exactly once. Only the Manager's periodic driver
// and its scheduled callbacks call this.
func (m *Model) Refresh() float64 {
	position := m.Position()

	m.anchor.Position = position
	m.anchor.AnchorTime = m.now()

	return position
}
