package player

import (
	v1 "github.com/miu-player/miu-go/pkg/api/sse/v1"
)

// Snapshot is a point-in-time view of the player for observers such as the
// console printer or the local snapshot endpoint. Its position is a pure
// peek; observers never perturb the extrapolation.
type Snapshot struct {
	Connected    bool       `json:"connected"`
	Status       string     `json:"status"`
	UserPaused   bool       `json:"userPaused"`
	Position     float64    `json:"position"`
	Duration     float64    `json:"duration"`
	CurrentTrack *v1.Track  `json:"currentTrack,omitempty"`
	Queue        []v1.Track `json:"queue,omitempty"`
}
