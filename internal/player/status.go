package player

import "strings"

// Status is the playback status of either the server or the local player.
type Status int

const (
	StatusStopped Status = iota
	StatusPlaying
	StatusPaused
)

func (s Status) String() string {
	switch s {
	case StatusPlaying:
		return "playing"
	case StatusPaused:
		return "paused"
	default:
		return "stopped"
	}
}

// StatusFromString parses the server's status strings; anything unrecognized
// maps to stopped.
func StatusFromString(value string) Status {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "playing":
		return StatusPlaying
	case "paused":
		return StatusPaused
	default:
		return StatusStopped
	}
}
