package v1

import (
	"errors"
	"fmt"

	"github.com/mitchellh/mapstructure"
)

var (
	ErrMissingField = errors.New("could not decode payload with missing required field")
)

// DecodeStateEvent turns a raw "state" payload into a typed event. Every
// field is optional, so the only failures are shape mismatches.
func DecodeStateEvent(payload map[string]any) (*StateEvent, error) {
	var event StateEvent
	if err := mapstructure.Decode(payload, &event); err != nil {
		return nil, fmt.Errorf("could not decode state event: %w", err)
	}

	return &event, nil
}

// DecodeSyncPlayEvent turns a raw "sync_play" payload into a typed event.
// All four fields are required for the scheduling math to be meaningful, so
// payloads missing any of them are rejected.
func DecodeSyncPlayEvent(payload map[string]any) (*SyncPlayEvent, error) {
	for _, field := range []string{"trackId", "position", "serverTime", "playAt"} {
		if _, ok := payload[field]; !ok {
			return nil, fmt.Errorf("%w: %v", ErrMissingField, field)
		}
	}

	var event SyncPlayEvent
	if err := mapstructure.Decode(payload, &event); err != nil {
		return nil, fmt.Errorf("could not decode sync_play event: %w", err)
	}

	if event.TrackID == "" {
		return nil, fmt.Errorf("%w: trackId", ErrMissingField)
	}

	return &event, nil
}
