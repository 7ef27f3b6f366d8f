package v1

const (
	TypeState     = "state"     // TypeState carries the authoritative player state
	TypeSyncPlay  = "sync_play" // TypeSyncPlay schedules synchronized playback of a track
	TypeHeartbeat = "heartbeat" // TypeHeartbeat keeps the connection alive
)

// RequestedBy identifies the user that queued a track.
type RequestedBy struct {
	ID       string `json:"id" mapstructure:"id"`
	Username string `json:"username" mapstructure:"username"`
	Avatar   string `json:"avatar,omitempty" mapstructure:"avatar"`
}

// Track is the server's track metadata object.
type Track struct {
	YoutubeID    string       `json:"youtubeId" mapstructure:"youtubeId"`
	Title        string       `json:"title" mapstructure:"title"`
	Duration     float64      `json:"duration" mapstructure:"duration"`
	Thumbnail    string       `json:"thumbnail,omitempty" mapstructure:"thumbnail"`
	ChannelTitle string       `json:"channelTitle,omitempty" mapstructure:"channelTitle"`
	RequestedBy  *RequestedBy `json:"requestedBy,omitempty" mapstructure:"requestedBy"`
	IsAutoplay   bool         `json:"isAutoplay,omitempty" mapstructure:"isAutoplay"`
}

// StateEvent is the payload of a "state" event. All fields are optional; nil
// pointers mean the server did not include the field.
type StateEvent struct {
	Status       *string  `json:"status,omitempty" mapstructure:"status"`
	CurrentTrack *Track   `json:"currentTrack,omitempty" mapstructure:"currentTrack"`
	Position     *float64 `json:"position,omitempty" mapstructure:"position"`
	Queue        []Track  `json:"queue,omitempty" mapstructure:"queue"`
}

// SyncPlayEvent is the payload of a "sync_play" event. All fields are
// required; payloads missing any of them are rejected at decode time.
type SyncPlayEvent struct {
	TrackID    string  `json:"trackId" mapstructure:"trackId"`
	Position   float64 `json:"position" mapstructure:"position"`
	ServerTime float64 `json:"serverTime" mapstructure:"serverTime"`
	PlayAt     float64 `json:"playAt" mapstructure:"playAt"`
}

// Status is the body of the minimal-status endpoint.
type Status struct {
	Status   string  `json:"status" mapstructure:"status"`
	Track    *Track  `json:"track,omitempty" mapstructure:"track"`
	Position float64 `json:"position" mapstructure:"position"`
}
