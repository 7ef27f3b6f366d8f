package player

import "strings"

// Endpoints are the server URLs derived from the user-supplied base URL. The
// server is always addressed through its /backend reverse-proxy prefix.
type Endpoints struct {
	Backend string
	Stream  string
	Status  string
	Events  string
}

func NewEndpoints(serverURL string) Endpoints {
	backend := strings.TrimRight(strings.TrimSpace(serverURL), "/")
	if !strings.HasSuffix(backend, "/backend") {
		backend += "/backend"
	}

	return Endpoints{
		Backend: backend,
		Stream:  backend + "/api/music/stream",
		Status:  backend + "/api/music/minimal-status",
		Events:  backend + "/api/music/state/live",
	}
}
