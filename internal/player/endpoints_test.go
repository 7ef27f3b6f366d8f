package player

import "testing"

func TestNewEndpoints(t *testing.T) {
	for _, tt := range []struct {
		name        string
		serverURL   string
		wantBackend string
	}{
		{
			name:        "plain base URL",
			serverURL:   "https://miu.gacha.boo",
			wantBackend: "https://miu.gacha.boo/backend",
		},
		{
			name:        "trailing slash",
			serverURL:   "https://miu.gacha.boo/",
			wantBackend: "https://miu.gacha.boo/backend",
		},
		{
			name:        "backend already included",
			serverURL:   "https://miu.gacha.boo/backend",
			wantBackend: "https://miu.gacha.boo/backend",
		},
	} {
		t.Run(tt.name, func(t *testing.T) {
			endpoints := NewEndpoints(tt.serverURL)

			if endpoints.Backend != tt.wantBackend {
				t.Errorf("Backend = %q, want %q", endpoints.Backend, tt.wantBackend)
			}

			if want := tt.wantBackend + "/api/music/stream"; endpoints.Stream != want {
				t.Errorf("Stream = %q, want %q", endpoints.Stream, want)
			}

			if want := tt.wantBackend + "/api/music/minimal-status"; endpoints.Status != want {
				t.Errorf("Status = %q, want %q", endpoints.Status, want)
			}

			if want := tt.wantBackend + "/api/music/state/live"; endpoints.Events != want {
				t.Errorf("Events = %q, want %q", endpoints.Events, want)
			}
		})
	}
}
