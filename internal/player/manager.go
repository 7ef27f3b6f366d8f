package player

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/rs/zerolog/log"
	"github.com/teivah/broadcast"

	"github.com/miu-player/miu-go/internal/stream"
	"github.com/miu-player/miu-go/internal/timing"
	v1 "github.com/miu-player/miu-go/pkg/api/sse/v1"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

const (
	tickInterval     = time.Millisecond * 100
	statusTimeout    = time.Second * 5
	connectedTimeout = time.Second * 30
)

// LatencySource hands out a one-way network latency estimate for the
// scheduling math.
type LatencySource interface {
	Get() time.Duration
}

// Sink is the audio output the manager drives. The manager only issues
// abstract load/play/pause/seek commands; it never touches audio data.
type Sink interface {
	LoadTrack(url string) error
	PlayFrom(positionSeconds float64) error
	Pause() error
	Resume() error
	Stop() error
	IsPlaying() (bool, error)
}

// Intent records direct user actions. UserPaused is a local override that
// survives server state updates and is cleared only by the user.
type Intent struct {
	TrackID    string
	UserPaused bool
}

type ManagerConfig struct {
	Stream *stream.ConsumerConfig
}

// Manager glues the stream consumer, the position model, the latency
// estimator and the scheduler together. All anchor access is serialized
// through its mutex; the run loop is the only periodic driver.
type Manager struct {
	endpoints Endpoints
	sink      Sink
	estimator LatencySource
	consumer  *stream.Consumer
	client    *http.Client
	schedule  func(delay time.Duration, callback func())

	mu           sync.Mutex
	model        *Model
	intent       Intent
	track        *v1.Track
	queue        []v1.Track
	serverStatus Status
	lastEvent    time.Time
	playGen      uint64
	closed       bool

	snapshots *broadcast.Relay[Snapshot]

	ctx          context.Context
	cancel       context.CancelFunc
	consumerDone chan struct{}
	done         chan struct{}

	now func() time.Time
}

func NewManager(endpoints Endpoints, sink Sink, config *ManagerConfig) *Manager {
	if config == nil {
		config = &ManagerConfig{}
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &Manager{
		endpoints: endpoints,
		sink:      sink,
		estimator: timing.NewEstimator(endpoints.Status),
		consumer:  stream.NewConsumer(endpoints.Events, config.Stream),
		client: &http.Client{
			Timeout: statusTimeout,
		},
		schedule:     timing.Schedule,
		model:        NewModel(),
		snapshots:    broadcast.NewRelay[Snapshot](),
		ctx:          ctx,
		cancel:       cancel,
		consumerDone: make(chan struct{}),
		done:         make(chan struct{}),
		now:          time.Now,
	}
}

// Open fetches the initial authoritative status and starts the stream
// consumer and the periodic driver. It fails only if the server is
// unreachable for the initial resync.
func (m *Manager) Open() error {
	if err := m.refreshStatus(); err != nil {
		return err
	}

	go func() {
		defer close(m.consumerDone)

		m.consumer.Run(m.ctx)
	}()

	go m.run()

	log.Info().
		Str("backend", m.endpoints.Backend).
		Msg("Synchronized client started")

	return nil
}

// Close stops the stream consumer and joins it, invalidates any pending
// scheduled callback, then stops the periodic driver and joins it. No anchor
// mutation happens after Close returns.
func (m *Manager) Close() error {
	m.cancel()
	<-m.consumerDone

	m.mu.Lock()
	m.playGen++
	m.closed = true
	m.mu.Unlock()

	<-m.done

	m.snapshots.Close()

	return nil
}

// Subscribe returns a listener that receives a snapshot on every driver tick
// and after every applied user action. Listeners must drain their channel.
func (m *Manager) Subscribe(capacity int) *broadcast.Listener[Snapshot] {
	return m.snapshots.Listener(capacity)
}

// Snapshot returns the current view without waiting for a tick.
func (m *Manager) Snapshot() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.snapshotLocked()
}

// Pause pauses the local sink. The override persists across server updates
// and is cleared only by Resume.
func (m *Manager) Pause() {
	m.mu.Lock()
	m.intent.UserPaused = true
	snapshot := m.snapshotLocked()
	m.mu.Unlock()

	if err := m.sink.Pause(); err != nil {
		log.Warn().
			Err(err).
			Msg("Could not pause the audio sink")
	}

	m.snapshots.Broadcast(snapshot)
}

// Resume clears the local pause override and rejoins the server timeline at
// the current synced position rather than a stale server-reported one.
func (m *Manager) Resume() {
	m.mu.Lock()
	m.intent.UserPaused = false
	position := m.model.Refresh()
	playing := m.serverStatus == StatusPlaying
	snapshot := m.snapshotLocked()
	m.mu.Unlock()

	if playing {
		if err := m.sink.PlayFrom(position); err != nil {
			log.Warn().
				Err(err).
				Msg("Could not resume the audio sink")
		}
	}

	m.snapshots.Broadcast(snapshot)
}

// TogglePause flips between Pause and Resume based on the user override.
func (m *Manager) TogglePause() {
	m.mu.Lock()
	paused := m.intent.UserPaused
	m.mu.Unlock()

	if paused {
		m.Resume()
	} else {
		m.Pause()
	}
}

func (m *Manager) run() {
	defer close(m.done)

	ticker := time.NewTicker(tickInterval)
	defer ticker.Stop()

	events := m.consumer.Events()

	for {
		select {
		case <-m.ctx.Done():
			return
		case event, ok := <-events:
			if !ok {
				events = nil

				continue
			}

			m.handleEvent(event)
		case <-ticker.C:
			m.mu.Lock()
			m.model.Refresh()
			snapshot := m.snapshotLocked()
			m.mu.Unlock()

			m.snapshots.Broadcast(snapshot)
		}
	}
}

func (m *Manager) handleEvent(event stream.Event) {
	m.mu.Lock()
	m.lastEvent = m.now()
	m.mu.Unlock()

	switch event.Type {
	case v1.TypeState:
		m.handleState(event)
	case v1.TypeSyncPlay:
		m.handleSyncPlay(event)
	case v1.TypeHeartbeat:
	default:
		log.Trace().
			Str("type", event.Type).
			Msg("Ignoring unrecognized event type")
	}
}

func (m *Manager) handleState(event stream.Event) {
	state, err := v1.DecodeStateEvent(event.Payload)
	if err != nil {
		log.Warn().
			Err(err).
			Msg("Dropping malformed state event")

		return
	}

	m.mu.Lock()

	if state.Status != nil {
		status := StatusFromString(*state.Status)
		// A status flip without a position re-bases the projection at the
		// position it has reached, so a pause freezes it there instead of
		// letting the stale playing anchor keep advancing.
		if status != m.serverStatus {
			m.model.Update(m.model.Refresh(), m.model.Anchor().Duration, status)
		}
		m.serverStatus = status
	}

	trackChanged := false
	trackCleared := false
	trackID := ""
	// An absent currentTrack key leaves the track alone; an explicit null
	// clears it.
	if _, ok := event.Payload["currentTrack"]; ok {
		switch {
		case state.CurrentTrack != nil:
			if m.track == nil || m.track.YoutubeID != state.CurrentTrack.YoutubeID {
				trackChanged = true
			}

			m.track = state.CurrentTrack
			m.intent.TrackID = state.CurrentTrack.YoutubeID
			trackID = state.CurrentTrack.YoutubeID
		case m.track != nil:
			m.track = nil
			m.intent.TrackID = ""
			trackCleared = true

			m.model.Update(0, 0, StatusStopped)
		}
	}

	if state.Queue != nil {
		m.queue = state.Queue
	}

	if state.Position != nil {
		duration := 0.0
		if m.track != nil {
			duration = m.track.Duration
		}

		m.model.Update(*state.Position, duration, m.serverStatus)
	}

	restart := trackChanged && m.serverStatus == StatusPlaying && !m.intent.UserPaused
	position := m.model.Position()
	snapshot := m.snapshotLocked()
	m.mu.Unlock()

	if trackChanged {
		log.Info().
			Str("trackId", trackID).
			Msg("Track changed")

		if err := m.sink.LoadTrack(m.cacheBustedStreamURL()); err != nil {
			log.Warn().
				Err(err).
				Msg("Could not load track into the audio sink")
		}
	}

	if trackCleared {
		log.Info().Msg("Track cleared")

		if err := m.sink.Stop(); err != nil {
			log.Warn().
				Err(err).
				Msg("Could not stop the audio sink")
		}
	}

	if restart {
		if err := m.sink.PlayFrom(position); err != nil {
			log.Warn().
				Err(err).
				Msg("Could not restart playback after track change")
		}
	}

	m.snapshots.Broadcast(snapshot)
}

func (m *Manager) handleSyncPlay(event stream.Event) {
	play, err := v1.DecodeSyncPlayEvent(event.Payload)
	if err != nil {
		log.Warn().
			Err(err).
			Msg("Dropping malformed sync_play event")

		return
	}

	serverBuffer := time.Duration((play.PlayAt - play.ServerTime) * float64(time.Millisecond))
	latency := m.estimator.Get()
	// Audio must start one-way-latency early so every client reaches the
	// commanded position at playAt regardless of its own latency estimate.
	fireAt := event.ReceivedAt.Add(serverBuffer - latency)

	m.mu.Lock()
	duration := 0.0
	if m.track != nil && m.track.YoutubeID == play.TrackID {
		duration = m.track.Duration
	}

	// Base the commanded position at the fire instant, so the projection
	// passes through exactly that position when playback starts. This runs
	// even when the user has paused locally, so the model keeps tracking
	// the server's progress.
	m.model.UpdateAt(play.Position, duration, StatusPlaying, fireAt)
	m.serverStatus = StatusPlaying
	userPaused := m.intent.UserPaused
	m.mu.Unlock()

	log.Debug().
		Str("trackId", play.TrackID).
		Dur("serverBuffer", serverBuffer).
		Dur("latency", latency).
		Time("fireAt", fireAt).
		Msg("Handling sync_play")

	if userPaused {
		return
	}

	if !m.trackMatches(play.TrackID) {
		// One synchronous re-fetch resolves commands that outran their
		// state update.
		if err := m.refreshStatus(); err != nil {
			log.Warn().
				Err(err).
				Msg("Could not refresh status to resolve track")
		}

		if !m.trackMatches(play.TrackID) {
			log.Warn().
				Str("trackId", play.TrackID).
				Msg("Discarding sync_play for superseded track")

			return
		}
	}

	m.mu.Lock()
	m.playGen++
	generation := m.playGen

	// The re-fetch both eats into the buffer and overwrites the anchor, so
	// re-anchor and measure the remaining delay against the clock only now.
	if m.track != nil {
		duration = m.track.Duration
	}
	m.model.UpdateAt(play.Position, duration, StatusPlaying, fireAt)
	timeUntilPlay := fireAt.Sub(m.now())
	m.mu.Unlock()

	position := play.Position
	if position < 0 {
		position = 0
	}
	if duration > 0 && position > duration {
		position = duration
	}

	m.schedule(timeUntilPlay, func() {
		m.mu.Lock()
		if m.closed || m.playGen != generation {
			m.mu.Unlock()

			return
		}

		m.model.Refresh()
		m.mu.Unlock()

		if err := m.sink.PlayFrom(position); err != nil {
			log.Warn().
				Err(err).
				Msg("Could not start synchronized playback")
		}
	})
}

// refreshStatus performs one synchronous fetch of the authoritative status
// and applies it the way a state event would be.
func (m *Manager) refreshStatus() error {
	res, err := m.client.Get(m.endpoints.Status)
	if err != nil {
		return err
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		return fmt.Errorf("could not fetch status: status %v", res.StatusCode)
	}

	var status v1.Status
	if err := json.NewDecoder(res.Body).Decode(&status); err != nil {
		return err
	}

	m.mu.Lock()
	m.serverStatus = StatusFromString(status.Status)

	trackChanged := false
	if status.Track != nil {
		if m.track == nil || m.track.YoutubeID != status.Track.YoutubeID {
			trackChanged = true
		}

		m.track = status.Track
		m.intent.TrackID = status.Track.YoutubeID

		m.model.Update(status.Position, status.Track.Duration, m.serverStatus)
	}
	m.mu.Unlock()

	if trackChanged {
		if err := m.sink.LoadTrack(m.cacheBustedStreamURL()); err != nil {
			log.Warn().
				Err(err).
				Msg("Could not load track into the audio sink")
		}
	}

	return nil
}

func (m *Manager) trackMatches(trackID string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.track != nil && m.track.YoutubeID == trackID
}

// cacheBustedStreamURL appends a timestamp so intermediaries never serve a
// stale stream body.
func (m *Manager) cacheBustedStreamURL() string {
	return m.endpoints.Stream + "?ts=" + strconv.FormatInt(m.now().UnixMilli(), 10)
}

func (m *Manager) snapshotLocked() Snapshot {
	status := m.serverStatus
	if m.intent.UserPaused {
		status = StatusPaused
	}

	return Snapshot{
		Connected:    !m.lastEvent.IsZero() && m.now().Sub(m.lastEvent) < connectedTimeout,
		Status:       status.String(),
		UserPaused:   m.intent.UserPaused,
		Position:     m.model.Position(),
		Duration:     m.model.Anchor().Duration,
		CurrentTrack: m.track,
		Queue:        m.queue,
	}
}
