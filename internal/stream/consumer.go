package stream

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/rs/zerolog/log"
)

var (
	json = jsoniter.ConfigCompatibleWithStandardLibrary

	errStreamEnded = errors.New("event stream ended")
)

const (
	defaultRetryDelay  = time.Second * 5
	defaultReadTimeout = time.Second * 30
)

// Event is one parsed server-push event. ReceivedAt is taken from the
// monotonic clock at dispatch time so that downstream timing math is immune
// to wall-clock skew.
type Event struct {
	Type       string
	Payload    map[string]any
	ReceivedAt time.Time
}

// ConsumerConfig tunes the reconnect behavior; zero values fall back to the
// defaults (5s retry delay, 30s read timeout).
type ConsumerConfig struct {
	RetryDelay  time.Duration
	ReadTimeout time.Duration
}

// Consumer maintains a persistent connection to the server's event stream,
// parses its line-oriented framing and delivers completed events on a
// channel. Failed connections are retried indefinitely until the context is
// canceled; malformed payloads are dropped, never fatal.
type Consumer struct {
	url    string
	config *ConsumerConfig
	client *http.Client
	events chan Event
}

func NewConsumer(streamURL string, config *ConsumerConfig) *Consumer {
	if config == nil {
		config = &ConsumerConfig{}
	}

	if config.RetryDelay <= 0 {
		config.RetryDelay = defaultRetryDelay
	}

	if config.ReadTimeout <= 0 {
		config.ReadTimeout = defaultReadTimeout
	}

	return &Consumer{
		url:    streamURL,
		config: config,
		client: &http.Client{},
		events: make(chan Event, 16),
	}
}

// Events returns the channel completed events are delivered on. The channel
// is the hand-off point between the stream's goroutine and whatever owns
// shared state; it is closed when Run returns.
func (c *Consumer) Events() <-chan Event {
	return c.events
}

// Run blocks, consuming the stream and reconnecting after the retry delay on
// any failure, until ctx is canceled.
func (c *Consumer) Run(ctx context.Context) {
	defer close(c.events)

	for {
		if err := c.connect(ctx); err != nil && ctx.Err() == nil {
			log.Warn().
				Err(err).
				Dur("retry", c.config.RetryDelay).
				Msg("Event stream disconnected")
		}

		select {
		case <-ctx.Done():
			return
		case <-time.After(c.config.RetryDelay):
		}
	}
}

func (c *Consumer) connect(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return err
	}

	req.Header.Set("Accept", "text/event-stream")
	req.Header.Set("Cache-Control", "no-cache")

	res, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		return fmt.Errorf("could not connect to event stream: status %v", res.StatusCode)
	}

	log.Debug().
		Str("url", c.url).
		Msg("Event stream connected")

	// Reading the body has no deadline of its own, so a stalled connection
	// is cut by closing the body once nothing has arrived for ReadTimeout.
	watchdog := time.AfterFunc(c.config.ReadTimeout, func() {
		res.Body.Close()
	})
	defer watchdog.Stop()

	var (
		eventType string
		data      string
		hasData   bool
	)

	scanner := bufio.NewScanner(res.Body)
	for scanner.Scan() {
		watchdog.Reset(c.config.ReadTimeout)

		line := strings.TrimSuffix(scanner.Text(), "\r")

		switch {
		case strings.HasPrefix(line, "event: "):
			eventType = strings.TrimPrefix(line, "event: ")
		case strings.HasPrefix(line, "data: "):
			// Multi-line payloads are deliberately unsupported; the server
			// sends one data line per event.
			data = strings.TrimPrefix(line, "data: ")
			hasData = true
		case line == "":
			c.dispatch(ctx, eventType, data, hasData)

			eventType = ""
			data = ""
			hasData = false
		}
	}

	if err := scanner.Err(); err != nil {
		return err
	}

	return errStreamEnded
}

func (c *Consumer) dispatch(ctx context.Context, eventType, data string, hasData bool) {
	if eventType == "" || !hasData {
		return
	}

	receivedAt := time.Now()

	var payload map[string]any
	if err := json.Unmarshal([]byte(data), &payload); err != nil {
		log.Warn().
			Err(err).
			Str("type", eventType).
			Msg("Dropping event with malformed payload")

		return
	}

	select {
	case c.events <- Event{
		Type:       eventType,
		Payload:    payload,
		ReceivedAt: receivedAt,
	}:
	case <-ctx.Done():
	}
}
