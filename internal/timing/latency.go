package timing

import (
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

const (
	// FallbackLatency is the conservative one-way estimate used when
	// measurement fails.
	FallbackLatency = time.Millisecond * 100

	measureTimeout = time.Second * 5
)

// Estimator approximates the one-way network latency to the server by timing
// a round trip to its status endpoint. The sample is taken lazily on first
// use and cached for the lifetime of the session.
type Estimator struct {
	url    string
	client *http.Client

	once    sync.Once
	latency time.Duration
}

func NewEstimator(statusURL string) *Estimator {
	return &Estimator{
		url: statusURL,
		client: &http.Client{
			Timeout: measureTimeout,
		},
	}
}

// Measure times one lightweight request and returns half the round trip as
// the one-way estimate. Failures fall back to FallbackLatency and are logged;
// Measure never blocks longer than the measurement timeout.
func (e *Estimator) Measure() time.Duration {
	start := time.Now()

	res, err := e.client.Get(e.url)
	if err != nil {
		log.Warn().
			Err(err).
			Dur("fallback", FallbackLatency).
			Msg("Could not measure network latency")

		return FallbackLatency
	}
	defer res.Body.Close()

	if _, err := io.Copy(io.Discard, res.Body); err != nil || res.StatusCode != http.StatusOK {
		log.Warn().
			Err(err).
			Int("status", res.StatusCode).
			Dur("fallback", FallbackLatency).
			Msg("Could not measure network latency")

		return FallbackLatency
	}

	latency := time.Since(start) / 2

	log.Debug().
		Dur("latency", latency).
		Msg("Measured one-way network latency")

	return latency
}

// Get returns the cached estimate, calling Measure exactly once if no sample
// exists yet.
func (e *Estimator) Get() time.Duration {
	e.once.Do(func() {
		e.latency = e.Measure()
	})

	return e.latency
}
