package timing

import (
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

func TestMeasureHalvesRoundTrip(t *testing.T) {
	delay := time.Millisecond * 20

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(delay)

		if _, err := w.Write([]byte(`{"status":"playing","position":1}`)); err != nil {
			t.Error(err)
		}
	}))
	defer srv.Close()

	latency := NewEstimator(srv.URL).Measure()

	if latency < delay/2 {
		t.Errorf("Measure() = %v, want at least %v", latency, delay/2)
	}

	if latency > delay*10 {
		t.Errorf("Measure() = %v, want well below %v", latency, delay*10)
	}
}

func TestMeasureFallsBackOnConnectionError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close()

	if got := NewEstimator(srv.URL).Measure(); got != FallbackLatency {
		t.Errorf("Measure() = %v, want %v", got, FallbackLatency)
	}
}

func TestMeasureFallsBackOnErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	if got := NewEstimator(srv.URL).Measure(); got != FallbackLatency {
		t.Errorf("Measure() = %v, want %v", got, FallbackLatency)
	}
}

func TestGetMeasuresLazilyExactlyOnce(t *testing.T) {
	var requests int64

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt64(&requests, 1)

		if _, err := w.Write([]byte(`{"status":"stopped","position":0}`)); err != nil {
			t.Error(err)
		}
	}))
	defer srv.Close()

	estimator := NewEstimator(srv.URL)

	if got := atomic.LoadInt64(&requests); got != 0 {
		t.Fatalf("requests before Get() = %v, want 0", got)
	}

	first := estimator.Get()

	if got := atomic.LoadInt64(&requests); got != 1 {
		t.Fatalf("requests after first Get() = %v, want 1", got)
	}

	second := estimator.Get()

	if got := atomic.LoadInt64(&requests); got != 1 {
		t.Fatalf("requests after second Get() = %v, want 1", got)
	}

	if first != second {
		t.Errorf("Get() returned %v then %v, want the cached sample", first, second)
	}
}
