package container

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestPollHealthSucceedsOnFirst2xx(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	cfg := healthPollConfig{RequestTimeout: time.Second, Interval: time.Millisecond, Attempts: 3}
	if err := pollHealth(server.URL, cfg, nil); err != nil {
		t.Fatalf("pollHealth: %v", err)
	}
}

func TestPollHealthFailsOn5xxUntilExhausted(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	var attempts int
	cfg := healthPollConfig{RequestTimeout: time.Second, Interval: time.Millisecond, Attempts: 3}
	err := pollHealth(server.URL, cfg, func(attempt int, attemptErr error) {
		attempts = attempt
	})
	if err == nil {
		t.Fatal("expected error after exhausting attempts")
	}
	if attempts != 3 {
		t.Errorf("attempts = %d, want 3", attempts)
	}
	if !errors.Is(err, ErrHealthCheckTimeout) {
		t.Errorf("err = %v, want wrapping ErrHealthCheckTimeout", err)
	}
}

func TestPollHealthRecoversAfterInitialFailure(t *testing.T) {
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls < 2 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	cfg := healthPollConfig{RequestTimeout: time.Second, Interval: time.Millisecond, Attempts: 5}
	if err := pollHealth(server.URL, cfg, nil); err != nil {
		t.Fatalf("pollHealth: %v", err)
	}
	if calls != 2 {
		t.Errorf("calls = %d, want 2", calls)
	}
}
