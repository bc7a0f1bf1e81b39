package container

import (
	"fmt"
	"net/http"
	"time"
)

// healthPollConfig bounds the health-check poll: 2s per-request timeout,
// 5s between attempts, up to 15 attempts (~75s total), per spec.md §4.8.
type healthPollConfig struct {
	RequestTimeout time.Duration
	Interval       time.Duration
	Attempts       int
}

func defaultHealthPollConfig() healthPollConfig {
	return healthPollConfig{
		RequestTimeout: 2 * time.Second,
		Interval:       5 * time.Second,
		Attempts:       15,
	}
}

// pollHealth polls url until any 2xx response or the attempt budget is
// exhausted. Unlike the teacher's default-path cascade, only the single
// configured path is tried.
func pollHealth(url string, cfg healthPollConfig, onAttempt func(attempt int, err error)) error {
	client := &http.Client{Timeout: cfg.RequestTimeout}

	var lastErr error
	for attempt := 1; attempt <= cfg.Attempts; attempt++ {
		resp, err := client.Get(url)
		if err != nil {
			lastErr = err
			if onAttempt != nil {
				onAttempt(attempt, err)
			}
		} else {
			resp.Body.Close()
			if resp.StatusCode >= 200 && resp.StatusCode < 300 {
				if onAttempt != nil {
					onAttempt(attempt, nil)
				}
				return nil
			}
			lastErr = fmt.Errorf("status %d", resp.StatusCode)
			if onAttempt != nil {
				onAttempt(attempt, lastErr)
			}
		}

		if attempt < cfg.Attempts {
			time.Sleep(cfg.Interval)
		}
	}
	return fmt.Errorf("%w: %d attempts, last error: %v", ErrHealthCheckTimeout, cfg.Attempts, lastErr)
}
