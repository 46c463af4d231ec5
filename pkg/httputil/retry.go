package httputil

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// linearBackoff is the delay after the given failed attempt (1-based).
func linearBackoff(attempt int, unit time.Duration) time.Duration {
	return time.Duration(attempt) * unit
}

// rateLimitWait picks the delay after the n-th consecutive 429 (0-based).
// A Retry-After header wins over the exponential fallback; both are capped.
func rateLimitWait(header string, n int, unit, maxWait time.Duration, now time.Time) time.Duration {
	wait, ok := parseRetryAfter(header, now)
	if !ok {
		wait = unit << min(n, 30)
		if wait <= 0 {
			wait = maxWait
		}
	}
	if maxWait > 0 && wait > maxWait {
		wait = maxWait
	}
	return wait
}

// parseRetryAfter accepts both delta-seconds and HTTP-date forms.
func parseRetryAfter(v string, now time.Time) (time.Duration, bool) {
	v = strings.TrimSpace(v)
	if v == "" {
		return 0, false
	}
	if secs, err := strconv.Atoi(v); err == nil {
		if secs < 0 {
			return 0, false
		}
		return time.Duration(secs) * time.Second, true
	}
	if t, err := http.ParseTime(v); err == nil {
		if d := t.Sub(now); d > 0 {
			return d, true
		}
		return 0, true
	}
	return 0, false
}

// sleepContext waits for d or until ctx is done.
func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
