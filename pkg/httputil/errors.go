package httputil

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
)

// ErrNotFound is wrapped by [FetchError] when the last attempt returned 404.
var ErrNotFound = errors.New("resource not found")

// ErrStatus is wrapped by [FetchError] for any other non-2xx final status.
var ErrStatus = errors.New("unexpected status")

// FetchError is returned once a request has exhausted its retry budget.
type FetchError struct {
	URL        string // request URL with credentials redacted
	Method     string
	StatusCode int    // 0 when the last attempt failed before a response
	Status     string // reason phrase of the last response
	Attempts   int
	Err        error
}

func (e *FetchError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s %s: %s after %d attempt(s)", e.Method, e.URL, e.Status, e.Attempts)
	}
	return fmt.Sprintf("%s %s: %v after %d attempt(s)", e.Method, e.URL, e.Err, e.Attempts)
}

func (e *FetchError) Unwrap() error { return e.Err }

func statusError(code int) error {
	if code == http.StatusNotFound {
		return ErrNotFound
	}
	return fmt.Errorf("%w %d", ErrStatus, code)
}

var secretParams = []string{"api_key", "token", "access_token"}

// RedactURL replaces credential query parameters with "REDACTED" so URLs can
// be logged and embedded in errors.
func RedactURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return raw
	}
	q := u.Query()
	changed := false
	for _, p := range secretParams {
		if q.Has(p) {
			q.Set(p, "REDACTED")
			changed = true
		}
	}
	if !changed {
		return raw
	}
	u.RawQuery = q.Encode()
	return u.String()
}
