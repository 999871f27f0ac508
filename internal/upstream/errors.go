package upstream

import (
	"errors"
	"fmt"
	"net/http"
)

// maxErrorBody caps how much of an upstream error body is kept.
const maxErrorBody = 2048

// FetchError is a fatal collection read failure. It aborts the whole report.
type FetchError struct {
	Collection string
	StatusCode int
	Body       string
	Attempts   int
	Timeout    bool
	Err        error
}

func (e *FetchError) Error() string {
	switch {
	case e.Timeout:
		return fmt.Sprintf("fetch %s: timed out after %d attempt(s)", e.Collection, e.Attempts)
	case e.StatusCode != 0:
		return fmt.Sprintf("fetch %s: upstream returned %d after %d attempt(s): %s",
			e.Collection, e.StatusCode, e.Attempts, e.Body)
	case e.Err != nil:
		return fmt.Sprintf("fetch %s: %v", e.Collection, e.Err)
	default:
		return fmt.Sprintf("fetch %s: failed", e.Collection)
	}
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// AsFetchError unwraps err into a *FetchError.
func AsFetchError(err error) (*FetchError, bool) {
	var fe *FetchError
	if errors.As(err, &fe) {
		return fe, true
	}
	return nil, false
}

// retryable reports whether a status signals transient pressure.
func retryable(status int) bool {
	return status == http.StatusTooManyRequests || status == http.StatusServiceUnavailable
}

func truncateBody(body []byte) string {
	if len(body) > maxErrorBody {
		return string(body[:maxErrorBody]) + "..."
	}
	return string(body)
}
