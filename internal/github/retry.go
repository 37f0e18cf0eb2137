package github

import (
	"context"
	"errors"
	"net"
	"net/url"
	"time"

	gogithub "github.com/google/go-github/v62/github"

	stackprerrors "stackpr.dev/stackpr/internal/errors"
)

const (
	maxAttempts    = 3
	initialBackoff = 500 * time.Millisecond
)

// withRetry runs fn, retrying transient transport failures with doubling
// backoff. Semantic API failures (4xx responses) fail fast. The error
// returned after exhausting retries is a TransportError so callers can
// classify it.
func withRetry(ctx context.Context, op string, fn func() error) error {
	backoff := initialBackoff
	var err error
	for attempt := 0; attempt < maxAttempts; attempt++ {
		if attempt > 0 {
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return ctx.Err()
			}
			backoff *= 2
		}
		err = fn()
		if err == nil {
			return nil
		}
		if !isTransient(err) {
			return err
		}
	}
	return stackprerrors.NewTransportError(op, err)
}

// isTransient reports whether an error is worth retrying: network-level
// failures and server-side (5xx) responses. Anything the server understood
// and rejected is permanent.
func isTransient(err error) bool {
	var ghErr *gogithub.ErrorResponse
	if errors.As(err, &ghErr) {
		if ghErr.Response != nil {
			return ghErr.Response.StatusCode >= 500
		}
		return false
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}

	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return true
	}

	return false
}
