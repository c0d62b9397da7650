package ghclient

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/cenkalti/backoff"
	"github.com/charmbracelet/log"
)

// pacedTransport waits on the shared rate limiter before every request and
// retries transient failures (network errors, 429 and 5xx) with
// exponential backoff.
type pacedTransport struct {
	base        http.RoundTripper
	limiter     *RateLimiter
	ceiling     float64
	maxRetries  uint64
	initialWait time.Duration
	logger      *log.Logger
}

func retryableStatus(code int) bool {
	return code == http.StatusTooManyRequests || code >= 500
}

func (t *pacedTransport) newBackOff() backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	if t.initialWait > 0 {
		b.InitialInterval = t.initialWait
	}
	b.MaxElapsedTime = 2 * time.Minute
	return backoff.WithMaxRetries(b, t.maxRetries)
}

func (t *pacedTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	ctx := req.Context()
	var (
		resp    *http.Response
		last    *http.Response
		attempt int
	)
	operation := func() error {
		attempt++
		if err := t.limiter.Wait(ctx); err != nil {
			return backoff.Permanent(err)
		}
		r, err := t.base.RoundTrip(req)
		if err != nil {
			if ctx.Err() != nil {
				return backoff.Permanent(err)
			}
			t.logger.Debug("request failed, will retry", "url", req.URL.Path, "attempt", attempt, "err", err)
			return err
		}
		t.limiter.adaptToHeaders(r.Header, t.ceiling)
		if retryableStatus(r.StatusCode) {
			if last != nil {
				drain(last)
			}
			last = r
			t.logger.Debug("retryable response", "url", req.URL.Path, "status", r.StatusCode, "attempt", attempt)
			return fmt.Errorf("retryable status %d", r.StatusCode)
		}
		resp = r
		return nil
	}

	err := backoff.Retry(operation, backoff.WithContext(t.newBackOff(), ctx))
	if err == nil {
		if last != nil {
			drain(last)
		}
		return resp, nil
	}
	// Out of retries on an HTTP error: hand the final response to the
	// caller so the API client can report it properly.
	if last != nil && ctx.Err() == nil {
		return last, nil
	}
	if last != nil {
		drain(last)
	}
	if errors.Is(err, ctx.Err()) && ctx.Err() != nil {
		return nil, ctx.Err()
	}
	return nil, err
}

func drain(r *http.Response) {
	_, _ = io.Copy(io.Discard, io.LimitReader(r.Body, 1<<16))
	_ = r.Body.Close()
}
