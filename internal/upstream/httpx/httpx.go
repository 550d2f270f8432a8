package httpx

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/sony/gobreaker"
)

var (
	ErrRateLimited  = errors.New("rate limited")
	ErrServerError  = errors.New("server error")
	ErrCircuitOpen  = errors.New("circuit breaker open")
	errNoHTTPClient = errors.New("http client not configured")
)

// StatusError reports a non-2xx HTTP response from an upstream.
type StatusError struct {
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status code %d", e.StatusCode)
}

// Doer executes outbound requests for one upstream with a circuit breaker
// and exponential-backoff retries. Each upstream gets its own Doer so a
// failing service trips only its own breaker.
type Doer struct {
	name            string
	client          *http.Client
	circuit         *gobreaker.CircuitBreaker
	maxRetries      uint64
	initialInterval time.Duration
	maxInterval     time.Duration
}

func NewDoer(client *http.Client, name string) *Doer {
	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        name,
		MaxRequests: 5,
		Interval:    1 * time.Minute,
		Timeout:     2 * time.Minute,
	})

	return &Doer{
		name:            name,
		client:          client,
		circuit:         cb,
		maxRetries:      3,
		initialInterval: 500 * time.Millisecond,
		maxInterval:     5 * time.Second,
	}
}

// Do executes the request built by buildRequest, retrying transient failures.
// 429 and 5xx responses are retried; other non-2xx responses are returned
// immediately as *StatusError. An open circuit short-circuits the call.
func (d *Doer) Do(ctx context.Context, buildRequest func() (*http.Request, error)) (*http.Response, error) {
	if d.client == nil {
		return nil, errNoHTTPClient
	}

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = d.initialInterval
	bo.MaxInterval = d.maxInterval

	var resp *http.Response
	operation := func() error {
		req, err := buildRequest()
		if err != nil {
			return backoff.Permanent(err)
		}
		req = req.WithContext(ctx)

		result, err := d.circuit.Execute(func() (interface{}, error) {
			r, execErr := d.client.Do(req)
			if execErr != nil {
				return nil, execErr
			}

			if r.StatusCode == http.StatusTooManyRequests {
				r.Body.Close()
				return nil, ErrRateLimited
			}
			if r.StatusCode >= 500 {
				r.Body.Close()
				return nil, ErrServerError
			}
			if r.StatusCode < 200 || r.StatusCode >= 300 {
				r.Body.Close()
				return nil, &StatusError{StatusCode: r.StatusCode}
			}

			return r, nil
		})
		if err != nil {
			if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
				return backoff.Permanent(fmt.Errorf("%w: %v", ErrCircuitOpen, err))
			}
			var statusErr *StatusError
			if errors.As(err, &statusErr) {
				return backoff.Permanent(err)
			}
			return err
		}

		r, ok := result.(*http.Response)
		if !ok {
			return backoff.Permanent(fmt.Errorf("unexpected result type from circuit breaker"))
		}
		resp = r
		return nil
	}

	policy := backoff.WithContext(backoff.WithMaxRetries(bo, d.maxRetries), ctx)
	if err := backoff.Retry(operation, policy); err != nil {
		return nil, fmt.Errorf("%s: %w", d.name, err)
	}
	return resp, nil
}
