package llm

import (
	"context"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/rs/zerolog/log"
)

const (
	defaultRetryAttempts = 3
	defaultRetryDelay    = 2 * time.Second
)

// Retrying wraps a provider with bounded retries for transient failures.
type Retrying struct {
	inner    Provider
	attempts uint
	delay    time.Duration
}

// WithRetry wraps a provider. Non-positive attempts/delay fall back to
// defaults.
func WithRetry(inner Provider, attempts int, delay time.Duration) *Retrying {
	if attempts <= 0 {
		attempts = defaultRetryAttempts
	}
	if delay <= 0 {
		delay = defaultRetryDelay
	}
	return &Retrying{inner: inner, attempts: uint(attempts), delay: delay}
}

// Name implements Provider.
func (r *Retrying) Name() string { return r.inner.Name() }

// Complete implements Provider.
func (r *Retrying) Complete(ctx context.Context, req Request) (Response, error) {
	var resp Response
	err := retry.Do(
		func() error {
			var err error
			resp, err = r.inner.Complete(ctx, req)
			return err
		},
		retry.Context(ctx),
		retry.Attempts(r.attempts),
		retry.Delay(r.delay),
		retry.DelayType(retry.BackOffDelay),
		retry.LastErrorOnly(true),
		retry.OnRetry(func(n uint, err error) {
			log.Warn().Err(err).Uint("attempt", n+1).Str("provider", r.inner.Name()).
				Msg("completion failed, retrying")
		}),
	)
	if err != nil {
		return Response{}, err
	}
	return resp, nil
}
