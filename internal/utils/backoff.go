package utils

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v5"
)

type Backoff struct {
	base       time.Duration
	maxRetries int
}

func NewBackoff(base time.Duration, maxRetries int) Backoff {
	return Backoff{base: base, maxRetries: maxRetries}
}

// Permanent stops Do from retrying; Do returns the wrapped error.
func Permanent(err error) error { return backoff.Permanent(err) }

// Do calls fn until it succeeds, returns a Permanent error, the context ends,
// or maxRetries retries were spent. Waits double from base, with jitter.
func (b Backoff) Do(ctx context.Context, fn func(i int) error) error {
	eb := backoff.NewExponentialBackOff()
	eb.InitialInterval = b.base
	eb.Multiplier = 2
	eb.RandomizationFactor = 0.5

	tries := b.maxRetries + 1
	if tries < 1 {
		tries = 1
	}
	attempt := 0
	_, err := backoff.Retry(ctx, func() (struct{}, error) {
		err := fn(attempt)
		attempt++
		return struct{}{}, err
	},
		backoff.WithBackOff(eb),
		backoff.WithMaxTries(uint(tries)),
	)
	// The last allowed try returns its error as is, permanent or not.
	var p *backoff.PermanentError
	if errors.As(err, &p) {
		return p.Err
	}
	return err
}
