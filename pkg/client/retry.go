package client

import (
	"context"
	"fmt"
	"time"

	"emperror.dev/errors"
	"github.com/cenkalti/backoff/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Prometheus metrics for retry operations.
var (
	gbifRetriesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "gbif_retries_total",
		Help: "Total number of retry attempts by error class",
	}, []string{"error_class"})

	gbifRetryBackoffSeconds = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "gbif_retry_backoff_seconds",
		Help:    "Backoff duration for retries by error class",
		Buckets: []float64{0.5, 1, 2, 5, 10, 30, 60},
	}, []string{"error_class"})

	gbifRetryExhaustedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "gbif_retry_exhausted_total",
		Help: "Total number of times retry attempts were exhausted by error class",
	}, []string{"error_class"})
)

// RetryPolicy bounds how transient failures are retried.
type RetryPolicy struct {
	// MaxAttempts is the total number of attempts including the first one.
	MaxAttempts int `yaml:"max_attempts" json:"max_attempts" default:"3"`

	// InitialBackoff is the wait before the second attempt.
	InitialBackoff time.Duration `yaml:"initial_backoff" json:"initial_backoff" default:"1s"`

	// MaxBackoff caps a single wait.
	MaxBackoff time.Duration `yaml:"max_backoff" json:"max_backoff" default:"30s"`

	// Multiplier grows the wait between attempts.
	Multiplier float64 `yaml:"multiplier" json:"multiplier" default:"2"`

	// Jitter is the randomization factor applied to every wait (0.2 = ±20%).
	Jitter float64 `yaml:"jitter" json:"jitter" default:"0.2"`
}

// DefaultRetryPolicy returns the default retry policy.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts:    3,
		InitialBackoff: 1 * time.Second,
		MaxBackoff:     30 * time.Second,
		Multiplier:     2.0,
		Jitter:         0.2,
	}
}

// Validate checks the policy for unusable values.
func (p RetryPolicy) Validate() error {
	switch {
	case p.MaxAttempts < 1:
		return errors.Errorf("retry max_attempts must be >= 1 (got %d)", p.MaxAttempts)
	case p.InitialBackoff < 0 || p.MaxBackoff < 0:
		return errors.New("retry backoff must not be negative")
	case p.Multiplier < 1:
		return errors.Errorf("retry multiplier must be >= 1 (got %g)", p.Multiplier)
	case p.Jitter < 0 || p.Jitter >= 1:
		return errors.Errorf("retry jitter must be in [0, 1) (got %g)", p.Jitter)
	}
	return nil
}

func (p RetryPolicy) intervals() backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = p.InitialBackoff
	b.MaxInterval = p.MaxBackoff
	b.Multiplier = p.Multiplier
	b.RandomizationFactor = p.Jitter
	b.MaxElapsedTime = 0
	b.Reset()
	return b
}

// Do runs fn until it succeeds, fails with a non-retryable error, or the
// attempts run out. Exhaustion returns an error matching both
// ErrRetryExhausted and the last failure.
func (p RetryPolicy) Do(ctx context.Context, op string, fn func(context.Context) error) error {
	return p.do(ctx, op, log.Logger, fn)
}

func (p RetryPolicy) do(ctx context.Context, op string, logger zerolog.Logger, fn func(context.Context) error) error {
	maxAttempts := p.MaxAttempts
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	intervals := p.intervals()

	for attempt := 1; ; attempt++ {
		err := fn(ctx)
		if err == nil {
			if attempt > 1 {
				logger.Info().
					Str("op", op).
					Int("attempt", attempt).
					Msg("Request succeeded after retry")
			}
			return nil
		}

		if !IsRetryable(err) || ctx.Err() != nil {
			return err
		}
		class := string(errorClassOf(err))

		if attempt >= maxAttempts {
			gbifRetryExhaustedTotal.WithLabelValues(class).Inc()
			logger.Warn().
				Err(err).
				Str("op", op).
				Str("error_class", class).
				Int("max_attempts", maxAttempts).
				Msg("Retry attempts exhausted")
			return errors.WithStack(fmt.Errorf("%w after %d attempts: %w", ErrRetryExhausted, attempt, err))
		}

		wait := intervals.NextBackOff()
		gbifRetriesTotal.WithLabelValues(class).Inc()
		gbifRetryBackoffSeconds.WithLabelValues(class).Observe(wait.Seconds())

		logger.Debug().
			Err(err).
			Str("op", op).
			Str("error_class", class).
			Int("attempt", attempt).
			Dur("backoff", wait).
			Msg("Retrying request after backoff")

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			logger.Warn().
				Str("op", op).
				Int("attempt", attempt).
				Msg("Context cancelled during retry backoff")
			return errors.WithStack(fmt.Errorf("%w: %w", ErrContextCancelled, ctx.Err()))
		case <-timer.C:
		}
	}
}

func errorClassOf(err error) ErrorClass {
	var te *TransportError
	if errors.As(err, &te) {
		return te.Class
	}
	return ""
}
