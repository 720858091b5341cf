package telephony

import (
	"context"
	"errors"
	"time"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"
)

// BreakerSettings configures the circuit breaker around a Dialer
type BreakerSettings struct {
	// MaxFailures is the number of consecutive failures that opens the breaker
	MaxFailures uint32
	// OpenTimeout is how long the breaker stays open before a trial call
	OpenTimeout time.Duration
}

// DefaultBreakerSettings returns default breaker settings
func DefaultBreakerSettings() BreakerSettings {
	return BreakerSettings{
		MaxFailures: 5,
		OpenTimeout: 60 * time.Second,
	}
}

// BreakerDialer wraps a Dialer so repeated provider failures stop further calls
type BreakerDialer struct {
	inner Dialer
	cb    *gobreaker.CircuitBreaker
}

// NewBreakerDialer creates a dialer guarded by a circuit breaker
func NewBreakerDialer(inner Dialer, settings BreakerSettings, logger *zap.Logger) *BreakerDialer {
	if settings.MaxFailures == 0 {
		settings.MaxFailures = DefaultBreakerSettings().MaxFailures
	}
	if settings.OpenTimeout <= 0 {
		settings.OpenTimeout = DefaultBreakerSettings().OpenTimeout
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        inner.Name(),
		MaxRequests: 1,
		Timeout:     settings.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= settings.MaxFailures
		},
		IsSuccessful: func(err error) bool {
			// A silent line or a cancelled batch says nothing about provider health
			return err == nil || errors.Is(err, ErrNoRecording) ||
				errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("telephony circuit breaker state changed",
				zap.String("provider", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()))
		},
	})

	return &BreakerDialer{inner: inner, cb: cb}
}

// Name returns the wrapped provider name
func (b *BreakerDialer) Name() string {
	return b.inner.Name()
}

// State returns the current breaker state
func (b *BreakerDialer) State() gobreaker.State {
	return b.cb.State()
}

// Dial places a call unless the breaker is open
func (b *BreakerDialer) Dial(ctx context.Context, to string) (*Call, error) {
	res, err := b.cb.Execute(func() (interface{}, error) {
		return b.inner.Dial(ctx, to)
	})
	if err != nil {
		return nil, err
	}
	return res.(*Call), nil
}

// AwaitRecording waits for a recording unless the breaker is open
func (b *BreakerDialer) AwaitRecording(ctx context.Context, call *Call) (*Recording, error) {
	res, err := b.cb.Execute(func() (interface{}, error) {
		return b.inner.AwaitRecording(ctx, call)
	})
	if err != nil {
		return nil, err
	}
	return res.(*Recording), nil
}

// DownloadRecording downloads audio unless the breaker is open
func (b *BreakerDialer) DownloadRecording(ctx context.Context, rec *Recording, dst string) error {
	_, err := b.cb.Execute(func() (interface{}, error) {
		return nil, b.inner.DownloadRecording(ctx, rec, dst)
	})
	return err
}
