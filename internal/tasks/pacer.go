package tasks

import (
	"context"
	"fmt"
	"time"

	"github.com/desertthunder/chronolist/internal/shared"
	"golang.org/x/time/rate"
)

// DefaultDelay is the pause after each successful append.
const DefaultDelay = time.Second

// Pacer throttles successive appends so the service records distinct "date added" values.
type Pacer interface {
	// Wait blocks until the next append may proceed or ctx is done.
	Wait(ctx context.Context) error
}

// FixedDelay waits a constant duration on every call.
type FixedDelay struct {
	Delay time.Duration
}

func (p FixedDelay) Wait(ctx context.Context) error {
	if p.Delay <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(p.Delay)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// TokenBucket allows up to Rate appends per second with a burst of one.
type TokenBucket struct {
	limiter *rate.Limiter
}

// NewTokenBucket creates a [TokenBucket] pacer for perSecond events.
//
// The bucket starts empty: Wait runs after an append, so a full bucket would let the second append through at once.
func NewTokenBucket(perSecond float64) *TokenBucket {
	limiter := rate.NewLimiter(rate.Limit(perSecond), 1)
	limiter.Allow()
	return &TokenBucket{limiter: limiter}
}

func (p *TokenBucket) Wait(ctx context.Context) error {
	return p.limiter.Wait(ctx)
}

// NoDelay never waits. Used by tests and dry runs.
type NoDelay struct{}

func (NoDelay) Wait(ctx context.Context) error { return ctx.Err() }

// NewPacer selects a pacer from reorder configuration.
func NewPacer(cfg shared.ReorderConfig) (Pacer, error) {
	switch cfg.Pacing {
	case "", shared.PacingFixed:
		delay := cfg.Delay.Duration
		if delay == 0 {
			delay = DefaultDelay
		}
		return FixedDelay{Delay: delay}, nil
	case shared.PacingTokenBucket:
		if cfg.Rate <= 0 {
			return nil, fmt.Errorf("%w: reorder.rate must be positive", shared.ErrInvalidConfig)
		}
		return NewTokenBucket(cfg.Rate), nil
	default:
		return nil, fmt.Errorf("%w: unknown reorder.pacing %q", shared.ErrInvalidConfig, cfg.Pacing)
	}
}
