package retry

import (
	"context"
	"errors"
	"math"
	"time"

	"github.com/AltairaLabs/codegen-suggest/internal/config"
)

// Policy defines retry behavior for suggestion attempts
type Policy struct {
	MaxRetries        int           // Maximum number of retry attempts (0 = no retries)
	InitialDelay      time.Duration // Delay before the first retry
	MaxDelay          time.Duration // Maximum delay between retries
	BackoffMultiplier float64       // 1.0 keeps the delay fixed
}

// DefaultPolicy returns the fixed-delay policy used for suggestion calls
func DefaultPolicy() Policy {
	return FixedPolicy(config.DefaultMaxRetries, config.DefaultRetryDelay)
}

// FixedPolicy returns a policy that waits the same delay before every retry
func FixedPolicy(maxRetries int, delay time.Duration) Policy {
	return Policy{
		MaxRetries:        maxRetries,
		InitialDelay:      delay,
		MaxDelay:          delay,
		BackoffMultiplier: 1.0,
	}
}

// CalculateDelay calculates the next retry delay based on the current attempt number
func (p *Policy) CalculateDelay(retryCount int) time.Duration {
	if retryCount <= 0 {
		return p.InitialDelay
	}

	delay := float64(p.InitialDelay) * math.Pow(p.BackoffMultiplier, float64(retryCount))

	if time.Duration(delay) > p.MaxDelay {
		return p.MaxDelay
	}

	return time.Duration(delay)
}

// ShouldRetry reports whether another attempt is allowed after retryCount retries
func (p *Policy) ShouldRetry(retryCount int) bool {
	return retryCount < p.MaxRetries
}

// MaxAttempts is the total number of attempts the policy permits
func (p *Policy) MaxAttempts() int {
	return p.MaxRetries + 1
}

// Wait blocks for the delay that precedes retry number retryCount+1.
// It returns ctx.Err() if the context ends first.
func (p *Policy) Wait(ctx context.Context, retryCount int) error {
	delay := p.CalculateDelay(retryCount)
	if delay <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(delay)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Validate checks if the retry policy configuration is valid
func (p *Policy) Validate() error {
	if p.MaxRetries < 0 {
		return errors.New("MaxRetries must be non-negative")
	}
	if p.InitialDelay < 0 {
		return errors.New("InitialDelay must be non-negative")
	}
	if p.MaxDelay < 0 {
		return errors.New("MaxDelay must be non-negative")
	}
	if p.BackoffMultiplier <= 0 {
		return errors.New("BackoffMultiplier must be positive")
	}
	if p.InitialDelay > p.MaxDelay {
		return errors.New("InitialDelay cannot be greater than MaxDelay")
	}
	return nil
}
