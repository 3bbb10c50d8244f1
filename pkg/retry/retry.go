// Package retry provides the retry/backoff policy used around external calls.
package retry

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-pkgz/repeater/v2"

	"github.com/umputun/newsdigest/pkg/domain"
)

// ErrPermanent marks errors that must not be retried, wrap it with fmt.Errorf("%w: ...", ErrPermanent)
var ErrPermanent = errors.New("permanent error")

// Policy is an exponential backoff retry policy
type Policy struct {
	Attempts     int           `yaml:"attempts" json:"attempts" jsonschema:"default=3,minimum=1,description=Maximum attempts including the first one"`
	InitialDelay time.Duration `yaml:"initial_delay" json:"initial_delay" jsonschema:"default=1s,description=Delay before the first retry"`
	MaxDelay     time.Duration `yaml:"max_delay" json:"max_delay" jsonschema:"default=30s,description=Maximum delay between retries"`
	Jitter       float64       `yaml:"jitter" json:"jitter" jsonschema:"default=0.1,minimum=0,maximum=1,description=Jitter factor"`
}

// Validate checks the policy
func (p Policy) Validate() error {
	if p.Attempts < 1 {
		return &domain.ConfigError{Field: "retry.attempts", Reason: "must be at least 1"}
	}
	if p.InitialDelay < 0 || p.MaxDelay < 0 {
		return &domain.ConfigError{Field: "retry", Reason: "delays must be non-negative"}
	}
	if p.MaxDelay > 0 && p.MaxDelay < p.InitialDelay {
		return &domain.ConfigError{Field: "retry.max_delay", Reason: "must not be less than initial_delay"}
	}
	if p.Jitter < 0 || p.Jitter > 1 {
		return &domain.ConfigError{Field: "retry.jitter", Reason: "must be between 0 and 1"}
	}
	return nil
}

// Do calls fn until it succeeds, returns an ErrPermanent error, the attempts are exhausted
// or the context is canceled. The last error is returned.
func (p Policy) Do(ctx context.Context, fn func() error) error {
	attempts := max(p.Attempts, 1)
	maxDelay := p.MaxDelay
	if maxDelay <= 0 {
		maxDelay = 30 * time.Second
	}
	r := repeater.NewBackoff(attempts, p.InitialDelay, repeater.WithMaxDelay(maxDelay), repeater.WithJitter(p.Jitter))
	if err := r.Do(ctx, fn, ErrPermanent); err != nil {
		return fmt.Errorf("retry failed: %w", err)
	}
	return nil
}

// Func returns the policy as a plain retry function
func (p Policy) Func() func(ctx context.Context, op func() error) error {
	return func(ctx context.Context, op func() error) error {
		return p.Do(ctx, op)
	}
}
