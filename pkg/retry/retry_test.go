package retry

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/umputun/newsdigest/pkg/domain"
)

func TestPolicy_Validate(t *testing.T) {
	tbl := []struct {
		name    string
		policy  Policy
		wantErr bool
	}{
		{"valid", Policy{Attempts: 3, InitialDelay: time.Second, MaxDelay: 10 * time.Second, Jitter: 0.1}, false},
		{"no delays", Policy{Attempts: 1}, false},
		{"zero attempts", Policy{}, true},
		{"negative delay", Policy{Attempts: 2, InitialDelay: -time.Second}, true},
		{"max below initial", Policy{Attempts: 2, InitialDelay: time.Second, MaxDelay: time.Millisecond}, true},
		{"jitter too big", Policy{Attempts: 2, Jitter: 1.5}, true},
	}
	for _, tt := range tbl {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.policy.Validate()
			if !tt.wantErr {
				assert.NoError(t, err)
				return
			}
			var cfgErr *domain.ConfigError
			assert.ErrorAs(t, err, &cfgErr)
		})
	}
}

func TestPolicy_Do(t *testing.T) {
	p := Policy{Attempts: 3, InitialDelay: time.Millisecond, MaxDelay: 5 * time.Millisecond}

	t.Run("succeeds after failures", func(t *testing.T) {
		calls := 0
		err := p.Do(context.Background(), func() error {
			calls++
			if calls < 3 {
				return errors.New("transient")
			}
			return nil
		})
		require.NoError(t, err)
		assert.Equal(t, 3, calls)
	})

	t.Run("exhausts attempts", func(t *testing.T) {
		calls := 0
		sentinel := errors.New("always fails")
		err := p.Do(context.Background(), func() error {
			calls++
			return sentinel
		})
		require.Error(t, err)
		assert.ErrorIs(t, err, sentinel)
		assert.Equal(t, 3, calls)
	})

	t.Run("permanent error stops retries", func(t *testing.T) {
		calls := 0
		err := p.Do(context.Background(), func() error {
			calls++
			return fmt.Errorf("%w: bad request", ErrPermanent)
		})
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrPermanent)
		assert.Equal(t, 1, calls)
	})

	t.Run("canceled context", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		slow := Policy{Attempts: 5, InitialDelay: time.Second}
		calls := 0
		err := slow.Do(ctx, func() error {
			calls++
			return errors.New("fail")
		})
		require.Error(t, err)
		assert.LessOrEqual(t, calls, 1)
	})
}

func TestPolicy_Func(t *testing.T) {
	fn := Policy{Attempts: 2, InitialDelay: time.Millisecond}.Func()
	calls := 0
	err := fn(context.Background(), func() error {
		calls++
		if calls == 1 {
			return errors.New("first")
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 2, calls)
}
