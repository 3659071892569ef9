package occ

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkgerrors "github.com/creditpool/creditpool-backend/pkg/errors"
)

func fastPolicy() Policy {
	return Policy{MaxAttempts: 3, Backoff: time.Millisecond, AttemptTimeout: time.Second}
}

func TestDoSucceedsAfterStaleAttempts(t *testing.T) {
	calls := 0
	conflicts := 0
	p := fastPolicy()
	p.OnConflict = func(int) { conflicts++ }

	err := Do(context.Background(), p, func(context.Context) error {
		calls++
		if calls < 3 {
			return fmt.Errorf("wallet cas: %w", ErrStale)
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 3, calls)
	assert.Equal(t, 2, conflicts)
}

func TestDoSurfacesConflictAfterBudget(t *testing.T) {
	calls := 0
	err := Do(context.Background(), fastPolicy(), func(context.Context) error {
		calls++
		return ErrStale
	})
	require.Error(t, err)
	assert.Equal(t, 3, calls)
	assert.Equal(t, pkgerrors.CodeConflict, pkgerrors.CodeOf(err))
}

func TestDoDoesNotRetryTypedErrors(t *testing.T) {
	calls := 0
	err := Do(context.Background(), fastPolicy(), func(context.Context) error {
		calls++
		return pkgerrors.New(pkgerrors.CodeInsufficientFunds, "short")
	})
	assert.Equal(t, 1, calls)
	assert.Equal(t, pkgerrors.CodeInsufficientFunds, pkgerrors.CodeOf(err))
}

func TestDoMapsDeadlineToUnavailable(t *testing.T) {
	p := fastPolicy()
	p.AttemptTimeout = 5 * time.Millisecond

	err := Do(context.Background(), p, func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	})
	assert.Equal(t, pkgerrors.CodeUnavailable, pkgerrors.CodeOf(err))
}

func TestDoMapsUntypedFailuresToDependency(t *testing.T) {
	err := Do(context.Background(), fastPolicy(), func(context.Context) error {
		return errors.New("disk on fire")
	})
	assert.Equal(t, pkgerrors.CodeDependency, pkgerrors.CodeOf(err))
}

func TestDoHonoursCancelledParent(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	calls := 0
	err := Do(ctx, fastPolicy(), func(context.Context) error {
		calls++
		return nil
	})
	assert.Zero(t, calls)
	assert.Equal(t, pkgerrors.CodeUnavailable, pkgerrors.CodeOf(err))
}
