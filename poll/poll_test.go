package poll_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/cosmos/ics20-harness/poll"
	"github.com/stretchr/testify/require"
)

func TestUntil_ReturnsOnceConditionHolds(t *testing.T) {
	calls := 0
	err := poll.Until(context.Background(), func(ctx context.Context) (bool, error) {
		calls++
		return calls == 3, nil
	}, poll.WithInterval(time.Millisecond))

	require.NoError(t, err)
	require.Equal(t, 3, calls)
}

func TestUntil_SwallowsQueryErrors(t *testing.T) {
	var (
		calls   int
		retried []error
	)
	err := poll.Until(context.Background(), func(ctx context.Context) (bool, error) {
		calls++
		switch calls {
		case 1, 2:
			return false, errors.New("connection refused")
		case 3:
			return false, nil
		default:
			return true, nil
		}
	},
		poll.WithInterval(time.Millisecond),
		poll.WithOnRetry(func(_ uint, err error) { retried = append(retried, err) }),
	)

	require.NoError(t, err)
	require.Equal(t, 4, calls)
	require.Len(t, retried, 3)
	require.EqualError(t, retried[0], "connection refused")
	require.ErrorIs(t, retried[2], poll.ErrNotReady)
}

func TestUntil_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	calls := 0
	err := poll.Until(ctx, func(ctx context.Context) (bool, error) {
		calls++
		if calls == 2 {
			cancel()
		}
		return false, nil
	}, poll.WithInterval(time.Millisecond))

	require.ErrorIs(t, err, context.Canceled)
	require.Equal(t, 2, calls)
}

func TestUntil_AlreadyCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := poll.Until(ctx, func(ctx context.Context) (bool, error) {
		t.Fatal("condition must not be checked")
		return true, nil
	})
	require.ErrorIs(t, err, context.Canceled)
}

func TestUntil_Timeout(t *testing.T) {
	start := time.Now()
	err := poll.Until(context.Background(), func(ctx context.Context) (bool, error) {
		return false, errors.New("never ready")
	}, poll.WithInterval(5*time.Millisecond), poll.WithTimeout(50*time.Millisecond))

	require.ErrorIs(t, err, context.DeadlineExceeded)
	require.Less(t, time.Since(start), 5*time.Second)
}

func TestUntil_WaitsBetweenChecks(t *testing.T) {
	var stamps []time.Time
	err := poll.Until(context.Background(), func(ctx context.Context) (bool, error) {
		stamps = append(stamps, time.Now())
		return len(stamps) == 3, nil
	}, poll.WithInterval(20*time.Millisecond))

	require.NoError(t, err)
	require.Len(t, stamps, 3)
	for i := 1; i < len(stamps); i++ {
		require.GreaterOrEqual(t, stamps[i].Sub(stamps[i-1]), 15*time.Millisecond)
	}
}
