package apply

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSchemaLocksWaiterHonorsContext(t *testing.T) {
	tests := []struct {
		name    string
		ctx     func() (context.Context, context.CancelFunc)
		wantErr error
	}{
		{
			name: "deadline",
			ctx: func() (context.Context, context.CancelFunc) {
				return context.WithTimeout(context.Background(), 20*time.Millisecond)
			},
			wantErr: context.DeadlineExceeded,
		},
		{
			name: "cancel while waiting",
			ctx: func() (context.Context, context.CancelFunc) {
				ctx, cancel := context.WithCancel(context.Background())
				time.AfterFunc(20*time.Millisecond, cancel)
				return ctx, cancel
			},
			wantErr: context.Canceled,
		},
		{
			name: "already cancelled",
			ctx: func() (context.Context, context.CancelFunc) {
				ctx, cancel := context.WithCancel(context.Background())
				cancel()
				return ctx, cancel
			},
			wantErr: context.Canceled,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			locks := newSchemaLocks()
			release, err := locks.Acquire(context.Background(), "Contact")
			require.NoError(t, err)

			ctx, cancel := tt.ctx()
			defer cancel()

			done := make(chan error, 1)
			go func() {
				_, err := locks.Acquire(ctx, "Contact")
				done <- err
			}()

			select {
			case err := <-done:
				require.Error(t, err)
				assert.True(t, errors.Is(err, tt.wantErr), "got %v", err)
				assert.Contains(t, err.Error(), "Contact")
			case <-time.After(2 * time.Second):
				t.Fatal("Acquire ignored context while the lock was held")
			}

			// The abandoned wait must not have taken the slot.
			release()
			again, err := locks.Acquire(context.Background(), "Contact")
			require.NoError(t, err)
			again()
		})
	}
}

func TestSchemaLocksIndependentKeys(t *testing.T) {
	locks := newSchemaLocks()
	releaseContact, err := locks.Acquire(context.Background(), "Contact")
	require.NoError(t, err)
	defer releaseContact()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	releaseDeal, err := locks.Acquire(ctx, "Deal")
	require.NoError(t, err)
	releaseDeal()
}

func TestSchemaLocksHandOff(t *testing.T) {
	locks := newSchemaLocks()
	release, err := locks.Acquire(context.Background(), "Contact")
	require.NoError(t, err)

	acquired := make(chan struct{})
	go func() {
		next, err := locks.Acquire(context.Background(), "Contact")
		if err == nil {
			next()
		}
		close(acquired)
	}()

	select {
	case <-acquired:
		t.Fatal("second Acquire succeeded while the lock was held")
	case <-time.After(20 * time.Millisecond):
	}

	release()
	select {
	case <-acquired:
	case <-time.After(2 * time.Second):
		t.Fatal("waiter never acquired the released lock")
	}
}
