package application

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRoomLocks(t *testing.T) {
	ctx := context.Background()
	locks := newRoomLocks(10 * time.Millisecond)

	release, err := locks.acquire(ctx, "r")
	require.NoError(t, err)

	_, err = locks.acquire(ctx, "r")
	assert.ErrorIs(t, err, ErrBusy)

	other, err := locks.acquire(ctx, "s")
	require.NoError(t, err)
	other()

	release()
	again, err := locks.acquire(ctx, "r")
	require.NoError(t, err)
	again()
}

func TestRoomLocksWaitForRelease(t *testing.T) {
	locks := newRoomLocks(time.Second)
	release, err := locks.acquire(context.Background(), "r")
	require.NoError(t, err)

	go func() {
		time.Sleep(10 * time.Millisecond)
		release()
	}()

	next, err := locks.acquire(context.Background(), "r")
	require.NoError(t, err)
	next()
}

func TestRoomLocksHonourCallerDeadline(t *testing.T) {
	locks := newRoomLocks(time.Minute)
	release, err := locks.acquire(context.Background(), "r")
	require.NoError(t, err)
	defer release()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	start := time.Now()
	_, err = locks.acquire(ctx, "r")
	assert.ErrorIs(t, err, ErrBusy)
	assert.Less(t, time.Since(start), 5*time.Second)
}

func TestNewRoomLocksDefaultsTimeout(t *testing.T) {
	assert.Equal(t, DefaultLockTimeout, newRoomLocks(0).timeout)
}
