package application

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"
)

// DefaultLockTimeout bounds how long a mutation waits for its room.
const DefaultLockTimeout = 2 * time.Second

// roomLocks hands out one exclusive semaphore per room. Rooms never share a
// lock, so mutations on different rooms run in parallel.
type roomLocks struct {
	mu      sync.Mutex
	locks   map[string]*semaphore.Weighted
	timeout time.Duration
}

func newRoomLocks(timeout time.Duration) *roomLocks {
	if timeout <= 0 {
		timeout = DefaultLockTimeout
	}
	return &roomLocks{locks: make(map[string]*semaphore.Weighted), timeout: timeout}
}

func (l *roomLocks) get(roomID string) *semaphore.Weighted {
	l.mu.Lock()
	defer l.mu.Unlock()

	sem, ok := l.locks[roomID]
	if !ok {
		sem = semaphore.NewWeighted(1)
		l.locks[roomID] = sem
	}
	return sem
}

// acquire waits for the room up to the configured timeout or the caller's
// deadline, whichever is sooner. Failure to get the lock is ErrBusy.
func (l *roomLocks) acquire(ctx context.Context, roomID string) (func(), error) {
	sem := l.get(roomID)
	if sem.TryAcquire(1) {
		return func() { sem.Release(1) }, nil
	}

	waitCtx, cancel := context.WithTimeout(ctx, l.timeout)
	defer cancel()
	if err := sem.Acquire(waitCtx, 1); err != nil {
		return nil, fmt.Errorf("%w: room %s: %v", ErrBusy, roomID, err)
	}
	return func() { sem.Release(1) }, nil
}
