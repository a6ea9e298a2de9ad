package booking

import (
	"context"
	"sync"
	"time"
)

// =============================================================================
// ROOM LOCKS - Per-room mutual exclusion with bounded wait
// =============================================================================

// roomLocks serializes mutations per room. The check-resolve-mark sequence
// must be atomic with respect to other mutations on the same room's calendar;
// operations on different rooms never contend.
//
// Lock acquisition is bounded: rather than queueing indefinitely (and hanging
// a front desk), acquire fails fast with BusyError once the wait elapses.
type roomLocks struct {
	mu    sync.Mutex
	rooms map[RoomID]chan struct{}
}

func newRoomLocks() *roomLocks {
	return &roomLocks{rooms: make(map[RoomID]chan struct{})}
}

func (l *roomLocks) slot(id RoomID) chan struct{} {
	l.mu.Lock()
	defer l.mu.Unlock()
	ch, ok := l.rooms[id]
	if !ok {
		ch = make(chan struct{}, 1)
		l.rooms[id] = ch
	}
	return ch
}

// acquire takes the room's lock, waiting at most wait. The returned release
// function must be called exactly once.
func (l *roomLocks) acquire(ctx context.Context, id RoomID, wait time.Duration) (release func(), err error) {
	ch := l.slot(id)

	timer := time.NewTimer(wait)
	defer timer.Stop()

	select {
	case ch <- struct{}{}:
		return func() { <-ch }, nil
	case <-timer.C:
		return nil, &BusyError{RoomID: id}
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}
