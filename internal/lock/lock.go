package lock

import (
	"context"
	"errors"
	"fmt"
	"time"
)

var (
	// ErrTimeout is returned when the lock could not be acquired within the
	// caller's deadline. Callers treat it as an infrastructure failure, not
	// as a booking conflict.
	ErrTimeout = errors.New("lock acquisition timed out")
)

// Locker serializes check-then-write sections keyed by slot. Requests for
// different keys never contend.
type Locker interface {
	// Acquire blocks until the lock for key is held, ctx is done, or timeout
	// elapses. The returned handle must be released on every exit path.
	Acquire(ctx context.Context, key string, timeout time.Duration) (Handle, error)
}

// Handle is a held lock. Release is idempotent.
type Handle interface {
	Release(ctx context.Context) error
}

// SlotKey builds the canonical lock key for a (place, date, period) slot,
// the narrowest key that can collide.
func SlotKey(placeID, dateKey, periodID string) string {
	return fmt.Sprintf("reservation:slot:%s:%s:%s", placeID, dateKey, periodID)
}
