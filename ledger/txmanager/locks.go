package txmanager

import (
	"context"
	"errors"
	"sync"
	"time"
)

// ErrLockTimeout is returned internally when an entity lock cannot be acquired
// within the bounded wait. It is surfaced to callers as a LockTimeout failure,
// never as an error.
var ErrLockTimeout = errors.New("timed out waiting for entity lock")

// noLocksHeld is the release func returned when acquisition fails.
var noLocksHeld = func() {}

// entityLockManager hands out per-entity exclusive locks.
//
// Locks are always acquired in canonical order (the caller passes the ids
// sorted and deduplicated) so two transactions touching the same entities can
// never deadlock, e.g. a transfer locks min(from, to) before max(from, to).
type entityLockManager struct {
	mu    sync.Mutex
	locks map[string]chan struct{}
}

func newEntityLockManager() *entityLockManager {
	return &entityLockManager{
		locks: make(map[string]chan struct{}),
	}
}

// lockFor returns the semaphore channel for the given entity, creating it on
// first use. Lock channels are never removed; the set of entities is the
// bounded set of created ids.
func (lm *entityLockManager) lockFor(entityID string) chan struct{} {
	lm.mu.Lock()
	defer lm.mu.Unlock()

	lock, ok := lm.locks[entityID]
	if !ok {
		lock = make(chan struct{}, 1)
		lm.locks[entityID] = lock
	}

	return lock
}

// acquire takes the exclusive lock of every given entity in the given order,
// bounded by one overall timeout. On success it returns a release func that
// must be called exactly once after commit or abort.
//
// On timeout or context cancellation every lock acquired so far is released
// and the id of the entity that could not be locked is returned together with
// ErrLockTimeout respectively the context error.
func (lm *entityLockManager) acquire(
	ctx context.Context,
	entityIDs []string,
	timeout time.Duration,
) (release func(), blockedEntityID string, err error) {

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	acquired := make([]chan struct{}, 0, len(entityIDs))

	releaseAcquired := func() {
		for i := len(acquired) - 1; i >= 0; i-- {
			<-acquired[i]
		}
	}

	for _, entityID := range entityIDs {
		lock := lm.lockFor(entityID)

		select {
		case lock <- struct{}{}:
			acquired = append(acquired, lock)

		case <-timer.C:
			releaseAcquired()
			return noLocksHeld, entityID, ErrLockTimeout

		case <-ctx.Done():
			releaseAcquired()
			return noLocksHeld, entityID, ctx.Err()
		}
	}

	return releaseAcquired, "", nil
}
