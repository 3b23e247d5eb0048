package txmanager

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_EntityLockManager_AcquireAndRelease(t *testing.T) {
	// arrange
	lm := newEntityLockManager()

	// act
	release, blockedEntityID, err := lm.acquire(context.Background(), []string{"acc-1", "acc-2"}, time.Second)

	// assert
	require.NoError(t, err)
	assert.Empty(t, blockedEntityID)

	release()

	// both locks are free again
	release, _, err = lm.acquire(context.Background(), []string{"acc-1", "acc-2"}, time.Second)
	require.NoError(t, err)
	release()
}

func Test_EntityLockManager_BoundedWait_ReportsBlockedEntity(t *testing.T) {
	// arrange
	lm := newEntityLockManager()
	holder, _, err := lm.acquire(context.Background(), []string{"acc-2"}, time.Second)
	require.NoError(t, err)
	defer holder()

	// act
	release, blockedEntityID, acquireErr := lm.acquire(
		context.Background(), []string{"acc-1", "acc-2"}, 50*time.Millisecond)

	// assert
	require.ErrorIs(t, acquireErr, ErrLockTimeout)
	assert.Equal(t, "acc-2", blockedEntityID)

	// the partially acquired acc-1 lock was rolled back
	release()
	reacquire, _, reacquireErr := lm.acquire(context.Background(), []string{"acc-1"}, 50*time.Millisecond)
	require.NoError(t, reacquireErr)
	reacquire()
}

func Test_EntityLockManager_ContextCancellation_ReleasesAcquiredLocks(t *testing.T) {
	// arrange
	lm := newEntityLockManager()
	holder, _, err := lm.acquire(context.Background(), []string{"acc-2"}, time.Second)
	require.NoError(t, err)
	defer holder()

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	// act
	_, blockedEntityID, acquireErr := lm.acquire(ctx, []string{"acc-1", "acc-2"}, time.Minute)

	// assert
	require.ErrorIs(t, acquireErr, context.Canceled)
	assert.Equal(t, "acc-2", blockedEntityID)

	reacquire, _, reacquireErr := lm.acquire(context.Background(), []string{"acc-1"}, 50*time.Millisecond)
	require.NoError(t, reacquireErr)
	reacquire()
}

func Test_EntityLockManager_SequentialHoldersProceedAfterRelease(t *testing.T) {
	// arrange
	lm := newEntityLockManager()
	results := make(chan error, 2)

	// act
	release, _, err := lm.acquire(context.Background(), []string{"acc-1"}, time.Second)
	require.NoError(t, err)

	go func() {
		secondRelease, _, secondErr := lm.acquire(context.Background(), []string{"acc-1"}, time.Second)
		results <- secondErr
		if secondErr == nil {
			secondRelease()
		}
	}()

	time.Sleep(20 * time.Millisecond)
	release()

	// assert
	select {
	case waitErr := <-results:
		assert.NoError(t, waitErr)
	case <-time.After(time.Second):
		t.Fatal("second acquirer never got the lock")
	}
}
