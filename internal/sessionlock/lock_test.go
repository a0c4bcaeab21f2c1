package sessionlock_test

import (
	"context"
	"sync"
	"testing"

	"concierge/internal/sessionlock"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalLockerSerializesSameSession(t *testing.T) {
	locker := sessionlock.NewLocalLocker()
	ctx := context.Background()

	const turns = 50
	var wg sync.WaitGroup
	counter := 0

	for i := 0; i < turns; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			token, err := locker.Lock(ctx, "sess-1")
			require.NoError(t, err)
			defer locker.Unlock(ctx, "sess-1", token)

			// Unsynchronized on purpose: only the lock protects it.
			counter++
		}()
	}
	wg.Wait()

	assert.Equal(t, turns, counter)
}

func TestLocalLockerIndependentSessions(t *testing.T) {
	locker := sessionlock.NewLocalLocker()
	ctx := context.Background()

	tokenA, err := locker.Lock(ctx, "sess-a")
	require.NoError(t, err)

	// A different session must not block behind sess-a.
	done := make(chan struct{})
	go func() {
		tokenB, err := locker.Lock(ctx, "sess-b")
		assert.NoError(t, err)
		locker.Unlock(ctx, "sess-b", tokenB)
		close(done)
	}()
	<-done

	require.NoError(t, locker.Unlock(ctx, "sess-a", tokenA))
}

func TestLocalLockerUnlockUnknownSession(t *testing.T) {
	locker := sessionlock.NewLocalLocker()
	assert.NoError(t, locker.Unlock(context.Background(), "never-locked", "tok"))
}
