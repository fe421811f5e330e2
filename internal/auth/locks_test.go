// ABOUTME: Tests for per-key locking and the per-requester poll limiter.
// ABOUTME: Validates exclusion per key, independence across keys, and entry cleanup.

package auth

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"golang.org/x/time/rate"
)

func TestKeyedMutex_SerializesSameKey(t *testing.T) {
	km := newKeyedMutex()

	counter := 0
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			km.Lock("user-1")
			counter++
			km.Unlock("user-1")
		}()
	}
	wg.Wait()

	assert.Equal(t, 50, counter)
}

func TestKeyedMutex_IndependentKeys(t *testing.T) {
	km := newKeyedMutex()

	km.Lock("user-1")
	done := make(chan struct{})
	go func() {
		// A different key must not block
		km.Lock("user-2")
		km.Unlock("user-2")
		close(done)
	}()
	<-done
	km.Unlock("user-1")
}

func TestKeyedMutex_ReleasesEntries(t *testing.T) {
	km := newKeyedMutex()

	km.Lock("user-1")
	km.Unlock("user-1")

	km.mu.Lock()
	defer km.mu.Unlock()
	assert.Empty(t, km.locks)
}

func TestPollLimiter_AllowsWithinBurst(t *testing.T) {
	pl := newPollLimiter(rate.Every(time.Hour), 2)

	assert.True(t, pl.Allow("user-1"))
	assert.True(t, pl.Allow("user-1"))
	assert.False(t, pl.Allow("user-1"))

	// A different requester has their own bucket
	assert.True(t, pl.Allow("user-2"))
}
