// ABOUTME: Tests for the pending-attempt store.
// ABOUTME: Covers supersede-on-put, FIFO eviction, TTL expiry, and idempotent removal.

package pending

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newAttempt(requesterID, name, token string) *Attempt {
	now := time.Now().UTC()
	return &Attempt{
		RequesterID:    requesterID,
		ExternalName:   name,
		ChallengeToken: token,
		CreatedAt:      now,
		LastUpdated:    now,
	}
}

func TestStore_PutGet(t *testing.T) {
	s := New(5*time.Minute, 100)
	defer s.Close()

	s.Put("user-1", newAttempt("user-1", "Alice", "hash-1"))

	got := s.Get("user-1")
	require.NotNil(t, got)
	assert.Equal(t, "Alice", got.ExternalName)
	assert.Equal(t, "hash-1", got.ChallengeToken)
}

func TestStore_Get_Absent(t *testing.T) {
	s := New(5*time.Minute, 100)
	defer s.Close()

	assert.Nil(t, s.Get("never-seen"))
}

func TestStore_Put_Supersedes(t *testing.T) {
	s := New(5*time.Minute, 100)
	defer s.Close()

	s.Put("user-1", newAttempt("user-1", "Alice", "hash-1"))
	s.Put("user-1", newAttempt("user-1", "AliceAlt", "hash-2"))

	// Only the second attempt survives
	got := s.Get("user-1")
	require.NotNil(t, got)
	assert.Equal(t, "AliceAlt", got.ExternalName)
	assert.Equal(t, "hash-2", got.ChallengeToken)
	assert.Equal(t, 1, s.Len())
}

func TestStore_FIFOEviction(t *testing.T) {
	s := New(5*time.Minute, 3)
	defer s.Close()

	for i := 1; i <= 3; i++ {
		id := fmt.Sprintf("user-%d", i)
		s.Put(id, newAttempt(id, fmt.Sprintf("Goon%d", i), "hash"))
	}

	// Capacity+1th insert evicts exactly the first-inserted entry
	s.Put("user-4", newAttempt("user-4", "Goon4", "hash"))

	assert.Nil(t, s.Get("user-1"))
	assert.NotNil(t, s.Get("user-2"))
	assert.NotNil(t, s.Get("user-3"))
	assert.NotNil(t, s.Get("user-4"))
	assert.Equal(t, 3, s.Len())
}

func TestStore_Supersede_MovesToBackOfEvictionOrder(t *testing.T) {
	s := New(5*time.Minute, 3)
	defer s.Close()

	s.Put("user-1", newAttempt("user-1", "Goon1", "hash"))
	s.Put("user-2", newAttempt("user-2", "Goon2", "hash"))
	s.Put("user-3", newAttempt("user-3", "Goon3", "hash"))

	// Re-auth for user-1 replaces its entry and makes it newest
	s.Put("user-1", newAttempt("user-1", "Goon1", "hash-new"))

	// Now user-2 is oldest and gets evicted first
	s.Put("user-4", newAttempt("user-4", "Goon4", "hash"))

	assert.NotNil(t, s.Get("user-1"))
	assert.Nil(t, s.Get("user-2"))
	assert.NotNil(t, s.Get("user-3"))
	assert.NotNil(t, s.Get("user-4"))
}

func TestStore_TTLExpiry(t *testing.T) {
	s := New(10*time.Millisecond, 100)
	defer s.Close()

	s.Put("user-1", newAttempt("user-1", "Alice", "hash"))
	require.NotNil(t, s.Get("user-1"))

	time.Sleep(20 * time.Millisecond)

	assert.Nil(t, s.Get("user-1"))
}

func TestStore_Remove_Idempotent(t *testing.T) {
	s := New(5*time.Minute, 100)
	defer s.Close()

	s.Put("user-1", newAttempt("user-1", "Alice", "hash"))
	s.Remove("user-1")
	assert.Nil(t, s.Get("user-1"))

	// Removing again must not panic or error
	s.Remove("user-1")
	s.Remove("never-existed")
}

func TestStore_RunSweep(t *testing.T) {
	s := New(10*time.Millisecond, 100)
	defer s.Close()

	s.Put("user-1", newAttempt("user-1", "Alice", "hash"))
	time.Sleep(20 * time.Millisecond)

	s.runSweep()

	assert.Equal(t, 0, s.Len())
}

func TestStore_ConcurrentAccess(t *testing.T) {
	s := New(5*time.Minute, 50)
	defer s.Close()

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				id := fmt.Sprintf("user-%d-%d", n, j)
				s.Put(id, newAttempt(id, "Goon", "hash"))
				s.Get(id)
				s.Remove(id)
			}
		}(i)
	}
	wg.Wait()
}

func TestStore_Close_Multiple(t *testing.T) {
	s := New(5*time.Minute, 100)
	s.Close()
	s.Close()
}
