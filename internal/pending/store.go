// ABOUTME: Bounded in-memory store of in-flight authentication attempts.
// ABOUTME: FIFO capacity eviction plus TTL expiry, keyed by Discord user ID.

package pending

import (
	"container/list"
	"sync"
	"time"
)

// Attempt is one in-progress authentication flow for a single Discord user.
// Attempts are never mutated in place; a new /auth always replaces the old one.
type Attempt struct {
	RequesterID    string
	ExternalName   string
	ChallengeToken string
	CreatedAt      time.Time
	LastUpdated    time.Time
}

// storeEntry pairs an attempt with its position in the insertion-order list.
type storeEntry struct {
	attempt *Attempt
	element *list.Element
}

// Store is a thread-safe, size-limited, TTL-bounded map of requester ID to
// pending attempt. It is a pure cache: losing an entry only forces the user
// to restart from /auth, so eviction is always safe. Insertion order is kept
// in a doubly-linked list for O(1) FIFO eviction.
type Store struct {
	mu       sync.RWMutex
	attempts map[string]*storeEntry
	order    *list.List // requester IDs, oldest at front
	ttl      time.Duration
	maxSize  int
	done     chan struct{}
	closed   bool
}

// DefaultCapacity bounds memory under adversarial request volume.
const DefaultCapacity = 4096

// DefaultTTL matches the external challenge's own lifetime, so entries do
// not outlive the hash the user is being asked to post.
const DefaultTTL = 5 * time.Minute

// New creates a pending-attempt store with the given TTL and capacity.
// A background goroutine sweeps expired entries once a minute.
func New(ttl time.Duration, maxSize int) *Store {
	s := &Store{
		attempts: make(map[string]*storeEntry),
		order:    list.New(),
		ttl:      ttl,
		maxSize:  maxSize,
		done:     make(chan struct{}),
	}
	go s.sweep()
	return s
}

// Put inserts or replaces the attempt for a requester. Replacing an existing
// attempt supersedes it entirely: the old entry is removed and the new one
// goes to the back of the eviction order. If the store is over capacity
// afterwards, the oldest entries are evicted. Put never fails.
func (s *Store) Put(requesterID string, attempt *Attempt) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if entry, exists := s.attempts[requesterID]; exists {
		s.order.Remove(entry.element)
		delete(s.attempts, requesterID)
	}

	for len(s.attempts) >= s.maxSize {
		s.evictOldest()
	}

	elem := s.order.PushBack(requesterID)
	s.attempts[requesterID] = &storeEntry{
		attempt: attempt,
		element: elem,
	}
}

// Get returns the live attempt for a requester, or nil if there is none or
// the entry has outlived its TTL. Lookup has no side effects; expired
// entries are left for the sweeper.
func (s *Store) Get(requesterID string) *Attempt {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entry, ok := s.attempts[requesterID]
	if !ok {
		return nil
	}
	if time.Since(entry.attempt.CreatedAt) > s.ttl {
		return nil
	}
	return entry.attempt
}

// Remove deletes the attempt for a requester. Removing an absent entry is
// not an error.
func (s *Store) Remove(requesterID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.attempts[requesterID]
	if !ok {
		return
	}
	s.order.Remove(entry.element)
	delete(s.attempts, requesterID)
}

// Len reports the number of entries currently held, expired or not.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.attempts)
}

// evictOldest removes the least-recently-inserted entry. Must be called
// with mu held.
func (s *Store) evictOldest() {
	front := s.order.Front()
	if front == nil {
		return
	}
	requesterID, _ := front.Value.(string)
	s.order.Remove(front)
	delete(s.attempts, requesterID)
}

// sweep runs in a background goroutine, dropping expired entries so that
// stale attempts do not linger indefinitely under low load.
func (s *Store) sweep() {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.runSweep()
		case <-s.done:
			return
		}
	}
}

// runSweep removes all expired entries.
func (s *Store) runSweep() {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	for requesterID, entry := range s.attempts {
		if now.Sub(entry.attempt.CreatedAt) > s.ttl {
			s.order.Remove(entry.element)
			delete(s.attempts, requesterID)
		}
	}
}

// Close stops the background sweeper. Safe to call multiple times.
func (s *Store) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.closed {
		close(s.done)
		s.closed = true
	}
}
