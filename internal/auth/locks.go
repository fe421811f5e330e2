// ABOUTME: Per-requester mutual exclusion and verify-poll rate limiting.
// ABOUTME: Serializes start/verify/cancel so one user's flow cannot race itself.

package auth

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// keyedMutex hands out one mutex per key, reference-counted so unused
// entries do not accumulate.
type keyedMutex struct {
	mu    sync.Mutex
	locks map[string]*keyedLock
}

type keyedLock struct {
	mu   sync.Mutex
	refs int
}

func newKeyedMutex() *keyedMutex {
	return &keyedMutex{locks: make(map[string]*keyedLock)}
}

// Lock acquires the mutex for key, blocking until any other holder of the
// same key releases it.
func (k *keyedMutex) Lock(key string) {
	k.mu.Lock()
	l, ok := k.locks[key]
	if !ok {
		l = &keyedLock{}
		k.locks[key] = l
	}
	l.refs++
	k.mu.Unlock()

	l.mu.Lock()
}

// Unlock releases the mutex for key and drops the entry once nobody is
// waiting on it.
func (k *keyedMutex) Unlock(key string) {
	k.mu.Lock()
	l := k.locks[key]
	l.refs--
	if l.refs == 0 {
		delete(k.locks, key)
	}
	k.mu.Unlock()

	l.mu.Unlock()
}

// pollLimiter is a per-requester token bucket bounding how often a user can
// poll verification against the external service.
type pollLimiter struct {
	mu       sync.Mutex
	limiters map[string]*limiterEntry
	r        rate.Limit
	burst    int
}

type limiterEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// newPollLimiter creates a limiter allowing r polls/second with the given
// burst per requester. Stale entries are swept in the background.
func newPollLimiter(r rate.Limit, burst int) *pollLimiter {
	pl := &pollLimiter{
		limiters: make(map[string]*limiterEntry),
		r:        r,
		burst:    burst,
	}
	go pl.cleanup()
	return pl
}

// Allow reports whether the requester may poll now.
func (pl *pollLimiter) Allow(requesterID string) bool {
	pl.mu.Lock()
	defer pl.mu.Unlock()

	entry, ok := pl.limiters[requesterID]
	if !ok {
		entry = &limiterEntry{limiter: rate.NewLimiter(pl.r, pl.burst)}
		pl.limiters[requesterID] = entry
	}
	entry.lastSeen = time.Now()
	return entry.limiter.Allow()
}

// cleanup removes entries idle for more than ten minutes.
func (pl *pollLimiter) cleanup() {
	for {
		time.Sleep(5 * time.Minute)

		pl.mu.Lock()
		cutoff := time.Now().Add(-10 * time.Minute)
		for id, entry := range pl.limiters {
			if entry.lastSeen.Before(cutoff) {
				delete(pl.limiters, id)
			}
		}
		pl.mu.Unlock()
	}
}
