// ABOUTME: Mock GuildStore implementation for testing
// ABOUTME: Allows tests to run without SQLite

package store

import (
	"context"
	"sort"
	"sync"
	"time"
)

// MockStore is an in-memory GuildStore implementation for testing.
type MockStore struct {
	mu     sync.RWMutex
	guilds map[string]*GuildSettings // keyed by guild ID
}

// NewMockStore creates a new MockStore.
func NewMockStore() *MockStore {
	return &MockStore{
		guilds: make(map[string]*GuildSettings),
	}
}

// GetGuild retrieves settings for a guild.
func (m *MockStore) GetGuild(ctx context.Context, guildID string) (*GuildSettings, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	settings, ok := m.guilds[guildID]
	if !ok {
		return nil, ErrNotFound
	}

	// Return a copy to avoid external modification
	s := *settings
	return &s, nil
}

// SaveGuild inserts or updates settings for a guild.
func (m *MockStore) SaveGuild(ctx context.Context, settings *GuildSettings) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := time.Now().UTC()
	s := *settings
	if s.CreatedAt.IsZero() {
		s.CreatedAt = now
	}
	s.UpdatedAt = now
	m.guilds[s.GuildID] = &s
	return nil
}

// ListGuilds returns settings for every configured guild.
func (m *MockStore) ListGuilds(ctx context.Context) ([]*GuildSettings, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	guilds := make([]*GuildSettings, 0, len(m.guilds))
	for _, settings := range m.guilds {
		s := *settings
		guilds = append(guilds, &s)
	}
	sort.Slice(guilds, func(i, j int) bool { return guilds[i].GuildID < guilds[j].GuildID })
	return guilds, nil
}

// Close is a no-op for the mock store.
func (m *MockStore) Close() error {
	return nil
}
