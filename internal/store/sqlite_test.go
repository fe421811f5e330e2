// ABOUTME: Tests for the SQLite guild settings store
// ABOUTME: Covers schema creation, upsert semantics, and not-found handling

package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// createTestStore creates a SQLiteStore backed by a temp file.
func createTestStore(t *testing.T) *SQLiteStore {
	t.Helper()

	path := filepath.Join(t.TempDir(), "test.db")
	s, err := NewSQLiteStore(path)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestSQLiteStore_GetGuild_NotFound(t *testing.T) {
	s := createTestStore(t)

	_, err := s.GetGuild(context.Background(), "guild-1")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSQLiteStore_SaveAndGetGuild(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	settings := &GuildSettings{
		GuildID:        "guild-1",
		AuthRoleID:     "role-100",
		AdminChannelID: "chan-200",
		AuthChannelID:  "chan-201",
	}
	require.NoError(t, s.SaveGuild(ctx, settings))

	got, err := s.GetGuild(ctx, "guild-1")
	require.NoError(t, err)
	assert.Equal(t, "role-100", got.AuthRoleID)
	assert.Equal(t, "chan-200", got.AdminChannelID)
	assert.Equal(t, "chan-201", got.AuthChannelID)
	assert.False(t, got.CreatedAt.IsZero())
	assert.False(t, got.UpdatedAt.IsZero())
}

func TestSQLiteStore_SaveGuild_Upsert(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.SaveGuild(ctx, &GuildSettings{
		GuildID:        "guild-1",
		AuthRoleID:     "role-100",
		AdminChannelID: "chan-200",
		AuthChannelID:  "chan-201",
	}))

	require.NoError(t, s.SaveGuild(ctx, &GuildSettings{
		GuildID:        "guild-1",
		AuthRoleID:     "role-999",
		AdminChannelID: "chan-200",
		AuthChannelID:  "chan-201",
	}))

	got, err := s.GetGuild(ctx, "guild-1")
	require.NoError(t, err)
	assert.Equal(t, "role-999", got.AuthRoleID)

	// Still a single row
	guilds, err := s.ListGuilds(ctx)
	require.NoError(t, err)
	assert.Len(t, guilds, 1)
}

func TestSQLiteStore_ListGuilds(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	for _, id := range []string{"guild-b", "guild-a", "guild-c"} {
		require.NoError(t, s.SaveGuild(ctx, &GuildSettings{
			GuildID:        id,
			AuthRoleID:     "role",
			AdminChannelID: "chan",
			AuthChannelID:  "chan",
		}))
	}

	guilds, err := s.ListGuilds(ctx)
	require.NoError(t, err)
	require.Len(t, guilds, 3)
	assert.Equal(t, "guild-a", guilds[0].GuildID)
	assert.Equal(t, "guild-c", guilds[2].GuildID)
}

func TestMockStore_MatchesSQLiteBehavior(t *testing.T) {
	ctx := context.Background()
	m := NewMockStore()

	_, err := m.GetGuild(ctx, "guild-1")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, m.SaveGuild(ctx, &GuildSettings{
		GuildID:        "guild-1",
		AuthRoleID:     "role-100",
		AdminChannelID: "chan-200",
		AuthChannelID:  "chan-201",
	}))

	got, err := m.GetGuild(ctx, "guild-1")
	require.NoError(t, err)
	assert.Equal(t, "role-100", got.AuthRoleID)

	// Mutating the returned copy must not affect the stored value
	got.AuthRoleID = "tampered"
	again, err := m.GetGuild(ctx, "guild-1")
	require.NoError(t, err)
	assert.Equal(t, "role-100", again.AuthRoleID)
}
