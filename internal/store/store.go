// ABOUTME: Store interface and data types for per-guild bot configuration.
// ABOUTME: Defines GuildSettings and the GuildStore interface for persistence.

package store

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when a requested entity does not exist
var ErrNotFound = errors.New("not found")

// GuildSettings holds the per-server options set through /setup: which role
// marks authenticated users and where the bot posts notifications.
type GuildSettings struct {
	GuildID        string
	AuthRoleID     string
	AdminChannelID string
	AuthChannelID  string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// GuildStore defines operations for guild settings persistence
type GuildStore interface {
	// GetGuild retrieves settings for a guild. Returns ErrNotFound if the
	// guild has never been set up.
	GetGuild(ctx context.Context, guildID string) (*GuildSettings, error)

	// SaveGuild inserts or updates settings for a guild
	SaveGuild(ctx context.Context, settings *GuildSettings) error

	// ListGuilds returns settings for every configured guild
	ListGuilds(ctx context.Context) ([]*GuildSettings, error)

	// Close releases the underlying database handle
	Close() error
}
