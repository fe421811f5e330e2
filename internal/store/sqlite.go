// ABOUTME: SQLite implementation of the GuildStore interface using modernc.org/sqlite
// ABOUTME: Provides guild settings persistence with automatic schema creation

package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// SQLiteStore implements the GuildStore interface using SQLite
type SQLiteStore struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewSQLiteStore creates a new SQLite store at the given path.
// The schema is automatically created if it doesn't exist.
// Parent directories are created if needed.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	logger := slog.Default().With("component", "store")

	// Ensure parent directory exists
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating database directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	// Enable WAL mode for better concurrent performance
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling WAL mode: %w", err)
	}

	s := &SQLiteStore{
		db:     db,
		logger: logger,
	}

	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	logger.Info("SQLite store initialized", "path", path)
	return s, nil
}

// createSchema creates the database tables if they don't exist
func (s *SQLiteStore) createSchema() error {
	schema := `
		CREATE TABLE IF NOT EXISTS guild_settings (
			guild_id TEXT PRIMARY KEY,
			auth_role_id TEXT NOT NULL,
			admin_channel_id TEXT NOT NULL,
			auth_channel_id TEXT NOT NULL,
			created_at DATETIME NOT NULL,
			updated_at DATETIME NOT NULL
		);
	`
	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("executing schema: %w", err)
	}
	return nil
}

// GetGuild retrieves settings for a guild by ID
func (s *SQLiteStore) GetGuild(ctx context.Context, guildID string) (*GuildSettings, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT guild_id, auth_role_id, admin_channel_id, auth_channel_id, created_at, updated_at
		FROM guild_settings WHERE guild_id = ?`, guildID)

	var settings GuildSettings
	err := row.Scan(
		&settings.GuildID,
		&settings.AuthRoleID,
		&settings.AdminChannelID,
		&settings.AuthChannelID,
		&settings.CreatedAt,
		&settings.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying guild settings: %w", err)
	}
	return &settings, nil
}

// SaveGuild inserts or updates settings for a guild
func (s *SQLiteStore) SaveGuild(ctx context.Context, settings *GuildSettings) error {
	now := time.Now().UTC()
	if settings.CreatedAt.IsZero() {
		settings.CreatedAt = now
	}
	settings.UpdatedAt = now

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO guild_settings (guild_id, auth_role_id, admin_channel_id, auth_channel_id, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(guild_id) DO UPDATE SET
			auth_role_id = excluded.auth_role_id,
			admin_channel_id = excluded.admin_channel_id,
			auth_channel_id = excluded.auth_channel_id,
			updated_at = excluded.updated_at`,
		settings.GuildID,
		settings.AuthRoleID,
		settings.AdminChannelID,
		settings.AuthChannelID,
		settings.CreatedAt,
		settings.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("saving guild settings: %w", err)
	}

	s.logger.Debug("guild settings saved", "guild_id", settings.GuildID, "auth_role_id", settings.AuthRoleID)
	return nil
}

// ListGuilds returns settings for every configured guild
func (s *SQLiteStore) ListGuilds(ctx context.Context) ([]*GuildSettings, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT guild_id, auth_role_id, admin_channel_id, auth_channel_id, created_at, updated_at
		FROM guild_settings ORDER BY guild_id`)
	if err != nil {
		return nil, fmt.Errorf("querying guilds: %w", err)
	}
	defer rows.Close()

	var guilds []*GuildSettings
	for rows.Next() {
		var settings GuildSettings
		err := rows.Scan(
			&settings.GuildID,
			&settings.AuthRoleID,
			&settings.AdminChannelID,
			&settings.AuthChannelID,
			&settings.CreatedAt,
			&settings.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scanning guild settings: %w", err)
		}
		guilds = append(guilds, &settings)
	}
	return guilds, rows.Err()
}

// Close closes the underlying database
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
