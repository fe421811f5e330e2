// ABOUTME: Role-grant adapter backed by the Discord REST client.
// ABOUTME: Resolves each guild's configured auth role and checks/grants it.

package discord

import (
	"context"
	"errors"
	"log/slog"
	"slices"

	"github.com/goonauthnetwork/discord-auth/internal/store"
)

// RoleGranter checks and grants a guild's configured authenticated-user
// role. It returns false for anything that prevents confirming the grant:
// an unconfigured guild, a missing member, or a Discord API failure.
type RoleGranter struct {
	client *Client
	guilds store.GuildStore
	logger *slog.Logger
}

// NewRoleGranter creates a role granter using the given client and guild
// settings store.
func NewRoleGranter(client *Client, guilds store.GuildStore) *RoleGranter {
	return &RoleGranter{
		client: client,
		guilds: guilds,
		logger: slog.Default().With("component", "roles"),
	}
}

// HasRole reports whether the user already carries the guild's auth role.
func (r *RoleGranter) HasRole(ctx context.Context, userID, guildID string) bool {
	settings, err := r.guilds.GetGuild(ctx, guildID)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			r.logger.Error("guild settings lookup failed", "guild_id", guildID, "error", err)
		}
		return false
	}

	member, err := r.client.GetGuildMember(ctx, guildID, userID)
	if err != nil {
		r.logger.Error("member lookup failed", "guild_id", guildID, "user_id", userID, "error", err)
		return false
	}
	if member == nil {
		return false
	}

	return slices.Contains(member.Roles, settings.AuthRoleID)
}

// GrantRole assigns the guild's auth role to the user. Returns true when
// Discord confirms the assignment.
func (r *RoleGranter) GrantRole(ctx context.Context, userID, guildID string) bool {
	settings, err := r.guilds.GetGuild(ctx, guildID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			r.logger.Error("role grant on unconfigured guild", "guild_id", guildID, "user_id", userID)
		} else {
			r.logger.Error("guild settings lookup failed", "guild_id", guildID, "error", err)
		}
		return false
	}

	ok, err := r.client.AddGuildMemberRole(ctx, guildID, userID, settings.AuthRoleID, "forum identity verified")
	if err != nil {
		r.logger.Error("role grant failed", "guild_id", guildID, "user_id", userID, "error", err)
		return false
	}

	r.logger.Debug("granting goon status", "user_id", userID, "guild_id", guildID, "role_id", settings.AuthRoleID)
	return ok
}
