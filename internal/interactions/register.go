// ABOUTME: Slash command definitions and startup registration.
// ABOUTME: Pushes the bot's command set to Discord, per guild or globally.

package interactions

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/goonauthnetwork/discord-auth/internal/discord"
)

// Commands returns the bot's full application command set.
func Commands() []discord.ApplicationCommand {
	return []discord.ApplicationCommand{
		{
			Name:        "auth",
			Description: "Proof of gooniness, some say it's required in awful places.",
			Options: []discord.CommandOption{
				{
					Name:        "username",
					Description: "Your username on Something Awful",
					Type:        discord.OptionTypeString,
					Required:    true,
				},
			},
		},
		{
			Name:        "about",
			Description: "Information about this bot and your auth status.",
		},
		{
			Name:        "help",
			Description: "Use this if you need Goon Auth Network help.",
		},
		{
			Name:        "setup",
			Description: "Setup authentication for this server. Only usable by the server owner.",
			Options: []discord.CommandOption{
				{
					Name:        "authenticated-role",
					Description: "The role to assign authenticated users.",
					Type:        discord.OptionTypeRole,
					Required:    true,
				},
				{
					Name:        "admin-notice-channel",
					Description: "The channel to send admin notifications to.",
					Type:        discord.OptionTypeChannel,
					Required:    true,
				},
				{
					Name:        "auth-notice-channel",
					Description: "Optional channel to send auth notifications to.",
					Type:        discord.OptionTypeChannel,
					Required:    false,
				},
			},
		},
	}
}

// RegisterCommands pushes the command set to Discord. With guild IDs the
// commands are registered per guild (visible immediately); without, they
// are registered globally.
func RegisterCommands(ctx context.Context, client *discord.Client, appID string, guildIDs []string) error {
	commands := Commands()
	logger := slog.Default().With("component", "interactions")

	if len(guildIDs) == 0 {
		if err := client.BulkSetGlobalCommands(ctx, appID, commands); err != nil {
			return fmt.Errorf("registering global commands: %w", err)
		}
		logger.Info("registered global commands", "count", len(commands))
		return nil
	}

	for _, guildID := range guildIDs {
		if err := client.BulkSetGuildCommands(ctx, appID, guildID, commands); err != nil {
			return fmt.Errorf("registering commands in guild %s: %w", guildID, err)
		}
		logger.Info("registered guild commands", "guild_id", guildID, "count", len(commands))
	}
	return nil
}
