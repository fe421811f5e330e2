// ABOUTME: Application command registration against the Discord API.
// ABOUTME: Bulk-overwrites the bot's slash commands globally or per guild.

package discord

import (
	"context"
	"fmt"
	"net/http"
)

// Command option types, per Discord's application command schema.
const (
	OptionTypeString  = 3
	OptionTypeChannel = 7
	OptionTypeRole    = 8
)

// CommandOption describes one option of an application command.
type CommandOption struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Type        int    `json:"type"`
	Required    bool   `json:"required"`
}

// ApplicationCommand describes a slash command to register.
type ApplicationCommand struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Options     []CommandOption `json:"options,omitempty"`
}

// BulkSetGlobalCommands replaces the application's global command set.
// Global registration propagates slowly; guild registration is preferred
// during development.
func (c *Client) BulkSetGlobalCommands(ctx context.Context, appID string, commands []ApplicationCommand) error {
	path := fmt.Sprintf("/applications/%s/commands", appID)
	return c.putCommands(ctx, path, commands)
}

// BulkSetGuildCommands replaces the application's command set in one guild.
func (c *Client) BulkSetGuildCommands(ctx context.Context, appID, guildID string, commands []ApplicationCommand) error {
	path := fmt.Sprintf("/applications/%s/guilds/%s/commands", appID, guildID)
	return c.putCommands(ctx, path, commands)
}

func (c *Client) putCommands(ctx context.Context, path string, commands []ApplicationCommand) error {
	resp, err := c.do(ctx, http.MethodPut, path, commands, "")
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("registering commands: discord returned status %d", resp.StatusCode)
	}
	return nil
}
