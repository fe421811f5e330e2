// ABOUTME: Minimal Discord REST API client for the bot's server-side needs.
// ABOUTME: Covers member role changes, guild lookup, and channel messages.

package discord

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

// BaseURL is the Discord REST API root.
const BaseURL = "https://discord.com/api/v9"

const userAgent = "DiscordBot (https://github.com/goonauthnetwork/discord-auth, 1.0)"

// auditLogReasonHeader carries the human-readable reason shown in the
// guild's audit log for role changes.
const auditLogReasonHeader = "X-Audit-Log-Reason"

// RatelimitError reports a 429 from Discord. RetryAfter is the wait hint in
// seconds; callers must treat this as retryable, not as a hard failure.
type RatelimitError struct {
	RetryAfter int
}

func (e *RatelimitError) Error() string {
	return fmt.Sprintf("discord rate limit exceeded, retry after %ds", e.RetryAfter)
}

// Guild is the subset of Discord's guild object the bot needs.
type Guild struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	OwnerID string `json:"owner_id"`
}

// Member is the subset of Discord's guild member object the bot needs.
type Member struct {
	Roles []string `json:"roles"`
}

// CreateMessage is the request body for posting a channel message.
type CreateMessage struct {
	Content string `json:"content"`
}

// Client is an authenticated Discord REST client.
type Client struct {
	baseURL string
	token   string
	client  *http.Client
}

// New creates a Discord client using bot-token authorization.
func New(token string, timeout time.Duration) *Client {
	return &Client{
		baseURL: BaseURL,
		token:   token,
		client:  &http.Client{Timeout: timeout},
	}
}

// NewWithBaseURL creates a client pointed at a non-default API root.
// Used by tests to target an httptest server.
func NewWithBaseURL(baseURL, token string, timeout time.Duration) *Client {
	c := New(token, timeout)
	c.baseURL = baseURL
	return c
}

// AddGuildMemberRole assigns a role to a guild member. Discord signals
// success with 204 No Content.
func (c *Client) AddGuildMemberRole(ctx context.Context, guildID, userID, roleID, reason string) (bool, error) {
	path := fmt.Sprintf("/guilds/%s/members/%s/roles/%s", guildID, userID, roleID)
	resp, err := c.do(ctx, http.MethodPut, path, nil, reason)
	if err != nil {
		return false, err
	}
	defer resp.Body.Close()

	return resp.StatusCode == http.StatusNoContent, nil
}

// RemoveGuildMemberRole removes a role from a guild member.
func (c *Client) RemoveGuildMemberRole(ctx context.Context, guildID, userID, roleID, reason string) (bool, error) {
	path := fmt.Sprintf("/guilds/%s/members/%s/roles/%s", guildID, userID, roleID)
	resp, err := c.do(ctx, http.MethodDelete, path, nil, reason)
	if err != nil {
		return false, err
	}
	defer resp.Body.Close()

	return resp.StatusCode == http.StatusNoContent, nil
}

// GetGuild fetches a guild. Returns (nil, nil) when Discord does not answer
// with a guild object.
func (c *Client) GetGuild(ctx context.Context, guildID string) (*Guild, error) {
	resp, err := c.do(ctx, http.MethodGet, "/guilds/"+guildID, nil, "")
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, nil
	}

	var guild Guild
	if err := json.NewDecoder(resp.Body).Decode(&guild); err != nil {
		return nil, fmt.Errorf("decoding guild: %w", err)
	}
	return &guild, nil
}

// GetGuildMember fetches a guild member, primarily for their role list.
// Returns (nil, nil) when the member is not in the guild.
func (c *Client) GetGuildMember(ctx context.Context, guildID, userID string) (*Member, error) {
	path := fmt.Sprintf("/guilds/%s/members/%s", guildID, userID)
	resp, err := c.do(ctx, http.MethodGet, path, nil, "")
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, nil
	}

	var member Member
	if err := json.NewDecoder(resp.Body).Decode(&member); err != nil {
		return nil, fmt.Errorf("decoding member: %w", err)
	}
	return &member, nil
}

// CreateChannelMessage posts a message to a channel and returns the new
// message ID, or "" if Discord did not accept it.
func (c *Client) CreateChannelMessage(ctx context.Context, channelID string, message CreateMessage) (string, error) {
	resp, err := c.do(ctx, http.MethodPost, "/channels/"+channelID+"/messages", message, "")
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", nil
	}

	var created struct {
		ID string `json:"id"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&created); err != nil {
		return "", fmt.Errorf("decoding message: %w", err)
	}
	return created.ID, nil
}

// do issues an authorized request with an optional JSON body and audit-log
// reason. A 429 is converted into a RatelimitError.
func (c *Client) do(ctx context.Context, method, path string, body any, reason string) (*http.Response, error) {
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("marshaling request: %w", err)
		}
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	req.Header.Set("Authorization", "Bot "+c.token)
	req.Header.Set("User-Agent", userAgent)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if reason != "" {
		req.Header.Set(auditLogReasonHeader, url.QueryEscape(reason))
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("requesting %s %s: %w", method, path, err)
	}

	if resp.StatusCode == http.StatusTooManyRequests {
		retryAfter, _ := strconv.Atoi(resp.Header.Get("Retry-After"))
		resp.Body.Close()
		return nil, &RatelimitError{RetryAfter: retryAfter}
	}

	return resp, nil
}
