// ABOUTME: HTTP server receiving Discord interaction webhooks.
// ABOUTME: Verifies signatures and routes commands and components to the auth flow.

package interactions

import (
	"context"
	"crypto/ed25519"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/goonauthnetwork/discord-auth/internal/auth"
	"github.com/goonauthnetwork/discord-auth/internal/discord"
	"github.com/goonauthnetwork/discord-auth/internal/store"
	"github.com/goonauthnetwork/discord-auth/internal/userapi"
)

// Flow is the orchestrator surface the server drives.
type Flow interface {
	StartAuth(ctx context.Context, req auth.StartAuthRequest) auth.Outcome
	Verify(ctx context.Context, req auth.VerifyRequest) auth.Outcome
	Cancel(ctx context.Context, requesterID string) auth.Outcome
}

// UserFinder looks up linked users for /about.
type UserFinder interface {
	FindByService(ctx context.Context, service userapi.Service, token string) (*userapi.User, error)
}

// GuildAPI is the slice of the Discord client the server needs directly.
type GuildAPI interface {
	GetGuild(ctx context.Context, guildID string) (*discord.Guild, error)
	CreateChannelMessage(ctx context.Context, channelID string, message discord.CreateMessage) (string, error)
}

// Server terminates Discord's interaction webhook transport and hands the
// decoded interactions to the auth flow and guild setup logic.
type Server struct {
	flow    Flow
	users   UserFinder
	guilds  store.GuildStore
	discord GuildAPI
	pubKey  ed25519.PublicKey
	logger  *slog.Logger
}

// New creates an interaction server. The public key is Discord's
// hex-encoded Ed25519 application key.
func New(hexPubKey string, flow Flow, users UserFinder, guilds store.GuildStore, discordAPI GuildAPI) (*Server, error) {
	pubKey, err := parsePublicKey(hexPubKey)
	if err != nil {
		return nil, fmt.Errorf("parsing discord public key: %w", err)
	}

	return &Server{
		flow:    flow,
		users:   users,
		guilds:  guilds,
		discord: discordAPI,
		pubKey:  pubKey,
		logger:  slog.Default().With("component", "interactions"),
	}, nil
}

// Handler returns the HTTP handler for the webhook endpoint and healthz.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /interactions", verifySignature(s.pubKey, s.handleInteraction))
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	return mux
}

// handleInteraction decodes and dispatches one interaction.
func (s *Server) handleInteraction(w http.ResponseWriter, r *http.Request) {
	var interaction Interaction
	if err := json.NewDecoder(r.Body).Decode(&interaction); err != nil {
		http.Error(w, "malformed interaction", http.StatusBadRequest)
		return
	}

	// Correlates every log line produced while handling this interaction
	correlationID := uuid.NewString()
	logger := s.logger.With("correlation_id", correlationID, "interaction_id", interaction.ID)

	switch interaction.Type {
	case interactionPing:
		writeJSON(w, &Response{Type: responsePong})

	case interactionApplicationCommand:
		s.handleCommand(r.Context(), w, &interaction, logger)

	case interactionMessageComponent:
		s.handleComponent(r.Context(), w, &interaction, logger)

	default:
		logger.Warn("unhandled interaction type", "type", interaction.Type)
		http.Error(w, "unhandled interaction type", http.StatusBadRequest)
	}
}

// handleCommand dispatches slash commands.
func (s *Server) handleCommand(ctx context.Context, w http.ResponseWriter, interaction *Interaction, logger *slog.Logger) {
	if interaction.Data == nil || interaction.Member == nil {
		http.Error(w, "malformed command", http.StatusBadRequest)
		return
	}

	requesterID := interaction.Member.User.ID
	logger = logger.With("command", interaction.Data.Name,
		"requester_id", requesterID, "guild_id", interaction.GuildID)

	switch interaction.Data.Name {
	case "auth":
		req := auth.StartAuthRequest{
			RequesterID: requesterID,
			GuildID:     interaction.GuildID,
			ClaimedName: interaction.Data.StringOption("username"),
		}
		out := s.flow.StartAuth(ctx, req)
		s.reportIfBanned(ctx, interaction, out, logger)
		writeJSON(w, renderOutcome(out))

	case "about":
		writeJSON(w, s.aboutResponse(ctx, requesterID, logger))

	case "help":
		writeJSON(w, helpResponse())

	case "setup":
		writeJSON(w, s.handleSetup(ctx, interaction, logger))

	default:
		logger.Warn("unknown command")
		http.Error(w, "unknown command", http.StatusBadRequest)
	}
}

// handleComponent dispatches button clicks scoped to the pending attempt.
func (s *Server) handleComponent(ctx context.Context, w http.ResponseWriter, interaction *Interaction, logger *slog.Logger) {
	if interaction.Data == nil || interaction.Member == nil {
		http.Error(w, "malformed component", http.StatusBadRequest)
		return
	}

	requesterID := interaction.Member.User.ID
	logger = logger.With("component_id", interaction.Data.CustomID,
		"requester_id", requesterID, "guild_id", interaction.GuildID)

	switch interaction.Data.CustomID {
	case "auth.verify":
		out := s.flow.Verify(ctx, auth.VerifyRequest{
			RequesterID: requesterID,
			GuildID:     interaction.GuildID,
		})
		s.reportIfBanned(ctx, interaction, out, logger)
		writeJSON(w, renderOutcome(out))

	case "auth.cancel":
		writeJSON(w, renderOutcome(s.flow.Cancel(ctx, requesterID)))

	default:
		logger.Warn("unknown component")
		http.Error(w, "unknown component", http.StatusBadRequest)
	}
}

// aboutResponse reports the requester's link status.
func (s *Server) aboutResponse(ctx context.Context, requesterID string, logger *slog.Logger) *Response {
	user, err := s.users.FindByService(ctx, userapi.ServiceDiscord, requesterID)
	if err != nil {
		logger.Warn("about lookup failed", "error", err)
		return ephemeralEmbed("The user service is unreachable, please try again in a moment.", colorRed, nil)
	}

	if user == nil {
		return ephemeralEmbed(
			"You're not authenticated yet. Use **/auth** with your Something "+
				"Awful username to get started.", colorGray, nil)
	}

	linked := "unknown"
	if user.CreatedAt != nil {
		linked = user.CreatedAt.Format(time.DateOnly)
	}
	message := fmt.Sprintf("You're authenticated as **%s** (SA id %d), linked since %s.",
		user.UserName, user.UserID, linked)
	return ephemeralEmbed(message, colorTeal, nil)
}

// handleSetup stores guild settings; only the server owner may run it and
// only once per guild.
func (s *Server) handleSetup(ctx context.Context, interaction *Interaction, logger *slog.Logger) *Response {
	guild, err := s.discord.GetGuild(ctx, interaction.GuildID)
	if err != nil || guild == nil {
		logger.Error("guild lookup failed during setup", "error", err)
		return ephemeralEmbed("Couldn't look up this server, please try again.", colorRed, nil)
	}

	if guild.OwnerID != interaction.Member.User.ID {
		return ephemeralEmbed("Only the server owner can run /setup.", colorRed, nil)
	}

	if _, err := s.guilds.GetGuild(ctx, interaction.GuildID); err == nil {
		return ephemeralEmbed("This server is already set up.", colorGray, nil)
	} else if !errors.Is(err, store.ErrNotFound) {
		logger.Error("guild settings lookup failed", "error", err)
		return ephemeralEmbed("Something went wrong, please try again.", colorRed, nil)
	}

	roleID := interaction.Data.StringOption("authenticated-role")
	adminChannel := interaction.Data.StringOption("admin-notice-channel")
	authChannel := interaction.Data.StringOption("auth-notice-channel")
	if authChannel == "" {
		authChannel = adminChannel
	}

	if roleID == "" || adminChannel == "" {
		return ephemeralEmbed("Both a role and an admin notice channel are required.", colorRed, nil)
	}

	settings := &store.GuildSettings{
		GuildID:        interaction.GuildID,
		AuthRoleID:     roleID,
		AdminChannelID: adminChannel,
		AuthChannelID:  authChannel,
	}
	if err := s.guilds.SaveGuild(ctx, settings); err != nil {
		logger.Error("saving guild settings failed", "error", err)
		return ephemeralEmbed("Failed to save settings, please try again.", colorRed, nil)
	}

	logger.Info("guild set up", "auth_role_id", roleID)
	return ephemeralEmbed(fmt.Sprintf(
		"Setup complete. Authenticated users receive <@&%s>; admin notices "+
			"go to <#%s>.", roleID, adminChannel), colorTeal, nil)
}

// reportIfBanned posts an admin notice when a permabanned account attempts
// to authenticate. Failures are logged and otherwise ignored; the notice is
// best effort.
func (s *Server) reportIfBanned(ctx context.Context, interaction *Interaction, out auth.Outcome, logger *slog.Logger) {
	if out.Kind != auth.OutcomeError || out.ErrKind != auth.KindBannedIdentity {
		return
	}

	settings, err := s.guilds.GetGuild(ctx, interaction.GuildID)
	if err != nil {
		return
	}

	content := fmt.Sprintf("Permabanned SA account attempted auth (discord user <@%s>).",
		interaction.Member.User.ID)
	if _, err := s.discord.CreateChannelMessage(ctx, settings.AdminChannelID,
		discord.CreateMessage{Content: content}); err != nil {
		logger.Warn("admin ban notice failed", "error", err)
	}
}

// writeJSON serializes a response payload.
func writeJSON(w http.ResponseWriter, resp *Response) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		slog.Default().Error("encoding interaction response", "error", err)
	}
}
