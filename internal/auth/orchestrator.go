// ABOUTME: The authentication state machine coordinating challenge issue,
// ABOUTME: verification polling, user-record linkage, and role granting.

package auth

import (
	"context"
	"errors"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/goonauthnetwork/discord-auth/internal/authapi"
	"github.com/goonauthnetwork/discord-auth/internal/pending"
	"github.com/goonauthnetwork/discord-auth/internal/userapi"
)

// nameRe is the single syntactic policy for forum usernames: 3-50 chars of
// alphanumerics, hyphen, underscore, or space.
var nameRe = regexp.MustCompile(`^[a-zA-Z0-9-_ ]{3,50}$`)

// ValidName reports whether a claimed forum username passes syntactic policy.
func ValidName(name string) bool {
	return nameRe.MatchString(name)
}

// ChallengeAPI is the contract the orchestrator needs from the challenge
// service client.
type ChallengeAPI interface {
	IssueChallenge(ctx context.Context, userName string) (*authapi.Challenge, error)
	PollVerification(ctx context.Context, userName string) (*authapi.VerificationStatus, error)
}

// UserAPI is the contract the orchestrator needs from the user-record
// service client.
type UserAPI interface {
	FindByService(ctx context.Context, service userapi.Service, token string) (*userapi.User, error)
	CreateOrUpdate(ctx context.Context, userID int64, userName string, regDate time.Time, link userapi.ServiceLink) (*userapi.User, error)
}

// RoleGrantAdapter checks and grants the guild's authenticated-user role.
// Both methods report false for anything that prevents confirming the
// operation; the orchestrator does not distinguish permission problems from
// transient failures here.
type RoleGrantAdapter interface {
	HasRole(ctx context.Context, userID, guildID string) bool
	GrantRole(ctx context.Context, userID, guildID string) bool
}

// StartAuthRequest carries the inputs of a /auth command.
type StartAuthRequest struct {
	RequesterID string
	GuildID     string
	ClaimedName string
}

// VerifyRequest carries the inputs of an auth.verify interaction.
type VerifyRequest struct {
	RequesterID string
	GuildID     string
}

// Orchestrator drives a requester from unauthenticated to role-granted:
// Unauthenticated -> PendingChallenge -> Verified, with cancel and expiry
// falling back to Unauthenticated. Operations for the same requester are
// serialized so concurrent interactions cannot race the pending store or
// the remote read-then-write sequences.
type Orchestrator struct {
	challenges ChallengeAPI
	users      UserAPI
	roles      RoleGrantAdapter
	attempts   *pending.Store

	perUser  *keyedMutex
	pollRate *pollLimiter
	logger   *slog.Logger
}

// New creates an orchestrator over the given collaborators. The pending
// store is owned by the caller and must outlive the orchestrator.
func New(challenges ChallengeAPI, users UserAPI, roles RoleGrantAdapter, attempts *pending.Store) *Orchestrator {
	return &Orchestrator{
		challenges: challenges,
		users:      users,
		roles:      roles,
		attempts:   attempts,
		perUser:    newKeyedMutex(),
		pollRate:   newPollLimiter(rate.Every(2*time.Second), 3),
		logger:     slog.Default().With("component", "auth"),
	}
}

// StartAuth handles the /auth command. Known users are routed straight to a
// role check; unknown users get a fresh challenge and a pending attempt.
func (o *Orchestrator) StartAuth(ctx context.Context, req StartAuthRequest) Outcome {
	o.perUser.Lock(req.RequesterID)
	defer o.perUser.Unlock(req.RequesterID)

	if !ValidName(req.ClaimedName) {
		return errorOutcome(KindInvalidIdentity, "Invalid username, please try again.")
	}

	user, err := o.users.FindByService(ctx, userapi.ServiceDiscord, req.RequesterID)
	if err != nil {
		if errors.Is(err, userapi.ErrInvalidQuery) {
			o.logger.Error("user lookup rejected",
				"requester_id", req.RequesterID, "guild_id", req.GuildID, "error", err)
			return errorOutcome(KindServiceInconsistency,
				"Something went wrong, please contact a GAN admin.")
		}
		o.logger.Warn("user lookup failed",
			"requester_id", req.RequesterID, "guild_id", req.GuildID, "error", err)
		return errorOutcome(KindTransientFailure,
			"The user service is unreachable, please try again in a moment.")
	}

	if user == nil {
		return o.startNew(ctx, req)
	}
	return o.startExisting(ctx, req, user)
}

// startExisting handles a requester whose Discord account is already linked
// to a forum identity. No pending attempt is involved.
func (o *Orchestrator) startExisting(ctx context.Context, req StartAuthRequest, user *userapi.User) Outcome {
	o.logger.Debug("existing auth request",
		"guild_id", req.GuildID, "requester_id", req.RequesterID, "user_name", user.UserName)

	if !strings.EqualFold(user.UserName, req.ClaimedName) {
		return errorOutcome(KindIdentityMismatch, "That's not your SA name!")
	}

	if user.PermaBanned != nil {
		o.logger.Warn("banned user attempted auth",
			"requester_id", req.RequesterID, "guild_id", req.GuildID,
			"user_name", user.UserName, "user_id", user.UserID)
		return errorOutcome(KindBannedIdentity,
			"That account is permabanned and cannot authenticate.")
	}

	if o.roles.HasRole(ctx, req.RequesterID, req.GuildID) {
		return Outcome{Kind: OutcomeAlreadyAuthenticated}
	}

	if o.roles.GrantRole(ctx, req.RequesterID, req.GuildID) {
		return Outcome{Kind: OutcomeWelcomeBack, UserName: user.UserName}
	}

	o.logger.Error("existing user failed to get role",
		"guild_id", req.GuildID, "requester_id", req.RequesterID, "user_name", user.UserName)
	return errorOutcome(KindRoleGrantFailure,
		"Something went wrong granting your role, please contact a GAN admin.")
}

// startNew issues a challenge for a requester with no linked record and
// stores the pending attempt, superseding any earlier one.
func (o *Orchestrator) startNew(ctx context.Context, req StartAuthRequest) Outcome {
	o.logger.Debug("new auth request",
		"guild_id", req.GuildID, "requester_id", req.RequesterID, "user_name", req.ClaimedName)

	challenge, err := o.challenges.IssueChallenge(ctx, req.ClaimedName)
	if err != nil {
		if errors.Is(err, authapi.ErrInvalidName) {
			return errorOutcome(KindInvalidIdentity, "Invalid username, please try again.")
		}
		o.logger.Warn("challenge issue failed",
			"requester_id", req.RequesterID, "guild_id", req.GuildID,
			"user_name", req.ClaimedName, "error", err)
		return errorOutcome(KindTransientFailure,
			"The auth service is unreachable, please try again in a moment.")
	}
	if challenge == nil {
		o.logger.Error("challenge issue returned empty result",
			"requester_id", req.RequesterID, "guild_id", req.GuildID, "user_name", req.ClaimedName)
		return errorOutcome(KindServiceInconsistency,
			"Failed to get a challenge hash, please contact a GAN admin.")
	}

	now := time.Now().UTC()
	o.attempts.Put(req.RequesterID, &pending.Attempt{
		RequesterID:    req.RequesterID,
		ExternalName:   req.ClaimedName,
		ChallengeToken: challenge.Hash,
		CreatedAt:      now,
		LastUpdated:    now,
	})

	o.logger.Debug("challenge issued",
		"requester_id", req.RequesterID, "guild_id", req.GuildID, "user_name", req.ClaimedName)
	return Outcome{Kind: OutcomeChallengeIssued, Challenge: challenge.Hash}
}

// Verify handles the auth.verify interaction: polls the challenge service
// and, once validated, links the identity and grants the role. The user
// record is updated before the role grant and is not rolled back on grant
// failure; the durable fact is the identity link, the role is re-triggerable.
func (o *Orchestrator) Verify(ctx context.Context, req VerifyRequest) Outcome {
	o.perUser.Lock(req.RequesterID)
	defer o.perUser.Unlock(req.RequesterID)

	if !o.pollRate.Allow(req.RequesterID) {
		return errorOutcome(KindTransientFailure,
			"You're checking too quickly, give the forum a moment and try again.")
	}

	attempt := o.attempts.Get(req.RequesterID)
	if attempt == nil {
		return errorOutcome(KindUnknownChallenge,
			"There's no auth attempt for you. Did you wait too long? Please restart from /auth.")
	}

	status, err := o.challenges.PollVerification(ctx, attempt.ExternalName)
	if err != nil {
		switch {
		case errors.Is(err, authapi.ErrUnknownChallenge):
			// The upstream challenge expired; clear our side so the user
			// restarts cleanly.
			o.attempts.Remove(req.RequesterID)
			return errorOutcome(KindUnknownChallenge,
				"Your challenge expired. Please restart from /auth.")
		case errors.Is(err, authapi.ErrInvalidName):
			return errorOutcome(KindInvalidIdentity, "Invalid username, please try again.")
		default:
			o.logger.Warn("verification poll failed",
				"requester_id", req.RequesterID, "guild_id", req.GuildID,
				"user_name", attempt.ExternalName, "error", err)
			return errorOutcome(KindTransientFailure,
				"The auth service is unreachable, please try again in a moment.")
		}
	}
	if status == nil {
		o.logger.Error("verification poll returned empty result",
			"requester_id", req.RequesterID, "guild_id", req.GuildID,
			"user_name", attempt.ExternalName)
		return errorOutcome(KindServiceInconsistency,
			"This error should not exist, please tell your nearest GAN developer.")
	}

	if !status.Validated {
		return Outcome{Kind: OutcomeNotYetValidated}
	}

	if status.Permabanned != nil {
		o.logger.Warn("banned forum account verified a challenge",
			"requester_id", req.RequesterID, "guild_id", req.GuildID,
			"user_name", status.UserName, "user_id", status.UserID)
		o.attempts.Remove(req.RequesterID)
		return errorOutcome(KindBannedIdentity,
			"That account is permabanned and cannot authenticate.")
	}

	var regDate time.Time
	if status.RegisterDate != nil {
		regDate = *status.RegisterDate
	}

	link := userapi.ServiceLink{Service: userapi.ServiceDiscord, Token: req.RequesterID}
	user, err := o.users.CreateOrUpdate(ctx, status.UserID, status.UserName, regDate, link)
	if err != nil {
		o.logger.Warn("user record update failed",
			"requester_id", req.RequesterID, "guild_id", req.GuildID,
			"user_name", status.UserName, "error", err)
		return errorOutcome(KindTransientFailure,
			"The user service is unreachable, please try again in a moment.")
	}
	if user == nil {
		o.logger.Error("user record update returned empty result",
			"requester_id", req.RequesterID, "guild_id", req.GuildID,
			"user_name", status.UserName, "user_id", status.UserID)
		return errorOutcome(KindServiceInconsistency,
			"Failed to save your auth, please see a GAN admin.")
	}

	o.attempts.Remove(req.RequesterID)

	if !o.roles.GrantRole(ctx, req.RequesterID, req.GuildID) {
		o.logger.Error("role grant failed after identity link",
			"requester_id", req.RequesterID, "guild_id", req.GuildID, "user_name", status.UserName)
		return errorOutcome(KindRoleGrantFailure,
			"Your auth saved but granting the role failed, please see a server admin.")
	}

	o.logger.Info("user authenticated",
		"requester_id", req.RequesterID, "guild_id", req.GuildID,
		"user_name", status.UserName, "user_id", status.UserID)
	return Outcome{Kind: OutcomeVerified, UserName: status.UserName}
}

// Cancel discards any pending attempt for the requester. Cancelling with no
// attempt outstanding yields the same outcome. The upstream challenge is
// not invalidated; it expires on its own after about five minutes.
func (o *Orchestrator) Cancel(ctx context.Context, requesterID string) Outcome {
	o.perUser.Lock(requesterID)
	defer o.perUser.Unlock(requesterID)

	o.attempts.Remove(requesterID)
	return Outcome{Kind: OutcomeCancelled}
}
