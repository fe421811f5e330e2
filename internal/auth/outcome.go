// ABOUTME: Sealed outcome variants and error taxonomy for the auth flow.
// ABOUTME: The presentation layer pattern-matches on Kind, never on message text.

package auth

// OutcomeKind identifies which variant an Outcome is.
type OutcomeKind int

const (
	// OutcomeChallengeIssued carries a fresh challenge hash for the user to
	// place in their forum profile.
	OutcomeChallengeIssued OutcomeKind = iota

	// OutcomeAlreadyAuthenticated means the user already holds the guild's
	// auth role; nothing was changed.
	OutcomeAlreadyAuthenticated

	// OutcomeWelcomeBack means a known user was granted the role on a new
	// guild without re-verifying.
	OutcomeWelcomeBack

	// OutcomeNotYetValidated means the challenge exists but the hash has
	// not been seen on the profile yet; the pending attempt remains live.
	OutcomeNotYetValidated

	// OutcomeVerified means the full flow completed: identity linked, role
	// granted, pending attempt cleared.
	OutcomeVerified

	// OutcomeCancelled means any pending attempt was discarded.
	OutcomeCancelled

	// OutcomeError carries an ErrorKind describing what went wrong.
	OutcomeError
)

// ErrorKind classifies auth flow failures.
type ErrorKind int

const (
	// KindInvalidIdentity: the supplied forum name fails syntactic policy
	// or was rejected by the challenge service.
	KindInvalidIdentity ErrorKind = iota

	// KindUnknownChallenge: no live challenge matches; restart from /auth.
	KindUnknownChallenge

	// KindIdentityMismatch: the claimed name is not the one already linked
	// to this Discord account.
	KindIdentityMismatch

	// KindServiceInconsistency: a remote service returned a success-shaped
	// empty result; not user-recoverable, escalate to an operator.
	KindServiceInconsistency

	// KindTransientFailure: network, timeout, or rate limit on a remote
	// dependency; safe to retry, pending state is preserved.
	KindTransientFailure

	// KindRoleGrantFailure: the identity link is durable but the role was
	// not confirmed; an admin can re-trigger the grant.
	KindRoleGrantFailure

	// KindBannedIdentity: the forum account is permabanned and may not
	// authenticate.
	KindBannedIdentity
)

// Outcome is the result of one orchestrator operation. Exactly one variant
// applies, identified by Kind; the other fields are populated per variant.
type Outcome struct {
	Kind OutcomeKind

	// Challenge is the hash to place in the forum profile
	// (OutcomeChallengeIssued only).
	Challenge string

	// UserName is the verified forum name (OutcomeWelcomeBack and
	// OutcomeVerified).
	UserName string

	// ErrKind and Message describe the failure (OutcomeError only).
	ErrKind ErrorKind
	Message string
}

// errorOutcome builds an OutcomeError.
func errorOutcome(kind ErrorKind, message string) Outcome {
	return Outcome{Kind: OutcomeError, ErrKind: kind, Message: message}
}
