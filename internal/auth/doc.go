// Package auth implements the authentication state machine that takes a
// Discord member from unauthenticated to verified and role-granted.
//
// # Flow
//
// A requester moves through these states:
//
//	Unauthenticated -> PendingChallenge -> Verified
//	                       |        \
//	                    Cancelled   Expired (back to Unauthenticated)
//
// StartAuth validates the claimed forum name, short-circuits users whose
// Discord account is already linked (role check and grant, no challenge),
// and otherwise issues a challenge and records a pending attempt. Verify
// polls the challenge service; once the profile hash is seen, the identity
// is durably linked through the user-record service and the guild role is
// granted. Cancel discards the pending attempt.
//
// # Guarantees
//
// Operations for one requester are serialized by a per-key mutex, so a
// user's own concurrent interactions cannot race the pending store or the
// remote read-then-write sequences. Verification polls are rate limited per
// requester. All remote failures are mapped to a closed error taxonomy at
// this boundary; no transport error escapes to the presentation layer.
//
// The user record is intentionally updated before the role grant and never
// rolled back: the identity link is the durable fact, the role grant is a
// re-triggerable side effect.
package auth
