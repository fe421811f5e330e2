// Package interactions terminates Discord's interaction webhook transport:
// Ed25519 request-signature verification, PING handling, and routing of the
// /auth, /about, /help, and /setup commands plus the auth.verify and
// auth.cancel buttons to the auth flow. It also owns the cosmetic mapping
// from flow outcomes to Discord embed/button payloads.
package interactions
