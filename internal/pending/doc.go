// Package pending tracks in-flight authentication attempts between the
// moment a challenge hash is issued and the moment the user verifies,
// cancels, or walks away. The store is in-memory only and non-authoritative:
// an evicted or lost entry simply forces the user to restart from /auth.
package pending
