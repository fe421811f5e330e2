// Package store persists per-guild bot configuration: the role granted to
// authenticated users and the channels used for admin and auth notices.
// The backing database is SQLite; a mock implementation is provided for
// tests.
package store
