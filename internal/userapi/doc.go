// Package userapi is the client for the goon-files service, which owns the
// persisted user records linking verified forum identities to platform
// accounts via service links.
package userapi
