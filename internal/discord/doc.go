// Package discord contains the REST client for the subset of the Discord
// API the bot uses directly: guild member role changes, guild lookup, and
// channel messages. The interaction webhook transport lives in the
// interactions package; this package is purely outbound.
package discord
