// Package config handles configuration loading for discord-auth.
//
// # Overview
//
// Configuration is loaded from YAML files with environment variable
// expansion. The package provides validation and sensible defaults. When
// DEVELOPMENT=true, a .env file in the working directory is loaded before
// expansion, mirroring local development workflows; production deployments
// provide real environment variables instead.
//
// # Environment Variable Expansion
//
// Configuration values can reference environment variables:
//
//	discord:
//	  bot_token: "${DISCORD_BOT_TOKEN}"
//
// # Configuration Sections
//
// Interaction endpoint:
//
//	server:
//	  http_addr: "0.0.0.0:8080"
//
// Discord application credentials:
//
//	discord:
//	  application_id: "123456789"
//	  public_key: "${DISCORD_PUBLIC_KEY}"
//	  bot_token: "${DISCORD_BOT_TOKEN}"
//	  guild_ids: ["111", "222"]   # empty for global command registration
//
// Upstream services:
//
//	services:
//	  awful_auth_addr: "http://127.0.0.1:8001"
//	  goon_files_addr: "http://127.0.0.1:8002"
//	  request_timeout: "10s"
//
// Pending-attempt cache:
//
//	pending:
//	  capacity: 4096
//	  ttl: "5m"
//
// Database:
//
//	database:
//	  path: "/var/lib/discord-auth/bot.db"
//
// Logging:
//
//	logging:
//	  level: "info"   # debug, info, warn, error
//	  format: "text"  # text, json
package config
