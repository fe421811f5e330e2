// ABOUTME: Tests for configuration loading and parsing
// ABOUTME: Covers YAML loading, env var expansion, defaults, and validation

package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

// writeConfig writes content to a temp config file and returns its path.
func writeConfig(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("writing config: %v", err)
	}
	return path
}

const validConfig = `
server:
  http_addr: "0.0.0.0:9000"

discord:
  application_id: "app-123"
  public_key: "aabbcc"
  bot_token: "bot-token"
  guild_ids:
    - "g1"
    - "g2"

services:
  awful_auth_addr: "http://127.0.0.1:8001"
  goon_files_addr: "http://127.0.0.1:8002"
  request_timeout: "15s"

pending:
  capacity: 2048
  ttl: "3m"

database:
  path: "./bot.db"

logging:
  level: "debug"
  format: "json"
`

func TestLoad_ValidConfig(t *testing.T) {
	path := writeConfig(t, validConfig)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Server.HTTPAddr != "0.0.0.0:9000" {
		t.Errorf("unexpected http_addr: %s", cfg.Server.HTTPAddr)
	}
	if cfg.Discord.ApplicationID != "app-123" {
		t.Errorf("unexpected application_id: %s", cfg.Discord.ApplicationID)
	}
	if len(cfg.Discord.GuildIDs) != 2 {
		t.Errorf("expected 2 guild ids, got %d", len(cfg.Discord.GuildIDs))
	}
	if cfg.Services.RequestTimeout != 15*time.Second {
		t.Errorf("unexpected request_timeout: %v", cfg.Services.RequestTimeout)
	}
	if cfg.Pending.Capacity != 2048 {
		t.Errorf("unexpected capacity: %d", cfg.Pending.Capacity)
	}
	if cfg.Pending.TTL != 3*time.Minute {
		t.Errorf("unexpected ttl: %v", cfg.Pending.TTL)
	}
	if cfg.Logging.Format != "json" {
		t.Errorf("unexpected logging format: %s", cfg.Logging.Format)
	}
}

func TestLoad_EnvVarExpansion(t *testing.T) {
	t.Setenv("TEST_BOT_TOKEN", "secret-from-env")

	content := strings.Replace(validConfig, `bot_token: "bot-token"`,
		`bot_token: "${TEST_BOT_TOKEN}"`, 1)
	path := writeConfig(t, content)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Discord.BotToken != "secret-from-env" {
		t.Errorf("env var not expanded, got: %s", cfg.Discord.BotToken)
	}
}

func TestLoad_Defaults(t *testing.T) {
	path := writeConfig(t, `
discord:
  application_id: "app-123"
  public_key: "aabbcc"
  bot_token: "bot-token"

services:
  awful_auth_addr: "http://127.0.0.1:8001"
  goon_files_addr: "http://127.0.0.1:8002"

database:
  path: "./bot.db"
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Server.HTTPAddr != "0.0.0.0:8080" {
		t.Errorf("default http_addr missing, got: %s", cfg.Server.HTTPAddr)
	}
	if cfg.Services.RequestTimeout != 10*time.Second {
		t.Errorf("default request_timeout missing, got: %v", cfg.Services.RequestTimeout)
	}
	if cfg.Pending.Capacity != 4096 {
		t.Errorf("default capacity missing, got: %d", cfg.Pending.Capacity)
	}
	if cfg.Pending.TTL != 5*time.Minute {
		t.Errorf("default ttl missing, got: %v", cfg.Pending.TTL)
	}
	if cfg.Logging.Level != "info" {
		t.Errorf("default log level missing, got: %s", cfg.Logging.Level)
	}
}

func TestLoad_MissingRequiredFields(t *testing.T) {
	cases := []struct {
		name   string
		remove string
	}{
		{"missing application_id", `application_id: "app-123"`},
		{"missing public_key", `public_key: "aabbcc"`},
		{"missing bot_token", `bot_token: "bot-token"`},
		{"missing awful_auth_addr", `awful_auth_addr: "http://127.0.0.1:8001"`},
		{"missing goon_files_addr", `goon_files_addr: "http://127.0.0.1:8002"`},
		{"missing database path", `path: "./bot.db"`},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			content := strings.Replace(validConfig, tc.remove, "", 1)
			path := writeConfig(t, content)

			if _, err := Load(path); err == nil {
				t.Error("expected validation error, got nil")
			}
		})
	}
}

func TestLoad_BadDuration(t *testing.T) {
	content := strings.Replace(validConfig, `request_timeout: "15s"`,
		`request_timeout: "soon"`, 1)
	path := writeConfig(t, content)

	if _, err := Load(path); err == nil {
		t.Error("expected duration parse error, got nil")
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := Load("/nonexistent/config.yaml"); err == nil {
		t.Error("expected error for missing file, got nil")
	}
}
