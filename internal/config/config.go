// ABOUTME: Configuration loading and parsing for discord-auth
// ABOUTME: Supports YAML files with environment variable expansion and duration parsing

package config

import (
	"fmt"
	"os"
	"regexp"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config represents the complete discord-auth configuration
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Discord  DiscordConfig  `yaml:"discord"`
	Services ServicesConfig `yaml:"services"`
	Pending  PendingConfig  `yaml:"pending"`
	Database DatabaseConfig `yaml:"database"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// ServerConfig holds the interaction endpoint address
type ServerConfig struct {
	HTTPAddr string `yaml:"http_addr"`
}

// DiscordConfig holds Discord application credentials
type DiscordConfig struct {
	ApplicationID string   `yaml:"application_id"`
	PublicKey     string   `yaml:"public_key"` // hex-encoded Ed25519 key for webhook signatures
	BotToken      string   `yaml:"bot_token"`
	GuildIDs      []string `yaml:"guild_ids"` // guilds to register commands in; empty = global
}

// ServicesConfig holds the upstream service addresses and timeouts
type ServicesConfig struct {
	AwfulAuthAddr string `yaml:"awful_auth_addr"`
	GoonFilesAddr string `yaml:"goon_files_addr"`

	RequestTimeout    time.Duration `yaml:"-"`
	RequestTimeoutRaw string        `yaml:"request_timeout"`
}

// PendingConfig bounds the in-memory pending-attempt store
type PendingConfig struct {
	Capacity int `yaml:"capacity"`

	TTL    time.Duration `yaml:"-"`
	TTLRaw string        `yaml:"ttl"`
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Path string `yaml:"path"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Load reads a configuration file from the given path and returns a parsed Config.
// Environment variables in the format ${VAR_NAME} are expanded. In development
// (DEVELOPMENT=true) a .env file is loaded first; production is expected to
// provide real environment variables.
func Load(path string) (*Config, error) {
	if os.Getenv("DEVELOPMENT") == "true" {
		// Missing .env is fine; expansion just sees empty values
		_ = godotenv.Load()
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	expandedData := expandEnvVars(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expandedData), &cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	if err := parseDurations(&cfg); err != nil {
		return nil, fmt.Errorf("parsing durations: %w", err)
	}

	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return &cfg, nil
}

// expandEnvVars replaces ${VAR_NAME} patterns with the corresponding environment variable values.
// If the environment variable is not set, it is replaced with an empty string.
func expandEnvVars(s string) string {
	re := regexp.MustCompile(`\$\{([^}]+)\}`)

	return re.ReplaceAllStringFunc(s, func(match string) string {
		varName := re.FindStringSubmatch(match)[1]
		return os.Getenv(varName)
	})
}

// applyDefaults fills in values that may be omitted from the file
func (c *Config) applyDefaults() {
	if c.Server.HTTPAddr == "" {
		c.Server.HTTPAddr = "0.0.0.0:8080"
	}
	if c.Services.RequestTimeout == 0 {
		c.Services.RequestTimeout = 10 * time.Second
	}
	if c.Pending.Capacity == 0 {
		c.Pending.Capacity = 4096
	}
	if c.Pending.TTL == 0 {
		c.Pending.TTL = 5 * time.Minute
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
}

// Validate checks that all required configuration fields are present and valid.
// Returns an error describing the first validation failure encountered.
func (c *Config) Validate() error {
	if c.Discord.ApplicationID == "" {
		return fmt.Errorf("discord.application_id is required")
	}
	if c.Discord.PublicKey == "" {
		return fmt.Errorf("discord.public_key is required")
	}
	if c.Discord.BotToken == "" {
		return fmt.Errorf("discord.bot_token is required")
	}
	if c.Services.AwfulAuthAddr == "" {
		return fmt.Errorf("services.awful_auth_addr is required")
	}
	if c.Services.GoonFilesAddr == "" {
		return fmt.Errorf("services.goon_files_addr is required")
	}
	if c.Database.Path == "" {
		return fmt.Errorf("database.path is required")
	}
	return nil
}

// parseDurations converts the raw duration strings into time.Duration values
func parseDurations(cfg *Config) error {
	var err error

	if cfg.Services.RequestTimeoutRaw != "" {
		cfg.Services.RequestTimeout, err = time.ParseDuration(cfg.Services.RequestTimeoutRaw)
		if err != nil {
			return fmt.Errorf("parsing request_timeout %q: %w", cfg.Services.RequestTimeoutRaw, err)
		}
	}

	if cfg.Pending.TTLRaw != "" {
		cfg.Pending.TTL, err = time.ParseDuration(cfg.Pending.TTLRaw)
		if err != nil {
			return fmt.Errorf("parsing ttl %q: %w", cfg.Pending.TTLRaw, err)
		}
	}

	return nil
}
