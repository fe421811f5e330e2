// ABOUTME: Entry point for the discord-auth bot server
// ABOUTME: Bridges Discord interactions to the goon auth network services

package main

import (
	"bufio"
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/fatih/color"

	"github.com/goonauthnetwork/discord-auth/internal/auth"
	"github.com/goonauthnetwork/discord-auth/internal/authapi"
	"github.com/goonauthnetwork/discord-auth/internal/config"
	"github.com/goonauthnetwork/discord-auth/internal/discord"
	"github.com/goonauthnetwork/discord-auth/internal/interactions"
	"github.com/goonauthnetwork/discord-auth/internal/pending"
	"github.com/goonauthnetwork/discord-auth/internal/store"
	"github.com/goonauthnetwork/discord-auth/internal/userapi"
)

// Version is set by goreleaser at build time.
var version = "dev"

const banner = `
     _ _                       _                    _   _
  __| (_)___  ___ ___  _ __ __| |       __ _ _   _| |_| |__
 / _' | / __|/ __/ _ \| '__/ _' |_____ / _' | | | | __| '_ \
| (_| | \__ \ (_| (_) | | | (_| |_____| (_| | |_| | |_| | | |
 \__,_|_|___/\___\___/|_|  \__,_|      \__,_|\__,_|\__|_| |_|
`

// getConfigPath returns the path to the bot config file.
// Priority: DISCORD_AUTH_CONFIG env var > XDG_CONFIG_HOME/discord-auth/bot.yaml > ~/.config/discord-auth/bot.yaml
func getConfigPath() string {
	if envPath := os.Getenv("DISCORD_AUTH_CONFIG"); envPath != "" {
		return envPath
	}

	configDir := os.Getenv("XDG_CONFIG_HOME")
	if configDir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "bot.yaml" // fallback
		}
		configDir = filepath.Join(homeDir, ".config")
	}

	return filepath.Join(configDir, "discord-auth", "bot.yaml")
}

// getDataPath returns the path to the data directory.
// Priority: XDG_DATA_HOME/discord-auth > ~/.local/share/discord-auth
func getDataPath() string {
	dataDir := os.Getenv("XDG_DATA_HOME")
	if dataDir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "data" // fallback
		}
		dataDir = filepath.Join(homeDir, ".local", "share")
	}

	return filepath.Join(dataDir, "discord-auth")
}

func main() {
	if len(os.Args) < 2 {
		fmt.Println("Usage: discord-auth <command>")
		fmt.Println()
		fmt.Println("Commands:")
		fmt.Println("  serve      Start the interaction webhook server")
		fmt.Println("  register   Register slash commands with Discord")
		fmt.Println("  init       Create a new config file interactively")
		fmt.Println("  health     Check server health")
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	var err error
	switch os.Args[1] {
	case "serve":
		err = runServe(ctx)
	case "register":
		err = runRegister(ctx)
	case "init":
		err = runInit()
	case "health":
		err = runHealth(ctx)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", os.Args[1])
		os.Exit(1)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func runServe(ctx context.Context) error {
	configPath := getConfigPath()

	// Print banner
	cyan := color.New(color.FgCyan)
	cyan.Print(banner)

	// Version info
	gray := color.New(color.FgHiBlack)
	gray.Printf("    version: %s\n\n", version)

	// Load configuration
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	// Setup logger
	logger := setupLogger(cfg.Logging)
	slog.SetDefault(logger)

	// Startup info
	green := color.New(color.FgGreen)

	green.Print("    ▶ ")
	fmt.Printf("Config:     %s\n", configPath)
	green.Print("    ▶ ")
	fmt.Printf("HTTP:       %s\n", cfg.Server.HTTPAddr)
	green.Print("    ▶ ")
	fmt.Printf("awful-auth: %s\n", cfg.Services.AwfulAuthAddr)
	green.Print("    ▶ ")
	fmt.Printf("goon-files: %s\n", cfg.Services.GoonFilesAddr)
	fmt.Println()

	logger.Info("starting discord-auth",
		"config", configPath,
		"http_addr", cfg.Server.HTTPAddr,
	)

	// Guild settings database
	guilds, err := store.NewSQLiteStore(cfg.Database.Path)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer guilds.Close()

	// Upstream service clients
	challenges := authapi.New(cfg.Services.AwfulAuthAddr, cfg.Services.RequestTimeout)
	users := userapi.New(cfg.Services.GoonFilesAddr, cfg.Services.RequestTimeout)
	discordClient := discord.New(cfg.Discord.BotToken, cfg.Services.RequestTimeout)

	// Pending attempts and the auth flow
	attempts := pending.New(cfg.Pending.TTL, cfg.Pending.Capacity)
	defer attempts.Close()

	roles := discord.NewRoleGranter(discordClient, guilds)
	flow := auth.New(challenges, users, roles, attempts)

	// Register slash commands before accepting traffic
	if err := interactions.RegisterCommands(ctx, discordClient,
		cfg.Discord.ApplicationID, cfg.Discord.GuildIDs); err != nil {
		return fmt.Errorf("registering commands: %w", err)
	}

	webhook, err := interactions.New(cfg.Discord.PublicKey, flow, users, guilds, discordClient)
	if err != nil {
		return fmt.Errorf("creating webhook server: %w", err)
	}

	srv := &http.Server{
		Addr:              cfg.Server.HTTPAddr,
		Handler:           webhook.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("webhook server listening", "addr", cfg.Server.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// runRegister pushes the slash command definitions to Discord without
// starting the server. Useful after changing command wording.
func runRegister(ctx context.Context) error {
	cfg, err := config.Load(getConfigPath())
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	client := discord.New(cfg.Discord.BotToken, cfg.Services.RequestTimeout)
	if err := interactions.RegisterCommands(ctx, client,
		cfg.Discord.ApplicationID, cfg.Discord.GuildIDs); err != nil {
		return fmt.Errorf("registering commands: %w", err)
	}

	scope := "globally"
	if len(cfg.Discord.GuildIDs) > 0 {
		scope = fmt.Sprintf("in %d guild(s)", len(cfg.Discord.GuildIDs))
	}
	fmt.Printf("Commands registered %s\n", scope)
	return nil
}

func setupLogger(cfg config.LoggingConfig) *slog.Logger {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{
		Level: level,
	}

	var handler slog.Handler
	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = &colorHandler{
			level: level,
		}
	}

	return slog.New(handler)
}

// colorHandler provides colorized log output with thread-safe writes.
type colorHandler struct {
	mu     sync.Mutex
	level  slog.Level
	attrs  []slog.Attr
	groups []string
}

func (h *colorHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level
}

func (h *colorHandler) Handle(_ context.Context, r slog.Record) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	var buf strings.Builder

	// Format timestamp
	buf.WriteString(color.HiBlackString(r.Time.Format("15:04:05") + " "))

	// Colorize level
	switch r.Level {
	case slog.LevelDebug:
		buf.WriteString(color.MagentaString("DBG "))
	case slog.LevelInfo:
		buf.WriteString(color.CyanString("INF "))
	case slog.LevelWarn:
		buf.WriteString(color.YellowString("WRN "))
	case slog.LevelError:
		buf.WriteString(color.New(color.FgRed, color.Bold).Sprint("ERR "))
	default:
		buf.WriteString("??? ")
	}

	// Print message
	buf.WriteString(r.Message)

	// Print handler-level attrs first (from WithAttrs)
	for _, a := range h.attrs {
		buf.WriteString(color.HiBlackString(" " + a.Key + "="))
		buf.WriteString(a.Value.String())
	}

	// Print record attrs
	r.Attrs(func(a slog.Attr) bool {
		buf.WriteString(color.HiBlackString(" " + a.Key + "="))
		buf.WriteString(a.Value.String())
		return true
	})

	buf.WriteString("\n")
	fmt.Print(buf.String())
	return nil
}

func (h *colorHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	newAttrs := make([]slog.Attr, len(h.attrs), len(h.attrs)+len(attrs))
	copy(newAttrs, h.attrs)
	newAttrs = append(newAttrs, attrs...)
	return &colorHandler{
		level:  h.level,
		attrs:  newAttrs,
		groups: h.groups,
	}
}

func (h *colorHandler) WithGroup(name string) slog.Handler {
	newGroups := make([]string, len(h.groups), len(h.groups)+1)
	copy(newGroups, h.groups)
	newGroups = append(newGroups, name)
	return &colorHandler{
		level:  h.level,
		attrs:  h.attrs,
		groups: newGroups,
	}
}

func runHealth(ctx context.Context) error {
	cfg, err := config.Load(getConfigPath())
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	url := fmt.Sprintf("http://%s/healthz", cfg.Server.HTTPAddr)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unhealthy: status %d", resp.StatusCode)
	}

	fmt.Println("healthy")
	return nil
}

func runInit() error {
	reader := bufio.NewReader(os.Stdin)

	fmt.Println("discord-auth configuration setup")
	fmt.Println("================================")
	fmt.Println()

	// Default paths
	defaultConfigPath := getConfigPath()
	defaultDataPath := getDataPath()
	defaultDbPath := filepath.Join(defaultDataPath, "guilds.db")

	// Output filename
	outputFile := prompt(reader, "Config file path", defaultConfigPath)

	// Check if file exists
	if _, err := os.Stat(outputFile); err == nil {
		overwrite := prompt(reader, "File exists. Overwrite?", "no")
		if strings.ToLower(overwrite) != "yes" && strings.ToLower(overwrite) != "y" {
			fmt.Println("Aborted.")
			return nil
		}
	}

	// Server configuration
	fmt.Println("\n--- Server Configuration ---")
	httpAddr := prompt(reader, "HTTP address", "0.0.0.0:8080")

	// Discord application
	fmt.Println("\n--- Discord Application ---")
	appID := prompt(reader, "Application ID", "")
	publicKey := prompt(reader, "Public key (hex, from the developer portal)", "")
	botToken := prompt(reader, "Bot token (leave empty to use ${DISCORD_BOT_TOKEN})", "")
	if botToken == "" {
		botToken = "${DISCORD_BOT_TOKEN}"
	}
	guildIDs := prompt(reader, "Guild IDs for command registration (comma separated, empty = global)", "")

	// Upstream services
	fmt.Println("\n--- Upstream Services ---")
	awfulAuth := prompt(reader, "awful-auth address", "http://localhost:8001")
	goonFiles := prompt(reader, "goon-files address", "http://localhost:8002")

	// Database
	fmt.Println("\n--- Database Configuration ---")
	dbPath := prompt(reader, "SQLite database path", defaultDbPath)

	// Logging
	fmt.Println("\n--- Logging Configuration ---")
	logLevel := prompt(reader, "Log level (debug/info/warn/error)", "info")
	logFormat := prompt(reader, "Log format (text/json)", "text")

	// Generate config
	var cfg strings.Builder
	cfg.WriteString("# discord-auth configuration\n")
	cfg.WriteString("# Generated by discord-auth init\n\n")

	cfg.WriteString("server:\n")
	cfg.WriteString(fmt.Sprintf("  http_addr: \"%s\"\n", httpAddr))
	cfg.WriteString("\n")

	cfg.WriteString("discord:\n")
	cfg.WriteString(fmt.Sprintf("  application_id: \"%s\"\n", appID))
	cfg.WriteString(fmt.Sprintf("  public_key: \"%s\"\n", publicKey))
	cfg.WriteString(fmt.Sprintf("  bot_token: \"%s\"\n", botToken))
	if guildIDs != "" {
		cfg.WriteString("  guild_ids:\n")
		for _, id := range strings.Split(guildIDs, ",") {
			cfg.WriteString(fmt.Sprintf("    - \"%s\"\n", strings.TrimSpace(id)))
		}
	}
	cfg.WriteString("\n")

	cfg.WriteString("services:\n")
	cfg.WriteString(fmt.Sprintf("  awful_auth_addr: \"%s\"\n", awfulAuth))
	cfg.WriteString(fmt.Sprintf("  goon_files_addr: \"%s\"\n", goonFiles))
	cfg.WriteString("  request_timeout: \"10s\"\n")
	cfg.WriteString("\n")

	cfg.WriteString("pending:\n")
	cfg.WriteString("  capacity: 4096\n")
	cfg.WriteString("  ttl: \"5m\"\n")
	cfg.WriteString("\n")

	cfg.WriteString("database:\n")
	cfg.WriteString(fmt.Sprintf("  path: \"%s\"\n", dbPath))
	cfg.WriteString("\n")

	cfg.WriteString("logging:\n")
	cfg.WriteString(fmt.Sprintf("  level: \"%s\"\n", logLevel))
	cfg.WriteString(fmt.Sprintf("  format: \"%s\"\n", logFormat))

	// Ensure config directory exists
	configDir := filepath.Dir(outputFile)
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	// Write config file
	if err := os.WriteFile(outputFile, []byte(cfg.String()), 0600); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}

	// Ensure data directory exists
	dataDir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return fmt.Errorf("creating data directory: %w", err)
	}

	fmt.Printf("\nConfig written to %s\n", outputFile)
	fmt.Printf("Data directory: %s\n", dataDir)
	fmt.Println("\nTo start the server:")
	fmt.Printf("  discord-auth serve\n")

	return nil
}

func prompt(reader *bufio.Reader, question, defaultVal string) string {
	if defaultVal != "" {
		fmt.Printf("%s [%s]: ", question, defaultVal)
	} else {
		fmt.Printf("%s: ", question)
	}

	input, err := reader.ReadString('\n')
	if err != nil {
		// On EOF or error, return default
		fmt.Println()
		return defaultVal
	}
	input = strings.TrimSpace(input)

	if input == "" {
		return defaultVal
	}
	return input
}
