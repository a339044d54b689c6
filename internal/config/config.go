package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the agent binary.
type Config struct {
	// Analysis backend
	BackendURL    string
	HTTPTimeoutMS int

	// Persisted snapshot store
	DataDir        string
	ChatHistoryKey string
	WatchlistKey   string

	// Control API
	BindAddr         string
	PortCandidates   []string
	PortAutoFallback bool

	// Embedded browser
	CDPAddress    string
	CDPPort       int
	StartURL      string
	TabURLFilter  string
	EvalTimeoutMS int
	ProfileDir    string
	LaunchBrowser bool

	// Logging
	LogLevel string
	LogFile  string
}

// Load reads configuration from environment variables and optional .env file.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		slog.Debug("failed to load .env file", "error", err)
	}

	cfg := &Config{
		BackendURL:       getEnvOrDefault("ZANGER_BACKEND_URL", "http://127.0.0.1:5001"),
		HTTPTimeoutMS:    getEnvIntOrDefault("ZANGER_HTTP_TIMEOUT_MS", 60000),
		DataDir:          getEnvOrDefault("ZANGER_DATA_DIR", "./agent_data"),
		ChatHistoryKey:   getEnvOrDefault("ZANGER_CHAT_HISTORY_KEY", "zanger-chat-history"),
		WatchlistKey:     getEnvOrDefault("ZANGER_WATCHLIST_KEY", "zanger-watchlist"),
		BindAddr:         getEnvOrDefault("ZANGER_BIND_ADDR", "127.0.0.1:8190"),
		PortCandidates:   splitList(getEnvOrDefault("ZANGER_PORT_CANDIDATES", "127.0.0.1:8190,127.0.0.1:8191,127.0.0.1:8192")),
		PortAutoFallback: getEnvBoolOrDefault("ZANGER_PORT_AUTO_FALLBACK", true),
		CDPAddress:       getEnvOrDefault("CHROMIUM_CDP_ADDRESS", "127.0.0.1"),
		CDPPort:          getEnvIntOrDefault("CHROMIUM_CDP_PORT", 9222),
		StartURL:         getEnvOrDefault("ZANGER_START_URL", ""),
		TabURLFilter:     getEnvOrDefault("ZANGER_TAB_URL_FILTER", ""),
		EvalTimeoutMS:    getEnvIntOrDefault("ZANGER_EVAL_TIMEOUT_MS", 5000),
		ProfileDir:       getEnvOrDefault("ZANGER_PROFILE_DIR", "./browser_profile"),
		LaunchBrowser:    getEnvBoolOrDefault("ZANGER_LAUNCH_BROWSER", true),
		LogLevel:         strings.ToLower(getEnvOrDefault("ZANGER_LOG_LEVEL", "info")),
		LogFile:          getEnvOrDefault("ZANGER_LOG_FILE", "logs/zanger_agent.log"),
	}

	if cfg.StartURL == "" {
		cfg.StartURL = cfg.BackendURL
	}
	if cfg.TabURLFilter == "" {
		cfg.TabURLFilter = cfg.StartURL
	}
	if cfg.EvalTimeoutMS < 1000 {
		cfg.EvalTimeoutMS = 1000
	}
	return cfg, nil
}

// CDPURL returns the CDP HTTP endpoint used by the chromedp remote allocator.
func (c *Config) CDPURL() string {
	return fmt.Sprintf("http://%s:%d", c.CDPAddress, c.CDPPort)
}

func getEnvOrDefault(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvIntOrDefault(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
	}
	return defaultVal
}

func getEnvBoolOrDefault(key string, defaultVal bool) bool {
	if val := os.Getenv(key); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			return b
		}
	}
	return defaultVal
}

func splitList(val string) []string {
	parts := strings.Split(val, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
