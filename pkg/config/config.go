// Package config handles application configuration from environment variables.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all application configuration.
type Config struct {
	// Server settings
	Port         int
	BaseURL      string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration

	// Authentication
	APIPassword string

	// Browser settings
	BrowserPath      string
	BrowserRemoteURL string
	Headless         bool
	UserAgent        string
	ViewportWidth    int
	ViewportHeight   int
	Proxy            string
	BlockHeavy       bool

	// Scrape timing. The defaults bound a full escalation to roughly the
	// navigation timeout plus PassiveWait + InteractWait + PollTimeout.
	NavTimeout     time.Duration
	CommandTimeout time.Duration
	PassiveWait    time.Duration
	InteractWait   time.Duration
	PollInterval   time.Duration
	PollTimeout    time.Duration

	// Logging
	LogLevel string
	LogJSON  bool
}

// defaultUserAgent is a realistic desktop browser identity; headless
// Chromium's own UA string trips anti-bot checks on many player pages.
const defaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) " +
	"AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

// Load reads configuration from environment variables with sensible defaults.
func Load() *Config {
	port := getEnvInt("PORT", 7870)
	return &Config{
		Port:         port,
		BaseURL:      getEnvString("BASE_URL", fmt.Sprintf("http://localhost:%d", port)),
		ReadTimeout:  getEnvDuration("READ_TIMEOUT", 30*time.Second),
		WriteTimeout: getEnvDuration("WRITE_TIMEOUT", 120*time.Second),
		IdleTimeout:  getEnvDuration("IDLE_TIMEOUT", 60*time.Second),
		APIPassword:  os.Getenv("API_PASSWORD"),

		BrowserPath:      getEnvString("BROWSER_PATH", ""),
		BrowserRemoteURL: getEnvString("BROWSER_REMOTE_URL", ""),
		Headless:         getEnvBool("HEADLESS", true),
		UserAgent:        getEnvString("USER_AGENT", defaultUserAgent),
		ViewportWidth:    getEnvInt("VIEWPORT_WIDTH", 1366),
		ViewportHeight:   getEnvInt("VIEWPORT_HEIGHT", 768),
		Proxy:            getEnvString("PROXY", ""),
		BlockHeavy:       getEnvBool("BLOCK_HEAVY", true),

		NavTimeout:     getEnvDuration("NAV_TIMEOUT", 30*time.Second),
		CommandTimeout: getEnvDuration("COMMAND_TIMEOUT", 30*time.Second),
		PassiveWait:    getEnvDuration("PASSIVE_WAIT", 6*time.Second),
		InteractWait:   getEnvDuration("INTERACT_WAIT", 8*time.Second),
		PollInterval:   getEnvDuration("POLL_INTERVAL", 250*time.Millisecond),
		PollTimeout:    getEnvDuration("POLL_TIMEOUT", 5*time.Second),

		LogLevel: getEnvString("LOG_LEVEL", "info"),
		LogJSON:  getEnvBool("LOG_JSON", false),
	}
}

func getEnvString(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
	}
	return defaultVal
}

func getEnvBool(key string, defaultVal bool) bool {
	if val := os.Getenv(key); val != "" {
		return strings.ToLower(val) == "true" || val == "1"
	}
	return defaultVal
}

func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		// Try parsing as seconds first
		if secs, err := strconv.Atoi(val); err == nil {
			return time.Duration(secs) * time.Second
		}
		// Try parsing as duration string
		if d, err := time.ParseDuration(val); err == nil {
			return d
		}
	}
	return defaultVal
}
