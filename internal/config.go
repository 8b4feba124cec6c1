package internal

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
)

// Config holds application configuration
type Config struct {
	// API endpoints
	APIBase      string
	EdgeScheme   string
	EdgeHost     string
	EdgePort     int
	SSORelayURL  string
	LoginURL     string
	ConsentURL   string
	CookieDomain string
	CookieName   string

	// Client identity, sent on every request
	AppName    string
	AppVersion string
	UserAgent  string

	// Credential handling
	APIKeyEnv  string
	SecretSlot string

	// Local state
	CacheDir  string
	SecretDir string

	// HTTP behavior
	TimeoutSeconds int
	ProxyURL       string

	// Logging configuration
	LogLevel    string
	EnableDebug bool
	QuietMode   bool
	LogFile     string
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		APIBase:      "https://api.nexusmods.com",
		EdgeScheme:   "http",
		EdgeHost:     "build.wabbajack.org",
		EdgePort:     80,
		SSORelayURL:  "wss://sso.nexusmods.com",
		LoginURL:     "https://users.nexusmods.com/auth/continue?client_id=nexus&redirect_uri=https://www.nexusmods.com/oauth/callback&response_type=code&referrer=//www.nexusmods.com",
		ConsentURL:   "https://www.nexusmods.com/sso",
		CookieDomain: "nexusmods.com",
		CookieName:   "member_id",

		AppName:    "nexusfetch",
		AppVersion: "1.0.0",
		UserAgent:  "nexusfetch/1.0.0",

		APIKeyEnv:  "NEXUSAPIKEY",
		SecretSlot: "nexusapikey",

		CacheDir:  defaultStateDir("cache"),
		SecretDir: defaultStateDir("secrets"),

		TimeoutSeconds: 30,

		// Logging defaults
		LogLevel:    "info",
		EnableDebug: false,
		QuietMode:   false,
		LogFile:     "", // Empty means stderr
	}
}

func defaultStateDir(kind string) string {
	base, err := os.UserCacheDir()
	if err != nil {
		base = "."
	}
	return filepath.Join(base, "nexusfetch", kind)
}

// LoadFromEnv loads configuration from environment variables
func (c *Config) LoadFromEnv() {
	if cacheDir := os.Getenv("NEXUSCACHEDIR"); cacheDir != "" {
		c.CacheDir = cacheDir
	}

	if timeout := os.Getenv("NEXUSFETCH_TIMEOUT"); timeout != "" {
		if t, err := strconv.Atoi(timeout); err == nil && t > 0 {
			c.TimeoutSeconds = t
		}
	}

	if proxy := os.Getenv("NEXUSFETCH_PROXY"); proxy != "" {
		c.ProxyURL = proxy
	}

	// Load logging configuration from environment
	if logLevel := os.Getenv("NEXUSFETCH_LOG_LEVEL"); logLevel != "" {
		c.LogLevel = logLevel
	}

	if debug := os.Getenv("NEXUSFETCH_DEBUG"); debug != "" {
		c.EnableDebug = debug == "true" || debug == "1"
	}

	if quiet := os.Getenv("NEXUSFETCH_QUIET"); quiet != "" {
		c.QuietMode = quiet == "true" || quiet == "1"
	}

	if logFile := os.Getenv("NEXUSFETCH_LOG_FILE"); logFile != "" {
		c.LogFile = logFile
	}
}

// GetEnvWithDefault returns environment variable value or default
func GetEnvWithDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// ValidateConfig validates the configuration values
func (c *Config) ValidateConfig() error {
	if c.APIBase == "" {
		return fmt.Errorf("API base URL cannot be empty")
	}

	if c.EdgeHost == "" {
		return fmt.Errorf("edge cache host cannot be empty")
	}

	if c.EdgePort < 1 || c.EdgePort > 65535 {
		return fmt.Errorf("invalid edge cache port: %d", c.EdgePort)
	}

	if c.TimeoutSeconds < 1 {
		return fmt.Errorf("invalid timeout: %d (must be > 0)", c.TimeoutSeconds)
	}

	if c.AppName == "" || c.UserAgent == "" {
		return fmt.Errorf("application identity headers cannot be empty")
	}

	if c.SecretSlot == "" {
		return fmt.Errorf("secret slot name cannot be empty")
	}

	return nil
}
