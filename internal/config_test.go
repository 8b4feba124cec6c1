package internal

import (
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	config := DefaultConfig()

	if config.APIBase != "https://api.nexusmods.com" {
		t.Errorf("unexpected API base: %s", config.APIBase)
	}
	if config.APIKeyEnv != "NEXUSAPIKEY" {
		t.Errorf("unexpected API key env var: %s", config.APIKeyEnv)
	}
	if config.SecretSlot != "nexusapikey" {
		t.Errorf("unexpected secret slot: %s", config.SecretSlot)
	}
	if config.EdgeScheme != "http" || config.EdgePort != 80 {
		t.Errorf("unexpected edge endpoint: %s://%s:%d", config.EdgeScheme, config.EdgeHost, config.EdgePort)
	}

	if err := config.ValidateConfig(); err != nil {
		t.Errorf("default config should validate: %v", err)
	}
}

func TestConfig_LoadFromEnv(t *testing.T) {
	t.Setenv("NEXUSCACHEDIR", "/tmp/nexus-cache")
	t.Setenv("NEXUSFETCH_TIMEOUT", "60")
	t.Setenv("NEXUSFETCH_PROXY", "socks5://localhost:1080")
	t.Setenv("NEXUSFETCH_DEBUG", "1")
	t.Setenv("NEXUSFETCH_QUIET", "true")

	config := DefaultConfig()
	config.LoadFromEnv()

	if config.CacheDir != "/tmp/nexus-cache" {
		t.Errorf("cache dir not loaded: %s", config.CacheDir)
	}
	if config.TimeoutSeconds != 60 {
		t.Errorf("timeout not loaded: %d", config.TimeoutSeconds)
	}
	if config.ProxyURL != "socks5://localhost:1080" {
		t.Errorf("proxy not loaded: %s", config.ProxyURL)
	}
	if !config.EnableDebug || !config.QuietMode {
		t.Error("debug/quiet flags not loaded")
	}
}

func TestConfig_LoadFromEnv_InvalidTimeout(t *testing.T) {
	t.Setenv("NEXUSFETCH_TIMEOUT", "not-a-number")

	config := DefaultConfig()
	config.LoadFromEnv()

	if config.TimeoutSeconds != 30 {
		t.Errorf("invalid timeout should keep the default, got %d", config.TimeoutSeconds)
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"empty_api_base", func(c *Config) { c.APIBase = "" }},
		{"empty_edge_host", func(c *Config) { c.EdgeHost = "" }},
		{"bad_edge_port", func(c *Config) { c.EdgePort = 70000 }},
		{"zero_timeout", func(c *Config) { c.TimeoutSeconds = 0 }},
		{"empty_identity", func(c *Config) { c.UserAgent = "" }},
		{"empty_slot", func(c *Config) { c.SecretSlot = "" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := DefaultConfig()
			tt.mutate(config)
			if err := config.ValidateConfig(); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}
