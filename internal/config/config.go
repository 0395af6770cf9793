package config

import (
	"fmt"
	"os"
	"strings"
)

// Default upstream endpoints. Each can be redirected at the provider
// level for self-hosted or proxied deployments.
const (
	OpenAIBaseURLDefault    = "https://api.openai.com/v1"
	ResponsesBaseURLDefault = "https://api.openai.com/v1"
	AnthropicBaseURLDefault = "https://api.anthropic.com"
	GeminiBaseURLDefault    = "https://generativelanguage.googleapis.com"
)

// ProviderConfig holds the connection settings for a single upstream
// provider family.
type ProviderConfig struct {
	BaseURL      string
	APIKey       string
	DefaultModel string
}

// ServerConfig holds all server configuration.
type ServerConfig struct {
	Host            string
	Port            int
	Verbose         bool
	Debug           bool
	DefaultProvider string
	Providers       map[string]ProviderConfig
}

// DefaultFromEnv creates a ServerConfig with defaults from environment
// variables.
func DefaultFromEnv() *ServerConfig {
	return &ServerConfig{
		Host:            "127.0.0.1",
		Port:            8000,
		Debug:           envBool("CHATSUB_DEBUG"),
		DefaultProvider: envOrDefault("CHATSUB_DEFAULT_PROVIDER", "openai"),
		Providers: map[string]ProviderConfig{
			"openai": {
				BaseURL:      envURL("OPENAI_BASE_URL", OpenAIBaseURLDefault),
				APIKey:       envSecret("OPENAI_API_KEY"),
				DefaultModel: os.Getenv("OPENAI_DEFAULT_MODEL"),
			},
			"responses": {
				BaseURL:      envURL("RESPONSES_BASE_URL", ResponsesBaseURLDefault),
				APIKey:       envSecret("RESPONSES_API_KEY", "OPENAI_API_KEY"),
				DefaultModel: os.Getenv("RESPONSES_DEFAULT_MODEL"),
			},
			"anthropic": {
				BaseURL:      envURL("ANTHROPIC_BASE_URL", AnthropicBaseURLDefault),
				APIKey:       envSecret("ANTHROPIC_API_KEY"),
				DefaultModel: os.Getenv("ANTHROPIC_DEFAULT_MODEL"),
			},
			"gemini": {
				BaseURL:      envURL("GEMINI_BASE_URL", GeminiBaseURLDefault),
				APIKey:       envSecret("GEMINI_API_KEY", "GOOGLE_API_KEY"),
				DefaultModel: os.Getenv("GEMINI_DEFAULT_MODEL"),
			},
		},
	}
}

// Provider returns the configuration for a named provider family.
func (c *ServerConfig) Provider(name string) (ProviderConfig, bool) {
	p, ok := c.Providers[name]
	return p, ok
}

// Validate checks that the configured default provider exists.
func (c *ServerConfig) Validate() error {
	if _, ok := c.Providers[c.DefaultProvider]; !ok {
		return fmt.Errorf("unknown default provider %q", c.DefaultProvider)
	}
	return nil
}

func envOrDefault(key, defaultVal string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return strings.ToLower(v)
	}
	return defaultVal
}

// envURL reads a base URL, trimming a trailing slash so adapters can
// join paths by plain concatenation.
func envURL(key, defaultVal string) string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return defaultVal
	}
	return strings.TrimRight(v, "/")
}

// envSecret reads the first non-empty value among the given keys.
func envSecret(keys ...string) string {
	for _, key := range keys {
		if v := strings.TrimSpace(os.Getenv(key)); v != "" {
			return v
		}
	}
	return ""
}

func envBool(key string) bool {
	v := strings.ToLower(strings.TrimSpace(os.Getenv(key)))
	return v == "1" || v == "true" || v == "yes" || v == "on"
}
