package config

import "testing"

func TestDefaultFromEnv(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "sk-shared")
	t.Setenv("OPENAI_BASE_URL", "https://proxy.internal/v1/")
	t.Setenv("RESPONSES_API_KEY", "")
	t.Setenv("RESPONSES_BASE_URL", "")
	t.Setenv("GEMINI_API_KEY", "")
	t.Setenv("GOOGLE_API_KEY", "g-fallback")
	t.Setenv("ANTHROPIC_API_KEY", "  sk-ant  ")
	t.Setenv("CHATSUB_DEFAULT_PROVIDER", "Anthropic")
	t.Setenv("CHATSUB_DEBUG", "true")

	cfg := DefaultFromEnv()

	if cfg.DefaultProvider != "anthropic" {
		t.Fatalf("default provider: %q", cfg.DefaultProvider)
	}
	if !cfg.Debug {
		t.Fatal("debug flag not parsed")
	}

	oa, _ := cfg.Provider("openai")
	if oa.BaseURL != "https://proxy.internal/v1" {
		t.Fatalf("trailing slash not trimmed: %q", oa.BaseURL)
	}

	// responses falls back to the OpenAI key when unset.
	rp, _ := cfg.Provider("responses")
	if rp.APIKey != "sk-shared" {
		t.Fatalf("responses key fallback: %q", rp.APIKey)
	}
	if rp.BaseURL != ResponsesBaseURLDefault {
		t.Fatalf("responses base url: %q", rp.BaseURL)
	}

	gm, _ := cfg.Provider("gemini")
	if gm.APIKey != "g-fallback" {
		t.Fatalf("gemini GOOGLE_API_KEY fallback: %q", gm.APIKey)
	}

	an, _ := cfg.Provider("anthropic")
	if an.APIKey != "sk-ant" {
		t.Fatalf("anthropic key not trimmed: %q", an.APIKey)
	}
}

func TestValidate(t *testing.T) {
	cfg := &ServerConfig{
		DefaultProvider: "openai",
		Providers:       map[string]ProviderConfig{"openai": {}},
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("valid config rejected: %v", err)
	}

	cfg.DefaultProvider = "mistral"
	if err := cfg.Validate(); err == nil {
		t.Fatal("unknown default provider accepted")
	}
}

func TestEnvBool(t *testing.T) {
	tests := []struct {
		val  string
		want bool
	}{
		{"1", true},
		{"true", true},
		{"YES", true},
		{"on", true},
		{"0", false},
		{"false", false},
		{"", false},
		{"banana", false},
	}
	for _, tt := range tests {
		t.Setenv("CHATSUB_TEST_BOOL", tt.val)
		if got := envBool("CHATSUB_TEST_BOOL"); got != tt.want {
			t.Errorf("envBool(%q) = %v, want %v", tt.val, got, tt.want)
		}
	}
}
