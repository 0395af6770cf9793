package models

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/qduc/chat-sub010/internal/config"
	"github.com/qduc/chat-sub010/internal/upstream"
)

func TestParseListCatalogOpenAI(t *testing.T) {
	body := `{"object":"list","data":[
		{"id":"gpt-4o","created":1715367049,"owned_by":"openai"},
		{"id":""},
		{"id":"gpt-4o-mini","owned_by":"system"}
	]}`
	out, err := parseListCatalog("openai", []byte(body))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(out) != 2 {
		t.Fatalf("expected blank id dropped, got %d entries", len(out))
	}
	if out[0].ID != "openai/gpt-4o" || out[0].Created != 1715367049 {
		t.Fatalf("first entry: %+v", out[0])
	}
	if out[1].OwnedBy != "system" {
		t.Fatalf("owned_by passthrough: %+v", out[1])
	}
}

func TestParseListCatalogAnthropicCreatedAt(t *testing.T) {
	body := `{"data":[{"id":"claude-sonnet-4","created_at":"2025-02-19T00:00:00Z"}]}`
	out, err := parseListCatalog("anthropic", []byte(body))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	want, _ := time.Parse(time.RFC3339, "2025-02-19T00:00:00Z")
	if out[0].Created != want.Unix() {
		t.Fatalf("created_at not converted: %+v", out[0])
	}
	if out[0].OwnedBy != "anthropic" {
		t.Fatalf("owned_by default: %+v", out[0])
	}
}

func TestParseGeminiCatalog(t *testing.T) {
	body := `{"models":[{"name":"models/gemini-2.5-pro"},{"name":""},{"name":"gemini-embedding"}]}`
	out, err := parseGeminiCatalog("gemini", []byte(body))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(out) != 2 {
		t.Fatalf("entries: %+v", out)
	}
	if out[0].ID != "gemini/gemini-2.5-pro" || out[0].OwnedBy != "google" {
		t.Fatalf("prefix strip: %+v", out[0])
	}
	if out[1].ID != "gemini/gemini-embedding" {
		t.Fatalf("bare name: %+v", out[1])
	}
}

func TestRegistryAggregatesAndCaches(t *testing.T) {
	var hits atomic.Int64
	mux := http.NewServeMux()
	mux.HandleFunc("/models", func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.Write([]byte(`{"data":[{"id":"gpt-4o","owned_by":"openai"}]}`))
	})
	mux.HandleFunc("/v1beta/models", func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.Write([]byte(`{"models":[{"name":"models/gemini-2.5-flash"}]}`))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	providers := map[string]config.ProviderConfig{
		"openai": {BaseURL: srv.URL, APIKey: "sk-1"},
		// Same endpoint and key as openai, so it must be skipped
		// instead of listing the catalog twice.
		"responses": {BaseURL: srv.URL, APIKey: "sk-1"},
		"gemini":    {BaseURL: srv.URL, APIKey: "g-1"},
		// No key, no fetch.
		"anthropic": {BaseURL: srv.URL},
	}

	r := NewRegistry(upstream.NewClient(false), providers)
	got := r.Models(context.Background())

	if len(got) != 2 {
		t.Fatalf("catalog: %+v", got)
	}
	// doFetch sorts by ID, so gemini comes first.
	if got[0].ID != "gemini/gemini-2.5-flash" || got[1].ID != "openai/gpt-4o" {
		t.Fatalf("catalog ids: %+v", got)
	}
	if n := hits.Load(); n != 2 {
		t.Fatalf("upstream hits: %d", n)
	}

	// Second call within the TTL serves the cache.
	r.Models(context.Background())
	if n := hits.Load(); n != 2 {
		t.Fatalf("cache not used, hits: %d", n)
	}
}

func TestRegistrySurvivesProviderFailure(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/models", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})
	mux.HandleFunc("/v1/models", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"data":[{"id":"claude-sonnet-4"}]}`))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	providers := map[string]config.ProviderConfig{
		"openai":    {BaseURL: srv.URL, APIKey: "sk-1"},
		"anthropic": {BaseURL: srv.URL, APIKey: "sk-ant"},
	}

	r := NewRegistry(upstream.NewClient(false), providers)
	got := r.Models(context.Background())

	if len(got) != 1 || got[0].ID != "anthropic/claude-sonnet-4" {
		t.Fatalf("failing provider must contribute nothing: %+v", got)
	}
}
