// Package models aggregates the model catalogs of the configured
// upstream providers into one OpenAI-style model list.
package models

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/qduc/chat-sub010/internal/config"
	"github.com/qduc/chat-sub010/internal/upstream"
)

// cacheTTL is how long to serve the cached catalog before a background
// refresh.
const cacheTTL = 5 * time.Minute

// Model is one entry of the aggregated catalog. IDs carry a
// "provider/" prefix so they route back to the right upstream when used
// in a completion request.
type Model struct {
	ID      string `json:"id"`
	Object  string `json:"object"`
	Created int64  `json:"created,omitempty"`
	OwnedBy string `json:"owned_by"`
}

// ListResponse is the OpenAI-format model list envelope.
type ListResponse struct {
	Object string  `json:"object"`
	Data   []Model `json:"data"`
}

// Registry fetches and caches the model catalogs of all configured
// providers.
type Registry struct {
	mu        sync.RWMutex
	fetchMu   sync.Mutex // prevents concurrent initial fetches
	client    *upstream.Client
	providers map[string]config.ProviderConfig
	models    []Model
	lastFetch time.Time
}

// NewRegistry creates a registry over the given provider set.
func NewRegistry(client *upstream.Client, providers map[string]config.ProviderConfig) *Registry {
	return &Registry{client: client, providers: providers}
}

// Models returns the aggregated catalog, refreshing if needed. The
// first call blocks to fetch; a stale cache refreshes in the background
// while the cached value is returned immediately. Providers without
// credentials are skipped, and a provider whose catalog call fails
// simply contributes nothing.
func (r *Registry) Models(ctx context.Context) []Model {
	r.mu.RLock()
	age := time.Since(r.lastFetch)
	cached := r.models
	fetched := !r.lastFetch.IsZero()
	r.mu.RUnlock()

	if !fetched {
		r.fetchMu.Lock()
		r.mu.RLock()
		cached = r.models
		fetched = !r.lastFetch.IsZero()
		r.mu.RUnlock()
		if !fetched {
			cached = r.doFetch(ctx)
		}
		r.fetchMu.Unlock()
		return cached
	}

	if age > cacheTTL {
		go func() {
			r.fetchMu.Lock()
			defer r.fetchMu.Unlock()
			r.mu.RLock()
			stale := time.Since(r.lastFetch) > cacheTTL
			r.mu.RUnlock()
			if stale {
				r.doFetch(context.Background())
			}
		}()
	}
	return cached
}

func (r *Registry) doFetch(ctx context.Context) []Model {
	var out []Model
	for name, pc := range r.providers {
		if pc.APIKey == "" {
			continue
		}
		if name == "responses" && r.sameAsOpenAI(pc) {
			continue
		}
		models, err := r.fetchProvider(ctx, name, pc)
		if err != nil {
			slog.Warn("model catalog fetch failed", "provider", name, "error", err)
			continue
		}
		out = append(out, models...)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })

	r.mu.Lock()
	r.models = out
	r.lastFetch = time.Now()
	r.mu.Unlock()
	return out
}

// sameAsOpenAI reports whether the responses provider would list the
// identical catalog as the openai provider.
func (r *Registry) sameAsOpenAI(pc config.ProviderConfig) bool {
	oa, ok := r.providers["openai"]
	return ok && oa.APIKey == pc.APIKey && oa.BaseURL == pc.BaseURL
}

func (r *Registry) fetchProvider(ctx context.Context, name string, pc config.ProviderConfig) ([]Model, error) {
	headers := http.Header{}
	var url string
	switch name {
	case "openai", "responses":
		url = pc.BaseURL + "/models"
		headers.Set("Authorization", "Bearer "+pc.APIKey)
	case "anthropic":
		url = pc.BaseURL + "/v1/models"
		headers.Set("x-api-key", pc.APIKey)
		headers.Set("anthropic-version", "2023-06-01")
	case "gemini":
		url = pc.BaseURL + "/v1beta/models"
		headers.Set("x-goog-api-key", pc.APIKey)
	default:
		return nil, fmt.Errorf("unknown provider %q", name)
	}

	body, err := r.client.Get(ctx, url, headers)
	if err != nil {
		return nil, err
	}

	if name == "gemini" {
		return parseGeminiCatalog(name, body)
	}
	return parseListCatalog(name, body)
}

// parseListCatalog handles the {"data":[{"id":...}]} shape shared by
// OpenAI and Anthropic.
func parseListCatalog(provider string, body []byte) ([]Model, error) {
	var wire struct {
		Data []struct {
			ID        string `json:"id"`
			Created   int64  `json:"created"`
			CreatedAt string `json:"created_at"`
			OwnedBy   string `json:"owned_by"`
		} `json:"data"`
	}
	if err := json.Unmarshal(body, &wire); err != nil {
		return nil, fmt.Errorf("failed to decode model catalog: %w", err)
	}

	var out []Model
	for _, m := range wire.Data {
		if m.ID == "" {
			continue
		}
		created := m.Created
		if created == 0 && m.CreatedAt != "" {
			if t, err := time.Parse(time.RFC3339, m.CreatedAt); err == nil {
				created = t.Unix()
			}
		}
		owned := m.OwnedBy
		if owned == "" {
			owned = provider
		}
		out = append(out, Model{
			ID:      provider + "/" + m.ID,
			Object:  "model",
			Created: created,
			OwnedBy: owned,
		})
	}
	return out, nil
}

func parseGeminiCatalog(provider string, body []byte) ([]Model, error) {
	var wire struct {
		Models []struct {
			Name string `json:"name"`
		} `json:"models"`
	}
	if err := json.Unmarshal(body, &wire); err != nil {
		return nil, fmt.Errorf("failed to decode model catalog: %w", err)
	}

	var out []Model
	for _, m := range wire.Models {
		id := strings.TrimPrefix(m.Name, "models/")
		if id == "" {
			continue
		}
		out = append(out, Model{
			ID:      provider + "/" + id,
			Object:  "model",
			OwnedBy: "google",
		})
	}
	return out, nil
}
