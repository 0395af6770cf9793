package proxy

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/qduc/chat-sub010/internal/adapter"
	"github.com/qduc/chat-sub010/internal/models"
	"github.com/qduc/chat-sub010/internal/sse"
	"github.com/qduc/chat-sub010/internal/stream"
	"github.com/qduc/chat-sub010/internal/types"
	"github.com/qduc/chat-sub010/internal/upstream"
)

// handleChatCompletions handles POST /v1/chat/completions.
func (s *Server) handleChatCompletions(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Failed to read request body")
		return
	}

	var req types.ChatCompletionRequest
	if err := json.Unmarshal(body, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}

	ad, ok := s.selectAdapter(&req)
	if !ok {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("unknown provider %q", req.Provider))
		return
	}

	upReq, err := ad.BuildRequest(r.Context(), &req)
	if err != nil {
		switch {
		case errors.Is(err, adapter.ErrMissingModel), errors.Is(err, adapter.ErrEmptyConversation):
			writeError(w, http.StatusBadRequest, err.Error())
		default:
			writeError(w, http.StatusInternalServerError, err.Error())
		}
		return
	}

	if s.Config.Verbose {
		slog.Info("proxy.request",
			"provider", ad.Name(),
			"model", req.Model,
			"stream", req.Stream,
			"messages", len(req.Messages),
			"tools", len(req.Tools),
		)
	}

	resp, err := s.Upstream.Do(r.Context(), upReq)
	if err != nil {
		var httpErr *upstream.HTTPError
		if errors.As(err, &httpErr) {
			writeError(w, upstreamStatus(httpErr.StatusCode), httpErr.Message())
			return
		}
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}
	defer resp.Body.Close()

	if req.Stream {
		s.streamResponse(w, ad, &req, resp)
		return
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		writeError(w, http.StatusBadGateway, "Failed to read upstream response")
		return
	}
	out, err := ad.TranslateResponse(raw, req.Model)
	if err != nil {
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, out)
}

// handleListModels handles GET /v1/models.
func (s *Server) handleListModels(w http.ResponseWriter, r *http.Request) {
	list := s.Registry.Models(r.Context())
	if list == nil {
		list = []models.Model{}
	}
	writeJSON(w, http.StatusOK, models.ListResponse{Object: "list", Data: list})
}

// streamResponse relays a streaming upstream body through the provider's
// translator, emitting canonical chat.completion.chunk frames.
func (s *Server) streamResponse(w http.ResponseWriter, ad adapter.Adapter, req *types.ChatCompletionRequest, resp *upstream.Response) {
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	st := stream.NewState(req.Model, time.Now().Unix())
	wr := sse.NewWriter(w, st)
	ad.StreamTranslator(wr).Translate(stream.NewReader(resp.Body))
}

// selectAdapter picks the provider family for a request: an explicit
// provider field wins, then a "provider/model" prefix on the model name,
// then the configured default. A recognized prefix is stripped so the
// upstream sees the bare model name.
func (s *Server) selectAdapter(req *types.ChatCompletionRequest) (adapter.Adapter, bool) {
	if req.Provider != "" {
		a, ok := s.adapters[strings.ToLower(req.Provider)]
		return a, ok
	}

	if name, rest, found := strings.Cut(req.Model, "/"); found {
		if a, ok := s.adapters[strings.ToLower(name)]; ok {
			req.Model = rest
			return a, true
		}
	}

	a, ok := s.adapters[s.Config.DefaultProvider]
	return a, ok
}

// upstreamStatus maps an upstream HTTP status onto the response we
// return. Provider auth failures are our misconfiguration, not the
// caller's, so they surface as 502 rather than tempting clients to
// retry with their own credentials.
func upstreamStatus(code int) int {
	switch code {
	case http.StatusUnauthorized, http.StatusForbidden:
		return http.StatusBadGateway
	case http.StatusBadRequest, http.StatusNotFound, http.StatusConflict,
		http.StatusRequestEntityTooLarge, http.StatusUnprocessableEntity,
		http.StatusTooManyRequests:
		return code
	}
	if code >= 500 {
		return http.StatusBadGateway
	}
	return code
}
