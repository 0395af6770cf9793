// Package convert defines the content-part conversion boundary. Resolving
// local image references to remote-fetchable URLs lives outside this module;
// adapters consume the collaborator through the ContentPartConverter
// interface and never assume a particular implementation.
package convert

import (
	"context"
	"encoding/base64"
	"net/url"
	"strings"

	"github.com/qduc/chat-sub010/internal/types"
)

// ContentPartConverter maps an inbound multimodal content part to a
// normalized part. Implementations must not fail on malformed input:
// they return a best-effort part, or ok=false to drop it.
type ContentPartConverter interface {
	Convert(ctx context.Context, part types.ContentPart) (types.ContentPart, bool)
}

// Passthrough is the default converter. It keeps parts as-is apart from
// repairing base64 image data URLs that clients commonly mangle.
type Passthrough struct{}

// Convert implements ContentPartConverter.
func (Passthrough) Convert(_ context.Context, part types.ContentPart) (types.ContentPart, bool) {
	switch part.Type {
	case "text", "input_text", "output_text":
		return part, part.Text != ""
	case "image_url", "input_image", "output_image":
		if part.ImageURL == nil || part.ImageURL.URL == "" {
			return part, false
		}
		fixed := *part.ImageURL
		fixed.URL = normalizeImageDataURL(fixed.URL)
		part.ImageURL = &fixed
		return part, true
	case "input_audio":
		return part, part.InputAudio != nil && part.InputAudio.Data != ""
	}
	return part, false
}

// normalizeImageDataURL repairs common defects in base64 image data URLs:
// URL-escaped payloads, stray newlines, and base64url alphabets.
func normalizeImageDataURL(u string) string {
	if !strings.HasPrefix(u, "data:image/") {
		return u
	}
	if !strings.Contains(u, ";base64,") {
		return u
	}
	parts := strings.SplitN(u, ",", 2)
	if len(parts) != 2 {
		return u
	}
	header := parts[0]
	data := parts[1]
	data, _ = url.QueryUnescape(data)
	data = strings.NewReplacer("\n", "", "\r", "", "-", "+", "_", "/").Replace(data)
	if pad := len(data) % 4; pad != 0 {
		data += strings.Repeat("=", 4-pad)
	}
	if _, err := base64.StdEncoding.DecodeString(data); err != nil {
		return u
	}
	return header + "," + data
}
