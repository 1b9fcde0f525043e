package assets

import (
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strings"
	"time"

	"sceneforge/internal/services"
)

const (
	inlinePrefix     = "data:"
	defaultTimeout   = 60 * time.Second
	maxAssetBytes    = 64 << 20
	fallbackImageTyp = "image/webp"
)

// Fetcher resolves asset references (inline data URIs or remote URLs) into
// bytes, and normalizes remote images into self-contained inline form for
// collaborators that cannot fetch URLs themselves.
type Fetcher struct {
	httpClient *http.Client
}

// Option customizes the fetcher.
type Option func(*Fetcher)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(f *Fetcher) {
		if client != nil {
			f.httpClient = client
		}
	}
}

// NewFetcher constructs an asset fetcher.
func NewFetcher(opts ...Option) *Fetcher {
	fetcher := &Fetcher{httpClient: &http.Client{Timeout: defaultTimeout}}
	for _, opt := range opts {
		opt(fetcher)
	}
	return fetcher
}

// IsInline reports whether ref is a self-contained data URI.
func IsInline(ref string) bool {
	return strings.HasPrefix(ref, inlinePrefix)
}

// InlineEncode builds a base64 data URI for the given media type and bytes.
func InlineEncode(mediaType string, data []byte) string {
	if mediaType == "" {
		mediaType = fallbackImageTyp
	}
	return inlinePrefix + mediaType + ";base64," + base64.StdEncoding.EncodeToString(data)
}

// ParseInline decodes a data URI into its media type and raw bytes.
func ParseInline(ref string) (string, []byte, error) {
	if !IsInline(ref) {
		return "", nil, fmt.Errorf("not an inline asset reference")
	}
	meta, payload, found := strings.Cut(ref[len(inlinePrefix):], ",")
	if !found {
		return "", nil, fmt.Errorf("malformed data URI: missing payload separator")
	}

	mediaType := meta
	base64Encoded := false
	if idx := strings.LastIndex(meta, ";base64"); idx >= 0 {
		mediaType = meta[:idx]
		base64Encoded = true
	}
	if mediaType == "" {
		mediaType = "text/plain"
	}

	if base64Encoded {
		data, err := base64.StdEncoding.DecodeString(payload)
		if err != nil {
			return "", nil, fmt.Errorf("decode base64 payload: %w", err)
		}
		return mediaType, data, nil
	}
	return mediaType, []byte(payload), nil
}

// EnsureInlineImage validates that ref is an image-typed resource and returns
// it in self-contained inline form. An already-inline reference is validated
// by its declared media type alone, with no network traffic. Remote
// references are fetched once: the content type check and the re-encoding
// share the same response.
//
// Non-image resources produce a validation error; fetch and decode failures
// produce an asset-processing error.
func (f *Fetcher) EnsureInlineImage(ctx context.Context, ref string) (string, error) {
	if strings.TrimSpace(ref) == "" {
		return "", services.Wrap(services.ErrValidation, "assets", "normalize", "image reference required", nil)
	}

	if IsInline(ref) {
		mediaType, _, err := ParseInline(ref)
		if err != nil {
			return "", services.Wrap(services.ErrAssetProcessing, "assets", "normalize", "decode inline image", err)
		}
		if !strings.HasPrefix(mediaType, "image/") {
			return "", services.Wrap(services.ErrValidation, "assets", "normalize",
				fmt.Sprintf("inline asset is %s, not an image", mediaType), nil)
		}
		return ref, nil
	}

	data, mediaType, err := f.fetchURL(ctx, ref)
	if err != nil {
		return "", services.Wrap(services.ErrAssetProcessing, "assets", "normalize", "fetch image", err)
	}
	if !strings.HasPrefix(mediaType, "image/") {
		return "", services.Wrap(services.ErrValidation, "assets", "normalize",
			fmt.Sprintf("resource is %s, not an image", mediaType), nil)
	}
	return InlineEncode(mediaType, data), nil
}

// Fetch resolves any asset reference into raw bytes plus its media type.
// Used by the export pipeline, which accepts video as well as image assets.
func (f *Fetcher) Fetch(ctx context.Context, ref string) ([]byte, string, error) {
	if IsInline(ref) {
		mediaType, data, err := ParseInline(ref)
		if err != nil {
			return nil, "", services.Wrap(services.ErrAssetProcessing, "assets", "fetch", "decode inline asset", err)
		}
		return data, mediaType, nil
	}
	data, mediaType, err := f.fetchURL(ctx, ref)
	if err != nil {
		return nil, "", services.Wrap(services.ErrAssetProcessing, "assets", "fetch", "fetch asset", err)
	}
	return data, mediaType, nil
}

func (f *Fetcher) fetchURL(ctx context.Context, rawURL string) ([]byte, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, "", fmt.Errorf("build request: %w", err)
	}
	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, "", fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxAssetBytes+1))
	if err != nil {
		return nil, "", fmt.Errorf("read body: %w", err)
	}
	if len(data) > maxAssetBytes {
		return nil, "", fmt.Errorf("asset exceeds %d byte limit", maxAssetBytes)
	}

	return data, responseMediaType(resp), nil
}

func responseMediaType(resp *http.Response) string {
	contentType := resp.Header.Get("Content-Type")
	if contentType == "" {
		return ""
	}
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return strings.TrimSpace(strings.ToLower(contentType))
	}
	return mediaType
}
