// Package media handles the file-part concerns shared by every provider
// direction: sniffing a MIME type for bytes of unknown origin, and parsing
// the data: URL form Anthropic's image/document source blocks use for
// inline base64 content.
//
// MIME detection follows a sniff -> declared -> extension -> fallback
// chain, and data: URLs are split on the first comma.
package media

import (
	"encoding/base64"
	"fmt"
	"mime"
	"net/http"
	"path/filepath"
	"strings"
)

// DetectMIMEType determines a MIME type using a prioritized fallback chain:
// content sniffing (most reliable) -> declared type -> filename extension ->
// final fallback.
func DetectMIMEType(data []byte, declaredType, filename, fallbackType string) string {
	if detected := http.DetectContentType(data); detected != "application/octet-stream" {
		return detected
	}

	if declaredType != "" && declaredType != "application/octet-stream" {
		return declaredType
	}

	if filename != "" {
		ext := filepath.Ext(strings.ToLower(filename))
		if extMime := mime.TypeByExtension(ext); extMime != "" {
			return extMime
		}
	}

	return fallbackType
}

// DataURL is a parsed "data:<mediatype>;base64,<data>" URL.
type DataURL struct {
	MediaType string
	Base64    string
}

// ParseDataURL parses a data: URL in the base64 form every provider in this
// adapter uses for inline media. Non-base64 data URLs (percent-encoded text)
// are rejected since no provider on either side of the adapter emits them.
func ParseDataURL(url string) (DataURL, error) {
	rest, ok := strings.CutPrefix(url, "data:")
	if !ok {
		return DataURL{}, fmt.Errorf("media: not a data URL")
	}

	header, data, ok := strings.Cut(rest, ",")
	if !ok {
		return DataURL{}, fmt.Errorf("media: malformed data URL, expected data:<mediatype>;base64,<data>")
	}

	mediaType, params, _ := strings.Cut(header, ";")
	if params != "base64" {
		return DataURL{}, fmt.Errorf("media: only base64 data URLs are supported, got %q", header)
	}
	if mediaType == "" {
		return DataURL{}, fmt.Errorf("media: data URL missing media type")
	}

	if _, err := base64.StdEncoding.DecodeString(data); err != nil {
		return DataURL{}, fmt.Errorf("media: invalid base64 payload: %w", err)
	}

	return DataURL{MediaType: mediaType, Base64: data}, nil
}

// IsHTTPURL reports whether url is an http(s) reference rather than inline
// data, the other form Anthropic's image/document source blocks allow.
func IsHTTPURL(url string) bool {
	return strings.HasPrefix(url, "http://") || strings.HasPrefix(url, "https://")
}
