package tokensource

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"golang.org/x/oauth2"
)

// ClientID is Anthropic Claude's public OAuth client identifier, used by
// both the authorization-code and refresh-token requests.
const ClientID = "9d1c250a-e61b-44d9-88ed-5944d1962f5e"

// RedirectURL is the redirect URI Anthropic's OAuth app is registered
// with; "auth login" instructs the user to paste back the resulting code
// rather than running a local redirect listener, so this is never actually
// dialed.
const RedirectURL = "https://console.anthropic.com/oauth/code/callback"

// Endpoint is Anthropic Claude's OAuth2 authorization/token endpoint pair.
var Endpoint = oauth2.Endpoint{
	AuthURL:  "https://claude.ai/oauth/authorize",
	TokenURL: "https://console.anthropic.com/v1/oauth/token",
}

var scopes = []string{"org:create_api_key", "user:profile", "user:inference"}

// tokenSourceOption configures a TokenSource built by NewTokenSource.
type tokenSourceOption func(*refreshingSource)

// WithTransport overrides the http.RoundTripper used for refresh requests,
// for callers that need a proxy or custom timeout.
func WithTransport(rt http.RoundTripper) tokenSourceOption {
	return func(s *refreshingSource) { s.client = &http.Client{Transport: rt, Timeout: 30 * time.Second} }
}

// refreshingSource renews an access token from a long-lived refresh token
// using Anthropic's JSON-bodied (rather than form-encoded) token endpoint.
type refreshingSource struct {
	endpoint     oauth2.Endpoint
	refreshToken string
	client       *http.Client
}

// NewTokenSource builds an oauth2.TokenSource that exchanges refreshToken
// for access tokens against endpoint, caching each access token until it
// expires (via oauth2.ReuseTokenSource) before renewing again.
func NewTokenSource(refreshToken string, endpoint oauth2.Endpoint, opts ...tokenSourceOption) oauth2.TokenSource {
	s := &refreshingSource{
		endpoint:     endpoint,
		refreshToken: refreshToken,
		client:       &http.Client{Timeout: 30 * time.Second},
	}
	for _, opt := range opts {
		opt(s)
	}
	return oauth2.ReuseTokenSource(nil, s)
}

type refreshRequest struct {
	GrantType    string `json:"grant_type"`
	RefreshToken string `json:"refresh_token"`
	ClientID     string `json:"client_id"`
}

// Token implements oauth2.TokenSource.
func (s *refreshingSource) Token() (*oauth2.Token, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	body, err := json.Marshal(refreshRequest{
		GrantType:    "refresh_token",
		RefreshToken: s.refreshToken,
		ClientID:     ClientID,
	})
	if err != nil {
		return nil, fmt.Errorf("tokensource: encode refresh request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint.TokenURL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("tokensource: build refresh request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	now := time.Now()
	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("tokensource: refresh request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("tokensource: refresh failed with status %d", resp.StatusCode)
	}

	var token oauth2.Token
	if err := json.NewDecoder(resp.Body).Decode(&token); err != nil {
		return nil, fmt.Errorf("tokensource: decode refresh response: %w", err)
	}
	if token.ExpiresIn > 0 {
		token.Expiry = now.Add(time.Duration(token.ExpiresIn) * time.Second)
	}
	if token.RefreshToken == "" {
		token.RefreshToken = s.refreshToken
	}
	return &token, nil
}
