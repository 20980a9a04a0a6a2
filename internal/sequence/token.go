// Package sequence provides clients for the external marketing-sequence API:
// token acquisition and contact enrollment.
package sequence

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	// requestTimeout bounds every call to the external API
	requestTimeout = 15 * time.Second

	// maxResponseSize is the maximum allowed response size (1MB)
	maxResponseSize = 1 * 1024 * 1024

	// userAgent is the user agent string for HTTP requests
	userAgent = "enrollment-server/1.0"
)

//go:generate mockgen -destination=mocks/mock_token.go -package=mocks -source=token.go TokenProvider

// TokenProvider obtains a fresh bearer token from the external identity
// endpoint. Tokens are short-lived and never cached: the scheduler requests
// one per pass, only when there is work to do.
type TokenProvider interface {
	GetToken(ctx context.Context) (string, error)
}

// tokenResponse is the shape of the token endpoint's 200 response
type tokenResponse struct {
	Data struct {
		AccessToken string `json:"access_token"`
	} `json:"data"`
}

type httpTokenProvider struct {
	client   *http.Client
	tokenURL string
	apiKey   string
}

// NewTokenProvider creates a TokenProvider backed by the configured token endpoint.
func NewTokenProvider(tokenURL, apiKey string) TokenProvider {
	return &httpTokenProvider{
		client: &http.Client{
			Timeout: requestTimeout,
		},
		tokenURL: tokenURL,
		apiKey:   apiKey,
	}
}

// GetToken performs a single token request. There is no retry here; the
// caller decides whether to abort or retry the whole pass later.
func (p *httpTokenProvider) GetToken(ctx context.Context) (string, error) {
	form := url.Values{}
	form.Set("grant_type", "access_token")

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.tokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("failed to create token request: %w", err)
	}
	req.Header.Set("X-API-Key", p.apiKey)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("User-Agent", userAgent)

	resp, err := p.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("token request failed: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return "", fmt.Errorf("failed to read token response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("token endpoint returned %d: %s", resp.StatusCode, truncate(string(body), 256))
	}

	var parsed tokenResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", fmt.Errorf("malformed token response: %w", err)
	}
	if parsed.Data.AccessToken == "" {
		return "", fmt.Errorf("token response missing access_token field")
	}

	return parsed.Data.AccessToken, nil
}

// truncate shortens s to at most n bytes for log-safe error details
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
