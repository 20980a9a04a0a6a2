package sequence

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetToken(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		handler     http.HandlerFunc
		wantToken   string
		wantErr     bool
		errContains string
	}{
		{
			name: "successful token request",
			handler: func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, http.MethodPost, r.Method)
				assert.Equal(t, "sk-test", r.Header.Get("X-API-Key"))
				assert.Equal(t, "application/x-www-form-urlencoded", r.Header.Get("Content-Type"))
				require.NoError(t, r.ParseForm())
				assert.Equal(t, "access_token", r.PostForm.Get("grant_type"))

				w.Header().Set("Content-Type", "application/json")
				_, _ = w.Write([]byte(`{"data":{"access_token":"tok-abc123"}}`))
			},
			wantToken: "tok-abc123",
		},
		{
			name: "non-200 status",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				http.Error(w, "invalid api key", http.StatusUnauthorized)
			},
			wantErr:     true,
			errContains: "token endpoint returned 401",
		},
		{
			name: "malformed body",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				_, _ = w.Write([]byte(`not json`))
			},
			wantErr:     true,
			errContains: "malformed token response",
		},
		{
			name: "missing token field",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				_, _ = w.Write([]byte(`{"data":{}}`))
			},
			wantErr:     true,
			errContains: "missing access_token",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			server := httptest.NewServer(tt.handler)
			t.Cleanup(server.Close)

			provider := NewTokenProvider(server.URL, "sk-test")
			token, err := provider.GetToken(context.Background())

			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errContains)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantToken, token)
		})
	}
}

func TestGetToken_NetworkError(t *testing.T) {
	t.Parallel()

	// Server closed before the call: connection refused
	server := httptest.NewServer(http.HandlerFunc(func(_ http.ResponseWriter, _ *http.Request) {}))
	server.Close()

	provider := NewTokenProvider(server.URL, "sk-test")
	_, err := provider.GetToken(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "token request failed")
}

func TestGetToken_ContextCancelled(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(5 * time.Second):
		}
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(server.Close)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	provider := NewTokenProvider(server.URL, "sk-test")
	_, err := provider.GetToken(ctx)
	require.Error(t, err)
}
