//go:build unit

package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var okHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusNoContent)
})

func TestAuthenticationMiddleware(t *testing.T) {
	tests := []struct {
		name           string
		settings       AuthSettings
		header         string
		expectedStatus int
	}{
		{name: "disabled", settings: AuthSettings{}, expectedStatus: http.StatusNoContent},
		{name: "missing token", settings: AuthSettings{Enabled: true, Token: "s3cret"}, expectedStatus: http.StatusUnauthorized},
		{name: "wrong scheme", settings: AuthSettings{Enabled: true, Token: "s3cret"}, header: "Basic s3cret", expectedStatus: http.StatusUnauthorized},
		{name: "wrong token", settings: AuthSettings{Enabled: true, Token: "s3cret"}, header: "Bearer nope", expectedStatus: http.StatusUnauthorized},
		{name: "no configured token", settings: AuthSettings{Enabled: true}, header: "Bearer anything", expectedStatus: http.StatusUnauthorized},
		{name: "valid token", settings: AuthSettings{Enabled: true, Token: "s3cret"}, header: "Bearer s3cret", expectedStatus: http.StatusNoContent},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/issues/1/comments", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()

			AuthenticationMiddleware(tt.settings, nil)(okHandler).ServeHTTP(w, req)
			assert.Equal(t, tt.expectedStatus, w.Code)
		})
	}
}

func TestLoggingMiddleware_RequestID(t *testing.T) {
	var seen string
	handler := LoggingMiddleware(nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = RequestID(r.Context())
	}))

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/issues/1", nil))
	_, err := uuid.Parse(seen)
	require.NoError(t, err)
	assert.Equal(t, seen, w.Header().Get(RequestIDHeader))

	req := httptest.NewRequest(http.MethodGet, "/issues/1", nil)
	req.Header.Set(RequestIDHeader, "upstream-id")
	w = httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	assert.Equal(t, "upstream-id", seen)
	assert.Equal(t, "upstream-id", w.Header().Get(RequestIDHeader))
}

func TestChain_SecurityHeaders(t *testing.T) {
	h := Chain(okHandler, SecurityHeadersMiddleware(), LoggingMiddleware(nil))
	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "DENY", w.Header().Get("X-Frame-Options"))
	assert.NotEmpty(t, w.Header().Get(RequestIDHeader))
}
