package middleware

import (
	"crypto/subtle"
	"log/slog"
	"net/http"
	"strings"
)

// AuthSettings is the part of the configuration the authentication middleware reads
type AuthSettings struct {
	Enabled bool
	Token   string
}

// AuthenticationMiddleware creates middleware for bearer token authentication
func AuthenticationMiddleware(settings AuthSettings, logger *slog.Logger) func(http.Handler) http.Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// Check if authentication is enabled
			if !settings.Enabled {
				next.ServeHTTP(w, r)
				return
			}

			// Extract bearer token from Authorization header
			token := extractBearerToken(r)
			if token == "" {
				logger.Warn("Request missing bearer token",
					"method", r.Method,
					"path", r.URL.Path,
					"remote_addr", r.RemoteAddr,
					"request_id", RequestID(r.Context()),
				)
				http.Error(w, "Unauthorized: Bearer token required", http.StatusUnauthorized)
				return
			}

			// Validate token
			if !validateToken(token, settings.Token) {
				logger.Warn("Invalid bearer token provided",
					"method", r.Method,
					"path", r.URL.Path,
					"remote_addr", r.RemoteAddr,
					"request_id", RequestID(r.Context()),
				)
				http.Error(w, "Unauthorized: Invalid token", http.StatusUnauthorized)
				return
			}

			// Authentication successful, proceed to next handler
			next.ServeHTTP(w, r)
		})
	}
}

// extractBearerToken extracts the bearer token from the Authorization header
func extractBearerToken(r *http.Request) string {
	const bearerPrefix = "Bearer "
	authHeader := r.Header.Get("Authorization")
	if !strings.HasPrefix(authHeader, bearerPrefix) {
		return ""
	}
	return strings.TrimSpace(authHeader[len(bearerPrefix):])
}

// validateToken validates the bearer token against the configured token. An unset token rejects everything.
func validateToken(token, expectedToken string) bool {
	if expectedToken == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(token), []byte(expectedToken)) == 1
}
