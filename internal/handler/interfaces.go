package handler

import (
	"context"
	"net/http"
	"net/url"

	"its-redmine/internal/its"
)

// IssueFacade is the issue-tracking contract served over HTTP
type IssueFacade interface {
	HealthCheck(ctx context.Context, check its.Check) (string, error)
	AddComment(ctx context.Context, issueID, comment string) error
	AddRelatedLink(ctx context.Context, issueID string, relatedURL *url.URL, description string) error
	Exists(ctx context.Context, issueID string) (bool, error)
	PerformAction(ctx context.Context, issueID, action string) error
}

// JournalReader reads the operation journal of an issue
type JournalReader interface {
	Lookup(ctx context.Context, issueID string) (map[string]string, error)
}

// Pinger checks connectivity of a backing store
type Pinger interface {
	Ping(ctx context.Context) error
}

// ResponseWriter wraps HTTP response writing functionality
type ResponseWriter interface {
	// WriteSuccess writes a successful response with headers and body
	WriteSuccess(w http.ResponseWriter, payload interface{}, headers map[string]string) error

	// WriteError writes an error response with appropriate status code
	WriteError(w http.ResponseWriter, message string, statusCode int) error
}
