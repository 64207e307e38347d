// Package its exposes the issue-tracking contract consumed by the review server's hook framework.
// The Facade hides connection lifecycle and transient failures: it builds the Redmine client on
// first use, caches it, and runs every remote call through a bounded retry policy.
package its

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"sync"
	"time"

	"its-redmine/internal/client"
	"its-redmine/internal/journal"
	"its-redmine/internal/redmine"
)

// Plugin-scoped configuration keys
const (
	KeyURL    = "url"
	KeyAPIKey = "apiKey"
)

// DefaultMaxAttempts is the retry budget of a facade operation
const DefaultMaxAttempts = 3

// Operation names used in logs and the journal
const (
	OpHealthCheck   = "health_check"
	OpAddComment    = "add_comment"
	OpExists        = "exists"
	OpPerformAction = "perform_action"
)

// Settings reads plugin-scoped configuration values
type Settings interface {
	PluginString(key string) string
}

// ClientFactory builds an issue tracker client from a base URL and API key
type ClientFactory func(baseURL, apiKey string) (client.IssueTracker, error)

// Journal records the final outcome of operations on an issue
type Journal interface {
	Record(ctx context.Context, entry journal.Entry) error
}

// NewClientFactory returns a factory building Redmine clients with opts
func NewClientFactory(opts redmine.Options) ClientFactory {
	return func(baseURL, apiKey string) (client.IssueTracker, error) {
		c, err := client.NewRedmineClient(baseURL, apiKey, opts)
		if err != nil {
			return nil, err
		}
		return c, nil
	}
}

// Facade is the retrying entry point for issue actions. It is safe for concurrent use.
type Facade struct {
	settings Settings
	factory  ClientFactory
	journal  Journal
	logger   *slog.Logger

	maxAttempts int
	retryDelay  time.Duration
	retryable   func(error) bool

	mu     sync.Mutex
	client client.IssueTracker
}

// NewFacade creates a facade and attempts to build its client right away. A failure here is
// logged only; the next operation tries again.
func NewFacade(settings Settings, factory ClientFactory, opts ...Option) *Facade {
	f := &Facade{
		settings:    settings,
		factory:     factory,
		logger:      slog.Default(),
		maxAttempts: DefaultMaxAttempts,
		retryable:   AlwaysRetry,
	}
	for _, opt := range opts {
		opt(f)
	}
	f.logger = f.logger.With("component", "its_facade")

	f.logger.Debug("Initializing its-redmine", "url", settings.PluginString(KeyURL))
	if _, err := f.ensureClient(); err != nil {
		f.logger.Error("Unable to connect to Redmine", "error", err)
	}
	return f
}

// HealthCheck runs the diagnostic probe selected by check
func (f *Facade) HealthCheck(ctx context.Context, check Check) (string, error) {
	return execute(ctx, f, OpHealthCheck, "", func(c client.IssueTracker) (string, error) {
		if check == CheckAccess {
			return c.HealthCheckAccess(ctx)
		}
		return c.HealthCheckSysinfo(ctx, f.settings.PluginString(KeyURL))
	})
}

// AddComment appends comment to the issue. Empty and whitespace-only comments are ignored.
func (f *Facade) AddComment(ctx context.Context, issueID, comment string) error {
	f.logger.Debug("addComment", "issue_id", issueID, "comment", comment)
	if strings.TrimSpace(comment) == "" {
		return nil
	}
	_, err := execute(ctx, f, OpAddComment, issueID, func(c client.IssueTracker) (struct{}, error) {
		return struct{}{}, c.UpdateIssue(ctx, issueID, comment)
	})
	return err
}

// AddRelatedLink comments a link to relatedURL on the issue
func (f *Facade) AddRelatedLink(ctx context.Context, issueID string, relatedURL *url.URL, description string) error {
	if relatedURL == nil {
		return &client.IOError{Kind: client.KindValidation, Message: "related URL is required"}
	}
	f.logger.Debug("addRelatedLink", "issue_id", issueID, "url", relatedURL.String(), "description", description)
	return f.AddComment(ctx, issueID, "Related URL: "+f.CreateLinkForWebui(relatedURL.String(), description))
}

// CreateLinkForWebui renders a link as plain text: the URL, followed by the text in parentheses
// when it is set and differs from the URL.
func (f *Facade) CreateLinkForWebui(url, text string) string {
	if text != "" && text != url {
		return url + " (" + text + ")"
	}
	return url
}

// Exists reports whether the issue exists
func (f *Facade) Exists(ctx context.Context, issueID string) (bool, error) {
	f.logger.Debug("exists", "issue_id", issueID)
	return execute(ctx, f, OpExists, issueID, func(c client.IssueTracker) (bool, error) {
		return c.Exists(ctx, issueID)
	})
}

// PerformAction moves the issue to the status named by action
func (f *Facade) PerformAction(ctx context.Context, issueID, action string) error {
	f.logger.Debug("performAction", "issue_id", issueID, "action", action)
	_, err := execute(ctx, f, OpPerformAction, issueID, func(c client.IssueTracker) (struct{}, error) {
		return struct{}{}, c.PerformAction(ctx, issueID, action)
	})
	return err
}

// ensureClient returns the cached client, building it from the current settings when absent.
// A failed build is not cached.
func (f *Facade) ensureClient() (client.IssueTracker, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.client != nil {
		return f.client, nil
	}

	baseURL := f.settings.PluginString(KeyURL)
	f.logger.Debug("Connecting to Redmine", "url", baseURL)
	c, err := f.factory(baseURL, f.settings.PluginString(KeyAPIKey))
	if err != nil {
		f.logger.Info("Unable to connect to Redmine", "url", baseURL, "error", err)
		return nil, &client.IOError{
			Kind:    client.KindConstruction,
			Message: fmt.Sprintf("unable to connect to %s", baseURL),
			Err:     err,
		}
	}
	f.client = c
	return c, nil
}

func (f *Facade) record(ctx context.Context, op, issueID string, attempts int, err error) {
	// Only well-formed references are journaled
	if f.journal == nil || !client.ValidIssueID(issueID) {
		return
	}
	entry := journal.Entry{
		IssueID:   issueID,
		Operation: op,
		Outcome:   journal.OutcomeOK,
		Attempts:  attempts,
	}
	if err != nil {
		entry.Outcome = journal.OutcomeFailed
		entry.Error = err.Error()
	}
	if jErr := f.journal.Record(ctx, entry); jErr != nil {
		f.logger.Warn("Failed to journal operation", "operation", op, "issue_id", issueID, "error", jErr)
	}
}
