package redmine

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	apiKeyHeader   = "X-Redmine-API-Key"
	defaultTimeout = 30 * time.Second
	maxErrorBody   = 512
)

// Options tunes the HTTP transport of a RESTManager
type Options struct {
	Timeout       time.Duration
	SkipTLSVerify bool
	// HTTPClient overrides the client built from Timeout and SkipTLSVerify
	HTTPClient *http.Client
	Logger     *slog.Logger
}

// StatusError reports a non-success HTTP status from Redmine
type StatusError struct {
	Method string
	URL    string
	Code   int
	Body   string
}

func (e *StatusError) Error() string {
	msg := fmt.Sprintf("received non-success status code: %d (%s %s)", e.Code, e.Method, e.URL)
	if e.Body != "" {
		msg += ": " + e.Body
	}
	return msg
}

// RESTManager implements Manager over the Redmine JSON REST API
type RESTManager struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	logger     *slog.Logger
}

// NewRESTManager binds a manager to baseURL using apiKey. It performs no network I/O and fails
// only when baseURL is not an absolute http(s) URL.
func NewRESTManager(baseURL, apiKey string, opts Options) (*RESTManager, error) {
	baseURL = strings.TrimSpace(baseURL)
	if baseURL == "" {
		return nil, fmt.Errorf("redmine URL is not configured")
	}
	parsed, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid redmine URL %q: %w", baseURL, err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return nil, fmt.Errorf("invalid redmine URL %q: scheme must be http or https", baseURL)
	}
	if parsed.Host == "" {
		return nil, fmt.Errorf("invalid redmine URL %q: missing host", baseURL)
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	httpClient := opts.HTTPClient
	if httpClient == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = defaultTimeout
		}
		httpClient = &http.Client{Timeout: timeout}
		if opts.SkipTLSVerify {
			logger.Warn("TLS verification disabled for Redmine client", "base_url", baseURL)
			httpClient.Transport = &http.Transport{
				TLSClientConfig: &tls.Config{InsecureSkipVerify: true},
			}
		}
	}

	logger.Debug("Redmine manager created",
		"base_url", baseURL,
		"api_key_configured", apiKey != "",
	)

	return &RESTManager{
		httpClient: httpClient,
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		logger:     logger,
	}, nil
}

// BaseURL returns the normalized base URL the manager talks to
func (m *RESTManager) BaseURL() string {
	return m.baseURL
}

// GetCurrentUser calls GET /users/current.json
func (m *RESTManager) GetCurrentUser(ctx context.Context) (*User, error) {
	var resp struct {
		User User `json:"user"`
	}
	if err := m.do(ctx, http.MethodGet, "/users/current.json", nil, &resp); err != nil {
		return nil, fmt.Errorf("get current user: %w", err)
	}
	return &resp.User, nil
}

// GetIssueByID calls GET /issues/{id}.json
func (m *RESTManager) GetIssueByID(ctx context.Context, id int) (*Issue, error) {
	var resp struct {
		Issue Issue `json:"issue"`
	}
	if err := m.do(ctx, http.MethodGet, fmt.Sprintf("/issues/%d.json", id), nil, &resp); err != nil {
		return nil, fmt.Errorf("get issue %d: %w", id, err)
	}
	return &resp.Issue, nil
}

// UpdateIssue calls PUT /issues/{id}.json
func (m *RESTManager) UpdateIssue(ctx context.Context, id int, update IssueUpdate) error {
	body := struct {
		Issue IssueUpdate `json:"issue"`
	}{Issue: update}
	if err := m.do(ctx, http.MethodPut, fmt.Sprintf("/issues/%d.json", id), body, nil); err != nil {
		return fmt.Errorf("update issue %d: %w", id, err)
	}
	return nil
}

// GetStatuses calls GET /issue_statuses.json
func (m *RESTManager) GetStatuses(ctx context.Context) ([]IssueStatus, error) {
	var resp struct {
		IssueStatuses []IssueStatus `json:"issue_statuses"`
	}
	if err := m.do(ctx, http.MethodGet, "/issue_statuses.json", nil, &resp); err != nil {
		return nil, fmt.Errorf("list issue statuses: %w", err)
	}
	return resp.IssueStatuses, nil
}

// do sends one request and decodes the JSON answer into result when result is non-nil
func (m *RESTManager) do(ctx context.Context, method, path string, body, result interface{}) error {
	endpoint := m.baseURL + path

	// Convert payload to JSON
	var bodyReader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("error marshaling request: %w", err)
		}
		bodyReader = bytes.NewReader(data)
	}

	// Create request
	req, err := http.NewRequestWithContext(ctx, method, endpoint, bodyReader)
	if err != nil {
		return fmt.Errorf("error creating request: %w", err)
	}
	// Set headers
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if m.apiKey != "" {
		req.Header.Set(apiKeyHeader, m.apiKey)
	}

	// Send request
	m.logger.Debug("Sending request to Redmine", "method", method, "url", endpoint)
	resp, err := m.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("error sending request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	m.logger.Debug("Received response from Redmine",
		"method", method,
		"url", endpoint,
		"status_code", resp.StatusCode,
	)

	// Check response status
	if resp.StatusCode == http.StatusNotFound {
		return fmt.Errorf("%w: %s %s", ErrNotFound, method, endpoint)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &StatusError{
			Method: method,
			URL:    endpoint,
			Code:   resp.StatusCode,
			Body:   strings.TrimSpace(string(snippet)),
		}
	}

	// Decode response body
	if result == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
		return fmt.Errorf("error decoding response: %w", err)
	}
	return nil
}
