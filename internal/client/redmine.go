package client

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strconv"
	"strings"

	"its-redmine/internal/redmine"
)

var (
	issueIDPattern = regexp.MustCompile(`^\d+$`)

	// setStatusPrefixes are accepted in front of the target status name
	setStatusPrefixes = []string{"set-status", "set_status", "setStatus"}
)

// RedmineClient owns one connection to a Redmine server and implements IssueTracker
type RedmineClient struct {
	mgr    redmine.Manager
	logger *slog.Logger
}

// NewRedmineClient builds a client bound to baseURL with apiKey. No request is sent; reachability
// is checked by the first real call.
func NewRedmineClient(baseURL, apiKey string, opts redmine.Options) (*RedmineClient, error) {
	mgr, err := redmine.NewRESTManager(baseURL, apiKey, opts)
	if err != nil {
		return nil, err
	}
	return NewRedmineClientWithManager(mgr, opts.Logger), nil
}

// NewRedmineClientWithManager wraps an existing Manager
func NewRedmineClientWithManager(mgr redmine.Manager, logger *slog.Logger) *RedmineClient {
	if logger == nil {
		logger = slog.Default()
	}
	return &RedmineClient{
		mgr:    mgr,
		logger: logger.With("component", "redmine_client"),
	}
}

// VerifyConnectivity performs the who-am-I call. The failure is returned unchanged so a setup
// wizard can show the raw cause.
func (c *RedmineClient) VerifyConnectivity(ctx context.Context) error {
	_, err := c.mgr.GetCurrentUser(ctx)
	return err
}

// UpdateIssue appends comment as a note on the issue
func (c *RedmineClient) UpdateIssue(ctx context.Context, issueID, comment string) error {
	id, err := c.convertIssueID(issueID)
	if err != nil {
		return err
	}

	c.logger.Debug("Adding note to issue", "issue_id", id, "comment_length", len(comment))
	if err := c.mgr.UpdateIssue(ctx, id, redmine.IssueUpdate{Notes: comment}); err != nil {
		c.logger.Error("Failed to update issue", "issue_id", id, "error", err)
		return newIOError(remoteKind(err), err, "updating issue %s", issueID)
	}
	return nil
}

// Exists reports whether the issue exists. A not-found answer is a normal negative result.
func (c *RedmineClient) Exists(ctx context.Context, issueID string) (bool, error) {
	id, err := c.convertIssueID(issueID)
	if err != nil {
		return false, err
	}

	issue, err := c.mgr.GetIssueByID(ctx, id)
	if err != nil {
		if errors.Is(err, redmine.ErrNotFound) {
			c.logger.Debug("Issue doesn't exist", "issue_id", id, "error", err)
			return false, nil
		}
		c.logger.Error("Failed to fetch issue", "issue_id", id, "error", err)
		return false, newIOError(KindRemote, err, "checking issue %s", issueID)
	}
	return issue != nil, nil
}

// PerformAction moves the issue to the status named by action. The status list is fetched on
// every call and the first match in server order wins.
func (c *RedmineClient) PerformAction(ctx context.Context, issueID, action string) error {
	id, err := c.convertIssueID(issueID)
	if err != nil {
		return err
	}

	status, err := parseStatusAction(action)
	if err != nil {
		return &ActionError{IssueID: issueID, Action: action, Reason: err.Error()}
	}

	statuses, err := c.mgr.GetStatuses(ctx)
	if err != nil {
		c.logger.Error("Failed to list issue statuses", "error", err)
		return newIOError(KindRemote, err, "listing statuses for issue %s", issueID)
	}

	match, ok := findStatus(statuses, status)
	if !ok {
		c.logger.Error("Status not found", "status", status, "issue_id", id)
		return &ActionError{IssueID: issueID, Action: action}
	}

	c.logger.Debug("Executing action setStatus", "status", match.Name, "status_id", match.ID, "issue_id", id)
	if err := c.mgr.UpdateIssue(ctx, id, redmine.IssueUpdate{StatusID: match.ID}); err != nil {
		c.logger.Error("Failed to set issue status", "issue_id", id, "status_id", match.ID, "error", err)
		return newIOError(remoteKind(err), err, "setting status of issue %s", issueID)
	}
	return nil
}

// HealthCheckAccess returns {"status"="ok","username"="<login>"}
func (c *RedmineClient) HealthCheckAccess(ctx context.Context) (string, error) {
	user, err := c.mgr.GetCurrentUser(ctx)
	if err != nil {
		return "", newIOError(KindRemote, err, "health check on access")
	}
	result := fmt.Sprintf(`{"status"="ok","username"=%q}`, user.Login)
	c.logger.Debug("Health check on access", "result", result)
	return result, nil
}

// HealthCheckSysinfo probes reachability and returns {"status"="ok","system"="Redmine","url"="<url>"}
func (c *RedmineClient) HealthCheckSysinfo(ctx context.Context, url string) (string, error) {
	if _, err := c.mgr.GetCurrentUser(ctx); err != nil {
		return "", newIOError(KindRemote, err, "health check on sysinfo")
	}
	result := fmt.Sprintf(`{"status"="ok","system"="Redmine","url"=%q}`, url)
	c.logger.Debug("Health check on sysinfo", "result", result)
	return result, nil
}

// ValidIssueID reports whether issueID is a well-formed Redmine issue reference
func ValidIssueID(issueID string) bool {
	if !issueIDPattern.MatchString(issueID) {
		return false
	}
	_, err := strconv.Atoi(issueID)
	return err == nil
}

// remoteKind classifies a failure of a call on an existing issue id
func remoteKind(err error) ErrorKind {
	if errors.Is(err, redmine.ErrNotFound) {
		return KindNotFound
	}
	return KindRemote
}

// convertIssueID validates the reference before any remote call
func (c *RedmineClient) convertIssueID(issueID string) (int, error) {
	if !issueIDPattern.MatchString(issueID) {
		c.logger.Warn("Issue is not a valid issue id", "issue_id", issueID)
		return 0, newIOError(KindValidation, nil, "issue %s is not a valid issue id", issueID)
	}
	id, err := strconv.Atoi(issueID)
	if err != nil {
		c.logger.Warn("Issue id out of range", "issue_id", issueID)
		return 0, newIOError(KindValidation, err, "issue %s is not a valid issue id", issueID)
	}
	return id, nil
}

// parseStatusAction strips an optional set-status prefix and returns the target status
func parseStatusAction(action string) (string, error) {
	action = strings.TrimSpace(action)
	for _, prefix := range setStatusPrefixes {
		if strings.HasPrefix(action, prefix) {
			action = strings.TrimSpace(action[len(prefix):])
			break
		}
	}
	if action == "" {
		return "", errors.New("status is empty")
	}
	return action, nil
}

func findStatus(statuses []redmine.IssueStatus, status string) (redmine.IssueStatus, bool) {
	statusID := -1
	if issueIDPattern.MatchString(status) {
		if n, err := strconv.Atoi(status); err == nil {
			statusID = n
		}
	}
	for _, s := range statuses {
		if strings.EqualFold(s.Name, status) || s.ID == statusID {
			return s, true
		}
	}
	return redmine.IssueStatus{}, false
}
