package client

import "context"

// IssueTracker is the adapter-level view of a remote issue tracker
type IssueTracker interface {
	// VerifyConnectivity performs a who-am-I call and returns the raw failure, if any
	VerifyConnectivity(ctx context.Context) error

	// UpdateIssue appends comment as a note on the issue
	UpdateIssue(ctx context.Context, issueID, comment string) error

	// Exists reports whether the issue exists; a missing issue is not an error
	Exists(ctx context.Context, issueID string) (bool, error)

	// PerformAction moves the issue to the status named by action
	PerformAction(ctx context.Context, issueID, action string) error

	// HealthCheckAccess returns a diagnostic naming the authenticated user
	HealthCheckAccess(ctx context.Context) (string, error)

	// HealthCheckSysinfo probes reachability and returns a diagnostic naming url
	HealthCheckSysinfo(ctx context.Context, url string) (string, error)
}
