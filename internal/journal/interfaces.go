package journal

import (
	"context"
	"errors"
)

// Outcome values stored in lastOutcome
const (
	OutcomeOK     = "ok"
	OutcomeFailed = "failed"
)

// ErrNotRecorded is returned by Lookup when no operation was journaled for the issue
var ErrNotRecorded = errors.New("no journal entry for issue")

// Entry describes the final result of one facade operation on an issue
type Entry struct {
	IssueID   string
	Operation string
	Outcome   string
	Attempts  int
	Error     string
}

// Store defines persistence for the per-issue action journal
type Store interface {
	// Record stores entry as the latest operation on its issue
	Record(ctx context.Context, entry Entry) error

	// Lookup returns the journaled fields for an issue
	Lookup(ctx context.Context, issueID string) (map[string]string, error)

	// Ping checks that the backing store is reachable
	Ping(ctx context.Context) error
}
