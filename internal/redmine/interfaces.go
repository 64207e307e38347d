package redmine

import (
	"context"
	"errors"
	"fmt"
)

// ErrNotFound is returned when Redmine answers 404 for the requested resource
var ErrNotFound = errors.New("redmine: resource not found")

// User represents the account the API key authenticates as
type User struct {
	ID        int    `json:"id"`
	Login     string `json:"login"`
	FirstName string `json:"firstname"`
	LastName  string `json:"lastname"`
}

// IDName is the {id, name} reference Redmine embeds in issue payloads
type IDName struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// Issue represents a Redmine issue
type Issue struct {
	ID      int     `json:"id"`
	Subject string  `json:"subject"`
	Project *IDName `json:"project,omitempty"`
	Status  *IDName `json:"status,omitempty"`
}

// IssueStatus is one entry of the server's status enumeration
type IssueStatus struct {
	ID       int    `json:"id"`
	Name     string `json:"name"`
	IsClosed bool   `json:"is_closed"`
}

func (s IssueStatus) String() string {
	return fmt.Sprintf("%s (%d)", s.Name, s.ID)
}

// IssueUpdate carries the fields sent on PUT /issues/{id}.json. Zero values are omitted.
type IssueUpdate struct {
	Notes    string `json:"notes,omitempty"`
	StatusID int    `json:"status_id,omitempty"`
}

// Manager is the narrow surface of the Redmine REST API used by the adapter
type Manager interface {
	// GetCurrentUser returns the user the API key belongs to
	GetCurrentUser(ctx context.Context) (*User, error)

	// GetIssueByID fetches an issue; ErrNotFound when it does not exist
	GetIssueByID(ctx context.Context, id int) (*Issue, error)

	// UpdateIssue applies the update to an existing issue
	UpdateIssue(ctx context.Context, id int, update IssueUpdate) error

	// GetStatuses lists the issue statuses in server order
	GetStatuses(ctx context.Context) ([]IssueStatus, error)
}
