//go:build unit

package client

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"its-redmine/internal/redmine"
)

// MockManager is a mock implementation of redmine.Manager
type MockManager struct {
	mock.Mock
}

func (m *MockManager) GetCurrentUser(ctx context.Context) (*redmine.User, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*redmine.User), args.Error(1)
}

func (m *MockManager) GetIssueByID(ctx context.Context, id int) (*redmine.Issue, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*redmine.Issue), args.Error(1)
}

func (m *MockManager) UpdateIssue(ctx context.Context, id int, update redmine.IssueUpdate) error {
	args := m.Called(ctx, id, update)
	return args.Error(0)
}

func (m *MockManager) GetStatuses(ctx context.Context) ([]redmine.IssueStatus, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]redmine.IssueStatus), args.Error(1)
}

var testStatuses = []redmine.IssueStatus{
	{ID: 1, Name: "New"},
	{ID: 2, Name: "In Progress"},
	{ID: 3, Name: "Resolved"},
	{ID: 5, Name: "Closed", IsClosed: true},
	{ID: 9, Name: "resolved"},
}

func newTestClient() (*RedmineClient, *MockManager) {
	mgr := new(MockManager)
	return NewRedmineClientWithManager(mgr, nil), mgr
}

// TestRedmineClient_InvalidIssueIDs tests that malformed references never reach Redmine
func TestRedmineClient_InvalidIssueIDs(t *testing.T) {
	ctx := context.Background()
	invalid := []string{"", "abc", "12a", "-5", " 42", "42 ", "#42", "4.2", "99999999999999999999999"}

	for _, issueID := range invalid {
		t.Run(fmt.Sprintf("issue_%q", issueID), func(t *testing.T) {
			c, mgr := newTestClient()

			errs := []error{
				c.UpdateIssue(ctx, issueID, "comment"),
				c.PerformAction(ctx, issueID, "Resolved"),
			}
			_, existsErr := c.Exists(ctx, issueID)
			errs = append(errs, existsErr)

			for _, err := range errs {
				require.Error(t, err)
				var ioErr *IOError
				require.True(t, errors.As(err, &ioErr))
				assert.Equal(t, KindValidation, ioErr.Kind)
				assert.Contains(t, err.Error(), "is not a valid issue id")
			}

			mgr.AssertNotCalled(t, "GetIssueByID", mock.Anything, mock.Anything)
			mgr.AssertNotCalled(t, "UpdateIssue", mock.Anything, mock.Anything, mock.Anything)
			mgr.AssertNotCalled(t, "GetStatuses", mock.Anything)
		})
	}
}

// TestRedmineClient_UpdateIssue tests note updates and remote failure wrapping
func TestRedmineClient_UpdateIssue(t *testing.T) {
	ctx := context.Background()

	t.Run("note appended", func(t *testing.T) {
		c, mgr := newTestClient()
		mgr.On("UpdateIssue", ctx, 42, redmine.IssueUpdate{Notes: "Change merged"}).Return(nil).Once()

		assert.NoError(t, c.UpdateIssue(ctx, "42", "Change merged"))
		mgr.AssertExpectations(t)
	})

	t.Run("remote failure wrapped", func(t *testing.T) {
		c, mgr := newTestClient()
		cause := errors.New("connection refused")
		mgr.On("UpdateIssue", ctx, 42, mock.Anything).Return(cause).Once()

		err := c.UpdateIssue(ctx, "42", "Change merged")
		var ioErr *IOError
		require.True(t, errors.As(err, &ioErr))
		assert.Equal(t, KindRemote, ioErr.Kind)
		assert.ErrorIs(t, err, cause)
	})

	t.Run("missing issue", func(t *testing.T) {
		c, mgr := newTestClient()
		mgr.On("UpdateIssue", ctx, 999, mock.Anything).
			Return(fmt.Errorf("update issue 999: %w", redmine.ErrNotFound)).Once()

		err := c.UpdateIssue(ctx, "999", "hello")
		var ioErr *IOError
		require.True(t, errors.As(err, &ioErr))
		assert.Equal(t, KindNotFound, ioErr.Kind)
		assert.ErrorIs(t, err, redmine.ErrNotFound)
	})
}

// TestRedmineClient_Exists tests the existence check
func TestRedmineClient_Exists(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name           string
		mockIssue      *redmine.Issue
		mockErr        error
		expectedExists bool
		expectIOError  bool
	}{
		{
			name:           "issue exists",
			mockIssue:      &redmine.Issue{ID: 7, Subject: "Broken build"},
			expectedExists: true,
		},
		{
			name:           "not found is a negative result",
			mockErr:        fmt.Errorf("get issue 7: %w", redmine.ErrNotFound),
			expectedExists: false,
		},
		{
			name:          "server error",
			mockErr:       &redmine.StatusError{Code: 500},
			expectIOError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, mgr := newTestClient()
			if tt.mockIssue != nil {
				mgr.On("GetIssueByID", ctx, 7).Return(tt.mockIssue, nil).Once()
			} else {
				mgr.On("GetIssueByID", ctx, 7).Return(nil, tt.mockErr).Once()
			}

			exists, err := c.Exists(ctx, "7")
			if tt.expectIOError {
				var ioErr *IOError
				require.True(t, errors.As(err, &ioErr))
				assert.Equal(t, KindRemote, ioErr.Kind)
				assert.False(t, exists)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tt.expectedExists, exists)
			mgr.AssertExpectations(t)
		})
	}
}

// TestRedmineClient_PerformAction tests status transitions
func TestRedmineClient_PerformAction(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name             string
		action           string
		expectedStatusID int
		expectedErr      string
	}{
		{name: "case-insensitive name", action: "resolved", expectedStatusID: 3},
		{name: "first match wins on duplicates", action: "RESOLVED", expectedStatusID: 3},
		{name: "name with spaces", action: "in progress", expectedStatusID: 2},
		{name: "numeric status id", action: "5", expectedStatusID: 5},
		{name: "set-status prefix", action: "set-status Closed", expectedStatusID: 5},
		{name: "setStatus prefix", action: "  setStatus New ", expectedStatusID: 1},
		{name: "unknown status", action: "not-a-status", expectedErr: `action "not-a-status" not executable on issue 11`},
		{name: "unknown numeric status", action: "4", expectedErr: "not executable on issue 11"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, mgr := newTestClient()
			mgr.On("GetStatuses", ctx).Return(testStatuses, nil).Once()
			if tt.expectedErr == "" {
				mgr.On("UpdateIssue", ctx, 11, redmine.IssueUpdate{StatusID: tt.expectedStatusID}).Return(nil).Once()
			}

			err := c.PerformAction(ctx, "11", tt.action)
			if tt.expectedErr != "" {
				var actionErr *ActionError
				require.True(t, errors.As(err, &actionErr))
				assert.Contains(t, err.Error(), tt.expectedErr)
				mgr.AssertNotCalled(t, "UpdateIssue", mock.Anything, mock.Anything, mock.Anything)
				return
			}
			require.NoError(t, err)
			mgr.AssertExpectations(t)
			mgr.AssertNumberOfCalls(t, "UpdateIssue", 1)
		})
	}
}

// TestRedmineClient_PerformAction_EmptyStatus tests that a bare prefix is rejected before any remote call
func TestRedmineClient_PerformAction_EmptyStatus(t *testing.T) {
	c, mgr := newTestClient()

	err := c.PerformAction(context.Background(), "11", "set-status   ")
	var actionErr *ActionError
	require.True(t, errors.As(err, &actionErr))
	assert.Contains(t, err.Error(), "status is empty")
	mgr.AssertNotCalled(t, "GetStatuses", mock.Anything)
}

// TestRedmineClient_PerformAction_StatusListFailure tests that a failed status lookup is an IO failure
func TestRedmineClient_PerformAction_StatusListFailure(t *testing.T) {
	ctx := context.Background()
	c, mgr := newTestClient()
	mgr.On("GetStatuses", ctx).Return(nil, errors.New("timeout")).Once()

	err := c.PerformAction(ctx, "11", "Resolved")
	var ioErr *IOError
	require.True(t, errors.As(err, &ioErr))
	assert.Equal(t, KindRemote, ioErr.Kind)
	mgr.AssertNotCalled(t, "UpdateIssue", mock.Anything, mock.Anything, mock.Anything)
}

// TestRedmineClient_PerformAction_MissingIssue tests that a 404 on the status update is a not-found failure
func TestRedmineClient_PerformAction_MissingIssue(t *testing.T) {
	ctx := context.Background()
	c, mgr := newTestClient()
	mgr.On("GetStatuses", ctx).Return(testStatuses, nil).Once()
	mgr.On("UpdateIssue", ctx, 999, redmine.IssueUpdate{StatusID: 5}).
		Return(fmt.Errorf("update issue 999: %w", redmine.ErrNotFound)).Once()

	err := c.PerformAction(ctx, "999", "Closed")
	var ioErr *IOError
	require.True(t, errors.As(err, &ioErr))
	assert.Equal(t, KindNotFound, ioErr.Kind)
}

// TestValidIssueID tests the issue reference check
func TestValidIssueID(t *testing.T) {
	assert.True(t, ValidIssueID("42"))
	assert.False(t, ValidIssueID("abc"))
	assert.False(t, ValidIssueID(""))
	assert.False(t, ValidIssueID("99999999999999999999999"))
}

// TestRedmineClient_HealthChecks tests the diagnostic strings and failure wrapping
func TestRedmineClient_HealthChecks(t *testing.T) {
	ctx := context.Background()

	c, mgr := newTestClient()
	mgr.On("GetCurrentUser", ctx).Return(&redmine.User{ID: 1, Login: "gerrit"}, nil).Twice()

	access, err := c.HealthCheckAccess(ctx)
	require.NoError(t, err)
	assert.Equal(t, `{"status"="ok","username"="gerrit"}`, access)

	sysinfo, err := c.HealthCheckSysinfo(ctx, "https://redmine.example.com")
	require.NoError(t, err)
	assert.Equal(t, `{"status"="ok","system"="Redmine","url"="https://redmine.example.com"}`, sysinfo)

	failing, failingMgr := newTestClient()
	cause := &redmine.StatusError{Code: 401}
	failingMgr.On("GetCurrentUser", ctx).Return(nil, cause)

	_, err = failing.HealthCheckAccess(ctx)
	assert.Equal(t, KindRemote, AsIOError(err).Kind)
	_, err = failing.HealthCheckSysinfo(ctx, "https://redmine.example.com")
	assert.ErrorIs(t, err, cause)

	// connectivity failures are returned unchanged
	assert.Same(t, cause, failing.VerifyConnectivity(ctx))
}

// TestAsIOError tests failure normalization
func TestAsIOError(t *testing.T) {
	ioErr := &IOError{Kind: KindConstruction, Message: "no client"}
	assert.Same(t, ioErr, AsIOError(ioErr))
	assert.Same(t, ioErr, AsIOError(fmt.Errorf("wrapped: %w", ioErr)))

	actionErr := &ActionError{IssueID: "1", Action: "x"}
	assert.Equal(t, KindValidation, AsIOError(actionErr).Kind)
	assert.ErrorIs(t, AsIOError(actionErr), actionErr)

	plain := errors.New("boom")
	assert.Equal(t, KindRemote, AsIOError(plain).Kind)
	assert.Nil(t, AsIOError(nil))

	_, ok := KindOf(nil)
	assert.False(t, ok)
	kind, ok := KindOf(actionErr)
	assert.True(t, ok)
	assert.Equal(t, "validation", kind.String())
}
