//go:build unit

package journal

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2025, 3, 14, 9, 26, 53, 0, time.UTC)

func newTestJournal(ttl time.Duration) (*RedisJournal, redismock.ClientMock) {
	client, mock := redismock.NewClientMock()
	j := NewRedisJournal(client, "its-redmine", ttl, nil)
	j.now = func() time.Time { return fixedNow }
	return j, mock
}

// TestRedisJournal_Record tests journal writes
func TestRedisJournal_Record(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name        string
		entry       Entry
		ttl         time.Duration
		setupMock   func(mock redismock.ClientMock)
		expectError bool
	}{
		{
			name:  "successful operation without ttl",
			entry: Entry{IssueID: "42", Operation: "add_comment", Outcome: OutcomeOK, Attempts: 1},
			setupMock: func(mock redismock.ClientMock) {
				mock.ExpectHSet("its-redmine:issue:42",
					"lastOperation", "add_comment",
					"lastOutcome", "ok",
					"lastAttempts", 1,
					"lastError", "",
					"updatedAt", "2025-03-14T09:26:53Z",
				).SetVal(5)
				mock.ExpectHIncrBy("its-redmine:issue:42", "operations", 1).SetVal(1)
			},
		},
		{
			name: "failed operation with ttl",
			entry: Entry{
				IssueID:   "7",
				Operation: "perform_action",
				Outcome:   OutcomeFailed,
				Attempts:  3,
				Error:     "connection refused",
			},
			ttl: time.Hour,
			setupMock: func(mock redismock.ClientMock) {
				mock.ExpectHSet("its-redmine:issue:7",
					"lastOperation", "perform_action",
					"lastOutcome", "failed",
					"lastAttempts", 3,
					"lastError", "connection refused",
					"updatedAt", "2025-03-14T09:26:53Z",
				).SetVal(0)
				mock.ExpectHIncrBy("its-redmine:issue:7", "operations", 1).SetVal(4)
				mock.ExpectHIncrBy("its-redmine:issue:7", "failures", 1).SetVal(2)
				mock.ExpectExpire("its-redmine:issue:7", time.Hour).SetVal(true)
			},
		},
		{
			name:  "redis unavailable",
			entry: Entry{IssueID: "42", Operation: "exists", Outcome: OutcomeOK, Attempts: 1},
			setupMock: func(mock redismock.ClientMock) {
				mock.ExpectHSet("its-redmine:issue:42",
					"lastOperation", "exists",
					"lastOutcome", "ok",
					"lastAttempts", 1,
					"lastError", "",
					"updatedAt", "2025-03-14T09:26:53Z",
				).SetErr(errors.New("connection refused"))
			},
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			j, mock := newTestJournal(tt.ttl)
			tt.setupMock(mock)

			err := j.Record(ctx, tt.entry)
			if tt.expectError {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

// TestRedisJournal_Lookup tests journal reads
func TestRedisJournal_Lookup(t *testing.T) {
	ctx := context.Background()

	t.Run("recorded issue", func(t *testing.T) {
		j, mock := newTestJournal(0)
		stored := map[string]string{"lastOperation": "exists", "lastOutcome": "ok", "operations": "3"}
		mock.ExpectHGetAll("its-redmine:issue:42").SetVal(stored)

		data, err := j.Lookup(ctx, "42")
		require.NoError(t, err)
		assert.Equal(t, stored, data)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("unknown issue", func(t *testing.T) {
		j, mock := newTestJournal(0)
		mock.ExpectHGetAll("its-redmine:issue:99").SetVal(map[string]string{})

		data, err := j.Lookup(ctx, "99")
		assert.Nil(t, data)
		assert.ErrorIs(t, err, ErrNotRecorded)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

// TestRedisJournal_Ping tests the connectivity probe
func TestRedisJournal_Ping(t *testing.T) {
	j, mock := newTestJournal(0)
	mock.ExpectPing().SetVal("PONG")
	assert.NoError(t, j.Ping(context.Background()))

	mock.ExpectPing().SetErr(errors.New("dial tcp: connection refused"))
	assert.Error(t, j.Ping(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}
