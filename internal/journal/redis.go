package journal

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisJournal implements Store with one Redis hash per issue
type RedisJournal struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
	now    func() time.Time
	logger *slog.Logger
}

// NewRedisJournal creates a journal writing hashes named "<prefix>:issue:<id>". A positive ttl
// expires an issue's hash that long after its last update.
func NewRedisJournal(client *redis.Client, prefix string, ttl time.Duration, logger *slog.Logger) *RedisJournal {
	if logger == nil {
		logger = slog.Default()
	}
	return &RedisJournal{
		client: client,
		prefix: prefix,
		ttl:    ttl,
		now:    time.Now,
		logger: logger.With("component", "journal"),
	}
}

// Key returns the hash key for an issue
func (r *RedisJournal) Key(issueID string) string {
	return r.prefix + ":issue:" + issueID
}

// Record stores entry as the latest operation on its issue and bumps the operation counter
func (r *RedisJournal) Record(ctx context.Context, entry Entry) error {
	key := r.Key(entry.IssueID)
	r.logger.Debug("Recording operation",
		"key", key,
		"operation", entry.Operation,
		"outcome", entry.Outcome,
		"attempts", entry.Attempts,
	)

	err := r.client.HSet(ctx, key,
		"lastOperation", entry.Operation,
		"lastOutcome", entry.Outcome,
		"lastAttempts", entry.Attempts,
		"lastError", entry.Error,
		"updatedAt", r.now().UTC().Format(time.RFC3339),
	).Err()
	if err != nil {
		r.logger.Error("Failed to record operation", "key", key, "error", err)
		return fmt.Errorf("error recording operation: %w", err)
	}

	if err := r.client.HIncrBy(ctx, key, "operations", 1).Err(); err != nil {
		r.logger.Error("Failed to increment operation counter", "key", key, "error", err)
		return fmt.Errorf("error incrementing operation counter: %w", err)
	}

	if entry.Outcome == OutcomeFailed {
		if err := r.client.HIncrBy(ctx, key, "failures", 1).Err(); err != nil {
			r.logger.Error("Failed to increment failure counter", "key", key, "error", err)
			return fmt.Errorf("error incrementing failure counter: %w", err)
		}
	}

	if r.ttl > 0 {
		if err := r.client.Expire(ctx, key, r.ttl).Err(); err != nil {
			r.logger.Error("Failed to set journal expiry", "key", key, "error", err)
			return fmt.Errorf("error setting expiry: %w", err)
		}
	}

	return nil
}

// Lookup returns all journaled fields for an issue
func (r *RedisJournal) Lookup(ctx context.Context, issueID string) (map[string]string, error) {
	key := r.Key(issueID)
	data, err := r.client.HGetAll(ctx, key).Result()
	if err != nil {
		r.logger.Error("Failed to read journal", "key", key, "error", err)
		return nil, fmt.Errorf("error reading journal: %w", err)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("%w %s", ErrNotRecorded, issueID)
	}
	return data, nil
}

// Ping checks Redis connectivity
func (r *RedisJournal) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}
