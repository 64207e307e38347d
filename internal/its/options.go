package its

import (
	"log/slog"
	"time"
)

// Option configures a Facade
type Option func(*Facade)

// WithMaxAttempts sets the total number of attempts per operation. Values below 1 are ignored.
func WithMaxAttempts(n int) Option {
	return func(f *Facade) {
		if n >= 1 {
			f.maxAttempts = n
		}
	}
}

// WithRetryDelay waits d between attempts instead of retrying immediately
func WithRetryDelay(d time.Duration) Option {
	return func(f *Facade) {
		f.retryDelay = d
	}
}

// WithRetryClassifier decides which failures are retried
func WithRetryClassifier(retryable func(error) bool) Option {
	return func(f *Facade) {
		if retryable != nil {
			f.retryable = retryable
		}
	}
}

// WithJournal records operation outcomes in j
func WithJournal(j Journal) Option {
	return func(f *Facade) {
		f.journal = j
	}
}

// WithLogger sets the logger
func WithLogger(logger *slog.Logger) Option {
	return func(f *Facade) {
		if logger != nil {
			f.logger = logger
		}
	}
}
