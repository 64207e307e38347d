package client

import (
	"errors"
	"fmt"
)

// ErrorKind classifies an IOError
type ErrorKind int

const (
	// KindRemote covers transport, authentication and malformed-response failures
	KindRemote ErrorKind = iota
	// KindValidation is an invalid issue id or an action that matches no status
	KindValidation
	// KindNotFound means Redmine reported the issue as missing on an update
	KindNotFound
	// KindConstruction means no client could be built from the current configuration
	KindConstruction
)

func (k ErrorKind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindNotFound:
		return "not_found"
	case KindConstruction:
		return "construction"
	default:
		return "remote"
	}
}

// IOError is the single failure channel surfaced to callers of the adapter
type IOError struct {
	Kind    ErrorKind
	Message string
	Err     error
}

func (e *IOError) Error() string {
	switch {
	case e.Message != "" && e.Err != nil:
		return e.Message + ": " + e.Err.Error()
	case e.Message != "":
		return e.Message
	case e.Err != nil:
		return e.Err.Error()
	default:
		return e.Kind.String() + " failure"
	}
}

func (e *IOError) Unwrap() error {
	return e.Err
}

// ActionError is a domain failure: the requested action cannot be executed on the issue
type ActionError struct {
	IssueID string
	Action  string
	Reason  string
}

func (e *ActionError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("action %q not executable on issue %s: %s", e.Action, e.IssueID, e.Reason)
	}
	return fmt.Sprintf("action %q not executable on issue %s", e.Action, e.IssueID)
}

func newIOError(kind ErrorKind, err error, format string, args ...interface{}) *IOError {
	return &IOError{Kind: kind, Message: fmt.Sprintf(format, args...), Err: err}
}

// AsIOError normalizes err into an IOError. An IOError anywhere in the chain is returned as is,
// an ActionError becomes a validation failure and everything else a remote failure.
func AsIOError(err error) *IOError {
	if err == nil {
		return nil
	}
	var ioErr *IOError
	if errors.As(err, &ioErr) {
		return ioErr
	}
	var actionErr *ActionError
	if errors.As(err, &actionErr) {
		return &IOError{Kind: KindValidation, Err: err}
	}
	return &IOError{Kind: KindRemote, Err: err}
}

// KindOf reports the kind of a non-nil err after normalization
func KindOf(err error) (ErrorKind, bool) {
	if err == nil {
		return 0, false
	}
	return AsIOError(err).Kind, true
}
