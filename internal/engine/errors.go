package engine

import (
	"errors"
	"fmt"
)

// RuntimeError represents an anomaly detected while driving an already
// validated story. These are caller errors (bad index, no puzzle here)
// or authored-data hazards (redirect loop); malformed effects and
// answers inside a call never surface as errors at all, only as result
// log entries.
type RuntimeError struct {
	Code    RuntimeErrorCode
	Message string
	NodeID  string
	Detail  string
}

// RuntimeErrorCode categorizes runtime errors.
type RuntimeErrorCode string

const (
	// ErrCodeUnknownNode indicates a node lookup failed.
	ErrCodeUnknownNode RuntimeErrorCode = "UNKNOWN_NODE"

	// ErrCodeNotStarted indicates the engine has no current node yet.
	ErrCodeNotStarted RuntimeErrorCode = "NOT_STARTED"

	// ErrCodeChoiceUnavailable indicates a choice failed its re-validated
	// availability check.
	ErrCodeChoiceUnavailable RuntimeErrorCode = "CHOICE_UNAVAILABLE"

	// ErrCodeNoPuzzle indicates the current node carries no puzzle.
	ErrCodeNoPuzzle RuntimeErrorCode = "NO_PUZZLE"

	// ErrCodeRedirectDepth indicates on-enter redirects exceeded
	// MaxRedirectDepth, a sign of a redirect loop in authored data.
	ErrCodeRedirectDepth RuntimeErrorCode = "REDIRECT_DEPTH_EXCEEDED"

	// ErrCodeBadSnapshot indicates a restored snapshot does not resolve
	// against the story.
	ErrCodeBadSnapshot RuntimeErrorCode = "BAD_SNAPSHOT"
)

// Error implements the error interface.
func (e *RuntimeError) Error() string {
	if e.NodeID != "" {
		return fmt.Sprintf("%s: %s (node=%s)", e.Code, e.Message, e.NodeID)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// IsChoiceUnavailable reports whether err is an availability rejection.
// Uses errors.As to handle wrapped errors.
func IsChoiceUnavailable(err error) bool {
	var re *RuntimeError
	return errors.As(err, &re) && re.Code == ErrCodeChoiceUnavailable
}

// IsUnknownNode reports whether err is a failed node lookup.
func IsUnknownNode(err error) bool {
	var re *RuntimeError
	return errors.As(err, &re) && re.Code == ErrCodeUnknownNode
}

func newRuntimeError(code RuntimeErrorCode, nodeID, format string, args ...any) *RuntimeError {
	return &RuntimeError{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		NodeID:  nodeID,
	}
}
