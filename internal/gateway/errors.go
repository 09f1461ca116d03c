package gateway

import (
	"errors"
	"fmt"
)

// Kind classifies a failed backend call.
type Kind string

const (
	// KindFetch is a failed read (history, detail, stats).
	KindFetch Kind = "fetch"
	// KindSubmission is a failed write (review request, feedback).
	KindSubmission Kind = "submission"
)

// Error is a failed backend call: a transport error, a timeout, or a
// non-2xx response. Detail carries the backend's message when it sent one.
type Error struct {
	Kind   Kind
	Op     string
	Status int
	Detail string
	Err    error
}

func (e *Error) Error() string {
	if e.Status > 0 {
		return fmt.Sprintf("%s failed: %s: HTTP %d: %s", e.Kind, e.Op, e.Status, e.Detail)
	}
	return fmt.Sprintf("%s failed: %s: %s", e.Kind, e.Op, e.Detail)
}

func (e *Error) Unwrap() error { return e.Err }

// IsSubmissionFailed reports whether err is a failed submission.
func IsSubmissionFailed(err error) bool {
	var gerr *Error
	return errors.As(err, &gerr) && gerr.Kind == KindSubmission
}

// IsFetchFailed reports whether err is a failed fetch.
func IsFetchFailed(err error) bool {
	var gerr *Error
	return errors.As(err, &gerr) && gerr.Kind == KindFetch
}

// StatusCode returns the HTTP status carried by err, or 0.
func StatusCode(err error) int {
	var gerr *Error
	if errors.As(err, &gerr) {
		return gerr.Status
	}
	return 0
}
