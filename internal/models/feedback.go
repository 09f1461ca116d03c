package models

import (
	"fmt"
	"strings"
	"time"
)

// FeedbackAction is the kind of disposition a reviewer records.
type FeedbackAction string

const (
	FeedbackAccept FeedbackAction = "accept"
	FeedbackReject FeedbackAction = "reject"
	FeedbackEdit   FeedbackAction = "edit"
)

// ParseFeedbackAction parses an action name (case-insensitive).
func ParseFeedbackAction(s string) (FeedbackAction, error) {
	a := FeedbackAction(strings.ToLower(strings.TrimSpace(s)))
	if !a.Valid() {
		return "", &ValidationError{Field: "action", Message: fmt.Sprintf("unknown action %q (use: accept, reject, edit)", s)}
	}
	return a, nil
}

// Valid reports whether a is one of the recognized actions.
func (a FeedbackAction) Valid() bool {
	switch a {
	case FeedbackAccept, FeedbackReject, FeedbackEdit:
		return true
	default:
		return false
	}
}

// TargetStatus is the terminal status a confirmed action leads to.
func (a FeedbackAction) TargetStatus() SuggestionStatus {
	switch a {
	case FeedbackAccept:
		return SuggestionStatusAccepted
	case FeedbackReject:
		return SuggestionStatusRejected
	case FeedbackEdit:
		return SuggestionStatusEdited
	default:
		return ""
	}
}

// FeedbackRecord is the body of POST /feedback. Absent optional fields are
// encoded as null so the backend can tell "not given" from malformed input.
type FeedbackRecord struct {
	ReviewID         string         `json:"review_id"`
	SuggestionID     string         `json:"suggestion_id"`
	Action           FeedbackAction `json:"action"`
	Reason           *string        `json:"reason"`
	EditedSuggestion *string        `json:"edited_suggestion"`
}

// AttemptOutcome is the result of one remote feedback submission.
type AttemptOutcome string

const (
	AttemptConfirmed AttemptOutcome = "confirmed"
	AttemptFailed    AttemptOutcome = "failed"
)

// FeedbackAttempt is a local journal entry for one submission round trip.
type FeedbackAttempt struct {
	ID           string         `json:"id"`
	ReviewID     string         `json:"review_id"`
	SuggestionID string         `json:"suggestion_id"`
	Action       FeedbackAction `json:"action"`
	Outcome      AttemptOutcome `json:"outcome"`
	Detail       string         `json:"detail,omitempty"`
	CreatedAt    time.Time      `json:"created_at"`
}
