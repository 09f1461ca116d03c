package feedback

import (
	"errors"
	"fmt"

	"github.com/joescharf/crf/internal/models"
)

var (
	// ErrNoReview means no review has been loaded into the session.
	ErrNoReview = errors.New("no review loaded")
	// ErrReviewMismatch means the review id is not the loaded review.
	ErrReviewMismatch = errors.New("review is not the current review")
	// ErrSuggestionNotFound means the suggestion id is not in the loaded review.
	ErrSuggestionNotFound = errors.New("suggestion not found")
	// ErrAlreadyActioned means feedback was already finalized or is in flight.
	ErrAlreadyActioned = errors.New("suggestion already actioned")
)

// ActionedError is returned when feedback targets a suggestion that is
// terminal or has a submission in flight. It matches ErrAlreadyActioned.
type ActionedError struct {
	SuggestionID string
	Status       models.SuggestionStatus
	InFlight     bool
}

func (e *ActionedError) Error() string {
	if e.InFlight {
		return fmt.Sprintf("suggestion %s already has feedback in flight", e.SuggestionID)
	}
	return fmt.Sprintf("suggestion %s already actioned (%s)", e.SuggestionID, e.Status)
}

func (e *ActionedError) Is(target error) bool {
	return target == ErrAlreadyActioned
}
