package store

import (
	"context"
	"errors"

	"github.com/joescharf/crf/internal/models"
)

// ErrNoCurrentReview is returned when no review has been made current.
var ErrNoCurrentReview = errors.New("no current review")

// AttemptFilter specifies filters for listing feedback attempts.
type AttemptFilter struct {
	ReviewID string
	Outcome  models.AttemptOutcome
	Limit    int
}

// Store defines the persistence interface for crf.
type Store interface {
	// Reviews
	SaveReview(ctx context.Context, r *models.Review) error
	GetReview(ctx context.Context, id string) (*models.Review, error)
	ListReviews(ctx context.Context, limit int) ([]models.ReviewSummary, error)
	UpdateSuggestion(ctx context.Context, reviewID string, s *models.Suggestion) error

	// Session pointer
	SetCurrentReview(ctx context.Context, id string) error
	CurrentReview(ctx context.Context) (*models.Review, error)

	// Feedback journal
	RecordAttempt(ctx context.Context, a *models.FeedbackAttempt) error
	ListAttempts(ctx context.Context, filter AttemptFilter) ([]*models.FeedbackAttempt, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}
