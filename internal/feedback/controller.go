// Package feedback owns the suggestion feedback lifecycle: the session that
// holds the current review and the controller that submits dispositions.
package feedback

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/joescharf/crf/internal/gateway"
	"github.com/joescharf/crf/internal/models"
)

// Submitter is the subset of gateway.Client the controller needs.
type Submitter interface {
	SubmitFeedback(ctx context.Context, rec models.FeedbackRecord) (string, error)
}

// Journal persists confirmed dispositions and submission attempts.
type Journal interface {
	RecordAttempt(ctx context.Context, a *models.FeedbackAttempt) error
	UpdateSuggestion(ctx context.Context, reviewID string, s *models.Suggestion) error
}

// Payload carries the optional fields of a feedback action.
type Payload struct {
	Reason     string
	EditedText string
}

// Result is the outcome of a confirmed submission.
type Result struct {
	Suggestion models.Suggestion
	Message    string
	// Warning is set when the backend confirmed but the local journal
	// could not be updated.
	Warning string
}

// Controller validates and submits feedback against the loaded session.
//
// Sequencing contract: preconditions are checked and the suggestion is
// marked in flight before the remote call; the status changes only after
// the backend confirms. A failed call leaves the suggestion pending.
type Controller struct {
	submitter Submitter
	journal   Journal
	logger    *slog.Logger

	mu      sync.Mutex
	session *Session
}

// NewController creates a controller. journal and logger may be nil.
func NewController(submitter Submitter, journal Journal, logger *slog.Logger) *Controller {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Controller{submitter: submitter, journal: journal, logger: logger}
}

// Load makes r the current review, replacing any previous session.
// Reloading the review already held keeps its confirmed dispositions and
// in-flight marks, so an outstanding submission cannot be sent twice.
func (c *Controller) Load(r *models.Review) *Session {
	s := newSession(r)
	c.mu.Lock()
	if c.session != nil {
		s.inherit(c.session)
	}
	c.session = s
	c.mu.Unlock()
	c.logger.Debug("review loaded", "review_id", r.ID, "suggestions", len(r.Suggestions))
	return s
}

// Session returns the current session, or nil when no review is loaded.
func (c *Controller) Session() *Session {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.session
}

// Submit records action for one suggestion of the current review.
func (c *Controller) Submit(ctx context.Context, reviewID, suggestionID string, action models.FeedbackAction, p Payload) (*Result, error) {
	if !action.Valid() {
		return nil, &models.ValidationError{Field: "action", Message: fmt.Sprintf("unknown action %q", action)}
	}
	p = normalizePayload(action, p)

	sess := c.Session()
	if sess == nil {
		return nil, ErrNoReview
	}

	target, err := sess.begin(reviewID, suggestionID, action, p)
	switch {
	case errors.Is(err, ErrReviewMismatch):
		return nil, fmt.Errorf("%w: %s", ErrReviewMismatch, reviewID)
	case errors.Is(err, ErrSuggestionNotFound):
		return nil, fmt.Errorf("%w: %s", ErrSuggestionNotFound, suggestionID)
	case err != nil:
		return nil, err
	}

	rec := models.FeedbackRecord{
		ReviewID:         reviewID,
		SuggestionID:     suggestionID,
		Action:           action,
		Reason:           models.StringPtr(p.Reason),
		EditedSuggestion: models.StringPtr(p.EditedText),
	}

	msg, sendErr := c.submitter.SubmitFeedback(ctx, rec)
	if sendErr != nil {
		c.complete(sess, suggestionID, false, "", p)
		var gerr *gateway.Error
		if !errors.As(sendErr, &gerr) {
			gerr = &gateway.Error{Kind: gateway.KindSubmission, Op: "POST /feedback", Detail: sendErr.Error(), Err: sendErr}
		}
		c.record(ctx, rec, models.AttemptFailed, gerr.Detail)
		return nil, gerr
	}

	updated := c.complete(sess, suggestionID, true, target, p)
	c.record(ctx, rec, models.AttemptConfirmed, msg)

	res := &Result{Suggestion: updated, Message: msg}
	if c.journal != nil {
		if err := c.journal.UpdateSuggestion(ctx, reviewID, &updated); err != nil {
			c.logger.Warn("feedback confirmed but not saved locally", "review_id", reviewID, "suggestion_id", suggestionID, "error", err)
			res.Warning = fmt.Sprintf("feedback confirmed by backend but not saved locally: %v", err)
		}
	}
	return res, nil
}

// complete finishes a submission on sess and, when a reload of the same
// review replaced sess meanwhile, on the current session too.
func (c *Controller) complete(sess *Session, suggestionID string, confirmed bool, target models.SuggestionStatus, p Payload) models.Suggestion {
	c.mu.Lock()
	defer c.mu.Unlock()

	updated := sess.finish(suggestionID, confirmed, target, p)
	if cur := c.session; cur != nil && cur != sess && cur.ReviewID() == sess.ReviewID() {
		cur.finish(suggestionID, confirmed, target, p)
	}
	return updated
}

func (c *Controller) record(ctx context.Context, rec models.FeedbackRecord, outcome models.AttemptOutcome, detail string) {
	if c.journal == nil {
		return
	}
	a := &models.FeedbackAttempt{
		ReviewID:     rec.ReviewID,
		SuggestionID: rec.SuggestionID,
		Action:       rec.Action,
		Outcome:      outcome,
		Detail:       detail,
		CreatedAt:    time.Now().UTC(),
	}
	if err := c.journal.RecordAttempt(ctx, a); err != nil {
		c.logger.Warn("record feedback attempt", "suggestion_id", rec.SuggestionID, "error", err)
	}
}

// normalizePayload trims the payload and drops fields the action does not
// use: reason only travels with reject, edited text only with edit.
func normalizePayload(action models.FeedbackAction, p Payload) Payload {
	out := Payload{}
	switch action {
	case models.FeedbackReject:
		out.Reason = strings.TrimSpace(p.Reason)
	case models.FeedbackEdit:
		out.EditedText = strings.TrimSpace(p.EditedText)
	}
	return out
}
