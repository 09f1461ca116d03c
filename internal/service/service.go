// Package service wires the backend gateway, the local store and the
// feedback controller into the operations shared by the CLI, the local API
// and the MCP server.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/joescharf/crf/internal/feedback"
	"github.com/joescharf/crf/internal/gateway"
	"github.com/joescharf/crf/internal/models"
	"github.com/joescharf/crf/internal/review"
	"github.com/joescharf/crf/internal/stats"
	"github.com/joescharf/crf/internal/store"
)

// DefaultHistoryLimit is used when neither the caller nor the config gives one.
const DefaultHistoryLimit = 20

// Options configures a Service.
type Options struct {
	HistoryLimit int
	Logger       *slog.Logger
}

// Service is safe for concurrent use.
type Service struct {
	gw           gateway.Client
	store        store.Store
	ctrl         *feedback.Controller
	logger       *slog.Logger
	historyLimit int

	// restoreMu serializes loading the persisted current review.
	restoreMu sync.Mutex
}

// New creates a Service. The store doubles as the feedback journal.
func New(gw gateway.Client, st store.Store, opts Options) *Service {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	limit := opts.HistoryLimit
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	return &Service{
		gw:           gw,
		store:        st,
		ctrl:         feedback.NewController(gw, st, logger),
		logger:       logger,
		historyLimit: limit,
	}
}

// Controller exposes the feedback controller.
func (s *Service) Controller() *feedback.Controller { return s.ctrl }

// CreateReview validates the request locally, submits it, and makes the
// resulting review current.
func (s *Service) CreateReview(ctx context.Context, source, prURL, content string) (*models.Review, error) {
	req, err := review.NewRequest(source, prURL, content)
	if err != nil {
		return nil, err
	}
	if req.Preview != nil {
		s.logger.Debug("diff preview", "files", len(req.Preview.Files), "changes", req.Preview.Changes())
	}

	raw, err := s.gw.CreateReview(ctx, req)
	if err != nil {
		return nil, err
	}
	return s.adopt(ctx, raw)
}

// History returns backend review summaries in backend order.
func (s *Service) History(ctx context.Context, limit int) ([]models.ReviewSummary, error) {
	if limit <= 0 {
		limit = s.historyLimit
	}
	return s.gw.ListReviews(ctx, limit)
}

// LocalHistory returns summaries of reviews saved in the local store.
func (s *Service) LocalHistory(ctx context.Context, limit int) ([]models.ReviewSummary, error) {
	if limit <= 0 {
		limit = s.historyLimit
	}
	return s.store.ListReviews(ctx, limit)
}

// OpenReview fetches a review by id (a full id, or a unique prefix of a
// locally known one) and makes it current. Dispositions recorded locally
// are kept when the backend reports the suggestion as pending.
func (s *Service) OpenReview(ctx context.Context, reviewID string) (*models.Review, error) {
	reviewID = s.expandReviewID(ctx, strings.TrimSpace(reviewID))
	raw, err := s.gw.GetReview(ctx, reviewID)
	if err != nil {
		return nil, err
	}
	return s.adopt(ctx, raw)
}

func (s *Service) adopt(ctx context.Context, raw review.Raw) (*models.Review, error) {
	r, gaps, err := review.Normalize(raw)
	if err != nil {
		return nil, err
	}
	review.LogGaps(s.logger, gaps)

	if prev, err := s.store.GetReview(ctx, r.ID); err == nil {
		if n := MergeDispositions(r, prev); n > 0 {
			s.logger.Debug("kept local dispositions", "review_id", r.ID, "count", n)
		}
	}

	// Load before saving: reloading the review already held keeps its
	// in-flight marks and confirmed dispositions, and those are what the
	// store should see.
	loaded := s.ctrl.Load(r).Review()
	if err := s.store.SaveReview(ctx, loaded); err != nil {
		return nil, fmt.Errorf("save review: %w", err)
	}
	if err := s.store.SetCurrentReview(ctx, loaded.ID); err != nil {
		return nil, fmt.Errorf("set current review: %w", err)
	}
	return loaded, nil
}

// expandReviewID resolves a short id against locally saved reviews. It
// returns id unchanged when there is no unique match.
func (s *Service) expandReviewID(ctx context.Context, id string) string {
	if id == "" {
		return id
	}
	known, err := s.store.ListReviews(ctx, 0)
	if err != nil {
		return id
	}
	match := ""
	for _, k := range known {
		if k.ID == id {
			return id
		}
		if strings.HasPrefix(k.ID, id) {
			if match != "" {
				return id
			}
			match = k.ID
		}
	}
	if match == "" {
		return id
	}
	return match
}

// MergeDispositions copies terminal statuses from prev into pending
// suggestions of fresh with the same id. It returns the number merged.
func MergeDispositions(fresh, prev *models.Review) int {
	if prev == nil || fresh.ID != prev.ID {
		return 0
	}
	merged := 0
	for i := range fresh.Suggestions {
		sg := &fresh.Suggestions[i]
		if sg.Status.IsTerminal() {
			continue
		}
		j := prev.Index(sg.ID)
		if j < 0 || !prev.Suggestions[j].Status.IsTerminal() {
			continue
		}
		old := prev.Suggestions[j].Clone()
		sg.Status = old.Status
		sg.EditedText = old.EditedText
		sg.RejectReason = old.RejectReason
		merged++
	}
	return merged
}

// Current returns a copy of the current review, restoring it from the
// local store when this process has not loaded one yet.
func (s *Service) Current(ctx context.Context) (*models.Review, error) {
	sess, err := s.session(ctx)
	if err != nil {
		return nil, err
	}
	return sess.Review(), nil
}

func (s *Service) session(ctx context.Context) (*feedback.Session, error) {
	if sess := s.ctrl.Session(); sess != nil {
		return sess, nil
	}

	s.restoreMu.Lock()
	defer s.restoreMu.Unlock()
	if sess := s.ctrl.Session(); sess != nil {
		return sess, nil
	}

	r, err := s.store.CurrentReview(ctx)
	if errors.Is(err, store.ErrNoCurrentReview) {
		return nil, feedback.ErrNoReview
	}
	if err != nil {
		return nil, fmt.Errorf("restore current review: %w", err)
	}
	return s.ctrl.Load(r), nil
}

// Submit records feedback on a suggestion of the current review. An empty
// reviewID means the current review; suggestionRef may be a unique prefix.
func (s *Service) Submit(ctx context.Context, reviewID, suggestionRef string, action models.FeedbackAction, p feedback.Payload) (*feedback.Result, error) {
	sess, err := s.session(ctx)
	if err != nil {
		return nil, err
	}
	if reviewID == "" {
		reviewID = sess.ReviewID()
	}

	id, err := ResolveSuggestion(sess.Review(), suggestionRef)
	if err != nil {
		return nil, err
	}
	return s.ctrl.Submit(ctx, reviewID, id, action, p)
}

// ResolveSuggestion maps ref to a suggestion id in r: an exact id, or a
// prefix matching exactly one suggestion.
func ResolveSuggestion(r *models.Review, ref string) (string, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return "", &models.ValidationError{Field: "suggestion_id", Message: "must not be empty"}
	}
	if r.Index(ref) >= 0 {
		return ref, nil
	}

	var matches []string
	for _, sg := range r.Suggestions {
		if strings.HasPrefix(sg.ID, ref) {
			matches = append(matches, sg.ID)
		}
	}
	switch len(matches) {
	case 0:
		return "", fmt.Errorf("%w: %s", feedback.ErrSuggestionNotFound, ref)
	case 1:
		return matches[0], nil
	default:
		return "", &models.ValidationError{
			Field:   "suggestion_id",
			Message: fmt.Sprintf("%q is ambiguous (%s)", ref, strings.Join(matches, ", ")),
		}
	}
}

// Stats fetches and projects the backend's feedback summary.
func (s *Service) Stats(ctx context.Context) (stats.DisplayStats, error) {
	sum, err := s.gw.Stats(ctx)
	if err != nil {
		return stats.DisplayStats{}, err
	}
	d := stats.Project(*sum)
	if d.Inconsistent {
		s.logger.Warn("inconsistent feedback counters",
			"total", d.TotalFeedback, "accepts", d.Accepts, "rejects", d.Rejects, "edits", d.Edits)
	}
	return d, nil
}

// Journal lists local feedback attempts, newest first.
func (s *Service) Journal(ctx context.Context, filter store.AttemptFilter) ([]*models.FeedbackAttempt, error) {
	return s.store.ListAttempts(ctx, filter)
}
