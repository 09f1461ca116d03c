package feedback

import (
	"sync"
	"time"

	"github.com/joescharf/crf/internal/models"
)

// Session holds the review currently being worked on. It is created when a
// review is loaded and discarded when the next one replaces it. Suggestion
// statuses inside a session are only changed by the Controller.
type Session struct {
	mu       sync.Mutex
	review   *models.Review
	inFlight map[string]models.FeedbackAction
	loadedAt time.Time
}

func newSession(r *models.Review) *Session {
	return &Session{
		review:   r.Clone(),
		inFlight: make(map[string]models.FeedbackAction),
		loadedAt: time.Now().UTC(),
	}
}

// ReviewID returns the id of the held review.
func (s *Session) ReviewID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.review.ID
}

// Review returns a copy of the held review.
func (s *Session) Review() *models.Review {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.review.Clone()
}

// Suggestion returns a copy of one suggestion.
func (s *Session) Suggestion(id string) (models.Suggestion, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.review.Index(id)
	if i < 0 {
		return models.Suggestion{}, false
	}
	return s.review.Suggestions[i].Clone(), true
}

// InFlight reports whether a submission for the suggestion is outstanding.
func (s *Session) InFlight(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.inFlight[id]
	return ok
}

// LoadedAt is when the session was created.
func (s *Session) LoadedAt() time.Time {
	return s.loadedAt
}

// inherit carries dispositions and in-flight marks over from prev when it
// holds the same review. s must not be published yet.
func (s *Session) inherit(prev *Session) {
	prev.mu.Lock()
	defer prev.mu.Unlock()

	if prev.review.ID != s.review.ID {
		return
	}
	for i := range s.review.Suggestions {
		sugg := &s.review.Suggestions[i]
		j := prev.review.Index(sugg.ID)
		if j < 0 {
			continue
		}
		if old := prev.review.Suggestions[j].Clone(); !sugg.Status.IsTerminal() && old.Status.IsTerminal() {
			sugg.Status = old.Status
			sugg.EditedText = old.EditedText
			sugg.RejectReason = old.RejectReason
		}
		if action, busy := prev.inFlight[sugg.ID]; busy {
			s.inFlight[sugg.ID] = action
		}
	}
}

// begin checks the submission preconditions and marks the suggestion
// in flight. It must be called before any network call. Payload checks
// come last so a terminal or unknown suggestion reports that first.
func (s *Session) begin(reviewID, suggestionID string, action models.FeedbackAction, p Payload) (models.SuggestionStatus, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.review.ID != reviewID {
		return "", ErrReviewMismatch
	}
	i := s.review.Index(suggestionID)
	if i < 0 {
		return "", ErrSuggestionNotFound
	}
	sugg := s.review.Suggestions[i]
	if _, busy := s.inFlight[suggestionID]; busy {
		return "", &ActionedError{SuggestionID: suggestionID, Status: sugg.Status, InFlight: true}
	}

	target, err := Next(suggestionID, sugg.Status, action)
	if err != nil {
		return "", err
	}
	if action == models.FeedbackEdit && p.EditedText == "" {
		return "", &models.ValidationError{Field: "edited_suggestion", Message: "edit requires the edited suggestion text"}
	}

	s.inFlight[suggestionID] = action
	return target, nil
}

// finish clears the in-flight mark and, when confirmed, applies the
// terminal status and payload.
func (s *Session) finish(suggestionID string, confirmed bool, target models.SuggestionStatus, p Payload) models.Suggestion {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.inFlight, suggestionID)
	i := s.review.Index(suggestionID)
	if i < 0 {
		return models.Suggestion{}
	}
	sugg := &s.review.Suggestions[i]
	if confirmed {
		sugg.Status = target
		switch target {
		case models.SuggestionStatusRejected:
			sugg.RejectReason = models.StringPtr(p.Reason)
		case models.SuggestionStatusEdited:
			sugg.EditedText = models.StringPtr(p.EditedText)
		}
	}
	return sugg.Clone()
}
