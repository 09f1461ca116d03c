package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joescharf/crf/internal/feedback"
	"github.com/joescharf/crf/internal/gateway"
	"github.com/joescharf/crf/internal/models"
	"github.com/joescharf/crf/internal/stats"
	"github.com/joescharf/crf/internal/store"
)

// mockService implements Service with canned results.
type mockService struct {
	current    *models.Review
	currentErr error
	createErr  error
	history    []models.ReviewSummary
	historyErr error
	openErr    error
	submitErr  error
	statsErr   error
	attempts   []*models.FeedbackAttempt

	lastLimit  int
	lastSubmit struct {
		reviewID, suggestionID string
		action                 models.FeedbackAction
		payload                feedback.Payload
	}
	lastCreate [3]string
	lastFilter store.AttemptFilter
}

func (m *mockService) Current(context.Context) (*models.Review, error) {
	return m.current, m.currentErr
}

func (m *mockService) CreateReview(_ context.Context, source, prURL, content string) (*models.Review, error) {
	m.lastCreate = [3]string{source, prURL, content}
	if m.createErr != nil {
		return nil, m.createErr
	}
	return &models.Review{ID: "rev-new", Suggestions: []models.Suggestion{}}, nil
}

func (m *mockService) History(_ context.Context, limit int) ([]models.ReviewSummary, error) {
	m.lastLimit = limit
	return m.history, m.historyErr
}

func (m *mockService) OpenReview(_ context.Context, id string) (*models.Review, error) {
	if m.openErr != nil {
		return nil, m.openErr
	}
	return &models.Review{ID: id, Suggestions: []models.Suggestion{}}, nil
}

func (m *mockService) Submit(_ context.Context, reviewID, ref string, action models.FeedbackAction, p feedback.Payload) (*feedback.Result, error) {
	m.lastSubmit.reviewID = reviewID
	m.lastSubmit.suggestionID = ref
	m.lastSubmit.action = action
	m.lastSubmit.payload = p
	if m.submitErr != nil {
		return nil, m.submitErr
	}
	return &feedback.Result{
		Suggestion: models.Suggestion{ID: ref, Status: action.TargetStatus()},
		Message:    "Feedback recorded",
	}, nil
}

func (m *mockService) Stats(context.Context) (stats.DisplayStats, error) {
	if m.statsErr != nil {
		return stats.DisplayStats{}, m.statsErr
	}
	return stats.Project(models.StatsSummary{TotalFeedback: 10, Accepts: 7, Rejects: 3}), nil
}

func (m *mockService) Journal(_ context.Context, f store.AttemptFilter) ([]*models.FeedbackAttempt, error) {
	m.lastFilter = f
	return m.attempts, nil
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, bytes.NewBufferString(body))
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func errorBody(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var body map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body["error"]
}

func TestGetSession(t *testing.T) {
	m := &mockService{current: &models.Review{ID: "rev-1", Suggestions: []models.Suggestion{{ID: "s1", Status: models.SuggestionStatusPending}}}}
	h := NewServer(m, nil).Router()

	w := do(t, h, "GET", "/api/v1/session", "")
	assert.Equal(t, http.StatusOK, w.Code)

	var got models.Review
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Equal(t, "rev-1", got.ID)
	assert.Len(t, got.Suggestions, 1)
}

func TestGetSession_None(t *testing.T) {
	h := NewServer(&mockService{currentErr: feedback.ErrNoReview}, nil).Router()
	w := do(t, h, "GET", "/api/v1/session", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "no review loaded", errorBody(t, w))
}

func TestCreateReview(t *testing.T) {
	m := &mockService{}
	h := NewServer(m, nil).Router()

	w := do(t, h, "POST", "/api/v1/reviews", `{"source":"github","url":"https://github.com/a/b/pull/1","content":null}`)
	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, [3]string{"github", "https://github.com/a/b/pull/1", ""}, m.lastCreate)

	w = do(t, h, "POST", "/api/v1/reviews", `{not json`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	m.createErr = &models.ValidationError{Field: "url", Message: "a GitHub PR URL is required"}
	w = do(t, h, "POST", "/api/v1/reviews", `{"source":"github"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, errorBody(t, w), "url")

	m.createErr = &gateway.Error{Kind: gateway.KindSubmission, Op: "POST /review", Status: 500, Detail: "boom"}
	w = do(t, h, "POST", "/api/v1/reviews", `{"source":"github","url":"x"}`)
	assert.Equal(t, http.StatusBadGateway, w.Code)
}

func TestListReviews(t *testing.T) {
	m := &mockService{history: []models.ReviewSummary{{ID: "rev-1", SuggestionCount: 2, Files: []string{"a.go"}}}}
	h := NewServer(m, nil).Router()

	w := do(t, h, "GET", "/api/v1/reviews?limit=5", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 5, m.lastLimit)

	var got []models.ReviewSummary
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	require.Len(t, got, 1)
	assert.Equal(t, "rev-1", got[0].ID)

	w = do(t, h, "GET", "/api/v1/reviews?limit=abc", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	m.historyErr = &gateway.Error{Kind: gateway.KindFetch, Op: "GET /reviews", Detail: "connection refused"}
	w = do(t, h, "GET", "/api/v1/reviews", "")
	assert.Equal(t, http.StatusBadGateway, w.Code)
}

func TestOpenReview(t *testing.T) {
	m := &mockService{}
	h := NewServer(m, nil).Router()

	w := do(t, h, "POST", "/api/v1/reviews/rev-9/open", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "rev-9")

	m.openErr = &gateway.Error{Kind: gateway.KindFetch, Op: "GET /review/x", Status: 404, Detail: "Review not found"}
	w = do(t, h, "POST", "/api/v1/reviews/x/open", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, errorBody(t, w), "Review not found")
}

func TestSubmitFeedback(t *testing.T) {
	m := &mockService{}
	h := NewServer(m, nil).Router()

	w := do(t, h, "POST", "/api/v1/feedback", `{"suggestion_id":"s1","action":"reject","reason":"noise","edited_suggestion":null}`)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "s1", m.lastSubmit.suggestionID)
	assert.Equal(t, models.FeedbackReject, m.lastSubmit.action)
	assert.Equal(t, "noise", m.lastSubmit.payload.Reason)
	assert.Empty(t, m.lastSubmit.reviewID)

	var got feedbackResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Equal(t, models.SuggestionStatusRejected, got.Suggestion.Status)
	assert.Equal(t, "Feedback recorded", got.Message)
}

func TestSubmitFeedback_ErrorStatuses(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"validation", &models.ValidationError{Field: "edited_suggestion", Message: "required"}, http.StatusBadRequest},
		{"not found", fmt.Errorf("%w: s9", feedback.ErrSuggestionNotFound), http.StatusNotFound},
		{"mismatch", fmt.Errorf("%w: r2", feedback.ErrReviewMismatch), http.StatusNotFound},
		{"no review", feedback.ErrNoReview, http.StatusNotFound},
		{"actioned", &feedback.ActionedError{SuggestionID: "s1", Status: models.SuggestionStatusAccepted}, http.StatusConflict},
		{"in flight", &feedback.ActionedError{SuggestionID: "s1", InFlight: true}, http.StatusConflict},
		{"submission failed", &gateway.Error{Kind: gateway.KindSubmission, Op: "POST /feedback", Status: 500, Detail: "db"}, http.StatusBadGateway},
		{"other", fmt.Errorf("disk on fire"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewServer(&mockService{submitErr: tt.err}, nil).Router()
			w := do(t, h, "POST", "/api/v1/feedback", `{"suggestion_id":"s1","action":"accept"}`)
			assert.Equal(t, tt.want, w.Code)
			assert.Equal(t, tt.err.Error(), errorBody(t, w))
		})
	}
}

func TestSubmitFeedback_BadAction(t *testing.T) {
	m := &mockService{}
	h := NewServer(m, nil).Router()
	w := do(t, h, "POST", "/api/v1/feedback", `{"suggestion_id":"s1","action":"maybe"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Empty(t, m.lastSubmit.suggestionID, "service not called")
}

func TestGetStats(t *testing.T) {
	m := &mockService{}
	h := NewServer(m, nil).Router()

	w := do(t, h, "GET", "/api/v1/stats", "")
	assert.Equal(t, http.StatusOK, w.Code)
	var got stats.DisplayStats
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Equal(t, 70.0, got.AcceptanceRate)

	m.statsErr = &gateway.Error{Kind: gateway.KindFetch, Op: "GET /stats", Status: 503, Detail: "503 Service Unavailable"}
	w = do(t, h, "GET", "/api/v1/stats", "")
	assert.Equal(t, http.StatusBadGateway, w.Code)
}

func TestListJournal(t *testing.T) {
	m := &mockService{}
	h := NewServer(m, nil).Router()

	w := do(t, h, "GET", "/api/v1/journal?limit=3&review_id=rev-1&outcome=failed", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "[]\n", w.Body.String())
	assert.Equal(t, store.AttemptFilter{ReviewID: "rev-1", Outcome: models.AttemptFailed, Limit: 3}, m.lastFilter)
}

func TestCORS(t *testing.T) {
	h := NewServer(&mockService{}, nil).Router()
	w := do(t, h, "OPTIONS", "/api/v1/feedback", "")
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}
