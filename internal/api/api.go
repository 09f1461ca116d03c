package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/joescharf/crf/internal/feedback"
	"github.com/joescharf/crf/internal/gateway"
	"github.com/joescharf/crf/internal/models"
	"github.com/joescharf/crf/internal/stats"
	"github.com/joescharf/crf/internal/store"
)

// Service is the subset of service.Service the API serves.
type Service interface {
	Current(ctx context.Context) (*models.Review, error)
	CreateReview(ctx context.Context, source, prURL, content string) (*models.Review, error)
	History(ctx context.Context, limit int) ([]models.ReviewSummary, error)
	OpenReview(ctx context.Context, reviewID string) (*models.Review, error)
	Submit(ctx context.Context, reviewID, suggestionRef string, action models.FeedbackAction, p feedback.Payload) (*feedback.Result, error)
	Stats(ctx context.Context) (stats.DisplayStats, error)
	Journal(ctx context.Context, filter store.AttemptFilter) ([]*models.FeedbackAttempt, error)
}

// Server provides the local REST API handlers.
type Server struct {
	svc    Service
	logger *slog.Logger
}

// NewServer creates a new API server. A nil logger uses slog.Default.
func NewServer(svc Service, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{svc: svc, logger: logger}
}

// Router returns an http.Handler for the API routes.
func (s *Server) Router() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/v1/session", s.getSession)

	mux.HandleFunc("GET /api/v1/reviews", s.listReviews)
	mux.HandleFunc("POST /api/v1/reviews", s.createReview)
	mux.HandleFunc("POST /api/v1/reviews/{id}/open", s.openReview)

	mux.HandleFunc("POST /api/v1/feedback", s.submitFeedback)

	mux.HandleFunc("GET /api/v1/stats", s.getStats)
	mux.HandleFunc("GET /api/v1/journal", s.listJournal)

	return corsMiddleware(mux)
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// statusFor maps domain errors onto HTTP status codes.
func statusFor(err error) int {
	var verr *models.ValidationError
	var gerr *gateway.Error
	switch {
	case errors.As(err, &verr):
		return http.StatusBadRequest
	case errors.Is(err, feedback.ErrAlreadyActioned):
		return http.StatusConflict
	case errors.Is(err, feedback.ErrNoReview),
		errors.Is(err, feedback.ErrSuggestionNotFound),
		errors.Is(err, feedback.ErrReviewMismatch):
		return http.StatusNotFound
	case errors.As(err, &gerr):
		if gerr.Kind == gateway.KindFetch && gerr.Status == http.StatusNotFound {
			return http.StatusNotFound
		}
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if status >= 500 {
		s.logger.Warn("api request failed", "method", r.Method, "path", r.URL.Path, "status", status, "error", err)
	}
	writeError(w, status, err.Error())
}

func queryLimit(r *http.Request) (int, error) {
	v := r.URL.Query().Get("limit")
	if v == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return 0, &models.ValidationError{Field: "limit", Message: "must be a non-negative integer"}
	}
	return n, nil
}

// --- Session ---

func (s *Server) getSession(w http.ResponseWriter, r *http.Request) {
	rev, err := s.svc.Current(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rev)
}

// --- Reviews ---

type createReviewRequest struct {
	Source  string `json:"source"`
	URL     string `json:"url"`
	Content string `json:"content"`
}

func (s *Server) createReview(w http.ResponseWriter, r *http.Request) {
	var req createReviewRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON: "+err.Error())
		return
	}

	rev, err := s.svc.CreateReview(r.Context(), strings.TrimSpace(req.Source), req.URL, req.Content)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, rev)
}

func (s *Server) listReviews(w http.ResponseWriter, r *http.Request) {
	limit, err := queryLimit(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	items, err := s.svc.History(r.Context(), limit)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, items)
}

func (s *Server) openReview(w http.ResponseWriter, r *http.Request) {
	rev, err := s.svc.OpenReview(r.Context(), r.PathValue("id"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rev)
}

// --- Feedback ---

type feedbackRequest struct {
	ReviewID         string `json:"review_id"`
	SuggestionID     string `json:"suggestion_id"`
	Action           string `json:"action"`
	Reason           string `json:"reason"`
	EditedSuggestion string `json:"edited_suggestion"`
}

type feedbackResponse struct {
	Suggestion models.Suggestion `json:"suggestion"`
	Message    string            `json:"message,omitempty"`
	Warning    string            `json:"warning,omitempty"`
}

func (s *Server) submitFeedback(w http.ResponseWriter, r *http.Request) {
	var req feedbackRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON: "+err.Error())
		return
	}

	action, err := models.ParseFeedbackAction(req.Action)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	res, err := s.svc.Submit(r.Context(), req.ReviewID, req.SuggestionID, action, feedback.Payload{
		Reason:     req.Reason,
		EditedText: req.EditedSuggestion,
	})
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, feedbackResponse{Suggestion: res.Suggestion, Message: res.Message, Warning: res.Warning})
}

// --- Stats & journal ---

func (s *Server) getStats(w http.ResponseWriter, r *http.Request) {
	d, err := s.svc.Stats(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, d)
}

func (s *Server) listJournal(w http.ResponseWriter, r *http.Request) {
	limit, err := queryLimit(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	attempts, err := s.svc.Journal(r.Context(), store.AttemptFilter{
		ReviewID: r.URL.Query().Get("review_id"),
		Outcome:  models.AttemptOutcome(r.URL.Query().Get("outcome")),
		Limit:    limit,
	})
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if attempts == nil {
		attempts = []*models.FeedbackAttempt{}
	}
	writeJSON(w, http.StatusOK, attempts)
}
