// Package gateway is the HTTP client for the review backend.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/felixgeelhaar/fortify/retry"
	"github.com/felixgeelhaar/fortify/timeout"
	"github.com/google/uuid"

	"github.com/joescharf/crf/internal/models"
	"github.com/joescharf/crf/internal/review"
)

// Client is the backend boundary.
type Client interface {
	CreateReview(ctx context.Context, req review.Request) (review.Raw, error)
	ListReviews(ctx context.Context, limit int) ([]models.ReviewSummary, error)
	GetReview(ctx context.Context, reviewID string) (review.Raw, error)
	SubmitFeedback(ctx context.Context, rec models.FeedbackRecord) (string, error)
	Stats(ctx context.Context) (*models.StatsSummary, error)
}

// Config configures the HTTP client.
type Config struct {
	BaseURL string
	// Timeout bounds each call; zero disables it. A timed-out call fails
	// like any other transport error.
	Timeout time.Duration
	// FetchAttempts is the number of tries for history and detail reads.
	// Writes and stats are never retried.
	FetchAttempts int
}

// HTTPClient implements Client over HTTP+JSON.
type HTTPClient struct {
	cfg    Config
	http   *http.Client
	logger *slog.Logger
}

// New creates an HTTPClient. A nil logger discards logs.
func New(cfg Config, logger *slog.Logger) *HTTPClient {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if cfg.FetchAttempts < 1 {
		cfg.FetchAttempts = 1
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	return &HTTPClient{
		cfg:    cfg,
		http:   &http.Client{},
		logger: logger,
	}
}

// CreateReview submits a review request (POST /review).
func (c *HTTPClient) CreateReview(ctx context.Context, req review.Request) (review.Raw, error) {
	body, err := c.do(ctx, KindSubmission, http.MethodPost, "/review", req, false)
	if err != nil {
		return review.Raw{}, err
	}
	raw, err := review.Decode(body)
	if err != nil {
		return review.Raw{}, &Error{Kind: KindSubmission, Op: "POST /review", Detail: err.Error(), Err: err}
	}
	return raw, nil
}

// ListReviews fetches history summaries (GET /reviews), most recent first
// as ordered by the backend.
func (c *HTTPClient) ListReviews(ctx context.Context, limit int) ([]models.ReviewSummary, error) {
	path := "/reviews"
	if limit > 0 {
		path += "?limit=" + strconv.Itoa(limit)
	}
	body, err := c.do(ctx, KindFetch, http.MethodGet, path, nil, true)
	if err != nil {
		return nil, err
	}
	var out []models.ReviewSummary
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, &Error{Kind: KindFetch, Op: "GET " + path, Detail: "parse history: " + err.Error(), Err: err}
	}
	if out == nil {
		out = []models.ReviewSummary{}
	}
	return out, nil
}

// GetReview fetches one review in detail shape (GET /review/{id}).
func (c *HTTPClient) GetReview(ctx context.Context, reviewID string) (review.Raw, error) {
	if strings.TrimSpace(reviewID) == "" {
		return review.Raw{}, &models.ValidationError{Field: "review_id", Message: "must not be empty"}
	}
	path := "/review/" + url.PathEscape(reviewID)
	body, err := c.do(ctx, KindFetch, http.MethodGet, path, nil, true)
	if err != nil {
		return review.Raw{}, err
	}
	raw, err := review.Decode(body)
	if err != nil {
		return review.Raw{}, &Error{Kind: KindFetch, Op: "GET " + path, Detail: err.Error(), Err: err}
	}
	return raw, nil
}

// SubmitFeedback posts one feedback record (POST /feedback) and returns the
// backend's acknowledgement message.
func (c *HTTPClient) SubmitFeedback(ctx context.Context, rec models.FeedbackRecord) (string, error) {
	body, err := c.do(ctx, KindSubmission, http.MethodPost, "/feedback", rec, false)
	if err != nil {
		return "", err
	}
	var ack struct {
		Message string `json:"message"`
	}
	if len(bytes.TrimSpace(body)) > 0 {
		if err := json.Unmarshal(body, &ack); err != nil {
			c.logger.Warn("unparseable feedback acknowledgement", "error", err)
		}
	}
	return ack.Message, nil
}

// Stats fetches the aggregate feedback summary (GET /stats).
func (c *HTTPClient) Stats(ctx context.Context) (*models.StatsSummary, error) {
	body, err := c.do(ctx, KindFetch, http.MethodGet, "/stats", nil, false)
	if err != nil {
		return nil, err
	}
	var s models.StatsSummary
	if err := json.Unmarshal(body, &s); err != nil {
		return nil, &Error{Kind: KindFetch, Op: "GET /stats", Detail: "parse stats: " + err.Error(), Err: err}
	}
	return &s, nil
}

// do performs one call and returns the 2xx response body. With retryable
// set, transport errors and 5xx responses are retried up to FetchAttempts.
func (c *HTTPClient) do(ctx context.Context, kind Kind, method, path string, in any, retryable bool) ([]byte, error) {
	op := method + " " + path

	var payload []byte
	if in != nil {
		var err error
		payload, err = json.Marshal(in)
		if err != nil {
			return nil, fmt.Errorf("encode %s: %w", op, err)
		}
	}

	call := func(ctx context.Context) ([]byte, error) {
		return c.roundTrip(ctx, kind, op, method, path, payload)
	}

	if retryable && c.cfg.FetchAttempts > 1 {
		inner := call
		call = func(ctx context.Context) ([]byte, error) {
			var permanent error
			r := retry.New[[]byte](retry.Config{
				MaxAttempts:   c.cfg.FetchAttempts,
				InitialDelay:  200 * time.Millisecond,
				BackoffPolicy: retry.BackoffExponential,
			})
			body, err := r.Do(ctx, func(ctx context.Context) ([]byte, error) {
				body, err := inner(ctx)
				if code := StatusCode(err); code >= 400 && code < 500 {
					permanent = err
					return nil, nil
				}
				return body, err
			})
			if permanent != nil {
				return nil, permanent
			}
			return body, err
		}
	}

	var (
		body []byte
		err  error
	)
	if c.cfg.Timeout > 0 {
		t := timeout.New[[]byte](timeout.Config{DefaultTimeout: c.cfg.Timeout})
		body, err = t.Execute(ctx, c.cfg.Timeout, call)
	} else {
		body, err = call(ctx)
	}
	if err == nil {
		return body, nil
	}

	var gerr *Error
	if errors.As(err, &gerr) {
		return nil, gerr
	}
	return nil, &Error{Kind: kind, Op: op, Detail: err.Error(), Err: err}
}

func (c *HTTPClient) roundTrip(ctx context.Context, kind Kind, op, method, path string, payload []byte) ([]byte, error) {
	var reqBody io.Reader
	if payload != nil {
		reqBody = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.cfg.BaseURL+path, reqBody)
	if err != nil {
		return nil, &Error{Kind: kind, Op: op, Detail: err.Error(), Err: err}
	}
	requestID := uuid.NewString()
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", requestID)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Warn("backend request failed", "op", op, "request_id", requestID, "error", err)
		return nil, &Error{Kind: kind, Op: op, Detail: err.Error(), Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &Error{Kind: kind, Op: op, Status: resp.StatusCode, Detail: "read response: " + err.Error(), Err: err}
	}

	c.logger.Debug("backend request", "op", op, "status", resp.StatusCode, "request_id", requestID, "duration", time.Since(start))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		detail := errorDetail(body, resp.Status)
		c.logger.Warn("backend returned error", "op", op, "status", resp.StatusCode, "request_id", requestID, "detail", detail)
		return nil, &Error{Kind: kind, Op: op, Status: resp.StatusCode, Detail: detail}
	}
	return body, nil
}

// errorDetail extracts the backend's "detail" (or "error") message,
// falling back to the HTTP status text.
func errorDetail(body []byte, status string) string {
	var payload map[string]json.RawMessage
	if err := json.Unmarshal(body, &payload); err == nil {
		for _, key := range []string{"detail", "error", "message"} {
			raw, ok := payload[key]
			if !ok {
				continue
			}
			var s string
			if err := json.Unmarshal(raw, &s); err == nil && s != "" {
				return s
			}
			if compact := strings.TrimSpace(string(raw)); compact != "" && compact != "null" {
				return compact
			}
		}
	}
	return status
}
