package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/joescharf/crf/internal/feedback"
	"github.com/joescharf/crf/internal/models"
	"github.com/joescharf/crf/internal/stats"
)

// Service is the subset of service.Service exposed as tools.
type Service interface {
	Current(ctx context.Context) (*models.Review, error)
	CreateReview(ctx context.Context, source, prURL, content string) (*models.Review, error)
	History(ctx context.Context, limit int) ([]models.ReviewSummary, error)
	OpenReview(ctx context.Context, reviewID string) (*models.Review, error)
	Submit(ctx context.Context, reviewID, suggestionRef string, action models.FeedbackAction, p feedback.Payload) (*feedback.Result, error)
	Stats(ctx context.Context) (stats.DisplayStats, error)
}

// Server exposes the review session as MCP tools.
type Server struct {
	svc     Service
	version string
}

// NewServer creates the MCP server wrapper.
func NewServer(svc Service, version string) *Server {
	if version == "" {
		version = "dev"
	}
	return &Server{svc: svc, version: version}
}

// MCPServer returns a configured mcp-go server with all tools registered.
func (s *Server) MCPServer() *server.MCPServer {
	srv := server.NewMCPServer("crf", s.version, server.WithToolCapabilities(true))

	srv.AddTool(s.currentReviewTool())
	srv.AddTool(s.createReviewTool())
	srv.AddTool(s.listReviewsTool())
	srv.AddTool(s.openReviewTool())
	srv.AddTool(s.submitFeedbackTool())
	srv.AddTool(s.statsTool())

	return srv
}

// ServeStdio starts the stdio transport, blocking until ctx is cancelled.
func (s *Server) ServeStdio(ctx context.Context) error {
	stdioServer := server.NewStdioServer(s.MCPServer())
	return stdioServer.Listen(ctx, os.Stdin, os.Stdout)
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to marshal result: %v", err)), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}

// ---------------------------------------------------------------------------
// Tool definitions and handlers
// ---------------------------------------------------------------------------

// crf_current_review
func (s *Server) currentReviewTool() (mcp.Tool, server.ToolHandlerFunc) {
	tool := mcp.NewTool("crf_current_review",
		mcp.WithDescription("Get the current review with every suggestion and its status (pending, accepted, rejected, edited)."),
	)
	return tool, s.handleCurrentReview
}

func (s *Server) handleCurrentReview(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	r, err := s.svc.Current(ctx)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(r)
}

// crf_create_review
func (s *Server) createReviewTool() (mcp.Tool, server.ToolHandlerFunc) {
	tool := mcp.NewTool("crf_create_review",
		mcp.WithDescription("Request a new review from a GitHub pull request URL or a unified diff, and make it the current review."),
		mcp.WithString("source", mcp.Required(), mcp.Enum("github", "diff"), mcp.Description("Review source")),
		mcp.WithString("url", mcp.Description("Pull request URL (source=github)")),
		mcp.WithString("content", mcp.Description("Unified diff text (source=diff)")),
	)
	return tool, s.handleCreateReview
}

func (s *Server) handleCreateReview(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	source, err := request.RequireString("source")
	if err != nil {
		return mcp.NewToolResultError("source is required"), nil
	}
	r, err := s.svc.CreateReview(ctx, source, request.GetString("url", ""), request.GetString("content", ""))
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to create review: %v", err)), nil
	}
	return jsonResult(r)
}

// crf_list_reviews
func (s *Server) listReviewsTool() (mcp.Tool, server.ToolHandlerFunc) {
	tool := mcp.NewTool("crf_list_reviews",
		mcp.WithDescription("List past reviews, most recent first. Each entry has review_id, created_at, suggestion_count and files."),
		mcp.WithNumber("limit", mcp.Description("Maximum number of reviews to return")),
	)
	return tool, s.handleListReviews
}

func (s *Server) handleListReviews(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	items, err := s.svc.History(ctx, request.GetInt("limit", 0))
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to list reviews: %v", err)), nil
	}
	return jsonResult(items)
}

// crf_open_review
func (s *Server) openReviewTool() (mcp.Tool, server.ToolHandlerFunc) {
	tool := mcp.NewTool("crf_open_review",
		mcp.WithDescription("Fetch a past review by id and make it the current review."),
		mcp.WithString("review_id", mcp.Required(), mcp.Description("Review id (or a unique prefix of a locally known one)")),
	)
	return tool, s.handleOpenReview
}

func (s *Server) handleOpenReview(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := request.RequireString("review_id")
	if err != nil {
		return mcp.NewToolResultError("review_id is required"), nil
	}
	r, err := s.svc.OpenReview(ctx, id)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to open review: %v", err)), nil
	}
	return jsonResult(r)
}

// crf_submit_feedback
func (s *Server) submitFeedbackTool() (mcp.Tool, server.ToolHandlerFunc) {
	tool := mcp.NewTool("crf_submit_feedback",
		mcp.WithDescription("Accept, reject or edit a suggestion of the current review. Each suggestion takes feedback once."),
		mcp.WithString("suggestion_id", mcp.Required(), mcp.Description("Suggestion id or unique prefix")),
		mcp.WithString("action", mcp.Required(), mcp.Enum("accept", "reject", "edit"), mcp.Description("Feedback action")),
		mcp.WithString("reason", mcp.Description("Why the suggestion is rejected (action=reject)")),
		mcp.WithString("edited_suggestion", mcp.Description("Replacement suggestion text (required for action=edit)")),
		mcp.WithString("review_id", mcp.Description("Review id; defaults to the current review")),
	)
	return tool, s.handleSubmitFeedback
}

func (s *Server) handleSubmitFeedback(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	suggestionID, err := request.RequireString("suggestion_id")
	if err != nil {
		return mcp.NewToolResultError("suggestion_id is required"), nil
	}
	actionName, err := request.RequireString("action")
	if err != nil {
		return mcp.NewToolResultError("action is required"), nil
	}
	action, err := models.ParseFeedbackAction(actionName)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	res, err := s.svc.Submit(ctx, request.GetString("review_id", ""), suggestionID, action, feedback.Payload{
		Reason:     request.GetString("reason", ""),
		EditedText: request.GetString("edited_suggestion", ""),
	})
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("feedback not recorded: %v", err)), nil
	}

	out := map[string]any{
		"suggestion": res.Suggestion,
		"message":    res.Message,
	}
	if res.Warning != "" {
		out["warning"] = res.Warning
	}
	return jsonResult(out)
}

// crf_stats
func (s *Server) statsTool() (mcp.Tool, server.ToolHandlerFunc) {
	tool := mcp.NewTool("crf_stats",
		mcp.WithDescription("Get aggregate feedback statistics: totals, acceptance rate and per-category counts."),
	)
	return tool, s.handleStats
}

func (s *Server) handleStats(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	d, err := s.svc.Stats(ctx)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to fetch stats: %v", err)), nil
	}
	return jsonResult(d)
}
