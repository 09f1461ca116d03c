package output

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joescharf/crf/internal/models"
	"github.com/joescharf/crf/internal/stats"
)

func renderReview() *models.Review {
	end := 14
	return &models.Review{
		ID:                "rev-1",
		CreatedAt:         time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC),
		FileCount:         2,
		TotalChanges:      12,
		TotalChangesKnown: true,
		Suggestions: []models.Suggestion{
			{ID: "s1", FilePath: "a.py", LineNumber: 10, EndLineNumber: &end, Category: "style", Confidence: 80,
				Text: "use a list comprehension", CodeSnippet: models.StringPtr("for x in y:\n    z.append(x)"),
				Status: models.SuggestionStatusAccepted},
			{ID: "s2", FilePath: "b.go", LineNumber: 3, Category: "bug_risk", Confidence: 40,
				Text: "check the error", Status: models.SuggestionStatusRejected, RejectReason: models.StringPtr("handled upstream")},
		},
	}
}

func TestReview_Render(t *testing.T) {
	u, out, _ := newTestUI()
	u.Review(renderReview(), SuggestionFilter{})

	got := out.String()
	assert.Contains(t, got, "rev-1")
	assert.Contains(t, got, "Changes: 12")
	assert.Contains(t, got, "[s1] L10-14")
	assert.Contains(t, got, "z.append(x)")
	assert.Contains(t, got, "handled upstream")
	assert.Less(t, strings.Index(got, "a.py"), strings.Index(got, "b.go"))
}

func TestReview_UnknownChanges(t *testing.T) {
	u, out, _ := newTestUI()
	r := renderReview()
	r.TotalChangesKnown = false
	r.CreatedAt = time.Time{}
	u.Review(r, SuggestionFilter{})

	assert.Contains(t, out.String(), "Changes: ?")
	assert.Contains(t, out.String(), "Created: unknown")
}

func TestReview_Empty(t *testing.T) {
	u, out, _ := newTestUI()
	u.Review(&models.Review{ID: "rev-0", Suggestions: []models.Suggestion{}}, SuggestionFilter{})
	assert.Contains(t, out.String(), "No suggestions generated")
}

func TestReview_Filter(t *testing.T) {
	u, out, _ := newTestUI()
	u.Review(renderReview(), SuggestionFilter{Status: models.SuggestionStatusRejected})
	assert.NotContains(t, out.String(), "[s1]")
	assert.Contains(t, out.String(), "[s2]")

	u, out, _ = newTestUI()
	u.Review(renderReview(), SuggestionFilter{Category: "performance"})
	assert.Contains(t, out.String(), "No suggestions match the filter")
}

func TestHistory(t *testing.T) {
	u, out, _ := newTestUI()
	require.NoError(t, u.History(nil))
	assert.Contains(t, out.String(), "No reviews yet")

	u, out, _ = newTestUI()
	require.NoError(t, u.History([]models.ReviewSummary{
		{ID: "0123456789abcdef", SuggestionCount: 4, Files: []string{"a", "b", "c", "d", "e"}},
	}))
	got := out.String()
	assert.Contains(t, got, "01234567")
	assert.NotContains(t, got, "0123456789abcdef")
	assert.Contains(t, got, "(+2 more)")
}

func TestStats(t *testing.T) {
	u, out, errOut := newTestUI()
	d := stats.Project(models.StatsSummary{
		TotalFeedback: 10, Accepts: 7, Rejects: 2, Edits: 1,
		ByCategory: map[string]models.CategoryCounts{"style": {Total: 4, Accepts: 2}},
	})
	require.NoError(t, u.Stats(d))
	assert.Contains(t, out.String(), "70.0%")
	assert.Contains(t, out.String(), "style")
	assert.Contains(t, out.String(), "50.0%")
	assert.Empty(t, errOut.String())
}

func TestStats_Inconsistent(t *testing.T) {
	u, _, errOut := newTestUI()
	require.NoError(t, u.Stats(stats.Project(models.StatsSummary{TotalFeedback: 3, Accepts: 1})))
	assert.Contains(t, errOut.String(), "do not add up")
}

func TestAttempts(t *testing.T) {
	u, out, _ := newTestUI()
	require.NoError(t, u.Attempts(nil))
	assert.Contains(t, out.String(), "No feedback recorded")

	u, out, _ = newTestUI()
	require.NoError(t, u.Attempts([]*models.FeedbackAttempt{
		{ReviewID: "rev-123456789", SuggestionID: "s1", Action: models.FeedbackAccept, Outcome: models.AttemptFailed, Detail: "HTTP 500"},
	}))
	assert.Contains(t, out.String(), "rev-1234")
	assert.Contains(t, out.String(), "HTTP 500")
}

func TestHighlightSnippet(t *testing.T) {
	code := "package main\n\nfunc main() {}\n"
	got := HighlightSnippet("main.go", code, "monokai")
	assert.Contains(t, got, "main")

	assert.Equal(t, "just text", HighlightSnippet("notes.unknownext", "just text", ""))
}

func TestSnippet_Indented(t *testing.T) {
	u, _, _ := newTestUI()
	got := u.snippet("a.txt", "one\ntwo\n")
	assert.Equal(t, "    │ one\n    │ two", got)
}
