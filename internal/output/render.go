package output

import (
	"fmt"
	"strings"
	"time"

	"github.com/joescharf/crf/internal/models"
	"github.com/joescharf/crf/internal/stats"
)

// SuggestionFilter narrows which suggestions Review prints.
type SuggestionFilter struct {
	Status   models.SuggestionStatus
	Category string
}

func (f SuggestionFilter) match(s models.Suggestion) bool {
	if f.Status != "" && s.Status != f.Status {
		return false
	}
	if f.Category != "" && !strings.EqualFold(s.Category, f.Category) {
		return false
	}
	return true
}

// FormatTime renders t for tables, or "unknown" when zero.
func FormatTime(t time.Time) string {
	if t.IsZero() {
		return "unknown"
	}
	return t.Local().Format("2006-01-02 15:04")
}

// Review prints a review header and its suggestions grouped by file.
func (u *UI) Review(r *models.Review, f SuggestionFilter) {
	changes := "?"
	if r.TotalChangesKnown {
		changes = fmt.Sprintf("%d", r.TotalChanges)
	}
	fmt.Fprintf(u.Out, "%s %s\n", Cyan("Review"), r.ID)
	fmt.Fprintf(u.Out, "  Created: %s  Files: %d  Changes: %s  Suggestions: %d\n",
		FormatTime(r.CreatedAt), r.FileCount, changes, len(r.Suggestions))

	if len(r.Suggestions) == 0 {
		u.Info("No suggestions generated")
		return
	}

	counts := r.StatusCounts()
	fmt.Fprintf(u.Out, "  %s %d  %s %d  %s %d  %s %d\n",
		StatusColor("pending"), counts[models.SuggestionStatusPending],
		StatusColor("accepted"), counts[models.SuggestionStatusAccepted],
		StatusColor("rejected"), counts[models.SuggestionStatusRejected],
		StatusColor("edited"), counts[models.SuggestionStatusEdited])

	shown := 0
	currentFile := ""
	for _, s := range r.Suggestions {
		if !f.match(s) {
			continue
		}
		if shown == 0 || s.FilePath != currentFile {
			currentFile = s.FilePath
			fmt.Fprintf(u.Out, "\n%s\n", Cyan(displayPath(s.FilePath)))
		}
		u.Suggestion(s)
		shown++
	}
	if shown == 0 {
		u.Info("No suggestions match the filter")
	}
}

func displayPath(p string) string {
	if p == "" {
		return "(unknown file)"
	}
	return p
}

// Suggestion prints one suggestion block.
func (u *UI) Suggestion(s models.Suggestion) {
	fmt.Fprintf(u.Out, "  [%s] L%s  %s  %s  %s\n",
		s.ID, s.LineRange(), s.Category, ConfidenceColor(s.Confidence), StatusColor(string(s.Status)))
	fmt.Fprintf(u.Out, "    %s\n", s.Text)
	if s.CodeSnippet != nil && strings.TrimSpace(*s.CodeSnippet) != "" {
		fmt.Fprintln(u.Out, u.snippet(s.FilePath, *s.CodeSnippet))
	}
	if s.EditedText != nil {
		fmt.Fprintf(u.Out, "    %s %s\n", Cyan("edited:"), *s.EditedText)
	}
	if s.RejectReason != nil {
		fmt.Fprintf(u.Out, "    %s %s\n", Red("reason:"), *s.RejectReason)
	}
}

// History prints review summaries in the order given.
func (u *UI) History(items []models.ReviewSummary) error {
	if len(items) == 0 {
		u.Info("No reviews yet")
		return nil
	}
	table := u.Table([]string{"ID", "CREATED", "SUGGESTIONS", "FILES"})
	for _, it := range items {
		if err := table.Append([]string{
			it.ShortID(),
			FormatTime(it.CreatedAt.Time),
			fmt.Sprintf("%d", it.SuggestionCount),
			summarizeFiles(it.Files, 3),
		}); err != nil {
			return err
		}
	}
	return table.Render()
}

func summarizeFiles(files []string, max int) string {
	if len(files) <= max {
		return strings.Join(files, ", ")
	}
	return fmt.Sprintf("%s (+%d more)", strings.Join(files[:max], ", "), len(files)-max)
}

// Stats prints display statistics.
func (u *UI) Stats(d stats.DisplayStats) error {
	fmt.Fprintf(u.Out, "Total feedback:  %d\n", d.TotalFeedback)
	fmt.Fprintf(u.Out, "Acceptance rate: %s\n", Green(fmt.Sprintf("%.1f%%", d.AcceptanceRate)))
	fmt.Fprintf(u.Out, "Accepted: %d  Rejected: %d  Edited: %d\n", d.Accepts, d.Rejects, d.Edits)
	if d.Inconsistent {
		u.Warning("backend counters do not add up to the total")
	}
	if len(d.ByCategory) == 0 {
		return nil
	}

	fmt.Fprintln(u.Out)
	table := u.Table([]string{"CATEGORY", "TOTAL", "ACCEPTED", "REJECTED", "EDITED", "RATE"})
	for _, c := range d.ByCategory {
		if err := table.Append([]string{
			c.Category,
			fmt.Sprintf("%d", c.Total),
			fmt.Sprintf("%d", c.Accepts),
			fmt.Sprintf("%d", c.Rejects),
			fmt.Sprintf("%d", c.Edits),
			fmt.Sprintf("%.1f%%", stats.Rate(c.Accepts, c.Total)),
		}); err != nil {
			return err
		}
	}
	return table.Render()
}

// Attempts prints feedback journal entries.
func (u *UI) Attempts(list []*models.FeedbackAttempt) error {
	if len(list) == 0 {
		u.Info("No feedback recorded")
		return nil
	}
	table := u.Table([]string{"WHEN", "REVIEW", "SUGGESTION", "ACTION", "OUTCOME", "DETAIL"})
	for _, a := range list {
		if err := table.Append([]string{
			FormatTime(a.CreatedAt),
			models.ReviewSummary{ID: a.ReviewID}.ShortID(),
			a.SuggestionID,
			string(a.Action),
			OutcomeColor(string(a.Outcome)),
			a.Detail,
		}); err != nil {
			return err
		}
	}
	return table.Render()
}
