package cmd

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/joescharf/crf/internal/models"
	"github.com/joescharf/crf/internal/service"
	"github.com/joescharf/crf/internal/store"
)

var (
	exportFormat string
	exportType   string
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export data as JSON, CSV, or Markdown",
	Long:  "Export the current review's suggestions or the local feedback journal.",
	RunE: func(cmd *cobra.Command, args []string) error {
		return exportRun(cmd)
	},
}

func init() {
	exportCmd.Flags().StringVar(&exportFormat, "format", "json", "Output format: json, csv, markdown")
	exportCmd.Flags().StringVar(&exportType, "type", "suggestions", "Data type: suggestions, journal")
	rootCmd.AddCommand(exportCmd)
}

func exportRun(cmd *cobra.Command) error {
	s, err := getService()
	if err != nil {
		return err
	}
	ctx := cmdContext(cmd)

	switch exportType {
	case "suggestions":
		return exportSuggestions(ctx, s)
	case "journal":
		return exportJournal(ctx, s)
	default:
		return fmt.Errorf("unknown export type: %s (use: suggestions, journal)", exportType)
	}
}

func deref(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}

// mdCell keeps a value on one markdown table row.
func mdCell(s string) string {
	s = strings.ReplaceAll(s, "|", `\|`)
	return strings.Join(strings.Fields(s), " ")
}

func exportSuggestions(ctx context.Context, s *service.Service) error {
	r, err := s.Current(ctx)
	if err != nil {
		return err
	}

	switch exportFormat {
	case "json":
		enc := json.NewEncoder(ui.Out)
		enc.SetIndent("", "  ")
		return enc.Encode(r.Suggestions)
	case "csv":
		w := csv.NewWriter(ui.Out)
		_ = w.Write([]string{"ReviewID", "ID", "File", "Lines", "Category", "Confidence", "Status", "Suggestion", "Edited", "Reason"})
		for _, sg := range r.Suggestions {
			_ = w.Write([]string{r.ID, sg.ID, sg.FilePath, sg.LineRange(), sg.Category, strconv.Itoa(sg.Confidence),
				string(sg.Status), sg.Text, deref(sg.EditedText), deref(sg.RejectReason)})
		}
		w.Flush()
		return w.Error()
	case "markdown":
		fmt.Fprintf(ui.Out, "# Review %s\n", r.ID)
		fmt.Fprintln(ui.Out)
		fmt.Fprintln(ui.Out, "| File | Lines | Category | Confidence | Status | Suggestion |")
		fmt.Fprintln(ui.Out, "|------|-------|----------|------------|--------|------------|")
		for _, sg := range r.Suggestions {
			text := sg.Text
			if sg.Status == models.SuggestionStatusEdited {
				text = deref(sg.EditedText)
			}
			fmt.Fprintf(ui.Out, "| %s | %s | %s | %d%% | %s | %s |\n",
				mdCell(sg.FilePath), sg.LineRange(), mdCell(sg.Category), sg.Confidence, sg.Status, mdCell(text))
		}
		return nil
	default:
		return fmt.Errorf("unknown format: %s", exportFormat)
	}
}

func exportJournal(ctx context.Context, s *service.Service) error {
	list, err := s.Journal(ctx, store.AttemptFilter{})
	if err != nil {
		return err
	}

	switch exportFormat {
	case "json":
		enc := json.NewEncoder(ui.Out)
		enc.SetIndent("", "  ")
		return enc.Encode(list)
	case "csv":
		w := csv.NewWriter(ui.Out)
		_ = w.Write([]string{"ID", "ReviewID", "SuggestionID", "Action", "Outcome", "Detail", "Created"})
		for _, a := range list {
			_ = w.Write([]string{a.ID, a.ReviewID, a.SuggestionID, string(a.Action), string(a.Outcome),
				a.Detail, a.CreatedAt.UTC().Format("2006-01-02T15:04:05Z")})
		}
		w.Flush()
		return w.Error()
	case "markdown":
		fmt.Fprintln(ui.Out, "# Feedback Journal")
		fmt.Fprintln(ui.Out)
		fmt.Fprintln(ui.Out, "| Review | Suggestion | Action | Outcome | Detail |")
		fmt.Fprintln(ui.Out, "|--------|------------|--------|---------|--------|")
		for _, a := range list {
			fmt.Fprintf(ui.Out, "| %s | %s | %s | %s | %s |\n",
				a.ReviewID, a.SuggestionID, a.Action, a.Outcome, mdCell(a.Detail))
		}
		return nil
	default:
		return fmt.Errorf("unknown format: %s", exportFormat)
	}
}
