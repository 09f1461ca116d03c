package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/joescharf/crf/internal/models"
	"github.com/joescharf/crf/internal/output"
)

var (
	showStatus   string
	showCategory string
	showJSON     bool
)

var showCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the current review",
	RunE: func(cmd *cobra.Command, args []string) error {
		return showRun(cmd)
	},
}

func init() {
	showCmd.Flags().StringVar(&showStatus, "status", "", "Only suggestions with this status: pending, accepted, rejected, edited")
	showCmd.Flags().StringVar(&showCategory, "category", "", "Only suggestions in this category")
	showCmd.Flags().BoolVar(&showJSON, "json", false, "Print the review as JSON")
	rootCmd.AddCommand(showCmd)
}

func showRun(cmd *cobra.Command) error {
	status := models.SuggestionStatus(showStatus)
	if status != "" && !status.Valid() {
		return &models.ValidationError{Field: "status", Message: fmt.Sprintf("unknown status %q", showStatus)}
	}

	s, err := getService()
	if err != nil {
		return err
	}
	r, err := s.Current(cmdContext(cmd))
	if err != nil {
		return err
	}

	if showJSON {
		enc := json.NewEncoder(ui.Out)
		enc.SetIndent("", "  ")
		return enc.Encode(r)
	}
	ui.Review(r, output.SuggestionFilter{Status: status, Category: showCategory})
	return nil
}
