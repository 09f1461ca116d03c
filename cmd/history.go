package cmd

import (
	"github.com/spf13/cobra"

	"github.com/joescharf/crf/internal/output"
)

var (
	historyLimit int
	historyLocal bool
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List past reviews",
	Long:  "List past reviews from the backend, most recent first. Use --local to list reviews saved on this machine.",
	RunE: func(cmd *cobra.Command, args []string) error {
		return historyRun(cmd)
	},
}

var openCmd = &cobra.Command{
	Use:   "open <review-id>",
	Short: "Load a past review and make it current",
	Long: `Fetch a past review from the backend and make it the current review.
Decisions already recorded on this machine are kept.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return openRun(cmd, args[0])
	},
}

func init() {
	historyCmd.Flags().IntVar(&historyLimit, "limit", 0, "Maximum number of reviews (default from history.limit)")
	historyCmd.Flags().BoolVar(&historyLocal, "local", false, "List reviews saved locally instead of querying the backend")
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(openCmd)
}

func historyRun(cmd *cobra.Command) error {
	s, err := getService()
	if err != nil {
		return err
	}
	ctx := cmdContext(cmd)

	list := s.History
	if historyLocal {
		list = s.LocalHistory
	}
	items, err := list(ctx, historyLimit)
	if err != nil {
		return err
	}
	return ui.History(items)
}

func openRun(cmd *cobra.Command, reviewID string) error {
	s, err := getService()
	if err != nil {
		return err
	}
	r, err := s.OpenReview(cmdContext(cmd), reviewID)
	if err != nil {
		return err
	}
	ui.Success("Review %s is now current", r.ID)
	ui.Review(r, output.SuggestionFilter{})
	return nil
}
