package cmd

import (
	"github.com/spf13/cobra"

	"github.com/joescharf/crf/internal/models"
	"github.com/joescharf/crf/internal/store"
)

var (
	logLimit    int
	logReviewID string
	logFailed   bool
)

var logCmd = &cobra.Command{
	Use:   "log",
	Short: "Show the local feedback journal",
	Long:  "List feedback submissions recorded on this machine, newest first, including failed attempts.",
	RunE: func(cmd *cobra.Command, args []string) error {
		return logRun(cmd)
	},
}

func init() {
	logCmd.Flags().IntVar(&logLimit, "limit", 50, "Maximum number of entries (0 for all)")
	logCmd.Flags().StringVar(&logReviewID, "review", "", "Only entries for this review")
	logCmd.Flags().BoolVar(&logFailed, "failed", false, "Only failed submissions")
	rootCmd.AddCommand(logCmd)
}

func logRun(cmd *cobra.Command) error {
	s, err := getService()
	if err != nil {
		return err
	}

	filter := store.AttemptFilter{ReviewID: logReviewID, Limit: logLimit}
	if logFailed {
		filter.Outcome = models.AttemptFailed
	}
	list, err := s.Journal(cmdContext(cmd), filter)
	if err != nil {
		return err
	}
	return ui.Attempts(list)
}
