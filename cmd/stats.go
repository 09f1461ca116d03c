package cmd

import (
	"encoding/json"

	"github.com/spf13/cobra"
)

var statsJSON bool

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show feedback acceptance statistics",
	Long:  "Fetch the backend's feedback summary: totals, acceptance rate and per-category counts.",
	RunE: func(cmd *cobra.Command, args []string) error {
		return statsRun(cmd)
	},
}

func init() {
	statsCmd.Flags().BoolVar(&statsJSON, "json", false, "Print the statistics as JSON")
	rootCmd.AddCommand(statsCmd)
}

func statsRun(cmd *cobra.Command) error {
	s, err := getService()
	if err != nil {
		return err
	}
	d, err := s.Stats(cmdContext(cmd))
	if err != nil {
		return err
	}

	if statsJSON {
		enc := json.NewEncoder(ui.Out)
		enc.SetIndent("", "  ")
		return enc.Encode(d)
	}
	return ui.Stats(d)
}
