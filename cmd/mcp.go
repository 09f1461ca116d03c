package cmd

import (
	"github.com/spf13/cobra"

	"github.com/joescharf/crf/internal/mcp"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Start MCP stdio server for agent integration",
	Long: `Start an MCP (Model Context Protocol) server on stdio.

This lets an agent read the current review and record feedback. Configure
it with:

  {
    "mcpServers": {
      "crf": { "command": "crf", "args": ["mcp"] }
    }
  }

Available tools: crf_current_review, crf_create_review, crf_list_reviews,
crf_open_review, crf_submit_feedback, crf_stats`,
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := getService()
		if err != nil {
			return err
		}
		return mcp.NewServer(s, buildVersion).ServeStdio(cmdContext(cmd))
	},
}

func init() {
	rootCmd.AddCommand(mcpCmd)
}
