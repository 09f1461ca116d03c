package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/joescharf/crf/internal/output"
	"github.com/joescharf/crf/internal/review"
)

var (
	reviewDiffPath string
	reviewPRURL    string
)

var reviewCmd = &cobra.Command{
	Use:   "review",
	Short: "Request a review of a diff or GitHub pull request",
	Long: `Submit a unified diff or a GitHub pull request URL to the review backend.
The resulting review becomes the current review.

  crf review --diff changes.patch
  git diff main | crf review --diff -
  crf review --github https://github.com/owner/repo/pull/42`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return reviewRun(cmd)
	},
}

func init() {
	reviewCmd.Flags().StringVar(&reviewDiffPath, "diff", "", "Path to a unified diff file, or - for stdin")
	reviewCmd.Flags().StringVar(&reviewPRURL, "github", "", "GitHub pull request URL")
	reviewCmd.MarkFlagsMutuallyExclusive("diff", "github")
	reviewCmd.MarkFlagsOneRequired("diff", "github")
	rootCmd.AddCommand(reviewCmd)
}

func readDiff(path string, stdin io.Reader) (string, error) {
	if path == "-" {
		data, err := io.ReadAll(stdin)
		if err != nil {
			return "", fmt.Errorf("read diff from stdin: %w", err)
		}
		return string(data), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read diff: %w", err)
	}
	return string(data), nil
}

func reviewRun(cmd *cobra.Command) error {
	source, content := string(review.SourceGitHub), ""
	if reviewDiffPath != "" {
		source = string(review.SourceDiff)
		var err error
		if content, err = readDiff(reviewDiffPath, cmd.InOrStdin()); err != nil {
			return err
		}
	}

	if dryRun {
		req, err := review.NewRequest(source, reviewPRURL, content)
		if err != nil {
			return err
		}
		if req.Preview != nil {
			files, added, deleted := req.Preview.Stats()
			ui.DryRunMsg("Would submit diff: %d files, +%d -%d", files, added, deleted)
			for _, f := range req.Preview.Files {
				ui.VerboseLog("%s", f.Name())
			}
		} else {
			ui.DryRunMsg("Would submit pull request %s", *req.URL)
		}
		return nil
	}

	s, err := getService()
	if err != nil {
		return err
	}
	r, err := s.CreateReview(cmdContext(cmd), source, reviewPRURL, content)
	if err != nil {
		return err
	}

	ui.Success("Review %s created", r.ID)
	ui.Review(r, output.SuggestionFilter{})
	return nil
}
