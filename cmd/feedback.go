package cmd

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/joescharf/crf/internal/feedback"
	"github.com/joescharf/crf/internal/models"
	"github.com/joescharf/crf/internal/output"
	"github.com/joescharf/crf/internal/service"
)

var (
	rejectReason string
	editText     string
	editTextFile string
)

var acceptCmd = &cobra.Command{
	Use:   "accept <suggestion-id>",
	Short: "Accept a suggestion",
	Long:  "Accept a suggestion of the current review. A unique id prefix is enough.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return feedbackRun(cmd, args[0], models.FeedbackAccept, feedback.Payload{})
	},
}

var rejectCmd = &cobra.Command{
	Use:   "reject <suggestion-id>",
	Short: "Reject a suggestion",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return feedbackRun(cmd, args[0], models.FeedbackReject, feedback.Payload{Reason: rejectReason})
	},
}

var editCmd = &cobra.Command{
	Use:   "edit <suggestion-id>",
	Short: "Record an edited version of a suggestion",
	Long: `Record your own wording of a suggestion. The replacement text comes from
--text or from a file given with --text-file (- reads stdin).`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		text := editText
		if editTextFile != "" {
			var err error
			if text, err = readEditText(cmd, editTextFile); err != nil {
				return err
			}
		}
		return feedbackRun(cmd, args[0], models.FeedbackEdit, feedback.Payload{EditedText: text})
	},
}

func init() {
	rejectCmd.Flags().StringVarP(&rejectReason, "reason", "r", "", "Why the suggestion is wrong")

	editCmd.Flags().StringVarP(&editText, "text", "t", "", "Edited suggestion text")
	editCmd.Flags().StringVar(&editTextFile, "text-file", "", "Read the edited text from a file (- for stdin)")
	editCmd.MarkFlagsMutuallyExclusive("text", "text-file")
	editCmd.MarkFlagsOneRequired("text", "text-file")

	rootCmd.AddCommand(acceptCmd)
	rootCmd.AddCommand(rejectCmd)
	rootCmd.AddCommand(editCmd)
}

func readEditText(cmd *cobra.Command, path string) (string, error) {
	var (
		data []byte
		err  error
	)
	if path == "-" {
		data, err = io.ReadAll(cmd.InOrStdin())
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return "", fmt.Errorf("read edited text: %w", err)
	}
	return strings.TrimRight(string(data), "\n"), nil
}

func feedbackRun(cmd *cobra.Command, ref string, action models.FeedbackAction, p feedback.Payload) error {
	s, err := getService()
	if err != nil {
		return err
	}
	ctx := cmdContext(cmd)

	if dryRun {
		r, err := s.Current(ctx)
		if err != nil {
			return err
		}
		id, err := service.ResolveSuggestion(r, ref)
		if err != nil {
			return err
		}
		if sg := r.Suggestions[r.Index(id)]; sg.Status.IsTerminal() {
			return &feedback.ActionedError{SuggestionID: id, Status: sg.Status}
		}
		ui.DryRunMsg("Would %s suggestion %s of review %s", action, id, r.ID)
		return nil
	}

	res, err := s.Submit(ctx, "", ref, action, p)
	if err != nil {
		return err
	}

	ui.Success("Suggestion %s %s", res.Suggestion.ID, output.StatusColor(string(res.Suggestion.Status)))
	if res.Message != "" {
		ui.VerboseLog("backend: %s", res.Message)
	}
	if res.Warning != "" {
		ui.Warning("%s", res.Warning)
	}
	return nil
}
