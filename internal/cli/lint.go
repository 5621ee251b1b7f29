package cli

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/goliatone/go-scannergen/pkg/lint"
)

// ErrLintFailed is returned when the report contains errors.
var ErrLintFailed = errors.New("lint found errors")

func newLintCmd(root *rootOptions) *cobra.Command {
	var (
		session     string
		answersPath string
		asJSON      bool
	)
	cmd := &cobra.Command{
		Use:   "lint",
		Short: "Check the template for broken links and placeholders",
		Long: `lint cross-references sections and questions. With --session or
--answers the answer sheet is checked against the questions too. The command
fails when any issue has error severity; warnings are reported only.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := root.open(ctx)
			if err != nil {
				return err
			}
			defer a.Close()

			report, err := a.Service.Lint(ctx)
			if err != nil {
				return err
			}
			if session != "" || answersPath != "" {
				answers, err := resolveAnswers(ctx, a.Service.Answers, session, answersPath)
				if err != nil {
					return err
				}
				questions, err := a.Store.ListQuestions(ctx)
				if err != nil {
					return err
				}
				report = report.Merge(lint.CheckAnswers(questions, answers))
			}

			out := cmd.OutOrStdout()
			if asJSON {
				if report.Issues == nil {
					report.Issues = []lint.Issue{}
				}
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				if err := enc.Encode(report); err != nil {
					return err
				}
			} else if len(report.Issues) == 0 {
				fmt.Fprintln(out, "no issues found")
			} else {
				for _, issue := range report.Issues {
					fmt.Fprintln(out, issue.String())
				}
			}
			if report.HasErrors() {
				return ErrLintFailed
			}
			return nil
		},
	}
	flags := cmd.Flags()
	flags.StringVarP(&session, "session", "s", "", "also check the answers stored for this session")
	flags.StringVarP(&answersPath, "answers", "a", "", "also check an answers file")
	flags.BoolVar(&asJSON, "json", false, "print the report as JSON")
	cmd.MarkFlagsMutuallyExclusive("session", "answers")
	return cmd
}
