package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/goliatone/go-scannergen/pkg/model"
	"github.com/goliatone/go-scannergen/pkg/render"
	"github.com/goliatone/go-scannergen/pkg/wizard"
)

// promptDriver is replaced in tests.
var promptDriver wizard.PromptDriver

func newWizardCmd(root *rootOptions) *cobra.Command {
	var (
		session string
		preview bool
		noColor bool
	)
	cmd := &cobra.Command{
		Use:   "wizard",
		Short: "Answer the questionnaire interactively and print the scanner",
		Long: `wizard asks every question in order. With --session each answer is
saved as soon as it is given and previous answers become the defaults.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := root.open(ctx)
			if err != nil {
				return err
			}
			defer a.Close()

			sections, questions, err := a.Service.Template(ctx)
			if err != nil {
				return err
			}
			if len(questions) == 0 {
				fmt.Fprintln(cmd.ErrOrStderr(), "the template has no questions")
			}

			driver := promptDriver
			if driver == nil {
				sd := wizard.NewSurveyDriver()
				sd.Out = cmd.OutOrStdout()
				driver = sd
			}
			opts := []wizard.Option{wizard.WithDriver(driver), wizard.WithPreview(preview)}
			if session != "" {
				previous, err := a.Service.Answers(ctx, session)
				if err != nil {
					return err
				}
				opts = append(opts,
					wizard.WithInitialAnswers(previous),
					wizard.WithOnAnswer(func(ctx context.Context, questionID string, value model.Value) error {
						_, err := a.Service.Answer(ctx, session, questionID, value)
						return err
					}),
				)
			}

			answers, err := wizard.Run(ctx, questions, sections, opts...)
			if errors.Is(err, wizard.ErrAborted) {
				fmt.Fprintln(cmd.ErrOrStderr(), "aborted")
				return nil
			}
			if err != nil {
				return err
			}
			a.Log.Debug("wizard finished", "answers", len(answers), "session", session)

			renderOpts := render.RenderOptions{}
			if noColor {
				off := false
				renderOpts.Color = &off
			}
			out, err := a.Service.RenderWith(ctx, answers, "terminal", renderOpts)
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(out.Body)
			return err
		},
	}
	flags := cmd.Flags()
	flags.StringVarP(&session, "session", "s", "", "persist answers under this session")
	flags.BoolVar(&preview, "preview", false, "print the generated code after every answer")
	flags.BoolVar(&noColor, "no-color", false, "disable ANSI colours")
	return cmd
}
