package cli

import (
	"context"
	"fmt"
	"net/http"
	"os"

	"github.com/spf13/cobra"

	"github.com/goliatone/go-scannergen/pkg/bundle"
	"github.com/goliatone/go-scannergen/pkg/model"
	"github.com/goliatone/go-scannergen/pkg/render"
)

type generateOptions struct {
	session     string
	answersPath string
	renderer    string
	output      string
	theme       string
	variant     string
	title       string
	noColor     bool
}

func newGenerateCmd(root *rootOptions) *cobra.Command {
	opts := &generateOptions{}
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate scanner code for a session or an answers file",
		Example: `  scannergen generate -b scanner.yaml --answers answers.json
  scannergen generate -b scanner.yaml --session alice --renderer html -o scanner.html`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := root.open(ctx)
			if err != nil {
				return err
			}
			defer a.Close()

			answers, err := resolveAnswers(ctx, a.Service.Answers, opts.session, opts.answersPath)
			if err != nil {
				return err
			}

			renderOpts := render.RenderOptions{Title: opts.title}
			if opts.noColor || opts.output != "" {
				off := false
				renderOpts.Color = &off
			}
			if opts.theme != "" || opts.variant != "" {
				cfg, err := a.Service.Theme(opts.theme, opts.variant)
				if err != nil {
					return err
				}
				renderOpts.Theme = cfg
			}

			out, err := a.Service.RenderWith(ctx, answers, opts.renderer, renderOpts)
			if err != nil {
				return err
			}
			if opts.output == "" {
				_, err = cmd.OutOrStdout().Write(out.Body)
				return err
			}
			if err := os.WriteFile(opts.output, out.Body, 0o644); err != nil {
				return fmt.Errorf("write output: %w", err)
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "Scanner written to %s\n", opts.output)
			return nil
		},
	}
	flags := cmd.Flags()
	flags.StringVarP(&opts.session, "session", "s", "", "use the answers stored for this session")
	flags.StringVarP(&opts.answersPath, "answers", "a", "", "answers file or URL (JSON or YAML)")
	flags.StringVarP(&opts.renderer, "renderer", "r", "terminal", "renderer: text, terminal, json or html")
	flags.StringVarP(&opts.output, "output", "o", "", "write to file instead of stdout")
	flags.StringVar(&opts.theme, "theme", "", "theme name for html output")
	flags.StringVar(&opts.variant, "variant", "", "theme variant for html output")
	flags.StringVar(&opts.title, "title", "", "override the branding title")
	flags.BoolVar(&opts.noColor, "no-color", false, "disable ANSI colours")
	cmd.MarkFlagsMutuallyExclusive("session", "answers")
	return cmd
}

type answersLoader func(ctx context.Context, session string) (model.Answers, error)

// resolveAnswers reads answers from a session or a file. Neither yields an
// empty sheet.
func resolveAnswers(ctx context.Context, load answersLoader, session, path string) (model.Answers, error) {
	switch {
	case session != "":
		return load(ctx, session)
	case path != "":
		src, err := bundle.SourceFor(path)
		if err != nil {
			return nil, err
		}
		loader := bundle.NewLoader()
		if src.Kind() == bundle.SourceKindURL {
			loader = bundle.NewLoader(bundle.WithHTTP(http.DefaultClient))
		}
		doc, err := loader.Load(ctx, src)
		if err != nil {
			return nil, err
		}
		return bundle.DecodeAnswers(doc.Raw())
	default:
		return nil, nil
	}
}
