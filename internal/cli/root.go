// Package cli implements the scannergen command tree.
package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/goliatone/go-scannergen/internal/app"
	"github.com/goliatone/go-scannergen/internal/config"
	"github.com/goliatone/go-scannergen/internal/logger"
)

// Version is set at build time with -ldflags.
var Version = "dev"

type rootOptions struct {
	configPath string
	bundlePath string
	driver     string
	logLevel   string

	cfg *config.Config
	log *logger.Logger
}

// NewRootCmd builds the command tree.
func NewRootCmd() *cobra.Command {
	opts := &rootOptions{}
	root := &cobra.Command{
		Use:   "scannergen",
		Short: "Build scanner source code from a template and a questionnaire",
		Long: `scannergen assembles scanner source code from template sections.
Administrators maintain sections and questions; users answer the questions
through the wizard, the HTTP API or an answers file, and the matching
sections are concatenated into the final program.`,
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return opts.load()
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			opts.log.Sync()
		},
	}
	root.SetVersionTemplate(fmt.Sprintf("scannergen %s\n", Version))

	flags := root.PersistentFlags()
	flags.StringVarP(&opts.configPath, "config", "c", "", "config file (YAML)")
	flags.StringVarP(&opts.bundlePath, "bundle", "b", "", "bundle file; shorthand for the file store at this path")
	flags.StringVar(&opts.driver, "store", "", "store driver: memory, file, sqlite or postgres")
	flags.StringVar(&opts.logLevel, "log-level", "", "log level (debug, info, warn, error)")

	root.AddCommand(
		newGenerateCmd(opts),
		newLintCmd(opts),
		newWizardCmd(opts),
		newServeCmd(opts),
		newInitCmd(opts),
	)
	return root
}

func (o *rootOptions) load() error {
	cfg, err := config.Load(o.configPath)
	if err != nil {
		return err
	}
	if o.bundlePath != "" {
		cfg.Store.Driver = config.DriverFile
		cfg.Store.Path = o.bundlePath
	}
	if o.driver != "" {
		cfg.Store.Driver = o.driver
	}
	if o.logLevel != "" {
		cfg.Log.Level = o.logLevel
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	log, err := logger.New(cfg.Log.Mode, cfg.Log.Level)
	if err != nil {
		return err
	}
	o.cfg = cfg
	o.log = log
	return nil
}

func (o *rootOptions) open(ctx context.Context) (*app.App, error) {
	return app.New(ctx, o.cfg, o.log)
}

// Execute runs the CLI with interrupt handling.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	root := NewRootCmd()
	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(root.ErrOrStderr(), "Error:", err)
		return err
	}
	return nil
}
