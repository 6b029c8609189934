package cli

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"
	"github.com/spf13/cobra"

	"github.com/roach88/pantry/internal/app"
	"github.com/roach88/pantry/internal/config"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose bool
	Format  string // "json" | "text"
	DBPath  string // overrides db.path from the config file
	Config  string // path to a pantry.cue file
	Metrics bool   // dump gathered metrics to stderr after the command
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command for the pantry CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "pantry",
		Short: "pantry - shopping lists with optimistic updates",
		Long:  "Manage shopping lists, sections, purchases and searches backed by a local SQLite database.",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !isValidFormat(opts.Format) {
				return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, ValidFormats)
			}
			return nil
		},
	}

	// Global flags
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")
	cmd.PersistentFlags().StringVar(&opts.DBPath, "db", "", "path to SQLite database (default from config)")
	cmd.PersistentFlags().StringVar(&opts.Config, "config", "", "path to pantry.cue configuration")
	cmd.PersistentFlags().BoolVar(&opts.Metrics, "metrics", false, "print collected metrics to stderr on exit")

	cmd.AddCommand(NewListsCommand(opts))
	cmd.AddCommand(NewSectionsCommand(opts))
	cmd.AddCommand(NewPurchasesCommand(opts))
	cmd.AddCommand(NewSearchesCommand(opts))
	cmd.AddCommand(NewHistoryCommand(opts))
	cmd.AddCommand(NewWatchCommand(opts))
	cmd.AddCommand(NewScenarioCommand(opts))
	cmd.AddCommand(NewValidateCommand(opts))

	return cmd
}

// isValidFormat checks if the format is one of the allowed values.
func isValidFormat(format string) bool {
	for _, f := range ValidFormats {
		if f == format {
			return true
		}
	}
	return false
}

// formatter builds the output formatter for a command.
func (o *RootOptions) formatter(cmd *cobra.Command) *OutputFormatter {
	return &OutputFormatter{
		Format:    o.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(), // Verbose logs go to stderr to avoid corrupting JSON
		Verbose:   o.Verbose,
	}
}

// openSession loads the configuration, applies flag overrides and opens a
// session. The returned closer closes the session and, with --metrics,
// dumps the gathered metric families.
func (o *RootOptions) openSession(cmd *cobra.Command) (*app.Session, func(), error) {
	cfg, err := config.Load(o.Config)
	if err != nil {
		return nil, nil, WrapExitError(ExitCommandError, "failed to load config", err)
	}
	if o.DBPath != "" {
		cfg.DB.Path = o.DBPath
	}

	level := cfg.Log.SlogLevel()
	if o.Verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))

	reg := prometheus.NewRegistry()
	s, err := app.Open(app.Options{Config: cfg, Logger: logger, Registerer: reg})
	if err != nil {
		return nil, nil, WrapExitError(ExitCommandError, "failed to open database", err)
	}

	closer := func() {
		if closeErr := s.Close(); closeErr != nil {
			logger.Error("error closing database", "error", closeErr)
		}
		if o.Metrics {
			if err := dumpMetrics(cmd.ErrOrStderr(), reg); err != nil {
				logger.Error("error writing metrics", "error", err)
			}
		}
	}
	return s, closer, nil
}

// dumpMetrics writes every gathered family in the text exposition format.
func dumpMetrics(w io.Writer, g prometheus.Gatherer) error {
	families, err := g.Gather()
	if err != nil {
		return err
	}
	for _, mf := range families {
		if _, err := expfmt.MetricFamilyToText(w, mf); err != nil {
			return err
		}
	}
	return nil
}
