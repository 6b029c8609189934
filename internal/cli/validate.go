package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/pantry/internal/config"
)

// ValidationResult holds the outcome of validating a configuration file.
type ValidationResult struct {
	Valid  bool           `json:"valid"`
	Config *config.Config `json:"config,omitempty"`
	Error  string         `json:"error,omitempty"`
	Line   int            `json:"line,omitempty"`
	Column int            `json:"column,omitempty"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <config.cue>",
		Short: "Validate a configuration file",
		Long: `Validate a pantry.cue configuration file against the built-in schema
and print the effective configuration with defaults filled in.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true, // Don't print usage on errors
		SilenceErrors: true, // Don't print errors - we handle our own error output
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, args[0], cmd)
		},
	}

	return cmd
}

func runValidate(opts *RootOptions, path string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)
	formatter.VerboseLog("Validating %s", path)

	cfg, err := config.Load(path)
	if err != nil {
		result := ValidationResult{Valid: false, Error: err.Error()}
		var cfgErr *config.Error
		if errors.As(err, &cfgErr) && cfgErr.Pos.IsValid() {
			result.Line = cfgErr.Pos.Line()
			result.Column = cfgErr.Pos.Column()
		}
		if outErr := formatter.Error(ErrCodeConfig, err.Error(), result); outErr != nil {
			return outErr
		}
		return WrapExitError(ExitFailure, ErrCodeConfig, err)
	}

	if opts.Format == "json" {
		return formatter.Success(ValidationResult{Valid: true, Config: &cfg})
	}
	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "✓ %s is valid\n", path)
	fmt.Fprintf(w, "  window.size  %d\n", cfg.Window.Size)
	fmt.Fprintf(w, "  pages.first  %d\n", cfg.Pages.First)
	fmt.Fprintf(w, "  pages.next   %d\n", cfg.Pages.Next)
	fmt.Fprintf(w, "  db.path      %s\n", cfg.DB.Path)
	fmt.Fprintf(w, "  log.level    %s\n", cfg.Log.Level)
	return nil
}
