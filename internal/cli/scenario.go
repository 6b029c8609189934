package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/pantry/internal/harness"
)

// ScenarioOptions holds flags for the scenario command.
type ScenarioOptions struct {
	*RootOptions
	Golden string // directory of golden trace files
	Update bool   // regenerate golden files
	Filter string // scenario filter (glob pattern)
	Trace  bool   // print each scenario's trace
}

// ScenarioResult holds the result of a single scenario execution.
type ScenarioResult struct {
	Name   string               `json:"name"`
	Pass   bool                 `json:"pass"`
	Errors []string             `json:"errors,omitempty"`
	Trace  []harness.TraceEvent `json:"trace,omitempty"`
}

// ScenarioSummary holds the overall result.
type ScenarioSummary struct {
	Scenarios []ScenarioResult `json:"scenarios"`
	Passed    int              `json:"passed"`
	Failed    int              `json:"failed"`
	Total     int              `json:"total"`
}

// NewScenarioCommand creates the scenario command.
func NewScenarioCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ScenarioOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "scenario <file-or-dir>",
		Short: "Run scripted controller scenarios",
		Long: `Run YAML scenarios against an optimistic controller backed by an
in-memory repository with scripted failures.

Each scenario's expect clauses and assertions are checked. With --golden,
traces are also compared against <golden>/<name>.golden.

Exit codes:
  0 - All scenarios passed
  1 - One or more scenarios failed
  2 - Command error (invalid paths, etc.)

Examples:
  pantry scenario ./scenarios
  pantry scenario ./scenarios/create_rollback.yaml --trace
  pantry scenario ./scenarios --golden ./golden --update
  pantry scenario ./scenarios --filter "delete_*" --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScenarios(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Golden, "golden", "", "directory of golden trace files")
	cmd.Flags().BoolVar(&opts.Update, "update", false, "regenerate golden files (requires --golden)")
	cmd.Flags().StringVar(&opts.Filter, "filter", "", "filter scenarios by glob pattern")
	cmd.Flags().BoolVar(&opts.Trace, "trace", false, "print each scenario's trace")

	return cmd
}

func runScenarios(opts *ScenarioOptions, path string, cmd *cobra.Command) error {
	if opts.Update && opts.Golden == "" {
		return NewExitError(ExitCommandError, "--update requires --golden")
	}

	info, err := os.Stat(path)
	if err != nil {
		return WrapExitError(ExitCommandError, fmt.Sprintf("scenario path not found: %s", path), err)
	}

	var files []string
	if info.IsDir() {
		files, err = findScenarioFiles(path, opts.Filter)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to find scenarios", err)
		}
	} else {
		files = []string{path}
	}

	if len(files) == 0 {
		if opts.Format == "json" {
			return outputScenarioJSON(cmd, ScenarioSummary{Scenarios: []ScenarioResult{}})
		}
		fmt.Fprintln(cmd.OutOrStdout(), "No scenarios found.")
		return nil
	}

	summary := ScenarioSummary{
		Scenarios: make([]ScenarioResult, 0, len(files)),
		Total:     len(files),
	}
	for _, file := range files {
		res := runScenarioFile(opts, file, cmd)
		summary.Scenarios = append(summary.Scenarios, res)
		if res.Pass {
			summary.Passed++
		} else {
			summary.Failed++
		}
	}

	if opts.Format == "json" {
		return outputScenarioJSON(cmd, summary)
	}
	return outputScenarioText(cmd, summary)
}

// findScenarioFiles finds all YAML scenario files directly in a directory.
func findScenarioFiles(dir string, filter string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	var files []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}

		// Only process .yaml and .yml files
		ext := filepath.Ext(entry.Name())
		if ext != ".yaml" && ext != ".yml" {
			continue
		}

		// Apply filter if specified
		if filter != "" {
			name := strings.TrimSuffix(entry.Name(), ext)
			matched, err := filepath.Match(filter, name)
			if err != nil {
				return nil, fmt.Errorf("invalid filter pattern: %w", err)
			}
			if !matched {
				continue
			}
		}

		files = append(files, filepath.Join(dir, entry.Name()))
	}
	return files, nil
}

// runScenarioFile executes a single scenario and returns the result.
func runScenarioFile(opts *ScenarioOptions, file string, cmd *cobra.Command) ScenarioResult {
	w := cmd.OutOrStdout()
	text := opts.Format != "json"

	fail := func(name string, errs ...string) ScenarioResult {
		if text {
			fmt.Fprintf(w, "✗ %s\n", name)
			for _, e := range errs {
				fmt.Fprintf(w, "  %s\n", e)
			}
		}
		return ScenarioResult{Name: name, Pass: false, Errors: errs}
	}

	scenario, err := harness.LoadScenario(file)
	if err != nil {
		return fail(filepath.Base(file), fmt.Sprintf("failed to load scenario: %v", err))
	}

	result, err := harness.Run(scenario)
	if err != nil {
		return fail(scenario.Name, fmt.Sprintf("execution failed: %v", err))
	}

	res := ScenarioResult{Name: scenario.Name, Pass: true}
	if opts.Trace {
		res.Trace = result.Trace
		if text {
			printTrace(cmd, scenario.Name, result.Trace)
		}
	}

	if opts.Golden != "" {
		snapshot := harness.TraceSnapshot{
			ScenarioName: scenario.Name,
			Collection:   scenario.Collection,
			Trace:        result.Trace,
		}
		data, err := snapshot.Marshal()
		if err != nil {
			return fail(scenario.Name, fmt.Sprintf("failed to marshal trace: %v", err))
		}
		goldenPath := filepath.Join(opts.Golden, scenario.Name+".golden")

		if opts.Update {
			if err := writeGolden(goldenPath, data); err != nil {
				return fail(scenario.Name, fmt.Sprintf("failed to update golden file: %v", err))
			}
			if text {
				fmt.Fprintf(w, "✓ %s (golden updated)\n", scenario.Name)
			}
			return res
		}

		match, err := matchesGolden(goldenPath, data)
		if err != nil {
			return fail(scenario.Name, fmt.Sprintf("golden comparison failed: %v", err))
		}
		if !match {
			return fail(scenario.Name, "trace does not match golden file (run with --update to regenerate)")
		}
	}

	if !result.Pass {
		return fail(scenario.Name, result.Errors...)
	}
	if text {
		fmt.Fprintf(w, "✓ %s\n", scenario.Name)
	}
	return res
}

func printTrace(cmd *cobra.Command, name string, trace []harness.TraceEvent) {
	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "  %s:\n", name)
	for _, ev := range trace {
		line := fmt.Sprintf("    [%d] %s", ev.Seq, ev.Op)
		if ev.ID != "" {
			line += " " + ev.ID
		}
		line += fmt.Sprintf(" ok=%v", ev.OK)
		if ev.Result != "" {
			line += " -> " + ev.Result
		}
		if ev.Error != "" {
			line += fmt.Sprintf(" error=%q", ev.Error)
		}
		fmt.Fprintf(w, "%s %v\n", line, ev.Entries)
	}
}

// writeGolden writes a golden file, creating its directory.
func writeGolden(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create golden directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write golden file: %w", err)
	}
	return nil
}

// matchesGolden compares data with an existing golden file.
func matchesGolden(path string, data []byte) (bool, error) {
	golden, err := os.ReadFile(path)
	if err != nil {
		return false, fmt.Errorf("failed to read golden file: %w", err)
	}
	return bytes.Equal(golden, data), nil
}

// outputScenarioJSON outputs the summary as JSON.
func outputScenarioJSON(cmd *cobra.Command, summary ScenarioSummary) error {
	response := CLIResponse{
		Status: "ok",
		Data:   summary,
	}
	if summary.Failed > 0 {
		response.Status = "error"
		response.Error = &CLIError{
			Code:    "E_SCENARIO_FAILED",
			Message: fmt.Sprintf("%d scenario(s) failed", summary.Failed),
		}
	}

	encoder := json.NewEncoder(cmd.OutOrStdout())
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(response); err != nil {
		return err
	}

	if summary.Failed > 0 {
		return NewExitError(ExitFailure, fmt.Sprintf("%d scenario(s) failed", summary.Failed))
	}
	return nil
}

// outputScenarioText outputs the summary as text.
func outputScenarioText(cmd *cobra.Command, summary ScenarioSummary) error {
	w := cmd.OutOrStdout()

	fmt.Fprintln(w)
	fmt.Fprintf(w, "Scenario Summary: %d passed, %d failed, %d total\n", summary.Passed, summary.Failed, summary.Total)

	if summary.Failed > 0 {
		return NewExitError(ExitFailure, fmt.Sprintf("%d scenario(s) failed", summary.Failed))
	}

	fmt.Fprintln(w, "✓ All scenarios passed")
	return nil
}
