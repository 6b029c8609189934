package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/pantry/internal/app"
	"github.com/roach88/pantry/internal/readmodel"
	"github.com/roach88/pantry/internal/record"
)

// HistoryOptions holds flags for the history command.
type HistoryOptions struct {
	*RootOptions
	Entity string
	Pages  int
}

// HistoryResult is the JSON payload of the history command.
type HistoryResult[T any] struct {
	Items   []T  `json:"items"`
	HasMore bool `json:"has_more"`
}

// NewHistoryCommand creates the history command.
func NewHistoryCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &HistoryOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recent entries with older pages appended",
		Long: `Show the merged history of an entity: the live window of the newest
entries followed by older pages loaded on demand, without duplicates.

Examples:
  pantry history
  pantry history --pages 3
  pantry history --entity searches --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(rootOpts, cmd, false, func(s *app.Session, f *OutputFormatter) error {
				return runHistory(opts, s, f, cmd)
			})
		},
	}

	cmd.Flags().StringVar(&opts.Entity, "entity", "purchases", "entity to show (purchases|searches|lists)")
	cmd.Flags().IntVar(&opts.Pages, "pages", 1, "number of older pages to load")

	return cmd
}

func runHistory(opts *HistoryOptions, s *app.Session, f *OutputFormatter, cmd *cobra.Command) error {
	ctx := cmd.Context()
	switch opts.Entity {
	case "purchases":
		m, err := s.PurchaseHistory(ctx)
		if err != nil {
			return WrapExitError(ExitFailure, "failed to start history", err)
		}
		return printHistory(m, opts.Pages, f, cmd, purchaseLines)
	case "searches":
		m, err := s.SearchHistory(ctx)
		if err != nil {
			return WrapExitError(ExitFailure, "failed to start history", err)
		}
		return printHistory(m, opts.Pages, f, cmd, searchLines)
	case "lists":
		m, err := s.ListHistory(ctx)
		if err != nil {
			return WrapExitError(ExitFailure, "failed to start history", err)
		}
		return printHistory(m, opts.Pages, f, cmd, func(lists []record.List) []string {
			lines := make([]string, len(lists))
			for i, l := range lists {
				lines[i] = fmt.Sprintf("%s  %s", l.ID, l.Name)
			}
			return lines
		})
	default:
		return NewExitError(ExitCommandError, fmt.Sprintf("unknown entity %q: must be purchases, searches or lists", opts.Entity))
	}
}

func printHistory[T record.Record](m *readmodel.Model[T], pages int, f *OutputFormatter, cmd *cobra.Command, lines func([]T) []string) error {
	for i := 0; i < pages && m.HasMore(); i++ {
		m.LoadMore(cmd.Context())
		f.VerboseLog("loaded page %d, %d item(s) so far", i+1, len(m.Items()))
	}
	if err := m.Err(); err != nil {
		return f.Fail(ErrCodeLoad, err.Error())
	}

	items := m.Items()
	out := lines(items)
	if m.HasMore() {
		out = append(out, "(more available, use --pages to load further)")
	}
	return f.Lines(HistoryResult[T]{Items: items, HasMore: m.HasMore()}, out)
}
