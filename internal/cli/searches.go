package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/pantry/internal/app"
	"github.com/roach88/pantry/internal/record"
)

// NewSearchesCommand creates the searches command group.
func NewSearchesCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "searches",
		Short: "Record and show search history",
	}

	add := &cobra.Command{
		Use:           "add <query>",
		Short:         "Record a search",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(rootOpts, cmd, false, func(s *app.Session, f *OutputFormatter) error {
				e, ok := s.Searches.Create(cmd.Context(), record.SearchInput{Query: args[0]})
				if !ok {
					return f.Fail(ErrCodeMutation, s.Searches.Error())
				}
				return f.Lines(e, []string{fmt.Sprintf("recorded search %s (%s)", e.ID, e.Normalized)})
			})
		},
	}

	var prefix string
	ls := &cobra.Command{
		Use:           "ls",
		Short:         "Show search history, newest first",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(rootOpts, cmd, false, func(s *app.Session, f *OutputFormatter) error {
				var entries []record.SearchEntry
				if prefix != "" {
					matched, err := s.Store.Searches().Matching(cmd.Context(), prefix)
					if err != nil {
						return f.Fail(ErrCodeLoad, err.Error())
					}
					entries = matched
				} else {
					if !s.Searches.LoadAll(cmd.Context()) {
						return f.Fail(ErrCodeLoad, s.Searches.Error())
					}
					entries = s.Searches.Entries()
				}
				return f.Lines(entries, searchLines(entries))
			})
		},
	}
	ls.Flags().StringVar(&prefix, "prefix", "", "only searches starting with this text")

	cmd.AddCommand(add, ls)
	return cmd
}

func searchLines(entries []record.SearchEntry) []string {
	lines := make([]string, len(entries))
	for i, e := range entries {
		lines[i] = fmt.Sprintf("%s  %s  %s", e.ID, e.CreatedAt.Format("2006-01-02 15:04"), e.Query)
	}
	return lines
}
