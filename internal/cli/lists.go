package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/pantry/internal/app"
	"github.com/roach88/pantry/internal/record"
)

// listView is a list with its section count.
type listView struct {
	record.List
	Sections int `json:"sections"`
}

// NewListsCommand creates the lists command group.
func NewListsCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "lists",
		Short: "Manage shopping lists",
	}

	var color string
	add := &cobra.Command{
		Use:           "add <name>",
		Short:         "Create a list",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(rootOpts, cmd, false, func(s *app.Session, f *OutputFormatter) error {
				l, ok := s.Lists.Create(cmd.Context(), record.ListInput{Name: args[0], Color: color})
				if !ok {
					return f.Fail(ErrCodeMutation, s.Lists.Error())
				}
				return f.Lines(l, []string{fmt.Sprintf("created list %s", l.ID)})
			})
		},
	}
	add.Flags().StringVar(&color, "color", "", "list color as #rrggbb")

	ls := &cobra.Command{
		Use:           "ls",
		Short:         "Show all lists, newest first",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(rootOpts, cmd, true, func(s *app.Session, f *OutputFormatter) error {
				lists := s.Lists.Entries()
				views := make([]listView, len(lists))
				lines := make([]string, len(lists))
				for i, l := range lists {
					views[i] = listView{List: l, Sections: s.Lists.Count(l.ID)}
					lines[i] = fmt.Sprintf("%s  %-24s %d section(s)", l.ID, l.Name, views[i].Sections)
				}
				return f.Lines(views, lines)
			})
		},
	}

	rename := &cobra.Command{
		Use:           "rename <id> <name>",
		Short:         "Rename a list",
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(rootOpts, cmd, true, func(s *app.Session, f *OutputFormatter) error {
				name := args[1]
				l, ok := s.Lists.Update(cmd.Context(), args[0], record.ListPatch{Name: &name})
				if !ok {
					return f.Fail(ErrCodeMutation, s.Lists.Error())
				}
				return f.Lines(l, []string{fmt.Sprintf("renamed list %s to %q", l.ID, l.Name)})
			})
		},
	}

	rm := &cobra.Command{
		Use:           "rm <id>",
		Short:         "Delete a list and its sections",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(rootOpts, cmd, true, func(s *app.Session, f *OutputFormatter) error {
				if !s.DeleteList(cmd.Context(), args[0]) {
					return f.Fail(ErrCodeMutation, s.Lists.Error())
				}
				return f.Lines(map[string]string{"deleted": args[0]}, []string{fmt.Sprintf("deleted list %s", args[0])})
			})
		},
	}

	cmd.AddCommand(add, ls, rename, rm)
	return cmd
}

// withSession opens a session for one command, optionally loads every
// controller, and runs fn.
func withSession(opts *RootOptions, cmd *cobra.Command, load bool, fn func(*app.Session, *OutputFormatter) error) error {
	s, closeSession, err := opts.openSession(cmd)
	if err != nil {
		return err
	}
	defer closeSession()

	f := opts.formatter(cmd)
	if load {
		if err := s.LoadAll(cmd.Context()); err != nil {
			if outErr := f.Error(ErrCodeLoad, err.Error(), nil); outErr != nil {
				return outErr
			}
			return WrapExitError(ExitFailure, "failed to load", err)
		}
		f.VerboseLog("loaded %d list(s), %d section(s), %d purchase(s), %d search(es)",
			s.Lists.Len(), s.Sections.Len(), s.Purchases.Len(), s.Searches.Len())
	}
	return fn(s, f)
}
