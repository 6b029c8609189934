package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/pantry/internal/app"
	"github.com/roach88/pantry/internal/record"
)

// NewSectionsCommand creates the sections command group.
func NewSectionsCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sections",
		Short: "Manage the sections of a list",
	}

	var listID string
	var position int
	add := &cobra.Command{
		Use:           "add <name>",
		Short:         "Add a section to a list",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(rootOpts, cmd, false, func(s *app.Session, f *OutputFormatter) error {
				sec, ok := s.AddSection(cmd.Context(), record.SectionInput{ListID: listID, Name: args[0], Position: position})
				if !ok {
					return f.Fail(ErrCodeMutation, s.Sections.Error())
				}
				return f.Lines(sec, []string{fmt.Sprintf("created section %s in list %s", sec.ID, sec.ListID)})
			})
		},
	}
	add.Flags().StringVar(&listID, "list", "", "list id (required)")
	add.Flags().IntVar(&position, "position", 0, "display position within the list")
	_ = add.MarkFlagRequired("list")

	var lsList string
	ls := &cobra.Command{
		Use:           "ls",
		Short:         "Show the sections of a list",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(rootOpts, cmd, false, func(s *app.Session, f *OutputFormatter) error {
				if !s.Sections.LoadByParent(cmd.Context(), lsList) {
					return f.Fail(ErrCodeLoad, s.Sections.Error())
				}
				sections := s.Sections.Entries()
				lines := make([]string, len(sections))
				for i, sec := range sections {
					lines[i] = fmt.Sprintf("%s  %-24s position %d", sec.ID, sec.Name, sec.Position)
				}
				return f.Lines(sections, lines)
			})
		},
	}
	ls.Flags().StringVar(&lsList, "list", "", "list id (required)")
	_ = ls.MarkFlagRequired("list")

	cmd.AddCommand(add, ls)
	return cmd
}
