package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/pantry/internal/app"
	"github.com/roach88/pantry/internal/record"
)

// NewPurchasesCommand creates the purchases command group.
func NewPurchasesCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "purchases",
		Short: "Record and show purchases",
	}

	var in record.PurchaseInput
	add := &cobra.Command{
		Use:           "add <item>",
		Short:         "Record a purchase",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(rootOpts, cmd, false, func(s *app.Session, f *OutputFormatter) error {
				in.ItemName = args[0]
				p, ok := s.Purchases.Create(cmd.Context(), in)
				if !ok {
					return f.Fail(ErrCodeMutation, s.Purchases.Error())
				}
				return f.Lines(p, []string{fmt.Sprintf("recorded purchase %s", p.ID)})
			})
		},
	}
	add.Flags().StringVar(&in.ListID, "list", "", "list id (required)")
	add.Flags().IntVar(&in.Quantity, "qty", 1, "quantity")
	add.Flags().Int64Var(&in.PriceCents, "price", 0, "price in cents")
	_ = add.MarkFlagRequired("list")

	var listID string
	ls := &cobra.Command{
		Use:           "ls",
		Short:         "Show purchases, newest first",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(rootOpts, cmd, false, func(s *app.Session, f *OutputFormatter) error {
				var ok bool
				if listID != "" {
					ok = s.Purchases.LoadByParent(cmd.Context(), listID)
				} else {
					ok = s.Purchases.LoadAll(cmd.Context())
				}
				if !ok {
					return f.Fail(ErrCodeLoad, s.Purchases.Error())
				}
				entries := s.Purchases.Entries()
				return f.Lines(entries, purchaseLines(entries))
			})
		},
	}
	ls.Flags().StringVar(&listID, "list", "", "only purchases of this list")

	cmd.AddCommand(add, ls)
	return cmd
}

func purchaseLines(entries []record.PurchaseEntry) []string {
	lines := make([]string, len(entries))
	for i, p := range entries {
		lines[i] = fmt.Sprintf("%s  %s  %-24s x%d  %d.%02d",
			p.ID, p.CreatedAt.Format("2006-01-02 15:04"), p.ItemName, p.Quantity, p.PriceCents/100, p.PriceCents%100)
	}
	return lines
}
