package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/roach88/pantry/internal/app"
	"github.com/roach88/pantry/internal/live"
	"github.com/roach88/pantry/internal/notify"
	"github.com/roach88/pantry/internal/record"
)

// WatchOptions holds flags for the watch command.
type WatchOptions struct {
	*RootOptions
	Topic string
}

// NewWatchCommand creates the watch command.
func NewWatchCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &WatchOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Print the newest entries every time they change",
		Long: `Keep a live window over the newest entries of a topic and print it
whenever the database changes, including writes made by other pantry
processes. Runs until interrupted.

Example:
  pantry watch --topic purchases`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(rootOpts, cmd, false, func(s *app.Session, f *OutputFormatter) error {
				return runWatch(opts, s, f, cmd)
			})
		},
	}

	cmd.Flags().StringVar(&opts.Topic, "topic", notify.TopicPurchases, "topic to watch (purchases|searches|lists)")

	return cmd
}

func runWatch(opts *WatchOptions, s *app.Session, f *OutputFormatter, cmd *cobra.Command) error {
	// Use command's context if available (for testing), otherwise create one
	parentCtx := cmd.Context()
	if parentCtx == nil {
		parentCtx = context.Background()
	}
	ctx, cancel := signal.NotifyContext(parentCtx, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	size := s.Config().Window.Size
	var stop func()
	var err error
	switch opts.Topic {
	case notify.TopicPurchases:
		stop, err = watchWindow(ctx, s, f, live.PageQuery[record.PurchaseEntry](opts.Topic, size, s.Store.Purchases()), purchaseLines)
	case notify.TopicSearches:
		stop, err = watchWindow(ctx, s, f, live.PageQuery[record.SearchEntry](opts.Topic, size, s.Store.Searches()), searchLines)
	case notify.TopicLists:
		stop, err = watchWindow(ctx, s, f, live.PageQuery[record.List](opts.Topic, size, s.Store.Lists()), func(lists []record.List) []string {
			lines := make([]string, len(lists))
			for i, l := range lists {
				lines[i] = fmt.Sprintf("%s  %s", l.ID, l.Name)
			}
			return lines
		})
	default:
		return NewExitError(ExitCommandError, fmt.Sprintf("unknown topic %q: must be purchases, searches or lists", opts.Topic))
	}
	if err != nil {
		return WrapExitError(ExitFailure, "failed to start watch", err)
	}
	defer stop()

	f.VerboseLog("watching %s (window of %d)", opts.Topic, size)
	if err := s.Watch(ctx); err != nil && ctx.Err() == nil {
		return WrapExitError(ExitFailure, "watch error", err)
	}
	return nil
}

// watchWindow starts a live window, prints its first state and then every
// change. The returned function closes the window.
func watchWindow[T record.Record](ctx context.Context, s *app.Session, f *OutputFormatter, q live.Query[T], lines func([]T) []string) (func(), error) {
	w := live.New(s.Hub, q)
	if err := w.Start(ctx); err != nil {
		w.Close()
		return nil, err
	}

	show := func(st live.State[T]) {
		if st.Err != nil {
			_ = f.Error(ErrCodeLoad, st.Err.Error(), nil)
			return
		}
		out := append([]string{fmt.Sprintf("-- %s: %d entries at %s", q.Topic, len(st.Data), st.UpdatedAt.Format("15:04:05"))}, lines(st.Data)...)
		_ = f.Lines(st.Data, out)
	}
	show(w.State())
	w.OnChange(show)
	return w.Close, nil
}
