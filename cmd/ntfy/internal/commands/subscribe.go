package commands

import (
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/coregx/ntfy"
	"github.com/coregx/ntfy/model"
)

type subscribeFlags struct {
	since       string
	poll        bool
	scheduled   bool
	id          string
	message     string
	title       string
	priorities  []int
	tags        []string
	storeDriver string
	storeDSN    string
	verbose     bool
}

func (f *subscribeFlags) filter() model.SubscribeFilter {
	return model.SubscribeFilter{
		Since:      f.since,
		ID:         f.id,
		Message:    f.message,
		Title:      f.title,
		Priorities: f.priorities,
		Tags:       f.tags,
		Poll:       f.poll,
		Scheduled:  f.scheduled,
	}
}

// newSubscribeCommand constructs the `subscribe` command.
func newSubscribeCommand(a *app) *cobra.Command {
	var f subscribeFlags

	cmd := &cobra.Command{
		Use:   "subscribe <server> <topic>...",
		Short: "Subscribe to topics on a remote ntfy server",
		Long: `Subscribe to one or more topics on a remote ntfy server and print every
message as it arrives. The subscription reconnects on its own until
interrupted; with --poll it exits after printing the cached messages.

With a store (--store-driver and --store-dsn, or the store section of the
config file) every message is archived and a later run without --since
continues after the last printed message.`,
		Example: `  ntfy subscribe home alerts backups --tags warning -v
  ntfy subscribe home alerts --since 1h --poll
  ntfy subscribe home alerts --store-driver sqlite3 --store-dsn ntfy.db`,
		Args: cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			var extra []ntfy.Option
			repos, closeStore, err := a.openStore(ctx, f.storeDriver, f.storeDSN)
			if err != nil {
				return err
			}
			if repos != nil {
				defer closeStore()
				extra = repos.Options()
			}

			reg, err := a.newRegistry(extra...)
			if err != nil {
				return err
			}
			client, err := a.client(reg, args[0])
			if err != nil {
				return err
			}

			sub, err := client.Subscribe(ctx, args[1:], f.filter())
			if err != nil {
				return err
			}
			defer func() { _ = sub.Close() }()

			p := newPrinter(cmd.OutOrStdout(), terminalWidth(), f.verbose)
			for m := range sub.All() {
				p.print(m)
			}
			return nil
		},
	}

	fl := cmd.Flags()
	fl.StringVar(&f.since, "since", "", "Return cached messages since timestamp, duration or message ID")
	fl.BoolVar(&f.poll, "poll", false, "Return cached messages and exit")
	fl.BoolVar(&f.scheduled, "scheduled", false, "Include scheduled/delayed messages in message list")
	fl.StringVar(&f.id, "id", "", "Filter: only messages that match this exact message ID")
	fl.StringVar(&f.message, "message", "", "Filter: only messages that match this exact message string")
	fl.StringVar(&f.title, "title", "", "Filter: only messages that match this exact title string")
	fl.IntSliceVar(&f.priorities, "priority", nil, "Filter: only messages that match any priority listed")
	fl.StringSliceVar(&f.tags, "tags", nil, "Filter: only messages that match all listed tags")
	fl.StringVar(&f.storeDriver, "store-driver", "", "Store driver: sqlite3|mysql|postgres")
	fl.StringVar(&f.storeDSN, "store-dsn", "", "Store connection string")
	fl.BoolVarP(&f.verbose, "verbose", "v", false, "Print message details")

	return cmd
}

// terminalWidth returns the width of stdout, 80 when it is not a terminal.
func terminalWidth() int {
	if w, _, err := term.GetSize(int(os.Stdout.Fd())); err == nil && w > 20 {
		return w
	}
	return 80
}
