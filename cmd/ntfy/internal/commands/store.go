package commands

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/coregx/ntfy"
	"github.com/coregx/ntfy/adapters/relica"
)

// openStore opens the configured store, with driver and dsn overriding the
// config file, and applies the migrations. It returns nil repositories when
// no store is configured. closeStore must be called when repos is not nil.
func (a *app) openStore(ctx context.Context, driver, dsn string) (repos *relica.Repositories, closeStore func(), err error) {
	store := a.cfg.Store
	if driver != "" {
		store.Driver = driver
	}
	if dsn != "" {
		store.DSN = dsn
	}
	if !store.Enabled() {
		return nil, nil, nil
	}
	if err := store.Validate(); err != nil {
		return nil, nil, fmt.Errorf("invalid store: %w", err)
	}

	db, err := sql.Open(store.Driver, store.GetDSN())
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open store: %w", err)
	}
	closeStore = func() {
		if closeErr := db.Close(); closeErr != nil {
			a.logger.Warn("failed to close store", "err", closeErr)
		}
	}
	if err := ntfy.MigrateWithPrefix(ctx, db, store.Driver, store.Prefix); err != nil {
		closeStore()
		return nil, nil, err
	}

	a.logger.Debug("store enabled", "driver", store.Driver, "prefix", store.Prefix)
	return relica.NewRepositoriesWithPrefix(db, store.Driver, store.Prefix), closeStore, nil
}

// newWatermarksCommand constructs the `watermarks` command.
func newWatermarksCommand(a *app) *cobra.Command {
	var driver, dsn string

	cmd := &cobra.Command{
		Use:   "watermarks",
		Short: "List the stored resume points of subscriptions",
		Long: `List the last delivered message of every subscription recorded in the
store. A subscribe run without --since continues after that message.`,
		Example: `  ntfy watermarks --store-driver sqlite3 --store-dsn ntfy.db`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			repos, closeStore, err := a.openStore(cmd.Context(), driver, dsn)
			if err != nil {
				return err
			}
			if repos == nil {
				return errors.New("no store configured: set --store-driver or the store section of the config file")
			}
			defer closeStore()

			wms, err := repos.Watermark.List(cmd.Context())
			if err != nil {
				return err
			}

			table := tablewriter.NewWriter(cmd.OutOrStdout())
			table.SetHeader([]string{"Subscription", "Message ID", "Sent", "Updated"})
			table.SetAutoWrapText(false)
			for _, wm := range wms {
				table.Append([]string{
					wm.SubscriptionKey,
					wm.MessageID,
					time.Unix(wm.MessageTime, 0).Format(dateLayout),
					humanize.Time(time.Unix(wm.UpdatedAt, 0)),
				})
			}
			table.Render()
			return nil
		},
	}

	cmd.Flags().StringVar(&driver, "store-driver", "", "Store driver: sqlite3|mysql|postgres")
	cmd.Flags().StringVar(&dsn, "store-dsn", "", "Store connection string")

	return cmd
}
