package commands

import (
	"boilerroom-backend/lib/serviceutil"
	"context"
	"log/slog"

	"github.com/spf13/cobra"
)

func init() {
	enqueueCmd.AddCommand(enqueueGamesCmd)
	enqueueCmd.AddCommand(enqueueProfilesCmd)
	rootCmd.AddCommand(enqueueCmd)
}

var enqueueCmd = &cobra.Command{
	Use:   "enqueue",
	Short: "Adds ids to the buffers read by the cronjob.",
}

func enqueue(ctx context.Context, kind string, ids []string, add func(ctx context.Context, id string) error) {
	for _, id := range ids {
		err := add(ctx, id)
		if err != nil {
			serviceutil.Fatal("failed to enqueue "+kind, err)
		}
	}
	slog.Info("enqueued", "kind", kind, "count", len(ids))
}

var enqueueGamesCmd = &cobra.Command{
	Use:   "games <app-id>...",
	Short: "Buffers steam app ids for the next load-games run.",
	Args:  cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		d := setup()
		defer d.Close()
		enqueue(cmd.Context(), "games", args, d.store.EnqueueGame)
	},
}

var enqueueProfilesCmd = &cobra.Command{
	Use:   "profiles <steam-id>...",
	Short: "Buffers steam profiles for the next playtime update.",
	Args:  cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		d := setup()
		defer d.Close()
		enqueue(cmd.Context(), "profiles", args, d.store.EnqueueProfile)
	},
}
