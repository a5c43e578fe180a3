package commands

import (
	"boilerroom-backend/internal/enrichment"
	"log/slog"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(hltbCmd)
}

var hltbCmd = &cobra.Command{
	Use:   "hltb <steam-id>...",
	Short: "Updates playtimes and boil ratings for the given steam profiles, without touching the profile buffer.",
	Args:  cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		d := setup()
		defer d.Close()

		summary := enrichment.PlaytimeSummary{}
		for _, steamId := range args {
			result, err := d.service.UpdateProfile(cmd.Context(), steamId)
			if err != nil {
				slog.Error("failed to update profile", "steam_id", steamId, "err", err)
				result.Error = err.Error()
				summary.Failed++
			}
			summary.Updated += result.Updated
			summary.Profiles = append(summary.Profiles, result)
		}
		printJson(summary)
	},
}
