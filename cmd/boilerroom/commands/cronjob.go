package commands

import (
	"boilerroom-backend/lib/serviceutil"
	"os"

	"github.com/goccy/go-json"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(cronjobCmd)
	rootCmd.AddCommand(loadGamesCmd)
}

func printJson(value any) {
	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	err := encoder.Encode(value)
	if err != nil {
		serviceutil.Fatal("failed to write output", err)
	}
}

var cronjobCmd = &cobra.Command{
	Use:   "cronjob",
	Short: "Loads buffered games, then updates the playtimes of buffered profiles.",
	Run: func(cmd *cobra.Command, args []string) {
		d := setup()
		defer d.Close()

		summary, err := d.service.RunCronjob(cmd.Context())
		if err != nil {
			serviceutil.Fatal("cronjob failed", err)
		}
		printJson(summary)
	},
}

var loadGamesCmd = &cobra.Command{
	Use:   "load-games",
	Short: "Enriches a single batch of buffered games with steam store data.",
	Run: func(cmd *cobra.Command, args []string) {
		d := setup()
		defer d.Close()

		summary, err := d.service.LoadGames(cmd.Context())
		if err != nil {
			serviceutil.Fatal("failed to load games", err)
		}
		printJson(summary)
	},
}
