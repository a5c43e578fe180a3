package commands

import (
	"boilerroom-backend/internal/db"
	"boilerroom-backend/lib/serviceutil"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(migrateCmd)
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Brings the database schema up to date.",
	Run: func(cmd *cobra.Command, args []string) {
		config, err := readConfig()
		if err != nil {
			serviceutil.Fatal("failed to read config", err)
		}

		switch config.Database.Driver {
		case db.DriverPostgres:
			err = db.Migrate(config.Database.Url)
		case db.DriverSqlite:
			err = applySchema(config.Database.Url)
		default:
			err = fmt.Errorf("unsupported database driver %q", config.Database.Driver)
		}
		if err != nil {
			serviceutil.Fatal("failed to migrate database", err)
		}
		slog.Info("migrated database", "driver", config.Database.Driver)
	},
}

// sqlite databases are only used locally, they get the latest schema
// directly instead of versioned migrations.
func applySchema(dsn string) error {
	database, err := db.Open(db.DriverSqlite, dsn)
	if err != nil {
		return err
	}
	defer database.Close()
	_, err = database.Exec(db.Schema)
	return err
}
