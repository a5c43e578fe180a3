package db

import (
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"
)

const (
	DriverPostgres = "postgres"
	DriverSqlite   = "sqlite"
)

// Open connects to a database, `driver` is either "postgres" or "sqlite".
func Open(driver, dsn string) (*sqlx.DB, error) {
	if dsn == "" {
		return nil, fmt.Errorf("no database url was specified")
	}

	database, err := sqlx.Open(driver, dsn)
	if err != nil {
		return nil, err
	}

	switch driver {
	case DriverSqlite:
		// see this stackoverflow post for information on why the following
		// lines exist: https://stackoverflow.com/questions/35804884/sqlite-concurrent-writing-performance
		database.SetMaxOpenConns(1)
		if !strings.Contains(dsn, ":memory:") {
			_, err = database.Exec("PRAGMA journal_mode=WAL")
			if err != nil {
				database.Close()
				return nil, err
			}
		}
	case DriverPostgres:
		database.SetMaxOpenConns(10)
		database.SetMaxIdleConns(5)
	default:
		database.Close()
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}

	return database, nil
}
