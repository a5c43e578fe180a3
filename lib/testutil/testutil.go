package testutil

import (
	"boilerroom-backend/lib/telemetry"
	"fmt"
	"strings"
	"testing"

	"github.com/jmoiron/sqlx"

	_ "modernc.org/sqlite"
)

type ServiceParams struct {
	Name string
	// if unspecified, it will skip setting up a db
	DbSchema string
	// if unspecified, it will use `:memory:`
	DbPath string
}

type ServiceResult struct {
	DB *sqlx.DB
}

func SetupService(t testing.TB, params ServiceParams) ServiceResult {
	t.Helper()

	cleanup := telemetry.SetupForTesting(fmt.Sprintf("test:%s", params.Name))
	t.Cleanup(cleanup)

	if params.DbSchema == "" {
		return ServiceResult{}
	}

	dbpath := ":memory:"
	if params.DbPath != "" {
		dbpath = params.DbPath
	}
	sqlite, err := sqlx.Open("sqlite", dbpath)
	if err != nil {
		t.Fatal(err)
	}
	// every connection to ":memory:" is a new database
	sqlite.SetMaxOpenConns(1)
	t.Cleanup(func() {
		sqlite.Close()
	})

	_, err = sqlite.Exec(params.DbSchema)
	if err != nil && !strings.Contains(err.Error(), "already exists") {
		t.Fatal(err)
	}

	return ServiceResult{
		DB: sqlite,
	}
}
