package db

import (
	"embed"
)

//go:embed migrations/*.sql
var migrations embed.FS

// Schema is the full schema at the latest migration, for setting up
// throwaway databases in tests.
//
//go:embed migrations/0001_init.up.sql
var Schema string
