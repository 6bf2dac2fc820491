// Package migrations holds the versioned schema for each supported store.
package migrations

import "embed"

// FS contains sqlite/*.sql and postgres/*.sql, named NNN_description.sql
//
//go:embed sqlite/*.sql postgres/*.sql
var FS embed.FS

const (
	SQLiteDir   = "sqlite"
	PostgresDir = "postgres"
)
