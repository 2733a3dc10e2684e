// Package migrations embeds the docfilter schema, one directory per SQL
// dialect, so the binary carries its own schema.
package migrations

import "embed"

//go:embed sqlite/*.sql
var SqliteMigrations embed.FS

//go:embed postgres/*.sql
var PostgresMigrations embed.FS
