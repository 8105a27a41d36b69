package database

import "embed"

// EmbedMigrations holds the goose SQL migrations for postgres.
//
//go:embed migrations/*.sql
var EmbedMigrations embed.FS
