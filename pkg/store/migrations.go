package store

import "embed"

// Migrations holds the goose migrations for the mapping and queue tables.
//
//go:embed migrations/*.sql
var Migrations embed.FS

// MigrationsDir is the directory of Migrations passed to pg.Migrate.
const MigrationsDir = "migrations"
