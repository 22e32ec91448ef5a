// Package pg connects to PostgreSQL through a pgx pool and applies embedded
// goose migrations.
package pg
