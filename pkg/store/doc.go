// Package store persists customer mappings in Postgres and embeds the
// schema migrations of the service.
package store
