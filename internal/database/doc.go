// Package database wires the Postgres connection pool used by the event
// journal.
package database
