// Package migrations embeds the SQLite schema of the client's local store and
// applies it with goose.
package migrations

import (
	"context"
	"database/sql"
	"embed"

	"github.com/pressly/goose/v3"
)

//go:embed *.sql
var Migrations embed.FS

// Dialect is the goose dialect of the local store.
const Dialect = "sqlite3"

// gooseLogger receives goose's progress output, which would otherwise be
// printed to stderr over the interactive prompt.
var gooseLogger goose.Logger = goose.NopLogger()

// Up applies every pending migration to db.
func Up(ctx context.Context, db *sql.DB) error {
	goose.SetLogger(gooseLogger)
	goose.SetBaseFS(Migrations)
	if err := goose.SetDialect(Dialect); err != nil {
		return err
	}
	return goose.UpContext(ctx, db, ".")
}
