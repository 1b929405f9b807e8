package store

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/gophnotes/internal/client/migrations"

	_ "modernc.org/sqlite"
)

// DriverName is the database/sql driver registered by modernc.org/sqlite.
const DriverName = "sqlite"

// Open opens the SQLite file at path and brings its schema up to date.
// The pool is capped at one connection, so every statement and transaction
// of the process is serialized by database/sql instead of by SQLite locks.
func Open(ctx context.Context, path string) (*sql.DB, error) {
	db, err := sql.Open(DriverName, path)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)

	if err := migrations.Up(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}
