// Package repomanager vends repositories bound to a database handle, so a
// service can run several of them against the same transaction.
package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/gophnotes/internal/dbx"
	"github.com/dmitrijs2005/gophnotes/internal/server/repositories/changes"
	"github.com/dmitrijs2005/gophnotes/internal/server/repositories/collaborators"
	"github.com/dmitrijs2005/gophnotes/internal/server/repositories/devices"
	"github.com/dmitrijs2005/gophnotes/internal/server/repositories/notes"
	"github.com/dmitrijs2005/gophnotes/internal/server/repositories/refreshtokens"
	"github.com/dmitrijs2005/gophnotes/internal/server/repositories/users"
)

type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Users(db dbx.DBTX) users.Repository
	Devices(db dbx.DBTX) devices.Repository
	RefreshTokens(db dbx.DBTX) refreshtokens.Repository
	Notes(db dbx.DBTX) notes.Repository
	Changes(db dbx.DBTX) changes.Repository
	Collaborators(db dbx.DBTX) collaborators.Repository
}
