// Package notes persists the device's copy of notes in the local SQLite
// store. Tombstones are kept so a deletion survives until it is synced.
package notes

import (
	"context"

	"github.com/dmitrijs2005/gophnotes/internal/client/models"
)

type Repository interface {
	// Upsert inserts the note or overwrites every column of the stored one.
	Upsert(ctx context.Context, n *models.Note) error
	// Get returns common.ErrorNotFound when the id is unknown. Tombstones are
	// returned.
	Get(ctx context.Context, id string) (*models.Note, error)
	// ListVisible returns non-deleted notes, pinned first, then the most
	// recently updated.
	ListVisible(ctx context.Context) ([]models.Note, error)
	SetUpdatedAt(ctx context.Context, id string, ts string) error
	// Delete removes the row outright. Use a tombstone for user deletions.
	Delete(ctx context.Context, id string) error
	Clear(ctx context.Context) error
}
