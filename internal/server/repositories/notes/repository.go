// Package notes stores notes in PostgreSQL.
package notes

import (
	"context"

	"github.com/dmitrijs2005/gophnotes/internal/server/models"
)

// Repository persists notes, tombstones included.
type Repository interface {
	// GetForUpdate loads a note and locks its row until the surrounding
	// transaction ends. Returns common.ErrorNotFound if absent.
	GetForUpdate(ctx context.Context, id string) (*models.Note, error)

	// OwnersOf returns the distinct owners of the existing notes among ids,
	// without locking them.
	OwnersOf(ctx context.Context, ids []string) ([]string, error)

	// Create inserts a new note. If the id is already taken it returns
	// common.ErrorAlreadyExists and writes nothing.
	Create(ctx context.Context, note *models.Note) error

	// Update overwrites every mutable column of an existing note.
	Update(ctx context.Context, note *models.Note) error

	// ListOwned returns non-deleted notes owned by userID, newest first.
	ListOwned(ctx context.Context, userID string) ([]*models.Note, error)

	// ListShared returns non-deleted notes on which userID is a collaborator.
	ListShared(ctx context.Context, userID string) ([]*models.Note, error)

	// SetShared flips the is_shared flag without touching updated_at.
	SetShared(ctx context.Context, id string, shared bool) error
}
