// Package pendingops stores the queue of local mutations awaiting
// confirmation from the server. The table is keyed by note id, so a note has
// at most one pending op and a newer one replaces the older in place.
package pendingops

import (
	"context"
	"time"

	"github.com/dmitrijs2005/gophnotes/internal/client/models"
)

type Repository interface {
	// Upsert stores op, replacing any op queued for the same id.
	Upsert(ctx context.Context, op *models.PendingOp) error
	// Get returns common.ErrorNotFound when nothing is queued for id.
	Get(ctx context.Context, id string) (*models.PendingOp, error)
	// List returns every queued op ordered by updated_at, then id.
	List(ctx context.Context) ([]models.PendingOp, error)
	Delete(ctx context.Context, id string) error
	// DeleteNotAfter removes the op for id only if it is not newer than ts,
	// and reports whether a row was removed.
	DeleteNotAfter(ctx context.Context, id string, ts time.Time) (bool, error)
	Clear(ctx context.Context) error
}
