// Package changes stores the append-only change ledger.
package changes

import (
	"context"

	"github.com/dmitrijs2005/gophnotes/internal/server/models"
)

// Repository appends and pages ledger entries. Sequence numbers are assigned
// by the database; they follow commit order within a ledger only while the
// appending transaction holds that ledger's lock.
type Repository interface {
	// LockLedgers blocks until the transaction holds the append locks of
	// the given users' ledgers. The locks are released when it ends.
	LockLedgers(ctx context.Context, userIDs []string) error

	Append(ctx context.Context, change *models.Change) (int64, error)

	// ListAfter returns up to limit entries of userID with seq > cursor, in
	// ascending seq order.
	ListAfter(ctx context.Context, userID string, cursor int64, limit int) ([]*models.Change, error)

	// LatestFor returns the highest seq recorded for the entity, or 0.
	LatestFor(ctx context.Context, userID, entityID string) (int64, error)
}
