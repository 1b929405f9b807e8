package changes

import (
	"context"
	"fmt"
	"slices"

	"github.com/dmitrijs2005/gophnotes/internal/dbx"
	"github.com/dmitrijs2005/gophnotes/internal/server/models"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// LockLedgers takes transaction-scoped advisory locks in sorted order, so
// two transactions locking overlapping ledgers cannot deadlock on them.
func (r *PostgresRepository) LockLedgers(ctx context.Context, userIDs []string) error {
	ids := slices.Clone(userIDs)
	slices.Sort(ids)
	for _, id := range slices.Compact(ids) {
		if _, err := r.db.ExecContext(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, id); err != nil {
			return fmt.Errorf("failed to lock ledger of %s: %w", id, err)
		}
	}
	return nil
}

func (r *PostgresRepository) Append(ctx context.Context, c *models.Change) (int64, error) {
	query := `INSERT INTO changes (user_id, entity, entity_id, op, device_id, snapshot)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING seq, created_at`

	err := r.db.QueryRowContext(ctx, query,
		c.UserID, c.Entity, c.EntityID, c.Op, c.DeviceID, string(c.Snapshot),
	).Scan(&c.Seq, &c.CreatedAt)
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	return c.Seq, nil
}

func (r *PostgresRepository) ListAfter(ctx context.Context, userID string, cursor int64, limit int) ([]*models.Change, error) {
	query := `SELECT seq, user_id, entity, entity_id, op, device_id, snapshot, created_at
		FROM changes
		WHERE user_id = $1 AND seq > $2
		ORDER BY seq
		LIMIT $3`

	rows, err := r.db.QueryContext(ctx, query, userID, cursor, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to select changes: %w", err)
	}
	defer rows.Close()

	result := []*models.Change{}
	for rows.Next() {
		c := &models.Change{}
		if err := rows.Scan(&c.Seq, &c.UserID, &c.Entity, &c.EntityID, &c.Op, &c.DeviceID, &c.Snapshot, &c.CreatedAt); err != nil {
			return nil, err
		}
		result = append(result, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (r *PostgresRepository) LatestFor(ctx context.Context, userID, entityID string) (int64, error) {
	query := `SELECT COALESCE(MAX(seq), 0) FROM changes WHERE user_id = $1 AND entity_id = $2`

	var seq int64
	if err := r.db.QueryRowContext(ctx, query, userID, entityID).Scan(&seq); err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	return seq, nil
}
