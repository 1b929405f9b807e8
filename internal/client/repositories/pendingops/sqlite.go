package pendingops

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/gophnotes/internal/api"
	"github.com/dmitrijs2005/gophnotes/internal/client/models"
	"github.com/dmitrijs2005/gophnotes/internal/common"
	"github.com/dmitrijs2005/gophnotes/internal/dbx"
)

// SQLiteRepository implements Repository using a DBTX (either *sql.DB or *sql.Tx).
type SQLiteRepository struct {
	db dbx.DBTX
}

func NewSQLiteRepository(db dbx.DBTX) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

func (r *SQLiteRepository) Upsert(ctx context.Context, op *models.PendingOp) error {
	var data []byte
	if op.Data != nil {
		b, err := json.Marshal(op.Data)
		if err != nil {
			return fmt.Errorf("failed to encode pending op %s: %w", op.ID, err)
		}
		data = b
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO pending_ops (id, type, entity, updated_at, data) VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			type = excluded.type,
			entity = excluded.entity,
			updated_at = excluded.updated_at,
			data = excluded.data
	`, op.ID, op.Type, op.Entity, models.FormatTime(op.UpdatedAt), data)
	if err != nil {
		return fmt.Errorf("failed to upsert pending op %s: %w", op.ID, err)
	}
	return nil
}

func (r *SQLiteRepository) Get(ctx context.Context, id string) (*models.PendingOp, error) {
	row := r.db.QueryRowContext(ctx, `SELECT id, type, entity, updated_at, data FROM pending_ops WHERE id = ?`, id)
	op, err := scan(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.ErrorNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get pending op %s: %w", id, err)
	}
	return op, nil
}

func (r *SQLiteRepository) List(ctx context.Context) ([]models.PendingOp, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, type, entity, updated_at, data FROM pending_ops ORDER BY updated_at, id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list pending ops: %w", err)
	}
	defer rows.Close()

	var result []models.PendingOp
	for rows.Next() {
		op, err := scan(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan pending op row: %w", err)
		}
		result = append(result, *op)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate pending op rows: %w", err)
	}
	return result, nil
}

func (r *SQLiteRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM pending_ops WHERE id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete pending op %s: %w", id, err)
	}
	return nil
}

func (r *SQLiteRepository) DeleteNotAfter(ctx context.Context, id string, ts time.Time) (bool, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM pending_ops WHERE id = ? AND updated_at <= ?`, id, models.FormatTime(ts))
	if err != nil {
		return false, fmt.Errorf("failed to delete pending op %s: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return n > 0, nil
}

func (r *SQLiteRepository) Clear(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM pending_ops`); err != nil {
		return fmt.Errorf("failed to clear pending ops: %w", err)
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scan(s scanner) (*models.PendingOp, error) {
	var (
		op        models.PendingOp
		updatedAt string
		data      []byte
	)
	if err := s.Scan(&op.ID, &op.Type, &op.Entity, &updatedAt, &data); err != nil {
		return nil, err
	}
	ts, err := models.ParseTime(updatedAt)
	if err != nil {
		return nil, err
	}
	op.UpdatedAt = ts

	if len(data) > 0 {
		op.Data = &api.NotePatch{}
		if err := json.Unmarshal(data, op.Data); err != nil {
			return nil, err
		}
	}
	return &op, nil
}
