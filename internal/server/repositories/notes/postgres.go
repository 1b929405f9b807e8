package notes

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/gophnotes/internal/common"
	"github.com/dmitrijs2005/gophnotes/internal/dbx"
	"github.com/dmitrijs2005/gophnotes/internal/server/models"
)

var columnNames = []string{
	"id", "user_id", "title", "content", "color", "pos_x", "pos_y", "width", "height", "z_index",
	"pinned", "archived", "due_at", "reminder_at", "recurrence_rule", "is_shared", "deleted_at",
	"last_modified_by_device", "updated_at",
}

var columns = strings.Join(columnNames, ", ")

func prefixed(p string) string {
	parts := make([]string, len(columnNames))
	for i, c := range columnNames {
		parts[i] = p + c
	}
	return strings.Join(parts, ", ")
}

// PostgresRepository implements Repository over a dbx.DBTX (*sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

type scanner interface {
	Scan(dest ...any) error
}

func scanNote(s scanner) (*models.Note, error) {
	n := &models.Note{}
	err := s.Scan(
		&n.ID, &n.OwnerID, &n.Title, &n.Content, &n.Color, &n.PosX, &n.PosY, &n.Width, &n.Height, &n.ZIndex,
		&n.Pinned, &n.Archived, &n.DueAt, &n.ReminderAt, &n.RecurrenceRule, &n.IsShared, &n.DeletedAt,
		&n.LastModifiedByDevice, &n.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return n, nil
}

func (r *PostgresRepository) GetForUpdate(ctx context.Context, id string) (*models.Note, error) {
	query := `SELECT ` + columns + ` FROM notes WHERE id = $1 FOR UPDATE`

	n, err := scanNote(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return n, nil
}

func (r *PostgresRepository) OwnersOf(ctx context.Context, ids []string) ([]string, error) {
	if len(ids) == 0 {
		return []string{}, nil
	}
	marks := make([]string, len(ids))
	args := make([]any, len(ids))
	for i, id := range ids {
		marks[i] = fmt.Sprintf("$%d", i+1)
		args[i] = id
	}
	query := `SELECT DISTINCT user_id FROM notes WHERE id IN (` + strings.Join(marks, ", ") + `) ORDER BY user_id`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	owners := []string{}
	for rows.Next() {
		var owner string
		if err := rows.Scan(&owner); err != nil {
			return nil, err
		}
		owners = append(owners, owner)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return owners, nil
}

func (r *PostgresRepository) Create(ctx context.Context, n *models.Note) error {
	query := `INSERT INTO notes (` + columns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19)
		ON CONFLICT (id) DO NOTHING`

	res, err := r.db.ExecContext(ctx, query,
		n.ID, n.OwnerID, n.Title, n.Content, n.Color, n.PosX, n.PosY, n.Width, n.Height, n.ZIndex,
		n.Pinned, n.Archived, n.DueAt, n.ReminderAt, n.RecurrenceRule, n.IsShared, n.DeletedAt,
		n.LastModifiedByDevice, n.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected error: %w", err)
	}
	if affected == 0 {
		return common.ErrorAlreadyExists
	}
	return nil
}

func (r *PostgresRepository) Update(ctx context.Context, n *models.Note) error {
	query := `UPDATE notes SET
		title = $2, content = $3, color = $4, pos_x = $5, pos_y = $6, width = $7, height = $8,
		z_index = $9, pinned = $10, archived = $11, due_at = $12, reminder_at = $13,
		recurrence_rule = $14, is_shared = $15, deleted_at = $16, last_modified_by_device = $17,
		updated_at = $18
		WHERE id = $1`

	res, err := r.db.ExecContext(ctx, query,
		n.ID, n.Title, n.Content, n.Color, n.PosX, n.PosY, n.Width, n.Height,
		n.ZIndex, n.Pinned, n.Archived, n.DueAt, n.ReminderAt,
		n.RecurrenceRule, n.IsShared, n.DeletedAt, n.LastModifiedByDevice,
		n.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected error: %w", err)
	}
	if affected == 0 {
		return common.ErrorNotFound
	}
	return nil
}

func (r *PostgresRepository) ListOwned(ctx context.Context, userID string) ([]*models.Note, error) {
	query := `SELECT ` + columns + ` FROM notes
		WHERE user_id = $1 AND deleted_at IS NULL
		ORDER BY pinned DESC, updated_at DESC`

	return r.list(ctx, query, userID)
}

func (r *PostgresRepository) ListShared(ctx context.Context, userID string) ([]*models.Note, error) {
	query := `SELECT ` + prefixed("n.") + ` FROM notes n
		JOIN note_collaborators c ON c.note_id = n.id
		WHERE c.user_id = $1 AND n.deleted_at IS NULL
		ORDER BY n.updated_at DESC`

	return r.list(ctx, query, userID)
}

func (r *PostgresRepository) SetShared(ctx context.Context, id string, shared bool) error {
	_, err := r.db.ExecContext(ctx, `UPDATE notes SET is_shared = $2 WHERE id = $1`, id, shared)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) list(ctx context.Context, query string, args ...any) ([]*models.Note, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to select notes: %w", err)
	}
	defer rows.Close()

	result := []*models.Note{}
	for rows.Next() {
		n, err := scanNote(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, n)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}
