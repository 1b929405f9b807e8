package notes

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

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

const columns = `id, user_id, title, content, color, pos_x, pos_y, width, height, z_index,
	pinned, archived, due_at, reminder_at, recurrence_rule, is_shared, deleted_at,
	last_modified_by_device, updated_at`

func (r *SQLiteRepository) Upsert(ctx context.Context, n *models.Note) error {
	query := `INSERT INTO notes (` + columns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			user_id = excluded.user_id,
			title = excluded.title,
			content = excluded.content,
			color = excluded.color,
			pos_x = excluded.pos_x,
			pos_y = excluded.pos_y,
			width = excluded.width,
			height = excluded.height,
			z_index = excluded.z_index,
			pinned = excluded.pinned,
			archived = excluded.archived,
			due_at = excluded.due_at,
			reminder_at = excluded.reminder_at,
			recurrence_rule = excluded.recurrence_rule,
			is_shared = excluded.is_shared,
			deleted_at = excluded.deleted_at,
			last_modified_by_device = excluded.last_modified_by_device,
			updated_at = excluded.updated_at`

	_, err := r.db.ExecContext(ctx, query,
		n.ID, n.OwnerID, n.Title, n.Content, n.Color, n.PosX, n.PosY, n.Width, n.Height, n.ZIndex,
		n.Pinned, n.Archived, nullTime(n.DueAt), nullTime(n.ReminderAt), nullString(n.RecurrenceRule),
		n.IsShared, nullTime(n.DeletedAt), nullString(n.LastModifiedByDevice), models.FormatTime(n.UpdatedAt))
	if err != nil {
		return fmt.Errorf("failed to upsert note %s: %w", n.ID, err)
	}
	return nil
}

func (r *SQLiteRepository) Get(ctx context.Context, id string) (*models.Note, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+columns+` FROM notes WHERE id = ?`, id)

	n, err := scan(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.ErrorNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get note %s: %w", id, err)
	}
	return n, nil
}

func (r *SQLiteRepository) ListVisible(ctx context.Context) ([]models.Note, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+columns+` FROM notes
		WHERE deleted_at IS NULL
		ORDER BY pinned DESC, updated_at DESC, id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list notes: %w", err)
	}
	defer rows.Close()

	var result []models.Note
	for rows.Next() {
		n, err := scan(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan note row: %w", err)
		}
		result = append(result, *n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate note rows: %w", err)
	}
	return result, nil
}

// SetUpdatedAt overwrites updated_at only. ts must be in models.TimeLayout.
func (r *SQLiteRepository) SetUpdatedAt(ctx context.Context, id string, ts string) error {
	_, err := r.db.ExecContext(ctx, `UPDATE notes SET updated_at = ? WHERE id = ?`, ts, id)
	if err != nil {
		return fmt.Errorf("failed to update note %s: %w", id, err)
	}
	return nil
}

func (r *SQLiteRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM notes WHERE id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete note %s: %w", id, err)
	}
	return nil
}

func (r *SQLiteRepository) Clear(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM notes`); err != nil {
		return fmt.Errorf("failed to clear notes: %w", err)
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scan(s scanner) (*models.Note, error) {
	var (
		n                                    models.Note
		dueAt, reminderAt, deletedAt         sql.NullString
		recurrenceRule, lastModifiedByDevice sql.NullString
		updatedAt                            string
	)
	err := s.Scan(&n.ID, &n.OwnerID, &n.Title, &n.Content, &n.Color, &n.PosX, &n.PosY, &n.Width, &n.Height, &n.ZIndex,
		&n.Pinned, &n.Archived, &dueAt, &reminderAt, &recurrenceRule, &n.IsShared, &deletedAt,
		&lastModifiedByDevice, &updatedAt)
	if err != nil {
		return nil, err
	}

	if n.UpdatedAt, err = models.ParseTime(updatedAt); err != nil {
		return nil, err
	}
	if n.DueAt, err = parseNullTime(dueAt); err != nil {
		return nil, err
	}
	if n.ReminderAt, err = parseNullTime(reminderAt); err != nil {
		return nil, err
	}
	if n.DeletedAt, err = parseNullTime(deletedAt); err != nil {
		return nil, err
	}
	if recurrenceRule.Valid {
		n.RecurrenceRule = &recurrenceRule.String
	}
	if lastModifiedByDevice.Valid {
		n.LastModifiedByDevice = &lastModifiedByDevice.String
	}
	return &n, nil
}

func nullTime(t *time.Time) sql.NullString {
	if t == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: models.FormatTime(*t), Valid: true}
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

func parseNullTime(s sql.NullString) (*time.Time, error) {
	if !s.Valid {
		return nil, nil
	}
	t, err := models.ParseTime(s.String)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
