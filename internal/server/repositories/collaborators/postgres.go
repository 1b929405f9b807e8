package collaborators

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/gophnotes/internal/dbx"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) IsCollaborator(ctx context.Context, noteID, userID string) (bool, error) {
	query := `SELECT EXISTS (SELECT 1 FROM note_collaborators WHERE note_id = $1 AND user_id = $2)`

	var ok bool
	if err := r.db.QueryRowContext(ctx, query, noteID, userID).Scan(&ok); err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}
	return ok, nil
}

func (r *PostgresRepository) AddByEmail(ctx context.Context, noteID, email string) (bool, error) {
	query := `INSERT INTO note_collaborators (note_id, user_id)
		SELECT $1, u.id FROM users u
		JOIN notes n ON n.id = $1
		WHERE u.email = $2 AND u.id <> n.user_id
		ON CONFLICT DO NOTHING`

	return r.exec(ctx, query, noteID, email)
}

func (r *PostgresRepository) RemoveByEmail(ctx context.Context, noteID, email string) (bool, error) {
	query := `DELETE FROM note_collaborators
		WHERE note_id = $1 AND user_id IN (SELECT id FROM users WHERE email = $2)`

	return r.exec(ctx, query, noteID, email)
}

func (r *PostgresRepository) exec(ctx context.Context, query string, args ...any) (bool, error) {
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected error: %w", err)
	}
	return n > 0, nil
}
