package devices

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/gophnotes/internal/dbx"
	"github.com/dmitrijs2005/gophnotes/internal/server/models"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Upsert(ctx context.Context, d *models.Device) error {
	query := `INSERT INTO devices (id, user_id, name, platform)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (user_id, id)
		DO UPDATE SET name = EXCLUDED.name, platform = EXCLUDED.platform
		RETURNING created_at`

	if err := r.db.QueryRowContext(ctx, query, d.ID, d.UserID, d.Name, d.Platform).Scan(&d.CreatedAt); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}
