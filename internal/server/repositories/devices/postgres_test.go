package devices

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/gophnotes/internal/server/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUpsert(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	defer db.Close()

	now := time.Now().UTC()
	mock.ExpectQuery(`INSERT INTO devices \(id, user_id, name, platform\) VALUES \(\$1, \$2, \$3, \$4\) ON CONFLICT \(user_id, id\) DO UPDATE SET name = EXCLUDED\.name, platform = EXCLUDED\.platform RETURNING created_at`).
		WithArgs("d1", "u1", "laptop", "linux").
		WillReturnRows(sqlmock.NewRows([]string{"created_at"}).AddRow(now))

	d := &models.Device{ID: "d1", UserID: "u1", Name: "laptop", Platform: "linux"}
	require.NoError(t, NewPostgresRepository(db).Upsert(context.Background(), d))
	assert.Equal(t, now, d.CreatedAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpsert_DBError(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(`INSERT INTO devices`).WillReturnError(errors.New("db down"))

	err = NewPostgresRepository(db).Upsert(context.Background(), &models.Device{ID: "d1", UserID: "u1"})
	assert.ErrorContains(t, err, "db error: db down")
}
