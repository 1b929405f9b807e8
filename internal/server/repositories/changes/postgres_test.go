package changes

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

func newRepoWithMock(t *testing.T) (*PostgresRepository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() {
		assert.NoError(t, mock.ExpectationsWereMet())
		_ = db.Close()
	})
	return NewPostgresRepository(db), mock
}

func TestAppend_ReturnsSeq(t *testing.T) {
	repo, mock := newRepoWithMock(t)
	now := time.Now().UTC()
	dev := "d1"

	mock.ExpectQuery(`INSERT INTO changes \(user_id, entity, entity_id, op, device_id, snapshot\) VALUES \(\$1, \$2, \$3, \$4, \$5, \$6\) RETURNING seq, created_at`).
		WithArgs("u1", "note", "n1", "upsert", "d1", `{"id":"n1"}`).
		WillReturnRows(sqlmock.NewRows([]string{"seq", "created_at"}).AddRow(int64(42), now))

	c := &models.Change{UserID: "u1", Entity: "note", EntityID: "n1", Op: "upsert", DeviceID: &dev, Snapshot: []byte(`{"id":"n1"}`)}
	seq, err := repo.Append(context.Background(), c)

	require.NoError(t, err)
	assert.Equal(t, int64(42), seq)
	assert.Equal(t, int64(42), c.Seq)
	assert.Equal(t, now, c.CreatedAt)
}

func TestAppend_DBError(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectQuery(`INSERT INTO changes`).
		WillReturnError(errors.New("db down"))

	_, err := repo.Append(context.Background(), &models.Change{UserID: "u1", Snapshot: []byte(`{}`)})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "db error: db down")
}

func TestListAfter(t *testing.T) {
	repo, mock := newRepoWithMock(t)
	now := time.Now().UTC()

	rows := sqlmock.NewRows([]string{"seq", "user_id", "entity", "entity_id", "op", "device_id", "snapshot", "created_at"}).
		AddRow(int64(6), "u1", "note", "a", "upsert", "d1", []byte(`{"id":"a"}`), now).
		AddRow(int64(7), "u1", "note", "b", "delete", nil, []byte(`{"id":"b"}`), now)

	mock.ExpectQuery(`FROM changes WHERE user_id = \$1 AND seq > \$2 ORDER BY seq LIMIT \$3`).
		WithArgs("u1", int64(5), 500).
		WillReturnRows(rows)

	got, err := repo.ListAfter(context.Background(), "u1", 5, 500)
	require.NoError(t, err)
	require.Len(t, got, 2)

	assert.Equal(t, int64(6), got[0].Seq)
	require.NotNil(t, got[0].DeviceID)
	assert.Equal(t, "d1", *got[0].DeviceID)
	assert.JSONEq(t, `{"id":"a"}`, string(got[0].Snapshot))

	assert.Equal(t, "delete", got[1].Op)
	assert.Nil(t, got[1].DeviceID)
}

func TestListAfter_Empty(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectQuery(`FROM changes`).
		WithArgs("u1", int64(9), 10).
		WillReturnRows(sqlmock.NewRows([]string{"seq", "user_id", "entity", "entity_id", "op", "device_id", "snapshot", "created_at"}))

	got, err := repo.ListAfter(context.Background(), "u1", 9, 10)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestListAfter_QueryError(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectQuery(`FROM changes`).
		WillReturnError(errors.New("boom"))

	_, err := repo.ListAfter(context.Background(), "u1", 0, 10)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to select changes")
}

func TestLatestFor(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectQuery(`SELECT COALESCE\(MAX\(seq\), 0\) FROM changes WHERE user_id = \$1 AND entity_id = \$2`).
		WithArgs("u1", "n1").
		WillReturnRows(sqlmock.NewRows([]string{"seq"}).AddRow(int64(3)))

	seq, err := repo.LatestFor(context.Background(), "u1", "n1")
	require.NoError(t, err)
	assert.Equal(t, int64(3), seq)
}

func TestLockLedgers_SortedAndDistinct(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	for _, id := range []string{"a", "b"} {
		mock.ExpectExec(`SELECT pg_advisory_xact_lock\(hashtext\(\$1\)\)`).
			WithArgs(id).
			WillReturnResult(sqlmock.NewResult(0, 0))
	}

	ids := []string{"b", "a", "b"}
	require.NoError(t, repo.LockLedgers(context.Background(), ids))
	assert.Equal(t, []string{"b", "a", "b"}, ids, "the argument is left untouched")
}

func TestLockLedgers_DBError(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectExec(`pg_advisory_xact_lock`).
		WithArgs("u1").
		WillReturnError(errors.New("canceled"))

	err := repo.LockLedgers(context.Background(), []string{"u1"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to lock ledger of u1")
}
