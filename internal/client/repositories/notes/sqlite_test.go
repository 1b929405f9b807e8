package notes

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/gophnotes/internal/api"
	"github.com/dmitrijs2005/gophnotes/internal/client/migrations"
	"github.com/dmitrijs2005/gophnotes/internal/client/models"
	"github.com/dmitrijs2005/gophnotes/internal/common"

	_ "modernc.org/sqlite"
)

var t0 = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

func setupDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })

	require.NoError(t, migrations.Up(context.Background(), db))
	return db
}

func note(id string, updatedAt time.Time) *models.Note {
	n := models.NewNote(id)
	n.UpdatedAt = updatedAt
	return &n
}

func TestUpsertAndGet_RoundTripsEveryColumn(t *testing.T) {
	r := NewSQLiteRepository(setupDB(t))
	ctx := context.Background()

	due := t0.Add(time.Hour)
	n := &models.Note{
		ID: "a", OwnerID: "u1", Title: "title", Content: "body", Color: "#000",
		PosX: 1, PosY: 2, Width: 3, Height: 4, ZIndex: 5, Pinned: true, Archived: true,
		DueAt: &due, ReminderAt: &t0, RecurrenceRule: api.Ptr("FREQ=DAILY"), IsShared: true,
		LastModifiedByDevice: api.Ptr("dev"), UpdatedAt: t0.Add(123 * time.Microsecond),
	}
	require.NoError(t, r.Upsert(ctx, n))

	got, err := r.Get(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, n.Title, got.Title)
	assert.Equal(t, n.OwnerID, got.OwnerID)
	assert.Equal(t, 5, got.ZIndex)
	assert.True(t, got.Pinned)
	assert.True(t, got.Archived)
	assert.True(t, got.IsShared)
	require.NotNil(t, got.DueAt)
	assert.True(t, due.Equal(*got.DueAt))
	assert.Equal(t, "FREQ=DAILY", *got.RecurrenceRule)
	assert.Equal(t, "dev", *got.LastModifiedByDevice)
	assert.Nil(t, got.DeletedAt)
	assert.True(t, n.UpdatedAt.Equal(got.UpdatedAt))
}

func TestUpsert_OverwritesAndClearsNullables(t *testing.T) {
	r := NewSQLiteRepository(setupDB(t))
	ctx := context.Background()

	n := note("a", t0)
	n.DueAt = &t0
	require.NoError(t, r.Upsert(ctx, n))

	n.DueAt = nil
	n.Title = "second"
	n.DeletedAt = &t0
	require.NoError(t, r.Upsert(ctx, n))

	got, err := r.Get(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, "second", got.Title)
	assert.Nil(t, got.DueAt)
	assert.True(t, got.Deleted())
}

func TestGet_Unknown(t *testing.T) {
	r := NewSQLiteRepository(setupDB(t))

	_, err := r.Get(context.Background(), "nope")
	require.ErrorIs(t, err, common.ErrorNotFound)
}

func TestListVisible_ExcludesTombstonesAndOrders(t *testing.T) {
	r := NewSQLiteRepository(setupDB(t))
	ctx := context.Background()

	old := note("old", t0)
	recent := note("recent", t0.Add(time.Minute))
	pinned := note("pinned", t0.Add(-time.Hour))
	pinned.Pinned = true
	gone := note("gone", t0.Add(time.Hour))
	gone.DeletedAt = &t0

	for _, n := range []*models.Note{old, recent, pinned, gone} {
		require.NoError(t, r.Upsert(ctx, n))
	}

	list, err := r.ListVisible(ctx)
	require.NoError(t, err)

	var ids []string
	for _, n := range list {
		ids = append(ids, n.ID)
	}
	assert.Equal(t, []string{"pinned", "recent", "old"}, ids)
}

func TestSetUpdatedAt(t *testing.T) {
	r := NewSQLiteRepository(setupDB(t))
	ctx := context.Background()

	require.NoError(t, r.Upsert(ctx, note("a", t0)))
	later := t0.Add(time.Second)
	require.NoError(t, r.SetUpdatedAt(ctx, "a", models.FormatTime(later)))

	got, err := r.Get(ctx, "a")
	require.NoError(t, err)
	assert.True(t, later.Equal(got.UpdatedAt))
}

func TestDelete(t *testing.T) {
	r := NewSQLiteRepository(setupDB(t))
	ctx := context.Background()

	require.NoError(t, r.Upsert(ctx, note("a", t0)))
	require.NoError(t, r.Delete(ctx, "a"))

	_, err := r.Get(ctx, "a")
	require.ErrorIs(t, err, common.ErrorNotFound)
}

func TestClear(t *testing.T) {
	r := NewSQLiteRepository(setupDB(t))
	ctx := context.Background()

	require.NoError(t, r.Upsert(ctx, note("a", t0)))
	require.NoError(t, r.Clear(ctx))

	list, err := r.ListVisible(ctx)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestErrorsAreWrapped(t *testing.T) {
	db := setupDB(t)
	r := NewSQLiteRepository(db)
	ctx := context.Background()
	require.NoError(t, db.Close())

	err := r.Upsert(ctx, note("a", t0))
	require.ErrorContains(t, err, "failed to upsert note a")

	_, err = r.Get(ctx, "a")
	require.ErrorContains(t, err, "failed to get note a")

	_, err = r.ListVisible(ctx)
	require.ErrorContains(t, err, "failed to list notes")

	require.ErrorContains(t, r.Clear(ctx), "failed to clear notes")
}
