package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/gophnotes/internal/common"
	"github.com/dmitrijs2005/gophnotes/internal/server/models"
	"github.com/dmitrijs2005/gophnotes/internal/server/repositories/repomanager"
)

var _ repomanager.RepositoryManager = (*RepositoryManager)(nil)

func TestNotes_CreateTwice(t *testing.T) {
	m := NewRepositoryManager()
	ctx := context.Background()

	require.NoError(t, m.Notes(nil).Create(ctx, &models.Note{ID: "a", OwnerID: "u1"}))
	err := m.Notes(nil).Create(ctx, &models.Note{ID: "a", OwnerID: "u2"})
	assert.ErrorIs(t, err, common.ErrorAlreadyExists)

	n, ok := m.Note("a")
	require.True(t, ok)
	assert.Equal(t, "u1", n.OwnerID)
}

func TestNotes_ListOwnedOrder(t *testing.T) {
	m := NewRepositoryManager()
	ctx := context.Background()
	t0 := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	deleted := t0

	repo := m.Notes(nil)
	require.NoError(t, repo.Create(ctx, &models.Note{ID: "old", OwnerID: "u", UpdatedAt: t0}))
	require.NoError(t, repo.Create(ctx, &models.Note{ID: "new", OwnerID: "u", UpdatedAt: t0.Add(time.Hour)}))
	require.NoError(t, repo.Create(ctx, &models.Note{ID: "pin", OwnerID: "u", Pinned: true, UpdatedAt: t0.Add(-time.Hour)}))
	require.NoError(t, repo.Create(ctx, &models.Note{ID: "gone", OwnerID: "u", DeletedAt: &deleted, UpdatedAt: t0}))
	require.NoError(t, repo.Create(ctx, &models.Note{ID: "other", OwnerID: "v", UpdatedAt: t0}))

	got, err := repo.ListOwned(ctx, "u")
	require.NoError(t, err)

	ids := []string{}
	for _, n := range got {
		ids = append(ids, n.ID)
	}
	assert.Equal(t, []string{"pin", "new", "old"}, ids)
}

func TestNotes_OwnersOf(t *testing.T) {
	m := NewRepositoryManager()
	ctx := context.Background()

	require.NoError(t, m.Notes(nil).Create(ctx, &models.Note{ID: "a", OwnerID: "u2"}))
	require.NoError(t, m.Notes(nil).Create(ctx, &models.Note{ID: "b", OwnerID: "u1"}))
	require.NoError(t, m.Notes(nil).Create(ctx, &models.Note{ID: "c", OwnerID: "u2"}))

	owners, err := m.Notes(nil).OwnersOf(ctx, []string{"a", "b", "c", "missing"})
	require.NoError(t, err)
	assert.Equal(t, []string{"u1", "u2"}, owners)
}

func TestChanges_ListAfter(t *testing.T) {
	m := NewRepositoryManager()
	ctx := context.Background()
	repo := m.Changes(nil)

	for _, user := range []string{"u", "v", "u", "u"} {
		_, err := repo.Append(ctx, &models.Change{UserID: user, EntityID: "n"})
		require.NoError(t, err)
	}

	got, err := repo.ListAfter(ctx, "u", 1, 1)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, int64(3), got[0].Seq)

	latest, err := repo.LatestFor(ctx, "u", "n")
	require.NoError(t, err)
	assert.Equal(t, int64(4), latest)
}

func TestCollaborators_OwnerAndUnknownEmail(t *testing.T) {
	m := NewRepositoryManager()
	ctx := context.Background()

	require.NoError(t, m.Users(nil).Create(ctx, &models.User{ID: "u1", Email: "a@x"}))
	require.NoError(t, m.Users(nil).Create(ctx, &models.User{ID: "u2", Email: "b@x"}))
	require.NoError(t, m.Notes(nil).Create(ctx, &models.Note{ID: "n", OwnerID: "u1"}))

	repo := m.Collaborators(nil)

	added, err := repo.AddByEmail(ctx, "n", "a@x")
	require.NoError(t, err)
	assert.False(t, added, "owner is never a collaborator")

	added, err = repo.AddByEmail(ctx, "n", "nobody@x")
	require.NoError(t, err)
	assert.False(t, added)

	added, err = repo.AddByEmail(ctx, "n", "b@x")
	require.NoError(t, err)
	assert.True(t, added)

	ok, err := repo.IsCollaborator(ctx, "n", "u2")
	require.NoError(t, err)
	assert.True(t, ok)

	removed, err := repo.RemoveByEmail(ctx, "n", "b@x")
	require.NoError(t, err)
	assert.True(t, removed)
}

func TestRefreshTokens_RevokeOnce(t *testing.T) {
	m := NewRepositoryManager()
	ctx := context.Background()
	repo := m.RefreshTokens(nil)

	require.NoError(t, repo.Create(ctx, &models.RefreshToken{TokenHash: "h", UserID: "u"}))

	ok, err := repo.Revoke(ctx, "h", time.Now())
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = repo.Revoke(ctx, "h", time.Now())
	require.NoError(t, err)
	assert.False(t, ok)
}
