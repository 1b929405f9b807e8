package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/gophnotes/internal/server/models"
	"github.com/dmitrijs2005/gophnotes/internal/server/repositories/memory"
)

func TestAccess_Capabilities(t *testing.T) {
	tests := []struct {
		access               Access
		write, delete, share bool
		name                 string
	}{
		{AccessOwner, true, true, true, "owner"},
		{AccessCollaborator, true, false, false, "collaborator"},
		{AccessNone, false, false, false, "none"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.write, tt.access.CanWrite())
			assert.Equal(t, tt.delete, tt.access.CanDelete())
			assert.Equal(t, tt.share, tt.access.CanShare())
			assert.Equal(t, tt.name, tt.access.String())
		})
	}
}

func TestAccessChecker_Resolve(t *testing.T) {
	ctx := context.Background()
	repos := memory.NewRepositoryManager()
	addUser(t, repos, "owner", "owner@example.com")
	addUser(t, repos, "collab", "collab@example.com")

	note := &models.Note{ID: "n", OwnerID: "owner"}
	require.NoError(t, repos.Notes(nil).Create(ctx, note))
	_, err := repos.Collaborators(nil).AddByEmail(ctx, "n", "collab@example.com")
	require.NoError(t, err)

	checker := NewAccessChecker(repos)

	for user, want := range map[string]Access{
		"owner":    AccessOwner,
		"collab":   AccessCollaborator,
		"stranger": AccessNone,
	} {
		got, err := checker.Resolve(ctx, nil, user, note)
		require.NoError(t, err)
		assert.Equal(t, want, got, user)
	}
}
