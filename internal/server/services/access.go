package services

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/gophnotes/internal/dbx"
	"github.com/dmitrijs2005/gophnotes/internal/server/models"
	"github.com/dmitrijs2005/gophnotes/internal/server/repositories/repomanager"
)

// Access is what a user may do with a particular note.
type Access int

const (
	AccessNone Access = iota
	AccessCollaborator
	AccessOwner
)

func (a Access) String() string {
	switch a {
	case AccessOwner:
		return "owner"
	case AccessCollaborator:
		return "collaborator"
	default:
		return "none"
	}
}

// CanWrite reports whether upserts are allowed.
func (a Access) CanWrite() bool { return a >= AccessCollaborator }

// CanDelete reports whether deletes are allowed. Owner only.
func (a Access) CanDelete() bool { return a == AccessOwner }

// CanShare reports whether sharing settings may be changed. Owner only.
func (a Access) CanShare() bool { return a == AccessOwner }

// AccessChecker resolves the access level of a user on an existing note.
type AccessChecker struct {
	repomanager repomanager.RepositoryManager
}

func NewAccessChecker(m repomanager.RepositoryManager) *AccessChecker {
	return &AccessChecker{repomanager: m}
}

func (c *AccessChecker) Resolve(ctx context.Context, db dbx.DBTX, userID string, note *models.Note) (Access, error) {
	if note.OwnerID == userID {
		return AccessOwner, nil
	}

	ok, err := c.repomanager.Collaborators(db).IsCollaborator(ctx, note.ID, userID)
	if err != nil {
		return AccessNone, fmt.Errorf("error checking collaborator: %w", err)
	}
	if ok {
		return AccessCollaborator, nil
	}
	return AccessNone, nil
}
