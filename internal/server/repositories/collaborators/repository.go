// Package collaborators stores which users may edit a note they do not own.
package collaborators

import "context"

type Repository interface {
	IsCollaborator(ctx context.Context, noteID, userID string) (bool, error)

	// AddByEmail grants access to the user registered under email. It
	// returns false when no such user exists or access was already granted.
	AddByEmail(ctx context.Context, noteID, email string) (bool, error)

	// RemoveByEmail revokes access; false when nothing was removed.
	RemoveByEmail(ctx context.Context, noteID, email string) (bool, error)
}
