// Package refreshtokens declares the server-side repository contract for
// managing refresh tokens in persistent storage.
package refreshtokens

import (
	"context"
	"time"

	"github.com/dmitrijs2005/gophnotes/internal/server/models"
)

// Repository defines operations for issuing, retrieving, and revoking refresh tokens.
type Repository interface {
	// Create stores a new token digest.
	Create(ctx context.Context, token *models.RefreshToken) error

	// FindByHash looks a token up by its digest, revoked or not. Returns
	// common.ErrorNotFound when absent.
	FindByHash(ctx context.Context, hash string) (*models.RefreshToken, error)

	// Revoke marks a token revoked at the given time. Revoking an unknown or
	// already revoked token reports false and is not an error.
	Revoke(ctx context.Context, hash string, at time.Time) (bool, error)
}
