// Package devices stores the client installations of each user.
package devices

import (
	"context"

	"github.com/dmitrijs2005/gophnotes/internal/server/models"
)

type Repository interface {
	// Upsert registers the device or refreshes its name and platform.
	Upsert(ctx context.Context, device *models.Device) error
}
