package services

import (
	"time"

	"github.com/dmitrijs2005/gophnotes/internal/api"
	"github.com/dmitrijs2005/gophnotes/internal/server/models"
)

func noteToAPI(n *models.Note) api.Note {
	return api.Note{
		ID:                     n.ID,
		UserID:                 n.OwnerID,
		Title:                  n.Title,
		Content:                n.Content,
		Color:                  n.Color,
		PosX:                   n.PosX,
		PosY:                   n.PosY,
		Width:                  n.Width,
		Height:                 n.Height,
		ZIndex:                 n.ZIndex,
		Pinned:                 n.Pinned,
		Archived:               n.Archived,
		DueAt:                  n.DueAt,
		ReminderAt:             n.ReminderAt,
		RecurrenceRule:         n.RecurrenceRule,
		IsShared:               n.IsShared,
		DeletedAt:              n.DeletedAt,
		LastModifiedByDeviceID: n.LastModifiedByDevice,
		UpdatedAt:              n.UpdatedAt,
	}
}

func noteFromAPI(n api.Note) *models.Note {
	return &models.Note{
		ID:                   n.ID,
		OwnerID:              n.UserID,
		Title:                n.Title,
		Content:              n.Content,
		Color:                n.Color,
		PosX:                 n.PosX,
		PosY:                 n.PosY,
		Width:                n.Width,
		Height:               n.Height,
		ZIndex:               n.ZIndex,
		Pinned:               n.Pinned,
		Archived:             n.Archived,
		DueAt:                n.DueAt,
		ReminderAt:           n.ReminderAt,
		RecurrenceRule:       n.RecurrenceRule,
		IsShared:             n.IsShared,
		DeletedAt:            n.DeletedAt,
		LastModifiedByDevice: n.LastModifiedByDeviceID,
		UpdatedAt:            n.UpdatedAt,
	}
}

func notesToAPI(in []*models.Note) []api.Note {
	out := make([]api.Note, 0, len(in))
	for _, n := range in {
		out = append(out, noteToAPI(n))
	}
	return out
}

// normalizeTime drops precision PostgreSQL cannot store, so a value read
// back compares equal to the one written.
func normalizeTime(t time.Time) time.Time {
	return t.UTC().Truncate(time.Microsecond)
}
