// Package models defines client-side data models used by the GophNotes CLI.
package models

import (
	"time"

	"github.com/dmitrijs2005/gophnotes/internal/api"
)

// Note is the device's copy of a note. Notes owned by somebody else and
// shared with the user are kept here too; OwnerID tells them apart.
type Note struct {
	ID                   string
	OwnerID              string
	Title                string
	Content              string
	Color                string
	PosX                 int
	PosY                 int
	Width                int
	Height               int
	ZIndex               int
	Pinned               bool
	Archived             bool
	DueAt                *time.Time
	ReminderAt           *time.Time
	RecurrenceRule       *string
	IsShared             bool
	DeletedAt            *time.Time
	LastModifiedByDevice *string
	UpdatedAt            time.Time
}

// NewNote returns a local note with the creation defaults.
func NewNote(id string) Note {
	return NoteFromAPI(api.NewNote(id, "", time.Time{}))
}

func (n *Note) Deleted() bool {
	return n.DeletedAt != nil
}

func NoteFromAPI(a api.Note) Note {
	return Note{
		ID:                   a.ID,
		OwnerID:              a.UserID,
		Title:                a.Title,
		Content:              a.Content,
		Color:                a.Color,
		PosX:                 a.PosX,
		PosY:                 a.PosY,
		Width:                a.Width,
		Height:               a.Height,
		ZIndex:               a.ZIndex,
		Pinned:               a.Pinned,
		Archived:             a.Archived,
		DueAt:                a.DueAt,
		ReminderAt:           a.ReminderAt,
		RecurrenceRule:       a.RecurrenceRule,
		IsShared:             a.IsShared,
		DeletedAt:            a.DeletedAt,
		LastModifiedByDevice: a.LastModifiedByDeviceID,
		UpdatedAt:            a.UpdatedAt,
	}
}

func (n *Note) ToAPI() api.Note {
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

// Apply writes the present fields of p onto n.
func (n *Note) Apply(p *api.NotePatch) {
	a := n.ToAPI()
	p.Apply(&a)
	*n = NoteFromAPI(a)
}
