package models

import (
	"time"

	"github.com/dmitrijs2005/gophnotes/internal/api"
)

// PendingOp is a local mutation not yet confirmed by the server. There is
// at most one per note, so ID is both the op key and the note id.
type PendingOp struct {
	ID        string
	Type      string
	Entity    string
	UpdatedAt time.Time
	Data      *api.NotePatch
}

// ToAPI converts the op to its wire form.
func (o *PendingOp) ToAPI() api.Op {
	return api.Op{Type: o.Type, Entity: o.Entity, ID: o.ID, UpdatedAt: o.UpdatedAt, Data: o.Data}
}
