package models

import "time"

// Note is a stored note. DeletedAt set means tombstone; tombstoned rows are
// kept so later stale upserts can be rejected.
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

// Change is one row of the append-only change ledger. Snapshot holds the
// JSON of the note as it was right after the change.
type Change struct {
	Seq       int64
	UserID    string
	Entity    string
	EntityID  string
	Op        string
	DeviceID  *string
	Snapshot  []byte
	CreatedAt time.Time
}
