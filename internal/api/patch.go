package api

import (
	"slices"
	"time"
)

type Position struct {
	X int `json:"x"`
	Y int `json:"y"`
}

type Size struct {
	W int `json:"w"`
	H int `json:"h"`
}

// NotePatch is the payload of an upsert op. A nil field leaves the stored
// value untouched. Collaborators and RemoveCollaborators are email lists
// applied to the note's sharing set and never stored on the note itself.
type NotePatch struct {
	Title          *string    `json:"title,omitempty"`
	Content        *string    `json:"content,omitempty"`
	Color          *string    `json:"color,omitempty"`
	Position       *Position  `json:"position,omitempty"`
	Size           *Size      `json:"size,omitempty"`
	ZIndex         *int       `json:"zIndex,omitempty"`
	Pinned         *bool      `json:"pinned,omitempty"`
	Archived       *bool      `json:"archived,omitempty"`
	DueAt          *time.Time `json:"dueAt,omitempty"`
	ReminderAt     *time.Time `json:"reminderAt,omitempty"`
	RecurrenceRule *string    `json:"recurrenceRule,omitempty"`
	IsShared       *bool      `json:"isShared,omitempty"`

	Collaborators       []string `json:"collaborators,omitempty"`
	RemoveCollaborators []string `json:"removeCollaborators,omitempty"`
}

// Apply writes every present field of p onto n.
func (p *NotePatch) Apply(n *Note) {
	if p == nil {
		return
	}
	if p.Title != nil {
		n.Title = *p.Title
	}
	if p.Content != nil {
		n.Content = *p.Content
	}
	if p.Color != nil {
		n.Color = *p.Color
	}
	if p.Position != nil {
		n.PosX, n.PosY = p.Position.X, p.Position.Y
	}
	if p.Size != nil {
		n.Width, n.Height = p.Size.W, p.Size.H
	}
	if p.ZIndex != nil {
		n.ZIndex = *p.ZIndex
	}
	if p.Pinned != nil {
		n.Pinned = *p.Pinned
	}
	if p.Archived != nil {
		n.Archived = *p.Archived
	}
	if p.DueAt != nil {
		t := *p.DueAt
		n.DueAt = &t
	}
	if p.ReminderAt != nil {
		t := *p.ReminderAt
		n.ReminderAt = &t
	}
	if p.RecurrenceRule != nil {
		r := *p.RecurrenceRule
		n.RecurrenceRule = &r
	}
	if p.IsShared != nil {
		n.IsShared = *p.IsShared
	}
}

// Merge folds newer on top of p and returns the result; fields present in
// newer win. Collaborator lists are unioned, and an email added by one side
// and removed by the other keeps the newer intention.
func (p *NotePatch) Merge(newer *NotePatch) *NotePatch {
	if p == nil {
		return newer.clone()
	}
	out := p.clone()
	if newer == nil {
		return out
	}
	if newer.Title != nil {
		out.Title = newer.Title
	}
	if newer.Content != nil {
		out.Content = newer.Content
	}
	if newer.Color != nil {
		out.Color = newer.Color
	}
	if newer.Position != nil {
		out.Position = newer.Position
	}
	if newer.Size != nil {
		out.Size = newer.Size
	}
	if newer.ZIndex != nil {
		out.ZIndex = newer.ZIndex
	}
	if newer.Pinned != nil {
		out.Pinned = newer.Pinned
	}
	if newer.Archived != nil {
		out.Archived = newer.Archived
	}
	if newer.DueAt != nil {
		out.DueAt = newer.DueAt
	}
	if newer.ReminderAt != nil {
		out.ReminderAt = newer.ReminderAt
	}
	if newer.RecurrenceRule != nil {
		out.RecurrenceRule = newer.RecurrenceRule
	}
	if newer.IsShared != nil {
		out.IsShared = newer.IsShared
	}

	for _, e := range newer.Collaborators {
		out.RemoveCollaborators = slices.DeleteFunc(out.RemoveCollaborators, func(s string) bool { return s == e })
		if !slices.Contains(out.Collaborators, e) {
			out.Collaborators = append(out.Collaborators, e)
		}
	}
	for _, e := range newer.RemoveCollaborators {
		out.Collaborators = slices.DeleteFunc(out.Collaborators, func(s string) bool { return s == e })
		if !slices.Contains(out.RemoveCollaborators, e) {
			out.RemoveCollaborators = append(out.RemoveCollaborators, e)
		}
	}
	return out
}

// WithoutSharing returns a copy of p stripped of every sharing-management
// field.
func (p *NotePatch) WithoutSharing() *NotePatch {
	out := p.clone()
	if out == nil {
		return nil
	}
	out.IsShared = nil
	out.Collaborators = nil
	out.RemoveCollaborators = nil
	return out
}

func (p *NotePatch) clone() *NotePatch {
	if p == nil {
		return nil
	}
	out := *p
	out.Collaborators = slices.Clone(p.Collaborators)
	out.RemoveCollaborators = slices.Clone(p.RemoveCollaborators)
	return &out
}

// Ptr returns a pointer to v. Handy when building patches.
func Ptr[T any](v T) *T {
	return &v
}
