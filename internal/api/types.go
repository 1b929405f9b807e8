package api

import "time"

// Op types.
const (
	OpUpsert = "upsert"
	OpDelete = "delete"
)

// EntityNote is the only entity kind the server reconciles.
const EntityNote = "note"

// Defaults for notes created without explicit values.
const (
	DefaultColor  = "#fff59d"
	DefaultWidth  = 300
	DefaultHeight = 200
)

// Note is the full server-side representation of a note as seen by clients.
type Note struct {
	ID                     string     `json:"id"`
	UserID                 string     `json:"userId"`
	Title                  string     `json:"title"`
	Content                string     `json:"content"`
	Color                  string     `json:"color"`
	PosX                   int        `json:"posX"`
	PosY                   int        `json:"posY"`
	Width                  int        `json:"width"`
	Height                 int        `json:"height"`
	ZIndex                 int        `json:"zIndex"`
	Pinned                 bool       `json:"pinned"`
	Archived               bool       `json:"archived"`
	DueAt                  *time.Time `json:"dueAt,omitempty"`
	ReminderAt             *time.Time `json:"reminderAt,omitempty"`
	RecurrenceRule         *string    `json:"recurrenceRule,omitempty"`
	IsShared               bool       `json:"isShared"`
	DeletedAt              *time.Time `json:"deletedAt,omitempty"`
	LastModifiedByDeviceID *string    `json:"lastModifiedByDeviceId,omitempty"`
	UpdatedAt              time.Time  `json:"updatedAt"`
}

// NewNote returns a note carrying the creation defaults.
func NewNote(id, ownerID string, updatedAt time.Time) Note {
	return Note{
		ID:        id,
		UserID:    ownerID,
		Color:     DefaultColor,
		Width:     DefaultWidth,
		Height:    DefaultHeight,
		UpdatedAt: updatedAt,
	}
}

// Deleted reports whether the note is a tombstone.
func (n *Note) Deleted() bool {
	return n.DeletedAt != nil
}

// Op is a single client-side intention pushed to the server.
type Op struct {
	Type      string     `json:"type"`
	Entity    string     `json:"entity"`
	ID        string     `json:"id"`
	UpdatedAt time.Time  `json:"updatedAt"`
	Data      *NotePatch `json:"data,omitempty"`
}

type SyncRequest struct {
	ClientCursor int64  `json:"clientCursor"`
	DeviceID     string `json:"deviceId,omitempty"`
	Ops          []Op   `json:"ops"`
}

type Applied struct {
	ID              string    `json:"id"`
	ServerChangeSeq int64     `json:"serverChangeSeq"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

// Conflict reports an upsert that lost to the stored version.
type Conflict struct {
	ID            string    `json:"id"`
	ServerVersion time.Time `json:"serverVersion"`
	Note          *Note     `json:"note,omitempty"`
}

// Change is one entry of the change ledger as delivered to clients.
type Change struct {
	ServerChangeSeq int64  `json:"serverChangeSeq"`
	Type            string `json:"type"`
	Entity          string `json:"entity"`
	ID              string `json:"id"`
	Note            *Note  `json:"note"`
}

type SyncResponse struct {
	Applied   []Applied  `json:"applied"`
	Conflicts []Conflict `json:"conflicts"`
	Changes   []Change   `json:"changes"`
	NewCursor int64      `json:"newCursor"`
}

// ShareRequest changes sharing settings of a note. NoteID is only read by
// the gRPC transport; over HTTP the id comes from the path.
type ShareRequest struct {
	NoteID              string   `json:"noteId,omitempty"`
	IsShared            *bool    `json:"isShared,omitempty"`
	AddCollaborators    []string `json:"addCollaborators,omitempty"`
	RemoveCollaborators []string `json:"removeCollaborators,omitempty"`
}

type NotesList struct {
	Own    []Note `json:"own"`
	Shared []Note `json:"shared"`
}

type Device struct {
	ID       string `json:"id"`
	Name     string `json:"name,omitempty"`
	Platform string `json:"platform,omitempty"`
}

type RegisterRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Device   Device `json:"device"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Device   Device `json:"device"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

type LogoutRequest struct {
	RefreshToken string `json:"refreshToken"`
}

type AuthResponse struct {
	UserID       string `json:"userId"`
	DeviceID     string `json:"deviceId"`
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

type ExportRequest struct{}

type ExportResponse struct {
	Key       string    `json:"key"`
	URL       string    `json:"url"`
	Notes     int       `json:"notes"`
	ExpiresAt time.Time `json:"expiresAt"`
}

type PingRequest struct{}

type PingResponse struct {
	Status string `json:"status"`
}

type Empty struct{}

// Error is the body of every non-2xx HTTP response.
type Error struct {
	Code          string `json:"code"`
	Message       string `json:"message"`
	CorrelationID string `json:"correlationId,omitempty"`
}
