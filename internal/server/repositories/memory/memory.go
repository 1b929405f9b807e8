// Package memory is an in-process RepositoryManager backed by maps. Tests
// use it to run services and transports without PostgreSQL.
//
// Writes are applied immediately and are not undone when the surrounding
// transaction rolls back.
package memory

import (
	"context"
	"database/sql"
	"slices"
	"sync"
	"time"

	"github.com/dmitrijs2005/gophnotes/internal/common"
	"github.com/dmitrijs2005/gophnotes/internal/dbx"
	"github.com/dmitrijs2005/gophnotes/internal/server/models"
	"github.com/dmitrijs2005/gophnotes/internal/server/repositories/changes"
	"github.com/dmitrijs2005/gophnotes/internal/server/repositories/collaborators"
	"github.com/dmitrijs2005/gophnotes/internal/server/repositories/devices"
	"github.com/dmitrijs2005/gophnotes/internal/server/repositories/notes"
	"github.com/dmitrijs2005/gophnotes/internal/server/repositories/refreshtokens"
	"github.com/dmitrijs2005/gophnotes/internal/server/repositories/users"
)

type RepositoryManager struct {
	mu sync.Mutex

	users   map[string]models.User
	devices map[[2]string]models.Device
	tokens  map[string]models.RefreshToken
	tokenID int64

	notes   map[string]models.Note
	collabs map[string]map[string]struct{}
	changes []models.Change
	locks   []string
}

func NewRepositoryManager() *RepositoryManager {
	return &RepositoryManager{
		users:   map[string]models.User{},
		devices: map[[2]string]models.Device{},
		tokens:  map[string]models.RefreshToken{},
		notes:   map[string]models.Note{},
		collabs: map[string]map[string]struct{}{},
	}
}

func (m *RepositoryManager) RunMigrations(context.Context, *sql.DB) error { return nil }

func (m *RepositoryManager) Users(dbx.DBTX) users.Repository                 { return (*userRepo)(m) }
func (m *RepositoryManager) Devices(dbx.DBTX) devices.Repository             { return (*deviceRepo)(m) }
func (m *RepositoryManager) RefreshTokens(dbx.DBTX) refreshtokens.Repository { return (*tokenRepo)(m) }
func (m *RepositoryManager) Notes(dbx.DBTX) notes.Repository                 { return (*noteRepo)(m) }
func (m *RepositoryManager) Changes(dbx.DBTX) changes.Repository             { return (*changeRepo)(m) }
func (m *RepositoryManager) Collaborators(dbx.DBTX) collaborators.Repository { return (*collabRepo)(m) }

// LedgerLocks returns every user id passed to LockLedgers, in call order.
func (m *RepositoryManager) LedgerLocks() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Clone(m.locks)
}

// Note returns the stored row, tombstones included.
func (m *RepositoryManager) Note(id string) (models.Note, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n, ok := m.notes[id]
	return n, ok
}

// Ledger returns a copy of the whole ledger in seq order.
func (m *RepositoryManager) Ledger() []models.Change {
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Clone(m.changes)
}

func (m *RepositoryManager) userByEmail(email string) (models.User, bool) {
	for _, u := range m.users {
		if u.Email == email {
			return u, true
		}
	}
	return models.User{}, false
}

type userRepo RepositoryManager

func (r *userRepo) Create(_ context.Context, u *models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := (*RepositoryManager)(r).userByEmail(u.Email); ok {
		return common.ErrorEmailExists
	}
	u.CreatedAt = time.Now()
	r.users[u.ID] = *u
	return nil
}

func (r *userRepo) GetByEmail(_ context.Context, email string) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := (*RepositoryManager)(r).userByEmail(email)
	if !ok {
		return nil, common.ErrorNotFound
	}
	return &u, nil
}

func (r *userRepo) GetByID(_ context.Context, id string) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return &u, nil
}

type deviceRepo RepositoryManager

func (r *deviceRepo) Upsert(_ context.Context, d *models.Device) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := [2]string{d.UserID, d.ID}
	if old, ok := r.devices[key]; ok {
		d.CreatedAt = old.CreatedAt
	} else {
		d.CreatedAt = time.Now()
	}
	r.devices[key] = *d
	return nil
}

type tokenRepo RepositoryManager

func (r *tokenRepo) Create(_ context.Context, t *models.RefreshToken) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tokenID++
	t.ID = r.tokenID
	t.CreatedAt = time.Now()
	r.tokens[t.TokenHash] = *t
	return nil
}

func (r *tokenRepo) FindByHash(_ context.Context, hash string) (*models.RefreshToken, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.tokens[hash]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return &t, nil
}

func (r *tokenRepo) Revoke(_ context.Context, hash string, at time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.tokens[hash]
	if !ok || t.RevokedAt != nil {
		return false, nil
	}
	t.RevokedAt = &at
	r.tokens[hash] = t
	return true, nil
}

type noteRepo RepositoryManager

func (r *noteRepo) OwnersOf(_ context.Context, ids []string) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	owners := []string{}
	for _, id := range ids {
		if n, ok := r.notes[id]; ok && !slices.Contains(owners, n.OwnerID) {
			owners = append(owners, n.OwnerID)
		}
	}
	slices.Sort(owners)
	return owners, nil
}

func (r *noteRepo) GetForUpdate(_ context.Context, id string) (*models.Note, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	n, ok := r.notes[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return &n, nil
}

func (r *noteRepo) Create(_ context.Context, n *models.Note) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.notes[n.ID]; ok {
		return common.ErrorAlreadyExists
	}
	r.notes[n.ID] = *n
	return nil
}

func (r *noteRepo) Update(_ context.Context, n *models.Note) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.notes[n.ID]; !ok {
		return common.ErrorNotFound
	}
	r.notes[n.ID] = *n
	return nil
}

func (r *noteRepo) ListOwned(_ context.Context, userID string) ([]*models.Note, error) {
	return r.list(func(n models.Note) bool { return n.OwnerID == userID }), nil
}

func (r *noteRepo) ListShared(_ context.Context, userID string) ([]*models.Note, error) {
	return r.list(func(n models.Note) bool {
		_, ok := r.collabs[n.ID][userID]
		return ok
	}), nil
}

func (r *noteRepo) list(match func(models.Note) bool) []*models.Note {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := []*models.Note{}
	for _, n := range r.notes {
		if n.DeletedAt == nil && match(n) {
			out = append(out, &n)
		}
	}
	slices.SortFunc(out, func(a, b *models.Note) int {
		if a.Pinned != b.Pinned {
			if a.Pinned {
				return -1
			}
			return 1
		}
		return b.UpdatedAt.Compare(a.UpdatedAt)
	})
	return out
}

func (r *noteRepo) SetShared(_ context.Context, id string, shared bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	n, ok := r.notes[id]
	if !ok {
		return common.ErrorNotFound
	}
	n.IsShared = shared
	r.notes[id] = n
	return nil
}

type changeRepo RepositoryManager

// LockLedgers only records the request; the manager's mutex already
// serializes appends.
func (r *changeRepo) LockLedgers(_ context.Context, userIDs []string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.locks = append(r.locks, userIDs...)
	return nil
}

func (r *changeRepo) Append(_ context.Context, c *models.Change) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c.Seq = int64(len(r.changes)) + 1
	c.CreatedAt = time.Now()
	stored := *c
	stored.Snapshot = slices.Clone(c.Snapshot)
	r.changes = append(r.changes, stored)
	return c.Seq, nil
}

func (r *changeRepo) ListAfter(_ context.Context, userID string, cursor int64, limit int) ([]*models.Change, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []*models.Change{}
	for _, c := range r.changes {
		if len(out) == limit {
			break
		}
		if c.UserID == userID && c.Seq > cursor {
			out = append(out, &c)
		}
	}
	return out, nil
}

func (r *changeRepo) LatestFor(_ context.Context, userID, entityID string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var seq int64
	for _, c := range r.changes {
		if c.UserID == userID && c.EntityID == entityID {
			seq = c.Seq
		}
	}
	return seq, nil
}

type collabRepo RepositoryManager

func (r *collabRepo) IsCollaborator(_ context.Context, noteID, userID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.collabs[noteID][userID]
	return ok, nil
}

func (r *collabRepo) AddByEmail(_ context.Context, noteID, email string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := (*RepositoryManager)(r).userByEmail(email)
	if !ok {
		return false, nil
	}
	note, ok := r.notes[noteID]
	if !ok || note.OwnerID == u.ID {
		return false, nil
	}
	set := r.collabs[noteID]
	if set == nil {
		set = map[string]struct{}{}
		r.collabs[noteID] = set
	}
	if _, ok := set[u.ID]; ok {
		return false, nil
	}
	set[u.ID] = struct{}{}
	return true, nil
}

func (r *collabRepo) RemoveByEmail(_ context.Context, noteID, email string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := (*RepositoryManager)(r).userByEmail(email)
	if !ok {
		return false, nil
	}
	if _, ok := r.collabs[noteID][u.ID]; !ok {
		return false, nil
	}
	delete(r.collabs[noteID], u.ID)
	return true, nil
}
