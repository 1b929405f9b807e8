// Package store is the client's local durable store: the device's copy of
// notes, the queue of pending ops and the sync cursor, all in one SQLite
// database. Every mutation that touches more than one table runs in a single
// transaction, so the notes and the queue never diverge.
package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrijs2005/gophnotes/internal/api"
	"github.com/dmitrijs2005/gophnotes/internal/client/models"
	"github.com/dmitrijs2005/gophnotes/internal/client/repositories/metadata"
	"github.com/dmitrijs2005/gophnotes/internal/client/repositories/notes"
	"github.com/dmitrijs2005/gophnotes/internal/client/repositories/pendingops"
	"github.com/dmitrijs2005/gophnotes/internal/common"
	"github.com/dmitrijs2005/gophnotes/internal/dbx"
	"github.com/dmitrijs2005/gophnotes/internal/logging"
)

// Metadata keys owned by the store.
const (
	KeyCursor   = "cursor"
	KeyDeviceID = "device_id"
)

type repos struct {
	notes notes.Repository
	ops   pendingops.Repository
	meta  metadata.Repository
}

func bind(db dbx.DBTX) repos {
	return repos{
		notes: notes.NewSQLiteRepository(db),
		ops:   pendingops.NewSQLiteRepository(db),
		meta:  metadata.NewSQLiteRepository(db),
	}
}

type Store struct {
	db     *sql.DB
	logger logging.Logger
	now    func() time.Time
}

func New(db *sql.DB, logger logging.Logger) *Store {
	return &Store{db: db, logger: logger, now: time.Now}
}

// Metadata returns the key/value table outside of any transaction.
func (s *Store) Metadata() metadata.Repository {
	return metadata.NewSQLiteRepository(s.db)
}

func (s *Store) withTx(ctx context.Context, fn func(ctx context.Context, r repos) error) error {
	return dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		return fn(ctx, bind(tx))
	})
}

func (s *Store) Put(ctx context.Context, n *models.Note) error {
	return bind(s.db).notes.Upsert(ctx, n)
}

// Get returns the note, tombstones included, or common.ErrorNotFound.
func (s *Store) Get(ctx context.Context, id string) (*models.Note, error) {
	return bind(s.db).notes.Get(ctx, id)
}

func (s *Store) ListVisible(ctx context.Context) ([]models.Note, error) {
	return bind(s.db).notes.ListVisible(ctx)
}

// EnqueueOp stores op, replacing whatever was queued for the same note.
func (s *Store) EnqueueOp(ctx context.Context, op *models.PendingOp) error {
	return bind(s.db).ops.Upsert(ctx, op)
}

func (s *Store) ListPendingOps(ctx context.Context) ([]models.PendingOp, error) {
	return bind(s.db).ops.List(ctx)
}

func (s *Store) ClearOp(ctx context.Context, id string) error {
	return bind(s.db).ops.Delete(ctx, id)
}

func (s *Store) GetCursor(ctx context.Context) (int64, error) {
	return bind(s.db).meta.GetInt64(ctx, KeyCursor)
}

// SetCursor moves the cursor forward. A value below the stored one is
// ignored.
func (s *Store) SetCursor(ctx context.Context, n int64) error {
	_, err := bind(s.db).meta.SetMaxInt64(ctx, KeyCursor, n)
	return err
}

// DeviceID returns the id this installation pushes with, creating it on
// first use.
func (s *Store) DeviceID(ctx context.Context) (string, error) {
	var id string
	err := s.withTx(ctx, func(ctx context.Context, r repos) error {
		var err error
		id, err = deviceID(ctx, r)
		return err
	})
	return id, err
}

func deviceID(ctx context.Context, r repos) (string, error) {
	v, err := r.meta.Get(ctx, KeyDeviceID)
	if err != nil {
		return "", err
	}
	if len(v) > 0 {
		return string(v), nil
	}
	id := uuid.NewString()
	if err := r.meta.Set(ctx, KeyDeviceID, []byte(id)); err != nil {
		return "", err
	}
	return id, nil
}

// next returns a timestamp strictly after prev, normally the current time.
func (s *Store) next(prev time.Time) time.Time {
	ts := models.Truncate(s.now())
	if !ts.After(prev) {
		ts = models.Truncate(prev).Add(time.Microsecond)
	}
	return ts
}

// Edit applies patch to the note with the given id, creating it with the
// defaults when it does not exist, and queues the change. Queued patches of
// the same note are merged, so nothing edited earlier is lost when the op is
// replaced. Editing a deleted note returns common.ErrorNotFound.
func (s *Store) Edit(ctx context.Context, id string, patch *api.NotePatch) (*models.Note, error) {
	var out *models.Note
	err := s.withTx(ctx, func(ctx context.Context, r repos) error {
		dev, err := deviceID(ctx, r)
		if err != nil {
			return err
		}

		n, err := r.notes.Get(ctx, id)
		switch {
		case errors.Is(err, common.ErrorNotFound):
			created := models.NewNote(id)
			n = &created
		case err != nil:
			return err
		case n.Deleted():
			return common.ErrorNotFound
		}

		n.Apply(patch)
		n.UpdatedAt = s.next(n.UpdatedAt)
		n.LastModifiedByDevice = &dev
		if err := r.notes.Upsert(ctx, n); err != nil {
			return err
		}

		var queued *api.NotePatch
		op, err := r.ops.Get(ctx, id)
		switch {
		case err == nil && op.Type == api.OpUpsert:
			queued = op.Data
		case err != nil && !errors.Is(err, common.ErrorNotFound):
			return err
		}

		out = n
		return r.ops.Upsert(ctx, &models.PendingOp{
			ID:        id,
			Type:      api.OpUpsert,
			Entity:    api.EntityNote,
			UpdatedAt: n.UpdatedAt,
			Data:      queued.Merge(patch),
		})
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Delete turns the note into a tombstone and queues a delete op in place of
// any queued upsert. Deleting a tombstone is a no-op.
func (s *Store) Delete(ctx context.Context, id string) error {
	return s.withTx(ctx, func(ctx context.Context, r repos) error {
		n, err := r.notes.Get(ctx, id)
		if err != nil {
			return err
		}
		if n.Deleted() {
			return nil
		}
		dev, err := deviceID(ctx, r)
		if err != nil {
			return err
		}

		ts := s.next(n.UpdatedAt)
		n.DeletedAt = &ts
		n.UpdatedAt = ts
		n.LastModifiedByDevice = &dev
		if err := r.notes.Upsert(ctx, n); err != nil {
			return err
		}
		return r.ops.Upsert(ctx, &models.PendingOp{ID: id, Type: api.OpDelete, Entity: api.EntityNote, UpdatedAt: ts})
	})
}

// Acknowledge clears the ops the server confirmed. pushed is what was sent
// in the round: an op edited again after it was pushed is newer than what
// the server saw and stays queued.
func (s *Store) Acknowledge(ctx context.Context, pushed []api.Op, applied []api.Applied) error {
	sent := sentAt(pushed)
	return s.withTx(ctx, func(ctx context.Context, r repos) error {
		for _, a := range applied {
			if _, err := acknowledge(ctx, r, sent, a); err != nil {
				return err
			}
		}
		return nil
	})
}

func sentAt(pushed []api.Op) map[string]time.Time {
	sent := make(map[string]time.Time, len(pushed))
	for _, op := range pushed {
		sent[op.ID] = op.UpdatedAt
	}
	return sent
}

// acknowledge compares the queued op against the pushed timestamp, not the
// server's: a note that was already deleted answers with the first
// deletion's time, which is older than a later delete of the same note.
func acknowledge(ctx context.Context, r repos, sent map[string]time.Time, a api.Applied) (bool, error) {
	ts, ok := sent[a.ID]
	if !ok {
		ts = a.UpdatedAt
	}
	removed, err := r.ops.DeleteNotAfter(ctx, a.ID, ts)
	if err != nil || !removed {
		return false, err
	}
	if err := r.notes.SetUpdatedAt(ctx, a.ID, models.FormatTime(a.UpdatedAt)); err != nil {
		return false, err
	}
	return true, nil
}

// ApplyChange stores a note received from the server unless the local copy
// is strictly newer. A queued op not newer than the received note is
// superseded and dropped. It reports whether the note was written.
func (s *Store) ApplyChange(ctx context.Context, c api.Change) (bool, error) {
	var applied bool
	err := s.withTx(ctx, func(ctx context.Context, r repos) error {
		var err error
		applied, err = applyNote(ctx, r, c.Note)
		return err
	})
	return applied, err
}

func applyNote(ctx context.Context, r repos, remote *api.Note) (bool, error) {
	if remote == nil || remote.ID == "" {
		return false, nil
	}
	local, err := r.notes.Get(ctx, remote.ID)
	switch {
	case err == nil && local.UpdatedAt.After(remote.UpdatedAt):
		return false, nil
	case err != nil && !errors.Is(err, common.ErrorNotFound):
		return false, err
	}

	n := models.NoteFromAPI(*remote)
	if err := r.notes.Upsert(ctx, &n); err != nil {
		return false, err
	}
	if _, err := r.ops.DeleteNotAfter(ctx, remote.ID, remote.UpdatedAt); err != nil {
		return false, err
	}
	return true, nil
}

// RoundStats summarizes what ApplyRound did to the local state.
type RoundStats struct {
	Acknowledged int
	Conflicts    int
	Tombstoned   int
	Changes      int
	Skipped      int
	Cursor       int64
}

// ApplyRound folds a sync response into the local store in one transaction:
// confirmed ops are cleared, pulled changes are applied under the local
// newer wins guard and the cursor moves forward.
//
// A conflict is left queued, since the winning version arrives through the
// change feed or the shared list. The exception is a conflict against a
// tombstone: the tombstone is stored and the op dropped, since it may
// already lie behind the cursor.
func (s *Store) ApplyRound(ctx context.Context, pushed []api.Op, resp *api.SyncResponse) (*RoundStats, error) {
	stats := &RoundStats{}
	sent := sentAt(pushed)
	err := s.withTx(ctx, func(ctx context.Context, r repos) error {
		for _, a := range resp.Applied {
			ok, err := acknowledge(ctx, r, sent, a)
			if err != nil {
				return err
			}
			if ok {
				stats.Acknowledged++
			}
		}

		for _, c := range resp.Conflicts {
			stats.Conflicts++
			if c.Note == nil || !c.Note.Deleted() {
				continue
			}
			n := models.NoteFromAPI(*c.Note)
			if err := r.notes.Upsert(ctx, &n); err != nil {
				return err
			}
			if err := r.ops.Delete(ctx, c.ID); err != nil {
				return err
			}
			stats.Tombstoned++
		}

		for _, c := range resp.Changes {
			ok, err := applyNote(ctx, r, c.Note)
			if err != nil {
				return err
			}
			if ok {
				stats.Changes++
			} else {
				stats.Skipped++
			}
		}

		cursor, err := r.meta.SetMaxInt64(ctx, KeyCursor, resp.NewCursor)
		if err != nil {
			return err
		}
		stats.Cursor = cursor
		return nil
	})
	if err != nil {
		return nil, err
	}
	return stats, nil
}

// ReplaceShared brings the local copies of notes shared with userID in line
// with the server's list: listed notes are applied under the same guard as
// pulled changes and foreign notes missing from the list are removed.
func (s *Store) ReplaceShared(ctx context.Context, userID string, shared []api.Note) (int, error) {
	var applied int
	err := s.withTx(ctx, func(ctx context.Context, r repos) error {
		listed := make(map[string]struct{}, len(shared))
		for i := range shared {
			listed[shared[i].ID] = struct{}{}
			ok, err := applyNote(ctx, r, &shared[i])
			if err != nil {
				return err
			}
			if ok {
				applied++
			}
		}

		local, err := r.notes.ListVisible(ctx)
		if err != nil {
			return err
		}
		for _, n := range local {
			if n.OwnerID == "" || n.OwnerID == userID {
				continue
			}
			if _, ok := listed[n.ID]; ok {
				continue
			}
			if err := r.notes.Delete(ctx, n.ID); err != nil {
				return err
			}
			if err := r.ops.Delete(ctx, n.ID); err != nil {
				return err
			}
		}
		return nil
	})
	return applied, err
}

// Reset wipes notes, queued ops and the cursor. The device id survives.
func (s *Store) Reset(ctx context.Context) error {
	return s.withTx(ctx, func(ctx context.Context, r repos) error {
		if err := r.notes.Clear(ctx); err != nil {
			return err
		}
		if err := r.ops.Clear(ctx); err != nil {
			return err
		}
		return r.meta.Delete(ctx, KeyCursor)
	})
}
