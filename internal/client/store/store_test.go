package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/dmitrijs2005/gophnotes/internal/api"
	"github.com/dmitrijs2005/gophnotes/internal/client/models"
	"github.com/dmitrijs2005/gophnotes/internal/common"
	"github.com/dmitrijs2005/gophnotes/internal/logging"
)

var t0 = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

func at(minutes int) time.Time {
	return t0.Add(time.Duration(minutes) * time.Minute)
}

// newStore returns a store over a private in-memory database whose clock
// is frozen at the returned pointer's value.
func newStore(t require.TestingT) (*Store, *time.Time) {
	db, err := Open(context.Background(), ":memory:")
	require.NoError(t, err)
	if c, ok := t.(interface{ Cleanup(func()) }); ok {
		c.Cleanup(func() { _ = db.Close() })
	}

	clock := t0
	s := New(db, logging.Discard())
	s.now = func() time.Time { return clock }
	return s, &clock
}

// inFlight returns the queued ops as they are sent in a round.
func inFlight(t *testing.T, s *Store) []api.Op {
	t.Helper()
	ops, err := s.ListPendingOps(context.Background())
	require.NoError(t, err)
	out := make([]api.Op, 0, len(ops))
	for i := range ops {
		out = append(out, ops[i].ToAPI())
	}
	return out
}

func remote(id string, updatedAt time.Time, title string) *api.Note {
	n := api.NewNote(id, "u1", updatedAt)
	n.Title = title
	return &n
}

func TestEdit_CreatesWithDefaultsAndQueuesOp(t *testing.T) {
	s, _ := newStore(t)
	ctx := context.Background()

	n, err := s.Edit(ctx, "a", &api.NotePatch{Title: api.Ptr("hello")})
	require.NoError(t, err)

	assert.Equal(t, "hello", n.Title)
	assert.Equal(t, api.DefaultColor, n.Color)
	assert.Equal(t, api.DefaultWidth, n.Width)
	assert.True(t, t0.Equal(n.UpdatedAt))

	dev, err := s.DeviceID(ctx)
	require.NoError(t, err)
	require.NotNil(t, n.LastModifiedByDevice)
	assert.Equal(t, dev, *n.LastModifiedByDevice)

	ops, err := s.ListPendingOps(ctx)
	require.NoError(t, err)
	require.Len(t, ops, 1)
	assert.Equal(t, api.OpUpsert, ops[0].Type)
	assert.Equal(t, api.EntityNote, ops[0].Entity)
	assert.True(t, n.UpdatedAt.Equal(ops[0].UpdatedAt))
	assert.Equal(t, "hello", *ops[0].Data.Title)
}

func TestEdit_TimestampsStrictlyIncreaseUnderFrozenClock(t *testing.T) {
	s, _ := newStore(t)
	ctx := context.Background()

	first, err := s.Edit(ctx, "a", &api.NotePatch{Title: api.Ptr("1")})
	require.NoError(t, err)
	second, err := s.Edit(ctx, "a", &api.NotePatch{Title: api.Ptr("2")})
	require.NoError(t, err)

	assert.True(t, second.UpdatedAt.After(first.UpdatedAt))
	assert.Equal(t, time.Microsecond, second.UpdatedAt.Sub(first.UpdatedAt))
}

func TestEdit_MergesQueuedPatch(t *testing.T) {
	s, clock := newStore(t)
	ctx := context.Background()

	_, err := s.Edit(ctx, "a", &api.NotePatch{Title: api.Ptr("T"), Collaborators: []string{"b@x.io"}})
	require.NoError(t, err)
	*clock = at(1)
	_, err = s.Edit(ctx, "a", &api.NotePatch{Content: api.Ptr("C")})
	require.NoError(t, err)

	ops, err := s.ListPendingOps(ctx)
	require.NoError(t, err)
	require.Len(t, ops, 1, "one pending op per note")
	assert.Equal(t, "T", *ops[0].Data.Title)
	assert.Equal(t, "C", *ops[0].Data.Content)
	assert.Equal(t, []string{"b@x.io"}, ops[0].Data.Collaborators)
	assert.True(t, at(1).Equal(ops[0].UpdatedAt))
}

func TestEdit_DeletedNote(t *testing.T) {
	s, _ := newStore(t)
	ctx := context.Background()

	_, err := s.Edit(ctx, "a", nil)
	require.NoError(t, err)
	require.NoError(t, s.Delete(ctx, "a"))

	_, err = s.Edit(ctx, "a", &api.NotePatch{Title: api.Ptr("again")})
	require.ErrorIs(t, err, common.ErrorNotFound)
}

func TestDelete_TombstoneReplacesQueuedUpsert(t *testing.T) {
	s, clock := newStore(t)
	ctx := context.Background()

	_, err := s.Edit(ctx, "a", &api.NotePatch{Title: api.Ptr("x")})
	require.NoError(t, err)
	*clock = at(5)
	require.NoError(t, s.Delete(ctx, "a"))

	n, err := s.Get(ctx, "a")
	require.NoError(t, err)
	require.True(t, n.Deleted())
	assert.True(t, at(5).Equal(*n.DeletedAt))
	assert.True(t, at(5).Equal(n.UpdatedAt))

	visible, err := s.ListVisible(ctx)
	require.NoError(t, err)
	assert.Empty(t, visible)

	ops, err := s.ListPendingOps(ctx)
	require.NoError(t, err)
	require.Len(t, ops, 1)
	assert.Equal(t, api.OpDelete, ops[0].Type)
	assert.Nil(t, ops[0].Data)

	require.NoError(t, s.Delete(ctx, "a"), "deleting a tombstone is a no-op")
}

func TestDelete_Unknown(t *testing.T) {
	s, _ := newStore(t)
	require.ErrorIs(t, s.Delete(context.Background(), "nope"), common.ErrorNotFound)
}

func TestAcknowledge(t *testing.T) {
	s, clock := newStore(t)
	ctx := context.Background()

	_, err := s.Edit(ctx, "a", &api.NotePatch{Title: api.Ptr("x")})
	require.NoError(t, err)
	_, err = s.Edit(ctx, "b", &api.NotePatch{Title: api.Ptr("y")})
	require.NoError(t, err)
	pushed := inFlight(t, s)

	// b is edited again while the round is in flight.
	*clock = at(1)
	_, err = s.Edit(ctx, "b", &api.NotePatch{Title: api.Ptr("z")})
	require.NoError(t, err)

	var applied []api.Applied
	for _, op := range pushed {
		applied = append(applied, api.Applied{ID: op.ID, ServerChangeSeq: 1, UpdatedAt: op.UpdatedAt})
	}
	require.NoError(t, s.Acknowledge(ctx, pushed, applied))

	ops, err := s.ListPendingOps(ctx)
	require.NoError(t, err)
	require.Len(t, ops, 1)
	assert.Equal(t, "b", ops[0].ID)
	assert.True(t, at(1).Equal(ops[0].UpdatedAt))
}

func TestApplyChange_LocalNewerWins(t *testing.T) {
	s, clock := newStore(t)
	ctx := context.Background()

	*clock = at(10)
	_, err := s.Edit(ctx, "a", &api.NotePatch{Title: api.Ptr("local")})
	require.NoError(t, err)

	ok, err := s.ApplyChange(ctx, api.Change{ID: "a", Type: api.OpUpsert, Entity: api.EntityNote, Note: remote("a", at(5), "stale")})
	require.NoError(t, err)
	assert.False(t, ok)

	n, err := s.Get(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, "local", n.Title)

	ops, err := s.ListPendingOps(ctx)
	require.NoError(t, err)
	assert.Len(t, ops, 1, "the local edit is still queued")
}

func TestApplyChange_RemoteSupersedesOlderOp(t *testing.T) {
	s, _ := newStore(t)
	ctx := context.Background()

	_, err := s.Edit(ctx, "a", &api.NotePatch{Title: api.Ptr("local")})
	require.NoError(t, err)

	ok, err := s.ApplyChange(ctx, api.Change{ID: "a", Type: api.OpUpsert, Entity: api.EntityNote, Note: remote("a", at(5), "remote")})
	require.NoError(t, err)
	assert.True(t, ok)

	n, err := s.Get(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, "remote", n.Title)
	assert.Equal(t, "u1", n.OwnerID)

	ops, err := s.ListPendingOps(ctx)
	require.NoError(t, err)
	assert.Empty(t, ops)
}

func TestApplyChange_NilNoteIgnored(t *testing.T) {
	s, _ := newStore(t)

	ok, err := s.ApplyChange(context.Background(), api.Change{ID: "a", Type: api.OpUpsert})
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestApplyRound(t *testing.T) {
	s, _ := newStore(t)
	ctx := context.Background()

	_, err := s.Edit(ctx, "mine", &api.NotePatch{Title: api.Ptr("x")})
	require.NoError(t, err)
	_, err = s.Edit(ctx, "lost", &api.NotePatch{Title: api.Ptr("y")})
	require.NoError(t, err)
	_, err = s.Edit(ctx, "gone", &api.NotePatch{Title: api.Ptr("z")})
	require.NoError(t, err)

	tomb := remote("gone", at(-1), "z")
	tomb.DeletedAt = &t0

	resp := &api.SyncResponse{
		Applied: []api.Applied{{ID: "mine", ServerChangeSeq: 4, UpdatedAt: t0}},
		Conflicts: []api.Conflict{
			{ID: "lost", ServerVersion: at(30), Note: remote("lost", at(30), "server")},
			{ID: "gone", ServerVersion: t0, Note: tomb},
		},
		Changes: []api.Change{
			{ServerChangeSeq: 3, Type: api.OpUpsert, Entity: api.EntityNote, ID: "other", Note: remote("other", at(-5), "pulled")},
		},
		NewCursor: 4,
	}

	stats, err := s.ApplyRound(ctx, inFlight(t, s), resp)
	require.NoError(t, err)
	assert.Equal(t, &RoundStats{Acknowledged: 1, Conflicts: 2, Tombstoned: 1, Changes: 1, Cursor: 4}, stats)

	ops, err := s.ListPendingOps(ctx)
	require.NoError(t, err)
	require.Len(t, ops, 1)
	assert.Equal(t, "lost", ops[0].ID, "a plain conflict stays queued")

	gone, err := s.Get(ctx, "gone")
	require.NoError(t, err)
	assert.True(t, gone.Deleted())

	visible, err := s.ListVisible(ctx)
	require.NoError(t, err)
	assert.Len(t, visible, 3)

	stats, err = s.ApplyRound(ctx, nil, &api.SyncResponse{NewCursor: 2})
	require.NoError(t, err)
	assert.Equal(t, int64(4), stats.Cursor, "the cursor never moves back")
}

func TestApplyRound_PulledTombstoneHidesNoteDespiteOlderOp(t *testing.T) {
	s, _ := newStore(t)
	ctx := context.Background()

	_, err := s.Edit(ctx, "a", &api.NotePatch{Title: api.Ptr("pending")})
	require.NoError(t, err)

	tomb := remote("a", at(3), "")
	tomb.DeletedAt = api.Ptr(at(3))
	_, err = s.ApplyRound(ctx, nil, &api.SyncResponse{
		Changes:   []api.Change{{ServerChangeSeq: 9, Type: api.OpDelete, Entity: api.EntityNote, ID: "a", Note: tomb}},
		NewCursor: 9,
	})
	require.NoError(t, err)

	visible, err := s.ListVisible(ctx)
	require.NoError(t, err)
	assert.Empty(t, visible)

	ops, err := s.ListPendingOps(ctx)
	require.NoError(t, err)
	assert.Empty(t, ops)
}

// A note deleted elsewhere first is confirmed with that earlier deletion's
// timestamp; the later local delete is still the op that was pushed.
func TestApplyRound_DeleteOfTombstonedNoteIsCleared(t *testing.T) {
	s, clock := newStore(t)
	ctx := context.Background()

	require.NoError(t, s.Put(ctx, &models.Note{ID: "a", OwnerID: "u1", Title: "x", UpdatedAt: at(1)}))
	*clock = at(20)
	require.NoError(t, s.Delete(ctx, "a"))

	first := remote("a", at(10), "x")
	first.DeletedAt = api.Ptr(at(10))
	stats, err := s.ApplyRound(ctx, inFlight(t, s), &api.SyncResponse{
		Applied:   []api.Applied{{ID: "a", ServerChangeSeq: 2, UpdatedAt: at(10)}},
		Changes:   []api.Change{{ServerChangeSeq: 2, Type: api.OpDelete, Entity: api.EntityNote, ID: "a", Note: first}},
		NewCursor: 2,
	})
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Acknowledged)
	assert.Equal(t, 1, stats.Changes)

	ops, err := s.ListPendingOps(ctx)
	require.NoError(t, err)
	assert.Empty(t, ops)

	n, err := s.Get(ctx, "a")
	require.NoError(t, err)
	assert.True(t, n.Deleted())
	assert.True(t, at(10).Equal(n.UpdatedAt), "the server's version is adopted")
}

func TestCursor_NeverLowers(t *testing.T) {
	s, _ := newStore(t)
	ctx := context.Background()

	c, err := s.GetCursor(ctx)
	require.NoError(t, err)
	assert.Zero(t, c)

	require.NoError(t, s.SetCursor(ctx, 7))
	require.NoError(t, s.SetCursor(ctx, 3))

	c, err = s.GetCursor(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(7), c)
}

func TestDeviceID_Stable(t *testing.T) {
	s, _ := newStore(t)
	ctx := context.Background()

	a, err := s.DeviceID(ctx)
	require.NoError(t, err)
	b, err := s.DeviceID(ctx)
	require.NoError(t, err)

	assert.NotEmpty(t, a)
	assert.Equal(t, a, b)
}

func TestEnqueueAndClearOp(t *testing.T) {
	s, _ := newStore(t)
	ctx := context.Background()

	op := &models.PendingOp{ID: "a", Type: api.OpUpsert, Entity: api.EntityNote, UpdatedAt: t0}
	require.NoError(t, s.EnqueueOp(ctx, op))
	require.NoError(t, s.EnqueueOp(ctx, op))

	ops, err := s.ListPendingOps(ctx)
	require.NoError(t, err)
	assert.Len(t, ops, 1)

	require.NoError(t, s.ClearOp(ctx, "a"))
	ops, err = s.ListPendingOps(ctx)
	require.NoError(t, err)
	assert.Empty(t, ops)
}

func TestPutAndGet(t *testing.T) {
	s, _ := newStore(t)
	ctx := context.Background()

	n := models.NoteFromAPI(*remote("a", t0, "put"))
	require.NoError(t, s.Put(ctx, &n))

	got, err := s.Get(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, "put", got.Title)
}

func TestReplaceShared(t *testing.T) {
	s, _ := newStore(t)
	ctx := context.Background()

	mine := models.NoteFromAPI(api.NewNote("mine", "me", t0))
	stale := models.NoteFromAPI(api.NewNote("unshared", "u1", t0))
	require.NoError(t, s.Put(ctx, &mine))
	require.NoError(t, s.Put(ctx, &stale))

	applied, err := s.ReplaceShared(ctx, "me", []api.Note{*remote("shared", t0, "from u1")})
	require.NoError(t, err)
	assert.Equal(t, 1, applied)

	visible, err := s.ListVisible(ctx)
	require.NoError(t, err)
	var ids []string
	for _, n := range visible {
		ids = append(ids, n.ID)
	}
	assert.ElementsMatch(t, []string{"mine", "shared"}, ids)
}

func TestReset_KeepsDeviceID(t *testing.T) {
	s, _ := newStore(t)
	ctx := context.Background()

	dev, err := s.DeviceID(ctx)
	require.NoError(t, err)
	_, err = s.Edit(ctx, "a", nil)
	require.NoError(t, err)
	require.NoError(t, s.SetCursor(ctx, 5))

	require.NoError(t, s.Reset(ctx))

	ops, err := s.ListPendingOps(ctx)
	require.NoError(t, err)
	assert.Empty(t, ops)
	c, err := s.GetCursor(ctx)
	require.NoError(t, err)
	assert.Zero(t, c)
	again, err := s.DeviceID(ctx)
	require.NoError(t, err)
	assert.Equal(t, dev, again)
}

func TestOpen_SurvivesRestart(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "notes.db")

	db, err := Open(ctx, path)
	require.NoError(t, err)
	s := New(db, logging.Discard())
	_, err = s.Edit(ctx, "a", &api.NotePatch{Title: api.Ptr("durable")})
	require.NoError(t, err)
	require.NoError(t, s.SetCursor(ctx, 11))
	require.NoError(t, db.Close())

	db, err = Open(ctx, path)
	require.NoError(t, err)
	defer db.Close()
	s = New(db, logging.Discard())

	n, err := s.Get(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, "durable", n.Title)
	ops, err := s.ListPendingOps(ctx)
	require.NoError(t, err)
	assert.Len(t, ops, 1)
	c, err := s.GetCursor(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(11), c)
}

// Every local note with unacknowledged changes has exactly one queued op
// carrying the note's timestamp, whatever the mix of edits and deletes.
func TestStore_QueueTracksNotes(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		s, clock := newStore(rt)
		defer s.db.Close()
		ctx := context.Background()
		ids := []string{"a", "b", "c"}

		steps := rapid.IntRange(1, 25).Draw(rt, "steps")
		for i := 0; i < steps; i++ {
			id := rapid.SampledFrom(ids).Draw(rt, "id")
			*clock = t0.Add(time.Duration(rapid.IntRange(-5, 5).Draw(rt, "skew")) * time.Second)

			if rapid.Bool().Draw(rt, "delete") {
				err := s.Delete(ctx, id)
				if err != nil && !errors.Is(err, common.ErrorNotFound) {
					rt.Fatalf("delete: %v", err)
				}
				continue
			}
			_, err := s.Edit(ctx, id, &api.NotePatch{Title: api.Ptr(rapid.String().Draw(rt, "title"))})
			if err != nil && !errors.Is(err, common.ErrorNotFound) {
				rt.Fatalf("edit: %v", err)
			}
		}

		ops, err := s.ListPendingOps(ctx)
		if err != nil {
			rt.Fatal(err)
		}
		seen := map[string]bool{}
		for _, op := range ops {
			if seen[op.ID] {
				rt.Fatalf("two ops queued for %s", op.ID)
			}
			seen[op.ID] = true

			n, err := s.Get(ctx, op.ID)
			if err != nil {
				rt.Fatalf("op without note: %v", err)
			}
			if !n.UpdatedAt.Equal(op.UpdatedAt) {
				rt.Fatalf("note %s at %v, op at %v", op.ID, n.UpdatedAt, op.UpdatedAt)
			}
			if (op.Type == api.OpDelete) != n.Deleted() {
				rt.Fatalf("op %s type %s does not match tombstone %v", op.ID, op.Type, n.Deleted())
			}
		}
	})
}
