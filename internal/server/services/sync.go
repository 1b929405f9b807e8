package services

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"slices"

	"github.com/dmitrijs2005/gophnotes/internal/api"
	"github.com/dmitrijs2005/gophnotes/internal/common"
	"github.com/dmitrijs2005/gophnotes/internal/dbx"
	"github.com/dmitrijs2005/gophnotes/internal/logging"
	"github.com/dmitrijs2005/gophnotes/internal/server/config"
	"github.com/dmitrijs2005/gophnotes/internal/server/models"
	"github.com/dmitrijs2005/gophnotes/internal/server/repositories/changes"
	"github.com/dmitrijs2005/gophnotes/internal/server/repositories/collaborators"
	"github.com/dmitrijs2005/gophnotes/internal/server/repositories/notes"
	"github.com/dmitrijs2005/gophnotes/internal/server/repositories/repomanager"
)

const defaultSyncPageSize = 500

// SyncService reconciles pushed ops against stored notes and returns the
// caller's change feed past its cursor.
type SyncService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	access      *AccessChecker
	pageSize    int
	logger      logging.Logger
}

func NewSyncService(db *sql.DB, m repomanager.RepositoryManager, cfg *config.Config, logger logging.Logger) *SyncService {
	pageSize := cfg.SyncPageSize
	if pageSize <= 0 {
		pageSize = defaultSyncPageSize
	}
	return &SyncService{
		db:          db,
		repomanager: m,
		access:      NewAccessChecker(m),
		pageSize:    pageSize,
		logger:      logger,
	}
}

// Sync runs one push/pull round for userID inside a single transaction.
// Conflicts and ops the caller may not perform are outcomes, not errors: an
// error means nothing was committed.
func (s *SyncService) Sync(ctx context.Context, userID string, req *api.SyncRequest) (*api.SyncResponse, error) {
	if req.ClientCursor < 0 {
		return nil, fmt.Errorf("%w: negative cursor", common.ErrorValidation)
	}

	var (
		resp  *api.SyncResponse
		stats syncStats
	)

	err := dbx.WithTx(ctx, s.db, &sql.TxOptions{Isolation: sql.LevelReadCommitted}, func(ctx context.Context, tx dbx.DBTX) error {
		r := &reconciler{
			notes:    s.repomanager.Notes(tx),
			changes:  s.repomanager.Changes(tx),
			collabs:  s.repomanager.Collaborators(tx),
			access:   s.access,
			tx:       tx,
			userID:   userID,
			deviceID: optional(req.DeviceID),
			resp:     &api.SyncResponse{Applied: []api.Applied{}, Conflicts: []api.Conflict{}, Changes: []api.Change{}},
			locked:   map[string]bool{},
		}

		if err := r.lockLedgers(ctx, req.Ops); err != nil {
			return err
		}
		for _, op := range req.Ops {
			if err := r.apply(ctx, op); err != nil {
				return fmt.Errorf("op %s %s: %w", op.Type, op.ID, err)
			}
		}

		if err := r.pull(ctx, req.ClientCursor, s.pageSize); err != nil {
			return err
		}

		resp, stats = r.resp, r.stats
		return nil
	})
	if err != nil {
		s.logger.Error(ctx, "sync failed", "user", userID, "ops", len(req.Ops), "error", err)
		return nil, err
	}

	s.logger.Info(ctx, "sync",
		"user", userID,
		"device", req.DeviceID,
		"ops", len(req.Ops),
		"applied", len(resp.Applied),
		"conflicts", len(resp.Conflicts),
		"dropped", stats.dropped,
		"skipped", stats.skipped,
		"changes", len(resp.Changes),
		"cursor", resp.NewCursor,
	)
	return resp, nil
}

type syncStats struct {
	dropped int
	skipped int
}

type reconciler struct {
	notes   notes.Repository
	changes changes.Repository
	collabs collaborators.Repository
	access  *AccessChecker
	tx      dbx.DBTX

	userID   string
	deviceID *string

	resp  *api.SyncResponse
	stats syncStats

	locked map[string]bool
}

// lockLedgers takes the append locks of every ledger the ops can write to
// before any note row is locked: the caller's own (creates) and those of
// the owners of the notes already stored.
func (r *reconciler) lockLedgers(ctx context.Context, ops []api.Op) error {
	if len(ops) == 0 {
		return nil
	}
	ids := make([]string, 0, len(ops))
	for _, op := range ops {
		ids = append(ids, op.ID)
	}
	owners, err := r.notes.OwnersOf(ctx, ids)
	if err != nil {
		return err
	}
	return r.lock(ctx, append(owners, r.userID)...)
}

func (r *reconciler) lock(ctx context.Context, userIDs ...string) error {
	var missing []string
	for _, id := range userIDs {
		if !r.locked[id] && !slices.Contains(missing, id) {
			missing = append(missing, id)
		}
	}
	if len(missing) == 0 {
		return nil
	}
	if err := r.changes.LockLedgers(ctx, missing); err != nil {
		return err
	}
	for _, id := range missing {
		r.locked[id] = true
	}
	return nil
}

func (r *reconciler) apply(ctx context.Context, op api.Op) error {
	if op.Entity != api.EntityNote || op.ID == "" {
		r.stats.skipped++
		return nil
	}
	op.UpdatedAt = normalizeTime(op.UpdatedAt)

	switch op.Type {
	case api.OpUpsert:
		return r.upsert(ctx, op)
	case api.OpDelete:
		return r.delete(ctx, op)
	default:
		r.stats.skipped++
		return nil
	}
}

func (r *reconciler) upsert(ctx context.Context, op api.Op) error {
	note, err := r.notes.GetForUpdate(ctx, op.ID)
	if errors.Is(err, common.ErrorNotFound) {
		wire := api.NewNote(op.ID, r.userID, op.UpdatedAt)
		op.Data.Apply(&wire)
		wire.LastModifiedByDeviceID = r.deviceID

		created, cerr := r.create(ctx, noteFromAPI(wire))
		if cerr != nil {
			return cerr
		}
		if created != nil {
			if err := r.shareSideEffects(ctx, created.ID, op.Data); err != nil {
				return err
			}
			return r.record(ctx, created, api.OpUpsert)
		}
		// Lost a race with a concurrent create; reconcile against it.
		note, err = r.notes.GetForUpdate(ctx, op.ID)
	}
	if err != nil {
		return err
	}

	level, err := r.access.Resolve(ctx, r.tx, r.userID, note)
	if err != nil {
		return err
	}
	if !level.CanWrite() {
		r.stats.dropped++
		return nil
	}

	if !op.UpdatedAt.After(note.UpdatedAt) {
		wire := noteToAPI(note)
		r.resp.Conflicts = append(r.resp.Conflicts, api.Conflict{ID: note.ID, ServerVersion: note.UpdatedAt, Note: &wire})
		return nil
	}

	patch := op.Data
	if !level.CanShare() {
		patch = patch.WithoutSharing()
	}

	// A newer upsert wins the fields but never resurrects: DeletedAt is
	// carried over from the stored note.
	wire := noteToAPI(note)
	patch.Apply(&wire)
	wire.UpdatedAt = op.UpdatedAt
	wire.LastModifiedByDeviceID = r.deviceID
	updated := noteFromAPI(wire)

	if err := r.notes.Update(ctx, updated); err != nil {
		return err
	}
	if level.CanShare() {
		if err := r.shareSideEffects(ctx, updated.ID, patch); err != nil {
			return err
		}
	}
	return r.record(ctx, updated, api.OpUpsert)
}

func (r *reconciler) delete(ctx context.Context, op api.Op) error {
	note, err := r.notes.GetForUpdate(ctx, op.ID)
	if errors.Is(err, common.ErrorNotFound) {
		// Never reached the server before being deleted: store the
		// tombstone so later stale upserts of this id lose.
		wire := api.NewNote(op.ID, r.userID, op.UpdatedAt)
		wire.DeletedAt = &op.UpdatedAt
		wire.LastModifiedByDeviceID = r.deviceID

		created, cerr := r.create(ctx, noteFromAPI(wire))
		if cerr != nil {
			return cerr
		}
		if created != nil {
			return r.record(ctx, created, api.OpDelete)
		}
		note, err = r.notes.GetForUpdate(ctx, op.ID)
	}
	if err != nil {
		return err
	}

	level, err := r.access.Resolve(ctx, r.tx, r.userID, note)
	if err != nil {
		return err
	}
	if !level.CanDelete() {
		r.stats.dropped++
		return nil
	}

	if note.DeletedAt != nil {
		seq, err := r.changes.LatestFor(ctx, note.OwnerID, note.ID)
		if err != nil {
			return err
		}
		r.resp.Applied = append(r.resp.Applied, api.Applied{ID: note.ID, ServerChangeSeq: seq, UpdatedAt: note.UpdatedAt})
		return nil
	}

	deletedAt := op.UpdatedAt
	note.DeletedAt = &deletedAt
	if op.UpdatedAt.After(note.UpdatedAt) {
		note.UpdatedAt = op.UpdatedAt
	}
	note.LastModifiedByDevice = r.deviceID

	if err := r.notes.Update(ctx, note); err != nil {
		return err
	}
	return r.record(ctx, note, api.OpDelete)
}

// create inserts note and returns it, or returns nil if the id was taken
// in the meantime.
func (r *reconciler) create(ctx context.Context, note *models.Note) (*models.Note, error) {
	err := r.notes.Create(ctx, note)
	if errors.Is(err, common.ErrorAlreadyExists) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return note, nil
}

// record appends a ledger entry attributed to the note owner and reports
// the op as applied.
func (r *reconciler) record(ctx context.Context, note *models.Note, op string) error {
	snapshot, err := json.Marshal(noteToAPI(note))
	if err != nil {
		return fmt.Errorf("error encoding snapshot: %w", err)
	}

	// Only reached without the lock when a note created concurrently by
	// another user won the id.
	if err := r.lock(ctx, note.OwnerID); err != nil {
		return err
	}

	seq, err := r.changes.Append(ctx, &models.Change{
		UserID:   note.OwnerID,
		Entity:   api.EntityNote,
		EntityID: note.ID,
		Op:       op,
		DeviceID: r.deviceID,
		Snapshot: snapshot,
	})
	if err != nil {
		return err
	}

	r.resp.Applied = append(r.resp.Applied, api.Applied{ID: note.ID, ServerChangeSeq: seq, UpdatedAt: note.UpdatedAt})
	return nil
}

func (r *reconciler) shareSideEffects(ctx context.Context, noteID string, patch *api.NotePatch) error {
	if patch == nil {
		return nil
	}
	return applyCollaborators(ctx, r.collabs, noteID, patch.Collaborators, patch.RemoveCollaborators)
}

func (r *reconciler) pull(ctx context.Context, cursor int64, limit int) error {
	rows, err := r.changes.ListAfter(ctx, r.userID, cursor, limit)
	if err != nil {
		return err
	}

	r.resp.NewCursor = cursor
	for _, row := range rows {
		var n api.Note
		if err := json.Unmarshal(row.Snapshot, &n); err != nil {
			return fmt.Errorf("error decoding snapshot of change %d: %w", row.Seq, err)
		}
		r.resp.Changes = append(r.resp.Changes, api.Change{
			ServerChangeSeq: row.Seq,
			Type:            row.Op,
			Entity:          row.Entity,
			ID:              row.EntityID,
			Note:            &n,
		})
		if row.Seq > r.resp.NewCursor {
			r.resp.NewCursor = row.Seq
		}
	}
	return nil
}

// applyCollaborators adds and removes collaborators by email. Unknown
// emails are ignored.
func applyCollaborators(ctx context.Context, repo collaborators.Repository, noteID string, add, remove []string) error {
	for _, email := range add {
		if email = common.NormalizeEmail(email); email == "" {
			continue
		}
		if _, err := repo.AddByEmail(ctx, noteID, email); err != nil {
			return err
		}
	}
	for _, email := range remove {
		if email = common.NormalizeEmail(email); email == "" {
			continue
		}
		if _, err := repo.RemoveByEmail(ctx, noteID, email); err != nil {
			return err
		}
	}
	return nil
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
