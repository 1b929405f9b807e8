package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/dmitrijs2005/gophnotes/internal/api"
	"github.com/dmitrijs2005/gophnotes/internal/client/client"
	"github.com/dmitrijs2005/gophnotes/internal/client/models"
	"github.com/dmitrijs2005/gophnotes/internal/client/session"
	"github.com/dmitrijs2005/gophnotes/internal/client/store"
	"github.com/dmitrijs2005/gophnotes/internal/client/syncer"
	"github.com/dmitrijs2005/gophnotes/internal/common"
)

// NotesService is what the CLI does with notes. Local edits never wait for
// the network; the remote calls (Sync, RefreshShared, Share, Export) need a
// session.
type NotesService interface {
	Add(ctx context.Context, patch *api.NotePatch) (*models.Note, error)
	Edit(ctx context.Context, id string, patch *api.NotePatch) (*models.Note, error)
	Delete(ctx context.Context, id string) error
	Get(ctx context.Context, id string) (*models.Note, error)
	List(ctx context.Context) ([]models.Note, error)
	Pending(ctx context.Context) (int, error)
	Cursor(ctx context.Context) (int64, error)

	Sync(ctx context.Context) (*syncer.Result, error)
	RefreshShared(ctx context.Context) (int, error)
	Share(ctx context.Context, req *api.ShareRequest) error
	Export(ctx context.Context) (*api.ExportResponse, error)
}

type notesService struct {
	client  client.Client
	store   *store.Store
	session *session.Session
	syncer  *syncer.Syncer
}

func NewNotesService(c client.Client, st *store.Store, sess *session.Session, s *syncer.Syncer) NotesService {
	return &notesService{client: c, store: st, session: sess, syncer: s}
}

// owned reports whether the current user may delete or share n. Notes
// created here and never synced carry no owner yet.
func (s *notesService) owned(n *models.Note) bool {
	return n.OwnerID == "" || n.OwnerID == s.session.UserID()
}

func (s *notesService) Add(ctx context.Context, patch *api.NotePatch) (*models.Note, error) {
	return s.store.Edit(ctx, uuid.NewString(), patch)
}

// Edit patches an existing note. Sharing fields are dropped for notes of
// other users since only owners may change them.
func (s *notesService) Edit(ctx context.Context, id string, patch *api.NotePatch) (*models.Note, error) {
	n, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !s.owned(n) {
		patch = patch.WithoutSharing()
	}
	return s.store.Edit(ctx, id, patch)
}

func (s *notesService) Delete(ctx context.Context, id string) error {
	n, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if !s.owned(n) {
		return common.ErrorForbidden
	}
	return s.store.Delete(ctx, id)
}

// Get returns a visible note; tombstones read as common.ErrorNotFound.
func (s *notesService) Get(ctx context.Context, id string) (*models.Note, error) {
	n, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if n.Deleted() {
		return nil, common.ErrorNotFound
	}
	return n, nil
}

func (s *notesService) List(ctx context.Context) ([]models.Note, error) {
	return s.store.ListVisible(ctx)
}

func (s *notesService) Pending(ctx context.Context) (int, error) {
	ops, err := s.store.ListPendingOps(ctx)
	if err != nil {
		return 0, err
	}
	return len(ops), nil
}

func (s *notesService) Cursor(ctx context.Context) (int64, error) {
	return s.store.GetCursor(ctx)
}

func (s *notesService) Sync(ctx context.Context) (*syncer.Result, error) {
	return s.syncer.SyncAll(ctx)
}

// RefreshShared fetches the notes shared with the user and updates their
// local copies. Collaborators do not receive the owner's changes through
// the sync ledger, so this is how they see fresh content.
func (s *notesService) RefreshShared(ctx context.Context) (int, error) {
	list, err := session.WithRefresh(ctx, s.session, func(ctx context.Context, token string) (*api.NotesList, error) {
		return s.client.ListNotes(ctx, token)
	})
	if err != nil {
		return 0, err
	}
	n, err := s.store.ReplaceShared(ctx, s.session.UserID(), list.Shared)
	if err != nil {
		return 0, fmt.Errorf("store shared notes: %w", err)
	}
	return n, nil
}

// Share changes sharing settings on the server right away. Notes that were
// never pushed are unknown to the server, so run Sync first.
func (s *notesService) Share(ctx context.Context, req *api.ShareRequest) error {
	n, err := s.Get(ctx, req.NoteID)
	if err != nil {
		return err
	}
	if !s.owned(n) {
		return common.ErrorForbidden
	}
	_, err = session.WithRefresh(ctx, s.session, func(ctx context.Context, token string) (struct{}, error) {
		return struct{}{}, s.client.Share(ctx, token, req)
	})
	return err
}

func (s *notesService) Export(ctx context.Context) (*api.ExportResponse, error) {
	return session.WithRefresh(ctx, s.session, func(ctx context.Context, token string) (*api.ExportResponse, error) {
		return s.client.Export(ctx, token)
	})
}
