package services

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/dmitrijs2005/gophnotes/internal/api"
	"github.com/dmitrijs2005/gophnotes/internal/common"
	"github.com/dmitrijs2005/gophnotes/internal/dbx"
	"github.com/dmitrijs2005/gophnotes/internal/logging"
	"github.com/dmitrijs2005/gophnotes/internal/server/repositories/repomanager"
)

// NoteService serves the list and sharing endpoints. Neither touches the
// change ledger: collaborators learn about shared notes by re-listing.
type NoteService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	logger      logging.Logger
}

func NewNoteService(db *sql.DB, m repomanager.RepositoryManager, logger logging.Logger) *NoteService {
	return &NoteService{db: db, repomanager: m, logger: logger}
}

// List returns the caller's own notes and those shared with them,
// tombstones excluded.
func (s *NoteService) List(ctx context.Context, userID string) (*api.NotesList, error) {
	repo := s.repomanager.Notes(s.db)

	own, err := repo.ListOwned(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("error listing own notes: %w", err)
	}

	shared, err := repo.ListShared(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("error listing shared notes: %w", err)
	}

	return &api.NotesList{Own: notesToAPI(own), Shared: notesToAPI(shared)}, nil
}

// Share changes the sharing settings of a note owned by userID. Any other
// note, including one the caller collaborates on, yields
// common.ErrorNotFound.
func (s *NoteService) Share(ctx context.Context, userID, noteID string, req *api.ShareRequest) error {
	return dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repomanager.Notes(tx)

		note, err := repo.GetForUpdate(ctx, noteID)
		if err != nil {
			return err
		}
		if note.OwnerID != userID || note.DeletedAt != nil {
			return common.ErrorNotFound
		}

		if req.IsShared != nil && *req.IsShared != note.IsShared {
			if err := repo.SetShared(ctx, noteID, *req.IsShared); err != nil {
				return err
			}
		}

		if err := applyCollaborators(ctx, s.repomanager.Collaborators(tx), noteID, req.AddCollaborators, req.RemoveCollaborators); err != nil {
			return err
		}

		s.logger.Info(ctx, "note sharing changed",
			"user", userID,
			"note", noteID,
			"added", len(req.AddCollaborators),
			"removed", len(req.RemoveCollaborators),
		)
		return nil
	})
}
