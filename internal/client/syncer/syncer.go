// Package syncer runs sync rounds: push the pending ops, pull the changes
// after the local cursor and fold the answer into the local store.
package syncer

import (
	"context"
	"errors"

	"golang.org/x/sync/singleflight"

	"github.com/dmitrijs2005/gophnotes/internal/api"
	"github.com/dmitrijs2005/gophnotes/internal/client/client"
	"github.com/dmitrijs2005/gophnotes/internal/client/session"
	"github.com/dmitrijs2005/gophnotes/internal/client/store"
	"github.com/dmitrijs2005/gophnotes/internal/logging"
)

const (
	// DefaultPageSize matches the server's default number of changes per
	// round.
	DefaultPageSize = 500
	// maxRounds bounds SyncAll.
	maxRounds = 100
)

// Result describes one round, or the sum of the rounds run by SyncAll.
type Result struct {
	Rounds       int
	Pushed       int
	Acknowledged int
	Conflicts    int
	Changes      int
	Skipped      int
	Cursor       int64
	// HasMore is set when the round returned a full page, so the server may
	// hold more changes after Cursor.
	HasMore bool
}

func (r *Result) add(o *Result) {
	r.Rounds += o.Rounds
	r.Pushed += o.Pushed
	r.Acknowledged += o.Acknowledged
	r.Conflicts += o.Conflicts
	r.Changes += o.Changes
	r.Skipped += o.Skipped
	r.Cursor = o.Cursor
	r.HasMore = o.HasMore
}

type Syncer struct {
	store    *store.Store
	client   client.Client
	session  *session.Session
	logger   logging.Logger
	pageSize int
	group    singleflight.Group
}

// New returns a Syncer. pageSize is the server's page size, used only to
// tell whether a round may have left changes behind; values below one fall
// back to DefaultPageSize.
func New(st *store.Store, c client.Client, sess *session.Session, logger logging.Logger, pageSize int) *Syncer {
	if pageSize < 1 {
		pageSize = DefaultPageSize
	}
	return &Syncer{store: st, client: c, session: sess, logger: logger, pageSize: pageSize}
}

// SyncOnce runs one round. Callers arriving while a round is in flight wait
// for it and share its outcome instead of starting another.
//
// On any failure the local state is left as it was. client.ErrAuthExpired
// means the refresh token was rejected too and the user must log in again.
func (s *Syncer) SyncOnce(ctx context.Context) (*Result, error) {
	v, err, _ := s.group.Do("round", func() (any, error) {
		return s.round(ctx)
	})
	if err != nil {
		return nil, err
	}
	return v.(*Result), nil
}

// SyncAll runs rounds until the server has nothing more to send, to catch up
// a stale cursor.
func (s *Syncer) SyncAll(ctx context.Context) (*Result, error) {
	total := &Result{}
	for i := 0; i < maxRounds; i++ {
		res, err := s.SyncOnce(ctx)
		if err != nil {
			return total, err
		}
		total.add(res)
		if !res.HasMore {
			break
		}
	}
	return total, nil
}

func (s *Syncer) round(ctx context.Context) (*Result, error) {
	cursor, err := s.store.GetCursor(ctx)
	if err != nil {
		return nil, err
	}
	ops, err := s.store.ListPendingOps(ctx)
	if err != nil {
		return nil, err
	}
	deviceID, err := s.store.DeviceID(ctx)
	if err != nil {
		return nil, err
	}

	req := &api.SyncRequest{ClientCursor: cursor, DeviceID: deviceID, Ops: make([]api.Op, 0, len(ops))}
	for i := range ops {
		req.Ops = append(req.Ops, ops[i].ToAPI())
	}

	resp, err := session.WithRefresh(ctx, s.session, func(ctx context.Context, token string) (*api.SyncResponse, error) {
		return s.client.Sync(ctx, token, req)
	})
	if err != nil {
		if errors.Is(err, client.ErrAuthExpired) {
			s.logger.Warn(ctx, "sync round aborted, login required", "error", err)
		} else {
			s.logger.Info(ctx, "sync round aborted", "error", err)
		}
		return nil, err
	}

	stats, err := s.store.ApplyRound(ctx, req.Ops, resp)
	if err != nil {
		return nil, err
	}

	res := &Result{
		Rounds:       1,
		Pushed:       len(req.Ops),
		Acknowledged: stats.Acknowledged,
		Conflicts:    stats.Conflicts,
		Changes:      stats.Changes,
		Skipped:      stats.Skipped,
		Cursor:       stats.Cursor,
		HasMore:      len(resp.Changes) >= s.pageSize,
	}
	s.logger.Debug(ctx, "sync round",
		"pushed", res.Pushed, "acknowledged", res.Acknowledged, "conflicts", res.Conflicts,
		"changes", res.Changes, "skipped", res.Skipped, "cursor", res.Cursor)
	return res, nil
}
