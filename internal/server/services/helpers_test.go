package services

import (
	"context"
	"database/sql"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/gophnotes/internal/api"
	"github.com/dmitrijs2005/gophnotes/internal/logging"
	"github.com/dmitrijs2005/gophnotes/internal/server/config"
	"github.com/dmitrijs2005/gophnotes/internal/server/models"
	"github.com/dmitrijs2005/gophnotes/internal/server/repositories/memory"
)

var t0 = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

func at(minutes int) time.Time {
	return t0.Add(time.Duration(minutes) * time.Minute)
}

func newMockDB(t require.TestingT) (*sql.DB, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	return db, mock
}

func testConfig() *config.Config {
	return &config.Config{
		SecretKey:                    "k",
		AccessTokenValidityDuration:  time.Hour,
		RefreshTokenValidityDuration: 2 * time.Hour,
		SyncPageSize:                 500,
		S3Region:                     "us-east-1",
		S3RootUser:                   "minioadmin",
		S3RootPassword:               "minioadmin",
		S3BaseEndpoint:               "http://127.0.0.1:9000",
		S3Bucket:                     "exports",
	}
}

func addUser(t require.TestingT, repos *memory.RepositoryManager, id, email string) {
	require.NoError(t, repos.Users(nil).Create(context.Background(), &models.User{ID: id, Email: email}))
}

// syncHarness runs SyncService against in-memory repositories; every call
// expects exactly one committed transaction.
type syncHarness struct {
	t     require.TestingT
	db    *sql.DB
	mock  sqlmock.Sqlmock
	repos *memory.RepositoryManager
	svc   *SyncService
}

func newSyncHarness(t require.TestingT, pageSize int) *syncHarness {
	db, mock := newMockDB(t)
	repos := memory.NewRepositoryManager()
	cfg := testConfig()
	cfg.SyncPageSize = pageSize
	return &syncHarness{
		t:     t,
		db:    db,
		mock:  mock,
		repos: repos,
		svc:   NewSyncService(db, repos, cfg, logging.Discard()),
	}
}

func (h *syncHarness) close() { _ = h.db.Close() }

func (h *syncHarness) sync(userID string, req *api.SyncRequest) *api.SyncResponse {
	h.mock.ExpectBegin()
	h.mock.ExpectCommit()
	resp, err := h.svc.Sync(context.Background(), userID, req)
	require.NoError(h.t, err)
	require.NoError(h.t, h.mock.ExpectationsWereMet())
	return resp
}
