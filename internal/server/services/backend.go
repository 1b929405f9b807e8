package services

import (
	"context"

	"github.com/dmitrijs2005/gophnotes/internal/api"
)

type Syncer interface {
	Sync(ctx context.Context, userID string, req *api.SyncRequest) (*api.SyncResponse, error)
}

type NoteManager interface {
	List(ctx context.Context, userID string) (*api.NotesList, error)
	Share(ctx context.Context, userID, noteID string, req *api.ShareRequest) error
}

type Authenticator interface {
	Register(ctx context.Context, req *api.RegisterRequest) (*api.AuthResponse, error)
	Login(ctx context.Context, req *api.LoginRequest) (*api.AuthResponse, error)
	Refresh(ctx context.Context, refreshToken string) (*api.AuthResponse, error)
	Logout(ctx context.Context, refreshToken string) error
}

type Exporter interface {
	Export(ctx context.Context, userID string) (*api.ExportResponse, error)
}

// Backend is what a transport serves. The HTTP and gRPC fronts share one.
type Backend struct {
	Sync   Syncer
	Notes  NoteManager
	Users  Authenticator
	Export Exporter
}
