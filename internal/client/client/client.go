package client

import (
	"context"

	"github.com/dmitrijs2005/gophnotes/internal/api"
)

// Client is the transport used to talk to the server. Calls that need an
// access token take it explicitly; the session decides which token to send
// and when to refresh it.
type Client interface {
	Ping(ctx context.Context) error
	Register(ctx context.Context, req *api.RegisterRequest) (*api.AuthResponse, error)
	Login(ctx context.Context, req *api.LoginRequest) (*api.AuthResponse, error)
	Refresh(ctx context.Context, refreshToken string) (*api.AuthResponse, error)
	Logout(ctx context.Context, refreshToken string) error
	Sync(ctx context.Context, accessToken string, req *api.SyncRequest) (*api.SyncResponse, error)
	ListNotes(ctx context.Context, accessToken string) (*api.NotesList, error)
	Share(ctx context.Context, accessToken string, req *api.ShareRequest) error
	Export(ctx context.Context, accessToken string) (*api.ExportResponse, error)
	Close() error
}
