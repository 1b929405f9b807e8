// Package services contains the application services behind the client CLI.
// This file defines the account service: register, login, logout and the
// liveness probe, together with keeping the local store bound to one user.
package services

import (
	"context"
	"fmt"
	"os"
	"runtime"

	"github.com/dmitrijs2005/gophnotes/internal/api"
	"github.com/dmitrijs2005/gophnotes/internal/client/client"
	"github.com/dmitrijs2005/gophnotes/internal/client/session"
	"github.com/dmitrijs2005/gophnotes/internal/client/store"
	"github.com/dmitrijs2005/gophnotes/internal/logging"
)

// keyStoreOwner names the user whose notes the local store holds. It
// outlives logout so the next login of the same user keeps offline work.
const keyStoreOwner = "store_owner"

// AuthService defines account operations for the CLI.
//
// Contract:
//   - Register and Login persist the issued tokens. Signing in as a user
//     other than the one owning the local store wipes the store first.
//   - Logout revokes the refresh token on the server when it can and always
//     forgets the session locally. Notes and queued ops are kept.
//   - Ping checks server liveness.
//
// All methods honor context cancellation/timeouts.
type AuthService interface {
	Register(ctx context.Context, email string, password []byte) error
	Login(ctx context.Context, email string, password []byte) error
	Logout(ctx context.Context) error
	Ping(ctx context.Context) error
	Close(ctx context.Context) error
	LoggedIn() bool
	UserID() string
	Email() string
}

type authService struct {
	client  client.Client
	store   *store.Store
	session *session.Session
	logger  logging.Logger
}

func NewAuthService(c client.Client, st *store.Store, sess *session.Session, logger logging.Logger) AuthService {
	return &authService{client: c, store: st, session: sess, logger: logger}
}

func (a *authService) device(ctx context.Context) (api.Device, error) {
	id, err := a.store.DeviceID(ctx)
	if err != nil {
		return api.Device{}, err
	}
	name, _ := os.Hostname()
	return api.Device{ID: id, Name: name, Platform: runtime.GOOS}, nil
}

func (a *authService) Register(ctx context.Context, email string, password []byte) error {
	dev, err := a.device(ctx)
	if err != nil {
		return err
	}
	resp, err := a.client.Register(ctx, &api.RegisterRequest{Email: email, Password: string(password), Device: dev})
	if err != nil {
		return fmt.Errorf("register error: %w", err)
	}
	return a.adopt(ctx, email, resp)
}

func (a *authService) Login(ctx context.Context, email string, password []byte) error {
	dev, err := a.device(ctx)
	if err != nil {
		return err
	}
	resp, err := a.client.Login(ctx, &api.LoginRequest{Email: email, Password: string(password), Device: dev})
	if err != nil {
		return fmt.Errorf("login error: %w", err)
	}
	return a.adopt(ctx, email, resp)
}

// adopt binds the local store to the signed-in user and saves the tokens.
func (a *authService) adopt(ctx context.Context, email string, resp *api.AuthResponse) error {
	meta := a.store.Metadata()
	owner, err := meta.Get(ctx, keyStoreOwner)
	if err != nil {
		return err
	}
	if len(owner) > 0 && string(owner) != resp.UserID {
		a.logger.Info(ctx, "local store belongs to another user, resetting")
		if err := a.store.Reset(ctx); err != nil {
			return fmt.Errorf("reset local store: %w", err)
		}
	}
	if err := meta.Set(ctx, keyStoreOwner, []byte(resp.UserID)); err != nil {
		return err
	}
	return a.session.Save(ctx, email, resp)
}

func (a *authService) Logout(ctx context.Context) error {
	if token := a.session.RefreshToken(); token != "" {
		if err := a.client.Logout(ctx, token); err != nil {
			a.logger.Warn(ctx, "refresh token not revoked", "error", err)
		}
	}
	return a.session.Clear(ctx)
}

// Ping proxies a liveness check to the underlying client.
func (a *authService) Ping(ctx context.Context) error {
	return a.client.Ping(ctx)
}

// Close releases resources held by the underlying client.
func (a *authService) Close(ctx context.Context) error {
	return a.client.Close()
}

func (a *authService) LoggedIn() bool {
	return a.session.LoggedIn()
}

func (a *authService) UserID() string {
	return a.session.UserID()
}

func (a *authService) Email() string {
	return a.session.Email()
}
