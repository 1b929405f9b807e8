// Package session holds the signed-in user's tokens and runs authenticated
// calls through a refresh-and-retry-once wrapper. The session is persisted in
// the local store's metadata table, so it survives restarts.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/dmitrijs2005/gophnotes/internal/api"
	"github.com/dmitrijs2005/gophnotes/internal/client/client"
	"github.com/dmitrijs2005/gophnotes/internal/client/repositories/metadata"
)

// Metadata keys the session is stored under.
const (
	keyUserID       = "session_user_id"
	keyEmail        = "session_email"
	keyAccessToken  = "session_access_token"
	keyRefreshToken = "session_refresh_token"
)

// Refresher exchanges a refresh token for a new token pair.
type Refresher interface {
	Refresh(ctx context.Context, refreshToken string) (*api.AuthResponse, error)
}

type Session struct {
	meta      metadata.Repository
	refresher Refresher
	group     singleflight.Group

	mu           sync.RWMutex
	userID       string
	email        string
	accessToken  string
	refreshToken string
}

func New(meta metadata.Repository, r Refresher) *Session {
	return &Session{meta: meta, refresher: r}
}

// Load reads a previously saved session. A missing session is not an error;
// LoggedIn reports false afterwards.
func (s *Session) Load(ctx context.Context) error {
	values, err := s.meta.List(ctx)
	if err != nil {
		return fmt.Errorf("load session: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.userID = string(values[keyUserID])
	s.email = string(values[keyEmail])
	s.accessToken = string(values[keyAccessToken])
	s.refreshToken = string(values[keyRefreshToken])
	return nil
}

// Save stores the tokens issued by a login, register or refresh.
func (s *Session) Save(ctx context.Context, email string, auth *api.AuthResponse) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if email == "" {
		email = s.email
	}
	pairs := []struct{ key, value string }{
		{keyUserID, auth.UserID},
		{keyEmail, email},
		{keyAccessToken, auth.AccessToken},
		{keyRefreshToken, auth.RefreshToken},
	}
	for _, p := range pairs {
		if err := s.meta.Set(ctx, p.key, []byte(p.value)); err != nil {
			return fmt.Errorf("save session: %w", err)
		}
	}

	s.userID = auth.UserID
	s.email = email
	s.accessToken = auth.AccessToken
	s.refreshToken = auth.RefreshToken
	return nil
}

// Clear forgets the session locally.
func (s *Session) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, key := range []string{keyUserID, keyEmail, keyAccessToken, keyRefreshToken} {
		if err := s.meta.Delete(ctx, key); err != nil {
			return fmt.Errorf("clear session: %w", err)
		}
	}
	s.userID, s.email, s.accessToken, s.refreshToken = "", "", "", ""
	return nil
}

func (s *Session) UserID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.userID
}

func (s *Session) Email() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.email
}

func (s *Session) AccessToken() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.accessToken
}

func (s *Session) RefreshToken() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.refreshToken
}

// LoggedIn reports whether there is a refresh token to work with.
func (s *Session) LoggedIn() bool {
	return s.RefreshToken() != ""
}

// Refresh obtains a new access token. Concurrent callers share one in-flight
// request. A rejected refresh token clears the access token and yields
// client.ErrAuthExpired; a network failure is returned as is and keeps the
// session intact.
func (s *Session) Refresh(ctx context.Context) (string, error) {
	v, err, _ := s.group.Do("refresh", func() (any, error) {
		token := s.RefreshToken()
		if token == "" {
			return "", client.ErrAuthExpired
		}

		auth, err := s.refresher.Refresh(ctx, token)
		if err != nil {
			if errors.Is(err, client.ErrUnavailable) || ctx.Err() != nil {
				return "", err
			}
			s.dropAccessToken()
			return "", fmt.Errorf("%w: %v", client.ErrAuthExpired, err)
		}

		if err := s.Save(ctx, "", auth); err != nil {
			return "", err
		}
		return auth.AccessToken, nil
	})
	if err != nil {
		return "", err
	}
	return v.(string), nil
}

func (s *Session) dropAccessToken() {
	s.mu.Lock()
	s.accessToken = ""
	s.mu.Unlock()
}

// WithRefresh runs call with the current access token. When the server
// answers client.ErrUnauthorized, the session is refreshed once and the same
// call is retried once; a second rejection is client.ErrAuthExpired.
func WithRefresh[T any](ctx context.Context, s *Session, call func(ctx context.Context, accessToken string) (T, error)) (T, error) {
	var zero T
	if !s.LoggedIn() {
		return zero, client.ErrLocalDataNotAvailable
	}

	token := s.AccessToken()
	if token != "" {
		v, err := call(ctx, token)
		if !errors.Is(err, client.ErrUnauthorized) {
			return v, err
		}
	}

	token, err := s.Refresh(ctx)
	if err != nil {
		return zero, err
	}

	v, err := call(ctx, token)
	if errors.Is(err, client.ErrUnauthorized) {
		return zero, fmt.Errorf("%w: %v", client.ErrAuthExpired, err)
	}
	return v, err
}
