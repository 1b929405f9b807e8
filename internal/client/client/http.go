package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/dmitrijs2005/gophnotes/internal/api"
	"github.com/dmitrijs2005/gophnotes/internal/common"
)

// HTTPClient talks to the HTTP front of the server.
type HTTPClient struct {
	baseURL string
	http    *http.Client
}

func NewHTTPClient(baseURL string, timeout time.Duration) *HTTPClient {
	if !strings.Contains(baseURL, "://") {
		baseURL = "http://" + baseURL
	}
	return &HTTPClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
	}
}

func (c *HTTPClient) Close() error {
	c.http.CloseIdleConnections()
	return nil
}

func (c *HTTPClient) Ping(ctx context.Context) error {
	var resp api.PingResponse
	if err := c.do(ctx, http.MethodGet, "/health", "", nil, &resp); err != nil {
		return err
	}
	if resp.Status != "ok" {
		return ErrUnavailable
	}
	return nil
}

func (c *HTTPClient) Register(ctx context.Context, req *api.RegisterRequest) (*api.AuthResponse, error) {
	var resp api.AuthResponse
	if err := c.do(ctx, http.MethodPost, "/v1/auth/register", "", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *HTTPClient) Login(ctx context.Context, req *api.LoginRequest) (*api.AuthResponse, error) {
	var resp api.AuthResponse
	if err := c.do(ctx, http.MethodPost, "/v1/auth/login", "", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *HTTPClient) Refresh(ctx context.Context, refreshToken string) (*api.AuthResponse, error) {
	var resp api.AuthResponse
	if err := c.do(ctx, http.MethodPost, "/v1/auth/refresh", "", &api.RefreshRequest{RefreshToken: refreshToken}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *HTTPClient) Logout(ctx context.Context, refreshToken string) error {
	return c.do(ctx, http.MethodPost, "/v1/auth/logout", "", &api.LogoutRequest{RefreshToken: refreshToken}, nil)
}

func (c *HTTPClient) Sync(ctx context.Context, accessToken string, req *api.SyncRequest) (*api.SyncResponse, error) {
	var resp api.SyncResponse
	if err := c.do(ctx, http.MethodPost, "/v1/sync", accessToken, req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *HTTPClient) ListNotes(ctx context.Context, accessToken string) (*api.NotesList, error) {
	var resp api.NotesList
	if err := c.do(ctx, http.MethodGet, "/v1/notes", accessToken, nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *HTTPClient) Share(ctx context.Context, accessToken string, req *api.ShareRequest) error {
	return c.do(ctx, http.MethodPost, "/v1/notes/"+url.PathEscape(req.NoteID)+"/share", accessToken, req, nil)
}

func (c *HTTPClient) Export(ctx context.Context, accessToken string) (*api.ExportResponse, error) {
	var resp api.ExportResponse
	if err := c.do(ctx, http.MethodPost, "/v1/notes/export", accessToken, nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// do sends in as JSON and decodes a 2xx body into out. A nil out discards
// the body.
func (c *HTTPClient) do(ctx context.Context, method, path, accessToken string, in, out any) error {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if accessToken != "" {
		req.Header.Set(common.AuthorizationHeader, common.BearerPrefix+accessToken)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return statusError(resp)
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	return nil
}

// statusError maps a non-2xx response to a sentinel, keeping the server's
// message for display.
func statusError(resp *http.Response) error {
	var e api.Error
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<16)).Decode(&e); err != nil || e.Message == "" {
		e.Message = http.StatusText(resp.StatusCode)
	}

	var sentinel error
	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		sentinel = ErrUnauthorized
	case resp.StatusCode == http.StatusBadRequest, resp.StatusCode == http.StatusRequestEntityTooLarge:
		sentinel = common.ErrorValidation
	case resp.StatusCode == http.StatusForbidden:
		sentinel = common.ErrorForbidden
	case resp.StatusCode == http.StatusNotFound:
		sentinel = common.ErrorNotFound
	case resp.StatusCode == http.StatusConflict:
		sentinel = common.ErrorEmailExists
	case resp.StatusCode >= 500:
		sentinel = ErrUnavailable
	default:
		sentinel = errors.New(resp.Status)
	}
	return fmt.Errorf("%w: %s", sentinel, e.Message)
}
