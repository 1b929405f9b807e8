package client

import (
	"context"
	"fmt"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	"github.com/dmitrijs2005/gophnotes/internal/api"
	"github.com/dmitrijs2005/gophnotes/internal/common"
)

// GRPCClient talks to the gRPC front of the server. Messages travel with
// the JSON codec registered by package api.
type GRPCClient struct {
	endpointURL string
	conn        *grpc.ClientConn
	client      *api.NotesServiceClient
}

func withAccessToken(ctx context.Context, token string) context.Context {
	md, _ := metadata.FromOutgoingContext(ctx)
	md = md.Copy()
	if md == nil {
		md = metadata.MD{}
	}
	md.Delete(common.AccessTokenHeaderName)
	md.Set(common.AccessTokenHeaderName, token)

	return metadata.NewOutgoingContext(ctx, md)
}

func NewGRPCClient(endpointURL string, opts ...grpc.DialOption) (*GRPCClient, error) {
	c := &GRPCClient{endpointURL: endpointURL}
	opts = append([]grpc.DialOption{grpc.WithTransportCredentials(insecure.NewCredentials())}, opts...)

	conn, err := grpc.NewClient(c.endpointURL, opts...)
	if err != nil {
		return nil, err
	}
	c.conn = conn
	c.client = api.NewNotesServiceClient(conn)
	return c, nil
}

func (s *GRPCClient) Close() error {
	return s.conn.Close()
}

func (s *GRPCClient) Ping(ctx context.Context) error {
	resp, err := s.client.Ping(ctx, &api.PingRequest{})
	if err != nil {
		return s.mapError(err)
	}
	if resp.Status != "ok" {
		return ErrUnavailable
	}
	return nil
}

func (s *GRPCClient) Register(ctx context.Context, req *api.RegisterRequest) (*api.AuthResponse, error) {
	resp, err := s.client.Register(ctx, req)
	if err != nil {
		return nil, s.mapError(err)
	}
	return resp, nil
}

func (s *GRPCClient) Login(ctx context.Context, req *api.LoginRequest) (*api.AuthResponse, error) {
	resp, err := s.client.Login(ctx, req)
	if err != nil {
		return nil, s.mapError(err)
	}
	return resp, nil
}

func (s *GRPCClient) Refresh(ctx context.Context, refreshToken string) (*api.AuthResponse, error) {
	resp, err := s.client.Refresh(ctx, &api.RefreshRequest{RefreshToken: refreshToken})
	if err != nil {
		return nil, s.mapError(err)
	}
	return resp, nil
}

func (s *GRPCClient) Logout(ctx context.Context, refreshToken string) error {
	_, err := s.client.Logout(ctx, &api.LogoutRequest{RefreshToken: refreshToken})
	return s.mapError(err)
}

func (s *GRPCClient) Sync(ctx context.Context, accessToken string, req *api.SyncRequest) (*api.SyncResponse, error) {
	resp, err := s.client.Sync(withAccessToken(ctx, accessToken), req)
	if err != nil {
		return nil, s.mapError(err)
	}
	return resp, nil
}

func (s *GRPCClient) ListNotes(ctx context.Context, accessToken string) (*api.NotesList, error) {
	resp, err := s.client.ListNotes(withAccessToken(ctx, accessToken), &api.Empty{})
	if err != nil {
		return nil, s.mapError(err)
	}
	return resp, nil
}

func (s *GRPCClient) Share(ctx context.Context, accessToken string, req *api.ShareRequest) error {
	_, err := s.client.Share(withAccessToken(ctx, accessToken), req)
	return s.mapError(err)
}

func (s *GRPCClient) Export(ctx context.Context, accessToken string) (*api.ExportResponse, error) {
	resp, err := s.client.Export(withAccessToken(ctx, accessToken), &api.ExportRequest{})
	if err != nil {
		return nil, s.mapError(err)
	}
	return resp, nil
}

func (s *GRPCClient) mapError(err error) error {
	if err == nil {
		return nil
	}
	st, _ := status.FromError(err)
	switch st.Code() {
	case codes.Unauthenticated:
		return fmt.Errorf("%w: %s", ErrUnauthorized, st.Message())
	case codes.PermissionDenied:
		return fmt.Errorf("%w: %s", common.ErrorForbidden, st.Message())
	case codes.InvalidArgument:
		return fmt.Errorf("%w: %s", common.ErrorValidation, st.Message())
	case codes.AlreadyExists:
		return fmt.Errorf("%w: %s", common.ErrorEmailExists, st.Message())
	case codes.NotFound:
		return fmt.Errorf("%w: %s", common.ErrorNotFound, st.Message())
	case codes.Unavailable, codes.DeadlineExceeded, codes.Internal:
		return fmt.Errorf("%w: %s", ErrUnavailable, st.Message())
	default:
		return fmt.Errorf("rpc error: %w", err)
	}
}

var (
	_ Client = (*GRPCClient)(nil)
	_ Client = (*HTTPClient)(nil)
)
