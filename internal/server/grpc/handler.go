package grpc

import (
	"context"
	"errors"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/dmitrijs2005/gophnotes/internal/api"
	"github.com/dmitrijs2005/gophnotes/internal/common"
	"github.com/dmitrijs2005/gophnotes/internal/server/auth"
)

// toStatus maps a service error to a gRPC status. Unrecognised errors are
// logged and reported as Internal without details.
func (s *GRPCServer) toStatus(ctx context.Context, err error) error {
	switch {
	case errors.Is(err, common.ErrorValidation):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, common.ErrorEmailExists):
		return status.Error(codes.AlreadyExists, err.Error())
	case errors.Is(err, common.ErrorInvalidCredentials),
		errors.Is(err, common.ErrInvalidToken),
		errors.Is(err, common.ErrTokenExpired),
		errors.Is(err, common.ErrRefreshTokenExpired),
		errors.Is(err, common.ErrorUnauthorized):
		return status.Error(codes.Unauthenticated, err.Error())
	case errors.Is(err, common.ErrorForbidden):
		return status.Error(codes.PermissionDenied, err.Error())
	case errors.Is(err, common.ErrorNotFound):
		return status.Error(codes.NotFound, err.Error())
	default:
		s.logger.Error(ctx, err.Error())
		return status.Error(codes.Internal, "internal error")
	}
}

// caller returns the identity put in place by the interceptor.
func caller(ctx context.Context) (auth.Identity, error) {
	id, ok := auth.IdentityFromContext(ctx)
	if !ok {
		return auth.Identity{}, status.Error(codes.Unauthenticated, "unauthenticated")
	}
	return id, nil
}

func (s *GRPCServer) Ping(ctx context.Context, req *api.PingRequest) (*api.PingResponse, error) {
	return &api.PingResponse{Status: "ok"}, nil
}

func (s *GRPCServer) Register(ctx context.Context, req *api.RegisterRequest) (*api.AuthResponse, error) {
	resp, err := s.backend.Users.Register(ctx, req)
	if err != nil {
		return nil, s.toStatus(ctx, err)
	}
	return resp, nil
}

func (s *GRPCServer) Login(ctx context.Context, req *api.LoginRequest) (*api.AuthResponse, error) {
	resp, err := s.backend.Users.Login(ctx, req)
	if err != nil {
		return nil, s.toStatus(ctx, err)
	}
	return resp, nil
}

func (s *GRPCServer) Refresh(ctx context.Context, req *api.RefreshRequest) (*api.AuthResponse, error) {
	resp, err := s.backend.Users.Refresh(ctx, req.RefreshToken)
	if err != nil {
		return nil, s.toStatus(ctx, err)
	}
	return resp, nil
}

func (s *GRPCServer) Logout(ctx context.Context, req *api.LogoutRequest) (*api.Empty, error) {
	if err := s.backend.Users.Logout(ctx, req.RefreshToken); err != nil {
		return nil, s.toStatus(ctx, err)
	}
	return &api.Empty{}, nil
}

func (s *GRPCServer) Sync(ctx context.Context, req *api.SyncRequest) (*api.SyncResponse, error) {
	id, err := caller(ctx)
	if err != nil {
		return nil, err
	}
	if req.DeviceID == "" {
		req.DeviceID = id.DeviceID
	}

	resp, err := s.backend.Sync.Sync(ctx, id.UserID, req)
	if err != nil {
		return nil, s.toStatus(ctx, err)
	}
	return resp, nil
}

func (s *GRPCServer) ListNotes(ctx context.Context, _ *api.Empty) (*api.NotesList, error) {
	id, err := caller(ctx)
	if err != nil {
		return nil, err
	}

	list, err := s.backend.Notes.List(ctx, id.UserID)
	if err != nil {
		return nil, s.toStatus(ctx, err)
	}
	return list, nil
}

func (s *GRPCServer) Share(ctx context.Context, req *api.ShareRequest) (*api.Empty, error) {
	id, err := caller(ctx)
	if err != nil {
		return nil, err
	}
	if req.NoteID == "" {
		return nil, status.Error(codes.InvalidArgument, "note id is required")
	}

	if err := s.backend.Notes.Share(ctx, id.UserID, req.NoteID, req); err != nil {
		return nil, s.toStatus(ctx, err)
	}
	return &api.Empty{}, nil
}

func (s *GRPCServer) Export(ctx context.Context, _ *api.ExportRequest) (*api.ExportResponse, error) {
	id, err := caller(ctx)
	if err != nil {
		return nil, err
	}

	resp, err := s.backend.Export.Export(ctx, id.UserID)
	if err != nil {
		return nil, s.toStatus(ctx, err)
	}
	return resp, nil
}
