package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dmitrijs2005/gophnotes/internal/api"
	"github.com/dmitrijs2005/gophnotes/internal/common"
	"github.com/dmitrijs2005/gophnotes/internal/dbx"
	"github.com/dmitrijs2005/gophnotes/internal/logging"
	"github.com/dmitrijs2005/gophnotes/internal/server/auth"
	"github.com/dmitrijs2005/gophnotes/internal/server/config"
	"github.com/dmitrijs2005/gophnotes/internal/server/models"
	"github.com/dmitrijs2005/gophnotes/internal/server/repositories/repomanager"
	"github.com/google/uuid"
)

const minPasswordLength = 8

var timeNow = time.Now

type UserService struct {
	db                           *sql.DB
	repomanager                  repomanager.RepositoryManager
	jwtSecret                    []byte
	accessTokenValidityDuration  time.Duration
	refreshTokenValidityDuration time.Duration
	logger                       logging.Logger
}

func NewUserService(db *sql.DB, m repomanager.RepositoryManager, cfg *config.Config, logger logging.Logger) *UserService {
	return &UserService{
		db:                           db,
		repomanager:                  m,
		jwtSecret:                    []byte(cfg.SecretKey),
		accessTokenValidityDuration:  cfg.AccessTokenValidityDuration,
		refreshTokenValidityDuration: cfg.RefreshTokenValidityDuration,
		logger:                       logger,
	}
}

// Register creates an account, registers the calling device and signs it
// in.
func (s *UserService) Register(ctx context.Context, req *api.RegisterRequest) (*api.AuthResponse, error) {
	email := common.NormalizeEmail(req.Email)
	if !strings.Contains(email, "@") {
		return nil, fmt.Errorf("%w: invalid email", common.ErrorValidation)
	}
	if len(req.Password) < minPasswordLength {
		return nil, fmt.Errorf("%w: password must be at least %d characters", common.ErrorValidation, minPasswordLength)
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		return nil, fmt.Errorf("error hashing password: %w", err)
	}

	user := &models.User{ID: uuid.NewString(), Email: email, PasswordHash: hash}

	var resp *api.AuthResponse
	err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if err := s.repomanager.Users(tx).Create(ctx, user); err != nil {
			return err
		}
		resp, err = s.signIn(ctx, tx, user.ID, req.Device)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info(ctx, "user registered", "user", user.ID, "device", resp.DeviceID)
	return resp, nil
}

// Login verifies the credentials and issues a token pair bound to the
// calling device. Unknown email and wrong password are indistinguishable.
func (s *UserService) Login(ctx context.Context, req *api.LoginRequest) (*api.AuthResponse, error) {
	user, err := s.repomanager.Users(s.db).GetByEmail(ctx, common.NormalizeEmail(req.Email))
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrorInvalidCredentials
		}
		return nil, fmt.Errorf("error searching user: %w", err)
	}

	ok, err := auth.VerifyPassword(user.PasswordHash, req.Password)
	if err != nil {
		return nil, fmt.Errorf("error verifying password: %w", err)
	}
	if !ok {
		return nil, common.ErrorInvalidCredentials
	}

	var resp *api.AuthResponse
	err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		resp, err = s.signIn(ctx, tx, user.ID, req.Device)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info(ctx, "user logged in", "user", user.ID, "device", resp.DeviceID)
	return resp, nil
}

// Refresh exchanges a refresh token for a new pair. The presented token is
// revoked in the same transaction, so each one works once.
func (s *UserService) Refresh(ctx context.Context, refreshToken string) (*api.AuthResponse, error) {
	hash := common.HashToken(refreshToken)

	var resp *api.AuthResponse
	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repomanager.RefreshTokens(tx)

		token, err := repo.FindByHash(ctx, hash)
		if err != nil {
			if errors.Is(err, common.ErrorNotFound) {
				return common.ErrInvalidToken
			}
			return fmt.Errorf("error searching refresh token: %w", err)
		}

		now := timeNow()
		if !token.Usable(now) {
			return common.ErrRefreshTokenExpired
		}

		revoked, err := repo.Revoke(ctx, hash, now)
		if err != nil {
			return err
		}
		if !revoked {
			// Rotated concurrently by another request.
			return common.ErrRefreshTokenExpired
		}

		resp, err = s.issueTokens(ctx, tx, token.UserID, token.DeviceID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return resp, nil
}

// Logout revokes a refresh token. Unknown tokens are ignored.
func (s *UserService) Logout(ctx context.Context, refreshToken string) error {
	if refreshToken == "" {
		return nil
	}
	_, err := s.repomanager.RefreshTokens(s.db).Revoke(ctx, common.HashToken(refreshToken), timeNow())
	return err
}

func (s *UserService) signIn(ctx context.Context, tx dbx.DBTX, userID string, d api.Device) (*api.AuthResponse, error) {
	device := &models.Device{ID: d.ID, UserID: userID, Name: d.Name, Platform: d.Platform}
	if device.ID == "" {
		device.ID = uuid.NewString()
	}

	if err := s.repomanager.Devices(tx).Upsert(ctx, device); err != nil {
		return nil, fmt.Errorf("error registering device: %w", err)
	}

	return s.issueTokens(ctx, tx, userID, device.ID)
}

func (s *UserService) issueTokens(ctx context.Context, tx dbx.DBTX, userID, deviceID string) (*api.AuthResponse, error) {
	accessToken, err := auth.GenerateToken(userID, deviceID, s.jwtSecret, s.accessTokenValidityDuration)
	if err != nil {
		return nil, fmt.Errorf("error generating access token: %w", err)
	}

	refreshToken, err := common.MakeRandHexString(32)
	if err != nil {
		return nil, fmt.Errorf("error generating refresh token: %w", err)
	}

	err = s.repomanager.RefreshTokens(tx).Create(ctx, &models.RefreshToken{
		UserID:    userID,
		DeviceID:  deviceID,
		TokenHash: common.HashToken(refreshToken),
		ExpiresAt: timeNow().Add(s.refreshTokenValidityDuration),
	})
	if err != nil {
		return nil, fmt.Errorf("error storing refresh token: %w", err)
	}

	return &api.AuthResponse{
		UserID:       userID,
		DeviceID:     deviceID,
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
	}, nil
}
