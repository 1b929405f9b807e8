// Package auth issues and verifies the credentials of the GophNotes server:
// HS256 access tokens, argon2id password hashes, and the request identity
// carried in a context.
package auth

import (
	"errors"
	"time"

	"github.com/dmitrijs2005/gophnotes/internal/common"
	"github.com/golang-jwt/jwt/v5"
)

// Claims carries the user in the standard subject claim plus the device the
// token was issued to.
type Claims struct {
	jwt.RegisteredClaims
	DeviceID string `json:"did,omitempty"`
}

func GenerateToken(userID, deviceID string, secretKey []byte, validityDuration time.Duration) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(validityDuration)),
		},
		DeviceID: deviceID,
	})

	return token.SignedString(secretKey)
}

// ParseToken verifies tokenString and returns the identity it carries.
// Expired tokens yield common.ErrTokenExpired, every other failure
// common.ErrInvalidToken.
func ParseToken(tokenString string, secretKey []byte) (Identity, error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		return secretKey, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return Identity{}, common.ErrTokenExpired
		}
		return Identity{}, common.ErrInvalidToken
	}

	if !token.Valid || claims.Subject == "" {
		return Identity{}, common.ErrInvalidToken
	}

	return Identity{UserID: claims.Subject, DeviceID: claims.DeviceID}, nil
}
