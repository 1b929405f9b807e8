package models

import "time"

type User struct {
	ID           string
	Email        string
	PasswordHash string
	CreatedAt    time.Time
}

// Device is a client installation of a user. Ids are generated by the
// client and unique per user.
type Device struct {
	ID        string
	UserID    string
	Name      string
	Platform  string
	CreatedAt time.Time
}

// RefreshToken is an issued refresh credential; only its sha256 digest is
// stored.
type RefreshToken struct {
	ID        int64
	UserID    string
	DeviceID  string
	TokenHash string
	ExpiresAt time.Time
	RevokedAt *time.Time
	CreatedAt time.Time
}

// Usable reports whether the token may still be exchanged at now.
func (t *RefreshToken) Usable(now time.Time) bool {
	return t.RevokedAt == nil && now.Before(t.ExpiresAt)
}
