package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRefreshToken_Usable(t *testing.T) {
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	revoked := now.Add(-time.Minute)

	tests := []struct {
		name string
		tok  RefreshToken
		want bool
	}{
		{name: "fresh", tok: RefreshToken{ExpiresAt: now.Add(time.Hour)}, want: true},
		{name: "expired", tok: RefreshToken{ExpiresAt: now.Add(-time.Second)}, want: false},
		{name: "expires exactly now", tok: RefreshToken{ExpiresAt: now}, want: false},
		{name: "revoked", tok: RefreshToken{ExpiresAt: now.Add(time.Hour), RevokedAt: &revoked}, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.tok.Usable(now))
		})
	}
}
