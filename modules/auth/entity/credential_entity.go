package entity

import (
	"time"

	"github.com/lib/pq"

	"go-agenda-sync/core/entity"
)

// OAuthCredential is the single stored credential per (user, provider). All
// other components borrow an access token through the credential service;
// nothing else reads this row.
type OAuthCredential struct {
	UserKey        string         `db:"user_key"`
	Provider       string         `db:"provider"`
	AccessToken    string         `db:"access_token"`
	RefreshToken   *string        `db:"refresh_token"`
	Scopes         pq.StringArray `db:"scopes"`
	TokenExpiresAt time.Time      `db:"token_expires_at"`
	IsActive       bool           `db:"is_active"`
	entity.BaseEntity
}

// Valid reports whether the credential can still authenticate a call at now.
func (c *OAuthCredential) Valid(now time.Time) bool {
	return c.IsActive && now.Before(c.TokenExpiresAt)
}

// RemainingLifetime is the time left before expiry at now; negative when
// already expired.
func (c *OAuthCredential) RemainingLifetime(now time.Time) time.Duration {
	return c.TokenExpiresAt.Sub(now)
}
