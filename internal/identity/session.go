package identity

import (
	"context"
	"errors"
	"time"

	"survive-arena/internal/domain"
)

// DefaultSessionTTL is how long a sign-in stays valid.
const DefaultSessionTTL = 30 * 24 * time.Hour

// ErrSessionNotFound is returned for unknown or expired session ids.
var ErrSessionNotFound = errors.New("session not found")

// Session is an authenticated browser session.
type Session struct {
	ID        string          `json:"id"`
	User      domain.Identity `json:"user"`
	CreatedAt time.Time       `json:"created_at"`
	ExpiresAt time.Time       `json:"expires_at"`
}

// SessionStore maps opaque session ids to signed-in users.
type SessionStore interface {
	Create(ctx context.Context, user domain.Identity) (*Session, error)
	Get(ctx context.Context, id string) (*Session, error)
	Delete(ctx context.Context, id string) error
}
