// Package identity wraps the authentication provider consumed by the API.
// The rest of the codebase only sees sessions and session-change
// notifications; token mechanics stay behind this boundary.
package identity

import (
	"context"

	"github.com/edulink-id/parent-portal-api/internal/models"
)

// ChangeKind tags session-change notifications.
type ChangeKind string

const (
	ChangeSignedIn  ChangeKind = "signed_in"
	ChangeSignedOut ChangeKind = "signed_out"
)

// SessionChange describes one sign-in or sign-out event.
type SessionChange struct {
	Kind    ChangeKind
	Session models.Session
}

// Unsubscribe releases a session watch. Safe to call more than once.
type Unsubscribe func()

// Provider is the identity boundary: begin/end session, current-session
// lookup and session-change notification.
type Provider interface {
	SignIn(ctx context.Context, email, password string) (*models.Session, error)
	SignOut(ctx context.Context, token string) error
	Session(ctx context.Context, token string) (*models.Session, error)
	Validate(token string) (*models.JWTClaims, error)
	WatchSessions(cb func(SessionChange)) Unsubscribe
}
