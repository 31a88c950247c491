package ports

import (
	"context"

	"github.com/houstoncollective/streamadmin/internal/core/domain"
)

// AuthService is the gate every protected endpoint consults before any CRUD
// logic runs.
type AuthService interface {
	// Login verifies credentials, applying the lockout policy, and issues a
	// session on success. Expected failures are domain.ErrInvalidCredentials
	// and domain.ErrAccountLocked; anything else is a system fault.
	Login(ctx context.Context, rc domain.RequestContext, username, password string, remember bool) (*domain.LoginResult, error)

	// ValidateSession resolves a token to an authenticated context. All
	// invalid-token shapes come back as domain.ErrSessionInvalid.
	ValidateSession(ctx context.Context, token string) (*domain.AuthContext, error)

	// Logout deactivates the session behind token. Idempotent: an unknown or
	// already-inactive token is a no-op.
	Logout(ctx context.Context, rc domain.RequestContext, token string) error
}

// ActivityLog records audited actions. Fire-and-forget: implementations must
// never block the caller or surface storage failures.
type ActivityLog interface {
	Record(entry *domain.ActivityEntry)
}
