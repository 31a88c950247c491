package ports

import (
	"context"
	"time"

	"github.com/houstoncollective/streamadmin/internal/core/domain"
)

// SessionRepository defines persistence for issued session tokens.
type SessionRepository interface {
	Create(ctx context.Context, session *domain.Session) (*domain.Session, error)

	// FindByToken returns the session row for the exact token, regardless of
	// its active/expiry state; the service applies the validity checks.
	FindByToken(ctx context.Context, token string) (*domain.Session, error)

	// TouchActivity bumps last_activity for the session. Best-effort: a
	// failure must not invalidate the session for the current request.
	TouchActivity(ctx context.Context, token string, at time.Time) error

	// Deactivate soft-deletes the session (logout).
	Deactivate(ctx context.Context, token string) error

	// DeleteExpiredBefore hard-deletes sessions whose expiry passed before
	// cutoff, returning how many rows were removed.
	DeleteExpiredBefore(ctx context.Context, cutoff time.Time) (int64, error)
}
