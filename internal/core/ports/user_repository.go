package ports

import (
	"context"
	"time"

	"github.com/houstoncollective/streamadmin/internal/core/domain"
)

// UserRepository defines persistence for operator accounts. The auth service
// is the sole writer of the lockout fields; role/email/username edits go
// through the user-management flows.
type UserRepository interface {
	FindActiveByUsername(ctx context.Context, username string) (*domain.User, error)
	FindByID(ctx context.Context, id int64) (*domain.User, error)
	List(ctx context.Context) ([]*domain.User, error)
	Count(ctx context.Context) (int64, error)

	Create(ctx context.Context, user *domain.User) (*domain.User, error)
	Update(ctx context.Context, user *domain.User) error
	SetActive(ctx context.Context, id int64, active bool) error

	// ResetLoginState zeroes login_attempts, clears locked_until and stamps
	// last_login. Called on every successful login.
	ResetLoginState(ctx context.Context, id int64, lastLogin time.Time) error

	// RecordLoginFailure increments login_attempts and, when the incremented
	// count reaches threshold, sets locked_until — as a single atomic
	// statement. It returns the attempt count after the increment.
	RecordLoginFailure(ctx context.Context, id int64, threshold int, lockedUntil time.Time) (int, error)

	// Unlock clears login_attempts and locked_until without touching
	// last_login. Used by the admin unlock action.
	Unlock(ctx context.Context, id int64) error
}
