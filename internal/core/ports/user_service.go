package ports

import (
	"context"

	"github.com/houstoncollective/streamadmin/internal/core/domain"
)

// CreateUserInput carries the fields of a new account.
type CreateUserInput struct {
	Username string
	Password string
	Email    string
	Role     domain.Role
	FullName string
}

// UpdateUserInput carries partial edits; nil fields are left unchanged.
// Lockout fields are never edited here except through Unlock.
type UpdateUserInput struct {
	Email    *string
	Role     *domain.Role
	FullName *string
	IsActive *bool
	Password *string
}

// UserService is the user-management surface consumed by the admin pages.
type UserService interface {
	List(ctx context.Context) ([]*domain.User, error)
	Get(ctx context.Context, id int64) (*domain.User, error)
	Create(ctx context.Context, rc domain.RequestContext, actor *domain.User, in CreateUserInput) (*domain.User, error)
	Update(ctx context.Context, rc domain.RequestContext, actor *domain.User, id int64, in UpdateUserInput) (*domain.User, error)
	Deactivate(ctx context.Context, rc domain.RequestContext, actor *domain.User, id int64) error
	Unlock(ctx context.Context, rc domain.RequestContext, actor *domain.User, id int64) error
}

// ActivityService exposes the audit trail for the admin activity view.
type ActivityService interface {
	Recent(ctx context.Context, limit, offset int) ([]*domain.ActivityEntry, error)
}
