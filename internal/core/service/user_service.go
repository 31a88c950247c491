package service

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/houstoncollective/streamadmin/internal/core/domain"
	"github.com/houstoncollective/streamadmin/internal/core/ports"
)

// UserService implements the admin user-management flows. Every mutation is
// audited against the acting admin through the shared activity contract.
type UserService struct {
	users ports.UserRepository
	audit ports.ActivityLog
	log   zerolog.Logger
	now   func() time.Time
}

func NewUserService(users ports.UserRepository, audit ports.ActivityLog, log zerolog.Logger) *UserService {
	return &UserService{users: users, audit: audit, log: log, now: time.Now}
}

func (s *UserService) List(ctx context.Context) ([]*domain.User, error) {
	return s.users.List(ctx)
}

func (s *UserService) Get(ctx context.Context, id int64) (*domain.User, error) {
	return s.users.FindByID(ctx, id)
}

func (s *UserService) Create(ctx context.Context, rc domain.RequestContext, actor *domain.User, in ports.CreateUserInput) (*domain.User, error) {
	if in.Username == "" || in.Password == "" || in.Email == "" {
		return nil, domain.ErrInvalidCredentials
	}
	if !in.Role.Valid() {
		return nil, domain.ErrInvalidRole
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	created, err := s.users.Create(ctx, &domain.User{
		Username:     in.Username,
		PasswordHash: string(hash),
		Email:        in.Email,
		Role:         in.Role,
		FullName:     in.FullName,
		IsActive:     true,
		CreatedDate:  s.now().UTC(),
	})
	if err != nil {
		return nil, err
	}

	s.recordAdminAction(actor, domain.ActionUserCreated, fmt.Sprintf("created user %q (role %s)", created.Username, created.Role), rc)
	return created, nil
}

// Update applies partial edits. Lockout counters are deliberately untouched
// here; the explicit Unlock action is the only way to clear them.
func (s *UserService) Update(ctx context.Context, rc domain.RequestContext, actor *domain.User, id int64, in ports.UpdateUserInput) (*domain.User, error) {
	user, err := s.users.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if in.Email != nil {
		user.Email = *in.Email
	}
	if in.Role != nil {
		if !in.Role.Valid() {
			return nil, domain.ErrInvalidRole
		}
		user.Role = *in.Role
	}
	if in.FullName != nil {
		user.FullName = *in.FullName
	}
	if in.IsActive != nil {
		user.IsActive = *in.IsActive
	}
	if in.Password != nil && *in.Password != "" {
		hash, err := bcrypt.GenerateFromPassword([]byte(*in.Password), bcrypt.DefaultCost)
		if err != nil {
			return nil, fmt.Errorf("hash password: %w", err)
		}
		user.PasswordHash = string(hash)
	}

	if err := s.users.Update(ctx, user); err != nil {
		return nil, err
	}

	s.recordAdminAction(actor, domain.ActionUserUpdated, fmt.Sprintf("updated user %q", user.Username), rc)
	return user, nil
}

// Deactivate soft-disables the account. Existing sessions for the user stop
// validating on their next use; no session rows are touched here.
func (s *UserService) Deactivate(ctx context.Context, rc domain.RequestContext, actor *domain.User, id int64) error {
	user, err := s.users.FindByID(ctx, id)
	if err != nil {
		return err
	}

	if err := s.users.SetActive(ctx, id, false); err != nil {
		return err
	}

	s.recordAdminAction(actor, domain.ActionUserDeactivated, fmt.Sprintf("deactivated user %q", user.Username), rc)
	return nil
}

func (s *UserService) Unlock(ctx context.Context, rc domain.RequestContext, actor *domain.User, id int64) error {
	user, err := s.users.FindByID(ctx, id)
	if err != nil {
		return err
	}

	if err := s.users.Unlock(ctx, id); err != nil {
		return err
	}

	s.recordAdminAction(actor, domain.ActionUserUnlocked, fmt.Sprintf("unlocked user %q", user.Username), rc)
	return nil
}

func (s *UserService) recordAdminAction(actor *domain.User, action, details string, rc domain.RequestContext) {
	var actorID *int64
	if actor != nil {
		actorID = &actor.ID
	}
	s.audit.Record(&domain.ActivityEntry{
		UserID:    actorID,
		Action:    action,
		Details:   details,
		IPAddress: rc.IP,
		UserAgent: rc.UserAgent,
		Timestamp: s.now().UTC(),
	})
}
