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

// Default first-run credentials, matching the original installation script.
const (
	defaultAdminUsername = "admin"
	defaultAdminPassword = "admin123"
	defaultAdminEmail    = "admin@houstoncollective.com"
)

// EnsureDefaultAdmin seeds the default admin account on an empty user table
// so a fresh installation can be logged into at all.
func EnsureDefaultAdmin(ctx context.Context, users ports.UserRepository, log zerolog.Logger) error {
	n, err := users.Count(ctx)
	if err != nil {
		return fmt.Errorf("count users: %w", err)
	}
	if n > 0 {
		return nil
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(defaultAdminPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash default password: %w", err)
	}

	_, err = users.Create(ctx, &domain.User{
		Username:     defaultAdminUsername,
		PasswordHash: string(hash),
		Email:        defaultAdminEmail,
		Role:         domain.RoleAdmin,
		FullName:     "System Administrator",
		IsActive:     true,
		CreatedDate:  time.Now().UTC(),
	})
	if err != nil {
		return fmt.Errorf("create default admin: %w", err)
	}

	log.Warn().Msg("default admin account created, change its password after first login")
	return nil
}
