package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/houstoncollective/streamadmin/internal/core/domain"
	"github.com/houstoncollective/streamadmin/internal/core/ports"
)

// Lockout and session policy. The threshold and window mirror the panel's
// long-standing behavior and are not operator-configurable.
const (
	maxLoginAttempts = 5
	lockoutDuration  = 15 * time.Minute

	sessionTTL  = 24 * time.Hour
	rememberTTL = 30 * 24 * time.Hour

	tokenBytes = 32 // 256 bits of entropy, hex-encoded
)

// AuthService implements credential verification, session lifecycle and
// role checks over the relational store.
type AuthService struct {
	users    ports.UserRepository
	sessions ports.SessionRepository
	audit    ports.ActivityLog
	log      zerolog.Logger
	now      func() time.Time
}

func NewAuthService(users ports.UserRepository, sessions ports.SessionRepository, audit ports.ActivityLog, log zerolog.Logger) *AuthService {
	return &AuthService{
		users:    users,
		sessions: sessions,
		audit:    audit,
		log:      log,
		now:      time.Now,
	}
}

// Login verifies the supplied credentials against the active user with that
// exact username. Unknown usernames and wrong passwords both come back as
// ErrInvalidCredentials so callers cannot enumerate accounts by message.
// Exactly one audit entry is written per call.
func (s *AuthService) Login(ctx context.Context, rc domain.RequestContext, username, password string, remember bool) (*domain.LoginResult, error) {
	now := s.now().UTC()

	user, err := s.users.FindActiveByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			s.logActivity(nil, domain.ActionLoginFailed, fmt.Sprintf("failed login attempt for username: %s", username), rc)
			return nil, domain.ErrInvalidCredentials
		}
		return nil, fmt.Errorf("look up user: %w", err)
	}

	// Lockout is checked before password verification and does not
	// increment the attempt counter further.
	if user.Locked(now) {
		s.logActivity(&user.ID, domain.ActionLoginFailed, "login attempt on locked account", rc)
		return nil, domain.ErrAccountLocked
	}

	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		attempts, err := s.users.RecordLoginFailure(ctx, user.ID, maxLoginAttempts, now.Add(lockoutDuration))
		if err != nil {
			return nil, fmt.Errorf("record login failure: %w", err)
		}
		if attempts >= maxLoginAttempts {
			s.log.Warn().Str("username", user.Username).Int("attempts", attempts).Msg("account locked after repeated failures")
		}
		s.logActivity(&user.ID, domain.ActionLoginFailed, "failed password attempt", rc)
		return nil, domain.ErrInvalidCredentials
	}

	if err := s.users.ResetLoginState(ctx, user.ID, now); err != nil {
		return nil, fmt.Errorf("reset login state: %w", err)
	}
	user.LoginAttempts = 0
	user.LockedUntil = nil
	user.LastLogin = &now

	session, err := s.issueSession(ctx, user.ID, remember, rc, now)
	if err != nil {
		return nil, fmt.Errorf("issue session: %w", err)
	}

	s.logActivity(&user.ID, domain.ActionLoginSuccess, "successful login", rc)
	return &domain.LoginResult{User: user, Session: session}, nil
}

// issueSession creates a session row with a fresh high-entropy token. The
// remember flag selects the extended expiry.
func (s *AuthService) issueSession(ctx context.Context, userID int64, remember bool, rc domain.RequestContext, now time.Time) (*domain.Session, error) {
	token, err := newSessionToken()
	if err != nil {
		return nil, err
	}

	ttl := sessionTTL
	if remember {
		ttl = rememberTTL
	}

	return s.sessions.Create(ctx, &domain.Session{
		UserID:       userID,
		Token:        token,
		IPAddress:    rc.IP,
		UserAgent:    rc.UserAgent,
		CreatedDate:  now,
		LastActivity: now,
		ExpiresAt:    now.Add(ttl),
		IsActive:     true,
	})
}

// ValidateSession resolves a token to an authenticated context. The checks
// short-circuit in order: token exists, session active, session unexpired,
// owning user active. Any failure is ErrSessionInvalid; validity is never
// cached beyond the request.
func (s *AuthService) ValidateSession(ctx context.Context, token string) (*domain.AuthContext, error) {
	if token == "" {
		return nil, domain.ErrSessionInvalid
	}
	now := s.now().UTC()

	session, err := s.sessions.FindByToken(ctx, token)
	if err != nil {
		if errors.Is(err, domain.ErrSessionNotFound) {
			return nil, domain.ErrSessionInvalid
		}
		return nil, fmt.Errorf("look up session: %w", err)
	}
	if !session.IsActive || session.Expired(now) {
		return nil, domain.ErrSessionInvalid
	}

	user, err := s.users.FindByID(ctx, session.UserID)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, domain.ErrSessionInvalid
		}
		return nil, fmt.Errorf("look up session user: %w", err)
	}
	if !user.IsActive {
		return nil, domain.ErrSessionInvalid
	}

	// Best-effort: a failed activity bump must not invalidate the session
	// for this request.
	if err := s.sessions.TouchActivity(ctx, token, now); err != nil {
		s.log.Warn().Err(err).Msg("session activity update failed")
	}

	return &domain.AuthContext{User: user, Session: session}, nil
}

// Logout deactivates the session behind token and audits it against the
// owning user. Unknown or already-inactive tokens are a no-op.
func (s *AuthService) Logout(ctx context.Context, rc domain.RequestContext, token string) error {
	if token == "" {
		return nil
	}

	session, err := s.sessions.FindByToken(ctx, token)
	if err != nil {
		if errors.Is(err, domain.ErrSessionNotFound) {
			return nil
		}
		return fmt.Errorf("look up session: %w", err)
	}
	if !session.IsActive {
		return nil
	}

	if err := s.sessions.Deactivate(ctx, token); err != nil {
		return fmt.Errorf("deactivate session: %w", err)
	}

	s.logActivity(&session.UserID, domain.ActionLogout, "user logged out", rc)
	return nil
}

// logActivity appends an audit entry through the fire-and-forget recorder.
func (s *AuthService) logActivity(userID *int64, action, details string, rc domain.RequestContext) {
	s.audit.Record(&domain.ActivityEntry{
		UserID:    userID,
		Action:    action,
		Details:   details,
		IPAddress: rc.IP,
		UserAgent: rc.UserAgent,
		Timestamp: s.now().UTC(),
	})
}

// newSessionToken returns a hex-encoded 256-bit random token.
func newSessionToken() (string, error) {
	buf := make([]byte, tokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate session token: %w", err)
	}
	return hex.EncodeToString(buf), nil
}
