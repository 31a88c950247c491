package service

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/houstoncollective/streamadmin/internal/core/domain"
)

var testRC = domain.RequestContext{IP: "203.0.113.10", UserAgent: "panel-test"}

type stubUserRepo struct {
	users  map[int64]*domain.User
	nextID int64
	err    error // when set, every method fails with it
}

func newStubUserRepo() *stubUserRepo {
	return &stubUserRepo{users: make(map[int64]*domain.User), nextID: 1}
}

func (r *stubUserRepo) add(u *domain.User) *domain.User {
	clone := *u
	clone.ID = r.nextID
	r.nextID++
	r.users[clone.ID] = &clone
	return &clone
}

func (r *stubUserRepo) FindActiveByUsername(_ context.Context, username string) (*domain.User, error) {
	if r.err != nil {
		return nil, r.err
	}
	for _, u := range r.users {
		if u.Username == username && u.IsActive {
			clone := *u
			return &clone, nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (r *stubUserRepo) FindByID(_ context.Context, id int64) (*domain.User, error) {
	if r.err != nil {
		return nil, r.err
	}
	u, ok := r.users[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	clone := *u
	return &clone, nil
}

func (r *stubUserRepo) List(_ context.Context) ([]*domain.User, error) {
	if r.err != nil {
		return nil, r.err
	}
	var out []*domain.User
	for _, u := range r.users {
		clone := *u
		out = append(out, &clone)
	}
	return out, nil
}

func (r *stubUserRepo) Count(_ context.Context) (int64, error) {
	if r.err != nil {
		return 0, r.err
	}
	return int64(len(r.users)), nil
}

func (r *stubUserRepo) Create(_ context.Context, u *domain.User) (*domain.User, error) {
	if r.err != nil {
		return nil, r.err
	}
	for _, existing := range r.users {
		if existing.Username == u.Username || existing.Email == u.Email {
			return nil, domain.ErrUserExists
		}
	}
	created := r.add(u)
	clone := *created
	return &clone, nil
}

func (r *stubUserRepo) Update(_ context.Context, u *domain.User) error {
	if r.err != nil {
		return r.err
	}
	if _, ok := r.users[u.ID]; !ok {
		return domain.ErrUserNotFound
	}
	clone := *u
	r.users[u.ID] = &clone
	return nil
}

func (r *stubUserRepo) SetActive(_ context.Context, id int64, active bool) error {
	if r.err != nil {
		return r.err
	}
	u, ok := r.users[id]
	if !ok {
		return domain.ErrUserNotFound
	}
	u.IsActive = active
	return nil
}

func (r *stubUserRepo) ResetLoginState(_ context.Context, id int64, lastLogin time.Time) error {
	if r.err != nil {
		return r.err
	}
	u, ok := r.users[id]
	if !ok {
		return domain.ErrUserNotFound
	}
	u.LoginAttempts = 0
	u.LockedUntil = nil
	ll := lastLogin
	u.LastLogin = &ll
	return nil
}

func (r *stubUserRepo) RecordLoginFailure(_ context.Context, id int64, threshold int, lockedUntil time.Time) (int, error) {
	if r.err != nil {
		return 0, r.err
	}
	u, ok := r.users[id]
	if !ok {
		return 0, domain.ErrUserNotFound
	}
	u.LoginAttempts++
	if u.LoginAttempts >= threshold {
		lu := lockedUntil
		u.LockedUntil = &lu
	}
	return u.LoginAttempts, nil
}

func (r *stubUserRepo) Unlock(_ context.Context, id int64) error {
	if r.err != nil {
		return r.err
	}
	u, ok := r.users[id]
	if !ok {
		return domain.ErrUserNotFound
	}
	u.LoginAttempts = 0
	u.LockedUntil = nil
	return nil
}

type stubSessionRepo struct {
	sessions map[string]*domain.Session
	nextID   int64
	touchErr error
}

func newStubSessionRepo() *stubSessionRepo {
	return &stubSessionRepo{sessions: make(map[string]*domain.Session), nextID: 1}
}

func (r *stubSessionRepo) Create(_ context.Context, s *domain.Session) (*domain.Session, error) {
	if _, exists := r.sessions[s.Token]; exists {
		return nil, fmt.Errorf("duplicate token")
	}
	clone := *s
	clone.ID = r.nextID
	r.nextID++
	r.sessions[clone.Token] = &clone
	out := clone
	return &out, nil
}

func (r *stubSessionRepo) FindByToken(_ context.Context, token string) (*domain.Session, error) {
	s, ok := r.sessions[token]
	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	clone := *s
	return &clone, nil
}

func (r *stubSessionRepo) TouchActivity(_ context.Context, token string, at time.Time) error {
	if r.touchErr != nil {
		return r.touchErr
	}
	if s, ok := r.sessions[token]; ok {
		s.LastActivity = at
	}
	return nil
}

func (r *stubSessionRepo) Deactivate(_ context.Context, token string) error {
	if s, ok := r.sessions[token]; ok {
		s.IsActive = false
	}
	return nil
}

func (r *stubSessionRepo) DeleteExpiredBefore(_ context.Context, cutoff time.Time) (int64, error) {
	var n int64
	for token, s := range r.sessions {
		if s.ExpiresAt.Before(cutoff) {
			delete(r.sessions, token)
			n++
		}
	}
	return n, nil
}

// stubAudit records synchronously so tests can assert on entries.
type stubAudit struct {
	entries []*domain.ActivityEntry
}

func (a *stubAudit) Record(entry *domain.ActivityEntry) {
	a.entries = append(a.entries, entry)
}

func (a *stubAudit) byAction(action string) []*domain.ActivityEntry {
	var out []*domain.ActivityEntry
	for _, e := range a.entries {
		if e.Action == action {
			out = append(out, e)
		}
	}
	return out
}

type authFixture struct {
	svc      *AuthService
	users    *stubUserRepo
	sessions *stubSessionRepo
	audit    *stubAudit
	now      time.Time
}

func newAuthFixture(t *testing.T) *authFixture {
	t.Helper()
	f := &authFixture{
		users:    newStubUserRepo(),
		sessions: newStubSessionRepo(),
		audit:    &stubAudit{},
		now:      time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
	}
	f.svc = NewAuthService(f.users, f.sessions, f.audit, zerolog.Nop())
	f.svc.now = func() time.Time { return f.now }
	return f
}

func (f *authFixture) addUser(t *testing.T, username, password string, role domain.Role, active bool) *domain.User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	return f.users.add(&domain.User{
		Username:     username,
		PasswordHash: string(hash),
		Email:        username + "@example.com",
		Role:         role,
		IsActive:     active,
		CreatedDate:  f.now.Add(-24 * time.Hour),
	})
}

func TestLogin_Success(t *testing.T) {
	f := newAuthFixture(t)
	alice := f.addUser(t, "alice", "sunset42", domain.RoleViewer, true)

	result, err := f.svc.Login(context.Background(), testRC, "alice", "sunset42", false)
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}
	if result.User.ID != alice.ID {
		t.Fatalf("unexpected user: %+v", result.User)
	}

	sess := result.Session
	if sess == nil || sess.Token == "" {
		t.Fatalf("expected a session, got %+v", sess)
	}
	if len(sess.Token) != 64 {
		t.Fatalf("expected 64 hex chars of token, got %d", len(sess.Token))
	}
	if want := f.now.Add(24 * time.Hour); !sess.ExpiresAt.Equal(want) {
		t.Fatalf("expected expiry %v, got %v", want, sess.ExpiresAt)
	}
	if sess.IPAddress != testRC.IP || sess.UserAgent != testRC.UserAgent {
		t.Fatalf("request context not recorded on session: %+v", sess)
	}

	stored := f.users.users[alice.ID]
	if stored.LoginAttempts != 0 || stored.LockedUntil != nil {
		t.Fatalf("login state not reset: %+v", stored)
	}
	if stored.LastLogin == nil || !stored.LastLogin.Equal(f.now) {
		t.Fatalf("last_login not stamped: %v", stored.LastLogin)
	}

	successes := f.audit.byAction(domain.ActionLoginSuccess)
	if len(successes) != 1 {
		t.Fatalf("expected one login_success entry, got %d", len(successes))
	}
	if successes[0].UserID == nil || *successes[0].UserID != alice.ID {
		t.Fatalf("login_success not attributed to alice: %+v", successes[0])
	}
	if len(f.audit.entries) != 1 {
		t.Fatalf("expected exactly one audit write, got %d", len(f.audit.entries))
	}
}

func TestLogin_RememberExtendsExpiry(t *testing.T) {
	f := newAuthFixture(t)
	f.addUser(t, "alice", "sunset42", domain.RoleViewer, true)

	result, err := f.svc.Login(context.Background(), testRC, "alice", "sunset42", true)
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}
	if want := f.now.Add(30 * 24 * time.Hour); !result.Session.ExpiresAt.Equal(want) {
		t.Fatalf("expected remember expiry %v, got %v", want, result.Session.ExpiresAt)
	}
}

func TestLogin_UnknownUser(t *testing.T) {
	f := newAuthFixture(t)

	_, err := f.svc.Login(context.Background(), testRC, "ghost", "whatever", false)
	if !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}

	failed := f.audit.byAction(domain.ActionLoginFailed)
	if len(failed) != 1 {
		t.Fatalf("expected one login_failed entry, got %d", len(failed))
	}
	if failed[0].UserID != nil {
		t.Fatalf("unknown-user failure must not carry a user id: %+v", failed[0])
	}
}

// Unknown usernames and wrong passwords must be indistinguishable by result
// so accounts cannot be enumerated.
func TestLogin_NoEnumeration(t *testing.T) {
	f := newAuthFixture(t)
	f.addUser(t, "alice", "sunset42", domain.RoleViewer, true)

	_, unknownErr := f.svc.Login(context.Background(), testRC, "ghost", "sunset42", false)
	_, wrongPassErr := f.svc.Login(context.Background(), testRC, "alice", "not-the-password", false)

	if !errors.Is(unknownErr, domain.ErrInvalidCredentials) || !errors.Is(wrongPassErr, domain.ErrInvalidCredentials) {
		t.Fatalf("expected identical failures, got %v and %v", unknownErr, wrongPassErr)
	}
}

// An inactive account behaves exactly like an unknown one.
func TestLogin_InactiveUser(t *testing.T) {
	f := newAuthFixture(t)
	f.addUser(t, "carol", "sunset42", domain.RoleEditor, false)

	_, err := f.svc.Login(context.Background(), testRC, "carol", "sunset42", false)
	if !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
	if failed := f.audit.byAction(domain.ActionLoginFailed); len(failed) != 1 || failed[0].UserID != nil {
		t.Fatalf("inactive-user failure should log with nil user id: %+v", failed)
	}
}

func TestLogin_LockoutAfterFiveFailures(t *testing.T) {
	f := newAuthFixture(t)
	bob := f.addUser(t, "bob", "correct-horse", domain.RoleEditor, true)

	for i := 0; i < 5; i++ {
		if _, err := f.svc.Login(context.Background(), testRC, "bob", "wrong", false); !errors.Is(err, domain.ErrInvalidCredentials) {
			t.Fatalf("attempt %d: expected ErrInvalidCredentials, got %v", i+1, err)
		}
	}

	stored := f.users.users[bob.ID]
	if stored.LoginAttempts != 5 {
		t.Fatalf("expected 5 attempts recorded, got %d", stored.LoginAttempts)
	}
	if stored.LockedUntil == nil || !stored.LockedUntil.Equal(f.now.Add(15*time.Minute)) {
		t.Fatalf("expected lockout until %v, got %v", f.now.Add(15*time.Minute), stored.LockedUntil)
	}

	// Sixth attempt with the correct password still fails with the lockout
	// outcome and must not create a session or bump the counter.
	_, err := f.svc.Login(context.Background(), testRC, "bob", "correct-horse", false)
	if !errors.Is(err, domain.ErrAccountLocked) {
		t.Fatalf("expected ErrAccountLocked, got %v", err)
	}
	if len(f.sessions.sessions) != 0 {
		t.Fatalf("no session may be created while locked")
	}
	if stored.LoginAttempts != 5 {
		t.Fatalf("locked attempt must not increment counter, got %d", stored.LoginAttempts)
	}
}

func TestLogin_LockoutExpires(t *testing.T) {
	f := newAuthFixture(t)
	bob := f.addUser(t, "bob", "correct-horse", domain.RoleEditor, true)

	for i := 0; i < 5; i++ {
		_, _ = f.svc.Login(context.Background(), testRC, "bob", "wrong", false)
	}

	// Past the lockout window the correct password works and the counter
	// and lock clear.
	f.now = f.now.Add(16 * time.Minute)
	result, err := f.svc.Login(context.Background(), testRC, "bob", "correct-horse", false)
	if err != nil {
		t.Fatalf("expected login to succeed after lockout expiry: %v", err)
	}
	if result.Session == nil {
		t.Fatalf("expected a session")
	}

	stored := f.users.users[bob.ID]
	if stored.LoginAttempts != 0 || stored.LockedUntil != nil {
		t.Fatalf("success must reset lockout state: %+v", stored)
	}
}

func TestLogin_SuccessResetsPriorFailures(t *testing.T) {
	f := newAuthFixture(t)
	alice := f.addUser(t, "alice", "sunset42", domain.RoleViewer, true)
	f.users.users[alice.ID].LoginAttempts = 3

	if _, err := f.svc.Login(context.Background(), testRC, "alice", "sunset42", false); err != nil {
		t.Fatalf("login failed: %v", err)
	}
	if got := f.users.users[alice.ID].LoginAttempts; got != 0 {
		t.Fatalf("expected attempts reset to 0, got %d", got)
	}
}

func TestLogin_StorageFault(t *testing.T) {
	f := newAuthFixture(t)
	f.users.err = errors.New("database is locked")

	_, err := f.svc.Login(context.Background(), testRC, "alice", "sunset42", false)
	if err == nil {
		t.Fatalf("expected a system error")
	}
	if errors.Is(err, domain.ErrInvalidCredentials) || errors.Is(err, domain.ErrAccountLocked) {
		t.Fatalf("storage fault must not masquerade as an auth failure: %v", err)
	}
}

func TestLogin_TokensAreUnique(t *testing.T) {
	f := newAuthFixture(t)
	f.addUser(t, "alice", "sunset42", domain.RoleViewer, true)

	first, err := f.svc.Login(context.Background(), testRC, "alice", "sunset42", false)
	if err != nil {
		t.Fatalf("first login: %v", err)
	}
	second, err := f.svc.Login(context.Background(), testRC, "alice", "sunset42", false)
	if err != nil {
		t.Fatalf("second login: %v", err)
	}
	if first.Session.Token == second.Session.Token {
		t.Fatalf("tokens must be unique per session")
	}
	// Concurrent sessions per user are permitted.
	if len(f.sessions.sessions) != 2 {
		t.Fatalf("expected two live sessions, got %d", len(f.sessions.sessions))
	}
}

func TestValidateSession_Valid(t *testing.T) {
	f := newAuthFixture(t)
	alice := f.addUser(t, "alice", "sunset42", domain.RoleViewer, true)
	result, err := f.svc.Login(context.Background(), testRC, "alice", "sunset42", false)
	if err != nil {
		t.Fatalf("login: %v", err)
	}

	f.now = f.now.Add(time.Hour)
	ac, err := f.svc.ValidateSession(context.Background(), result.Session.Token)
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if ac.User.ID != alice.ID {
		t.Fatalf("unexpected user: %+v", ac.User)
	}
	if got := f.sessions.sessions[result.Session.Token].LastActivity; !got.Equal(f.now) {
		t.Fatalf("last_activity not bumped: %v", got)
	}
}

func TestValidateSession_InvalidShapes(t *testing.T) {
	f := newAuthFixture(t)
	carol := f.addUser(t, "carol", "sunset42", domain.RoleEditor, true)
	result, err := f.svc.Login(context.Background(), testRC, "carol", "sunset42", false)
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	token := result.Session.Token

	t.Run("unknown token", func(t *testing.T) {
		if _, err := f.svc.ValidateSession(context.Background(), "never-issued"); !errors.Is(err, domain.ErrSessionInvalid) {
			t.Fatalf("expected ErrSessionInvalid, got %v", err)
		}
	})

	t.Run("empty token", func(t *testing.T) {
		if _, err := f.svc.ValidateSession(context.Background(), ""); !errors.Is(err, domain.ErrSessionInvalid) {
			t.Fatalf("expected ErrSessionInvalid, got %v", err)
		}
	})

	t.Run("deactivated session", func(t *testing.T) {
		f.sessions.sessions[token].IsActive = false
		defer func() { f.sessions.sessions[token].IsActive = true }()
		if _, err := f.svc.ValidateSession(context.Background(), token); !errors.Is(err, domain.ErrSessionInvalid) {
			t.Fatalf("expected ErrSessionInvalid, got %v", err)
		}
	})

	t.Run("expired session", func(t *testing.T) {
		f.now = f.now.Add(25 * time.Hour)
		defer func() { f.now = f.now.Add(-25 * time.Hour) }()
		if _, err := f.svc.ValidateSession(context.Background(), token); !errors.Is(err, domain.ErrSessionInvalid) {
			t.Fatalf("expected ErrSessionInvalid, got %v", err)
		}
	})

	t.Run("deactivated user", func(t *testing.T) {
		// The session row itself is still active and unexpired.
		f.users.users[carol.ID].IsActive = false
		defer func() { f.users.users[carol.ID].IsActive = true }()
		if _, err := f.svc.ValidateSession(context.Background(), token); !errors.Is(err, domain.ErrSessionInvalid) {
			t.Fatalf("expected ErrSessionInvalid, got %v", err)
		}
	})
}

func TestValidateSession_TouchFailureDoesNotInvalidate(t *testing.T) {
	f := newAuthFixture(t)
	f.addUser(t, "alice", "sunset42", domain.RoleViewer, true)
	result, err := f.svc.Login(context.Background(), testRC, "alice", "sunset42", false)
	if err != nil {
		t.Fatalf("login: %v", err)
	}

	f.sessions.touchErr = errors.New("disk full")
	if _, err := f.svc.ValidateSession(context.Background(), result.Session.Token); err != nil {
		t.Fatalf("touch failure must not invalidate the session: %v", err)
	}
}

func TestLogout_InvalidatesSession(t *testing.T) {
	f := newAuthFixture(t)
	alice := f.addUser(t, "alice", "sunset42", domain.RoleViewer, true)
	result, err := f.svc.Login(context.Background(), testRC, "alice", "sunset42", false)
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	token := result.Session.Token

	if err := f.svc.Logout(context.Background(), testRC, token); err != nil {
		t.Fatalf("logout: %v", err)
	}
	if _, err := f.svc.ValidateSession(context.Background(), token); !errors.Is(err, domain.ErrSessionInvalid) {
		t.Fatalf("expected session invalid after logout, got %v", err)
	}

	logouts := f.audit.byAction(domain.ActionLogout)
	if len(logouts) != 1 || logouts[0].UserID == nil || *logouts[0].UserID != alice.ID {
		t.Fatalf("expected one logout entry for alice, got %+v", logouts)
	}
}

func TestLogout_Idempotent(t *testing.T) {
	f := newAuthFixture(t)

	if err := f.svc.Logout(context.Background(), testRC, ""); err != nil {
		t.Fatalf("logout with no token must be a no-op: %v", err)
	}
	if err := f.svc.Logout(context.Background(), testRC, "never-issued"); err != nil {
		t.Fatalf("logout with unknown token must be a no-op: %v", err)
	}
	if len(f.audit.entries) != 0 {
		t.Fatalf("no-op logout must not audit, got %d entries", len(f.audit.entries))
	}
}

func TestAuthContext_HasRole(t *testing.T) {
	editor := &domain.AuthContext{User: &domain.User{Role: domain.RoleEditor}}

	cases := []struct {
		required domain.Role
		want     bool
	}{
		{domain.RoleGuest, true},
		{domain.RoleViewer, true},
		{domain.RoleEditor, true},
		{domain.RoleAdmin, false},
	}
	for _, tc := range cases {
		if got := editor.HasRole(tc.required); got != tc.want {
			t.Fatalf("editor.HasRole(%s) = %v, want %v", tc.required, got, tc.want)
		}
	}

	// A logged-out caller satisfies nothing, including an unrecognised role
	// whose level maps to 0.
	var anon *domain.AuthContext
	for _, required := range []domain.Role{domain.RoleGuest, domain.RoleViewer, domain.RoleAdmin, domain.Role("superuser")} {
		if anon.HasRole(required) {
			t.Fatalf("logged-out caller must not satisfy %q", required)
		}
	}

	// An unknown role on the user itself ranks below guest.
	odd := &domain.AuthContext{User: &domain.User{Role: domain.Role("superuser")}}
	if odd.HasRole(domain.RoleGuest) {
		t.Fatalf("unknown user role must not satisfy guest")
	}
	if !odd.HasRole(domain.Role("another-unknown")) {
		t.Fatalf("unknown required role (level 0) is satisfied by any logged-in user")
	}
}
