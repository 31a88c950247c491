package domain

import "time"

// Session is a server-side login session identified by an opaque token.
// A session is usable only while it is active, unexpired, and its owning
// user is active; all three are re-checked on every request.
type Session struct {
	ID           int64     `json:"id"`
	UserID       int64     `json:"user_id"`
	Token        string    `json:"-"`
	IPAddress    string    `json:"ip_address"`
	UserAgent    string    `json:"user_agent"`
	CreatedDate  time.Time `json:"created_date"`
	LastActivity time.Time `json:"last_activity"`
	ExpiresAt    time.Time `json:"expires_at"`
	IsActive     bool      `json:"is_active"`
}

// Expired reports whether the session's expiry has passed at now.
func (s *Session) Expired(now time.Time) bool {
	return !s.ExpiresAt.After(now)
}

// LoginResult is returned by a successful login: the authenticated user plus
// the freshly issued session the transport layer should carry forward.
type LoginResult struct {
	User    *User
	Session *Session
}

// AuthContext is the per-request authenticated identity, built by the session
// middleware from the incoming token and passed explicitly to handlers.
type AuthContext struct {
	User    *User
	Session *Session
}

// HasRole reports whether the context satisfies the required minimum role.
// A nil (logged-out) context satisfies no role, including unknown ones.
func (a *AuthContext) HasRole(min Role) bool {
	if a == nil || a.User == nil {
		return false
	}
	return a.User.Role.Level() >= min.Level()
}

// RequestContext carries the transport attributes of the incoming request
// that auth flows record. It is passed in explicitly, never read from
// ambient state.
type RequestContext struct {
	IP        string
	UserAgent string
}
