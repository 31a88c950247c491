package domain

import "time"

// Role is the coarse authorization level of a user. Roles form a fixed total
// order; there is no finer-grained ACL in this system.
type Role string

const (
	RoleGuest  Role = "guest"
	RoleViewer Role = "viewer"
	RoleEditor Role = "editor"
	RoleAdmin  Role = "admin"
)

// roleLevels maps each role to its ordinal. Unknown roles map to 0 and
// therefore satisfy nothing.
var roleLevels = map[Role]int{
	RoleGuest:  1,
	RoleViewer: 2,
	RoleEditor: 3,
	RoleAdmin:  4,
}

// Level returns the numeric rank of the role, 0 if unrecognised.
func (r Role) Level() int {
	return roleLevels[r]
}

// Valid reports whether r is one of the defined roles.
func (r Role) Valid() bool {
	return roleLevels[r] > 0
}

// User models an operator account of the admin panel.
type User struct {
	ID            int64      `json:"id"`
	Username      string     `json:"username"`
	PasswordHash  string     `json:"-"`
	Email         string     `json:"email"`
	Role          Role       `json:"role"`
	FullName      string     `json:"full_name,omitempty"`
	IsActive      bool       `json:"is_active"`
	CreatedDate   time.Time  `json:"created_date"`
	LastLogin     *time.Time `json:"last_login,omitempty"`
	LoginAttempts int        `json:"login_attempts"`
	LockedUntil   *time.Time `json:"locked_until,omitempty"`
}

// Locked reports whether the account is inside a lockout window at now.
func (u *User) Locked(now time.Time) bool {
	return u.LockedUntil != nil && now.Before(*u.LockedUntil)
}
