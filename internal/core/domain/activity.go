package domain

import "time"

// Audited action tags written by the auth flows. Other components reuse the
// same activity contract with their own free-form tags.
const (
	ActionLoginSuccess    = "login_success"
	ActionLoginFailed     = "login_failed"
	ActionLogout          = "logout"
	ActionUserCreated     = "user_created"
	ActionUserUpdated     = "user_updated"
	ActionUserDeactivated = "user_deactivated"
	ActionUserUnlocked    = "user_unlocked"
)

// ActivityEntry is one append-only audit record. UserID is nil when the
// action could not be attributed to a known account, e.g. a failed login
// for an unknown username.
type ActivityEntry struct {
	ID        int64     `json:"id"`
	UserID    *int64    `json:"user_id,omitempty"`
	Action    string    `json:"action"`
	Details   string    `json:"details,omitempty"`
	IPAddress string    `json:"ip_address"`
	UserAgent string    `json:"user_agent"`
	Timestamp time.Time `json:"timestamp"`
}
