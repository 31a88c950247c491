package domain

import "errors"

// Expected auth outcomes are sentinel values, not exceptional conditions.
// Handlers map them to user-safe messages; anything else that escapes the
// service layer is a system fault and is rendered generically.
var (
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrAccountLocked      = errors.New("account temporarily locked")
	ErrSessionInvalid     = errors.New("session invalid")
	ErrUserNotFound       = errors.New("user not found")
	ErrUserExists         = errors.New("user already exists")
	ErrSessionNotFound    = errors.New("session not found")
	ErrInvalidRole        = errors.New("invalid role")
	ErrForbidden          = errors.New("access forbidden")
)
