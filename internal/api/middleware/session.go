package middleware

import (
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/houstoncollective/streamadmin/internal/api/metrics"
	"github.com/houstoncollective/streamadmin/internal/core/domain"
	"github.com/houstoncollective/streamadmin/internal/core/ports"
)

const (
	// SessionCookieName carries the token for the current browsing session.
	// No Max-Age: the browser discards it when the session ends.
	SessionCookieName = "session_token"
	// RememberCookieName is the long-lived remember-me cookie.
	RememberCookieName = "remember_token"

	authContextKey = "auth_context"
)

// Session resolves the incoming session token to an AuthContext and injects
// it into the echo context. Resolution only — it never rejects the request;
// RequireRole enforces access.
func Session(auth ports.AuthService, log zerolog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			token := TokenFromRequest(c)
			if token == "" {
				return next(c)
			}

			ac, err := auth.ValidateSession(c.Request().Context(), token)
			switch {
			case err == nil:
				metrics.SessionValidationsTotal.WithLabelValues("valid").Inc()
				c.Set(authContextKey, ac)
			case errors.Is(err, domain.ErrSessionInvalid):
				metrics.SessionValidationsTotal.WithLabelValues("invalid").Inc()
			default:
				// Storage fault: treat as not logged in, keep the detail
				// out of the response.
				metrics.SessionValidationsTotal.WithLabelValues("invalid").Inc()
				log.Error().Err(err).Msg("session validation failed")
			}

			return next(c)
		}
	}
}

// TokenFromRequest returns the session token carried by the request. The
// browsing-session cookie takes precedence; the remember-me cookie is
// consulted only when no session cookie is present.
func TokenFromRequest(c echo.Context) string {
	if cookie, err := c.Cookie(SessionCookieName); err == nil && cookie.Value != "" {
		return cookie.Value
	}
	if cookie, err := c.Cookie(RememberCookieName); err == nil && cookie.Value != "" {
		return cookie.Value
	}
	return ""
}

// CurrentAuth returns the authenticated context for the request, or nil when
// the caller is not logged in.
func CurrentAuth(c echo.Context) *domain.AuthContext {
	ac, _ := c.Get(authContextKey).(*domain.AuthContext)
	return ac
}

// SetSessionCookies installs the token on the response: always the
// browsing-session cookie, plus the persistent remember-me cookie when
// remember is set. Both are HTTP-only.
func SetSessionCookies(c echo.Context, token string, remember bool, expiresAt time.Time, secure bool) {
	c.SetCookie(&http.Cookie{
		Name:     SessionCookieName,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	})

	if remember {
		c.SetCookie(&http.Cookie{
			Name:     RememberCookieName,
			Value:    token,
			Path:     "/",
			Expires:  expiresAt,
			HttpOnly: true,
			Secure:   secure,
			SameSite: http.SameSiteLaxMode,
		})
	}
}

// ClearSessionCookies expires both cookies on the response.
func ClearSessionCookies(c echo.Context, secure bool) {
	for _, name := range []string{SessionCookieName, RememberCookieName} {
		c.SetCookie(&http.Cookie{
			Name:     name,
			Value:    "",
			Path:     "/",
			MaxAge:   -1,
			HttpOnly: true,
			Secure:   secure,
			SameSite: http.SameSiteLaxMode,
		})
	}
}
