package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/houstoncollective/streamadmin/internal/api/metrics"
	"github.com/houstoncollective/streamadmin/internal/api/middleware"
	"github.com/houstoncollective/streamadmin/internal/core/domain"
	"github.com/houstoncollective/streamadmin/internal/core/ports"
)

// User-safe login messages. Unknown-user and wrong-password share one wording
// so accounts cannot be enumerated; only lockout and system faults differ.
const (
	msgInvalidCredentials = "Invalid username or password"
	msgAccountLocked      = "Account temporarily locked. Try again later."
	msgLoginSystemError   = "Login system error"
)

type AuthHandler struct {
	authService  ports.AuthService
	cookieSecure bool
	log          zerolog.Logger
}

func NewAuthHandler(authService ports.AuthService, cookieSecure bool, log zerolog.Logger) *AuthHandler {
	return &AuthHandler{authService: authService, cookieSecure: cookieSecure, log: log}
}

type loginRequest struct {
	Username string `json:"username" form:"username" validate:"required"`
	Password string `json:"password" form:"password" validate:"required"`
	Remember bool   `json:"remember" form:"remember"`
}

type loginResponse struct {
	Success  bool         `json:"success"`
	Message  string       `json:"message,omitempty"`
	User     *domain.User `json:"user,omitempty"`
	Redirect string       `json:"redirect,omitempty"`
}

// Login authenticates the operator and installs the session cookies. The
// panel's login page posts here and follows the returned redirect target.
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, loginResponse{Success: false, Message: "invalid payload"})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, loginResponse{Success: false, Message: err.Error()})
	}

	rc := requestContext(c)
	result, err := h.authService.Login(c.Request().Context(), rc, req.Username, req.Password, req.Remember)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrInvalidCredentials):
			metrics.LoginsTotal.WithLabelValues("invalid_credentials").Inc()
			return c.JSON(http.StatusUnauthorized, loginResponse{Success: false, Message: msgInvalidCredentials})
		case errors.Is(err, domain.ErrAccountLocked):
			metrics.LoginsTotal.WithLabelValues("locked").Inc()
			return c.JSON(http.StatusLocked, loginResponse{Success: false, Message: msgAccountLocked})
		default:
			metrics.LoginsTotal.WithLabelValues("error").Inc()
			h.log.Error().Err(err).Str("ip", rc.IP).Msg("login system fault")
			return c.JSON(http.StatusInternalServerError, loginResponse{Success: false, Message: msgLoginSystemError})
		}
	}

	metrics.LoginsTotal.WithLabelValues("success").Inc()
	middleware.SetSessionCookies(c, result.Session.Token, req.Remember, result.Session.ExpiresAt, h.cookieSecure)

	return c.JSON(http.StatusOK, loginResponse{
		Success:  true,
		User:     result.User,
		Redirect: safeRedirect(c.QueryParam("redirect")),
	})
}

// Logout deactivates the current session and expires both cookies. Calling it
// without a session just clears transport state.
func (h *AuthHandler) Logout(c echo.Context) error {
	token := middleware.TokenFromRequest(c)
	if err := h.authService.Logout(c.Request().Context(), requestContext(c), token); err != nil {
		// Cookie clearing still proceeds; the row expires on its own.
		h.log.Error().Err(err).Msg("logout failed")
	}

	middleware.ClearSessionCookies(c, h.cookieSecure)
	return c.Redirect(http.StatusFound, "/login")
}

// Me returns the authenticated user for the panel header.
func (h *AuthHandler) Me(c echo.Context) error {
	ac := middleware.CurrentAuth(c)
	if ac == nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "not logged in")
	}
	return c.JSON(http.StatusOK, ac.User)
}

// AccessDenied is the landing target for authenticated callers whose role is
// insufficient for the page they requested.
func AccessDenied(c echo.Context) error {
	return c.JSON(http.StatusForbidden, map[string]string{"error": "access denied"})
}

// safeRedirect keeps post-login redirects on this origin. Anything that is
// not a plain absolute path falls back to the dashboard.
func safeRedirect(target string) string {
	if target == "" || !strings.HasPrefix(target, "/") || strings.HasPrefix(target, "//") {
		return "/"
	}
	return target
}

// requestContext extracts the transport attributes the auth flows record.
func requestContext(c echo.Context) domain.RequestContext {
	return domain.RequestContext{
		IP:        c.RealIP(),
		UserAgent: c.Request().UserAgent(),
	}
}
