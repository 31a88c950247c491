package middleware

import (
	"net/http"
	"net/url"

	"github.com/labstack/echo/v4"

	"github.com/houstoncollective/streamadmin/internal/core/domain"
)

const (
	loginPath        = "/login"
	accessDeniedPath = "/access-denied"
)

// RequireRole gates a route on a minimum role. Not logged in redirects to the
// login page with the original path preserved; logged in with an insufficient
// role redirects to the access-denied page. The two outcomes are deliberately
// distinct and must not be collapsed.
func RequireRole(min domain.Role) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ac := CurrentAuth(c)
			if ac == nil {
				target := loginPath + "?redirect=" + url.QueryEscape(c.Request().RequestURI)
				return c.Redirect(http.StatusFound, target)
			}
			if !ac.HasRole(min) {
				return c.Redirect(http.StatusFound, accessDeniedPath)
			}
			return next(c)
		}
	}
}
