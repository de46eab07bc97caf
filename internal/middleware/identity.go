package middleware

// identity.go holds the accessors handlers and the other middleware use to
// read what JWTAuth or Authenticate stored in the Echo context.

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/staywizard/internal/authgate"
)

// IdentityFrom returns the identity resolved for this request.  When no
// auth middleware ran the state is AuthUnknown.
func IdentityFrom(c echo.Context) authgate.Identity {
	if id, ok := c.Get(identityKey).(authgate.Identity); ok {
		return id
	}
	return authgate.Identity{State: authgate.AuthUnknown}
}

// currentUserID returns the authenticated user id, or "anon".
func currentUserID(c echo.Context) string {
	if v, ok := c.Get("user_id").(string); ok && v != "" {
		return v
	}
	return "anon"
}
