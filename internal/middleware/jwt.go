package middleware // declare the middleware package; contains reusable HTTP middleware functions

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/staywizard/internal/authgate"
	"github.com/iliyamo/staywizard/internal/utils"
)

// AccessTokenCookie is the cookie the auth service sets after login.  The
// browser returns from the auth entry point carrying it, so it is read
// when no Authorization header is sent.
const AccessTokenCookie = "access_token"

const identityKey = "identity"

// JWTAuth returns an Echo middleware that requires a valid access token
// and injects the token's subject and role claims into the request
// context as "user_id" and "role".  Requests without a valid token get a
// 401 response.
func JWTAuth(secret string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			raw := bearerToken(c)
			if raw == "" {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "missing bearer token"})
			}
			cl, err := utils.ParseAccessToken(secret, raw)
			if err != nil {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid token"})
			}
			setIdentity(c, cl, raw)
			return next(c)
		}
	}
}

// Authenticate resolves the caller's authentication without rejecting the
// request.  A valid token marks the request Authenticated; a missing or
// invalid one marks it Unauthenticated.  Handlers read the result with
// IdentityFrom.
func Authenticate(secret string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			raw := bearerToken(c)
			if raw == "" {
				c.Set(identityKey, authgate.Identity{State: authgate.Unauthenticated})
				return next(c)
			}
			cl, err := utils.ParseAccessToken(secret, raw)
			if err != nil {
				c.Set(identityKey, authgate.Identity{State: authgate.Unauthenticated})
				return next(c)
			}
			setIdentity(c, cl, raw)
			return next(c)
		}
	}
}

func setIdentity(c echo.Context, cl utils.Claims, raw string) {
	c.Set("user_id", cl.UserID)
	c.Set("role", cl.Role)
	c.Set(identityKey, authgate.Identity{State: authgate.Authenticated, UserID: cl.UserID, Token: raw})
}

// bearerToken reads the Authorization header, then the access token cookie.
func bearerToken(c echo.Context) string {
	if auth := c.Request().Header.Get("Authorization"); strings.HasPrefix(auth, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(auth, "Bearer "))
	}
	if ck, err := c.Cookie(AccessTokenCookie); err == nil {
		return ck.Value
	}
	return ""
}
