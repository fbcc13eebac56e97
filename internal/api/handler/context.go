package handler

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
)

// ctxAccountID extracts the subject injected by the Auth middleware and
// fast-fails before any service call: a missing subject proves the
// middleware did not run (or the token carried no identity).
func ctxAccountID(c echo.Context) (string, error) {
	sub, _ := c.Get("sub").(string)
	if sub == "" {
		return "", echo.NewHTTPError(http.StatusUnauthorized, "missing authentication claims")
	}
	return sub, nil
}

// ctxBearerToken pulls the raw bearer token off the request so handlers can
// hand it to the session service for full account resolution.
func ctxBearerToken(c echo.Context) (string, error) {
	authHeader := c.Request().Header.Get("Authorization")
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return "", echo.NewHTTPError(http.StatusUnauthorized, "invalid authorization header")
	}
	return parts[1], nil
}
