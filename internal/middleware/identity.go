package middleware

// identity.go holds helpers shared by the middleware files for identifying
// the caller of a request.

import (
	"fmt"

	"github.com/labstack/echo/v4"
)

// currentUserID returns a string form of the authenticated user id stored by
// JWTAuth, or "anon" for unauthenticated requests. JWT numeric claims decode
// as float64, so the value is normalised through fmt.
func currentUserID(c echo.Context) string {
	v := c.Get("user_id")
	if v == nil {
		return "anon"
	}
	switch t := v.(type) {
	case string:
		if t != "" {
			return t
		}
	case float64:
		return fmt.Sprintf("%.0f", t)
	case uint64:
		return fmt.Sprintf("%d", t)
	}
	return "anon"
}
