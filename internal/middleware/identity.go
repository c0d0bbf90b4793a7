package middleware

// identity.go holds helpers shared by the rate-limit and cache
// middlewares for keying entries per user. JWTAuth stores the numeric
// user id in the context; requests on public routes have none and are
// keyed as "guest".

import (
	"strconv"

	"github.com/labstack/echo/v4"
)

// userID formats the authenticated user's id for use in Redis keys.
// Returns "guest" when the request carries no authenticated identity.
func userID(c echo.Context) string {
	if id, ok := c.Get("user_id").(uint64); ok && id != 0 {
		return strconv.FormatUint(id, 10)
	}
	return "guest"
}
