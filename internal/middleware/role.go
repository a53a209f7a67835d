package middleware // middleware provides shared request processing for handlers

import (
    "net/http" // http package defines standard HTTP status codes

    "github.com/labstack/echo/v4" // echo provides middleware chaining and context
)

// RequireRole returns a middleware function that enforces that the
// authenticated user holds at least one of the specified roles.  The
// roles correspond to the values carried in the access token's roles
// claim.  If none of the user's roles are in the allowed set, the
// request is aborted with a 403 Forbidden response.  It assumes a
// previous middleware has stored the role set in the context under
// the key "roles".
func RequireRole(roles ...string) echo.MiddlewareFunc {
    // Build a set of allowed roles for constant‑time lookups.
    allowed := make(map[string]bool, len(roles))
    for _, r := range roles {
        allowed[r] = true
    }
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            held, ok := c.Get("roles").([]string)
            if !ok {
                return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
            }
            for _, r := range held {
                if allowed[r] {
                    return next(c)
                }
            }
            return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
        }
    }
}
