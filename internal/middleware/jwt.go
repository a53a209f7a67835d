package middleware // declare the middleware package; contains reusable HTTP middleware functions

import (
    "net/http" // HTTP status codes for responses
    "strings"  // string utilities for prefix checking and trimming

    "github.com/labstack/echo/v4" // Echo framework used for defining middleware and handlers

    "github.com/curconv/auth-service/internal/auth" // token verification
)

// JWTAuth returns an Echo middleware that validates a Bearer access token and
// injects the verified claims into the request context.  Verification is
// delegated to the TokenSigner, which checks the signature, issuer, audience
// and expiry.  This middleware should wrap protected routes so that handlers
// can access authenticated user information via `c.Get("user_id")`,
// `c.Get("email")`, `c.Get("username")` and `c.Get("roles")`.
func JWTAuth(signer *auth.TokenSigner) echo.MiddlewareFunc {
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            // Read the Authorization header.  A valid header starts with
            // "Bearer " followed by the JWT.
            header := c.Request().Header.Get("Authorization")
            if !strings.HasPrefix(header, "Bearer ") {
                return c.JSON(http.StatusUnauthorized, echo.Map{"error": "missing bearer token"})
            }
            raw := strings.TrimPrefix(header, "Bearer ")

            // Verify the token.  The signer reports every failure as the
            // same generic error, so nothing about the validation internals
            // reaches the client.
            claims, err := signer.Verify(raw)
            if err != nil {
                return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid token"})
            }

            // Store the claims in the context for handlers and downstream
            // middleware.
            c.Set("user_id", claims.UserID)
            c.Set("email", claims.Email)
            c.Set("username", claims.Username)
            c.Set("roles", claims.Roles)
            return next(c)
        }
    }
}
