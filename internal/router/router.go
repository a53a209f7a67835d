package router // package router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4" // Echo web framework used for routing

	"github.com/curconv/auth-service/internal/auth"       // token verification for protected routes
	"github.com/curconv/auth-service/internal/handler"    // handlers that implement the endpoints
	"github.com/curconv/auth-service/internal/middleware" // JWT authentication and role enforcement
	"github.com/curconv/auth-service/internal/model"      // role names for admin guards
)

// RegisterRoutes registers routes that do not require authentication on the
// provided Echo instance.  Currently it exposes only a health check.
func RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", handler.Health)
}

// RegisterAuth registers all authentication‑related routes and applies the
// necessary middleware.  Unauthenticated operations live under /v1/auth,
// while protected endpoints live under /v1.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, signer *auth.TokenSigner) {
	// Operations that do not require an existing session.
	g := e.Group("/v1/auth")
	g.POST("/register", a.Register)
	g.POST("/login", a.Login)
	// Refresh rotates the presented refresh token: the old token is revoked
	// and a new access/refresh pair is returned.
	g.POST("/refresh", a.Refresh)
	// Logout revokes every active refresh token of the authenticated user,
	// so it requires a valid access token.
	g.POST("/logout", a.Logout, middleware.JWTAuth(signer))

	// Protected endpoints.
	p := e.Group("/v1", middleware.JWTAuth(signer))
	p.GET("/me", a.Me)
}

// RegisterAdmin registers account administration routes.  All of them
// require an access token carrying the Admin role.
func RegisterAdmin(e *echo.Echo, a *handler.AdminHandler, signer *auth.TokenSigner) {
	g := e.Group("/v1/admin", middleware.JWTAuth(signer), middleware.RequireRole(model.RoleAdmin))
	g.POST("/users/:id/activate", a.ActivateUser)
	g.POST("/users/:id/deactivate", a.DeactivateUser)
}
