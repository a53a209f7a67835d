package auth

import (
	"context"
	"time"

	"github.com/curconv/auth-service/internal/model"
)

// UserWithRoles carries a user together with its role names, fetched
// eagerly by the store so the core never issues follow-up queries
// for a decision it has already started making.
type UserWithRoles struct {
	User  *model.User
	Roles []string
}

// Store abstracts persistence for users, roles and refresh tokens.
//
// Implementations must enforce the schema invariants (unique email,
// username, role name and token value) and make RotateRefreshToken a
// single atomic unit: of two concurrent rotations of the same token,
// exactly one may succeed and the other must observe ErrTokenNotActive.
type Store interface {
	// CreateUser inserts a user row. Returns ErrDuplicate when the email or
	// username is already taken.
	CreateUser(ctx context.Context, u *model.User) error

	// UserByEmailOrUsername returns the user matching either value, or
	// ErrNotFound.
	UserByEmailOrUsername(ctx context.Context, email, username string) (*model.User, error)

	// UserByEmail returns the user with that email plus its role names, or
	// ErrNotFound.
	UserByEmail(ctx context.Context, email string) (*UserWithRoles, error)

	// UpdateLastLogin persists a new last_login_at value.
	UpdateLastLogin(ctx context.Context, userID string, at time.Time) error

	// SetUserActive persists the is_active flag. Returns ErrNotFound when no
	// such user exists.
	SetUserActive(ctx context.Context, userID string, active bool) error

	// RoleByName returns the role with that name, or ErrNotFound.
	RoleByName(ctx context.Context, name string) (*model.Role, error)

	// AssignRole inserts a user-role link.
	AssignRole(ctx context.Context, userID, roleID string) error

	// CreateRefreshToken inserts a refresh token row.
	CreateRefreshToken(ctx context.Context, t *model.RefreshToken) error

	// RefreshTokenByValue looks a token up by its opaque value and returns it
	// with the owning user and that user's roles, or ErrNotFound.
	RefreshTokenByValue(ctx context.Context, value string) (*model.RefreshToken, *UserWithRoles, error)

	// RotateRefreshToken persists old's revocation fields and inserts its
	// replacement in one transaction. The revoke write is conditional on the
	// row still being unrevoked; ErrTokenNotActive reports a lost race and
	// nothing is written.
	RotateRefreshToken(ctx context.Context, old, replacement *model.RefreshToken) error

	// RevokeRefreshToken persists a token's revocation fields, conditional on
	// the row still being unrevoked. Returns ErrTokenNotActive otherwise.
	RevokeRefreshToken(ctx context.Context, t *model.RefreshToken) error

	// ActiveRefreshTokensForUser returns the user's tokens that are neither
	// revoked nor expired at the given instant.
	ActiveRefreshTokensForUser(ctx context.Context, userID string, now time.Time) ([]*model.RefreshToken, error)
}
