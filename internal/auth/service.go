package auth

import (
	"context"
	"errors"
	"time"

	"github.com/curconv/auth-service/internal/model"
	"github.com/curconv/auth-service/internal/utils"
)

// Session is the result of a successful register, login or refresh:
// the authenticated identity plus a fresh access/refresh token pair.
type Session struct {
	UserID       string
	Username     string
	Email        string
	AccessToken  string
	RefreshToken string
	Roles        []string
}

// RegisterInput carries the fields needed to create an account.
type RegisterInput struct {
	Email     string
	Username  string
	Password  string
	FirstName string
	LastName  string
}

// Service coordinates the four credential use cases: register, login,
// refresh and logout. It is stateless; every dependency is explicit
// and every call is independent per request.
type Service struct {
	store   Store
	signer  *TokenSigner
	refresh *RefreshManager

	now func() time.Time
}

// NewService builds the orchestrator from its collaborators.
func NewService(store Store, signer *TokenSigner, refresh *RefreshManager) *Service {
	return &Service{
		store:   store,
		signer:  signer,
		refresh: refresh,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// Register creates an account, assigns the default User role and
// returns a first session. Fails with ErrDuplicateUser when the email
// or username is taken and with ErrRoleNotConfigured when the role
// catalog was never seeded.
func (s *Service) Register(ctx context.Context, in RegisterInput, clientIP string) (*Session, error) {
	_, err := s.store.UserByEmailOrUsername(ctx, in.Email, in.Username)
	if err == nil {
		return nil, ErrDuplicateUser
	}
	if !errors.Is(err, ErrNotFound) {
		return nil, err
	}

	user, err := model.NewUser(in.Email, in.Username, utils.HashPassword(in.Password), in.FirstName, in.LastName, s.now())
	if err != nil {
		return nil, err
	}
	if err := s.store.CreateUser(ctx, user); err != nil {
		// Lost a race against a concurrent registration for the same identity.
		if errors.Is(err, ErrDuplicate) {
			return nil, ErrDuplicateUser
		}
		return nil, err
	}

	role, err := s.store.RoleByName(ctx, model.RoleUser)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrRoleNotConfigured
		}
		return nil, err
	}
	if err := s.store.AssignRole(ctx, user.ID, role.ID); err != nil {
		return nil, err
	}

	roles := []string{model.RoleUser}
	return s.newSession(ctx, user, roles, clientIP)
}

// Login verifies the credentials and returns a fresh session with the
// user's current role set. An unknown email, a wrong password and a
// deactivated account all fail with the same ErrInvalidCredentials.
func (s *Service) Login(ctx context.Context, email, password, clientIP string) (*Session, error) {
	found, err := s.store.UserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	user := found.User
	if !utils.VerifyPassword(password, user.PasswordHash) {
		return nil, ErrInvalidCredentials
	}
	if !user.IsActive {
		return nil, ErrInvalidCredentials
	}

	user.UpdateLastLogin(s.now())
	if err := s.store.UpdateLastLogin(ctx, user.ID, *user.LastLoginAt); err != nil {
		return nil, err
	}

	return s.newSession(ctx, user, found.Roles, clientIP)
}

// Refresh rotates the presented refresh token and issues a new access
// token from the unchanged role set. Propagates
// ErrInvalidOrExpiredToken from the rotation.
func (s *Service) Refresh(ctx context.Context, refreshToken, clientIP string) (*Session, error) {
	owner, replacement, err := s.refresh.Rotate(ctx, refreshToken, clientIP)
	if err != nil {
		return nil, err
	}

	access, _, err := s.signer.Issue(owner.User.ID, owner.User.Email, owner.User.Username, owner.Roles)
	if err != nil {
		return nil, err
	}
	return &Session{
		UserID:       owner.User.ID,
		Username:     owner.User.Username,
		Email:        owner.User.Email,
		AccessToken:  access,
		RefreshToken: replacement.Token,
		Roles:        owner.Roles,
	}, nil
}

// Logout revokes all of the user's active refresh tokens. Always
// succeeds when there is nothing to revoke.
func (s *Service) Logout(ctx context.Context, userID, clientIP string) error {
	return s.refresh.RevokeAllActiveForUser(ctx, userID, clientIP)
}

// SetUserActive flips the account's active flag (admin operation).
func (s *Service) SetUserActive(ctx context.Context, userID string, active bool) error {
	return s.store.SetUserActive(ctx, userID, active)
}

func (s *Service) newSession(ctx context.Context, user *model.User, roles []string, clientIP string) (*Session, error) {
	access, _, err := s.signer.Issue(user.ID, user.Email, user.Username, roles)
	if err != nil {
		return nil, err
	}
	refresh, err := s.refresh.Issue(ctx, user.ID, clientIP)
	if err != nil {
		return nil, err
	}
	return &Session{
		UserID:       user.ID,
		Username:     user.Username,
		Email:        user.Email,
		AccessToken:  access,
		RefreshToken: refresh.Token,
		Roles:        roles,
	}, nil
}
