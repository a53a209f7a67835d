package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/curconv/auth-service/internal/auth"
	"github.com/curconv/auth-service/internal/model"
)

// Store runs all auth queries against one *sql.DB.
type Store struct{ DB *sql.DB }

func NewStore(db *sql.DB) *Store { return &Store{DB: db} }

const userColumns = "id,email,username,password_hash,first_name,last_name,is_active,created_at,last_login_at"

// CreateUser inserts a user row.
func (s *Store) CreateUser(ctx context.Context, u *model.User) error {
	_, err := s.DB.ExecContext(ctx,
		"INSERT INTO users (id,email,username,password_hash,first_name,last_name,is_active,created_at) VALUES (?,?,?,?,?,?,?,?)",
		u.ID, u.Email, u.Username, u.PasswordHash, u.FirstName, u.LastName, u.IsActive, u.CreatedAt)
	if isDuplicate(err) {
		return auth.ErrDuplicate
	}
	return err
}

// UserByEmailOrUsername fetches a user matching either identifier.
func (s *Store) UserByEmailOrUsername(ctx context.Context, email, username string) (*model.User, error) {
	row := s.DB.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE email=? OR username=? LIMIT 1",
		email, username)
	return scanUser(row)
}

// UserByEmail fetches a user by email together with its role names.
func (s *Store) UserByEmail(ctx context.Context, email string) (*auth.UserWithRoles, error) {
	row := s.DB.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE email=? LIMIT 1", email)
	u, err := scanUser(row)
	if err != nil {
		return nil, err
	}
	roles, err := s.roleNames(ctx, u.ID)
	if err != nil {
		return nil, err
	}
	return &auth.UserWithRoles{User: u, Roles: roles}, nil
}

// UpdateLastLogin persists a new last_login_at value.
func (s *Store) UpdateLastLogin(ctx context.Context, userID string, at time.Time) error {
	_, err := s.DB.ExecContext(ctx,
		"UPDATE users SET last_login_at=? WHERE id=?", at, userID)
	return err
}

// SetUserActive persists the is_active flag.
func (s *Store) SetUserActive(ctx context.Context, userID string, active bool) error {
	res, err := s.DB.ExecContext(ctx,
		"UPDATE users SET is_active=? WHERE id=?", active, userID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		// Distinguish a missing user from a no-op write of the same value.
		var one int
		if err := s.DB.QueryRowContext(ctx, "SELECT 1 FROM users WHERE id=? LIMIT 1", userID).Scan(&one); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return auth.ErrNotFound
			}
			return err
		}
	}
	return nil
}

func (s *Store) userByID(ctx context.Context, id string) (*model.User, error) {
	row := s.DB.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE id=? LIMIT 1", id)
	return scanUser(row)
}

func scanUser(row *sql.Row) (*model.User, error) {
	var (
		u         model.User
		lastLogin sql.NullTime
	)
	err := row.Scan(&u.ID, &u.Email, &u.Username, &u.PasswordHash,
		&u.FirstName, &u.LastName, &u.IsActive, &u.CreatedAt, &lastLogin)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, auth.ErrNotFound
		}
		return nil, err
	}
	if lastLogin.Valid {
		t := lastLogin.Time
		u.LastLoginAt = &t
	}
	return &u, nil
}
