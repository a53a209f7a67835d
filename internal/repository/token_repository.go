package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/curconv/auth-service/internal/auth"
	"github.com/curconv/auth-service/internal/model"
)

const tokenColumns = "id,user_id,token,expires_at,created_at,created_by_ip,revoked_at,revoked_by_ip,replaced_by_token"

// CreateRefreshToken inserts a refresh token row.
func (s *Store) CreateRefreshToken(ctx context.Context, t *model.RefreshToken) error {
	_, err := s.DB.ExecContext(ctx,
		"INSERT INTO refresh_tokens (id,user_id,token,expires_at,created_at,created_by_ip) VALUES (?,?,?,?,?,?)",
		t.ID, t.UserID, t.Token, t.ExpiresAt, t.CreatedAt, t.CreatedByIp)
	if isDuplicate(err) {
		return auth.ErrDuplicate
	}
	return err
}

// RefreshTokenByValue looks a token up by its opaque value and loads
// the owning user with its roles in the same call, so the rotation
// decision never needs a follow-up query.
func (s *Store) RefreshTokenByValue(ctx context.Context, value string) (*model.RefreshToken, *auth.UserWithRoles, error) {
	row := s.DB.QueryRowContext(ctx,
		"SELECT "+tokenColumns+" FROM refresh_tokens WHERE token=? LIMIT 1", value)
	t, err := scanToken(row.Scan)
	if err != nil {
		return nil, nil, err
	}
	u, err := s.userByID(ctx, t.UserID)
	if err != nil {
		return nil, nil, err
	}
	roles, err := s.roleNames(ctx, u.ID)
	if err != nil {
		return nil, nil, err
	}
	return t, &auth.UserWithRoles{User: u, Roles: roles}, nil
}

// RotateRefreshToken revokes old and inserts its replacement in one
// transaction. The revoke is conditional on revoked_at still being
// NULL; if a concurrent rotation got there first no rows match, the
// transaction rolls back and ErrTokenNotActive is returned.
func (s *Store) RotateRefreshToken(ctx context.Context, old, replacement *model.RefreshToken) error {
	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		"UPDATE refresh_tokens SET revoked_at=?, revoked_by_ip=?, replaced_by_token=? WHERE id=? AND revoked_at IS NULL",
		old.RevokedAt, old.RevokedByIp, old.ReplacedByToken, old.ID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return auth.ErrTokenNotActive
	}

	_, err = tx.ExecContext(ctx,
		"INSERT INTO refresh_tokens (id,user_id,token,expires_at,created_at,created_by_ip) VALUES (?,?,?,?,?,?)",
		replacement.ID, replacement.UserID, replacement.Token, replacement.ExpiresAt, replacement.CreatedAt, replacement.CreatedByIp)
	if err != nil {
		return err
	}
	return tx.Commit()
}

// RevokeRefreshToken persists a token's revocation fields, conditional
// on the row still being unrevoked.
func (s *Store) RevokeRefreshToken(ctx context.Context, t *model.RefreshToken) error {
	res, err := s.DB.ExecContext(ctx,
		"UPDATE refresh_tokens SET revoked_at=?, revoked_by_ip=?, replaced_by_token=? WHERE id=? AND revoked_at IS NULL",
		t.RevokedAt, t.RevokedByIp, t.ReplacedByToken, t.ID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return auth.ErrTokenNotActive
	}
	return nil
}

// ActiveRefreshTokensForUser returns the user's tokens that are
// neither revoked nor expired at the given instant. A token whose
// expiry equals now is already expired and is not returned.
func (s *Store) ActiveRefreshTokensForUser(ctx context.Context, userID string, now time.Time) ([]*model.RefreshToken, error) {
	rows, err := s.DB.QueryContext(ctx,
		"SELECT "+tokenColumns+" FROM refresh_tokens WHERE user_id=? AND revoked_at IS NULL AND expires_at > ?",
		userID, now)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*model.RefreshToken
	for rows.Next() {
		t, err := scanToken(rows.Scan)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func scanToken(scan func(dest ...any) error) (*model.RefreshToken, error) {
	var (
		t          model.RefreshToken
		revokedAt  sql.NullTime
		revokedIP  sql.NullString
		replacedBy sql.NullString
	)
	err := scan(&t.ID, &t.UserID, &t.Token, &t.ExpiresAt, &t.CreatedAt,
		&t.CreatedByIp, &revokedAt, &revokedIP, &replacedBy)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, auth.ErrNotFound
		}
		return nil, err
	}
	if revokedAt.Valid {
		at := revokedAt.Time
		t.RevokedAt = &at
	}
	if revokedIP.Valid {
		ip := revokedIP.String
		t.RevokedByIp = &ip
	}
	if replacedBy.Valid {
		rb := replacedBy.String
		t.ReplacedByToken = &rb
	}
	return &t, nil
}
