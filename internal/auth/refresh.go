package auth

import (
	"context"
	"errors"
	"time"

	"github.com/curconv/auth-service/internal/model"
)

// DefaultRefreshTTL is the refresh token lifetime applied when none
// is configured.
const DefaultRefreshTTL = 7 * 24 * time.Hour

// RefreshManager owns the refresh token lifecycle: issuing, rotation
// and revocation. A token moves from active to revoked exactly once;
// expiry is a derived read-time state, never a stored transition.
// Rotation revokes the presented token and links it forward to its
// replacement, so the stored rows form an append-only chain and a
// replayed (already rotated) token is rejected by the active check.
type RefreshManager struct {
	store  Store
	signer *TokenSigner
	ttl    time.Duration

	now func() time.Time
}

// NewRefreshManager builds a manager. A non-positive ttl falls back
// to DefaultRefreshTTL.
func NewRefreshManager(store Store, signer *TokenSigner, ttl time.Duration) *RefreshManager {
	if ttl <= 0 {
		ttl = DefaultRefreshTTL
	}
	return &RefreshManager{
		store:  store,
		signer: signer,
		ttl:    ttl,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// Issue creates and persists a fresh refresh token for a user.
func (m *RefreshManager) Issue(ctx context.Context, userID, clientIP string) (*model.RefreshToken, error) {
	secret, err := m.signer.NewRefreshSecret()
	if err != nil {
		return nil, err
	}
	now := m.now()
	t := model.NewRefreshToken(userID, secret, now.Add(m.ttl), clientIP, now)
	if err := m.store.CreateRefreshToken(ctx, t); err != nil {
		return nil, err
	}
	return t, nil
}

// Rotate exchanges a presented refresh token for a new one belonging
// to the same user. The presented token must exist and still be
// active; an expired or already-revoked token (including a token
// replayed after rotation) fails with ErrInvalidOrExpiredToken. On
// success the old token is revoked with a forward link to the new
// value, and both writes are applied as one unit. When two callers
// race on the same token the store lets only one revoke through; the
// loser reports ErrInvalidOrExpiredToken as well.
func (m *RefreshManager) Rotate(ctx context.Context, presented, clientIP string) (*UserWithRoles, *model.RefreshToken, error) {
	if presented == "" {
		return nil, nil, ErrInvalidOrExpiredToken
	}
	old, owner, err := m.store.RefreshTokenByValue(ctx, presented)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, nil, ErrInvalidOrExpiredToken
		}
		return nil, nil, err
	}
	now := m.now()
	if !old.IsActive(now) {
		return nil, nil, ErrInvalidOrExpiredToken
	}

	secret, err := m.signer.NewRefreshSecret()
	if err != nil {
		return nil, nil, err
	}
	replacement := model.NewRefreshToken(old.UserID, secret, now.Add(m.ttl), clientIP, now)
	if err := old.Revoke(now, clientIP, replacement.Token); err != nil {
		return nil, nil, ErrInvalidOrExpiredToken
	}
	if err := m.store.RotateRefreshToken(ctx, old, replacement); err != nil {
		if errors.Is(err, ErrTokenNotActive) {
			return nil, nil, ErrInvalidOrExpiredToken
		}
		return nil, nil, err
	}
	return owner, replacement, nil
}

// RevokeAllActiveForUser revokes every active refresh token the user
// holds. Tokens already revoked or expired are left untouched, so
// calling this with nothing to revoke is a no-op, not an error.
func (m *RefreshManager) RevokeAllActiveForUser(ctx context.Context, userID, clientIP string) error {
	now := m.now()
	active, err := m.store.ActiveRefreshTokensForUser(ctx, userID, now)
	if err != nil {
		return err
	}
	for _, t := range active {
		if err := t.Revoke(now, clientIP, ""); err != nil {
			continue
		}
		if err := m.store.RevokeRefreshToken(ctx, t); err != nil {
			// A concurrent revoke got there first; that is the state we wanted.
			if errors.Is(err, ErrTokenNotActive) {
				continue
			}
			return err
		}
	}
	return nil
}
