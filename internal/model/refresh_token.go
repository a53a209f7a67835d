package model

import (
    "errors"
    "time"

    "github.com/google/uuid"
)

// RefreshToken models an entry in the `refresh_tokens` table. Each
// refresh token belongs to a user and carries metadata for expiry,
// revocation and the rotation chain. Tokens are never deleted:
// a rotated token keeps a forward pointer to its successor in
// ReplacedByToken, which preserves the audit chain and lets replay
// of an already-rotated token be detected.
//
// Fields:
//  ID              – primary key identifier (uuid string).
//  UserID          – owner of the token.
//  Token           – opaque random token value (unique).
//  ExpiresAt       – expiration timestamp of the token.
//  CreatedAt       – timestamp of creation.
//  CreatedByIp     – client IP that obtained the token.
//  RevokedAt       – when the token was revoked (null while active).
//  RevokedByIp     – client IP that triggered revocation (nullable).
//  ReplacedByToken – value of the successor token after rotation (nullable).
type RefreshToken struct {
    ID              string     // refresh_tokens.id
    UserID          string     // refresh_tokens.user_id
    Token           string     // refresh_tokens.token
    ExpiresAt       time.Time  // refresh_tokens.expires_at
    CreatedAt       time.Time  // refresh_tokens.created_at
    CreatedByIp     string     // refresh_tokens.created_by_ip
    RevokedAt       *time.Time // refresh_tokens.revoked_at (nullable)
    RevokedByIp     *string    // refresh_tokens.revoked_by_ip (nullable)
    ReplacedByToken *string    // refresh_tokens.replaced_by_token (nullable)
}

// ErrAlreadyRevoked is returned when Revoke is called on a token
// that has already been revoked. Revocation is terminal.
var ErrAlreadyRevoked = errors.New("refresh token already revoked")

// NewRefreshToken builds a refresh token row for a user.
func NewRefreshToken(userID, token string, expiresAt time.Time, createdByIp string, now time.Time) *RefreshToken {
    return &RefreshToken{
        ID:          uuid.NewString(),
        UserID:      userID,
        Token:       token,
        ExpiresAt:   expiresAt,
        CreatedAt:   now,
        CreatedByIp: createdByIp,
    }
}

// IsExpired reports whether the token has expired at the given
// instant. A token whose expiry equals now is already expired.
func (t *RefreshToken) IsExpired(now time.Time) bool {
    return !now.Before(t.ExpiresAt)
}

// IsRevoked reports whether the token has been revoked.
func (t *RefreshToken) IsRevoked() bool { return t.RevokedAt != nil }

// IsActive reports whether the token can still be rotated.
func (t *RefreshToken) IsActive(now time.Time) bool {
    return !t.IsRevoked() && !t.IsExpired(now)
}

// Revoke marks the token revoked. replacedBy is the value of the
// successor token when the revocation is part of a rotation; it is
// empty for plain logout. Calling Revoke twice is an error.
func (t *RefreshToken) Revoke(now time.Time, revokedByIp, replacedBy string) error {
    if t.IsRevoked() {
        return ErrAlreadyRevoked
    }
    at := now
    t.RevokedAt = &at
    ip := revokedByIp
    t.RevokedByIp = &ip
    if replacedBy != "" {
        rb := replacedBy
        t.ReplacedByToken = &rb
    }
    return nil
}
