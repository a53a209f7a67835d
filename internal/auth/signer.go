package auth

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"io"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// refreshSecretBytes is the amount of entropy behind each opaque
// refresh token value (base64 encoded before use).
const refreshSecretBytes = 64

// DefaultAccessTTL is the access token lifetime applied when none
// is configured.
const DefaultAccessTTL = 15 * time.Minute

// AccessClaims is the verified content of an access token.
type AccessClaims struct {
	UserID   string   // sub claim
	Email    string   // email claim
	Username string   // username claim
	TokenID  string   // jti claim
	Roles    []string // roles claim
}

// TokenSigner issues and verifies HS256 access tokens and generates
// the opaque secrets used as refresh token values. Access tokens are
// stateless: everything needed to validate one is the signature, the
// issuer/audience pair and the expiry. Refresh secrets carry no
// claims at all and must be looked up in storage.
type TokenSigner struct {
	secret   []byte
	issuer   string
	audience string
	ttl      time.Duration

	// now and random are swappable for tests.
	now    func() time.Time
	random io.Reader
}

// NewTokenSigner builds a signer. The secret is required; an empty
// secret fails fast with ErrSecretNotConfigured. A non-positive ttl
// falls back to DefaultAccessTTL.
func NewTokenSigner(secret, issuer, audience string, ttl time.Duration) (*TokenSigner, error) {
	if secret == "" {
		return nil, ErrSecretNotConfigured
	}
	if ttl <= 0 {
		ttl = DefaultAccessTTL
	}
	return &TokenSigner{
		secret:   []byte(secret),
		issuer:   issuer,
		audience: audience,
		ttl:      ttl,
		now:      func() time.Time { return time.Now().UTC() },
		random:   rand.Reader,
	}, nil
}

// Issue signs an access token for a user. The subject is the user ID;
// a clientId claim duplicates it for downstream log correlation, and
// each role the user holds is carried in the roles claim. Returns the
// serialized token and its expiry.
func (s *TokenSigner) Issue(userID, email, username string, roles []string) (string, time.Time, error) {
	now := s.now()
	exp := now.Add(s.ttl)
	claims := jwt.MapClaims{
		"sub":      userID,
		"email":    email,
		"jti":      uuid.NewString(),
		"username": username,
		"clientId": userID,
		"roles":    roles,
		"iss":      s.issuer,
		"aud":      s.audience,
		"exp":      exp.Unix(),
		"iat":      now.Unix(),
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := t.SignedString(s.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, exp, nil
}

// Verify validates the signature, issuer, audience and expiry of an
// access token with zero clock-skew tolerance and returns its claims.
// Any failure is reported as ErrInvalidToken wrapping the underlying
// validation reason; no further detail leaks to callers.
func (s *TokenSigner) Verify(signed string) (*AccessClaims, error) {
	tok, err := jwt.Parse(signed, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(s.issuer),
		jwt.WithAudience(s.audience),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}
	claims, ok := tok.Claims.(jwt.MapClaims)
	if !ok || !tok.Valid {
		return nil, ErrInvalidToken
	}

	out := &AccessClaims{
		UserID:   stringClaim(claims, "sub"),
		Email:    stringClaim(claims, "email"),
		Username: stringClaim(claims, "username"),
		TokenID:  stringClaim(claims, "jti"),
	}
	if raw, ok := claims["roles"].([]interface{}); ok {
		for _, r := range raw {
			if name, ok := r.(string); ok {
				out.Roles = append(out.Roles, name)
			}
		}
	}
	return out, nil
}

// NewRefreshSecret returns a fresh opaque refresh token value:
// 64 cryptographically secure random bytes, base64 encoded.
func (s *TokenSigner) NewRefreshSecret() (string, error) {
	buf := make([]byte, refreshSecretBytes)
	if _, err := io.ReadFull(s.random, buf); err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(buf), nil
}

func stringClaim(claims jwt.MapClaims, key string) string {
	v, _ := claims[key].(string)
	return v
}
