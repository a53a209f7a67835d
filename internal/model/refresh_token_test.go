package model

import (
	"testing"
	"time"
)

func TestRefreshToken_ExpiryBoundary(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	tok := NewRefreshToken("u1", "opaque", now.Add(time.Hour), "127.0.0.1", now)

	if tok.IsExpired(now) {
		t.Fatalf("token should not be expired before expires_at")
	}
	if !tok.IsActive(now) {
		t.Fatalf("fresh token should be active")
	}
	// A token whose expiry equals now is already expired.
	if !tok.IsExpired(tok.ExpiresAt) {
		t.Fatalf("token with expires_at == now must be expired")
	}
	if tok.IsActive(tok.ExpiresAt) {
		t.Fatalf("token with expires_at == now must not be active")
	}
}

func TestRefreshToken_RevokeIsTerminal(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	tok := NewRefreshToken("u1", "opaque", now.Add(time.Hour), "127.0.0.1", now)

	if err := tok.Revoke(now, "10.0.0.1", "successor"); err != nil {
		t.Fatalf("first revoke: %v", err)
	}
	if !tok.IsRevoked() || tok.IsActive(now) {
		t.Fatalf("revoked token must not be active")
	}
	if tok.ReplacedByToken == nil || *tok.ReplacedByToken != "successor" {
		t.Fatalf("rotation must record the successor value")
	}
	if err := tok.Revoke(now, "10.0.0.2", ""); err != ErrAlreadyRevoked {
		t.Fatalf("second revoke: got %v, want ErrAlreadyRevoked", err)
	}
	if *tok.RevokedByIp != "10.0.0.1" {
		t.Fatalf("second revoke must not overwrite revocation fields")
	}
}

func TestRefreshToken_RevokeWithoutSuccessor(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	tok := NewRefreshToken("u1", "opaque", now.Add(time.Hour), "", now)
	if err := tok.Revoke(now, "", ""); err != nil {
		t.Fatalf("revoke: %v", err)
	}
	if tok.ReplacedByToken != nil {
		t.Fatalf("plain logout revocation must not set replaced_by_token")
	}
}

func TestNewUser_Validation(t *testing.T) {
	now := time.Now().UTC()
	cases := []struct {
		name                          string
		email, username, passwordHash string
		wantErr                       error
	}{
		{"empty email", "", "alice", "h", ErrEmptyEmail},
		{"empty username", "a@x.com", "", "h", ErrEmptyUsername},
		{"empty hash", "a@x.com", "alice", "", ErrEmptyPasswordHash},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := NewUser(tc.email, tc.username, tc.passwordHash, "A", "Lice", now); err != tc.wantErr {
				t.Fatalf("got %v, want %v", err, tc.wantErr)
			}
		})
	}

	u, err := NewUser("a@x.com", "alice", "h", "A", "Lice", now)
	if err != nil {
		t.Fatalf("NewUser: %v", err)
	}
	if u.ID == "" || !u.IsActive || u.LastLoginAt != nil {
		t.Fatalf("new user must have an id, be active and have no login time")
	}

	u.UpdateLastLogin(now)
	if u.LastLoginAt == nil || !u.LastLoginAt.Equal(now) {
		t.Fatalf("UpdateLastLogin must record the login time")
	}

	u.Deactivate()
	if u.IsActive {
		t.Fatalf("Deactivate must clear IsActive")
	}
	u.Activate()
	if !u.IsActive {
		t.Fatalf("Activate must set IsActive")
	}
}
