package model

import (
    "errors"
    "time"

    "github.com/google/uuid"
)

// User represents an application user record as stored in the
// `users` table. Each field corresponds to a column in the
// database. The json tags are omitted here because these structs
// are primarily used internally by the repository layer; handlers
// define separate response types with appropriate JSON tags.
//
// Fields:
//  ID           – primary key identifier (uuid string).
//  Email        – unique email address.
//  Username     – unique username.
//  PasswordHash – base64 SHA‑256 digest of the password.
//  FirstName    – given name.
//  LastName     – family name.
//  IsActive     – whether the account is active.
//  CreatedAt    – timestamp of creation.
//  LastLoginAt  – timestamp of the most recent login (null until first login).
type User struct {
    ID           string     // users.id
    Email        string     // users.email
    Username     string     // users.username
    PasswordHash string     // users.password_hash
    FirstName    string     // users.first_name
    LastName     string     // users.last_name
    IsActive     bool       // users.is_active
    CreatedAt    time.Time  // users.created_at
    LastLoginAt  *time.Time // users.last_login_at (nullable)
}

var (
    ErrEmptyEmail        = errors.New("email cannot be empty")
    ErrEmptyUsername     = errors.New("username cannot be empty")
    ErrEmptyPasswordHash = errors.New("password hash cannot be empty")
)

// NewUser builds a user with a fresh identity. It rejects empty
// email, username and password hash; first and last name may be
// blank. New accounts start out active.
func NewUser(email, username, passwordHash, firstName, lastName string, now time.Time) (*User, error) {
    if email == "" {
        return nil, ErrEmptyEmail
    }
    if username == "" {
        return nil, ErrEmptyUsername
    }
    if passwordHash == "" {
        return nil, ErrEmptyPasswordHash
    }
    return &User{
        ID:           uuid.NewString(),
        Email:        email,
        Username:     username,
        PasswordHash: passwordHash,
        FirstName:    firstName,
        LastName:     lastName,
        IsActive:     true,
        CreatedAt:    now,
    }, nil
}

// UpdateLastLogin records a successful login time.
func (u *User) UpdateLastLogin(now time.Time) {
    t := now
    u.LastLoginAt = &t
}

// Deactivate disables the account.
func (u *User) Deactivate() { u.IsActive = false }

// Activate re-enables the account.
func (u *User) Activate() { u.IsActive = true }
