package model

import "github.com/google/uuid"

// Fixed role catalog seeded at startup. Roles are immutable after
// creation; new roles are not created at runtime.
const (
    RoleAdmin = "Admin"
    RoleUser  = "User"
)

// Role represents a row in the `roles` table.
//
// Fields:
//  ID          – primary key identifier (uuid string).
//  Name        – unique role name (Admin or User).
//  Description – human readable description of the role.
type Role struct {
    ID          string // roles.id
    Name        string // roles.name
    Description string // roles.description
}

// NewRole builds a role with a fresh identity.
func NewRole(name, description string) *Role {
    return &Role{ID: uuid.NewString(), Name: name, Description: description}
}

// UserRole links a user to a role. The pair (UserID, RoleID) is the
// composite primary key of the `user_roles` table; the link has no
// lifecycle of its own beyond existence.
type UserRole struct {
    UserID string // user_roles.user_id
    RoleID string // user_roles.role_id
}
