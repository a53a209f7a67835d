package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/curconv/auth-service/internal/auth"
	"github.com/curconv/auth-service/internal/model"
)

// RoleByName fetches a role by its unique name.
func (s *Store) RoleByName(ctx context.Context, name string) (*model.Role, error) {
	var r model.Role
	err := s.DB.QueryRowContext(ctx,
		"SELECT id,name,description FROM roles WHERE name=? LIMIT 1",
		name).Scan(&r.ID, &r.Name, &r.Description)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, auth.ErrNotFound
		}
		return nil, err
	}
	return &r, nil
}

// AssignRole inserts a user-role link. Assigning a role the user
// already holds is not an error.
func (s *Store) AssignRole(ctx context.Context, userID, roleID string) error {
	_, err := s.DB.ExecContext(ctx,
		"INSERT INTO user_roles (user_id,role_id) VALUES (?,?)",
		userID, roleID)
	if isDuplicate(err) {
		return nil
	}
	return err
}

// roleNames returns the names of all roles assigned to a user.
func (s *Store) roleNames(ctx context.Context, userID string) ([]string, error) {
	rows, err := s.DB.QueryContext(ctx,
		"SELECT r.name FROM roles r JOIN user_roles ur ON ur.role_id=r.id WHERE ur.user_id=? ORDER BY r.name",
		userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		names = append(names, name)
	}
	return names, rows.Err()
}
