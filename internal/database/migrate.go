package database

import (
	"context"
	"database/sql"

	"github.com/curconv/auth-service/internal/model"
)

// Schema for the auth tables. Users are unique on email and on
// username, roles on name, refresh tokens on their opaque value
// (which is also the lookup path for rotation). Token rows are never
// deleted; the rotation chain lives in replaced_by_token.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id            CHAR(36)     NOT NULL,
		email         VARCHAR(255) NOT NULL,
		username      VARCHAR(100) NOT NULL,
		password_hash VARCHAR(255) NOT NULL,
		first_name    VARCHAR(100) NOT NULL DEFAULT '',
		last_name     VARCHAR(100) NOT NULL DEFAULT '',
		is_active     TINYINT(1)   NOT NULL DEFAULT 1,
		created_at    DATETIME     NOT NULL,
		last_login_at DATETIME     NULL,
		PRIMARY KEY (id),
		UNIQUE KEY uq_users_email (email),
		UNIQUE KEY uq_users_username (username)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	`CREATE TABLE IF NOT EXISTS roles (
		id          CHAR(36)     NOT NULL,
		name        VARCHAR(50)  NOT NULL,
		description VARCHAR(255) NOT NULL DEFAULT '',
		PRIMARY KEY (id),
		UNIQUE KEY uq_roles_name (name)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	`CREATE TABLE IF NOT EXISTS user_roles (
		user_id CHAR(36) NOT NULL,
		role_id CHAR(36) NOT NULL,
		PRIMARY KEY (user_id, role_id),
		CONSTRAINT fk_user_roles_user FOREIGN KEY (user_id) REFERENCES users (id),
		CONSTRAINT fk_user_roles_role FOREIGN KEY (role_id) REFERENCES roles (id)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	`CREATE TABLE IF NOT EXISTS refresh_tokens (
		id                CHAR(36)     NOT NULL,
		user_id           CHAR(36)     NOT NULL,
		token             VARCHAR(255) NOT NULL,
		expires_at        DATETIME     NOT NULL,
		created_at        DATETIME     NOT NULL,
		created_by_ip     VARCHAR(45)  NOT NULL DEFAULT '',
		revoked_at        DATETIME     NULL,
		revoked_by_ip     VARCHAR(45)  NULL,
		replaced_by_token VARCHAR(255) NULL,
		PRIMARY KEY (id),
		UNIQUE KEY uq_refresh_tokens_token (token),
		KEY idx_refresh_tokens_user (user_id),
		CONSTRAINT fk_refresh_tokens_user FOREIGN KEY (user_id) REFERENCES users (id)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
}

// Migrate creates the auth tables and seeds the fixed role catalog.
// Safe to run on every startup.
func Migrate(ctx context.Context, db *sql.DB) error {
	for _, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return seedRoles(ctx, db)
}

// seedRoles inserts the Admin and User roles if they do not exist yet.
func seedRoles(ctx context.Context, db *sql.DB) error {
	seed := []*model.Role{
		model.NewRole(model.RoleAdmin, "Administrator role with full access"),
		model.NewRole(model.RoleUser, "Regular user role with limited access"),
	}
	for _, r := range seed {
		var one int
		err := db.QueryRowContext(ctx,
			"SELECT 1 FROM roles WHERE name=? LIMIT 1", r.Name).Scan(&one)
		if err == nil {
			continue
		}
		if err != sql.ErrNoRows {
			return err
		}
		if _, err := db.ExecContext(ctx,
			"INSERT INTO roles (id,name,description) VALUES (?,?,?)",
			r.ID, r.Name, r.Description); err != nil {
			return err
		}
	}
	return nil
}
