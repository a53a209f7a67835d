// Package repository implements the auth.Store contract over MySQL
// using plain database/sql. Each file groups the queries for one
// table family; all methods hang off the same Store so the service
// layer sees a single collaborator.
package repository

import (
	"errors"

	"github.com/go-sql-driver/mysql"
)

// MySQL error number for a unique-key violation.
const erDupEntry = 1062

// isDuplicate reports whether err is a unique constraint violation.
func isDuplicate(err error) bool {
	var me *mysql.MySQLError
	return errors.As(err, &me) && me.Number == erDupEntry
}
