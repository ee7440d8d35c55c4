package dbutil

import "github.com/jmoiron/sqlx"

// Finalize rewrites gendry's mysql-style placeholders into the $N form
// lib/pq expects.
func Finalize(query string, args []interface{}) (string, []interface{}) {
	return sqlx.Rebind(sqlx.DOLLAR, query), args
}
