// Package sqldb implements the core databases on top of database/sql.
//
// The schema is written for SQLite and MySQL. Tables are created if they don't exist.
package sqldb

import (
	"database/sql"
	"fmt"
)

func mustPrepare(db *sql.DB, query string) *sql.Stmt {
	stmt, err := db.Prepare(query)
	if err != nil {
		panic(fmt.Errorf("preparing %q: %w", query, err))
	}
	return stmt
}

func mustExec(db *sql.DB, statements ...string) {
	for _, s := range statements {
		if _, err := db.Exec(s); err != nil {
			panic(fmt.Errorf("creating tables: %w", err))
		}
	}
}

// idColumn is the type of auto-incremented primary keys.
var idColumn = "INTEGER PRIMARY KEY"

// SetDriver adapts the table definitions to a database driver name as returned by github.com/xo/dburl.
// Call it before creating any of the databases.
func SetDriver(driver string) {
	switch driver {
	case "mysql":
		idColumn = "INTEGER PRIMARY KEY AUTO_INCREMENT"
	default:
		idColumn = "INTEGER PRIMARY KEY"
	}
}
