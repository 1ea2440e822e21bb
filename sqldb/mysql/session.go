// Package mysql stores HTTP sessions in MySQL or MariaDB.
package mysql

import (
	"database/sql"
	"fmt"

	"github.com/alexedwards/scs/mysqlstore"
	"github.com/alexedwards/scs/v2"
)

func NewSessionStore(db *sql.DB) (scs.Store, error) {

	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS sessions (
			token CHAR(43) PRIMARY KEY,
			data BLOB NOT NULL,
			expiry TIMESTAMP(6) NOT NULL,
			INDEX sessions_expiry_idx (expiry)
		);`)
	if err != nil {
		return nil, fmt.Errorf("creating session table: %w", err)
	}

	return mysqlstore.New(db), nil
}
