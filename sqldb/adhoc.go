package sqldb

import (
	"context"
	"database/sql"

	"github.com/wansing/editorial/core"
)

type AdhocDB struct {
	*sql.DB
	clear  *sql.Stmt
	delete *sql.Stmt
	find   *sql.Stmt
	insert *sql.Stmt
}

func NewAdhocDB(db *sql.DB) *AdhocDB {

	mustExec(db, `
		CREATE TABLE IF NOT EXISTS content_adhoc_user (
			contentId int(11) NOT NULL,
			roleId int(11) NOT NULL,
			userName varchar(128) NOT NULL,
			PRIMARY KEY (contentId, roleId, userName)
		);`)

	var adhocDB = &AdhocDB{}
	adhocDB.DB = db
	adhocDB.clear = mustPrepare(db, "DELETE FROM content_adhoc_user WHERE contentId = ?")
	adhocDB.delete = mustPrepare(db, "DELETE FROM content_adhoc_user WHERE contentId = ? AND roleId = ? AND userName = ?")
	adhocDB.find = mustPrepare(db, "SELECT contentId, roleId, userName FROM content_adhoc_user WHERE contentId = ? ORDER BY roleId, userName")
	adhocDB.insert = mustPrepare(db, "INSERT INTO content_adhoc_user (contentId, roleId, userName) VALUES (?, ?, ?)")
	return adhocDB
}

func (db *AdhocDB) DeleteAdhocUser(ctx context.Context, a core.ContentAdhocUser) error {
	_, err := db.delete.ExecContext(ctx, a.ContentID, a.RoleID, core.CleanUserName(a.UserName))
	return err
}

func (db *AdhocDB) DeleteAdhocUsers(ctx context.Context, contentID int) error {
	_, err := db.clear.ExecContext(ctx, contentID)
	return err
}

func (db *AdhocDB) FindAdhocUsers(ctx context.Context, contentID int) ([]core.ContentAdhocUser, error) {

	rows, err := db.find.QueryContext(ctx, contentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var all = []core.ContentAdhocUser{}
	for rows.Next() {
		var a core.ContentAdhocUser
		if err = rows.Scan(&a.ContentID, &a.RoleID, &a.UserName); err != nil {
			return nil, err
		}
		all = append(all, a)
	}
	return all, rows.Err()
}

func (db *AdhocDB) InsertAdhocUser(ctx context.Context, a core.ContentAdhocUser) error {
	_, err := db.insert.ExecContext(ctx, a.ContentID, a.RoleID, core.CleanUserName(a.UserName))
	return err
}
