package sqldb

import (
	"context"
	"database/sql"

	"github.com/wansing/editorial/core"
)

type ContentDB struct {
	*sql.DB
	get      *sql.Stmt
	insert   *sql.Stmt
	setOwner *sql.Stmt
	update   *sql.Stmt
}

func NewContentDB(db *sql.DB) *ContentDB {

	mustExec(db, `
		CREATE TABLE IF NOT EXISTS content_status (
			contentId int(11) NOT NULL,
			checkoutOwner varchar(128) NOT NULL DEFAULT '',
			workflowId int(11) NOT NULL,
			stateId int(11) NOT NULL,
			PRIMARY KEY (contentId)
		);`)

	var contentDB = &ContentDB{}
	contentDB.DB = db
	contentDB.get = mustPrepare(db, "SELECT checkoutOwner, workflowId, stateId FROM content_status WHERE contentId = ? LIMIT 1")
	contentDB.insert = mustPrepare(db, "INSERT INTO content_status (contentId, checkoutOwner, workflowId, stateId) VALUES (?, ?, ?, ?)")
	contentDB.setOwner = mustPrepare(db, "UPDATE content_status SET checkoutOwner = ? WHERE contentId = ?")
	contentDB.update = mustPrepare(db, "UPDATE content_status SET checkoutOwner = ?, workflowId = ?, stateId = ? WHERE contentId = ?")
	return contentDB
}

func (db *ContentDB) GetStatus(ctx context.Context, contentID int) (core.ContentStatus, error) {
	var s = core.ContentStatus{
		ContentID: contentID,
	}
	err := db.get.QueryRowContext(ctx, contentID).Scan(&s.CheckoutOwner, &s.WorkflowID, &s.StateID)
	if err == sql.ErrNoRows {
		return s, core.NewNotFoundError(core.KindContent, contentID)
	}
	return s, err
}

// SetStatus inserts or updates the status of an item.
func (db *ContentDB) SetStatus(ctx context.Context, s core.ContentStatus) error {

	var owner = core.CleanUserName(s.CheckoutOwner)

	res, err := db.update.ExecContext(ctx, owner, s.WorkflowID, s.StateID, s.ContentID)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err != nil || n > 0 {
		return err
	}

	_, err = db.insert.ExecContext(ctx, s.ContentID, owner, s.WorkflowID, s.StateID)
	return err
}

func (db *ContentDB) SetCheckoutOwner(ctx context.Context, contentID int, userName string) error {
	res, err := db.setOwner.ExecContext(ctx, core.CleanUserName(userName), contentID)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err != nil {
		return err
	} else if n == 0 {
		return core.NewNotFoundError(core.KindContent, contentID)
	}
	return nil
}
