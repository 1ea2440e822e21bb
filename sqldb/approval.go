package sqldb

import (
	"context"
	"database/sql"

	"github.com/wansing/editorial/core"
)

type ApprovalDB struct {
	*sql.DB
	byItem *sql.Stmt
	byUser *sql.Stmt
	clear  *sql.Stmt
	delete *sql.Stmt
	has    *sql.Stmt
	insert *sql.Stmt
}

func NewApprovalDB(db *sql.DB) *ApprovalDB {

	mustExec(db, `
		CREATE TABLE IF NOT EXISTS content_approval (
			contentId int(11) NOT NULL,
			workflowId int(11) NOT NULL,
			stateId int(11) NOT NULL,
			roleId int(11) NOT NULL,
			userName varchar(128) NOT NULL,
			PRIMARY KEY (contentId, workflowId, stateId, roleId, userName)
		);`)

	var approvalDB = &ApprovalDB{}
	approvalDB.DB = db
	approvalDB.byItem = mustPrepare(db, "SELECT contentId, workflowId, stateId, roleId, userName FROM content_approval WHERE contentId = ? ORDER BY stateId, roleId, userName")
	approvalDB.byUser = mustPrepare(db, "SELECT contentId, workflowId, stateId, roleId, userName FROM content_approval WHERE userName = ? ORDER BY contentId, stateId, roleId")
	approvalDB.clear = mustPrepare(db, "DELETE FROM content_approval WHERE contentId = ?")
	approvalDB.delete = mustPrepare(db, "DELETE FROM content_approval WHERE contentId = ? AND workflowId = ? AND stateId = ? AND roleId = ? AND userName = ?")
	approvalDB.has = mustPrepare(db, "SELECT COUNT(*) FROM content_approval WHERE userName = ? AND workflowId = ? AND stateId = ? AND contentId = ?")
	approvalDB.insert = mustPrepare(db, "INSERT INTO content_approval (contentId, workflowId, stateId, roleId, userName) VALUES (?, ?, ?, ?, ?)")
	return approvalDB
}

func (db *ApprovalDB) DeleteApproval(ctx context.Context, a core.ContentApproval) error {
	_, err := db.delete.ExecContext(ctx, a.ContentID, a.WorkflowID, a.StateID, a.RoleID, a.UserName)
	return err
}

func (db *ApprovalDB) DeleteApprovals(ctx context.Context, contentID int) error {
	_, err := db.clear.ExecContext(ctx, contentID)
	return err
}

func (db *ApprovalDB) FindApprovalsByItem(ctx context.Context, contentID int) ([]core.ContentApproval, error) {
	return db.getMultiple(ctx, db.byItem, contentID)
}

func (db *ApprovalDB) FindApprovalsByUser(ctx context.Context, userName string) ([]core.ContentApproval, error) {
	return db.getMultiple(ctx, db.byUser, userName)
}

func (db *ApprovalDB) HasApproval(ctx context.Context, userName string, workflowID, stateID, contentID int) (bool, error) {
	var count int
	err := db.has.QueryRowContext(ctx, userName, workflowID, stateID, contentID).Scan(&count)
	return count > 0, err
}

func (db *ApprovalDB) InsertApproval(ctx context.Context, a core.ContentApproval) error {
	_, err := db.insert.ExecContext(ctx, a.ContentID, a.WorkflowID, a.StateID, a.RoleID, a.UserName)
	return err
}

func (db *ApprovalDB) getMultiple(ctx context.Context, stmt *sql.Stmt, args ...interface{}) ([]core.ContentApproval, error) {

	rows, err := stmt.QueryContext(ctx, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var approvals = []core.ContentApproval{}

	for rows.Next() {
		var a core.ContentApproval
		if err = rows.Scan(&a.ContentID, &a.WorkflowID, &a.StateID, &a.RoleID, &a.UserName); err != nil {
			return nil, err
		}
		approvals = append(approvals, a)
	}

	return approvals, rows.Err()
}
