package sqldb

import (
	"context"
	"database/sql"

	"github.com/wansing/editorial/core"
)

type RoleDB struct {
	*sql.DB
	delete     *sql.Stmt
	get        *sql.Stmt
	getAll     *sql.Stmt
	getByName  *sql.Stmt
	getOf      *sql.Stmt
	insert     *sql.Stmt
	join       *sql.Stmt
	leave      *sql.Stmt
	leaveUsers *sql.Stmt
}

func NewRoleDB(db *sql.DB) *RoleDB {

	mustExec(db,
		`CREATE TABLE IF NOT EXISTS role (
			id `+idColumn+`,
			name varchar(64) NOT NULL,
			UNIQUE(name)
		);`,
		`CREATE TABLE IF NOT EXISTS membership (
			role int(11) NOT NULL,
			userName varchar(128) NOT NULL,
			PRIMARY KEY (role, userName)
		);`)

	var roleDB = &RoleDB{}
	roleDB.DB = db
	roleDB.delete = mustPrepare(db, "DELETE FROM role WHERE id = ?")
	roleDB.get = mustPrepare(db, "SELECT name FROM role WHERE id = ? LIMIT 1")
	roleDB.getAll = mustPrepare(db, "SELECT id, name FROM role ORDER BY name LIMIT ? OFFSET ?")
	roleDB.getByName = mustPrepare(db, "SELECT id, name FROM role WHERE LOWER(name) = LOWER(?) LIMIT 1")
	roleDB.getOf = mustPrepare(db, "SELECT role.id, role.name FROM role, membership WHERE role.id = membership.role AND membership.userName = ? ORDER BY role.name")
	roleDB.insert = mustPrepare(db, "INSERT INTO role (name) VALUES (?)")
	roleDB.join = mustPrepare(db, "INSERT INTO membership (role, userName) VALUES (?, ?)")
	roleDB.leave = mustPrepare(db, "DELETE FROM membership WHERE role = ? AND userName = ?")
	roleDB.leaveUsers = mustPrepare(db, "DELETE FROM membership WHERE role = ?")
	return roleDB
}

func (db *RoleDB) DeleteRole(ctx context.Context, id int) error {

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}

	_, err = tx.StmtContext(ctx, db.leaveUsers).ExecContext(ctx, id)
	if err != nil {
		tx.Rollback()
		return err
	}

	_, err = tx.StmtContext(ctx, db.delete).ExecContext(ctx, id)
	if err != nil {
		tx.Rollback()
		return err
	}

	return tx.Commit()
}

func (db *RoleDB) GetRole(ctx context.Context, id int) (core.Role, error) {
	var r = core.Role{
		ID: id,
	}
	err := db.get.QueryRowContext(ctx, id).Scan(&r.Name)
	if err == sql.ErrNoRows {
		return r, core.NewNotFoundError(core.KindRole, id)
	}
	return r, err
}

func (db *RoleDB) GetRoleByName(ctx context.Context, name string) (core.Role, error) {
	var r core.Role
	err := db.getByName.QueryRowContext(ctx, name).Scan(&r.ID, &r.Name)
	if err == sql.ErrNoRows {
		return r, core.NewNotFoundError(core.KindRole, name)
	}
	return r, err
}

func (db *RoleDB) getMultiple(ctx context.Context, stmt *sql.Stmt, args ...interface{}) ([]core.Role, error) {

	rows, err := stmt.QueryContext(ctx, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var roles = []core.Role{}

	for rows.Next() {
		var r core.Role
		if err = rows.Scan(&r.ID, &r.Name); err != nil {
			return nil, err
		}
		roles = append(roles, r)
	}

	return roles, rows.Err()
}

func (db *RoleDB) GetAllRoles(ctx context.Context, limit, offset int) ([]core.Role, error) {
	return db.getMultiple(ctx, db.getAll, limit, offset)
}

func (db *RoleDB) GetRolesOf(ctx context.Context, userName string) ([]core.Role, error) {
	return db.getMultiple(ctx, db.getOf, core.CleanUserName(userName))
}

func (db *RoleDB) InsertRole(ctx context.Context, name string) (core.Role, error) {
	res, err := db.insert.ExecContext(ctx, name)
	if err != nil {
		return core.Role{}, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return core.Role{}, err
	}
	return core.Role{ID: int(id), Name: name}, nil
}

func (db *RoleDB) Join(ctx context.Context, roleID int, userName string) error {
	_, err := db.join.ExecContext(ctx, roleID, core.CleanUserName(userName))
	return err
}

func (db *RoleDB) Leave(ctx context.Context, roleID int, userName string) error {
	_, err := db.leave.ExecContext(ctx, roleID, core.CleanUserName(userName))
	return err
}
