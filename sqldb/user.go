package sqldb

import (
	"context"
	"database/sql"
	"errors"

	"github.com/wansing/editorial/core"
	"golang.org/x/crypto/bcrypt"
)

var ErrAuth = errors.New("authentication failed")

type UserDB struct {
	*sql.DB
	delete      *sql.Stmt
	getByName   *sql.Stmt
	insert      *sql.Stmt
	login       *sql.Stmt
	setPassword *sql.Stmt
}

func NewUserDB(db *sql.DB) *UserDB {

	mustExec(db, `
		CREATE TABLE IF NOT EXISTS usr (
			id `+idColumn+`,
			name varchar(128) NOT NULL,
			password varchar(64) NOT NULL DEFAULT '',
			UNIQUE(name)
		);`)

	var userDB = &UserDB{}
	userDB.DB = db
	userDB.delete = mustPrepare(db, "DELETE FROM usr WHERE id = ?")
	userDB.getByName = mustPrepare(db, "SELECT id, name FROM usr WHERE name = ? LIMIT 1")
	userDB.insert = mustPrepare(db, "INSERT INTO usr (name) VALUES (?)") // empty password field is safe because no bcrypt hash equals it
	userDB.login = mustPrepare(db, "SELECT id, password FROM usr WHERE name = ?")
	userDB.setPassword = mustPrepare(db, "UPDATE usr SET password = ? WHERE id = ?")
	return userDB
}

func (db *UserDB) DeleteUser(ctx context.Context, id int) error {
	_, err := db.delete.ExecContext(ctx, id)
	return err
}

func (db *UserDB) GetUserByName(ctx context.Context, name string) (core.User, error) {
	var u core.User
	err := db.getByName.QueryRowContext(ctx, core.CleanUserName(name)).Scan(&u.ID, &u.Name)
	if err == sql.ErrNoRows {
		return u, core.NewNotFoundError(core.KindUser, name)
	}
	return u, err
}

func (db *UserDB) InsertUser(ctx context.Context, name string) (core.User, error) {
	name = core.CleanUserName(name)
	if name == "" {
		return core.User{}, errors.New("user name can't be empty")
	}
	res, err := db.insert.ExecContext(ctx, name)
	if err != nil {
		return core.User{}, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return core.User{}, err
	}
	return core.User{ID: int(id), Name: name}, nil
}

func (db *UserDB) LoginUser(ctx context.Context, name, password string) (core.User, error) {

	var u = core.User{
		Name: core.CleanUserName(name),
	}
	var hash string

	err := db.login.QueryRowContext(ctx, u.Name).Scan(&u.ID, &hash)
	if err == sql.ErrNoRows {
		return core.User{}, ErrAuth // user not found
	}
	if err != nil {
		return core.User{}, err
	}

	if hash == "" || bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) != nil {
		return core.User{}, ErrAuth // wrong password
	}

	return u, nil
}

func (db *UserDB) SetPassword(ctx context.Context, u core.User, password string) error {

	if password == "" {
		return errors.New("no password given")
	}

	if u.ID == 0 {
		return errors.New("can't set password of user 0")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	_, err = db.setPassword.ExecContext(ctx, string(hash), u.ID)
	return err
}
