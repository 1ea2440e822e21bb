package core

import (
	"context"
	"errors"
)

type User struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

type UserDB interface {
	DeleteUser(ctx context.Context, id int) error
	GetUserByName(ctx context.Context, name string) (User, error)
	InsertUser(ctx context.Context, name string) (User, error)
	LoginUser(ctx context.Context, name, password string) (User, error)
	SetPassword(ctx context.Context, u User, password string) error
}

var ErrEmptyPassword = errors.New("refusing to set empty password")

// SetPassword shadows UserDB.SetPassword.
func (c *CoreDB) SetPassword(ctx context.Context, u User, password string) error {
	if password == "" {
		return ErrEmptyPassword
	}
	return c.UserDB.SetPassword(ctx, u, password)
}
