package core

import (
	"context"
	"errors"
	"strings"
)

// A Role is a named set of users. Workflows refer to roles by id.
type Role struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

type RoleDB interface {
	DeleteRole(ctx context.Context, id int) error
	GetAllRoles(ctx context.Context, limit, offset int) ([]Role, error)
	GetRole(ctx context.Context, id int) (Role, error)
	GetRoleByName(ctx context.Context, name string) (Role, error)
	GetRolesOf(ctx context.Context, userName string) ([]Role, error)
	InsertRole(ctx context.Context, name string) (Role, error)
	Join(ctx context.Context, roleID int, userName string) error
	Leave(ctx context.Context, roleID int, userName string) error
}

// RoleNames returns the names of the roles which the user is a member of.
func (c *CoreDB) RoleNames(ctx context.Context, userName string) ([]string, error) {
	roles, err := c.RoleDB.GetRolesOf(ctx, CleanUserName(userName))
	if err != nil {
		return nil, err
	}
	var names = make([]string, len(roles))
	for i := range roles {
		names[i] = roles[i].Name
	}
	return names, nil
}

// InsertRole shadows RoleDB.InsertRole.
func (c *CoreDB) InsertRole(ctx context.Context, name string) (Role, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Role{}, errors.New("role name can't be empty")
	}
	return c.RoleDB.InsertRole(ctx, name)
}

// Join shadows RoleDB.Join.
func (c *CoreDB) Join(ctx context.Context, roleID int, userName string) error {
	userName = CleanUserName(userName)
	if userName == "" {
		return errors.New("user name can't be empty")
	}
	return c.RoleDB.Join(ctx, roleID, userName)
}
