package main

import (
	"context"

	"github.com/pkg/errors"

	"github.com/trezcool/studyplanner/core"
	"github.com/trezcool/studyplanner/core/user"
)

type addUserData struct {
	Name     string
	Username string
	Email    string
	Password string
	Role     string
}

// addUser updates or creates a user.User, activating it with the given role and password.
func (cli *commandLine) addUser(ctx context.Context, data addUserData) (user.User, error) {
	if !core.StringInSlice(data.Role, user.AllRoles) {
		return user.User{}, errors.Errorf("unknown role %q", data.Role)
	}
	uname := core.CleanString(data.Username, true /* lower */)
	email := core.CleanString(data.Email, true /* lower */)

	lookup := uname
	if lookup == "" {
		lookup = email
	}
	now := core.NowFunc()
	usr, err := cli.usrRepo.GetUser(ctx, user.GetFilter{UsernameOrEmail: lookup})
	exists := err == nil
	if err != nil && !errors.Is(err, user.ErrNotFound) {
		return user.User{}, err
	}
	if !exists {
		usr = user.User{Username: uname, Email: email, CreatedAt: now}
	}

	if name := core.CleanString(data.Name); name != "" {
		usr.Name = name
	}
	if usr.Name == "" {
		usr.Name = usr.Username
	}
	usr.Roles = []string{data.Role}
	usr.IsActive = true
	usr.UpdatedAt = now
	if err := usr.SetPassword(data.Password); err != nil {
		return user.User{}, err
	}

	if exists {
		return cli.usrRepo.UpdateUser(ctx, usr)
	}
	return cli.usrRepo.CreateUser(ctx, usr)
}
