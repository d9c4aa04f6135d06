package main

import (
	"context"
	"time"

	"github.com/trezcool/malipo/core"
	"github.com/trezcool/malipo/core/user"
)

// addUser updates or creates a user.User
func (cli *commandLine) addUser(name, uname, email, pwd string, isAdmin bool) error {
	ctx := context.Background()
	uname = core.CleanString(uname, true /* lower */)
	email = core.CleanString(email, true /* lower */)
	name = core.CleanString(name)
	if name == "" {
		name = uname
	}
	if err := checkPassword(pwd, uname, email, name); err != nil {
		return err
	}

	usr, err := cli.usrRepo.GetUser(ctx, user.GetFilter{Username: uname})
	if err == user.ErrNotFound {
		usr, err = cli.usrRepo.GetUser(ctx, user.GetFilter{Email: email})
	}
	exists := err == nil
	if err != nil && err != user.ErrNotFound {
		return err
	}

	if !exists {
		now := time.Now().UTC()
		usr = user.User{CreatedAt: now, UpdatedAt: now}
	}
	usr.Name = name
	usr.Username = uname
	usr.Email = email
	usr.IsActive = true
	if isAdmin && !usr.IsAdmin() {
		usr.Roles = append(usr.Roles, user.RoleAdminBursar)
	}
	if err = usr.SetPassword(pwd); err != nil {
		return err
	}

	if exists {
		_, err = cli.usrRepo.UpdateUser(ctx, usr)
	} else {
		_, err = cli.usrRepo.CreateUser(ctx, usr)
	}
	return err
}
