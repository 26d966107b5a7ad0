package main

import (
	"context"

	"github.com/ongoza/cyberhub/core/user"
)

// addUser creates an active user; admins get every role.
func (cli *commandLine) addUser(name, email, pwd string, isAdmin bool) error {
	nu := user.NewUser{
		Name:            name,
		Email:           email,
		Password:        pwd,
		PasswordConfirm: pwd,
	}
	if isAdmin {
		nu.Roles = user.AllRoles
	}
	_, err := cli.usrSvc.Create(context.Background(), nu)
	return err
}

func (cli *commandLine) resetPassword(email, pwd string) error {
	ctx := context.Background()
	usr, err := cli.usrSvc.GetByEmail(ctx, email)
	if err != nil {
		return err
	}
	_, err = cli.usrSvc.SetPassword(ctx, usr.ID, user.SetPassword{Password: pwd, PasswordConfirm: pwd})
	return err
}

// resetOnboarding clears the onboarding flag. Archived results are kept.
func (cli *commandLine) resetOnboarding(email string) error {
	ctx := context.Background()
	usr, err := cli.usrSvc.GetByEmail(ctx, email)
	if err != nil {
		return err
	}
	_, err = cli.usrSvc.ResetOnboarding(ctx, usr.ID)
	return err
}

func (cli *commandLine) migrate(args []string) error {
	return gooseRunFunc(cli.db, args[0], args[1:]...)
}
