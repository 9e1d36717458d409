package main

import (
	"context"

	"github.com/ionode-cloud/ERP-Cell/core/user"
)

// addUser updates or creates a user.User
func (cli *commandLine) addUser(name, loginID, pwd, role string) error {
	nu := user.NewUser{Name: name, LoginID: loginID, Password: pwd, Role: role}
	if err := nu.Validate(cli.validate); err != nil {
		return err
	}
	usr, err := cli.usrSvc.UpdateOrCreate(context.Background(), nu)
	if err != nil {
		return err
	}
	logger.Printf("user %s saved with role %s", usr.LoginID, usr.Role)
	return nil
}
