package main

import (
	"context"
)

func (cli *commandLine) resetPassword(loginID, pwd string) error {
	ctx := context.Background()
	usr, err := cli.usrSvc.GetByLoginID(ctx, loginID)
	if err != nil {
		return err
	}
	if _, err = cli.usrSvc.SetPassword(ctx, usr.ID, pwd); err != nil {
		return err
	}
	return nil
}
