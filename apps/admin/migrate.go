package main

import (
	"github.com/pressly/goose/v3"

	"github.com/ionode-cloud/ERP-Cell/core"
	appfs "github.com/ionode-cloud/ERP-Cell/fs"
)

var gooseRunFunc = goose.Run // mockable

func (cli *commandLine) migrate(args []string) error {
	if cli.conf.Database.Engine != core.EnginePostgres {
		return errNotPostgres
	}
	goose.SetBaseFS(appfs.FS)
	if err := goose.SetDialect("postgres"); err != nil {
		return err
	}
	arguments := make([]string, 0)
	if len(args) > 1 {
		arguments = append(arguments, args[1:]...)
	}
	return gooseRunFunc(args[0], cli.db, "migrations", arguments...)
}
