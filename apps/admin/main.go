package main

import (
	"context"
	"log"
	"os"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/ionode-cloud/ERP-Cell/core"
	"github.com/ionode-cloud/ERP-Cell/core/branch"
	"github.com/ionode-cloud/ERP-Cell/core/student"
	"github.com/ionode-cloud/ERP-Cell/core/user"
	logsvc "github.com/ionode-cloud/ERP-Cell/services/logger"
	"github.com/ionode-cloud/ERP-Cell/storage"
)

var logger = log.New(os.Stdout, "ADMIN : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile)

func main() {
	conf := core.NewConfig()
	dbLogger := logsvc.NewRollbarLogger(log.New(os.Stdout, "DB : ", log.LstdFlags), conf)
	dbLogger.Enable(false)

	ctx, cancel := context.WithTimeout(context.Background(), conf.Database.QueryTimeout()*3)
	store, err := storage.Open(ctx, conf, dbLogger)
	cancel()
	errAndDie(err)

	validate := validator.New()
	translator, _ := ut.New(en.New(), en.New()).GetTranslator("en")
	core.InitValidators(validate, translator)
	user.InitValidators(validate, translator)

	usrSvc := user.NewService(store.Users)
	cli := commandLine{
		conf:      conf,
		db:        store.SQL(),
		validate:  validate,
		usrSvc:    usrSvc,
		branchSvc: branch.NewService(store.Branches, student.NewActiveCounter(store.Students)),
	}
	err = cli.run(os.Args)
	_ = store.Close(context.Background())
	if err != nil {
		if err != errHelp {
			logger.Printf("\nerror: %s\n", err)
		}
		os.Exit(1)
	}
}

func errAndDie(err error) {
	if err != nil {
		logger.Fatal(err)
	}
}
