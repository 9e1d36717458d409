package main

import (
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"syscall"

	"github.com/go-playground/validator/v10"
	"golang.org/x/term"

	"github.com/ionode-cloud/ERP-Cell/core"
	"github.com/ionode-cloud/ERP-Cell/core/branch"
	"github.com/ionode-cloud/ERP-Cell/core/user"
)

var (
	readPasswordFunc = term.ReadPassword // mockable

	errHelp        = errors.New("help provided")
	errNotPostgres = errors.New("migrate requires the postgres engine")
)

type commandLine struct {
	conf      *core.Config
	db        *sql.DB // nil unless the engine is postgres
	validate  *validator.Validate
	usrSvc    *user.Service
	branchSvc *branch.Service
}

func (cli *commandLine) printUsage() {
	fmt.Println("Usage:")
	fmt.Println("  adduser -name NAME -login EMAIL [-role admin|teacher|student] - create or update a user account")
	fmt.Println("  resetpassword -login EMAIL - reset a user's password")
	fmt.Println("  migrate COMMAND [ARGS] - run a goose migration command (postgres only)")
	fmt.Println("  seed - create the default branches and an admin account")
}

// promptPassword reads a password from the terminal without echoing it.
func promptPassword(fs *flag.FlagSet) (string, error) {
	fmt.Print("Enter password:")
	pwd, err := readPasswordFunc(int(syscall.Stdin))
	fmt.Println()
	if err != nil {
		return "", err
	}
	if len(pwd) == 0 {
		fs.Usage()
		return "", errHelp
	}
	return string(pwd), nil
}

func (cli *commandLine) run(args []string) error {
	if len(args) < 2 {
		cli.printUsage()
		return errHelp
	}

	addUserCmd := flag.NewFlagSet("adduser", flag.ContinueOnError)
	addUserName := addUserCmd.String("name", "", "The user's full name.")
	addUserLogin := addUserCmd.String("login", "", "The user's login id (email). The password will be prompted next.")
	addUserRole := addUserCmd.String("role", user.RoleAdmin, "One of admin, teacher or student.")

	resetPasswordCmd := flag.NewFlagSet("resetpassword", flag.ContinueOnError)
	resetPasswordLogin := resetPasswordCmd.String("login", "", "The user's login id (email). The password will be prompted next.")

	switch args[1] {
	case "adduser":
		if err := addUserCmd.Parse(args[2:]); err != nil {
			return errHelp
		}
		if *addUserName == "" || *addUserLogin == "" {
			addUserCmd.Usage()
			return errHelp
		}
		pwd, err := promptPassword(addUserCmd)
		if err != nil {
			return err
		}
		return cli.addUser(*addUserName, *addUserLogin, pwd, *addUserRole)

	case "resetpassword":
		if err := resetPasswordCmd.Parse(args[2:]); err != nil {
			return errHelp
		}
		if *resetPasswordLogin == "" {
			resetPasswordCmd.Usage()
			return errHelp
		}
		pwd, err := promptPassword(resetPasswordCmd)
		if err != nil {
			return err
		}
		return cli.resetPassword(*resetPasswordLogin, pwd)

	case "migrate":
		if len(args) < 3 {
			cli.printUsage()
			return errHelp
		}
		return cli.migrate(args[2:])

	case "seed":
		return cli.seed()

	default:
		cli.printUsage()
		return errHelp
	}
}
