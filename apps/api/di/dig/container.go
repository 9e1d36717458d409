package dig_container

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	"go.uber.org/dig"

	echoapi "github.com/ionode-cloud/ERP-Cell/apps/api/echo"
	"github.com/ionode-cloud/ERP-Cell/core"
	"github.com/ionode-cloud/ERP-Cell/core/attendance"
	"github.com/ionode-cloud/ERP-Cell/core/branch"
	"github.com/ionode-cloud/ERP-Cell/core/fee"
	"github.com/ionode-cloud/ERP-Cell/core/mark"
	"github.com/ionode-cloud/ERP-Cell/core/student"
	"github.com/ionode-cloud/ERP-Cell/core/teacher"
	"github.com/ionode-cloud/ERP-Cell/core/user"
	emailsvc "github.com/ionode-cloud/ERP-Cell/services/email"
	logsvc "github.com/ionode-cloud/ERP-Cell/services/logger"
	"github.com/ionode-cloud/ERP-Cell/storage"
)

type DBLoggerParam struct {
	dig.In
	Logger core.Logger `name:"dbLogger"`
}

type serverParams struct {
	dig.In
	Conf       *core.Config
	Logger     core.Logger
	Validate   *validator.Validate
	Translator ut.Translator

	Users      *user.Service
	Branches   *branch.Service
	Students   *student.Service
	Teachers   *teacher.Service
	Attendance *attendance.Service
	Marks      *mark.Service
	Fees       *fee.Service
}

func newLogger(conf *core.Config) core.Logger {
	stdLogger := log.New(os.Stdout, "API : ", log.LstdFlags)
	logger := logsvc.NewRollbarLogger(stdLogger, conf)
	logger.Enable(!conf.Debug)
	return logger
}

func newDBLogger(conf *core.Config) core.Logger {
	stdLogger := log.New(os.Stdout, "DB : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile)
	logger := logsvc.NewRollbarLogger(stdLogger, conf)
	logger.Enable(!conf.Debug)
	return logger
}

func newStore(conf *core.Config, loggerParam DBLoggerParam) *storage.Store {
	ctx, cancel := context.WithTimeout(context.Background(), conf.Database.QueryTimeout()*3)
	defer cancel()

	store, err := storage.Open(ctx, conf, loggerParam.Logger)
	if err != nil {
		loggerParam.Logger.Fatal(fmt.Sprintf("setting up database: %v", err), err)
	}
	return store
}

func newRepositories(store *storage.Store) (
	user.Repository,
	branch.Repository,
	student.Repository,
	teacher.Repository,
	attendance.Repository,
	mark.Repository,
	fee.Repository,
) {
	return store.Users, store.Branches, store.Students, store.Teachers, store.Attendance, store.Marks, store.Fees
}

func newEmailService(conf *core.Config, logger core.Logger) core.EmailService {
	if conf.Debug {
		return emailsvc.NewConsoleService(conf, logger)
	}
	return emailsvc.NewSendgridService(conf, logger)
}

func newTranslator() ut.Translator {
	_en := en.New()
	uni := ut.New(_en, _en)
	translator, _ := uni.GetTranslator("en")
	return translator
}

func newStudentService(repo student.Repository, users *user.Service, branches *branch.Service, ledgers *fee.Ledgers) *student.Service {
	return student.NewService(repo, users, branches, ledgers)
}

func newTeacherService(repo teacher.Repository, users *user.Service, branches *branch.Service) *teacher.Service {
	return teacher.NewService(repo, users, branches)
}

func newAttendanceService(repo attendance.Repository, branches *branch.Service, conf *core.Config, logger core.Logger) *attendance.Service {
	return attendance.NewService(repo, branches, conf, logger)
}

func newMarkService(repo mark.Repository, students *student.Service, conf *core.Config, logger core.Logger) *mark.Service {
	return mark.NewService(repo, students, conf, logger)
}

func newFeeService(
	repo fee.Repository,
	students *student.Service,
	branches *branch.Service,
	email core.EmailService,
	conf *core.Config,
	logger core.Logger,
) *fee.Service {
	return fee.NewService(repo, students, branches, email, conf, logger)
}

func newServer(p serverParams) *echoapi.Server {
	return echoapi.NewServer(echoapi.ServerDeps{
		Conf:          p.Conf,
		Logger:        p.Logger,
		Validate:      p.Validate,
		Translator:    p.Translator,
		UserSvc:       p.Users,
		BranchSvc:     p.Branches,
		StudentSvc:    p.Students,
		TeacherSvc:    p.Teachers,
		AttendanceSvc: p.Attendance,
		MarkSvc:       p.Marks,
		FeeSvc:        p.Fees,
	})
}

// New returns a new dependency injection dig.Container
func New() *dig.Container {
	c := dig.New()

	must(c.Provide(core.NewConfig))
	must(c.Provide(newLogger))
	must(c.Provide(newDBLogger, dig.Name("dbLogger")))
	must(c.Provide(newStore))
	must(c.Provide(newRepositories))
	must(c.Provide(newEmailService))
	must(c.Provide(validator.New))
	must(c.Provide(newTranslator))

	must(c.Provide(user.NewService))
	must(c.Provide(student.NewActiveCounter))
	must(c.Provide(branch.NewService))
	must(c.Provide(fee.NewLedgers))
	must(c.Provide(newStudentService))
	must(c.Provide(newTeacherService))
	must(c.Provide(newAttendanceService))
	must(c.Provide(newMarkService))
	must(c.Provide(newFeeService))
	must(c.Provide(newServer))

	return c
}

// must exits program if err happened
func must(err error) {
	if err != nil {
		log.Fatal(errors.Wrap(err, "failed to provide dependency").Error())
	}
}
