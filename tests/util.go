package testutil

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/ionode-cloud/ERP-Cell/core"
	"github.com/ionode-cloud/ERP-Cell/core/attendance"
	"github.com/ionode-cloud/ERP-Cell/core/branch"
	"github.com/ionode-cloud/ERP-Cell/core/fee"
	"github.com/ionode-cloud/ERP-Cell/core/mark"
	"github.com/ionode-cloud/ERP-Cell/core/student"
	"github.com/ionode-cloud/ERP-Cell/core/teacher"
	"github.com/ionode-cloud/ERP-Cell/core/user"
	emailsvc "github.com/ionode-cloud/ERP-Cell/services/email"
	inmemdb "github.com/ionode-cloud/ERP-Cell/storage/database/inmem"
)

// NewConfig returns the TEST configuration backed by the in-memory engine.
func NewConfig() *core.Config {
	conf := core.NewConfig()
	conf.Env = "TEST"
	conf.Debug = true
	conf.TestMode = true
	conf.Database.Engine = core.EngineMemory
	conf.Server.DisableReqLogs = true
	return conf
}

// Logger records every message instead of printing it.
type Logger struct {
	mu       sync.Mutex
	Messages []string
}

var _ core.Logger = (*Logger)(nil)

func (l *Logger) log(level, msg string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.Messages = append(l.Messages, level+": "+msg)
}

func (l *Logger) Debug(msg string, _ ...interface{}) { l.log("DEBUG", msg) }
func (l *Logger) Info(msg string, _ ...interface{})  { l.log("INFO", msg) }
func (l *Logger) Warn(msg string, _ ...interface{})  { l.log("WARN", msg) }
func (l *Logger) Error(msg string, _ ...interface{}) { l.log("ERROR", msg) }
func (l *Logger) Fatal(msg string, _ ...interface{}) { l.log("FATAL", msg) }

// Services are the domain services wired to a fresh in-memory database.
type Services struct {
	Conf   *core.Config
	Logger *Logger
	DB     *inmemdb.DB

	UserRepo       user.Repository
	AttendanceRepo attendance.Repository
	MarkRepo       mark.Repository
	FeeRepo        fee.Repository

	Users      *user.Service
	Branches   *branch.Service
	Students   *student.Service
	Teachers   *teacher.Service
	Attendance *attendance.Service
	Marks      *mark.Service
	Fees       *fee.Service
}

func NewServices(t *testing.T) *Services {
	t.Helper()
	conf := NewConfig()
	logger := new(Logger)
	db := inmemdb.Open()

	usrRepo := inmemdb.NewUserRepository(db)
	branchRepo := inmemdb.NewBranchRepository(db)
	studentRepo := inmemdb.NewStudentRepository(db)
	teacherRepo := inmemdb.NewTeacherRepository(db)
	attRepo := inmemdb.NewAttendanceRepository(db)
	markRepo := inmemdb.NewMarkRepository(db)
	feeRepo := inmemdb.NewFeeRepository(db)

	usrSvc := user.NewService(usrRepo)
	branchSvc := branch.NewService(branchRepo, student.NewActiveCounter(studentRepo))
	studentSvc := student.NewService(studentRepo, usrSvc, branchSvc, fee.NewLedgers(feeRepo))
	email := emailsvc.NewConsoleServiceMock(conf, logger)

	return &Services{
		Conf:           conf,
		Logger:         logger,
		DB:             db,
		UserRepo:       usrRepo,
		AttendanceRepo: attRepo,
		MarkRepo:       markRepo,
		FeeRepo:        feeRepo,
		Users:          usrSvc,
		Branches:       branchSvc,
		Students:       studentSvc,
		Teachers:       teacher.NewService(teacherRepo, usrSvc, branchSvc),
		Attendance:     attendance.NewService(attRepo, branchSvc, conf, logger),
		Marks:          mark.NewService(markRepo, studentSvc, conf, logger),
		Fees:           fee.NewService(feeRepo, studentSvc, branchSvc, email, conf, logger),
	}
}

func CreateUser(t *testing.T, svc *user.Service, name, loginID, pwd, role string, isActive bool) user.User {
	t.Helper()
	ctx := context.Background()
	usr, err := svc.Create(ctx, user.NewUser{Name: name, LoginID: loginID, Password: pwd, Role: role})
	if err != nil {
		t.Fatalf("createUser() failed: %v", err)
	}
	if !isActive {
		if usr, err = svc.SetActive(ctx, usr.ID, false); err != nil {
			t.Fatalf("createUser() failed: %v", err)
		}
	}
	return usr
}

func CreateBranch(t *testing.T, svc *branch.Service, name, code string, totalFee float64, subjects ...string) branch.Branch {
	t.Helper()
	b, err := svc.Create(context.Background(), branch.NewBranch{
		Name:         name,
		Code:         code,
		FeeStructure: branch.FeeStructure{TotalFee: totalFee},
		Subjects:     subjects,
	})
	if err != nil {
		t.Fatalf("createBranch() failed: %v", err)
	}
	return b
}

// CreateStudent enrolls a student with email `<rollNo>@test.edu`.
func CreateStudent(t *testing.T, svc *student.Service, name, rollNo, branchID string) (student.Student, student.Credentials) {
	t.Helper()
	s, creds, err := svc.Create(context.Background(), student.NewStudent{
		Name:     name,
		Email:    fmt.Sprintf("%s@test.edu", rollNo),
		RollNo:   rollNo,
		BranchID: branchID,
	})
	if err != nil {
		t.Fatalf("createStudent() failed: %v", err)
	}
	return s, creds
}

// CreateTeacher hires a teacher with email `<employeeId>@test.edu`.
func CreateTeacher(t *testing.T, svc *teacher.Service, name, employeeID, branchID string, subjects ...string) (teacher.Teacher, student.Credentials) {
	t.Helper()
	tch, creds, err := svc.Create(context.Background(), teacher.NewTeacher{
		Name:       name,
		Email:      fmt.Sprintf("%s@test.edu", employeeID),
		EmployeeID: employeeID,
		BranchID:   branchID,
		Subjects:   subjects,
	})
	if err != nil {
		t.Fatalf("createTeacher() failed: %v", err)
	}
	return tch, creds
}
