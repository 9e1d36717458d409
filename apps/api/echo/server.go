package echoapi

import (
	"net/http"
	"os"
	"os/signal"
	"regexp"
	"syscall"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/log"

	"github.com/ionode-cloud/ERP-Cell/core"
	"github.com/ionode-cloud/ERP-Cell/core/attendance"
	"github.com/ionode-cloud/ERP-Cell/core/branch"
	"github.com/ionode-cloud/ERP-Cell/core/fee"
	"github.com/ionode-cloud/ERP-Cell/core/mark"
	"github.com/ionode-cloud/ERP-Cell/core/student"
	"github.com/ionode-cloud/ERP-Cell/core/teacher"
	"github.com/ionode-cloud/ERP-Cell/core/user"
)

var localOrigin = regexp.MustCompile(`^http://localhost:\d+$`)

type (
	ServerDeps struct {
		Conf       *core.Config
		Logger     core.Logger
		Validate   *validator.Validate
		Translator ut.Translator

		UserSvc       *user.Service
		BranchSvc     *branch.Service
		StudentSvc    *student.Service
		TeacherSvc    *teacher.Service
		AttendanceSvc *attendance.Service
		MarkSvc       *mark.Service
		FeeSvc        *fee.Service
	}

	// Server is the HTTP API. Shutdown and Close come from the embedded http.Server.
	Server struct {
		*http.Server
		deps     ServerDeps
		app      *echo.Echo
		errors   chan error
		shutdown chan os.Signal
	}
)

func NewServer(deps ServerDeps) *Server {
	conf := deps.Conf
	s := &Server{
		deps:     deps,
		app:      echo.New(),
		errors:   make(chan error, 1),
		shutdown: make(chan os.Signal, 1),
	}
	s.Server = &http.Server{
		Addr:         conf.Server.Addr,
		Handler:      s.app,
		ReadTimeout:  conf.Server.ReadTimeout,
		WriteTimeout: conf.Server.WriteTimeout,
	}
	signal.Notify(s.shutdown, os.Interrupt, syscall.SIGTERM)
	s.setup()
	return s
}

func (s *Server) setup() {
	conf := s.deps.Conf

	s.app.HideBanner = true
	s.app.Pre(middleware.RemoveTrailingSlash())
	if !conf.Server.DisableReqLogs {
		s.app.Use(middleware.Logger())
	}
	// do not recover in DEV|TEST mode
	if !(conf.Debug || conf.TestMode) {
		s.app.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{LogLevel: log.ERROR}))
	}
	s.app.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOriginFunc:  s.allowOrigin,
		AllowCredentials: true,
	}))

	s.app.HTTPErrorHandler = newAppHTTPErrorHandler(s.deps.Logger, s.deps.Translator, s.SignalShutdown)
	s.app.Debug = conf.Debug

	s.app.GET("/", home)

	g := s.app.Group("/api")
	auth := s.authMiddleware

	registerAuthAPI(g, auth, s.deps)
	registerBranchAPI(g, auth, s.deps)
	registerStudentAPI(g, auth, s.deps)
	registerTeacherAPI(g, auth, s.deps)
	registerFeeAPI(g, auth, s.deps)
	registerAttendanceAPI(g, auth, s.deps)
	registerMarkAPI(g, auth, s.deps)
}

// allowOrigin accepts the configured origins and any local frontend.
func (s *Server) allowOrigin(origin string) (bool, error) {
	if localOrigin.MatchString(origin) {
		return true, nil
	}
	for _, allowed := range s.deps.Conf.Server.AllowedOrigins {
		if allowed == "*" || allowed == origin {
			return true, nil
		}
	}
	return false, nil
}

// Start listens until the server is shut down; failures are sent to Errors.
func (s *Server) Start() {
	s.deps.Logger.Info("API listening on " + s.Addr)
	if err := s.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		s.errors <- err
	}
}

func (s *Server) Errors() <-chan error {
	return s.errors
}

func (s *Server) ShutdownSignal() <-chan os.Signal {
	return s.shutdown
}

// SignalShutdown asks the owner of the server to shut it down gracefully.
func (s *Server) SignalShutdown() {
	select {
	case s.shutdown <- syscall.SIGTERM:
	default:
	}
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) { // for tests
	s.app.ServeHTTP(w, r)
}

func home(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, echo.Map{"message": "College ERP API Running"})
}
