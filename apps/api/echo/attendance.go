package echoapi

import (
	"fmt"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/ionode-cloud/ERP-Cell/core/attendance"
	"github.com/ionode-cloud/ERP-Cell/core/session"
	"github.com/ionode-cloud/ERP-Cell/core/student"
	"github.com/ionode-cloud/ERP-Cell/core/teacher"
	"github.com/ionode-cloud/ERP-Cell/core/user"
)

type attendanceApi struct {
	svc      *attendance.Service
	students *student.Service
	teachers *teacher.Service
	validate *validator.Validate
}

func registerAttendanceAPI(g *echo.Group, auth echo.MiddlewareFunc, deps ServerDeps) {
	api := attendanceApi{
		svc:      deps.AttendanceSvc,
		students: deps.StudentSvc,
		teachers: deps.TeacherSvc,
		validate: deps.Validate,
	}
	staff := roleMiddleware(user.RoleTeacher, user.RoleAdmin)

	ag := g.Group("/attendance", auth)
	ag.POST("/mark", api.mark, staff)
	ag.GET("/me", api.me, roleMiddleware(user.RoleStudent))
	ag.GET("/stats", api.stats, roleMiddleware(user.RoleAdmin))
	ag.GET("/student/:studentId", api.listByStudent, staff)
	ag.GET("/branch/:branchId", api.listByBranch, staff)
	ag.GET("/branch/:branchId/sessions", api.sessions, staff)
	ag.PUT("/session", api.updateSession, staff)
	ag.DELETE("/session", api.deleteSession, staff)
}

// Handlers

func (api *attendanceApi) mark(ctx echo.Context) error {
	var data attendance.MarkBatch
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to MarkBatch")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}
	markedBy, err := markerID(ctx, api.teachers)
	if err != nil {
		return err
	}

	res, err := api.svc.Mark(ctx.Request().Context(), markedBy, data)
	if err != nil {
		return errors.Wrap(err, "marking attendance")
	}
	return respond(ctx, http.StatusOK, res.Records, echo.Map{
		"message": fmt.Sprintf("Attendance marked for %d students", res.Summary.OK),
		"results": res.Results,
		"summary": res.Summary,
	})
}

func (api *attendanceApi) me(ctx echo.Context) error {
	usr, err := getContextUser(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	rctx := ctx.Request().Context()
	s, err := api.students.GetByUser(rctx, usr.ID)
	if err != nil {
		return errors.Wrap(err, "getting student profile")
	}
	records, err := api.svc.ListByStudent(rctx, s.ID)
	if err != nil {
		return errors.Wrap(err, "listing attendance")
	}
	return respond(ctx, http.StatusOK, session.SummarizeStudent(records))
}

func (api *attendanceApi) listByStudent(ctx echo.Context) error {
	rctx := ctx.Request().Context()
	s, err := api.students.Get(rctx, ctx.Param("studentId"))
	if err != nil {
		return errors.Wrap(err, "getting student")
	}
	records, err := api.svc.ListByStudent(rctx, s.ID)
	if err != nil {
		return errors.Wrap(err, "listing attendance")
	}
	return respond(ctx, http.StatusOK, session.SummarizeStudent(records))
}

func (api *attendanceApi) listByBranch(ctx echo.Context) error {
	var filter attendance.Filter
	if err := bindQuery(ctx, &filter); err != nil {
		return err
	}
	records, err := api.svc.ListByBranch(ctx.Request().Context(), ctx.Param("branchId"), filter)
	if err != nil {
		return errors.Wrap(err, "listing branch attendance")
	}
	if records == nil {
		records = []attendance.Record{}
	}
	return respond(ctx, http.StatusOK, records)
}

func (api *attendanceApi) sessions(ctx echo.Context) error {
	var filter attendance.Filter
	if err := bindQuery(ctx, &filter); err != nil {
		return err
	}
	rctx := ctx.Request().Context()
	records, err := api.svc.ListByBranch(rctx, ctx.Param("branchId"), filter)
	if err != nil {
		return errors.Wrap(err, "listing branch attendance")
	}

	ids := make([]string, 0, len(records))
	for _, r := range records {
		ids = append(ids, r.StudentID)
	}
	roster, err := rosterOf(rctx, api.students, ids)
	if err != nil {
		return err
	}
	return respond(ctx, http.StatusOK, session.GroupAttendance(records, roster))
}

func (api *attendanceApi) stats(ctx echo.Context) error {
	stats, err := api.svc.Stats(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "computing attendance stats")
	}
	return respond(ctx, http.StatusOK, stats)
}

func (api *attendanceApi) updateSession(ctx echo.Context) error {
	var data attendance.SessionUpdate
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to SessionUpdate")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	res, err := api.svc.UpdateSession(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "updating session")
	}
	return respond(ctx, http.StatusOK, res.Records, echo.Map{
		"message": "Session updated",
		"results": res.Results,
		"summary": res.Summary,
	})
}

func (api *attendanceApi) deleteSession(ctx echo.Context) error {
	var data attendance.SessionRef
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to SessionRef")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	n, err := api.svc.DeleteSession(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "deleting session")
	}
	return respond(ctx, http.StatusOK, echo.Map{"deletedCount": n}, echo.Map{
		"message": fmt.Sprintf("Deleted %d attendance records", n),
	})
}

// markerID is the teacher profile ID of the acting user; admins mark anonymously.
func markerID(ctx echo.Context, teachers *teacher.Service) (string, error) {
	usr, err := getContextUser(ctx)
	if err != nil {
		return "", errors.Wrap(err, "getting context user")
	}
	if !usr.IsTeacher() {
		return "", nil
	}
	t, err := teachers.GetByUser(ctx.Request().Context(), usr.ID)
	if err != nil {
		return "", errors.Wrap(err, "getting teacher profile")
	}
	return t.ID, nil
}
