package echoapi

import (
	"fmt"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/ionode-cloud/ERP-Cell/core/mark"
	"github.com/ionode-cloud/ERP-Cell/core/session"
	"github.com/ionode-cloud/ERP-Cell/core/student"
	"github.com/ionode-cloud/ERP-Cell/core/teacher"
	"github.com/ionode-cloud/ERP-Cell/core/user"
)

type markApi struct {
	svc      *mark.Service
	students *student.Service
	teachers *teacher.Service
	validate *validator.Validate
}

func registerMarkAPI(g *echo.Group, auth echo.MiddlewareFunc, deps ServerDeps) {
	api := markApi{
		svc:      deps.MarkSvc,
		students: deps.StudentSvc,
		teachers: deps.TeacherSvc,
		validate: deps.Validate,
	}
	staff := roleMiddleware(user.RoleTeacher, user.RoleAdmin)

	mg := g.Group("/marks", auth)
	mg.POST("", api.record, staff)
	mg.POST("/bulk", api.recordBulk, staff)
	mg.GET("/me", api.me, roleMiddleware(user.RoleStudent))
	mg.GET("/branch/:branchId", api.listByBranch, staff)
	mg.GET("/branch/:branchId/sessions", api.sessions, staff)
}

// Handlers

func (api *markApi) record(ctx echo.Context) error {
	var data mark.NewMark
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewMark")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}
	markedBy, err := markerID(ctx, api.teachers)
	if err != nil {
		return err
	}

	r, err := api.svc.Record(ctx.Request().Context(), markedBy, data)
	if err != nil {
		return errors.Wrap(err, "recording mark")
	}
	return respond(ctx, http.StatusCreated, r)
}

func (api *markApi) recordBulk(ctx echo.Context) error {
	var data mark.BulkMarks
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to BulkMarks")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}
	markedBy, err := markerID(ctx, api.teachers)
	if err != nil {
		return err
	}

	res, err := api.svc.RecordBulk(ctx.Request().Context(), markedBy, data)
	if err != nil {
		return errors.Wrap(err, "recording marks")
	}
	return respond(ctx, http.StatusOK, res.Records, echo.Map{
		"message": fmt.Sprintf("Marks recorded for %d students", res.Summary.OK),
		"results": res.Results,
		"summary": res.Summary,
	})
}

func (api *markApi) me(ctx echo.Context) error {
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
		return errors.Wrap(err, "listing marks")
	}
	if records == nil {
		records = []mark.Record{}
	}
	return respond(ctx, http.StatusOK, records)
}

func (api *markApi) listByBranch(ctx echo.Context) error {
	var filter mark.Filter
	if err := bindQuery(ctx, &filter); err != nil {
		return err
	}
	records, err := api.svc.ListByBranch(ctx.Request().Context(), ctx.Param("branchId"), filter)
	if err != nil {
		return errors.Wrap(err, "listing branch marks")
	}
	if records == nil {
		records = []mark.Record{}
	}
	return respond(ctx, http.StatusOK, records)
}

func (api *markApi) sessions(ctx echo.Context) error {
	var filter mark.Filter
	if err := bindQuery(ctx, &filter); err != nil {
		return err
	}
	rctx := ctx.Request().Context()
	records, err := api.svc.ListByBranch(rctx, ctx.Param("branchId"), filter)
	if err != nil {
		return errors.Wrap(err, "listing branch marks")
	}

	ids := make([]string, 0, len(records))
	for _, r := range records {
		ids = append(ids, r.StudentID)
	}
	roster, err := rosterOf(rctx, api.students, ids)
	if err != nil {
		return err
	}
	return respond(ctx, http.StatusOK, session.GroupMarks(records, roster))
}
