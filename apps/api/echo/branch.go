package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/ionode-cloud/ERP-Cell/core/branch"
	"github.com/ionode-cloud/ERP-Cell/core/student"
	"github.com/ionode-cloud/ERP-Cell/core/teacher"
	"github.com/ionode-cloud/ERP-Cell/core/user"
)

type branchApi struct {
	svc      *branch.Service
	students *student.Service
	teachers *teacher.Service
	validate *validator.Validate
}

func registerBranchAPI(g *echo.Group, auth echo.MiddlewareFunc, deps ServerDeps) {
	api := branchApi{
		svc:      deps.BranchSvc,
		students: deps.StudentSvc,
		teachers: deps.TeacherSvc,
		validate: deps.Validate,
	}
	admin := roleMiddleware(user.RoleAdmin)

	bg := g.Group("/branches", auth)
	bg.GET("", api.query)
	bg.POST("", api.create, admin)
	bg.GET("/:id", api.retrieve)
	bg.PUT("/:id", api.update, admin)
	bg.DELETE("/:id", api.destroy, admin)
}

type (
	// branchListItem is a branch with its active headcounts.
	branchListItem struct {
		branch.Branch
		StudentCount int `json:"studentCount"`
		TeacherCount int `json:"teacherCount"`
	}

	branchStudent struct {
		ID       string `json:"id"`
		Name     string `json:"name"`
		RollNo   string `json:"rollNo"`
		Semester int    `json:"semester"`
	}

	branchTeacher struct {
		ID         string   `json:"id"`
		Name       string   `json:"name"`
		EmployeeID string   `json:"employeeId"`
		Subjects   []string `json:"subjects"`
	}

	branchDetail struct {
		branch.Branch
		Students []branchStudent `json:"students"`
		Teachers []branchTeacher `json:"teachers"`
	}
)

// Handlers

func (api *branchApi) query(ctx echo.Context) error {
	var filter branch.QueryFilter
	if err := bindQuery(ctx, &filter); err != nil {
		return err
	}
	rctx := ctx.Request().Context()

	branches, err := api.svc.Query(rctx, filter)
	if err != nil {
		return errors.Wrap(err, "querying branches")
	}
	studentCounts, err := api.students.CountByBranch(rctx)
	if err != nil {
		return errors.Wrap(err, "counting students")
	}
	teacherCounts, err := api.teachers.CountByBranch(rctx)
	if err != nil {
		return errors.Wrap(err, "counting teachers")
	}

	items := make([]branchListItem, 0, len(branches))
	for _, b := range branches {
		items = append(items, branchListItem{
			Branch:       b,
			StudentCount: studentCounts[b.ID],
			TeacherCount: teacherCounts[b.ID],
		})
	}
	return respond(ctx, http.StatusOK, items)
}

func (api *branchApi) retrieve(ctx echo.Context) error {
	rctx := ctx.Request().Context()
	b, err := api.svc.Get(rctx, ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "getting branch")
	}

	students, err := api.students.List(rctx, student.QueryFilter{BranchID: b.ID})
	if err != nil {
		return errors.Wrap(err, "listing students")
	}
	teachers, err := api.teachers.List(rctx, teacher.QueryFilter{BranchID: b.ID})
	if err != nil {
		return errors.Wrap(err, "listing teachers")
	}

	detail := branchDetail{
		Branch:   b,
		Students: make([]branchStudent, 0, len(students)),
		Teachers: make([]branchTeacher, 0, len(teachers)),
	}
	for _, s := range students {
		detail.Students = append(detail.Students, branchStudent{ID: s.ID, Name: s.Name, RollNo: s.RollNo, Semester: s.Semester})
	}
	for _, t := range teachers {
		detail.Teachers = append(detail.Teachers, branchTeacher{ID: t.ID, Name: t.Name, EmployeeID: t.EmployeeID, Subjects: t.Subjects})
	}
	return respond(ctx, http.StatusOK, detail)
}

func (api *branchApi) create(ctx echo.Context) error {
	var data branch.NewBranch
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewBranch")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	b, err := api.svc.Create(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating branch")
	}
	return respond(ctx, http.StatusCreated, b)
}

func (api *branchApi) update(ctx echo.Context) error {
	var data branch.UpdateBranch
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateBranch")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	b, err := api.svc.Update(ctx.Request().Context(), ctx.Param("id"), data)
	if err != nil {
		return errors.Wrap(err, "updating branch")
	}
	return respond(ctx, http.StatusOK, b)
}

func (api *branchApi) destroy(ctx echo.Context) error {
	if err := api.svc.Delete(ctx.Request().Context(), ctx.Param("id")); err != nil {
		return errors.Wrap(err, "deleting branch")
	}
	return respondMessage(ctx, "Branch deleted successfully")
}
