package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/ionode-cloud/ERP-Cell/core"
	"github.com/ionode-cloud/ERP-Cell/core/teacher"
	"github.com/ionode-cloud/ERP-Cell/core/user"
)

type teacherApi struct {
	svc      *teacher.Service
	validate *validator.Validate
}

func registerTeacherAPI(g *echo.Group, auth echo.MiddlewareFunc, deps ServerDeps) {
	api := teacherApi{
		svc:      deps.TeacherSvc,
		validate: deps.Validate,
	}
	admin := roleMiddleware(user.RoleAdmin)

	tg := g.Group("/teachers", auth)
	tg.GET("/me", api.me, roleMiddleware(user.RoleTeacher))
	tg.GET("", api.query, admin)
	tg.POST("", api.create, admin)
	tg.GET("/:id", api.retrieve, admin)
	tg.PUT("/:id", api.update, admin)
	tg.DELETE("/:id", api.destroy, admin)
	tg.POST("/:id/credentials", api.regenerateCredentials, admin)
}

// Handlers

func (api *teacherApi) query(ctx echo.Context) error {
	var filter teacher.QueryFilter
	if err := bindQuery(ctx, &filter); err != nil {
		return err
	}
	var page core.Pagination
	if err := bindQuery(ctx, &page); err != nil {
		return err
	}
	ordering := new(Ordering)
	ordering.Bind(ctx)

	res, err := api.svc.Query(ctx.Request().Context(), filter, ordering.Orderings, page)
	if err != nil {
		return errors.Wrap(err, "querying teachers")
	}
	return respond(ctx, http.StatusOK, res.Teachers, echo.Map{"total": res.Total, "page": res.Page, "pages": res.Pages})
}

func (api *teacherApi) me(ctx echo.Context) error {
	usr, err := getContextUser(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	t, err := api.svc.GetByUser(ctx.Request().Context(), usr.ID)
	if err != nil {
		return errors.Wrap(err, "getting teacher profile")
	}
	return respond(ctx, http.StatusOK, t)
}

func (api *teacherApi) retrieve(ctx echo.Context) error {
	t, err := api.svc.Get(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "getting teacher")
	}
	return respond(ctx, http.StatusOK, t)
}

func (api *teacherApi) create(ctx echo.Context) error {
	var data teacher.NewTeacher
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewTeacher")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	t, creds, err := api.svc.Create(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating teacher")
	}
	return respond(ctx, http.StatusCreated, t, echo.Map{"credentials": creds})
}

func (api *teacherApi) update(ctx echo.Context) error {
	var data teacher.UpdateTeacher
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateTeacher")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	t, err := api.svc.Update(ctx.Request().Context(), ctx.Param("id"), data)
	if err != nil {
		return errors.Wrap(err, "updating teacher")
	}
	return respond(ctx, http.StatusOK, t)
}

func (api *teacherApi) destroy(ctx echo.Context) error {
	if err := api.svc.Delete(ctx.Request().Context(), ctx.Param("id")); err != nil {
		return errors.Wrap(err, "deleting teacher")
	}
	return respondMessage(ctx, "Teacher deleted successfully")
}

func (api *teacherApi) regenerateCredentials(ctx echo.Context) error {
	creds, err := api.svc.RegenerateCredentials(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "regenerating credentials")
	}
	return respond(ctx, http.StatusOK, nil, echo.Map{"credentials": creds})
}
