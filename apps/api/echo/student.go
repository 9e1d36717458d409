package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/ionode-cloud/ERP-Cell/core"
	"github.com/ionode-cloud/ERP-Cell/core/student"
	"github.com/ionode-cloud/ERP-Cell/core/user"
)

type studentApi struct {
	svc      *student.Service
	validate *validator.Validate
}

func registerStudentAPI(g *echo.Group, auth echo.MiddlewareFunc, deps ServerDeps) {
	api := studentApi{
		svc:      deps.StudentSvc,
		validate: deps.Validate,
	}
	admin := roleMiddleware(user.RoleAdmin)
	staff := roleMiddleware(user.RoleAdmin, user.RoleTeacher)

	sg := g.Group("/students", auth)
	sg.GET("/stats", api.stats, admin)
	sg.GET("/me", api.me, roleMiddleware(user.RoleStudent))
	sg.GET("", api.query, staff)
	sg.POST("", api.create, admin)

	// detail endpoints
	sg.GET("/:id", api.retrieve, staff)
	sg.PUT("/:id", api.update, admin)
	sg.DELETE("/:id", api.destroy, admin)
	sg.POST("/:id/credentials", api.regenerateCredentials, admin)
}

// Handlers

func (api *studentApi) query(ctx echo.Context) error {
	var filter student.QueryFilter
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
		return errors.Wrap(err, "querying students")
	}
	return respond(ctx, http.StatusOK, res.Students, echo.Map{"total": res.Total, "page": res.Page, "pages": res.Pages})
}

func (api *studentApi) me(ctx echo.Context) error {
	usr, err := getContextUser(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	s, err := api.svc.GetByUser(ctx.Request().Context(), usr.ID)
	if err != nil {
		return errors.Wrap(err, "getting student profile")
	}
	return respond(ctx, http.StatusOK, s)
}

func (api *studentApi) retrieve(ctx echo.Context) error {
	s, err := api.svc.Get(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "getting student")
	}
	return respond(ctx, http.StatusOK, s)
}

func (api *studentApi) create(ctx echo.Context) error {
	var data student.NewStudent
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewStudent")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	s, creds, err := api.svc.Create(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating student")
	}
	return respond(ctx, http.StatusCreated, s, echo.Map{"credentials": creds})
}

func (api *studentApi) update(ctx echo.Context) error {
	var data student.UpdateStudent
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateStudent")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	s, err := api.svc.Update(ctx.Request().Context(), ctx.Param("id"), data)
	if err != nil {
		return errors.Wrap(err, "updating student")
	}
	return respond(ctx, http.StatusOK, s)
}

func (api *studentApi) destroy(ctx echo.Context) error {
	if err := api.svc.Delete(ctx.Request().Context(), ctx.Param("id")); err != nil {
		return errors.Wrap(err, "deleting student")
	}
	return respondMessage(ctx, "Student deleted successfully")
}

func (api *studentApi) regenerateCredentials(ctx echo.Context) error {
	creds, err := api.svc.RegenerateCredentials(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "regenerating credentials")
	}
	return respond(ctx, http.StatusOK, nil, echo.Map{"credentials": creds})
}

func (api *studentApi) stats(ctx echo.Context) error {
	stats, err := api.svc.Stats(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "computing student stats")
	}
	return respond(ctx, http.StatusOK, stats)
}
