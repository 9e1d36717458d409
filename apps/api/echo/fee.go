package echoapi

import (
	"fmt"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/ionode-cloud/ERP-Cell/core/fee"
	"github.com/ionode-cloud/ERP-Cell/core/student"
	"github.com/ionode-cloud/ERP-Cell/core/user"
)

type feeApi struct {
	svc      *fee.Service
	students *student.Service
	validate *validator.Validate
}

func registerFeeAPI(g *echo.Group, auth echo.MiddlewareFunc, deps ServerDeps) {
	api := feeApi{
		svc:      deps.FeeSvc,
		students: deps.StudentSvc,
		validate: deps.Validate,
	}
	admin := roleMiddleware(user.RoleAdmin)

	fg := g.Group("/fees", auth)
	fg.GET("/summary", api.summary, admin)
	fg.GET("/me", api.me, roleMiddleware(user.RoleStudent))
	fg.GET("", api.query, admin)
	fg.GET("/student/:studentId", api.retrieveByStudent, roleMiddleware(user.RoleAdmin, user.RoleTeacher))
	fg.POST("/payment", api.addPayment, admin)
	fg.POST("/branch-payment", api.addBranchPayment, admin)
	fg.POST("/send-alert", api.sendAlerts, admin)
}

// Handlers

func (api *feeApi) query(ctx echo.Context) error {
	var filter fee.QueryFilter
	if err := bindQuery(ctx, &filter); err != nil {
		return err
	}
	accs, err := api.svc.Query(ctx.Request().Context(), filter)
	if err != nil {
		return errors.Wrap(err, "querying fees")
	}
	return respond(ctx, http.StatusOK, accs)
}

func (api *feeApi) me(ctx echo.Context) error {
	usr, err := getContextUser(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	rctx := ctx.Request().Context()
	s, err := api.students.GetByUser(rctx, usr.ID)
	if err != nil {
		return errors.Wrap(err, "getting student profile")
	}
	acc, err := api.svc.GetByStudent(rctx, s.ID)
	if err != nil {
		return errors.Wrap(err, "getting fee record")
	}
	return respond(ctx, http.StatusOK, acc)
}

func (api *feeApi) retrieveByStudent(ctx echo.Context) error {
	acc, err := api.svc.GetByStudent(ctx.Request().Context(), ctx.Param("studentId"))
	if err != nil {
		return errors.Wrap(err, "getting fee record")
	}
	return respond(ctx, http.StatusOK, acc)
}

func (api *feeApi) addPayment(ctx echo.Context) error {
	var data fee.NewPayment
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewPayment")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	f, err := api.svc.AddPayment(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "adding payment")
	}
	return respond(ctx, http.StatusOK, f, echo.Map{"message": "Payment recorded successfully"})
}

func (api *feeApi) addBranchPayment(ctx echo.Context) error {
	var data fee.BranchPayment
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to BranchPayment")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	fees, sum, err := api.svc.AddBranchPayment(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "adding branch payment")
	}
	return respond(ctx, http.StatusOK, fees, echo.Map{
		"message": fmt.Sprintf("Payment of %g applied to %d students", data.Amount, sum.OK),
		"summary": sum,
	})
}

func (api *feeApi) sendAlerts(ctx echo.Context) error {
	var data fee.AlertFilter
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to AlertFilter")
	}

	alerts, err := api.svc.SendAlerts(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "sending payment alerts")
	}
	return respond(ctx, http.StatusOK, alerts, echo.Map{
		"message": fmt.Sprintf("Alert sent to %d student(s) with pending dues", len(alerts)),
	})
}

func (api *feeApi) summary(ctx echo.Context) error {
	sum, err := api.svc.Summary(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "summarizing fees")
	}
	return respond(ctx, http.StatusOK, sum)
}
