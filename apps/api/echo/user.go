package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/ionode-cloud/ERP-Cell/core"
	"github.com/ionode-cloud/ERP-Cell/core/user"
)

type authApi struct {
	conf     *core.Config
	svc      *user.Service
	validate *validator.Validate
}

func registerAuthAPI(g *echo.Group, auth echo.MiddlewareFunc, deps ServerDeps) {
	api := authApi{
		conf:     deps.Conf,
		svc:      deps.UserSvc,
		validate: deps.Validate,
	}

	ag := g.Group("/auth")

	// un-authed endpoints
	ag.POST("/login", api.login)

	// authed endpoints
	ag.GET("/me", api.me, auth)
	ag.POST("/token-refresh", api.refreshToken, auth)
	ag.PUT("/password", api.changePassword, auth)
}

// Handlers

func (api *authApi) login(ctx echo.Context) error {
	var data LoginRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to LoginRequest")
	}
	if err := data.Validate(api.validate); err != nil {
		return core.NewValidationError(errors.New("Please provide loginId and password"))
	}

	usr, err := api.svc.Authenticate(ctx.Request().Context(), data.LoginID, data.Password)
	if err != nil {
		switch errors.Cause(err) {
		case user.ErrInvalidCredentials:
			return errAuthenticationFailed
		case user.ErrAccountDeactivated:
			return errAccountDeactivated
		}
		return errors.Wrap(err, "authenticating")
	}
	token, err := GenerateToken(api.conf, NewClaims(api.conf, usr))
	if err != nil {
		return errors.Wrap(err, "generating token")
	}
	return respond(ctx, http.StatusOK, nil, echo.Map{"token": token, "user": usr})
}

func (api *authApi) me(ctx echo.Context) error {
	usr, err := getContextUser(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	return respond(ctx, http.StatusOK, usr)
}

func (api *authApi) refreshToken(ctx echo.Context) error {
	token, err := refreshToken(ctx, api.conf)
	if err != nil {
		return errors.Wrap(err, "refreshing token")
	}
	return respond(ctx, http.StatusOK, nil, echo.Map{"token": token})
}

func (api *authApi) changePassword(ctx echo.Context) error {
	usr, err := getContextUser(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	var data user.ChangePassword
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to ChangePassword")
	}
	if err = data.Validate(usr, api.validate); err != nil {
		return err
	}
	if _, err = api.svc.ChangePassword(ctx.Request().Context(), usr, data); err != nil {
		return errors.Wrap(err, "changing password")
	}
	return respondMessage(ctx, "Password changed successfully")
}

type LoginRequest struct {
	LoginID  string `json:"loginId" validate:"required"`
	Password string `json:"password" validate:"required"`
}

func (lr *LoginRequest) Validate(validate *validator.Validate) error {
	lr.LoginID = core.CleanString(lr.LoginID, true /* lower */)
	return validate.Struct(lr)
}
