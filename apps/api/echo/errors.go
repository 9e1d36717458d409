package echoapi

import (
	"fmt"
	"net/http"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/ionode-cloud/ERP-Cell/core"
	"github.com/ionode-cloud/ERP-Cell/core/user"
)

const validationFailed = "Validation failed"

var (
	errMissingToken         = echo.NewHTTPError(http.StatusUnauthorized, "Access denied. No token provided.")
	errInvalidToken         = echo.NewHTTPError(http.StatusUnauthorized, "Invalid token.")
	errInactiveUser         = echo.NewHTTPError(http.StatusUnauthorized, "User not found or deactivated.")
	errAuthenticationFailed = echo.NewHTTPError(http.StatusUnauthorized, "Invalid credentials")
	errAccountDeactivated   = echo.NewHTTPError(http.StatusForbidden, "Account deactivated. Contact admin.")
	errRefreshExpired       = echo.NewHTTPError(http.StatusForbidden, "Refresh has expired.")
)

// errorResponse is the body of every failed request.
type errorResponse struct {
	Success bool              `json:"success"`
	Message string            `json:"message"`
	Errors  map[string]string `json:"errors,omitempty"`
}

// newAppHTTPErrorHandler returns a custom echo.HTTPErrorHandler that knows how to handle our errors.
// signalShutdown is called in order to gracefully shutdown the Server whenever a core.shutdown error is caught.
func newAppHTTPErrorHandler(logger core.Logger, translator ut.Translator, signalShutdown func()) echo.HTTPErrorHandler {
	return func(err error, ctx echo.Context) {
		var code int
		resp := errorResponse{Success: false}

		switch origErr := errors.Cause(err).(type) {
		case *echo.HTTPError:
			if herr, ok := origErr.Internal.(*echo.HTTPError); ok {
				origErr = herr
			}
			code = origErr.Code
			resp.Message = fmt.Sprint(origErr.Message)
		case validator.ValidationErrors:
			resp.Errors = make(map[string]string, len(origErr))
			for _, vErr := range origErr {
				resp.Errors[vErr.Field()] = vErr.Translate(translator)
			}
			code = http.StatusBadRequest
			resp.Message = validationFailed
		case *core.ValidationError:
			if origErr.Fields != nil {
				resp.Errors = make(map[string]string, len(origErr.Fields))
				for _, fErr := range origErr.Fields {
					resp.Errors[fErr.Field] = fErr.Error
				}
			}
			code = http.StatusBadRequest
			resp.Message = origErr.Error()
			if resp.Message == "" {
				resp.Message = validationFailed
			}
		case *core.NotFoundError:
			code = http.StatusNotFound
			resp.Message = origErr.Error()
		default: // any other error is a server error
			code = http.StatusInternalServerError
			msg := http.StatusText(http.StatusInternalServerError)
			resp.Message = msg
			if ctx.Echo().Debug {
				resp.Message = err.Error()
			}

			var usr user.User
			if u, ok := ctx.Get(contextUserKey).(user.User); ok {
				usr = u
			}
			logger.Error(msg, errors.Wrap(err, msg), usr)

			// shutting down...
			if core.IsShutdown(err) {
				signalShutdown()
			}
		}

		// Send response
		if !ctx.Response().Committed {
			if ctx.Request().Method == http.MethodHead { // Issue #608
				err = ctx.NoContent(code)
			} else {
				err = ctx.JSON(code, resp)
			}
			if err != nil {
				ctx.Echo().Logger.Error(err)
			}
		}
	}
}
