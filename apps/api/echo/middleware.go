package echoapi

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
)

// roleMiddleware lets through users holding one of roles. It must run after authMiddleware.
func roleMiddleware(roles ...string) echo.MiddlewareFunc {
	denied := echo.NewHTTPError(http.StatusForbidden, fmt.Sprintf("Access denied. Requires role: %s", strings.Join(roles, " or ")))
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			usr, err := getContextUser(ctx)
			if err != nil {
				return errors.Wrap(err, "getting context user")
			}
			if usr.HasRole(roles...) {
				return next(ctx)
			}
			return denied
		}
	}
}
