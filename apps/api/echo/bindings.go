package echoapi

import (
	"context"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/ionode-cloud/ERP-Cell/core"
	"github.com/ionode-cloud/ERP-Cell/core/session"
	"github.com/ionode-cloud/ERP-Cell/core/student"
)

var orderingParam = "ordering"

type Ordering struct {
	Orderings []core.DBOrdering
}

func (ord *Ordering) Bind(ctx echo.Context) {
	data := ctx.QueryParams()
	if len(data) == 0 {
		return
	}
	val, ok := data[orderingParam]
	if !ok || len(val) == 0 || val[0] == "" {
		return
	}

	for _, field := range strings.Split(val[0], ",") {
		field = strings.TrimSpace(field)
		descending := strings.HasPrefix(field, "-")
		if descending {
			field = field[1:] // drop "-"
		}
		if field == "" {
			continue
		}
		ord.Orderings = append(ord.Orderings, core.DBOrdering{Field: field, Ascending: !descending})
	}
}

// bindQuery binds the query string whatever the request method.
func bindQuery(ctx echo.Context, dst interface{}) error {
	if err := (&echo.DefaultBinder{}).BindQueryParams(ctx, dst); err != nil {
		return errors.Wrap(err, "binding query params")
	}
	return nil
}

// respond writes the success envelope: `{success: true, data}` plus extra top-level fields.
func respond(ctx echo.Context, code int, data interface{}, extra ...echo.Map) error {
	body := echo.Map{"success": true}
	if data != nil {
		body["data"] = data
	}
	for _, m := range extra {
		for k, v := range m {
			body[k] = v
		}
	}
	return ctx.JSON(code, body)
}

func respondMessage(ctx echo.Context, msg string) error {
	return respond(ctx, http.StatusOK, nil, echo.Map{"message": msg})
}

// rosterOf names the students behind ids for session rows.
func rosterOf(ctx context.Context, svc *student.Service, ids []string) (session.Roster, error) {
	students, err := svc.Roster(ctx, ids)
	if err != nil {
		return nil, errors.Wrap(err, "loading roster")
	}
	roster := make(session.Roster, len(students))
	for id, s := range students {
		roster[id] = session.Member{Name: s.Name, RollNo: s.RollNo}
	}
	return roster, nil
}
