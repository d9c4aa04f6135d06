package echoapi

import (
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/trezcool/malipo/core"
)

var orderingParam = "ordering"

// Ordering binds the `ordering` query param: a field name, prefixed by "-" for a descending order.
// Only the first field is honoured.
type Ordering struct {
	Ordering core.DBOrdering
	Set      bool
}

func (ord *Ordering) Bind(ctx echo.Context) {
	val := strings.TrimSpace(ctx.QueryParam(orderingParam))
	if val == "" {
		return
	}
	field := strings.TrimSpace(strings.Split(val, ",")[0])
	descending := strings.HasPrefix(field, "-")
	if descending {
		field = field[1:] // drop "-"
	}
	if field == "" {
		return
	}
	ord.Ordering = core.DBOrdering{Field: field, Ascending: !descending}
	ord.Set = true
}

// idParam parses a positive integer path param. Anything else is treated as an unknown resource.
func idParam(ctx echo.Context, name string) (int64, error) {
	id, err := strconv.ParseInt(ctx.Param(name), 10, 64)
	if err != nil || id < 1 {
		return 0, errHttpNotFound
	}
	return id, nil
}
