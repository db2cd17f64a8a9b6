package echoapi

import (
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/bmwamba/darasa/core"
)

const orderingParam = "ordering"

// Ordering captures the "ordering" query param as a list of column terms.
// A leading "-" marks a descending field, e.g. "?ordering=-created_at,name".
type Ordering struct {
	Orderings []core.DBOrdering
}

func (ord *Ordering) Bind(ctx echo.Context) {
	raw := ctx.QueryParam(orderingParam)
	if raw == "" {
		return
	}

	for _, field := range strings.Split(raw, ",") {
		field = strings.TrimSpace(field)
		if field == "" {
			continue
		}
		if strings.HasPrefix(field, "-") {
			ord.Orderings = append(ord.Orderings, core.DBOrdering{Field: field[1:]})
			continue
		}
		ord.Orderings = append(ord.Orderings, core.DBOrdering{Field: field, Ascending: true})
	}
}
