package echoapi

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/bmwamba/darasa/core"
	"github.com/bmwamba/darasa/core/visit"
)

type visitApi struct {
	svc *visit.Service
}

func registerVisitAPI(g *echo.Group, jwt, authed echo.MiddlewareFunc, svc *visit.Service) {
	api := visitApi{svc: svc}

	// admin only
	vg := g.Group("/visits", jwt, authed, adminMiddleware())
	vg.GET("/stats", api.stats)
}

// Handlers

func (api *visitApi) stats(ctx echo.Context) error {
	filter, err := bindStatsFilter(ctx)
	if err != nil {
		return err
	}

	stats, err := api.svc.Stats(ctx.Request().Context(), filter)
	if err != nil {
		return errors.Wrap(err, "querying visit stats")
	}
	if stats.PerDay == nil {
		stats.PerDay = []visit.DayCount{}
	}
	return ctx.JSON(http.StatusOK, stats)
}

// bindStatsFilter accepts 2006-01-02 bounds; To is inclusive of its day.
func bindStatsFilter(ctx echo.Context) (*visit.StatsFilter, error) {
	filter := new(visit.StatsFilter)
	if raw := ctx.QueryParam("from"); raw != "" {
		from, err := time.Parse("2006-01-02", raw)
		if err != nil {
			return nil, core.NewValidationError(nil, core.FieldError{Field: "from", Error: "invalid date, expected 2006-01-02"})
		}
		filter.From = from
	}
	if raw := ctx.QueryParam("to"); raw != "" {
		to, err := time.Parse("2006-01-02", raw)
		if err != nil {
			return nil, core.NewValidationError(nil, core.FieldError{Field: "to", Error: "invalid date, expected 2006-01-02"})
		}
		filter.To = to.Add(24*time.Hour - time.Nanosecond)
	}
	return filter, nil
}
