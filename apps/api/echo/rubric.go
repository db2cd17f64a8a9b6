package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/bmwamba/darasa/core/rubric"
)

type rubricApi struct {
	svc *rubric.Service
}

func registerRubricAPI(g *echo.Group, jwt, authed echo.MiddlewareFunc, svc *rubric.Service) {
	api := rubricApi{svc: svc}

	rg := g.Group("/rubrics", jwt, authed)
	rg.GET("", api.query)
	rg.GET("/:id", api.retrieve)

	// admin only
	ad := adminMiddleware()
	rg.POST("", api.create, ad)
	rg.PUT("/:id", api.update, ad)
	rg.DELETE("/:id", api.destroy, ad)
}

// Handlers

func (api *rubricApi) query(ctx echo.Context) error {
	rubrics, err := api.svc.QueryAll(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "querying rubrics")
	}
	if rubrics == nil {
		rubrics = []rubric.Rubric{}
	}
	return ctx.JSON(http.StatusOK, rubrics)
}

func (api *rubricApi) retrieve(ctx echo.Context) error {
	rub, err := api.svc.GetByID(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, rub)
}

func (api *rubricApi) create(ctx echo.Context) error {
	var data rubric.NewRubric
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewRubric")
	}
	if err := data.Validate(); err != nil {
		return err
	}

	rub, err := api.svc.Create(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating rubric")
	}
	return ctx.JSON(http.StatusCreated, rub)
}

func (api *rubricApi) update(ctx echo.Context) error {
	rub, err := api.svc.GetByID(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return err
	}

	var data rubric.UpdateRubric
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateRubric")
	}
	if err := data.Validate(rub); err != nil {
		return err
	}

	rub, err = api.svc.Update(ctx.Request().Context(), rub.ID, data)
	if err != nil {
		return errors.Wrap(err, "updating rubric")
	}
	return ctx.JSON(http.StatusOK, rub)
}

func (api *rubricApi) destroy(ctx echo.Context) error {
	rub, err := api.svc.GetByID(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return err
	}
	if err := api.svc.Delete(ctx.Request().Context(), rub.ID); err != nil {
		return errors.Wrap(err, "deleting rubric")
	}
	return ctx.NoContent(http.StatusNoContent)
}
