package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/bmwamba/darasa/core"
	"github.com/bmwamba/darasa/core/submission"
	"github.com/bmwamba/darasa/core/user"
)

type submissionApi struct {
	svc     *submission.Service
	userSvc *user.Service
}

func registerSubmissionAPI(g *echo.Group, jwt, authed echo.MiddlewareFunc, svc *submission.Service, userSvc *user.Service) {
	api := submissionApi{svc: svc, userSvc: userSvc}

	sg := g.Group("/submissions", jwt, authed)
	sg.POST("", api.create)
	sg.GET("", api.query)
	sg.GET("/:id", api.retrieve)
	sg.PUT("/:id", api.update)
	sg.DELETE("/:id", api.destroy)

	// admin only
	ad := adminMiddleware()
	sg.POST("/:id/feedback", api.attachFeedback, ad)
	sg.PUT("/:id/status", api.setStatus, ad)
}

// Handlers

func (api *submissionApi) create(ctx echo.Context) error {
	usr, err := getContextUser(ctx, api.userSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	var data submission.NewSubmission
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewSubmission")
	}
	if err := data.Validate(); err != nil {
		return err
	}

	sub, err := api.svc.Create(ctx.Request().Context(), usr, data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, sub)
}

func (api *submissionApi) query(ctx echo.Context) error {
	usr, err := getContextUser(ctx, api.userSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	filter := new(submission.QueryFilter)
	if err := ctx.Bind(filter); err != nil {
		return ctx.JSON(http.StatusOK, []submission.Submission{})
	}
	filter.Clean()
	if !usr.IsAdmin() {
		// students only see their own
		filter.UserID = usr.ID
	}
	ordering := new(Ordering)
	ordering.Bind(ctx)

	subs, err := api.svc.Filter(ctx.Request().Context(), filter, ordering.Orderings)
	if err != nil {
		return errors.Wrap(err, "querying submissions")
	}
	if subs == nil {
		subs = []submission.Submission{}
	}
	return ctx.JSON(http.StatusOK, subs)
}

func (api *submissionApi) retrieve(ctx echo.Context) error {
	usr, err := getContextUser(ctx, api.userSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	sub, err := api.svc.GetByID(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return err
	}
	if !usr.IsAdmin() && sub.UserID != usr.ID {
		return errHttpNotFound
	}
	return ctx.JSON(http.StatusOK, sub)
}

func (api *submissionApi) update(ctx echo.Context) error {
	usr, err := getContextUser(ctx, api.userSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	var data submission.UpdateSubmission
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateSubmission")
	}
	if err := data.Validate(); err != nil {
		return err
	}

	sub, err := api.svc.UpdateContent(ctx.Request().Context(), usr, ctx.Param("id"), data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, sub)
}

func (api *submissionApi) destroy(ctx echo.Context) error {
	usr, err := getContextUser(ctx, api.userSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	if err := api.svc.Delete(ctx.Request().Context(), usr, ctx.Param("id")); err != nil {
		return err
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *submissionApi) attachFeedback(ctx echo.Context) error {
	usr, err := getContextUser(ctx, api.userSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	var data submission.NewFeedback
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewFeedback")
	}
	if err := data.Validate(); err != nil {
		return err
	}

	sub, err := api.svc.AttachFeedback(ctx.Request().Context(), usr, ctx.Param("id"), data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, sub)
}

func (api *submissionApi) setStatus(ctx echo.Context) error {
	var data StatusRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to StatusRequest")
	}
	if err := data.Validate(); err != nil {
		return err
	}

	sub, err := api.svc.SetStatus(ctx.Request().Context(), ctx.Param("id"), data.Status)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, sub)
}

type StatusRequest struct {
	Status string `json:"status" validate:"required"`
}

func (sr *StatusRequest) Validate() error {
	sr.Status = core.CleanString(sr.Status, true /* lower */)
	return core.Validate.Struct(sr)
}
