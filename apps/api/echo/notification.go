package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/bmwamba/darasa/core/notification"
	"github.com/bmwamba/darasa/core/user"
)

type notificationApi struct {
	svc     *notification.Service
	userSvc *user.Service
}

func registerNotificationAPI(g *echo.Group, jwt, authed echo.MiddlewareFunc, svc *notification.Service, userSvc *user.Service) {
	api := notificationApi{svc: svc, userSvc: userSvc}

	ng := g.Group("/notifications", jwt, authed)
	ng.GET("", api.query)
	ng.PUT("/:id/read", api.markRead)
	ng.POST("/read-all", api.markAllRead)
	ng.DELETE("/:id", api.destroy)
}

// Handlers

func (api *notificationApi) query(ctx echo.Context) error {
	usr, err := getContextUser(ctx, api.userSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	notifs, err := api.svc.QueryByUser(ctx.Request().Context(), usr.ID)
	if err != nil {
		return errors.Wrap(err, "querying notifications")
	}
	if notifs == nil {
		notifs = []notification.Notification{}
	}
	return ctx.JSON(http.StatusOK, notifs)
}

func (api *notificationApi) markRead(ctx echo.Context) error {
	usr, err := getContextUser(ctx, api.userSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	notif, err := api.svc.MarkRead(ctx.Request().Context(), ctx.Param("id"), usr.ID)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, notif)
}

func (api *notificationApi) markAllRead(ctx echo.Context) error {
	usr, err := getContextUser(ctx, api.userSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	if err := api.svc.MarkAllRead(ctx.Request().Context(), usr.ID); err != nil {
		return errors.Wrap(err, "marking notifications read")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *notificationApi) destroy(ctx echo.Context) error {
	usr, err := getContextUser(ctx, api.userSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	if err := api.svc.Delete(ctx.Request().Context(), ctx.Param("id"), usr.ID); err != nil {
		return err
	}
	return ctx.NoContent(http.StatusNoContent)
}
