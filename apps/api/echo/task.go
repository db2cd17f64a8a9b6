package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/bmwamba/darasa/core/submission"
	"github.com/bmwamba/darasa/core/user"
)

type taskApi struct {
	svc     *submission.Service
	userSvc *user.Service
}

func registerTaskAPI(g *echo.Group, jwt, authed echo.MiddlewareFunc, svc *submission.Service, userSvc *user.Service) {
	api := taskApi{svc: svc, userSvc: userSvc}

	tg := g.Group("/tasks", jwt, authed)
	tg.GET("", api.query)

	// admin only
	ad := adminMiddleware()
	tg.POST("", api.create, ad)
	tg.GET("/:id", api.retrieve, ad)
	tg.PUT("/:id", api.update, ad)
	tg.DELETE("/:id", api.destroy, ad)
}

// Handlers

func (api *taskApi) query(ctx echo.Context) error {
	usr, err := getContextUser(ctx, api.userSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	filter := new(submission.TaskFilter)
	if err := ctx.Bind(filter); err != nil {
		return ctx.JSON(http.StatusOK, []submission.Task{})
	}
	if usr.IsStudent() {
		// students only see open, addressed tasks
		active := true
		filter.IsActive = &active
		filter.AssignedTo = usr.ID
	}
	ordering := new(Ordering)
	ordering.Bind(ctx)

	tasks, err := api.svc.FilterTasks(ctx.Request().Context(), filter, ordering.Orderings)
	if err != nil {
		return errors.Wrap(err, "querying tasks")
	}
	if tasks == nil {
		tasks = []submission.Task{}
	}
	return ctx.JSON(http.StatusOK, tasks)
}

func (api *taskApi) create(ctx echo.Context) error {
	var data submission.NewTask
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewTask")
	}
	if err := data.Validate(); err != nil {
		return err
	}

	task, err := api.svc.CreateTask(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating task")
	}
	return ctx.JSON(http.StatusCreated, task)
}

func (api *taskApi) retrieve(ctx echo.Context) error {
	task, err := api.svc.GetTask(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, task)
}

func (api *taskApi) update(ctx echo.Context) error {
	task, err := api.svc.GetTask(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return err
	}

	var data submission.UpdateTask
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateTask")
	}
	if err := data.Validate(task); err != nil {
		return err
	}

	task, err = api.svc.UpdateTask(ctx.Request().Context(), task.ID, data)
	if err != nil {
		return errors.Wrap(err, "updating task")
	}
	return ctx.JSON(http.StatusOK, task)
}

func (api *taskApi) destroy(ctx echo.Context) error {
	task, err := api.svc.GetTask(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return err
	}
	if err := api.svc.DeleteTask(ctx.Request().Context(), task.ID); err != nil {
		return errors.Wrap(err, "deleting task")
	}
	return ctx.NoContent(http.StatusNoContent)
}
