package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/studia/core/schedule"
)

type taskApi struct {
	svc      schedule.ServiceInterface
	validate *validator.Validate
}

func registerTaskAPI(g *echo.Group, jwt echo.MiddlewareFunc, deps ServerDeps) {
	api := taskApi{
		svc:      deps.ScheduleSvc,
		validate: deps.Validate,
	}

	tg := g.Group("/tasks", jwt)
	tg.GET("", api.query)
	tg.POST("", api.create)
	tg.PATCH("", api.updateMultiple)
	tg.DELETE("", api.destroyMultiple)
	tg.GET("/:id", api.retrieve)
	tg.PUT("/:id", api.update)
	tg.DELETE("/:id", api.destroy)
}

// Handlers

func (api *taskApi) create(ctx echo.Context) error {
	userID, err := getContextUserID(ctx)
	if err != nil {
		return err
	}

	var data schedule.NewTask
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewTask")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	tsk, err := api.svc.CreateTask(ctx.Request().Context(), userID, data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, tsk)
}

func (api *taskApi) query(ctx echo.Context) error {
	userID, err := getContextUserID(ctx)
	if err != nil {
		return err
	}

	filter := new(schedule.TaskFilter)
	if err := ctx.Bind(filter); err != nil {
		return ctx.JSON(http.StatusOK, []schedule.Task{})
	}
	ordering := new(Ordering)
	ordering.Bind(ctx)

	tasks, err := api.svc.QueryTasks(ctx.Request().Context(), userID, filter, ordering.Orderings)
	if err != nil {
		return errors.Wrap(err, "querying tasks")
	}
	if tasks == nil {
		tasks = []schedule.Task{}
	}
	return ctx.JSON(http.StatusOK, tasks)
}

func (api *taskApi) retrieve(ctx echo.Context) error {
	userID, err := getContextUserID(ctx)
	if err != nil {
		return err
	}
	tsk, err := api.svc.GetTask(ctx.Request().Context(), userID, ctx.Param("id"))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, tsk)
}

func (api *taskApi) update(ctx echo.Context) error {
	userID, err := getContextUserID(ctx)
	if err != nil {
		return err
	}

	var data schedule.UpdateTask
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateTask")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	tsk, err := api.svc.UpdateTask(ctx.Request().Context(), userID, ctx.Param("id"), data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, tsk)
}

func (api *taskApi) destroy(ctx echo.Context) error {
	userID, err := getContextUserID(ctx)
	if err != nil {
		return err
	}
	if err := api.svc.DeleteTask(ctx.Request().Context(), userID, ctx.Param("id")); err != nil {
		return err
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *taskApi) updateMultiple(ctx echo.Context) error {
	userID, err := getContextUserID(ctx)
	if err != nil {
		return err
	}

	var data schedule.BatchTaskStatus
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to BatchTaskStatus")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	updated, err := api.svc.UpdateTasksStatus(ctx.Request().Context(), userID, data.IDs, data.Status)
	if err != nil {
		return errors.Wrap(err, "updating tasks status")
	}
	return ctx.JSON(http.StatusOK, UpdatedResponse{Updated: updated})
}

func (api *taskApi) destroyMultiple(ctx echo.Context) error {
	userID, err := getContextUserID(ctx)
	if err != nil {
		return err
	}

	var data schedule.BatchTaskDelete
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to BatchTaskDelete")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	deleted, err := api.svc.DeleteTasks(ctx.Request().Context(), userID, data.IDs)
	if err != nil {
		return errors.Wrap(err, "deleting tasks")
	}
	return ctx.JSON(http.StatusOK, DeletedResponse{Deleted: deleted})
}

type (
	UpdatedResponse struct {
		Updated int `json:"updated"`
	}

	DeletedResponse struct {
		Deleted int `json:"deleted"`
	}
)
