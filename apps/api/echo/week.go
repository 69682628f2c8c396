package echoapi

import (
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/studia/core/schedule"
)

type weekApi struct {
	svc      schedule.ServiceInterface
	validate *validator.Validate
}

func registerScheduleAPI(g *echo.Group, jwt echo.MiddlewareFunc, deps ServerDeps) {
	api := weekApi{
		svc:      deps.ScheduleSvc,
		validate: deps.Validate,
	}

	wg := g.Group("/weeks", jwt)
	wg.GET("", api.query)
	wg.POST("", api.create)
	wg.GET("/suggested", api.suggested)
	wg.GET("/current", api.current)
	wg.GET("/next", api.next)
	wg.GET("/:id", api.retrieve)
	wg.PUT("/:id", api.update)
	wg.DELETE("/:id", api.destroy)
	wg.POST("/:id/start", api.start)

	registerTaskAPI(g, jwt, deps)
}

// Handlers

func (api *weekApi) create(ctx echo.Context) error {
	userID, err := getContextUserID(ctx)
	if err != nil {
		return err
	}

	var data schedule.NewWeek
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewWeek")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	wk, err := api.svc.CreateWeek(ctx.Request().Context(), userID, data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, wk)
}

func (api *weekApi) query(ctx echo.Context) error {
	userID, err := getContextUserID(ctx)
	if err != nil {
		return err
	}

	ordering := new(Ordering)
	ordering.Bind(ctx)

	weeks, err := api.svc.QueryWeeks(ctx.Request().Context(), userID, ordering.Orderings)
	if err != nil {
		return errors.Wrap(err, "querying weeks")
	}
	if weeks == nil {
		weeks = []schedule.Week{}
	}
	return ctx.JSON(http.StatusOK, weeks)
}

func (api *weekApi) retrieve(ctx echo.Context) error {
	userID, err := getContextUserID(ctx)
	if err != nil {
		return err
	}
	wk, err := api.svc.GetWeek(ctx.Request().Context(), userID, ctx.Param("id"))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, wk)
}

func (api *weekApi) update(ctx echo.Context) error {
	userID, err := getContextUserID(ctx)
	if err != nil {
		return err
	}

	var data schedule.UpdateWeek
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateWeek")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	wk, err := api.svc.UpdateWeek(ctx.Request().Context(), userID, ctx.Param("id"), data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, wk)
}

func (api *weekApi) destroy(ctx echo.Context) error {
	userID, err := getContextUserID(ctx)
	if err != nil {
		return err
	}
	unassigned, err := api.svc.DeleteWeek(ctx.Request().Context(), userID, ctx.Param("id"))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, UnassignedResponse{Unassigned: unassigned})
}

func (api *weekApi) current(ctx echo.Context) error {
	userID, err := getContextUserID(ctx)
	if err != nil {
		return err
	}
	wk, ok, err := api.svc.Current(ctx.Request().Context(), userID, time.Now())
	if err != nil {
		return errors.Wrap(err, "finding current week")
	}
	if !ok {
		return errHttpNotFound
	}
	return ctx.JSON(http.StatusOK, wk)
}

func (api *weekApi) next(ctx echo.Context) error {
	userID, err := getContextUserID(ctx)
	if err != nil {
		return err
	}
	wk, ok, err := api.svc.Next(ctx.Request().Context(), userID, time.Now())
	if err != nil {
		return errors.Wrap(err, "finding next week")
	}
	if !ok {
		return errHttpNotFound
	}
	return ctx.JSON(http.StatusOK, wk)
}

func (api *weekApi) suggested(ctx echo.Context) error {
	userID, err := getContextUserID(ctx)
	if err != nil {
		return err
	}
	name, start, err := api.svc.SuggestedWeek(ctx.Request().Context(), userID, time.Now())
	if err != nil {
		return errors.Wrap(err, "suggesting week")
	}
	return ctx.JSON(http.StatusOK, SuggestedWeekResponse{Name: name, StartDate: start})
}

func (api *weekApi) start(ctx echo.Context) error {
	userID, err := getContextUserID(ctx)
	if err != nil {
		return err
	}
	moved, err := api.svc.StartWeek(ctx.Request().Context(), userID, ctx.Param("id"), time.Now())
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, MovedResponse{Moved: moved})
}

type (
	SuggestedWeekResponse struct {
		Name      string    `json:"name"`
		StartDate time.Time `json:"start_date"`
	}

	MovedResponse struct {
		Moved int `json:"moved"`
	}

	UnassignedResponse struct {
		Unassigned int `json:"unassigned"`
	}
)
