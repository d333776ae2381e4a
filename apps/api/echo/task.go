package echoapi

import (
	"context"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/studyplanner/core/task"
	"github.com/trezcool/studyplanner/core/user"
)

type taskApi struct {
	svc      task.ServiceInterface
	users    user.ServiceInterface
	refs     refChecker
	validate *validator.Validate
}

func registerTaskAPI(g *echo.Group, svc task.ServiceInterface, users user.ServiceInterface, refs refChecker, validate *validator.Validate) {
	api := taskApi{svc: svc, users: users, refs: refs, validate: validate}

	tg := g.Group("/tasks")
	tg.GET("", api.query)
	tg.POST("", api.create)

	dg := tg.Group("/:id", objectMiddleware(users, func(ctx context.Context, usr user.User, id string) (task.Task, error) {
		return svc.Get(ctx, usr.ID, id)
	}))
	dg.GET("", api.retrieve)
	dg.PUT("", api.update)
	dg.DELETE("", api.destroy)
}

func (api *taskApi) query(ctx echo.Context) error {
	usr, err := getContextUser(ctx, api.users)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	filter := new(task.QueryFilter)
	if err := ctx.Bind(filter); err != nil {
		return errors.Wrap(err, "binding to QueryFilter")
	}
	ordering := new(Ordering)
	ordering.Bind(ctx)

	tasks, err := api.svc.Query(ctx.Request().Context(), usr.ID, filter, ordering.Orderings)
	if err != nil {
		return errors.Wrap(err, "querying tasks")
	}
	return ctx.JSON(http.StatusOK, tasks)
}

func (api *taskApi) create(ctx echo.Context) error {
	usr, err := getContextUser(ctx, api.users)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	var data task.NewTask
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewTask")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}
	if err := api.refs.check(ctx.Request().Context(), usr.ID, courseRef(data.CourseID), syllabusRef(data.SyllabusItemID)); err != nil {
		return err
	}

	t, err := api.svc.Create(ctx.Request().Context(), usr.ID, data)
	if err != nil {
		return errors.Wrap(err, "creating task")
	}
	return ctx.JSON(http.StatusCreated, t)
}

func (api *taskApi) retrieve(ctx echo.Context) error {
	t, err := contextObject[task.Task](ctx)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, t)
}

func (api *taskApi) update(ctx echo.Context) error {
	t, err := contextObject[task.Task](ctx)
	if err != nil {
		return err
	}
	var data task.UpdateTask
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateTask")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}
	if err := api.refs.check(ctx.Request().Context(), t.UserID, courseRef(data.CourseID), syllabusRef(data.SyllabusItemID)); err != nil {
		return err
	}

	t, err = api.svc.Update(ctx.Request().Context(), t, data)
	if err != nil {
		return errors.Wrap(err, "updating task")
	}
	return ctx.JSON(http.StatusOK, t)
}

func (api *taskApi) destroy(ctx echo.Context) error {
	t, err := contextObject[task.Task](ctx)
	if err != nil {
		return err
	}
	if err := api.svc.Delete(ctx.Request().Context(), t.UserID, t.ID); err != nil {
		return errors.Wrap(err, "deleting task")
	}
	return ctx.NoContent(http.StatusNoContent)
}
