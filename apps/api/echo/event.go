package echoapi

import (
	"context"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/studyplanner/core/event"
	"github.com/trezcool/studyplanner/core/user"
)

type eventApi struct {
	svc      event.ServiceInterface
	users    user.ServiceInterface
	refs     refChecker
	validate *validator.Validate
}

func registerEventAPI(g *echo.Group, svc event.ServiceInterface, users user.ServiceInterface, refs refChecker, validate *validator.Validate) {
	api := eventApi{svc: svc, users: users, refs: refs, validate: validate}

	eg := g.Group("/events")
	eg.GET("", api.query)
	eg.POST("", api.create)

	dg := eg.Group("/:id", objectMiddleware(users, func(ctx context.Context, usr user.User, id string) (event.Event, error) {
		return svc.Get(ctx, usr.ID, id)
	}))
	dg.GET("", api.retrieve)
	dg.PUT("", api.update)
	dg.DELETE("", api.destroy)
}

func (api *eventApi) query(ctx echo.Context) error {
	usr, err := getContextUser(ctx, api.users)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	filter := new(event.QueryFilter)
	if err := ctx.Bind(filter); err != nil {
		return errors.Wrap(err, "binding to QueryFilter")
	}
	ordering := new(Ordering)
	ordering.Bind(ctx)

	events, err := api.svc.Query(ctx.Request().Context(), usr.ID, filter, ordering.Orderings)
	if err != nil {
		return errors.Wrap(err, "querying events")
	}
	return ctx.JSON(http.StatusOK, events)
}

func (api *eventApi) create(ctx echo.Context) error {
	usr, err := getContextUser(ctx, api.users)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	var data event.NewEvent
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewEvent")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}
	if err := api.refs.check(ctx.Request().Context(), usr.ID, courseRef(data.CourseID), taskRef(data.TaskID)); err != nil {
		return err
	}

	e, err := api.svc.Create(ctx.Request().Context(), usr.ID, data)
	if err != nil {
		return errors.Wrap(err, "creating event")
	}
	return ctx.JSON(http.StatusCreated, e)
}

func (api *eventApi) retrieve(ctx echo.Context) error {
	e, err := contextObject[event.Event](ctx)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, e)
}

// update applies a partial update: fields absent from the body keep their values.
func (api *eventApi) update(ctx echo.Context) error {
	e, err := contextObject[event.Event](ctx)
	if err != nil {
		return err
	}
	var data event.UpdateEvent
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateEvent")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}
	if err := api.refs.check(ctx.Request().Context(), e.UserID, courseRef(data.CourseID), taskRef(data.TaskID)); err != nil {
		return err
	}

	e, err = api.svc.Update(ctx.Request().Context(), e, data)
	if err != nil {
		return errors.Wrap(err, "updating event")
	}
	return ctx.JSON(http.StatusOK, e)
}

func (api *eventApi) destroy(ctx echo.Context) error {
	e, err := contextObject[event.Event](ctx)
	if err != nil {
		return err
	}
	if err := api.svc.Delete(ctx.Request().Context(), e.UserID, e.ID); err != nil {
		return errors.Wrap(err, "deleting event")
	}
	return ctx.NoContent(http.StatusNoContent)
}
