package echoapi

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/studyplanner/core/notification"
	"github.com/trezcool/studyplanner/core/user"
)

type notificationApi struct {
	svc   notification.ServiceInterface
	users user.ServiceInterface
}

type ReadAllResponse struct {
	Updated int `json:"updated"`
}

func registerNotificationAPI(g *echo.Group, svc notification.ServiceInterface, users user.ServiceInterface) {
	api := notificationApi{svc: svc, users: users}

	ng := g.Group("/notifications")
	ng.GET("", api.query)
	ng.POST("/read-all", api.readAll)

	dg := ng.Group("/:id", objectMiddleware(users, func(ctx context.Context, usr user.User, id string) (notification.Notification, error) {
		return svc.Get(ctx, usr.ID, id)
	}))
	dg.PUT("/read", api.read)
	dg.DELETE("", api.destroy)
}

func (api *notificationApi) query(ctx echo.Context) error {
	usr, err := getContextUser(ctx, api.users)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	filter := new(notification.QueryFilter)
	if err := ctx.Bind(filter); err != nil {
		return errors.Wrap(err, "binding to QueryFilter")
	}

	notifications, err := api.svc.Query(ctx.Request().Context(), usr.ID, filter)
	if err != nil {
		return errors.Wrap(err, "querying notifications")
	}
	return ctx.JSON(http.StatusOK, notifications)
}

func (api *notificationApi) read(ctx echo.Context) error {
	n, err := contextObject[notification.Notification](ctx)
	if err != nil {
		return err
	}
	n, err = api.svc.MarkRead(ctx.Request().Context(), n)
	if err != nil {
		return errors.Wrap(err, "marking notification read")
	}
	return ctx.JSON(http.StatusOK, n)
}

func (api *notificationApi) readAll(ctx echo.Context) error {
	usr, err := getContextUser(ctx, api.users)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	n, err := api.svc.MarkAllRead(ctx.Request().Context(), usr.ID)
	if err != nil {
		return errors.Wrap(err, "marking notifications read")
	}
	return ctx.JSON(http.StatusOK, ReadAllResponse{Updated: n})
}

func (api *notificationApi) destroy(ctx echo.Context) error {
	n, err := contextObject[notification.Notification](ctx)
	if err != nil {
		return err
	}
	if err := api.svc.Delete(ctx.Request().Context(), n.UserID, n.ID); err != nil {
		return errors.Wrap(err, "deleting notification")
	}
	return ctx.NoContent(http.StatusNoContent)
}
