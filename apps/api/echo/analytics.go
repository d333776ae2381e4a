package echoapi

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/studyplanner/core"
	"github.com/trezcool/studyplanner/core/analytics"
	"github.com/trezcool/studyplanner/core/event"
	"github.com/trezcool/studyplanner/core/notification"
	"github.com/trezcool/studyplanner/core/task"
	"github.com/trezcool/studyplanner/core/user"
)

// dueTasksWithin is how far ahead the dashboard lists open tasks.
const dueTasksWithin = 7 * 24 * time.Hour

type analyticsApi struct {
	svc           analytics.ServiceInterface
	users         user.ServiceInterface
	tasks         task.ServiceInterface
	events        event.ServiceInterface
	notifications notification.ServiceInterface
}

type Dashboard struct {
	TodayEvents         []event.Event `json:"today_events"`
	DueTasks            []task.Task   `json:"due_tasks"`
	OverdueTasks        int           `json:"overdue_tasks"`
	WeekMinutes         int           `json:"week_minutes"`
	UnreadNotifications int           `json:"unread_notifications"`
}

func registerAnalyticsAPI(g *echo.Group, api *analyticsApi) {
	ag := g.Group("/analytics")
	ag.GET("/summary", api.summary)
	ag.GET("/daily", api.daily)
	ag.GET("/courses", api.courses)

	g.GET("/dashboard", api.dashboard)

	vg := g.Group("/advisor", advisorMiddleware())
	vg.GET("/users/:id/summary", api.userSummary, objectMiddleware(api.users, func(ctx context.Context, _ user.User, id string) (user.User, error) {
		return api.users.GetByID(ctx, id)
	}))
}

func (api *analyticsApi) window(ctx echo.Context) (analytics.Window, error) {
	var w analytics.Window
	if err := ctx.Bind(&w); err != nil {
		return w, errors.Wrap(err, "binding to Window")
	}
	return w, nil
}

func (api *analyticsApi) summary(ctx echo.Context) error {
	usr, err := getContextUser(ctx, api.users)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	w, err := api.window(ctx)
	if err != nil {
		return err
	}
	sum, err := api.svc.Summary(ctx.Request().Context(), usr.ID, w)
	if err != nil {
		return errors.Wrap(err, "summarizing study time")
	}
	return ctx.JSON(http.StatusOK, sum)
}

func (api *analyticsApi) daily(ctx echo.Context) error {
	usr, err := getContextUser(ctx, api.users)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	w, err := api.window(ctx)
	if err != nil {
		return err
	}
	days, err := api.svc.Daily(ctx.Request().Context(), usr.ID, w)
	if err != nil {
		return errors.Wrap(err, "computing daily minutes")
	}
	return ctx.JSON(http.StatusOK, days)
}

func (api *analyticsApi) courses(ctx echo.Context) error {
	usr, err := getContextUser(ctx, api.users)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	w, err := api.window(ctx)
	if err != nil {
		return err
	}
	courses, err := api.svc.Courses(ctx.Request().Context(), usr.ID, w)
	if err != nil {
		return errors.Wrap(err, "computing course minutes")
	}
	return ctx.JSON(http.StatusOK, courses)
}

// userSummary lets advisors follow the study time of any user.
func (api *analyticsApi) userSummary(ctx echo.Context) error {
	usr, err := contextObject[user.User](ctx)
	if err != nil {
		return err
	}
	w, err := api.window(ctx)
	if err != nil {
		return err
	}
	sum, err := api.svc.Summary(ctx.Request().Context(), usr.ID, w)
	if err != nil {
		return errors.Wrap(err, "summarizing study time")
	}
	return ctx.JSON(http.StatusOK, sum)
}

func (api *analyticsApi) dashboard(ctx echo.Context) error {
	usr, err := getContextUser(ctx, api.users)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	reqCtx := ctx.Request().Context()
	now := core.NowFunc()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)

	var dash Dashboard
	dash.TodayEvents, err = api.events.Query(reqCtx, usr.ID, &event.QueryFilter{
		From: core.ParamTime{Time: today},
		To:   core.ParamTime{Time: today.AddDate(0, 0, 1)},
	}, nil)
	if err != nil {
		return errors.Wrap(err, "querying today's events")
	}

	tasks, err := api.tasks.Query(reqCtx, usr.ID, &task.QueryFilter{DueBefore: core.ParamTime{Time: now.Add(dueTasksWithin)}}, nil)
	if err != nil {
		return errors.Wrap(err, "querying due tasks")
	}
	dash.DueTasks = make([]task.Task, 0, len(tasks))
	for _, t := range tasks {
		if t.Status == task.StatusDone {
			continue
		}
		dash.DueTasks = append(dash.DueTasks, t)
		if t.IsOverdue(now) {
			dash.OverdueTasks++
		}
	}

	if dash.WeekMinutes, err = api.svc.WeekMinutes(reqCtx, usr.ID); err != nil {
		return errors.Wrap(err, "computing week minutes")
	}
	if dash.UnreadNotifications, err = api.notifications.UnreadCount(reqCtx, usr.ID); err != nil {
		return errors.Wrap(err, "counting unread notifications")
	}
	return ctx.JSON(http.StatusOK, dash)
}
