package echoapi

import (
	"context"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/studyplanner/core/course"
	"github.com/trezcool/studyplanner/core/syllabus"
	"github.com/trezcool/studyplanner/core/user"
)

type courseApi struct {
	svc      course.ServiceInterface
	syllabus syllabus.ServiceInterface
	users    user.ServiceInterface
	validate *validator.Validate
}

func registerCourseAPI(g *echo.Group, svc course.ServiceInterface, items syllabus.ServiceInterface, users user.ServiceInterface, validate *validator.Validate) {
	api := courseApi{svc: svc, syllabus: items, users: users, validate: validate}

	cg := g.Group("/courses")
	cg.GET("", api.query)
	cg.POST("", api.create)

	dg := cg.Group("/:id", objectMiddleware(users, func(ctx context.Context, usr user.User, id string) (course.Course, error) {
		return svc.Get(ctx, usr.ID, id)
	}))
	dg.GET("", api.retrieve)
	dg.PUT("", api.update)
	dg.DELETE("", api.destroy)
	dg.GET("/syllabus", api.querySyllabus)
	dg.POST("/syllabus", api.createSyllabusItem)

	sg := g.Group("/syllabus/:id", objectMiddleware(users, func(ctx context.Context, usr user.User, id string) (syllabus.Item, error) {
		return items.Get(ctx, usr.ID, id)
	}))
	sg.GET("", api.retrieveSyllabusItem)
	sg.PUT("", api.updateSyllabusItem)
	sg.DELETE("", api.destroySyllabusItem)
}

// Courses

func (api *courseApi) query(ctx echo.Context) error {
	usr, err := getContextUser(ctx, api.users)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	filter := new(course.QueryFilter)
	if err := ctx.Bind(filter); err != nil {
		return errors.Wrap(err, "binding to QueryFilter")
	}
	ordering := new(Ordering)
	ordering.Bind(ctx)

	courses, err := api.svc.Query(ctx.Request().Context(), usr.ID, filter, ordering.Orderings)
	if err != nil {
		return errors.Wrap(err, "querying courses")
	}
	return ctx.JSON(http.StatusOK, courses)
}

func (api *courseApi) create(ctx echo.Context) error {
	usr, err := getContextUser(ctx, api.users)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	var data course.NewCourse
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewCourse")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	c, err := api.svc.Create(ctx.Request().Context(), usr.ID, data)
	if err != nil {
		return errors.Wrap(err, "creating course")
	}
	return ctx.JSON(http.StatusCreated, c)
}

func (api *courseApi) retrieve(ctx echo.Context) error {
	c, err := contextObject[course.Course](ctx)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, c)
}

func (api *courseApi) update(ctx echo.Context) error {
	c, err := contextObject[course.Course](ctx)
	if err != nil {
		return err
	}
	var data course.UpdateCourse
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateCourse")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	c, err = api.svc.Update(ctx.Request().Context(), c, data)
	if err != nil {
		return errors.Wrap(err, "updating course")
	}
	return ctx.JSON(http.StatusOK, c)
}

func (api *courseApi) destroy(ctx echo.Context) error {
	c, err := contextObject[course.Course](ctx)
	if err != nil {
		return err
	}
	if err := api.svc.Delete(ctx.Request().Context(), c.UserID, c.ID); err != nil {
		return errors.Wrap(err, "deleting course")
	}
	return ctx.NoContent(http.StatusNoContent)
}

// Syllabus

func (api *courseApi) querySyllabus(ctx echo.Context) error {
	c, err := contextObject[course.Course](ctx)
	if err != nil {
		return err
	}
	filter := new(syllabus.QueryFilter)
	if err := ctx.Bind(filter); err != nil {
		return errors.Wrap(err, "binding to QueryFilter")
	}
	ordering := new(Ordering)
	ordering.Bind(ctx)

	items, err := api.syllabus.Query(ctx.Request().Context(), c.UserID, c.ID, filter, ordering.Orderings)
	if err != nil {
		return errors.Wrap(err, "querying syllabus items")
	}
	return ctx.JSON(http.StatusOK, items)
}

func (api *courseApi) createSyllabusItem(ctx echo.Context) error {
	c, err := contextObject[course.Course](ctx)
	if err != nil {
		return err
	}
	var data syllabus.NewItem
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewItem")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	it, err := api.syllabus.Create(ctx.Request().Context(), c.UserID, c.ID, data)
	if err != nil {
		return errors.Wrap(err, "creating syllabus item")
	}
	return ctx.JSON(http.StatusCreated, it)
}

func (api *courseApi) retrieveSyllabusItem(ctx echo.Context) error {
	it, err := contextObject[syllabus.Item](ctx)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, it)
}

func (api *courseApi) updateSyllabusItem(ctx echo.Context) error {
	it, err := contextObject[syllabus.Item](ctx)
	if err != nil {
		return err
	}
	var data syllabus.UpdateItem
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateItem")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	it, err = api.syllabus.Update(ctx.Request().Context(), it, data)
	if err != nil {
		return errors.Wrap(err, "updating syllabus item")
	}
	return ctx.JSON(http.StatusOK, it)
}

func (api *courseApi) destroySyllabusItem(ctx echo.Context) error {
	it, err := contextObject[syllabus.Item](ctx)
	if err != nil {
		return err
	}
	if err := api.syllabus.Delete(ctx.Request().Context(), it.UserID, it.ID); err != nil {
		return errors.Wrap(err, "deleting syllabus item")
	}
	return ctx.NoContent(http.StatusNoContent)
}
