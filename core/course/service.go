package course

import (
	"context"

	"github.com/trezcool/studyplanner/core"
)

var ErrNotFound = core.NewNotFoundError("course not found")

type (
	// Repository scopes every read and write to the owning user: rows of
	// other users are reported as ErrNotFound.
	Repository interface {
		CreateCourse(ctx context.Context, c Course) (Course, error)
		QueryCourses(ctx context.Context, userID string, filter *QueryFilter, ordering []core.DBOrdering) ([]Course, error)
		GetCourse(ctx context.Context, userID, id string) (Course, error)
		UpdateCourse(ctx context.Context, c Course) (Course, error)
		// DeleteCourse removes the course with its syllabus items and unlinks its tasks and events.
		DeleteCourse(ctx context.Context, userID, id string) error
	}

	ServiceInterface interface {
		Create(ctx context.Context, userID string, nc NewCourse) (Course, error)
		Query(ctx context.Context, userID string, filter *QueryFilter, ordering []core.DBOrdering) ([]Course, error)
		Get(ctx context.Context, userID, id string) (Course, error)
		Update(ctx context.Context, c Course, uc UpdateCourse) (Course, error)
		Delete(ctx context.Context, userID, id string) error
	}

	Service struct {
		repo Repository
	}
)

var _ ServiceInterface = (*Service)(nil)

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (svc *Service) Create(ctx context.Context, userID string, nc NewCourse) (Course, error) {
	now := core.NowFunc()
	return svc.repo.CreateCourse(ctx, Course{
		UserID:      userID,
		Code:        nc.Code,
		Name:        nc.Name,
		Instructor:  nc.Instructor,
		Color:       nc.Color,
		Credits:     nc.Credits,
		Semester:    nc.Semester,
		Description: nc.Description,
		CreatedAt:   now,
		UpdatedAt:   now,
	})
}

func (svc *Service) Query(ctx context.Context, userID string, filter *QueryFilter, ordering []core.DBOrdering) ([]Course, error) {
	if filter != nil {
		filter.Clean()
	}
	return svc.repo.QueryCourses(ctx, userID, filter, core.AllowedOrderings(ordering, OrderingFields...))
}

func (svc *Service) Get(ctx context.Context, userID, id string) (Course, error) {
	return svc.repo.GetCourse(ctx, userID, id)
}

func (svc *Service) Update(ctx context.Context, c Course, uc UpdateCourse) (Course, error) {
	uc.Apply(&c)
	c.UpdatedAt = core.NowFunc()
	return svc.repo.UpdateCourse(ctx, c)
}

func (svc *Service) Delete(ctx context.Context, userID, id string) error {
	return svc.repo.DeleteCourse(ctx, userID, id)
}
