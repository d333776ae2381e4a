package syllabus

import (
	"context"

	"github.com/trezcool/studyplanner/core"
)

var ErrNotFound = core.NewNotFoundError("syllabus item not found")

type (
	Repository interface {
		CreateItem(ctx context.Context, it Item) (Item, error)
		QueryItems(ctx context.Context, userID, courseID string, filter *QueryFilter, ordering []core.DBOrdering) ([]Item, error)
		GetItem(ctx context.Context, userID, id string) (Item, error)
		UpdateItem(ctx context.Context, it Item) (Item, error)
		DeleteItem(ctx context.Context, userID, id string) error
	}

	ServiceInterface interface {
		Create(ctx context.Context, userID, courseID string, ni NewItem) (Item, error)
		Query(ctx context.Context, userID, courseID string, filter *QueryFilter, ordering []core.DBOrdering) ([]Item, error)
		Get(ctx context.Context, userID, id string) (Item, error)
		Update(ctx context.Context, it Item, ui UpdateItem) (Item, error)
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

// Create adds an item to a course; the caller checks the course belongs to userID.
func (svc *Service) Create(ctx context.Context, userID, courseID string, ni NewItem) (Item, error) {
	now := core.NowFunc()
	it := Item{
		CourseID:    courseID,
		UserID:      userID,
		Title:       ni.Title,
		Description: ni.Description,
		Week:        ni.Week,
		DueDate:     ni.DueDate,
		Status:      StatusNotStarted,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if ni.Status != "" {
		it.SetStatus(ni.Status, now)
	}
	return svc.repo.CreateItem(ctx, it)
}

func (svc *Service) Query(ctx context.Context, userID, courseID string, filter *QueryFilter, ordering []core.DBOrdering) ([]Item, error) {
	return svc.repo.QueryItems(ctx, userID, courseID, filter, core.AllowedOrderings(ordering, OrderingFields...))
}

func (svc *Service) Get(ctx context.Context, userID, id string) (Item, error) {
	return svc.repo.GetItem(ctx, userID, id)
}

func (svc *Service) Update(ctx context.Context, it Item, ui UpdateItem) (Item, error) {
	now := core.NowFunc()
	ui.Apply(&it, now)
	it.UpdatedAt = now
	return svc.repo.UpdateItem(ctx, it)
}

func (svc *Service) Delete(ctx context.Context, userID, id string) error {
	return svc.repo.DeleteItem(ctx, userID, id)
}
