package task

import (
	"context"
	"time"

	"github.com/trezcool/studyplanner/core"
)

var ErrNotFound = core.NewNotFoundError("task not found")

type (
	Repository interface {
		CreateTask(ctx context.Context, t Task) (Task, error)
		// QueryTasks applies AND operation on available QueryFilter fields.
		QueryTasks(ctx context.Context, userID string, filter *QueryFilter, ordering []core.DBOrdering) ([]Task, error)
		GetTask(ctx context.Context, userID, id string) (Task, error)
		UpdateTask(ctx context.Context, t Task) (Task, error)
		DeleteTask(ctx context.Context, userID, id string) error
		TaskStats(ctx context.Context, userID string) (Stats, error)
		// QueryDueTasks returns the open tasks of every user due in [from, to).
		QueryDueTasks(ctx context.Context, from, to time.Time) ([]Task, error)
	}

	ServiceInterface interface {
		Create(ctx context.Context, userID string, nt NewTask) (Task, error)
		Query(ctx context.Context, userID string, filter *QueryFilter, ordering []core.DBOrdering) ([]Task, error)
		Get(ctx context.Context, userID, id string) (Task, error)
		Update(ctx context.Context, t Task, ut UpdateTask) (Task, error)
		Delete(ctx context.Context, userID, id string) error
		Stats(ctx context.Context, userID string) (Stats, error)
		DueBetween(ctx context.Context, from, to time.Time) ([]Task, error)
	}

	Service struct {
		repo Repository
	}
)

var _ ServiceInterface = (*Service)(nil)

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Create saves a new task; the caller checks linked rows belong to userID.
func (svc *Service) Create(ctx context.Context, userID string, nt NewTask) (Task, error) {
	now := core.NowFunc()
	t := Task{
		UserID:           userID,
		CourseID:         nt.CourseID,
		SyllabusItemID:   nt.SyllabusItemID,
		Title:            nt.Title,
		Description:      nt.Description,
		Status:           StatusTodo,
		Priority:         nt.Priority,
		DueDate:          nt.DueDate,
		EstimatedMinutes: nt.EstimatedMinutes,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if t.Priority == "" {
		t.Priority = PriorityMedium
	}
	if nt.Status != "" {
		t.SetStatus(nt.Status, now)
	}
	return svc.repo.CreateTask(ctx, t)
}

func (svc *Service) Query(ctx context.Context, userID string, filter *QueryFilter, ordering []core.DBOrdering) ([]Task, error) {
	if filter != nil {
		filter.Clean()
	}
	return svc.repo.QueryTasks(ctx, userID, filter, core.AllowedOrderings(ordering, OrderingFields...))
}

func (svc *Service) Get(ctx context.Context, userID, id string) (Task, error) {
	return svc.repo.GetTask(ctx, userID, id)
}

func (svc *Service) Update(ctx context.Context, t Task, ut UpdateTask) (Task, error) {
	now := core.NowFunc()
	ut.Apply(&t, now)
	t.UpdatedAt = now
	return svc.repo.UpdateTask(ctx, t)
}

func (svc *Service) Delete(ctx context.Context, userID, id string) error {
	return svc.repo.DeleteTask(ctx, userID, id)
}

func (svc *Service) Stats(ctx context.Context, userID string) (Stats, error) {
	return svc.repo.TaskStats(ctx, userID)
}

func (svc *Service) DueBetween(ctx context.Context, from, to time.Time) ([]Task, error) {
	return svc.repo.QueryDueTasks(ctx, from, to)
}
