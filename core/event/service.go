package event

import (
	"context"
	"time"

	"github.com/volatiletech/null/v8"

	"github.com/trezcool/studyplanner/core"
)

var ErrNotFound = core.NewNotFoundError("event not found")

type (
	Repository interface {
		CreateEvent(ctx context.Context, e Event) (Event, error)
		QueryEvents(ctx context.Context, userID string, filter *QueryFilter, ordering []core.DBOrdering) ([]Event, error)
		GetEvent(ctx context.Context, userID, id string) (Event, error)
		UpdateEvent(ctx context.Context, e Event) (Event, error)
		DeleteEvent(ctx context.Context, userID, id string) error
		// QueryReminders returns the scheduled events of every user starting
		// after `now` whose reminder time is at or before `now`.
		QueryReminders(ctx context.Context, now time.Time) ([]Event, error)
	}

	ServiceInterface interface {
		Create(ctx context.Context, userID string, ne NewEvent) (Event, error)
		Query(ctx context.Context, userID string, filter *QueryFilter, ordering []core.DBOrdering) ([]Event, error)
		Get(ctx context.Context, userID, id string) (Event, error)
		Update(ctx context.Context, e Event, ue UpdateEvent) (Event, error)
		Delete(ctx context.Context, userID, id string) error
		DueReminders(ctx context.Context, now time.Time) ([]Event, error)
	}

	Service struct {
		repo Repository
	}
)

var _ ServiceInterface = (*Service)(nil)

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Create saves a new event; the caller checks linked rows belong to userID.
func (svc *Service) Create(ctx context.Context, userID string, ne NewEvent) (Event, error) {
	now := core.NowFunc()
	e := Event{
		UserID:          userID,
		CourseID:        ne.CourseID,
		TaskID:          ne.TaskID,
		Title:           ne.Title,
		Description:     ne.Description,
		Type:            ne.Type,
		Status:          ne.Status,
		StartTime:       ne.StartTime.UTC(),
		EndTime:         ne.EndTime,
		Location:        ne.Location,
		ReminderMinutes: ne.ReminderMinutes,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if e.Type == "" {
		e.Type = TypeOther
	}
	if e.Status == "" {
		e.Status = StatusScheduled
	}
	if e.EndTime.Valid {
		e.EndTime.Time = e.EndTime.Time.UTC()
	} else if e.Status == StatusCompleted {
		e.EndTime = null.TimeFrom(now)
	}
	return svc.repo.CreateEvent(ctx, e)
}

func (svc *Service) Query(ctx context.Context, userID string, filter *QueryFilter, ordering []core.DBOrdering) ([]Event, error) {
	if filter != nil {
		filter.Clean()
	}
	return svc.repo.QueryEvents(ctx, userID, filter, core.AllowedOrderings(ordering, OrderingFields...))
}

func (svc *Service) Get(ctx context.Context, userID, id string) (Event, error) {
	return svc.repo.GetEvent(ctx, userID, id)
}

func (svc *Service) Update(ctx context.Context, e Event, ue UpdateEvent) (Event, error) {
	now := core.NowFunc()
	if err := ue.Apply(&e, now); err != nil {
		return Event{}, err
	}
	e.UpdatedAt = now
	return svc.repo.UpdateEvent(ctx, e)
}

func (svc *Service) Delete(ctx context.Context, userID, id string) error {
	return svc.repo.DeleteEvent(ctx, userID, id)
}

func (svc *Service) DueReminders(ctx context.Context, now time.Time) ([]Event, error) {
	return svc.repo.QueryReminders(ctx, now)
}
