package studysession

import (
	"context"

	"github.com/volatiletech/null/v8"

	"github.com/trezcool/studyplanner/core"
	"github.com/trezcool/studyplanner/core/event"
	"github.com/trezcool/studyplanner/core/syllabus"
	"github.com/trezcool/studyplanner/core/task"
)

var (
	ErrNotFound    = core.NewNotFoundError("study session not found")
	ErrEventLogged = core.NewConflictError("a study session is already logged for this event")
)

type (
	Repository interface {
		// CreateSession returns ErrEventLogged when a session already references s.EventID.
		CreateSession(ctx context.Context, s Session) (Session, error)
		QuerySessions(ctx context.Context, userID string, filter *QueryFilter, ordering []core.DBOrdering) ([]Session, error)
		GetSession(ctx context.Context, userID, id string) (Session, error)
		UpdateSession(ctx context.Context, s Session) (Session, error)
		DeleteSession(ctx context.Context, userID, id string) error
	}

	ServiceInterface interface {
		Create(ctx context.Context, userID string, ns NewSession) (Session, error)
		Query(ctx context.Context, userID string, filter *QueryFilter, ordering []core.DBOrdering) ([]Session, error)
		Get(ctx context.Context, userID, id string) (Session, error)
		Update(ctx context.Context, s Session, us UpdateSession) (Session, error)
		Delete(ctx context.Context, userID, id string) error
	}

	Service struct {
		repo     Repository
		events   event.Repository
		tasks    task.Repository
		syllabus syllabus.Repository
	}
)

var _ ServiceInterface = (*Service)(nil)

func NewService(repo Repository, events event.Repository, tasks task.Repository, items syllabus.Repository) *Service {
	return &Service{repo: repo, events: events, tasks: tasks, syllabus: items}
}

// checkRefs verifies the linked rows exist and belong to userID.
func (svc *Service) checkRefs(ctx context.Context, userID string, eventID, taskID, itemID null.String) error {
	return core.CheckRefs(ctx,
		core.Ref{Field: "event_id", ID: eventID, Get: func(ctx context.Context, id string) error {
			_, err := svc.events.GetEvent(ctx, userID, id)
			return err
		}},
		core.Ref{Field: "task_id", ID: taskID, Get: func(ctx context.Context, id string) error {
			_, err := svc.tasks.GetTask(ctx, userID, id)
			return err
		}},
		core.Ref{Field: "syllabus_item_id", ID: itemID, Get: func(ctx context.Context, id string) error {
			_, err := svc.syllabus.GetItem(ctx, userID, id)
			return err
		}},
	)
}

func (svc *Service) Create(ctx context.Context, userID string, ns NewSession) (Session, error) {
	now := core.NowFunc()
	s := Session{
		UserID:             userID,
		EventID:            ns.EventID,
		TaskID:             ns.TaskID,
		SyllabusItemID:     ns.SyllabusItemID,
		StartTime:          ns.StartTime.UTC(),
		EndTime:            ns.EndTime.UTC(),
		DurationMinutes:    ns.DurationMinutes,
		ProductivityRating: ns.ProductivityRating,
		Notes:              ns.Notes,
		BreaksTaken:        ns.BreaksTaken,
		CreatedAt:          now,
		UpdatedAt:          now,
	}
	if err := s.checkTimes(); err != nil {
		return Session{}, err
	}
	if err := svc.checkRefs(ctx, userID, s.EventID, s.TaskID, s.SyllabusItemID); err != nil {
		return Session{}, err
	}
	return svc.repo.CreateSession(ctx, s)
}

func (svc *Service) Query(ctx context.Context, userID string, filter *QueryFilter, ordering []core.DBOrdering) ([]Session, error) {
	return svc.repo.QuerySessions(ctx, userID, filter, core.AllowedOrderings(ordering, OrderingFields...))
}

func (svc *Service) Get(ctx context.Context, userID, id string) (Session, error) {
	return svc.repo.GetSession(ctx, userID, id)
}

func (svc *Service) Update(ctx context.Context, s Session, us UpdateSession) (Session, error) {
	if err := us.Apply(&s); err != nil {
		return Session{}, err
	}
	if err := svc.checkRefs(ctx, s.UserID, null.String{}, us.TaskID, us.SyllabusItemID); err != nil {
		return Session{}, err
	}
	s.UpdatedAt = core.NowFunc()
	return svc.repo.UpdateSession(ctx, s)
}

func (svc *Service) Delete(ctx context.Context, userID, id string) error {
	return svc.repo.DeleteSession(ctx, userID, id)
}
