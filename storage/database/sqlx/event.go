package sqlxrepos

import (
	"context"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/pkg/errors"

	"github.com/trezcool/studyplanner/core"
	"github.com/trezcool/studyplanner/core/event"
)

const eventTable = "event"

var eventColumns = []string{
	"id", "user_id", "course_id", "task_id", "title", "description", "type", "status",
	"start_time", "end_time", "location", "reminder_minutes", "created_at", "updated_at",
}

type eventRepository struct {
	db DB
}

func NewEventRepository(db DB) event.Repository {
	return &eventRepository{db: db}
}

func (repo *eventRepository) CreateEvent(ctx context.Context, e event.Event) (event.Event, error) {
	if e.ID == "" {
		e.ID = newID()
	}
	b := psql.Insert(eventTable).Columns(eventColumns...).Values(
		e.ID, e.UserID, e.CourseID, e.TaskID, e.Title, e.Description, e.Type, e.Status,
		e.StartTime, e.EndTime, e.Location, e.ReminderMinutes, e.CreatedAt, e.UpdatedAt,
	)
	if _, err := exec(ctx, repo.db, b, nil); err != nil {
		return event.Event{}, errors.Wrap(err, "inserting event")
	}
	return e, nil
}

func (repo *eventRepository) QueryEvents(ctx context.Context, userID string, filter *event.QueryFilter, ordering []core.DBOrdering) ([]event.Event, error) {
	b := psql.Select(eventColumns...).From(eventTable).Where(sq.Eq{"user_id": userID})
	if filter != nil {
		if !filter.From.IsZero() {
			b = b.Where(sq.GtOrEq{"start_time": filter.From.Time})
		}
		if !filter.To.IsZero() {
			b = b.Where(sq.Lt{"start_time": filter.To.Time})
		}
		if filter.Type != "" {
			b = b.Where(sq.Eq{"type": filter.Type})
		}
		if filter.Status != "" {
			b = b.Where(sq.Eq{"status": filter.Status})
		}
	}
	b = orderBy(b, ordering, "start_time", "id")

	events := make([]event.Event, 0)
	if err := selectAll(ctx, repo.db, &events, b); err != nil {
		return nil, err
	}
	return events, nil
}

func (repo *eventRepository) GetEvent(ctx context.Context, userID, id string) (event.Event, error) {
	b := psql.Select(eventColumns...).From(eventTable).Where(sq.Eq{"id": id, "user_id": userID})
	var e event.Event
	if err := getOne(ctx, repo.db, &e, b, event.ErrNotFound); err != nil {
		return event.Event{}, err
	}
	return e, nil
}

func (repo *eventRepository) UpdateEvent(ctx context.Context, e event.Event) (event.Event, error) {
	b := psql.Update(eventTable).SetMap(map[string]interface{}{
		"course_id":        e.CourseID,
		"task_id":          e.TaskID,
		"title":            e.Title,
		"description":      e.Description,
		"type":             e.Type,
		"status":           e.Status,
		"start_time":       e.StartTime,
		"end_time":         e.EndTime,
		"location":         e.Location,
		"reminder_minutes": e.ReminderMinutes,
		"updated_at":       e.UpdatedAt,
	}).Where(sq.Eq{"id": e.ID, "user_id": e.UserID})
	if _, err := exec(ctx, repo.db, b, event.ErrNotFound); err != nil {
		if core.IsNotFound(err) {
			return event.Event{}, err
		}
		return event.Event{}, errors.Wrap(err, "updating event")
	}
	return e, nil
}

func (repo *eventRepository) DeleteEvent(ctx context.Context, userID, id string) error {
	b := psql.Delete(eventTable).Where(sq.Eq{"id": id, "user_id": userID})
	_, err := exec(ctx, repo.db, b, event.ErrNotFound)
	if err != nil && !core.IsNotFound(err) {
		return errors.Wrap(err, "deleting event")
	}
	return err
}

func (repo *eventRepository) QueryReminders(ctx context.Context, now time.Time) ([]event.Event, error) {
	b := psql.Select(eventColumns...).From(eventTable).
		Where(sq.Eq{"status": event.StatusScheduled}).
		Where(sq.Gt{"reminder_minutes": 0}).
		Where(sq.Gt{"start_time": now}).
		Where("start_time - reminder_minutes * interval '1 minute' <= ?", now).
		OrderBy("start_time", "id")

	events := make([]event.Event, 0)
	if err := selectAll(ctx, repo.db, &events, b); err != nil {
		return nil, err
	}
	return events, nil
}
