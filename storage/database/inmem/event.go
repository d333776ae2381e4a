package inmemdb

import (
	"context"
	"time"

	"github.com/trezcool/studyplanner/core"
	"github.com/trezcool/studyplanner/core/event"
)

type eventRepository struct {
	db *DB
}

var _ event.Repository = (*eventRepository)(nil) // interface compliance check

func NewEventRepository(db *DB) event.Repository {
	return &eventRepository{db: db}
}

func eventField(e event.Event, field string) interface{} {
	switch field {
	case "title":
		return e.Title
	case "type":
		return e.Type
	case "status":
		return e.Status
	case "end_time":
		return e.EndTime
	case "created_at":
		return e.CreatedAt
	case "updated_at":
		return e.UpdatedAt
	}
	return e.StartTime
}

func byStartTime(a, b event.Event) bool {
	if !a.StartTime.Equal(b.StartTime) {
		return a.StartTime.Before(b.StartTime)
	}
	return a.ID < b.ID
}

func (repo *eventRepository) CreateEvent(_ context.Context, e event.Event) (event.Event, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	e.ID = newID(e.ID)
	repo.db.events[e.ID] = &e
	return e, nil
}

func (repo *eventRepository) QueryEvents(_ context.Context, userID string, filter *event.QueryFilter, ordering []core.DBOrdering) ([]event.Event, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	events := make([]event.Event, 0)
	for _, e := range repo.db.events {
		if e.UserID == userID && filter.Matches(*e) {
			events = append(events, *e)
		}
	}
	orderRows(events, ordering, eventField, byStartTime)
	return events, nil
}

func (repo *eventRepository) GetEvent(_ context.Context, userID, id string) (event.Event, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if e, ok := repo.db.events[id]; ok && e.UserID == userID {
		return *e, nil
	}
	return event.Event{}, event.ErrNotFound
}

func (repo *eventRepository) UpdateEvent(_ context.Context, e event.Event) (event.Event, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	if orig, ok := repo.db.events[e.ID]; !ok || orig.UserID != e.UserID {
		return event.Event{}, event.ErrNotFound
	}
	repo.db.events[e.ID] = &e
	return e, nil
}

func (repo *eventRepository) DeleteEvent(_ context.Context, userID, id string) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	if e, ok := repo.db.events[id]; !ok || e.UserID != userID {
		return event.ErrNotFound
	}
	repo.db.deleteEvent(id)
	return nil
}

func (repo *eventRepository) QueryReminders(_ context.Context, now time.Time) ([]event.Event, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	events := make([]event.Event, 0)
	for _, e := range repo.db.events {
		if e.Status != event.StatusScheduled || e.ReminderMinutes <= 0 || !e.StartTime.After(now) {
			continue
		}
		if !e.ReminderAt().After(now) {
			events = append(events, *e)
		}
	}
	orderRows(events, nil, eventField, byStartTime)
	return events, nil
}
