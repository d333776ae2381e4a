package inmemdb

import (
	"context"
	"time"

	"github.com/trezcool/studyplanner/core"
	"github.com/trezcool/studyplanner/core/task"
)

type taskRepository struct {
	db *DB
}

var _ task.Repository = (*taskRepository)(nil) // interface compliance check

func NewTaskRepository(db *DB) task.Repository {
	return &taskRepository{db: db}
}

func taskField(t task.Task, field string) interface{} {
	switch field {
	case "title":
		return t.Title
	case "status":
		return t.Status
	case "priority":
		return t.Priority
	case "due_date":
		return t.DueDate
	case "completed_at":
		return t.CompletedAt
	case "updated_at":
		return t.UpdatedAt
	}
	return t.CreatedAt
}

func byDueDate(a, b task.Task) bool {
	if c := compare(a.DueDate, b.DueDate); c != 0 {
		return c < 0
	}
	if !a.CreatedAt.Equal(b.CreatedAt) {
		return a.CreatedAt.Before(b.CreatedAt)
	}
	return a.ID < b.ID
}

func (repo *taskRepository) CreateTask(_ context.Context, t task.Task) (task.Task, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	t.ID = newID(t.ID)
	repo.db.tasks[t.ID] = &t
	return t, nil
}

func (repo *taskRepository) QueryTasks(_ context.Context, userID string, filter *task.QueryFilter, ordering []core.DBOrdering) ([]task.Task, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	tasks := make([]task.Task, 0)
	for _, t := range repo.db.tasks {
		if t.UserID == userID && filter.Matches(*t) {
			tasks = append(tasks, *t)
		}
	}
	orderRows(tasks, ordering, taskField, byDueDate)
	return tasks, nil
}

func (repo *taskRepository) GetTask(_ context.Context, userID, id string) (task.Task, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if t, ok := repo.db.tasks[id]; ok && t.UserID == userID {
		return *t, nil
	}
	return task.Task{}, task.ErrNotFound
}

func (repo *taskRepository) UpdateTask(_ context.Context, t task.Task) (task.Task, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	if orig, ok := repo.db.tasks[t.ID]; !ok || orig.UserID != t.UserID {
		return task.Task{}, task.ErrNotFound
	}
	repo.db.tasks[t.ID] = &t
	return t, nil
}

func (repo *taskRepository) DeleteTask(_ context.Context, userID, id string) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	if t, ok := repo.db.tasks[id]; !ok || t.UserID != userID {
		return task.ErrNotFound
	}
	repo.db.deleteTask(id)
	return nil
}

func (repo *taskRepository) TaskStats(_ context.Context, userID string) (task.Stats, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	var stats task.Stats
	for _, t := range repo.db.tasks {
		if t.UserID != userID {
			continue
		}
		stats.Total++
		if t.Status == task.StatusDone {
			stats.Done++
		}
	}
	return stats, nil
}

func (repo *taskRepository) QueryDueTasks(_ context.Context, from, to time.Time) ([]task.Task, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	tr := core.TimeRange{From: from, To: to}
	tasks := make([]task.Task, 0)
	for _, t := range repo.db.tasks {
		if t.Status != task.StatusDone && t.DueDate.Valid && tr.Contains(t.DueDate.Time) {
			tasks = append(tasks, *t)
		}
	}
	orderRows(tasks, nil, taskField, byDueDate)
	return tasks, nil
}
