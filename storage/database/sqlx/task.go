package sqlxrepos

import (
	"context"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/pkg/errors"

	"github.com/trezcool/studyplanner/core"
	"github.com/trezcool/studyplanner/core/task"
)

const taskTable = "task"

var taskColumns = []string{
	"id", "user_id", "course_id", "syllabus_item_id", "title", "description", "status", "priority",
	"due_date", "completed_at", "estimated_minutes", "created_at", "updated_at",
}

type taskRepository struct {
	db DB
}

func NewTaskRepository(db DB) task.Repository {
	return &taskRepository{db: db}
}

func (repo *taskRepository) CreateTask(ctx context.Context, t task.Task) (task.Task, error) {
	if t.ID == "" {
		t.ID = newID()
	}
	b := psql.Insert(taskTable).Columns(taskColumns...).Values(
		t.ID, t.UserID, t.CourseID, t.SyllabusItemID, t.Title, t.Description, t.Status, t.Priority,
		t.DueDate, t.CompletedAt, t.EstimatedMinutes, t.CreatedAt, t.UpdatedAt,
	)
	if _, err := exec(ctx, repo.db, b, nil); err != nil {
		return task.Task{}, errors.Wrap(err, "inserting task")
	}
	return t, nil
}

func (repo *taskRepository) QueryTasks(ctx context.Context, userID string, filter *task.QueryFilter, ordering []core.DBOrdering) ([]task.Task, error) {
	b := psql.Select(taskColumns...).From(taskTable).Where(sq.Eq{"user_id": userID})
	if filter != nil {
		if filter.Status != "" {
			b = b.Where(sq.Eq{"status": filter.Status})
		}
		if filter.Priority != "" {
			b = b.Where(sq.Eq{"priority": filter.Priority})
		}
		if filter.CourseID != "" {
			b = b.Where(sq.Eq{"course_id": filter.CourseID})
		}
		if !filter.DueBefore.IsZero() {
			b = b.Where(sq.Lt{"due_date": filter.DueBefore.Time})
		}
		if filter.Search != "" {
			b = b.Where(ilike(filter.Search, "title", "description"))
		}
	}
	b = orderBy(b, ordering, "due_date NULLS LAST", "created_at", "id")

	tasks := make([]task.Task, 0)
	if err := selectAll(ctx, repo.db, &tasks, b); err != nil {
		return nil, err
	}
	return tasks, nil
}

func (repo *taskRepository) GetTask(ctx context.Context, userID, id string) (task.Task, error) {
	b := psql.Select(taskColumns...).From(taskTable).Where(sq.Eq{"id": id, "user_id": userID})
	var t task.Task
	if err := getOne(ctx, repo.db, &t, b, task.ErrNotFound); err != nil {
		return task.Task{}, err
	}
	return t, nil
}

func (repo *taskRepository) UpdateTask(ctx context.Context, t task.Task) (task.Task, error) {
	b := psql.Update(taskTable).SetMap(map[string]interface{}{
		"course_id":         t.CourseID,
		"syllabus_item_id":  t.SyllabusItemID,
		"title":             t.Title,
		"description":       t.Description,
		"status":            t.Status,
		"priority":          t.Priority,
		"due_date":          t.DueDate,
		"completed_at":      t.CompletedAt,
		"estimated_minutes": t.EstimatedMinutes,
		"updated_at":        t.UpdatedAt,
	}).Where(sq.Eq{"id": t.ID, "user_id": t.UserID})
	if _, err := exec(ctx, repo.db, b, task.ErrNotFound); err != nil {
		if core.IsNotFound(err) {
			return task.Task{}, err
		}
		return task.Task{}, errors.Wrap(err, "updating task")
	}
	return t, nil
}

func (repo *taskRepository) DeleteTask(ctx context.Context, userID, id string) error {
	b := psql.Delete(taskTable).Where(sq.Eq{"id": id, "user_id": userID})
	_, err := exec(ctx, repo.db, b, task.ErrNotFound)
	if err != nil && !core.IsNotFound(err) {
		return errors.Wrap(err, "deleting task")
	}
	return err
}

func (repo *taskRepository) TaskStats(ctx context.Context, userID string) (task.Stats, error) {
	b := psql.Select("COUNT(*) AS total", "COUNT(*) FILTER (WHERE status = 'done') AS done").
		From(taskTable).
		Where(sq.Eq{"user_id": userID})
	var stats task.Stats
	if err := getOne(ctx, repo.db, &stats, b, nil); err != nil {
		return task.Stats{}, err
	}
	return stats, nil
}

func (repo *taskRepository) QueryDueTasks(ctx context.Context, from, to time.Time) ([]task.Task, error) {
	b := psql.Select(taskColumns...).From(taskTable).
		Where(sq.NotEq{"status": task.StatusDone}).
		Where(sq.GtOrEq{"due_date": from}).
		Where(sq.Lt{"due_date": to}).
		OrderBy("due_date", "id")

	tasks := make([]task.Task, 0)
	if err := selectAll(ctx, repo.db, &tasks, b); err != nil {
		return nil, err
	}
	return tasks, nil
}
