package sqlxrepos

import (
	"context"

	sq "github.com/Masterminds/squirrel"
	"github.com/pkg/errors"

	"github.com/trezcool/studyplanner/core"
	"github.com/trezcool/studyplanner/core/syllabus"
)

const syllabusTable = "syllabus_item"

var syllabusColumns = []string{"id", "course_id", "user_id", "title", "description", "week", "due_date", "status", "completed_at", "created_at", "updated_at"}

type syllabusRepository struct {
	db DB
}

func NewSyllabusRepository(db DB) syllabus.Repository {
	return &syllabusRepository{db: db}
}

func (repo *syllabusRepository) CreateItem(ctx context.Context, it syllabus.Item) (syllabus.Item, error) {
	if it.ID == "" {
		it.ID = newID()
	}
	b := psql.Insert(syllabusTable).Columns(syllabusColumns...).Values(
		it.ID, it.CourseID, it.UserID, it.Title, it.Description, it.Week, it.DueDate, it.Status, it.CompletedAt, it.CreatedAt, it.UpdatedAt,
	)
	if _, err := exec(ctx, repo.db, b, nil); err != nil {
		return syllabus.Item{}, errors.Wrap(err, "inserting syllabus item")
	}
	return it, nil
}

func (repo *syllabusRepository) QueryItems(ctx context.Context, userID, courseID string, filter *syllabus.QueryFilter, ordering []core.DBOrdering) ([]syllabus.Item, error) {
	b := psql.Select(syllabusColumns...).From(syllabusTable).Where(sq.Eq{"user_id": userID, "course_id": courseID})
	if filter != nil && filter.Status != "" {
		b = b.Where(sq.Eq{"status": filter.Status})
	}
	b = orderBy(b, ordering, "week", "due_date", "id")

	items := make([]syllabus.Item, 0)
	if err := selectAll(ctx, repo.db, &items, b); err != nil {
		return nil, err
	}
	return items, nil
}

func (repo *syllabusRepository) GetItem(ctx context.Context, userID, id string) (syllabus.Item, error) {
	b := psql.Select(syllabusColumns...).From(syllabusTable).Where(sq.Eq{"id": id, "user_id": userID})
	var it syllabus.Item
	if err := getOne(ctx, repo.db, &it, b, syllabus.ErrNotFound); err != nil {
		return syllabus.Item{}, err
	}
	return it, nil
}

func (repo *syllabusRepository) UpdateItem(ctx context.Context, it syllabus.Item) (syllabus.Item, error) {
	b := psql.Update(syllabusTable).SetMap(map[string]interface{}{
		"title":        it.Title,
		"description":  it.Description,
		"week":         it.Week,
		"due_date":     it.DueDate,
		"status":       it.Status,
		"completed_at": it.CompletedAt,
		"updated_at":   it.UpdatedAt,
	}).Where(sq.Eq{"id": it.ID, "user_id": it.UserID})
	if _, err := exec(ctx, repo.db, b, syllabus.ErrNotFound); err != nil {
		if core.IsNotFound(err) {
			return syllabus.Item{}, err
		}
		return syllabus.Item{}, errors.Wrap(err, "updating syllabus item")
	}
	return it, nil
}

func (repo *syllabusRepository) DeleteItem(ctx context.Context, userID, id string) error {
	b := psql.Delete(syllabusTable).Where(sq.Eq{"id": id, "user_id": userID})
	_, err := exec(ctx, repo.db, b, syllabus.ErrNotFound)
	if err != nil && !core.IsNotFound(err) {
		return errors.Wrap(err, "deleting syllabus item")
	}
	return err
}
