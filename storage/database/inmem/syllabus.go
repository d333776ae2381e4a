package inmemdb

import (
	"context"

	"github.com/trezcool/studyplanner/core"
	"github.com/trezcool/studyplanner/core/syllabus"
)

type syllabusRepository struct {
	db *DB
}

var _ syllabus.Repository = (*syllabusRepository)(nil) // interface compliance check

func NewSyllabusRepository(db *DB) syllabus.Repository {
	return &syllabusRepository{db: db}
}

func itemField(it syllabus.Item, field string) interface{} {
	switch field {
	case "title":
		return it.Title
	case "due_date":
		return it.DueDate
	case "status":
		return it.Status
	case "created_at":
		return it.CreatedAt
	case "updated_at":
		return it.UpdatedAt
	}
	return it.Week
}

func (repo *syllabusRepository) CreateItem(_ context.Context, it syllabus.Item) (syllabus.Item, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	it.ID = newID(it.ID)
	repo.db.items[it.ID] = &it
	return it, nil
}

func (repo *syllabusRepository) QueryItems(_ context.Context, userID, courseID string, filter *syllabus.QueryFilter, ordering []core.DBOrdering) ([]syllabus.Item, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	items := make([]syllabus.Item, 0)
	for _, it := range repo.db.items {
		if it.UserID != userID || it.CourseID != courseID {
			continue
		}
		if filter != nil && filter.Status != "" && it.Status != filter.Status {
			continue
		}
		items = append(items, *it)
	}
	orderRows(items, ordering, itemField, func(a, b syllabus.Item) bool {
		if a.Week != b.Week {
			return a.Week < b.Week
		}
		if c := compare(a.DueDate, b.DueDate); c != 0 {
			return c < 0
		}
		return a.ID < b.ID
	})
	return items, nil
}

func (repo *syllabusRepository) GetItem(_ context.Context, userID, id string) (syllabus.Item, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if it, ok := repo.db.items[id]; ok && it.UserID == userID {
		return *it, nil
	}
	return syllabus.Item{}, syllabus.ErrNotFound
}

func (repo *syllabusRepository) UpdateItem(_ context.Context, it syllabus.Item) (syllabus.Item, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	if orig, ok := repo.db.items[it.ID]; !ok || orig.UserID != it.UserID {
		return syllabus.Item{}, syllabus.ErrNotFound
	}
	repo.db.items[it.ID] = &it
	return it, nil
}

func (repo *syllabusRepository) DeleteItem(_ context.Context, userID, id string) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	if it, ok := repo.db.items[id]; !ok || it.UserID != userID {
		return syllabus.ErrNotFound
	}
	repo.db.deleteItem(id)
	return nil
}
