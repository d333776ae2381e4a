package inmemdb

import (
	"context"

	"github.com/trezcool/studyplanner/core"
	"github.com/trezcool/studyplanner/core/course"
)

type courseRepository struct {
	db *DB
}

var _ course.Repository = (*courseRepository)(nil) // interface compliance check

func NewCourseRepository(db *DB) course.Repository {
	return &courseRepository{db: db}
}

func courseField(c course.Course, field string) interface{} {
	switch field {
	case "name":
		return c.Name
	case "credits":
		return c.Credits
	case "semester":
		return c.Semester
	case "created_at":
		return c.CreatedAt
	case "updated_at":
		return c.UpdatedAt
	}
	return c.Code
}

func (repo *courseRepository) CreateCourse(_ context.Context, c course.Course) (course.Course, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	c.ID = newID(c.ID)
	repo.db.courses[c.ID] = &c
	return c, nil
}

func (repo *courseRepository) QueryCourses(_ context.Context, userID string, filter *course.QueryFilter, ordering []core.DBOrdering) ([]course.Course, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	courses := make([]course.Course, 0)
	for _, c := range repo.db.courses {
		if c.UserID != userID {
			continue
		}
		if filter != nil {
			if filter.Search != "" && !(containsFold(c.Code, filter.Search) || containsFold(c.Name, filter.Search) || containsFold(c.Instructor, filter.Search)) {
				continue
			}
			if filter.Semester != "" && c.Semester != filter.Semester {
				continue
			}
		}
		courses = append(courses, *c)
	}
	orderRows(courses, ordering, courseField, func(a, b course.Course) bool {
		if a.Code != b.Code {
			return a.Code < b.Code
		}
		return a.ID < b.ID
	})
	return courses, nil
}

func (repo *courseRepository) GetCourse(_ context.Context, userID, id string) (course.Course, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if c, ok := repo.db.courses[id]; ok && c.UserID == userID {
		return *c, nil
	}
	return course.Course{}, course.ErrNotFound
}

func (repo *courseRepository) UpdateCourse(_ context.Context, c course.Course) (course.Course, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	if orig, ok := repo.db.courses[c.ID]; !ok || orig.UserID != c.UserID {
		return course.Course{}, course.ErrNotFound
	}
	repo.db.courses[c.ID] = &c
	return c, nil
}

func (repo *courseRepository) DeleteCourse(_ context.Context, userID, id string) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	if c, ok := repo.db.courses[id]; !ok || c.UserID != userID {
		return course.ErrNotFound
	}
	repo.db.deleteCourse(id)
	return nil
}
