package sqlxrepos

import (
	"context"

	sq "github.com/Masterminds/squirrel"
	"github.com/pkg/errors"

	"github.com/trezcool/studyplanner/core"
	"github.com/trezcool/studyplanner/core/course"
)

const courseTable = "course"

var courseColumns = []string{"id", "user_id", "code", "name", "instructor", "color", "credits", "semester", "description", "created_at", "updated_at"}

type courseRepository struct {
	db DB
}

func NewCourseRepository(db DB) course.Repository {
	return &courseRepository{db: db}
}

func (repo *courseRepository) CreateCourse(ctx context.Context, c course.Course) (course.Course, error) {
	if c.ID == "" {
		c.ID = newID()
	}
	b := psql.Insert(courseTable).Columns(courseColumns...).Values(
		c.ID, c.UserID, c.Code, c.Name, c.Instructor, c.Color, c.Credits, c.Semester, c.Description, c.CreatedAt, c.UpdatedAt,
	)
	if _, err := exec(ctx, repo.db, b, nil); err != nil {
		return course.Course{}, errors.Wrap(err, "inserting course")
	}
	return c, nil
}

func (repo *courseRepository) QueryCourses(ctx context.Context, userID string, filter *course.QueryFilter, ordering []core.DBOrdering) ([]course.Course, error) {
	b := psql.Select(courseColumns...).From(courseTable).Where(sq.Eq{"user_id": userID})
	if filter != nil {
		if filter.Search != "" {
			b = b.Where(ilike(filter.Search, "code", "name", "instructor"))
		}
		if filter.Semester != "" {
			b = b.Where(sq.Eq{"semester": filter.Semester})
		}
	}
	b = orderBy(b, ordering, "code", "id")

	courses := make([]course.Course, 0)
	if err := selectAll(ctx, repo.db, &courses, b); err != nil {
		return nil, err
	}
	return courses, nil
}

func (repo *courseRepository) GetCourse(ctx context.Context, userID, id string) (course.Course, error) {
	b := psql.Select(courseColumns...).From(courseTable).Where(sq.Eq{"id": id, "user_id": userID})
	var c course.Course
	if err := getOne(ctx, repo.db, &c, b, course.ErrNotFound); err != nil {
		return course.Course{}, err
	}
	return c, nil
}

func (repo *courseRepository) UpdateCourse(ctx context.Context, c course.Course) (course.Course, error) {
	b := psql.Update(courseTable).SetMap(map[string]interface{}{
		"code":        c.Code,
		"name":        c.Name,
		"instructor":  c.Instructor,
		"color":       c.Color,
		"credits":     c.Credits,
		"semester":    c.Semester,
		"description": c.Description,
		"updated_at":  c.UpdatedAt,
	}).Where(sq.Eq{"id": c.ID, "user_id": c.UserID})
	if _, err := exec(ctx, repo.db, b, course.ErrNotFound); err != nil {
		if core.IsNotFound(err) {
			return course.Course{}, err
		}
		return course.Course{}, errors.Wrap(err, "updating course")
	}
	return c, nil
}

// DeleteCourse relies on the foreign keys: syllabus items cascade, task and event links are set to NULL.
func (repo *courseRepository) DeleteCourse(ctx context.Context, userID, id string) error {
	b := psql.Delete(courseTable).Where(sq.Eq{"id": id, "user_id": userID})
	_, err := exec(ctx, repo.db, b, course.ErrNotFound)
	if err != nil && !core.IsNotFound(err) {
		return errors.Wrap(err, "deleting course")
	}
	return err
}
