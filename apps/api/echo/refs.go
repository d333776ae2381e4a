package echoapi

import (
	"context"

	"github.com/volatiletech/null/v8"

	"github.com/trezcool/studyplanner/core"
	"github.com/trezcool/studyplanner/core/course"
	"github.com/trezcool/studyplanner/core/syllabus"
	"github.com/trezcool/studyplanner/core/task"
)

// refChecker verifies that the rows a payload links to belong to the caller.
type refChecker struct {
	courses  course.ServiceInterface
	syllabus syllabus.ServiceInterface
	tasks    task.ServiceInterface
}

type ref struct {
	field string
	id    null.String
}

func courseRef(id null.String) ref   { return ref{field: "course_id", id: id} }
func syllabusRef(id null.String) ref { return ref{field: "syllabus_item_id", id: id} }
func taskRef(id null.String) ref     { return ref{field: "task_id", id: id} }

// check reports every unknown reference as a field error.
func (rc refChecker) check(ctx context.Context, userID string, refs ...ref) error {
	crefs := make([]core.Ref, 0, len(refs))
	for _, r := range refs {
		crefs = append(crefs, core.Ref{Field: r.field, ID: r.id, Get: rc.getter(userID, r.field)})
	}
	return core.CheckRefs(ctx, crefs...)
}

func (rc refChecker) getter(userID, field string) func(ctx context.Context, id string) error {
	return func(ctx context.Context, id string) error {
		var err error
		switch field {
		case "course_id":
			_, err = rc.courses.Get(ctx, userID, id)
		case "syllabus_item_id":
			_, err = rc.syllabus.Get(ctx, userID, id)
		case "task_id":
			_, err = rc.tasks.Get(ctx, userID, id)
		}
		return err
	}
}
