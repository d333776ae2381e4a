package core_test

import (
	"context"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/studyplanner/core"
)

func TestCheckRefs(t *testing.T) {
	ctx := context.Background()
	errNotFound := core.NewNotFoundError("course not found")
	var looked []string
	get := func(err error) func(context.Context, string) error {
		return func(_ context.Context, id string) error {
			looked = append(looked, id)
			return err
		}
	}

	err := core.CheckRefs(ctx,
		core.Ref{Field: "course_id", ID: null.StringFrom("c1"), Get: get(errors.Wrap(errNotFound, "query"))},
		core.Ref{Field: "task_id", ID: null.String{}, Get: get(errNotFound)},
		core.Ref{Field: "syllabus_item_id", ID: null.StringFrom("s1"), Get: get(nil)},
	)
	var vErr *core.ValidationError
	require.True(t, errors.As(err, &vErr))
	assert.Equal(t, []core.FieldError{{Field: "course_id", Error: "course not found"}}, vErr.Fields)
	assert.Equal(t, []string{"c1", "s1"}, looked, "unset refs are not looked up")

	t.Run("lookup failure", func(t *testing.T) {
		boom := errors.New("connection reset")
		err := core.CheckRefs(ctx, core.Ref{Field: "course_id", ID: null.StringFrom("c1"), Get: get(boom)})
		assert.Equal(t, boom, errors.Cause(err))
		assert.False(t, errors.As(err, &vErr))
	})

	assert.NoError(t, core.CheckRefs(ctx))
}
