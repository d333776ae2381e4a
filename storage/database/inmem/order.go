package inmemdb

import (
	"sort"
	"strings"
	"time"

	"github.com/volatiletech/null/v8"

	"github.com/trezcool/studyplanner/core"
)

// fieldFunc returns the value of a whitelisted ordering field.
type fieldFunc[T any] func(row T, field string) interface{}

// orderRows sorts rows like a PostgreSQL ORDER BY: NULLs come last ascending, first descending.
// Rows are first sorted with less, which also breaks ties.
func orderRows[T any](rows []T, ordering []core.DBOrdering, field fieldFunc[T], less func(a, b T) bool) {
	sort.SliceStable(rows, func(i, j int) bool { return less(rows[i], rows[j]) })
	if len(ordering) == 0 {
		return
	}
	sort.SliceStable(rows, func(i, j int) bool {
		for _, ord := range ordering {
			c := compare(field(rows[i], ord.Field), field(rows[j], ord.Field))
			if c == 0 {
				continue
			}
			if !ord.Ascending {
				c = -c
			}
			return c < 0
		}
		return false
	})
}

func compare(a, b interface{}) int {
	switch x := a.(type) {
	case string:
		return strings.Compare(strings.ToLower(x), strings.ToLower(b.(string)))
	case int:
		y := b.(int)
		switch {
		case x < y:
			return -1
		case x > y:
			return 1
		}
		return 0
	case bool:
		y := b.(bool)
		if x == y {
			return 0
		}
		if !x {
			return -1
		}
		return 1
	case time.Time:
		y := b.(time.Time)
		switch {
		case x.Before(y):
			return -1
		case x.After(y):
			return 1
		}
		return 0
	case null.Time:
		y := b.(null.Time)
		if !x.Valid || !y.Valid {
			return compareNull(x.Valid, y.Valid)
		}
		return compare(x.Time, y.Time)
	case null.Int:
		y := b.(null.Int)
		if !x.Valid || !y.Valid {
			return compareNull(x.Valid, y.Valid)
		}
		return compare(x.Int, y.Int)
	}
	return 0
}

func compareNull(aValid, bValid bool) int {
	switch {
	case aValid == bValid:
		return 0
	case aValid:
		return -1
	}
	return 1
}

func containsFold(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}
