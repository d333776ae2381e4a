package core

import (
	"fmt"
	"strings"
	"time"
)

type DBOrdering struct {
	Field     string
	Ascending bool
}

func (ord DBOrdering) String() string {
	direction := "DESC"
	if ord.Ascending {
		direction = "ASC"
	}
	return ord.Field + " " + direction
}

// AllowedOrderings drops every ordering whose field is not in `fields`.
// Orderings end up in raw ORDER BY clauses: never pass them through unfiltered.
func AllowedOrderings(orderings []DBOrdering, fields ...string) []DBOrdering {
	if len(orderings) == 0 {
		return nil
	}
	allowed := make(map[string]bool, len(fields))
	for _, f := range fields {
		allowed[f] = true
	}
	kept := make([]DBOrdering, 0, len(orderings))
	for _, ord := range orderings {
		if allowed[strings.ToLower(ord.Field)] {
			ord.Field = strings.ToLower(ord.Field)
			kept = append(kept, ord)
		}
	}
	return kept
}

// TimeRange is a half-open [From, To) window. Zero bounds are open.
type TimeRange struct {
	From time.Time
	To   time.Time
}

func (tr TimeRange) Contains(t time.Time) bool {
	if !tr.From.IsZero() && t.Before(tr.From) {
		return false
	}
	if !tr.To.IsZero() && !t.Before(tr.To) {
		return false
	}
	return true
}

// NowFunc is the clock used by services. mockable
var NowFunc = func() time.Time { return time.Now().UTC() }

// ParamTime is a time.Time bound from query params.
// Accepts RFC 3339 timestamps and plain dates (UTC midnight).
type ParamTime struct {
	time.Time
}

func (pt *ParamTime) UnmarshalParam(param string) error {
	if param == "" {
		pt.Time = time.Time{}
		return nil
	}
	for _, layout := range []string{time.RFC3339Nano, "2006-01-02"} {
		if t, err := time.Parse(layout, param); err == nil {
			pt.Time = t.UTC()
			return nil
		}
	}
	return fmt.Errorf("invalid time %q: use RFC 3339 or YYYY-MM-DD", param)
}
