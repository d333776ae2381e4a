package analytics

import (
	"time"

	"github.com/volatiletech/null/v8"

	"github.com/trezcool/studyplanner/core"
)

const (
	DefaultWindowDays = 7
	MaxWindowDays     = 366
	dateLayout        = "2006-01-02"
	day               = 24 * time.Hour
)

var errInvalidWindow = core.NewValidationError(nil, core.FieldError{Field: "to", Error: "to must be after from"})

// Window selects sessions starting in [From, To).
type Window struct {
	From core.ParamTime `query:"from"`
	To   core.ParamTime `query:"to"`
}

// Resolve fills missing bounds: To defaults to the end of today and From to
// DefaultWindowDays before To. From is truncated and To rounded up to whole UTC days.
func (w Window) Resolve(now time.Time) (core.TimeRange, error) {
	to := w.To.Time
	if to.IsZero() {
		to = truncateDay(now).Add(day)
	}
	to = truncateDay(to.Add(day - time.Nanosecond))

	from := w.From.Time
	if from.IsZero() {
		from = to.Add(-DefaultWindowDays * day)
	}
	from = truncateDay(from)

	if !from.Before(to) {
		return core.TimeRange{}, errInvalidWindow
	}
	if to.Sub(from) > MaxWindowDays*day {
		from = to.Add(-MaxWindowDays * day)
	}
	return core.TimeRange{From: from, To: to}, nil
}

// SessionStat is a study session with the course it counts towards,
// reached through its task, syllabus item or event.
type SessionStat struct {
	StartTime          time.Time   `db:"start_time"`
	DurationMinutes    int         `db:"duration_minutes"`
	ProductivityRating null.Int    `db:"productivity_rating"`
	CourseID           null.String `db:"course_id"`
	CourseName         null.String `db:"course_name"`
}

type DayMinutes struct {
	Date     string `json:"date"` // YYYY-MM-DD
	Minutes  int    `json:"minutes"`
	Sessions int    `json:"sessions"`
}

type CourseMinutes struct {
	CourseID   null.String `json:"course_id"`
	CourseName string      `json:"course_name"`
	Minutes    int         `json:"minutes"`
	Sessions   int         `json:"sessions"`
}

type Summary struct {
	From               time.Time       `json:"from"`
	To                 time.Time       `json:"to"`
	TotalMinutes       int             `json:"total_minutes"`
	SessionCount       int             `json:"session_count"`
	AverageRating      null.Float64    `json:"average_rating"`
	TasksTotal         int             `json:"tasks_total"`
	TasksDone          int             `json:"tasks_done"`
	TaskCompletionRate float64         `json:"task_completion_rate"`
	CurrentStreak      int             `json:"current_streak"`
	Daily              []DayMinutes    `json:"daily"`
	Courses            []CourseMinutes `json:"courses"`
}

func truncateDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
