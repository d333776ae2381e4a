package studysession

import (
	"math"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/studyplanner/core"
)

var (
	errEndBeforeStart = core.FieldError{Field: "end_time", Error: "end_time cannot be before start_time"}
	errNoDuration     = core.FieldError{Field: "duration_minutes", Error: "duration_minutes must be greater than 0"}
)

// Session is one completed focus interval.
type Session struct {
	ID                 string      `json:"id" db:"id"`
	UserID             string      `json:"user_id" db:"user_id"`
	EventID            null.String `json:"event_id" db:"event_id"`
	TaskID             null.String `json:"task_id" db:"task_id"`
	SyllabusItemID     null.String `json:"syllabus_item_id" db:"syllabus_item_id"`
	StartTime          time.Time   `json:"start_time" db:"start_time"`
	EndTime            time.Time   `json:"end_time" db:"end_time"`
	DurationMinutes    int         `json:"duration_minutes" db:"duration_minutes"`
	ProductivityRating null.Int    `json:"productivity_rating" db:"productivity_rating"`
	Notes              string      `json:"notes" db:"notes"`
	BreaksTaken        int         `json:"breaks_taken" db:"breaks_taken"`
	CreatedAt          time.Time   `json:"created_at" db:"created_at"`
	UpdatedAt          time.Time   `json:"updated_at" db:"updated_at"`
}

// checkTimes enforces end >= start and a positive duration,
// deriving the duration from the times when it is not set.
func (s *Session) checkTimes() error {
	if s.EndTime.Before(s.StartTime) {
		return core.NewValidationError(nil, errEndBeforeStart)
	}
	if s.DurationMinutes == 0 {
		s.DurationMinutes = int(math.Round(s.EndTime.Sub(s.StartTime).Minutes()))
	}
	if s.DurationMinutes <= 0 {
		return core.NewValidationError(nil, errNoDuration)
	}
	return nil
}

type NewSession struct {
	EventID            null.String `json:"event_id" validate:"omitempty,uuid"`
	TaskID             null.String `json:"task_id" validate:"omitempty,uuid"`
	SyllabusItemID     null.String `json:"syllabus_item_id" validate:"omitempty,uuid"`
	StartTime          time.Time   `json:"start_time" validate:"required"`
	EndTime            time.Time   `json:"end_time" validate:"required"`
	DurationMinutes    int         `json:"duration_minutes" validate:"gte=0,lte=1440"`
	ProductivityRating null.Int    `json:"productivity_rating" validate:"omitempty,min=1,max=5"`
	Notes              string      `json:"notes"`
	BreaksTaken        int         `json:"breaks_taken" validate:"gte=0"`
}

func (ns *NewSession) Validate(validate *validator.Validate) error {
	return validate.Struct(ns)
}

// UpdateSession is a partial update; the linked event cannot change.
type UpdateSession struct {
	TaskID             null.String `json:"task_id" validate:"omitempty,uuid"`
	ClearTask          bool        `json:"clear_task"`
	SyllabusItemID     null.String `json:"syllabus_item_id" validate:"omitempty,uuid"`
	ClearSyllabusItem  bool        `json:"clear_syllabus_item"`
	StartTime          *time.Time  `json:"start_time"`
	EndTime            *time.Time  `json:"end_time"`
	DurationMinutes    *int        `json:"duration_minutes" validate:"omitempty,gt=0,lte=1440"`
	ProductivityRating null.Int    `json:"productivity_rating" validate:"omitempty,min=1,max=5"`
	ClearRating        bool        `json:"clear_rating"`
	Notes              *string     `json:"notes"`
	BreaksTaken        *int        `json:"breaks_taken" validate:"omitempty,gte=0"`
}

func (us *UpdateSession) Validate(validate *validator.Validate) error {
	return validate.Struct(us)
}

func (us UpdateSession) Apply(s *Session) error {
	if us.TaskID.Valid {
		s.TaskID = us.TaskID
	} else if us.ClearTask {
		s.TaskID = null.String{}
	}
	if us.SyllabusItemID.Valid {
		s.SyllabusItemID = us.SyllabusItemID
	} else if us.ClearSyllabusItem {
		s.SyllabusItemID = null.String{}
	}
	timesChanged := us.StartTime != nil || us.EndTime != nil
	if us.StartTime != nil {
		s.StartTime = us.StartTime.UTC()
	}
	if us.EndTime != nil {
		s.EndTime = us.EndTime.UTC()
	}
	if us.DurationMinutes != nil {
		s.DurationMinutes = *us.DurationMinutes
	} else if timesChanged {
		s.DurationMinutes = 0 // derived again
	}
	if us.ProductivityRating.Valid {
		s.ProductivityRating = us.ProductivityRating
	} else if us.ClearRating {
		s.ProductivityRating = null.Int{}
	}
	if us.Notes != nil {
		s.Notes = *us.Notes
	}
	if us.BreaksTaken != nil {
		s.BreaksTaken = *us.BreaksTaken
	}
	return s.checkTimes()
}

type QueryFilter struct {
	From           core.ParamTime `query:"from"`
	To             core.ParamTime `query:"to"`
	EventID        string         `query:"event_id"`
	TaskID         string         `query:"task_id"`
	SyllabusItemID string         `query:"syllabus_item_id"`
}

// Matches reports whether s starts in [From, To) and has the wanted links.
func (qf *QueryFilter) Matches(s Session) bool {
	if qf == nil {
		return true
	}
	if !(core.TimeRange{From: qf.From.Time, To: qf.To.Time}).Contains(s.StartTime) {
		return false
	}
	if qf.EventID != "" && s.EventID.String != qf.EventID {
		return false
	}
	if qf.TaskID != "" && s.TaskID.String != qf.TaskID {
		return false
	}
	if qf.SyllabusItemID != "" && s.SyllabusItemID.String != qf.SyllabusItemID {
		return false
	}
	return true
}

var OrderingFields = []string{"start_time", "end_time", "duration_minutes", "productivity_rating", "created_at", "updated_at"}
