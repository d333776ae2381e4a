package event

import (
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/studyplanner/core"
)

// Types
const (
	TypeStudy      = "study"
	TypeClass      = "class"
	TypeExam       = "exam"
	TypeAssignment = "assignment"
	TypePomodoro   = "pomodoro"
	TypeOther      = "other"
)

// Statuses
const (
	StatusScheduled  = "scheduled"
	StatusInProgress = "in_progress"
	StatusCompleted  = "completed"
	StatusCancelled  = "cancelled"
)

var (
	Types    = []string{TypeStudy, TypeClass, TypeExam, TypeAssignment, TypePomodoro, TypeOther}
	Statuses = []string{StatusScheduled, StatusInProgress, StatusCompleted, StatusCancelled}

	errEndBeforeStart = core.NewValidationError(nil, core.FieldError{Field: "end_time", Error: "end_time cannot be before start_time"})
)

type Event struct {
	ID              string      `json:"id" db:"id"`
	UserID          string      `json:"user_id" db:"user_id"`
	CourseID        null.String `json:"course_id" db:"course_id"`
	TaskID          null.String `json:"task_id" db:"task_id"`
	Title           string      `json:"title" db:"title"`
	Description     string      `json:"description" db:"description"`
	Type            string      `json:"type" db:"type"`
	Status          string      `json:"status" db:"status"`
	StartTime       time.Time   `json:"start_time" db:"start_time"`
	EndTime         null.Time   `json:"end_time" db:"end_time"`
	Location        string      `json:"location" db:"location"`
	ReminderMinutes int         `json:"reminder_minutes" db:"reminder_minutes"`
	CreatedAt       time.Time   `json:"created_at" db:"created_at"`
	UpdatedAt       time.Time   `json:"updated_at" db:"updated_at"`
}

func (e Event) validateTimes() error {
	if e.EndTime.Valid && e.EndTime.Time.Before(e.StartTime) {
		return errEndBeforeStart
	}
	return nil
}

// ReminderAt is when the owner should be reminded; zero without a reminder.
func (e Event) ReminderAt() time.Time {
	if e.ReminderMinutes <= 0 {
		return time.Time{}
	}
	return e.StartTime.Add(-time.Duration(e.ReminderMinutes) * time.Minute)
}

type NewEvent struct {
	CourseID        null.String `json:"course_id" validate:"omitempty,uuid"`
	TaskID          null.String `json:"task_id" validate:"omitempty,uuid"`
	Title           string      `json:"title" validate:"required,notblank,max=200"`
	Description     string      `json:"description"`
	Type            string      `json:"type" validate:"omitempty,oneof=study class exam assignment pomodoro other"`
	Status          string      `json:"status" validate:"omitempty,oneof=scheduled in_progress completed cancelled"`
	StartTime       time.Time   `json:"start_time" validate:"required"`
	EndTime         null.Time   `json:"end_time"`
	Location        string      `json:"location" validate:"max=200"`
	ReminderMinutes int         `json:"reminder_minutes" validate:"gte=0,lte=10080"`
}

func (ne *NewEvent) Validate(validate *validator.Validate) error {
	ne.Title = core.CleanString(ne.Title)
	ne.Location = core.CleanString(ne.Location)
	if err := validate.Struct(ne); err != nil {
		return err
	}
	if ne.EndTime.Valid && ne.EndTime.Time.Before(ne.StartTime) {
		return errEndBeforeStart
	}
	return nil
}

// UpdateEvent is a partial update: only provided fields change.
type UpdateEvent struct {
	CourseID        null.String `json:"course_id" validate:"omitempty,uuid"`
	ClearCourse     bool        `json:"clear_course"`
	TaskID          null.String `json:"task_id" validate:"omitempty,uuid"`
	ClearTask       bool        `json:"clear_task"`
	Title           *string     `json:"title" validate:"omitempty,notblank,max=200"`
	Description     *string     `json:"description"`
	Type            *string     `json:"type" validate:"omitempty,oneof=study class exam assignment pomodoro other"`
	Status          *string     `json:"status" validate:"omitempty,oneof=scheduled in_progress completed cancelled"`
	StartTime       *time.Time  `json:"start_time"`
	EndTime         null.Time   `json:"end_time"`
	ClearEndTime    bool        `json:"clear_end_time"`
	Location        *string     `json:"location" validate:"omitempty,max=200"`
	ReminderMinutes *int        `json:"reminder_minutes" validate:"omitempty,gte=0,lte=10080"`
}

func (ue *UpdateEvent) Validate(validate *validator.Validate) error {
	return validate.Struct(ue)
}

// Apply changes e in place. Completing an event without an end time ends it at `now`.
func (ue UpdateEvent) Apply(e *Event, now time.Time) error {
	if ue.CourseID.Valid {
		e.CourseID = ue.CourseID
	} else if ue.ClearCourse {
		e.CourseID = null.String{}
	}
	if ue.TaskID.Valid {
		e.TaskID = ue.TaskID
	} else if ue.ClearTask {
		e.TaskID = null.String{}
	}
	if ue.Title != nil {
		e.Title = core.CleanString(*ue.Title)
	}
	if ue.Description != nil {
		e.Description = *ue.Description
	}
	if ue.Type != nil {
		e.Type = *ue.Type
	}
	if ue.StartTime != nil {
		e.StartTime = ue.StartTime.UTC()
	}
	if ue.EndTime.Valid {
		e.EndTime = null.TimeFrom(ue.EndTime.Time.UTC())
	} else if ue.ClearEndTime {
		e.EndTime = null.Time{}
	}
	if ue.Location != nil {
		e.Location = core.CleanString(*ue.Location)
	}
	if ue.ReminderMinutes != nil {
		e.ReminderMinutes = *ue.ReminderMinutes
	}
	if ue.Status != nil {
		e.Status = *ue.Status
		if e.Status == StatusCompleted && !e.EndTime.Valid {
			e.EndTime = null.TimeFrom(now)
		}
	}
	return e.validateTimes()
}

type QueryFilter struct {
	From   core.ParamTime `query:"from"`
	To     core.ParamTime `query:"to"`
	Type   string         `query:"type"`
	Status string         `query:"status"`
}

func (qf *QueryFilter) Clean() {
	qf.Type = core.CleanString(qf.Type, true /* lower */)
	qf.Status = core.CleanString(qf.Status, true /* lower */)
}

// Matches reports whether e starts in [From, To) and has the wanted type and status.
func (qf *QueryFilter) Matches(e Event) bool {
	if qf == nil {
		return true
	}
	if !(core.TimeRange{From: qf.From.Time, To: qf.To.Time}).Contains(e.StartTime) {
		return false
	}
	if qf.Type != "" && e.Type != qf.Type {
		return false
	}
	if qf.Status != "" && e.Status != qf.Status {
		return false
	}
	return true
}

var OrderingFields = []string{"title", "type", "status", "start_time", "end_time", "created_at", "updated_at"}
