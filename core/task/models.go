package task

import (
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/studyplanner/core"
)

// Statuses
const (
	StatusTodo       = "todo"
	StatusInProgress = "in_progress"
	StatusDone       = "done"
)

// Priorities
const (
	PriorityLow    = "low"
	PriorityMedium = "medium"
	PriorityHigh   = "high"
)

var (
	Statuses   = []string{StatusTodo, StatusInProgress, StatusDone}
	Priorities = []string{PriorityLow, PriorityMedium, PriorityHigh}
)

type Task struct {
	ID               string      `json:"id" db:"id"`
	UserID           string      `json:"user_id" db:"user_id"`
	CourseID         null.String `json:"course_id" db:"course_id"`
	SyllabusItemID   null.String `json:"syllabus_item_id" db:"syllabus_item_id"`
	Title            string      `json:"title" db:"title"`
	Description      string      `json:"description" db:"description"`
	Status           string      `json:"status" db:"status"`
	Priority         string      `json:"priority" db:"priority"`
	DueDate          null.Time   `json:"due_date" db:"due_date"`
	CompletedAt      null.Time   `json:"completed_at" db:"completed_at"`
	EstimatedMinutes int         `json:"estimated_minutes" db:"estimated_minutes"`
	CreatedAt        time.Time   `json:"created_at" db:"created_at"`
	UpdatedAt        time.Time   `json:"updated_at" db:"updated_at"`
}

// SetStatus stamps CompletedAt when the task becomes done and clears it when it leaves that status.
func (t *Task) SetStatus(status string, now time.Time) {
	if status == StatusDone && t.Status != StatusDone {
		t.CompletedAt = null.TimeFrom(now)
	} else if status != StatusDone {
		t.CompletedAt = null.Time{}
	}
	t.Status = status
}

func (t Task) IsOverdue(now time.Time) bool {
	return t.Status != StatusDone && t.DueDate.Valid && t.DueDate.Time.Before(now)
}

type NewTask struct {
	CourseID         null.String `json:"course_id" validate:"omitempty,uuid"`
	SyllabusItemID   null.String `json:"syllabus_item_id" validate:"omitempty,uuid"`
	Title            string      `json:"title" validate:"required,notblank,max=200"`
	Description      string      `json:"description"`
	Status           string      `json:"status" validate:"omitempty,oneof=todo in_progress done"`
	Priority         string      `json:"priority" validate:"omitempty,oneof=low medium high"`
	DueDate          null.Time   `json:"due_date"`
	EstimatedMinutes int         `json:"estimated_minutes" validate:"gte=0"`
}

func (nt *NewTask) Validate(validate *validator.Validate) error {
	nt.Title = core.CleanString(nt.Title)
	return validate.Struct(nt)
}

// UpdateTask holds the fields to change; absent fields are left untouched.
// The Clear* flags unlink the course or syllabus item and drop the due date.
type UpdateTask struct {
	CourseID          null.String `json:"course_id" validate:"omitempty,uuid"`
	ClearCourse       bool        `json:"clear_course"`
	SyllabusItemID    null.String `json:"syllabus_item_id" validate:"omitempty,uuid"`
	ClearSyllabusItem bool        `json:"clear_syllabus_item"`
	Title             *string     `json:"title" validate:"omitempty,notblank,max=200"`
	Description       *string     `json:"description"`
	Status            *string     `json:"status" validate:"omitempty,oneof=todo in_progress done"`
	Priority          *string     `json:"priority" validate:"omitempty,oneof=low medium high"`
	DueDate           null.Time   `json:"due_date"`
	ClearDueDate      bool        `json:"clear_due_date"`
	EstimatedMinutes  *int        `json:"estimated_minutes" validate:"omitempty,gte=0"`
}

func (ut *UpdateTask) Validate(validate *validator.Validate) error {
	return validate.Struct(ut)
}

func (ut UpdateTask) Apply(t *Task, now time.Time) {
	if ut.CourseID.Valid {
		t.CourseID = ut.CourseID
	} else if ut.ClearCourse {
		t.CourseID = null.String{}
	}
	if ut.SyllabusItemID.Valid {
		t.SyllabusItemID = ut.SyllabusItemID
	} else if ut.ClearSyllabusItem {
		t.SyllabusItemID = null.String{}
	}
	if ut.Title != nil {
		t.Title = core.CleanString(*ut.Title)
	}
	if ut.Description != nil {
		t.Description = *ut.Description
	}
	if ut.Priority != nil {
		t.Priority = *ut.Priority
	}
	if ut.DueDate.Valid {
		t.DueDate = ut.DueDate
	} else if ut.ClearDueDate {
		t.DueDate = null.Time{}
	}
	if ut.EstimatedMinutes != nil {
		t.EstimatedMinutes = *ut.EstimatedMinutes
	}
	if ut.Status != nil {
		t.SetStatus(*ut.Status, now)
	}
}

type QueryFilter struct {
	Status    string         `query:"status"`
	Priority  string         `query:"priority"`
	CourseID  string         `query:"course_id"`
	DueBefore core.ParamTime `query:"due_before"`
	Search    string         `query:"search"`
}

func (qf *QueryFilter) Clean() {
	qf.Search = core.CleanString(qf.Search)
	qf.Status = core.CleanString(qf.Status, true /* lower */)
	qf.Priority = core.CleanString(qf.Priority, true /* lower */)
}

// Matches applies the QueryFilter in memory (search is case-insensitive).
func (qf *QueryFilter) Matches(t Task) bool {
	if qf == nil {
		return true
	}
	if qf.Status != "" && t.Status != qf.Status {
		return false
	}
	if qf.Priority != "" && t.Priority != qf.Priority {
		return false
	}
	if qf.CourseID != "" && t.CourseID.String != qf.CourseID {
		return false
	}
	if !qf.DueBefore.IsZero() && !(t.DueDate.Valid && t.DueDate.Time.Before(qf.DueBefore.Time)) {
		return false
	}
	if qf.Search != "" {
		s := strings.ToLower(qf.Search)
		if !(strings.Contains(strings.ToLower(t.Title), s) || strings.Contains(strings.ToLower(t.Description), s)) {
			return false
		}
	}
	return true
}

var OrderingFields = []string{"title", "status", "priority", "due_date", "completed_at", "created_at", "updated_at"}

// Stats counts a user's tasks.
type Stats struct {
	Total int `json:"total" db:"total"`
	Done  int `json:"done" db:"done"`
}

func (s Stats) CompletionRate() float64 {
	if s.Total == 0 {
		return 0
	}
	return float64(s.Done) / float64(s.Total)
}
