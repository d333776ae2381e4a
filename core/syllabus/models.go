package syllabus

import (
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/studyplanner/core"
)

// Statuses
const (
	StatusNotStarted = "not_started"
	StatusInProgress = "in_progress"
	StatusCompleted  = "completed"
)

var Statuses = []string{StatusNotStarted, StatusInProgress, StatusCompleted}

type Item struct {
	ID          string    `json:"id" db:"id"`
	CourseID    string    `json:"course_id" db:"course_id"`
	UserID      string    `json:"user_id" db:"user_id"`
	Title       string    `json:"title" db:"title"`
	Description string    `json:"description" db:"description"`
	Week        int       `json:"week" db:"week"`
	DueDate     null.Time `json:"due_date" db:"due_date"`
	Status      string    `json:"status" db:"status"`
	CompletedAt null.Time `json:"completed_at" db:"completed_at"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" db:"updated_at"`
}

// SetStatus stamps CompletedAt when the item becomes completed and clears it when it leaves that status.
func (it *Item) SetStatus(status string, now time.Time) {
	if status == StatusCompleted && it.Status != StatusCompleted {
		it.CompletedAt = null.TimeFrom(now)
	} else if status != StatusCompleted {
		it.CompletedAt = null.Time{}
	}
	it.Status = status
}

type NewItem struct {
	Title       string    `json:"title" validate:"required,notblank,max=200"`
	Description string    `json:"description"`
	Week        int       `json:"week" validate:"gte=0,lte=60"`
	DueDate     null.Time `json:"due_date"`
	Status      string    `json:"status" validate:"omitempty,oneof=not_started in_progress completed"`
}

func (ni *NewItem) Validate(validate *validator.Validate) error {
	ni.Title = core.CleanString(ni.Title)
	return validate.Struct(ni)
}

// UpdateItem holds the fields to change; absent fields are left untouched.
type UpdateItem struct {
	Title        *string   `json:"title" validate:"omitempty,notblank,max=200"`
	Description  *string   `json:"description"`
	Week         *int      `json:"week" validate:"omitempty,gte=0,lte=60"`
	DueDate      null.Time `json:"due_date"`
	ClearDueDate bool      `json:"clear_due_date"`
	Status       *string   `json:"status" validate:"omitempty,oneof=not_started in_progress completed"`
}

func (ui *UpdateItem) Validate(validate *validator.Validate) error {
	return validate.Struct(ui)
}

func (ui UpdateItem) Apply(it *Item, now time.Time) {
	if ui.Title != nil {
		it.Title = core.CleanString(*ui.Title)
	}
	if ui.Description != nil {
		it.Description = *ui.Description
	}
	if ui.Week != nil {
		it.Week = *ui.Week
	}
	if ui.DueDate.Valid {
		it.DueDate = ui.DueDate
	} else if ui.ClearDueDate {
		it.DueDate = null.Time{}
	}
	if ui.Status != nil {
		it.SetStatus(*ui.Status, now)
	}
}

type QueryFilter struct {
	Status string `query:"status"`
}

var OrderingFields = []string{"week", "title", "due_date", "status", "created_at", "updated_at"}
