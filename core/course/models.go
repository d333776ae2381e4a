package course

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/trezcool/studyplanner/core"
)

// UnassignedName labels study time not linked to any course.
const UnassignedName = "Unassigned"

type Course struct {
	ID          string    `json:"id" db:"id"`
	UserID      string    `json:"user_id" db:"user_id"`
	Code        string    `json:"code" db:"code"`
	Name        string    `json:"name" db:"name"`
	Instructor  string    `json:"instructor" db:"instructor"`
	Color       string    `json:"color" db:"color"`
	Credits     int       `json:"credits" db:"credits"`
	Semester    string    `json:"semester" db:"semester"`
	Description string    `json:"description" db:"description"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" db:"updated_at"`
}

type NewCourse struct {
	Code        string `json:"code" validate:"required,max=32"`
	Name        string `json:"name" validate:"required,notblank,max=200"`
	Instructor  string `json:"instructor" validate:"max=200"`
	Color       string `json:"color" validate:"omitempty,hexcolor"`
	Credits     int    `json:"credits" validate:"gte=0,lte=60"`
	Semester    string `json:"semester" validate:"max=64"`
	Description string `json:"description"`
}

func (nc *NewCourse) Validate(validate *validator.Validate) error {
	nc.Code = core.CleanString(nc.Code)
	nc.Name = core.CleanString(nc.Name)
	nc.Instructor = core.CleanString(nc.Instructor)
	nc.Semester = core.CleanString(nc.Semester)
	return validate.Struct(nc)
}

// UpdateCourse holds the fields to change; nil fields are left untouched.
type UpdateCourse struct {
	Code        *string `json:"code" validate:"omitempty,notblank,max=32"`
	Name        *string `json:"name" validate:"omitempty,notblank,max=200"`
	Instructor  *string `json:"instructor" validate:"omitempty,max=200"`
	Color       *string `json:"color" validate:"omitempty,hexcolor"`
	Credits     *int    `json:"credits" validate:"omitempty,gte=0,lte=60"`
	Semester    *string `json:"semester" validate:"omitempty,max=64"`
	Description *string `json:"description"`
}

func (uc *UpdateCourse) Validate(validate *validator.Validate) error {
	return validate.Struct(uc)
}

func (uc UpdateCourse) Apply(c *Course) {
	if uc.Code != nil {
		c.Code = core.CleanString(*uc.Code)
	}
	if uc.Name != nil {
		c.Name = core.CleanString(*uc.Name)
	}
	if uc.Instructor != nil {
		c.Instructor = core.CleanString(*uc.Instructor)
	}
	if uc.Color != nil {
		c.Color = *uc.Color
	}
	if uc.Credits != nil {
		c.Credits = *uc.Credits
	}
	if uc.Semester != nil {
		c.Semester = core.CleanString(*uc.Semester)
	}
	if uc.Description != nil {
		c.Description = *uc.Description
	}
}

type QueryFilter struct {
	Search   string `query:"search"`
	Semester string `query:"semester"`
}

func (qf *QueryFilter) Clean() {
	qf.Search = core.CleanString(qf.Search)
	qf.Semester = core.CleanString(qf.Semester)
}

var OrderingFields = []string{"code", "name", "credits", "semester", "created_at", "updated_at"}
