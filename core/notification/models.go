package notification

import (
	"time"

	"github.com/volatiletech/null/v8"
)

// Kinds
const (
	KindEventReminder = "event_reminder"
	KindTaskDue       = "task_due"
	KindSystem        = "system"
)

var Kinds = []string{KindEventReminder, KindTaskDue, KindSystem}

type Notification struct {
	ID        string      `json:"id" db:"id"`
	UserID    string      `json:"user_id" db:"user_id"`
	Kind      string      `json:"kind" db:"kind"`
	Title     string      `json:"title" db:"title"`
	Message   string      `json:"message" db:"message"`
	RefID     null.String `json:"ref_id" db:"ref_id"`
	IsRead    bool        `json:"is_read" db:"is_read"`
	CreatedAt time.Time   `json:"created_at" db:"created_at"`
	ReadAt    null.Time   `json:"read_at" db:"read_at"`
}

type QueryFilter struct {
	UnreadOnly bool   `query:"unread"`
	Kind       string `query:"kind"`
}

func (qf *QueryFilter) Matches(n Notification) bool {
	if qf == nil {
		return true
	}
	if qf.UnreadOnly && n.IsRead {
		return false
	}
	if qf.Kind != "" && n.Kind != qf.Kind {
		return false
	}
	return true
}
