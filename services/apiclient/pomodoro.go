package apiclient

import (
	"context"
	"fmt"
	"sync"

	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/studyplanner/core/event"
	"github.com/trezcool/studyplanner/core/pomodoro"
	"github.com/trezcool/studyplanner/core/studysession"
)

var errNoEvent = errors.New("apiclient: work interval completed without an event")

// PomodoroHooks records work intervals through the API: an in_progress
// pomodoro event when work starts, then on completion the event is
// completed and a study session is logged against it.
type PomodoroHooks struct {
	client *Client

	Title    string
	CourseID null.String
	TaskID   null.String

	mu      sync.Mutex
	eventID string // event of the current work interval
}

var _ pomodoro.Hooks = (*PomodoroHooks)(nil)

func NewPomodoroHooks(client *Client, title string) *PomodoroHooks {
	if title == "" {
		title = "Pomodoro"
	}
	return &PomodoroHooks{client: client, Title: title}
}

// EventID returns the event of the interval in progress, if any.
func (h *PomodoroHooks) EventID() string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.eventID
}

func (h *PomodoroHooks) WorkStarted(ctx context.Context, iv pomodoro.Interval) error {
	e, err := h.client.CreateEvent(ctx, event.NewEvent{
		CourseID:  h.CourseID,
		TaskID:    h.TaskID,
		Title:     fmt.Sprintf("%s #%d", h.Title, iv.Seq),
		Type:      event.TypePomodoro,
		Status:    event.StatusInProgress,
		StartTime: iv.StartedAt,
	})
	if err != nil {
		return errors.Wrap(err, "creating pomodoro event")
	}

	h.mu.Lock()
	h.eventID = e.ID
	h.mu.Unlock()
	return nil
}

func (h *PomodoroHooks) WorkCompleted(ctx context.Context, iv pomodoro.Interval) error {
	h.mu.Lock()
	id := h.eventID
	h.eventID = ""
	h.mu.Unlock()
	if id == "" {
		return errNoEvent
	}

	status := event.StatusCompleted
	desc := fmt.Sprintf("Completed a %d minute focus session with %d break(s).", int(iv.Planned.Minutes()), iv.Breaks)
	if _, err := h.client.UpdateEvent(ctx, id, event.UpdateEvent{
		Status:      &status,
		EndTime:     null.TimeFrom(iv.EndedAt),
		Description: &desc,
	}); err != nil {
		return errors.Wrap(err, "completing pomodoro event")
	}

	if _, err := h.client.CreateSession(ctx, studysession.NewSession{
		EventID:         null.StringFrom(id),
		TaskID:          h.TaskID,
		StartTime:       iv.StartedAt,
		EndTime:         iv.EndedAt,
		DurationMinutes: int(iv.Planned.Minutes()),
		BreaksTaken:     iv.Breaks,
	}); err != nil {
		return errors.Wrap(err, "logging study session")
	}
	return nil
}
