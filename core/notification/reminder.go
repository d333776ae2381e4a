package notification

import (
	"context"
	"fmt"
	"time"

	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/studyplanner/core"
	"github.com/trezcool/studyplanner/core/event"
	"github.com/trezcool/studyplanner/core/task"
)

// TaskDueWithin is how long before its due date a task gets a reminder.
const TaskDueWithin = 24 * time.Hour

// Reminder periodically turns upcoming events and due tasks into notifications.
type Reminder struct {
	svc      ServiceInterface
	events   event.ServiceInterface
	tasks    task.ServiceInterface
	logger   core.Logger
	interval time.Duration

	// OnNotify is called for each new notification. optional
	OnNotify func(kind string)
}

func NewReminder(conf *core.Config, svc ServiceInterface, events event.ServiceInterface, tasks task.ServiceInterface, logger core.Logger) *Reminder {
	interval := conf.ReminderInterval
	if interval <= 0 {
		interval = time.Minute
	}
	return &Reminder{svc: svc, events: events, tasks: tasks, logger: logger, interval: interval}
}

// Run checks for reminders every interval until ctx is done.
func (r *Reminder) Run(ctx context.Context) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	r.logger.Info(fmt.Sprintf("reminder: running every %v", r.interval))
	for {
		if _, err := r.RunOnce(ctx, core.NowFunc()); err != nil && ctx.Err() == nil {
			r.logger.Error("reminder: run failed", err)
		}
		select {
		case <-ctx.Done():
			r.logger.Info("reminder: stopped")
			return
		case <-ticker.C:
		}
	}
}

// RunOnce creates the notifications due at `now` and returns how many were new.
func (r *Reminder) RunOnce(ctx context.Context, now time.Time) (int, error) {
	var created int

	events, err := r.events.DueReminders(ctx, now)
	if err != nil {
		return created, errors.Wrap(err, "querying event reminders")
	}
	for _, e := range events {
		n := Notification{
			UserID:  e.UserID,
			Kind:    KindEventReminder,
			Title:   "Upcoming: " + e.Title,
			Message: fmt.Sprintf("%s starts at %s.", e.Title, e.StartTime.UTC().Format(time.RFC1123)),
			RefID:   null.StringFrom(e.ID),
		}
		if err := r.notify(ctx, n, &created); err != nil {
			return created, err
		}
	}

	tasks, err := r.tasks.DueBetween(ctx, now, now.Add(TaskDueWithin))
	if err != nil {
		return created, errors.Wrap(err, "querying due tasks")
	}
	for _, t := range tasks {
		n := Notification{
			UserID:  t.UserID,
			Kind:    KindTaskDue,
			Title:   "Due soon: " + t.Title,
			Message: fmt.Sprintf("%s is due %s.", t.Title, t.DueDate.Time.UTC().Format(time.RFC1123)),
			RefID:   null.StringFrom(t.ID),
		}
		if err := r.notify(ctx, n, &created); err != nil {
			return created, err
		}
	}
	return created, nil
}

func (r *Reminder) notify(ctx context.Context, n Notification, created *int) error {
	_, isNew, err := r.svc.Notify(ctx, n)
	if err != nil {
		return errors.Wrapf(err, "notifying %s %s", n.Kind, n.RefID.String)
	}
	if isNew {
		*created++
		if r.OnNotify != nil {
			r.OnNotify(n.Kind)
		}
	}
	return nil
}
