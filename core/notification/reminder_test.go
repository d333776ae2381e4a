package notification_test

import (
	"context"
	"io"
	"log"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/studyplanner/core"
	"github.com/trezcool/studyplanner/core/event"
	"github.com/trezcool/studyplanner/core/notification"
	"github.com/trezcool/studyplanner/core/task"
	"github.com/trezcool/studyplanner/core/user"
	emailsvc "github.com/trezcool/studyplanner/services/email"
	logsvc "github.com/trezcool/studyplanner/services/logger"
	inmemdb "github.com/trezcool/studyplanner/storage/database/inmem"
)

func TestReminder_RunOnce(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 3, 4, 9, 0, 0, 0, time.UTC)
	conf := core.NewTestConfig()
	logger := logsvc.NewRollbarLogger(log.New(io.Discard, "", 0), conf)

	db, err := inmemdb.Open()
	require.NoError(t, err)
	users := inmemdb.NewUserRepository(db)
	events := inmemdb.NewEventRepository(db)
	tasks := inmemdb.NewTaskRepository(db)
	notifications := inmemdb.NewNotificationRepository(db)

	usr, err := users.CreateUser(ctx, user.User{Name: "Ada", Username: "ada", Email: "ada@test.cd", IsActive: true})
	require.NoError(t, err)

	newEvent := func(title string, startsIn time.Duration, reminder int, status string) {
		_, err := events.CreateEvent(ctx, event.Event{
			UserID: usr.ID, Title: title, Type: event.TypeExam, Status: status,
			StartTime: now.Add(startsIn), ReminderMinutes: reminder,
		})
		require.NoError(t, err)
	}
	newEvent("Midterm", 30*time.Minute, 60, event.StatusScheduled)   // reminder due
	newEvent("Final", 48*time.Hour, 60, event.StatusScheduled)       // too early
	newEvent("Lecture", 10*time.Minute, 0, event.StatusScheduled)    // no reminder
	newEvent("Cancelled", 10*time.Minute, 60, event.StatusCancelled) // not scheduled
	newEvent("Yesterday", -24*time.Hour, 60, event.StatusScheduled)  // already started

	newTask := func(title string, dueIn time.Duration, status string) {
		_, err := tasks.CreateTask(ctx, task.Task{
			UserID: usr.ID, Title: title, Status: status, Priority: task.PriorityMedium,
			DueDate: null.TimeFrom(now.Add(dueIn)),
		})
		require.NoError(t, err)
	}
	newTask("Essay", 3*time.Hour, task.StatusTodo)      // due soon
	newTask("Report", 72*time.Hour, task.StatusTodo)    // later
	newTask("Quiz", 2*time.Hour, task.StatusDone)       // done
	newTask("Lab", -2*time.Hour, task.StatusInProgress) // overdue

	svc := notification.NewService(notifications, users, emailsvc.NewConsoleServiceMock(conf, logger), logger)
	r := notification.NewReminder(conf, svc, event.NewService(events), task.NewService(tasks), logger)
	var kinds []string
	r.OnNotify = func(kind string) { kinds = append(kinds, kind) }

	created, err := r.RunOnce(ctx, now)
	require.NoError(t, err)
	assert.Equal(t, 2, created)
	assert.ElementsMatch(t, []string{notification.KindEventReminder, notification.KindTaskDue}, kinds)

	got, err := svc.Query(ctx, usr.ID, nil)
	require.NoError(t, err)
	titles := make([]string, 0, len(got))
	for _, n := range got {
		titles = append(titles, n.Title)
		assert.False(t, n.IsRead)
		assert.True(t, n.RefID.Valid)
	}
	assert.ElementsMatch(t, []string{"Upcoming: Midterm", "Due soon: Essay"}, titles)

	t.Run("deduplicated", func(t *testing.T) {
		created, err := r.RunOnce(ctx, now.Add(time.Minute))
		require.NoError(t, err)
		assert.Equal(t, 0, created)
		assert.Len(t, kinds, 2)
	})
}

func TestReminder_Run(t *testing.T) {
	conf := core.NewTestConfig()
	conf.ReminderInterval = 10 * time.Millisecond
	logger := logsvc.NewRollbarLogger(log.New(io.Discard, "", 0), conf)

	db, err := inmemdb.Open()
	require.NoError(t, err)
	svc := notification.NewService(inmemdb.NewNotificationRepository(db), inmemdb.NewUserRepository(db), emailsvc.NewConsoleServiceMock(conf, logger), logger)
	r := notification.NewReminder(conf, svc, event.NewService(inmemdb.NewEventRepository(db)), task.NewService(inmemdb.NewTaskRepository(db)), logger)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	done := make(chan struct{})
	go func() {
		r.Run(ctx)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not stop with its context")
	}
}
