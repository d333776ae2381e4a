package inmemdb

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/studyplanner/core"
	"github.com/trezcool/studyplanner/core/course"
	"github.com/trezcool/studyplanner/core/event"
	"github.com/trezcool/studyplanner/core/notification"
	"github.com/trezcool/studyplanner/core/studysession"
	"github.com/trezcool/studyplanner/core/syllabus"
	"github.com/trezcool/studyplanner/core/task"
	"github.com/trezcool/studyplanner/core/user"
)

func openDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open()
	require.NoError(t, err)
	return db
}

func TestDeleteCourseCascades(t *testing.T) {
	ctx := context.Background()
	db := openDB(t)
	start := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)

	c, err := NewCourseRepository(db).CreateCourse(ctx, course.Course{UserID: "u1", Code: "CS101", Name: "Intro"})
	require.NoError(t, err)
	it, err := NewSyllabusRepository(db).CreateItem(ctx, syllabus.Item{UserID: "u1", CourseID: c.ID, Title: "Week 1"})
	require.NoError(t, err)
	tsk, err := NewTaskRepository(db).CreateTask(ctx, task.Task{
		UserID: "u1", CourseID: null.StringFrom(c.ID), SyllabusItemID: null.StringFrom(it.ID), Title: "Read",
	})
	require.NoError(t, err)
	ev, err := NewEventRepository(db).CreateEvent(ctx, event.Event{UserID: "u1", CourseID: null.StringFrom(c.ID), Title: "Lecture", StartTime: start})
	require.NoError(t, err)
	sess, err := NewSessionRepository(db).CreateSession(ctx, studysession.Session{
		UserID: "u1", SyllabusItemID: null.StringFrom(it.ID), StartTime: start, EndTime: start.Add(time.Hour), DurationMinutes: 60,
	})
	require.NoError(t, err)

	// another user cannot delete it
	err = NewCourseRepository(db).DeleteCourse(ctx, "u2", c.ID)
	assert.Equal(t, course.ErrNotFound, err)

	require.NoError(t, NewCourseRepository(db).DeleteCourse(ctx, "u1", c.ID))

	_, err = NewSyllabusRepository(db).GetItem(ctx, "u1", it.ID)
	assert.Equal(t, syllabus.ErrNotFound, err)

	gotTask, err := NewTaskRepository(db).GetTask(ctx, "u1", tsk.ID)
	require.NoError(t, err)
	assert.False(t, gotTask.CourseID.Valid)
	assert.False(t, gotTask.SyllabusItemID.Valid)

	gotEvent, err := NewEventRepository(db).GetEvent(ctx, "u1", ev.ID)
	require.NoError(t, err)
	assert.False(t, gotEvent.CourseID.Valid)

	gotSess, err := NewSessionRepository(db).GetSession(ctx, "u1", sess.ID)
	require.NoError(t, err)
	assert.False(t, gotSess.SyllabusItemID.Valid)
}

func TestSessionRepository_OneSessionPerEvent(t *testing.T) {
	ctx := context.Background()
	repo := NewSessionRepository(openDB(t))
	start := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	s := studysession.Session{UserID: "u1", EventID: null.StringFrom("e1"), StartTime: start, EndTime: start.Add(25 * time.Minute), DurationMinutes: 25}

	_, err := repo.CreateSession(ctx, s)
	require.NoError(t, err)
	_, err = repo.CreateSession(ctx, s)
	assert.Equal(t, studysession.ErrEventLogged, err)

	s.EventID = null.String{}
	_, err = repo.CreateSession(ctx, s)
	assert.NoError(t, err)
	_, err = repo.CreateSession(ctx, s)
	assert.NoError(t, err, "sessions without an event are not deduplicated")
}

func TestNotificationRepository_Dedupe(t *testing.T) {
	ctx := context.Background()
	repo := NewNotificationRepository(openDB(t))
	n := notification.Notification{UserID: "u1", Kind: notification.KindTaskDue, Title: "Due soon", RefID: null.StringFrom("t1")}

	first, created, err := repo.CreateNotification(ctx, n)
	require.NoError(t, err)
	assert.True(t, created)

	again, created, err := repo.CreateNotification(ctx, n)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, first.ID, again.ID)

	n.UserID = "u2"
	_, created, err = repo.CreateNotification(ctx, n)
	require.NoError(t, err)
	assert.True(t, created)

	count, err := repo.MarkAllRead(ctx, "u1", time.Now())
	require.NoError(t, err)
	assert.Equal(t, 1, count)
	unread, err := repo.CountUnread(ctx, "u1")
	require.NoError(t, err)
	assert.Zero(t, unread)
	unread, err = repo.CountUnread(ctx, "u2")
	require.NoError(t, err)
	assert.Equal(t, 1, unread)
}

func TestUserRepository_Uniqueness(t *testing.T) {
	ctx := context.Background()
	repo := NewUserRepository(openDB(t))

	ada, err := repo.CreateUser(ctx, user.User{Name: "Ada", Username: "ada", Email: "ada@example.com"})
	require.NoError(t, err)
	_, err = repo.CreateUser(ctx, user.User{Name: "Ada 2", Username: "ada", Email: "ada2@example.com"})
	assert.Equal(t, user.ErrUsernameExists, err)
	_, err = repo.CreateUser(ctx, user.User{Name: "Ada 3", Username: "ada3", Email: "ada@example.com"})
	assert.Equal(t, user.ErrEmailExists, err)

	assert.NoError(t, repo.CheckUniqueness(ctx, "ada", "ada@example.com", ada))

	got, err := repo.GetUser(ctx, user.GetFilter{UsernameOrEmail: "ada@example.com"})
	require.NoError(t, err)
	assert.Equal(t, ada.ID, got.ID)
}

func TestTaskRepository_Ordering(t *testing.T) {
	ctx := context.Background()
	repo := NewTaskRepository(openDB(t))
	now := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)

	for i, title := range []string{"b", "a", "c"} {
		_, err := repo.CreateTask(ctx, task.Task{
			UserID:    "u1",
			Title:     title,
			DueDate:   null.TimeFrom(now.Add(time.Duration(i) * time.Hour)),
			CreatedAt: now,
		})
		require.NoError(t, err)
	}
	_, err := repo.CreateTask(ctx, task.Task{UserID: "u1", Title: "no due date", CreatedAt: now})
	require.NoError(t, err)

	titles := func(tasks []task.Task) []string {
		out := make([]string, len(tasks))
		for i, t := range tasks {
			out[i] = t.Title
		}
		return out
	}

	tasks, err := repo.QueryTasks(ctx, "u1", nil, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"b", "a", "c", "no due date"}, titles(tasks))

	tasks, err = repo.QueryTasks(ctx, "u1", nil, []core.DBOrdering{{Field: "title", Ascending: true}})
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c", "no due date"}, titles(tasks))

	tasks, err = repo.QueryTasks(ctx, "u2", nil, nil)
	require.NoError(t, err)
	assert.Empty(t, tasks)
}

func TestAnalyticsRepository_CourseAttribution(t *testing.T) {
	ctx := context.Background()
	db := openDB(t)
	start := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)

	c, err := NewCourseRepository(db).CreateCourse(ctx, course.Course{UserID: "u1", Code: "CS101", Name: "Intro"})
	require.NoError(t, err)
	ev, err := NewEventRepository(db).CreateEvent(ctx, event.Event{UserID: "u1", CourseID: null.StringFrom(c.ID), StartTime: start})
	require.NoError(t, err)
	sessions := NewSessionRepository(db)
	_, err = sessions.CreateSession(ctx, studysession.Session{UserID: "u1", EventID: null.StringFrom(ev.ID), StartTime: start, EndTime: start.Add(25 * time.Minute), DurationMinutes: 25})
	require.NoError(t, err)
	_, err = sessions.CreateSession(ctx, studysession.Session{UserID: "u1", StartTime: start.Add(-24 * time.Hour), EndTime: start.Add(-23 * time.Hour), DurationMinutes: 60})
	require.NoError(t, err)

	repo := NewAnalyticsRepository(db)
	stats, err := repo.QuerySessionStats(ctx, "u1", core.TimeRange{From: start.Add(-48 * time.Hour)})
	require.NoError(t, err)
	require.Len(t, stats, 2)
	assert.False(t, stats[0].CourseID.Valid)
	assert.Equal(t, c.ID, stats[1].CourseID.String)
	assert.Equal(t, "Intro", stats[1].CourseName.String)

	days, err := repo.QuerySessionDays(ctx, "u1", start.Add(-48*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, []time.Time{
		time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2024, 2, 29, 0, 0, 0, 0, time.UTC),
	}, days)
}
