package echoapi_test

import (
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/studyplanner/core/course"
	"github.com/trezcool/studyplanner/core/event"
	"github.com/trezcool/studyplanner/core/studysession"
	"github.com/trezcool/studyplanner/core/syllabus"
	"github.com/trezcool/studyplanner/core/task"
	"github.com/trezcool/studyplanner/core/user"
)

// student returns an active student and a token for them.
func student(t *testing.T, env *testEnv, uname string) (user.User, string) {
	t.Helper()
	usr := createUser(t, env.userRepo, uname, uname, uname+"@test.cd", []string{user.RoleStudent}, true)
	return usr, getToken(t, env, usr)
}

func createCourse(t *testing.T, env *testEnv, token, code string) course.Course {
	t.Helper()
	rec := call(t, env, http.MethodPost, "/api/courses", token, map[string]interface{}{
		"code": code, "name": "Course " + code, "color": "#3366ff", "credits": 4,
	}, http.StatusCreated)
	var c course.Course
	decode(t, rec, &c)
	return c
}

func createEvent(t *testing.T, env *testEnv, token string, body map[string]interface{}) event.Event {
	t.Helper()
	rec := call(t, env, http.MethodPost, "/api/events", token, body, http.StatusCreated)
	var e event.Event
	decode(t, rec, &e)
	return e
}

func Test_plannerApi_authRequired(t *testing.T) {
	env := setup(t)
	var tests []httpTest
	for _, path := range []string{"/api/courses", "/api/tasks", "/api/events", "/api/study-sessions", "/api/notifications", "/api/dashboard", "/api/analytics/summary"} {
		tests = append(tests, httpTest{name: path, path: path, wantCode: http.StatusUnauthorized, wantData: marshallObj(t, errMissingToken)})
	}
	runHTTPTests(t, env, tests)
}

func Test_courseApi(t *testing.T) {
	env := setup(t)
	_, token := student(t, env, "ada")
	_, otherToken := student(t, env, "bob")

	c := createCourse(t, env, token, "MATH101")
	assert.Equal(t, "MATH101", c.Code)
	assert.Equal(t, 4, c.Credits)

	runHTTPTests(t, env, []httpTest{
		{name: "list", path: "/api/courses", token: token, wantCode: http.StatusOK, wantData: marshallList(t, c)},
		{name: "list of another user", path: "/api/courses", token: otherToken, wantCode: http.StatusOK, wantData: marshallList(t)},
		{name: "retrieve", path: "/api/courses/" + c.ID, token: token, wantCode: http.StatusOK, wantData: marshallObj(t, c)},
		{name: "retrieve by another user", path: "/api/courses/" + c.ID, token: otherToken, wantCode: http.StatusNotFound},
		{name: "update by another user", method: http.MethodPut, path: "/api/courses/" + c.ID, token: otherToken, body: []byte(`{"name":"Mine"}`), wantCode: http.StatusNotFound},
		{name: "delete by another user", method: http.MethodDelete, path: "/api/courses/" + c.ID, token: otherToken, wantCode: http.StatusNotFound},
		{
			name: "invalid color", method: http.MethodPost, path: "/api/courses", token: token,
			body: []byte(`{"code":"X1","name":"X","color":"blue"}`), wantCode: http.StatusBadRequest,
		},
		{
			name: "name required", method: http.MethodPost, path: "/api/courses", token: token,
			body: []byte(`{"code":"X1"}`), wantCode: http.StatusBadRequest,
			wantData: marshallObj(t, map[string]string{"name": "this field is required"}),
		},
	})

	rec := call(t, env, http.MethodPut, "/api/courses/"+c.ID, token, map[string]interface{}{"instructor": "Dr. Noether"}, http.StatusOK)
	var updated course.Course
	decode(t, rec, &updated)
	assert.Equal(t, "Dr. Noether", updated.Instructor)
	assert.Equal(t, c.Name, updated.Name)
}

func Test_courseApi_deleteCascades(t *testing.T) {
	env := setup(t)
	_, token := student(t, env, "ada")
	c := createCourse(t, env, token, "PHYS201")

	rec := call(t, env, http.MethodPost, "/api/courses/"+c.ID+"/syllabus", token, map[string]interface{}{"title": "Kinematics", "week": 1}, http.StatusCreated)
	var item syllabus.Item
	decode(t, rec, &item)
	assert.Equal(t, c.ID, item.CourseID)

	rec = call(t, env, http.MethodGet, "/api/courses/"+c.ID+"/syllabus", token, nil, http.StatusOK)
	var items []syllabus.Item
	decode(t, rec, &items)
	require.Len(t, items, 1)

	rec = call(t, env, http.MethodPost, "/api/tasks", token, map[string]interface{}{
		"title": "Problem set 1", "course_id": c.ID, "syllabus_item_id": item.ID,
	}, http.StatusCreated)
	var tsk task.Task
	decode(t, rec, &tsk)
	e := createEvent(t, env, token, map[string]interface{}{"title": "Lecture", "course_id": c.ID, "start_time": "2024-03-04T09:00:00Z"})

	call(t, env, http.MethodDelete, "/api/courses/"+c.ID, token, nil, http.StatusNoContent)

	call(t, env, http.MethodGet, "/api/courses/"+c.ID, token, nil, http.StatusNotFound)
	call(t, env, http.MethodGet, "/api/syllabus/"+item.ID, token, nil, http.StatusNotFound)

	// linked rows survive, unlinked
	rec = call(t, env, http.MethodGet, "/api/tasks/"+tsk.ID, token, nil, http.StatusOK)
	decode(t, rec, &tsk)
	assert.False(t, tsk.CourseID.Valid)
	assert.False(t, tsk.SyllabusItemID.Valid)

	rec = call(t, env, http.MethodGet, "/api/events/"+e.ID, token, nil, http.StatusOK)
	decode(t, rec, &e)
	assert.False(t, e.CourseID.Valid)
}

func Test_taskApi(t *testing.T) {
	env := setup(t)
	_, token := student(t, env, "ada")
	_, otherToken := student(t, env, "bob")
	otherCourse := createCourse(t, env, otherToken, "BIO100")

	call(t, env, http.MethodPost, "/api/tasks", token, map[string]interface{}{
		"title": "Steal", "course_id": otherCourse.ID,
	}, http.StatusBadRequest)
	call(t, env, http.MethodPost, "/api/tasks", token, map[string]interface{}{
		"title": "Bad", "priority": "urgent",
	}, http.StatusBadRequest)

	rec := call(t, env, http.MethodPost, "/api/tasks", token, map[string]interface{}{
		"title": "Essay", "due_date": "2024-03-10T17:00:00Z", "estimated_minutes": 120,
	}, http.StatusCreated)
	var tsk task.Task
	decode(t, rec, &tsk)
	assert.Equal(t, task.StatusTodo, tsk.Status)
	assert.Equal(t, task.PriorityMedium, tsk.Priority)
	assert.False(t, tsk.CompletedAt.Valid)

	rec = call(t, env, http.MethodPut, "/api/tasks/"+tsk.ID, token, map[string]interface{}{"status": task.StatusDone}, http.StatusOK)
	decode(t, rec, &tsk)
	assert.Equal(t, task.StatusDone, tsk.Status)
	assert.True(t, tsk.CompletedAt.Valid)
	assert.Equal(t, "Essay", tsk.Title)

	rec = call(t, env, http.MethodPut, "/api/tasks/"+tsk.ID, token, map[string]interface{}{"status": task.StatusTodo}, http.StatusOK)
	decode(t, rec, &tsk)
	assert.False(t, tsk.CompletedAt.Valid)

	call(t, env, http.MethodGet, "/api/tasks/"+tsk.ID, otherToken, nil, http.StatusNotFound)
	call(t, env, http.MethodDelete, "/api/tasks/"+tsk.ID, token, nil, http.StatusNoContent)
	call(t, env, http.MethodGet, "/api/tasks/"+tsk.ID, token, nil, http.StatusNotFound)
}

func Test_eventApi(t *testing.T) {
	env := setup(t)
	_, token := student(t, env, "ada")
	_, otherToken := student(t, env, "bob")

	e := createEvent(t, env, token, map[string]interface{}{
		"title": "Revision", "type": event.TypeStudy, "start_time": "2024-03-04T09:00:00Z", "location": "Library",
	})
	assert.Equal(t, event.StatusScheduled, e.Status)
	assert.False(t, e.EndTime.Valid)

	runHTTPTests(t, env, []httpTest{
		{name: "retrieve by another user", path: "/api/events/" + e.ID, token: otherToken, wantCode: http.StatusNotFound},
		{name: "update by another user", method: http.MethodPut, path: "/api/events/" + e.ID, token: otherToken, body: []byte(`{"title":"x"}`), wantCode: http.StatusNotFound},
		{
			name: "end before start", method: http.MethodPost, path: "/api/events", token: token,
			body:     []byte(`{"title":"x","start_time":"2024-03-04T09:00:00Z","end_time":"2024-03-04T08:00:00Z"}`),
			wantCode: http.StatusBadRequest,
			wantData: marshallObj(t, map[string]string{"end_time": "end_time cannot be before start_time"}),
		},
		{
			name: "update end before start", method: http.MethodPut, path: "/api/events/" + e.ID, token: token,
			body: []byte(`{"end_time":"2024-03-04T08:00:00Z"}`), wantCode: http.StatusBadRequest,
		},
		{
			name: "unknown type", method: http.MethodPost, path: "/api/events", token: token,
			body: []byte(`{"title":"x","type":"party","start_time":"2024-03-04T09:00:00Z"}`), wantCode: http.StatusBadRequest,
		},
		{
			name: "start required", method: http.MethodPost, path: "/api/events", token: token,
			body: []byte(`{"title":"x"}`), wantCode: http.StatusBadRequest,
		},
	})

	// partial update keeps the other fields
	rec := call(t, env, http.MethodPut, "/api/events/"+e.ID, token, map[string]interface{}{"status": event.StatusInProgress}, http.StatusOK)
	decode(t, rec, &e)
	assert.Equal(t, event.StatusInProgress, e.Status)
	assert.Equal(t, "Revision", e.Title)
	assert.Equal(t, "Library", e.Location)
	assert.Equal(t, event.TypeStudy, e.Type)

	// completing without an end time ends it now
	before := time.Now().UTC().Add(-time.Second)
	rec = call(t, env, http.MethodPut, "/api/events/"+e.ID, token, map[string]interface{}{"status": event.StatusCompleted}, http.StatusOK)
	decode(t, rec, &e)
	assert.Equal(t, event.StatusCompleted, e.Status)
	require.True(t, e.EndTime.Valid)
	assert.True(t, e.EndTime.Time.After(before))

	// status filter
	createEvent(t, env, token, map[string]interface{}{"title": "Exam", "type": event.TypeExam, "start_time": "2024-03-05T09:00:00Z"})
	rec = call(t, env, http.MethodGet, "/api/events?status=completed", token, nil, http.StatusOK)
	var events []event.Event
	decode(t, rec, &events)
	require.Len(t, events, 1)
	assert.Equal(t, e.ID, events[0].ID)

	rec = call(t, env, http.MethodGet, "/api/events?from=2024-03-05&to=2024-03-06", token, nil, http.StatusOK)
	decode(t, rec, &events)
	require.Len(t, events, 1)
	assert.Equal(t, "Exam", events[0].Title)

	call(t, env, http.MethodDelete, "/api/events/"+e.ID, token, nil, http.StatusNoContent)
	call(t, env, http.MethodGet, "/api/events/"+e.ID, token, nil, http.StatusNotFound)
}

func Test_sessionApi(t *testing.T) {
	env := setup(t)
	_, token := student(t, env, "ada")
	_, otherToken := student(t, env, "bob")

	e := createEvent(t, env, token, map[string]interface{}{
		"title": "Pomodoro #1", "type": event.TypePomodoro, "status": event.StatusInProgress, "start_time": "2024-03-04T09:00:00Z",
	})
	otherEvent := createEvent(t, env, otherToken, map[string]interface{}{"title": "Theirs", "start_time": "2024-03-04T09:00:00Z"})

	newSession := func(eventID string, rating int) map[string]interface{} {
		body := map[string]interface{}{
			"event_id":         eventID,
			"start_time":       "2024-03-04T09:00:00Z",
			"end_time":         "2024-03-04T09:25:00Z",
			"duration_minutes": 25,
		}
		if rating != 0 {
			body["productivity_rating"] = rating
		}
		return body
	}

	call(t, env, http.MethodPost, "/api/study-sessions", token, newSession(e.ID, 6), http.StatusBadRequest)
	call(t, env, http.MethodPost, "/api/study-sessions", token, newSession(otherEvent.ID, 0), http.StatusBadRequest)
	call(t, env, http.MethodPost, "/api/study-sessions", token, map[string]interface{}{
		"start_time": "2024-03-04T10:00:00Z", "end_time": "2024-03-04T09:00:00Z",
	}, http.StatusBadRequest)

	rec := call(t, env, http.MethodPost, "/api/study-sessions", token, newSession(e.ID, 4), http.StatusCreated)
	var s studysession.Session
	decode(t, rec, &s)
	assert.Equal(t, 25, s.DurationMinutes)
	assert.EqualValues(t, 4, s.ProductivityRating.Int)
	assert.Equal(t, e.ID, s.EventID.String)

	// one session per event
	rec = call(t, env, http.MethodPost, "/api/study-sessions", token, newSession(e.ID, 0), http.StatusConflict)
	assert.JSONEq(t, `{"error":"a study session is already logged for this event"}`, rec.Body.String())

	// duration derived from the times when omitted
	rec = call(t, env, http.MethodPost, "/api/study-sessions", token, map[string]interface{}{
		"start_time": "2024-03-05T09:00:00Z", "end_time": "2024-03-05T09:50:00Z",
	}, http.StatusCreated)
	var free studysession.Session
	decode(t, rec, &free)
	assert.Equal(t, 50, free.DurationMinutes)

	rec = call(t, env, http.MethodGet, "/api/study-sessions?event_id="+e.ID, token, nil, http.StatusOK)
	var sessions []studysession.Session
	decode(t, rec, &sessions)
	require.Len(t, sessions, 1)
	assert.Equal(t, s.ID, sessions[0].ID)

	rec = call(t, env, http.MethodPut, "/api/study-sessions/"+s.ID, token, map[string]interface{}{"notes": "focused", "breaks_taken": 1}, http.StatusOK)
	decode(t, rec, &s)
	assert.Equal(t, "focused", s.Notes)
	assert.Equal(t, 1, s.BreaksTaken)
	assert.Equal(t, 25, s.DurationMinutes)

	call(t, env, http.MethodGet, "/api/study-sessions/"+s.ID, otherToken, nil, http.StatusNotFound)

	// the event can be logged again once its session is gone
	call(t, env, http.MethodDelete, "/api/study-sessions/"+s.ID, token, nil, http.StatusNoContent)
	call(t, env, http.MethodPost, "/api/study-sessions", token, newSession(e.ID, 0), http.StatusCreated)
}

func Test_refErrors(t *testing.T) {
	env := setup(t)
	_, token := student(t, env, "ada")
	_, otherToken := student(t, env, "bob")

	rec := call(t, env, http.MethodPost, "/api/tasks", otherToken, map[string]interface{}{"title": "Theirs"}, http.StatusCreated)
	var theirs task.Task
	decode(t, rec, &theirs)
	notFound := marshallObj(t, map[string]string{"task_id": "task not found"})

	runHTTPTests(t, env, []httpTest{
		{
			name: "event", method: http.MethodPost, path: "/api/events", token: token,
			body:     marshallObj(t, map[string]interface{}{"title": "Lab", "start_time": "2024-03-04T09:00:00Z", "task_id": theirs.ID}),
			wantCode: http.StatusBadRequest, wantData: notFound,
		},
		{
			name: "study session", method: http.MethodPost, path: "/api/study-sessions", token: token,
			body: marshallObj(t, map[string]interface{}{
				"task_id": theirs.ID, "start_time": "2024-03-04T09:00:00Z", "end_time": "2024-03-04T09:25:00Z",
			}),
			wantCode: http.StatusBadRequest, wantData: notFound,
		},
	})
}
