package echoapi_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/studyplanner/core/event"
	"github.com/trezcool/studyplanner/core/pomodoro"
	"github.com/trezcool/studyplanner/core/studysession"
	"github.com/trezcool/studyplanner/services/apiclient"
)

// pomodoroEnv runs the API on a real listener and logs a client in.
func pomodoroEnv(t *testing.T) (*testEnv, *apiclient.Client, string) {
	t.Helper()
	env := setup(t)
	_, token := student(t, env, "ada")

	srv := httptest.NewServer(env.app)
	t.Cleanup(srv.Close)

	client := apiclient.New(srv.URL)
	_, err := client.Login(context.Background(), "ada", testPassword)
	require.NoError(t, err)
	return env, client, token
}

func Test_pomodoro_completedIntervalIsLogged(t *testing.T) {
	env, client, token := pomodoroEnv(t)
	ctx := context.Background()

	hooks := apiclient.NewPomodoroHooks(client, "Linear algebra")
	timer, err := pomodoro.NewTimer(pomodoro.Config{Work: 25 * time.Minute}, hooks)
	require.NoError(t, err)

	require.NoError(t, timer.Start(ctx))
	eventID := hooks.EventID()
	require.NotEmpty(t, eventID)

	var e event.Event
	decode(t, call(t, env, http.MethodGet, "/api/events/"+eventID, token, nil, http.StatusOK), &e)
	assert.Equal(t, event.StatusInProgress, e.Status)
	assert.Equal(t, event.TypePomodoro, e.Type)
	assert.Equal(t, "Linear algebra #1", e.Title)

	require.NoError(t, timer.Advance(ctx, 25*time.Minute))
	assert.Equal(t, pomodoro.PhaseBreak, timer.Status().Phase)
	assert.Equal(t, 1, timer.Status().Completed)

	decode(t, call(t, env, http.MethodGet, "/api/events/"+eventID, token, nil, http.StatusOK), &e)
	assert.Equal(t, event.StatusCompleted, e.Status)
	require.True(t, e.EndTime.Valid)

	var sessions []studysession.Session
	decode(t, call(t, env, http.MethodGet, "/api/study-sessions", token, nil, http.StatusOK), &sessions)
	require.Len(t, sessions, 1)
	assert.Equal(t, eventID, sessions[0].EventID.String)
	assert.Equal(t, 25, sessions[0].DurationMinutes)

	// the client sees the same rows
	listed, err := client.Sessions(ctx, time.Time{}, time.Time{})
	require.NoError(t, err)
	require.Len(t, listed, 1)
	assert.Equal(t, sessions[0].ID, listed[0].ID)

	// the break ends without side effects
	require.NoError(t, timer.Advance(ctx, 5*time.Minute))
	decode(t, call(t, env, http.MethodGet, "/api/study-sessions", token, nil, http.StatusOK), &sessions)
	assert.Len(t, sessions, 1)
}

func Test_pomodoro_resetLogsNothing(t *testing.T) {
	env, client, token := pomodoroEnv(t)
	ctx := context.Background()

	hooks := apiclient.NewPomodoroHooks(client, "")
	timer, err := pomodoro.NewTimer(pomodoro.Config{}, hooks)
	require.NoError(t, err)

	require.NoError(t, timer.Start(ctx))
	eventID := hooks.EventID()
	require.NotEmpty(t, eventID)

	require.NoError(t, timer.Advance(ctx, 10*time.Minute))
	timer.Reset()
	assert.Equal(t, pomodoro.Status{Phase: pomodoro.PhaseWork, Remaining: 25 * time.Minute}, timer.Status())

	// nothing elapses on a reset timer
	require.NoError(t, timer.Advance(ctx, time.Hour))

	var e event.Event
	decode(t, call(t, env, http.MethodGet, "/api/events/"+eventID, token, nil, http.StatusOK), &e)
	assert.Equal(t, event.StatusInProgress, e.Status)

	var sessions []studysession.Session
	decode(t, call(t, env, http.MethodGet, "/api/study-sessions", token, nil, http.StatusOK), &sessions)
	assert.Empty(t, sessions)
}
