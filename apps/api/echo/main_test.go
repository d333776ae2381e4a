package echoapi_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"reflect"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	. "github.com/trezcool/studyplanner/apps/api/echo"
	"github.com/trezcool/studyplanner/core"
	"github.com/trezcool/studyplanner/core/analytics"
	"github.com/trezcool/studyplanner/core/course"
	"github.com/trezcool/studyplanner/core/event"
	"github.com/trezcool/studyplanner/core/notification"
	"github.com/trezcool/studyplanner/core/studysession"
	"github.com/trezcool/studyplanner/core/syllabus"
	"github.com/trezcool/studyplanner/core/task"
	"github.com/trezcool/studyplanner/core/user"
	emailsvc "github.com/trezcool/studyplanner/services/email"
	logsvc "github.com/trezcool/studyplanner/services/logger"
	"github.com/trezcool/studyplanner/services/metrics"
	"github.com/trezcool/studyplanner/services/ratelimit"
	inmemdb "github.com/trezcool/studyplanner/storage/database/inmem"
)

var errMissingToken = httpErr{Error: "missing or malformed jwt"}

const testPassword = "Gr33n-Lantern#42"

// testEnv is an API server over a fresh in-memory store.
type testEnv struct {
	conf    *core.Config
	app     Server
	metrics *metrics.Metrics

	userRepo         user.Repository
	courseRepo       course.Repository
	syllabusRepo     syllabus.Repository
	taskRepo         task.Repository
	eventRepo        event.Repository
	sessionRepo      studysession.Repository
	notificationRepo notification.Repository

	notificationSvc *notification.Service
}

func setup(t *testing.T, configure ...func(conf *core.Config)) *testEnv {
	t.Helper()

	conf := core.NewTestConfig()
	for _, fn := range configure {
		fn(conf)
	}
	logger := logsvc.NewRollbarLogger(log.New(io.Discard, "", 0), conf)

	db, err := inmemdb.Open()
	require.NoError(t, err)
	env := &testEnv{
		conf:             conf,
		metrics:          metrics.New(),
		userRepo:         inmemdb.NewUserRepository(db),
		courseRepo:       inmemdb.NewCourseRepository(db),
		syllabusRepo:     inmemdb.NewSyllabusRepository(db),
		taskRepo:         inmemdb.NewTaskRepository(db),
		eventRepo:        inmemdb.NewEventRepository(db),
		sessionRepo:      inmemdb.NewSessionRepository(db),
		notificationRepo: inmemdb.NewNotificationRepository(db),
	}

	validate := validator.New()
	translator := core.NewTranslator()
	core.InitValidators(validate, translator)
	user.InitValidators(validate, translator)

	mailSvc := emailsvc.NewConsoleServiceMock(conf, logger)
	emailsvc.ClearSentMessages()
	env.notificationSvc = notification.NewService(env.notificationRepo, env.userRepo, mailSvc, logger)

	env.app = NewServer(&Options{
		Conf:            conf,
		Logger:          logger,
		Validate:        validate,
		Translator:      translator,
		Limiter:         ratelimit.NewMemoryLimiter(conf.LoginRateLimit, conf.LoginRateWindow),
		Metrics:         env.metrics,
		UserSvc:         user.NewService(conf, env.userRepo, mailSvc),
		CourseSvc:       course.NewService(env.courseRepo),
		SyllabusSvc:     syllabus.NewService(env.syllabusRepo),
		TaskSvc:         task.NewService(env.taskRepo),
		EventSvc:        event.NewService(env.eventRepo),
		SessionSvc:      studysession.NewService(env.sessionRepo, env.eventRepo, env.taskRepo, env.syllabusRepo),
		AnalyticsSvc:    analytics.NewService(inmemdb.NewAnalyticsRepository(db), env.taskRepo),
		NotificationSvc: env.notificationSvc,
	})
	return env
}

func (env *testEnv) serve(req *http.Request, rec *httptest.ResponseRecorder) {
	env.app.ServeHTTP(rec, req)
}

func createUser(t *testing.T, repo user.Repository, name, uname, email string, roles []string, isActive bool) user.User {
	t.Helper()
	usr := user.User{
		Name:      name,
		Username:  uname,
		Email:     email,
		IsActive:  isActive,
		Roles:     roles,
		CreatedAt: core.NowFunc(),
		UpdatedAt: core.NowFunc(),
	}
	require.NoError(t, usr.SetPassword(testPassword))
	usr, err := repo.CreateUser(context.Background(), usr)
	require.NoError(t, err)
	return usr
}

type httpErr struct {
	Error string `json:"error"`
}

type httpTest struct {
	name     string
	method   string
	path     string
	body     []byte
	token    string
	wantCode int
	wantData []byte
}

func newAuthRequest(method, path, token string, data ...[]byte) (*http.Request, *httptest.ResponseRecorder) {
	var body bytes.Buffer
	if len(data) > 0 {
		body.Write(data[0])
	}
	req := httptest.NewRequest(method, path, &body)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	return req, rec
}

func newRequest(method, path string, data ...[]byte) (*http.Request, *httptest.ResponseRecorder) {
	return newAuthRequest(method, path, "", data...)
}

func getToken(t *testing.T, env *testEnv, usr user.User) string {
	token, err := env.app.Auth().UserToken(usr)
	if err != nil {
		t.Fatalf("getToken() failed: %v", err)
	}
	return token
}

func marshallObj(t *testing.T, obj interface{}) []byte {
	data, err := json.Marshal(obj)
	if err != nil {
		t.Fatalf("marshallObj() failed: %v", err)
	}
	return data
}

func marshallList(t *testing.T, objs ...interface{}) []byte {
	if objs == nil {
		objs = []interface{}{}
	}
	data, err := json.Marshal(objs)
	if err != nil {
		t.Fatalf("marshallList() failed: %v", err)
	}
	return data
}

func jsonBytesEqual(b1, b2 []byte) (bool, error) {
	var j1, j2 interface{}
	if err := json.Unmarshal(b1, &j1); err != nil {
		return false, err
	}
	if err := json.Unmarshal(b2, &j2); err != nil {
		return false, err
	}
	return reflect.DeepEqual(j1, j2), nil
}

func checkCodeAndData(t *testing.T, tt httpTest, rec *httptest.ResponseRecorder) {
	t.Helper()
	if rec.Code != tt.wantCode {
		t.Errorf("failed! code = %v; wantCode %v", rec.Code, tt.wantCode)
	}
	if tt.wantData == nil {
		return
	}
	ok, err := jsonBytesEqual(rec.Body.Bytes(), tt.wantData)
	if err != nil {
		t.Errorf("jsonBytesEqual() failed to compare; err %v", err)
	}
	if !ok {
		t.Errorf("failed! data = %v; wantData %v", rec.Body.String(), string(tt.wantData))
	}
}

func runHTTPTests(t *testing.T, env *testEnv, tests []httpTest) {
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			method := tt.method
			if method == "" {
				method = http.MethodGet
			}
			req, rec := newAuthRequest(method, tt.path, tt.token, tt.body)
			env.serve(req, rec)
			checkCodeAndData(t, tt, rec)
		})
	}
}

// decode unmarshals the JSON body of rec into dest.
func decode(t *testing.T, rec *httptest.ResponseRecorder, dest interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), dest), rec.Body.String())
}

// call serves one request and checks its status code.
func call(t *testing.T, env *testEnv, method, path, token string, body interface{}, wantCode int) *httptest.ResponseRecorder {
	t.Helper()
	var data []byte
	if body != nil {
		data = marshallObj(t, body)
	}
	req, rec := newAuthRequest(method, path, token, data)
	env.serve(req, rec)
	assert.Equal(t, wantCode, rec.Code, rec.Body.String())
	return rec
}

func ts(s string) time.Time {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		panic(err)
	}
	return t
}
