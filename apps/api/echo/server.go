// Package echoapi serves the Study Planner REST API with echo.
package echoapi

import (
	"context"
	"net/http"
	"sync"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/log"

	"github.com/trezcool/studyplanner/core"
	"github.com/trezcool/studyplanner/core/analytics"
	"github.com/trezcool/studyplanner/core/course"
	"github.com/trezcool/studyplanner/core/event"
	"github.com/trezcool/studyplanner/core/notification"
	"github.com/trezcool/studyplanner/core/studysession"
	"github.com/trezcool/studyplanner/core/syllabus"
	"github.com/trezcool/studyplanner/core/task"
	"github.com/trezcool/studyplanner/core/user"
	"github.com/trezcool/studyplanner/services/metrics"
	"github.com/trezcool/studyplanner/services/ratelimit"
)

type (
	Options struct {
		Conf       *core.Config
		Logger     core.Logger
		Validate   *validator.Validate
		Translator ut.Translator
		Limiter    ratelimit.Limiter // optional
		Metrics    *metrics.Metrics  // optional
		// HealthCheck reports whether the backing stores are reachable. optional
		HealthCheck func(ctx context.Context) error

		UserSvc         user.ServiceInterface
		CourseSvc       course.ServiceInterface
		SyllabusSvc     syllabus.ServiceInterface
		TaskSvc         task.ServiceInterface
		EventSvc        event.ServiceInterface
		SessionSvc      studysession.ServiceInterface
		AnalyticsSvc    analytics.ServiceInterface
		NotificationSvc notification.ServiceInterface
	}

	Server interface {
		http.Handler
		Start() error
		Stop(context.Context) error
		// ShutdownSignal is closed when a handler hits a core.shutdown error.
		ShutdownSignal() <-chan struct{}
		Auth() *TokenAuth
	}

	server struct {
		opts         *Options
		app          *echo.Echo
		auth         *TokenAuth
		shutdown     chan struct{}
		shutdownOnce sync.Once
	}

	HealthResponse struct {
		Status string `json:"status"`
		Build  string `json:"build"`
	}
)

var _ Server = (*server)(nil)

func NewServer(opts *Options) Server {
	s := &server{
		opts:     opts,
		app:      echo.New(),
		auth:     NewTokenAuth(opts.Conf),
		shutdown: make(chan struct{}),
	}
	s.setup()
	return s
}

func (s *server) setup() {
	conf := s.opts.Conf

	s.app.HideBanner = true
	s.app.Server.ReadTimeout = conf.Server.ReadTimeout
	s.app.Server.WriteTimeout = conf.Server.WriteTimeout

	s.app.Pre(middleware.RemoveTrailingSlash())
	if !conf.Server.DisableReqLogs {
		s.app.Use(middleware.Logger())
	}
	// do not recover in DEV|TEST mode
	if !(conf.Debug || conf.TestMode) {
		s.app.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{LogLevel: log.ERROR}))
	}
	s.app.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: conf.Server.CORSOrigins,
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
	}))
	if s.opts.Metrics != nil {
		s.app.Use(s.opts.Metrics.Middleware())
	}

	s.app.HTTPErrorHandler = newAppHTTPErrorHandler(s.opts.Logger, s.opts.Translator, s.signalShutdown)
	s.app.Debug = conf.Debug

	api := s.app.Group("/api")
	api.GET("/health", s.health)

	jwt := s.auth.Middleware()
	registerUserAPI(api, jwt, s.auth, s.opts.UserSvc, s.opts.Validate, s.opts.Limiter, s.opts.Logger, s.opts.Metrics)

	// every other route needs an active, authenticated user
	authed := api.Group("", jwt, activeUserMiddleware(s.opts.UserSvc))
	refs := refChecker{courses: s.opts.CourseSvc, syllabus: s.opts.SyllabusSvc, tasks: s.opts.TaskSvc}
	registerCourseAPI(authed, s.opts.CourseSvc, s.opts.SyllabusSvc, s.opts.UserSvc, s.opts.Validate)
	registerTaskAPI(authed, s.opts.TaskSvc, s.opts.UserSvc, refs, s.opts.Validate)
	registerEventAPI(authed, s.opts.EventSvc, s.opts.UserSvc, refs, s.opts.Validate)
	registerSessionAPI(authed, s.opts.SessionSvc, s.opts.UserSvc, s.opts.Validate)
	registerNotificationAPI(authed, s.opts.NotificationSvc, s.opts.UserSvc)
	registerAnalyticsAPI(authed, &analyticsApi{
		svc:           s.opts.AnalyticsSvc,
		users:         s.opts.UserSvc,
		tasks:         s.opts.TaskSvc,
		events:        s.opts.EventSvc,
		notifications: s.opts.NotificationSvc,
	})
}

// Start serves until Stop is called; it then returns http.ErrServerClosed.
func (s *server) Start() error {
	return s.app.Start(s.opts.Conf.Server.Address())
}

func (s *server) Stop(ctx context.Context) error {
	return s.app.Shutdown(ctx)
}

func (s *server) ServeHTTP(w http.ResponseWriter, r *http.Request) { // for tests
	s.app.ServeHTTP(w, r)
}

func (s *server) ShutdownSignal() <-chan struct{} {
	return s.shutdown
}

func (s *server) Auth() *TokenAuth {
	return s.auth
}

func (s *server) signalShutdown() {
	s.shutdownOnce.Do(func() { close(s.shutdown) })
}

func (s *server) health(ctx echo.Context) error {
	if s.opts.HealthCheck != nil {
		if err := s.opts.HealthCheck(ctx.Request().Context()); err != nil {
			s.opts.Logger.Error("health check failed", err)
			return ctx.JSON(http.StatusServiceUnavailable, HealthResponse{Status: "unavailable", Build: s.opts.Conf.Build})
		}
	}
	return ctx.JSON(http.StatusOK, HealthResponse{Status: "ok", Build: s.opts.Conf.Build})
}
