package dig_container

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"go.uber.org/dig"

	echoapi "github.com/trezcool/studyplanner/apps/api/echo"
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
	"github.com/trezcool/studyplanner/storage/database"
	sqlxrepos "github.com/trezcool/studyplanner/storage/database/sqlx"
)

const dbSetupTimeout = time.Minute

type DBLoggerParam struct {
	dig.In
	Logger core.Logger `name:"dbLogger"`
}

// ServerParams gathers everything the API server is built from.
type ServerParams struct {
	dig.In

	Conf       *core.Config
	Logger     core.Logger
	DB         *sqlx.DB
	Validate   *validator.Validate
	Translator ut.Translator
	Limiter    ratelimit.Limiter
	Metrics    *metrics.Metrics

	UserSvc         user.ServiceInterface
	CourseSvc       course.ServiceInterface
	SyllabusSvc     syllabus.ServiceInterface
	TaskSvc         task.ServiceInterface
	EventSvc        event.ServiceInterface
	SessionSvc      studysession.ServiceInterface
	AnalyticsSvc    analytics.ServiceInterface
	NotificationSvc notification.ServiceInterface
}

func newLogger(conf *core.Config) core.Logger {
	logger := logsvc.NewRollbarLogger(logsvc.NewStdLogger(conf), conf)
	logger.Enable(!conf.Debug && conf.RollbarToken != "")
	return logger
}

func newDBLogger(conf *core.Config) core.Logger {
	stdLogger := log.New(os.Stdout, "DB : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile)
	logger := logsvc.NewRollbarLogger(stdLogger, conf)
	logger.Enable(!conf.Debug && conf.RollbarToken != "")
	return logger
}

func newDB(conf *core.Config, loggerParam DBLoggerParam) (*sqlx.DB, sqlxrepos.DB) {
	setUp := func(ctx context.Context) (*sqlx.DB, error) {
		if err := database.CreateIfNotExist(ctx, conf); err != nil {
			return nil, err
		}

		db, err := database.Open(ctx, conf)
		if err != nil {
			return nil, err
		}

		if err = database.Migrate(db.DB, "up"); err != nil {
			_ = db.Close()
			return nil, err
		}
		return db, nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), dbSetupTimeout)
	defer cancel()
	db, err := setUp(ctx)
	if err != nil {
		loggerParam.Logger.Fatal(fmt.Sprintf("setting up database: %v", err), err)
	}
	return db, db
}

func newEmailService(conf *core.Config, logger core.Logger) core.EmailService {
	core.ParseEmailTemplates(conf, logger)
	if conf.Debug || conf.SendgridApiKey == "" {
		return emailsvc.NewConsoleService(conf, logger)
	}
	return emailsvc.NewSendgridService(conf, logger)
}

func newValidator(translator ut.Translator) *validator.Validate {
	validate := validator.New()
	core.InitValidators(validate, translator)
	user.InitValidators(validate, translator)
	return validate
}

func newLimiter(conf *core.Config, logger core.Logger) ratelimit.Limiter {
	limiter, err := ratelimit.New(conf)
	if err != nil {
		logger.Error("ratelimit: falling back to memory", err)
		return ratelimit.NewMemoryLimiter(conf.LoginRateLimit, conf.LoginRateWindow)
	}
	return limiter
}

func newReminder(
	conf *core.Config,
	svc notification.ServiceInterface,
	events event.ServiceInterface,
	tasks task.ServiceInterface,
	logger core.Logger,
	m *metrics.Metrics,
) *notification.Reminder {
	r := notification.NewReminder(conf, svc, events, tasks, logger)
	r.OnNotify = m.NotificationCreated
	return r
}

func newServer(p ServerParams) echoapi.Server {
	return echoapi.NewServer(&echoapi.Options{
		Conf:            p.Conf,
		Logger:          p.Logger,
		Validate:        p.Validate,
		Translator:      p.Translator,
		Limiter:         p.Limiter,
		Metrics:         p.Metrics,
		HealthCheck:     p.DB.PingContext,
		UserSvc:         p.UserSvc,
		CourseSvc:       p.CourseSvc,
		SyllabusSvc:     p.SyllabusSvc,
		TaskSvc:         p.TaskSvc,
		EventSvc:        p.EventSvc,
		SessionSvc:      p.SessionSvc,
		AnalyticsSvc:    p.AnalyticsSvc,
		NotificationSvc: p.NotificationSvc,
	})
}

// New returns a new dependency injection dig.Container
func New() *dig.Container {
	c := dig.New()

	// infrastructure
	must(c.Provide(core.NewConfig))
	must(c.Provide(newLogger))
	must(c.Provide(newDBLogger, dig.Name("dbLogger")))
	must(c.Provide(newDB))
	must(c.Provide(newEmailService))
	must(c.Provide(core.NewTranslator))
	must(c.Provide(newValidator))
	must(c.Provide(newLimiter))
	must(c.Provide(metrics.New))

	// repositories
	must(c.Provide(sqlxrepos.NewUserRepository))
	must(c.Provide(sqlxrepos.NewCourseRepository))
	must(c.Provide(sqlxrepos.NewSyllabusRepository))
	must(c.Provide(sqlxrepos.NewTaskRepository))
	must(c.Provide(sqlxrepos.NewEventRepository))
	must(c.Provide(sqlxrepos.NewSessionRepository))
	must(c.Provide(sqlxrepos.NewAnalyticsRepository))
	must(c.Provide(sqlxrepos.NewNotificationRepository))

	// services
	must(c.Provide(user.NewService, dig.As(new(user.ServiceInterface))))
	must(c.Provide(course.NewService, dig.As(new(course.ServiceInterface))))
	must(c.Provide(syllabus.NewService, dig.As(new(syllabus.ServiceInterface))))
	must(c.Provide(task.NewService, dig.As(new(task.ServiceInterface))))
	must(c.Provide(event.NewService, dig.As(new(event.ServiceInterface))))
	must(c.Provide(studysession.NewService, dig.As(new(studysession.ServiceInterface))))
	must(c.Provide(analytics.NewService, dig.As(new(analytics.ServiceInterface))))
	must(c.Provide(notification.NewService, dig.As(new(notification.ServiceInterface))))
	must(c.Provide(newReminder))

	must(c.Provide(newServer))

	return c
}

// must exits program if err happened
func must(err error) {
	if err != nil {
		log.Fatal(errors.Wrap(err, "failed to provide dependency").Error())
	}
}
