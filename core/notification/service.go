package notification

import (
	"context"
	"net/mail"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/studyplanner/core"
	"github.com/trezcool/studyplanner/core/user"
)

var ErrNotFound = core.NewNotFoundError("notification not found")

type (
	Repository interface {
		// CreateNotification reports created=false when the user already has a
		// notification of the same kind for the same RefID.
		CreateNotification(ctx context.Context, n Notification) (saved Notification, created bool, err error)
		QueryNotifications(ctx context.Context, userID string, filter *QueryFilter) ([]Notification, error)
		GetNotification(ctx context.Context, userID, id string) (Notification, error)
		UpdateNotification(ctx context.Context, n Notification) (Notification, error)
		MarkAllRead(ctx context.Context, userID string, at time.Time) (int, error)
		DeleteNotification(ctx context.Context, userID, id string) error
		CountUnread(ctx context.Context, userID string) (int, error)
	}

	ServiceInterface interface {
		Notify(ctx context.Context, n Notification) (Notification, bool, error)
		Query(ctx context.Context, userID string, filter *QueryFilter) ([]Notification, error)
		Get(ctx context.Context, userID, id string) (Notification, error)
		MarkRead(ctx context.Context, n Notification) (Notification, error)
		MarkAllRead(ctx context.Context, userID string) (int, error)
		Delete(ctx context.Context, userID, id string) error
		UnreadCount(ctx context.Context, userID string) (int, error)
	}

	Service struct {
		repo    Repository
		users   user.Repository
		mailSvc core.EmailService
		logger  core.Logger
	}
)

var _ ServiceInterface = (*Service)(nil)

func NewService(repo Repository, users user.Repository, mailSvc core.EmailService, logger core.Logger) *Service {
	return &Service{repo: repo, users: users, mailSvc: mailSvc, logger: logger}
}

// Notify saves n and emails its owner. Duplicates (same user, kind and RefID)
// are dropped silently and reported with created=false.
func (svc *Service) Notify(ctx context.Context, n Notification) (Notification, bool, error) {
	n.CreatedAt = core.NowFunc()
	n.IsRead = false
	saved, created, err := svc.repo.CreateNotification(ctx, n)
	if err != nil || !created {
		return saved, created, err
	}

	usr, err := svc.users.GetUser(ctx, user.GetFilter{ID: n.UserID})
	if err != nil {
		svc.logger.Warn("notification: owner lookup failed", errors.Wrapf(err, "user %s", n.UserID))
		return saved, true, nil
	}
	if usr.Email != "" && usr.IsActive {
		svc.mailSvc.SendMessages(&core.EmailMessage{
			To:           []mail.Address{{Name: usr.Name, Address: usr.Email}},
			Subject:      saved.Title,
			TemplateName: "notification",
			TemplateData: map[string]string{
				"Name":    usr.Name,
				"Title":   saved.Title,
				"Message": saved.Message,
			},
		})
	}
	return saved, true, nil
}

func (svc *Service) Query(ctx context.Context, userID string, filter *QueryFilter) ([]Notification, error) {
	return svc.repo.QueryNotifications(ctx, userID, filter)
}

func (svc *Service) Get(ctx context.Context, userID, id string) (Notification, error) {
	return svc.repo.GetNotification(ctx, userID, id)
}

func (svc *Service) MarkRead(ctx context.Context, n Notification) (Notification, error) {
	if n.IsRead {
		return n, nil
	}
	n.IsRead = true
	n.ReadAt.SetValid(core.NowFunc())
	return svc.repo.UpdateNotification(ctx, n)
}

func (svc *Service) MarkAllRead(ctx context.Context, userID string) (int, error) {
	return svc.repo.MarkAllRead(ctx, userID, core.NowFunc())
}

func (svc *Service) Delete(ctx context.Context, userID, id string) error {
	return svc.repo.DeleteNotification(ctx, userID, id)
}

func (svc *Service) UnreadCount(ctx context.Context, userID string) (int, error) {
	return svc.repo.CountUnread(ctx, userID)
}
