package sqlxrepos

import (
	"context"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/pkg/errors"

	"github.com/trezcool/studyplanner/core"
	"github.com/trezcool/studyplanner/core/notification"
)

const notificationTable = "notification"

var notificationColumns = []string{"id", "user_id", "kind", "title", "message", "ref_id", "is_read", "created_at", "read_at"}

type notificationRepository struct {
	db DB
}

func NewNotificationRepository(db DB) notification.Repository {
	return &notificationRepository{db: db}
}

func (repo *notificationRepository) CreateNotification(ctx context.Context, n notification.Notification) (notification.Notification, bool, error) {
	if n.ID == "" {
		n.ID = newID()
	}
	b := psql.Insert(notificationTable).Columns(notificationColumns...).Values(
		n.ID, n.UserID, n.Kind, n.Title, n.Message, n.RefID, n.IsRead, n.CreatedAt, n.ReadAt,
	).Suffix("ON CONFLICT (user_id, kind, ref_id) WHERE ref_id IS NOT NULL DO NOTHING")
	created, err := exec(ctx, repo.db, b, nil)
	if err != nil {
		return notification.Notification{}, false, errors.Wrap(err, "inserting notification")
	}
	if created > 0 {
		return n, true, nil
	}

	var existing notification.Notification
	q := psql.Select(notificationColumns...).From(notificationTable).
		Where(sq.Eq{"user_id": n.UserID, "kind": n.Kind, "ref_id": n.RefID})
	if err := getOne(ctx, repo.db, &existing, q, notification.ErrNotFound); err != nil {
		return notification.Notification{}, false, err
	}
	return existing, false, nil
}

func (repo *notificationRepository) QueryNotifications(ctx context.Context, userID string, filter *notification.QueryFilter) ([]notification.Notification, error) {
	b := psql.Select(notificationColumns...).From(notificationTable).Where(sq.Eq{"user_id": userID})
	if filter != nil {
		if filter.UnreadOnly {
			b = b.Where(sq.Eq{"is_read": false})
		}
		if filter.Kind != "" {
			b = b.Where(sq.Eq{"kind": filter.Kind})
		}
	}
	b = b.OrderBy("created_at DESC", "id")

	notifs := make([]notification.Notification, 0)
	if err := selectAll(ctx, repo.db, &notifs, b); err != nil {
		return nil, err
	}
	return notifs, nil
}

func (repo *notificationRepository) GetNotification(ctx context.Context, userID, id string) (notification.Notification, error) {
	b := psql.Select(notificationColumns...).From(notificationTable).Where(sq.Eq{"id": id, "user_id": userID})
	var n notification.Notification
	if err := getOne(ctx, repo.db, &n, b, notification.ErrNotFound); err != nil {
		return notification.Notification{}, err
	}
	return n, nil
}

func (repo *notificationRepository) UpdateNotification(ctx context.Context, n notification.Notification) (notification.Notification, error) {
	b := psql.Update(notificationTable).SetMap(map[string]interface{}{
		"is_read": n.IsRead,
		"read_at": n.ReadAt,
	}).Where(sq.Eq{"id": n.ID, "user_id": n.UserID})
	if _, err := exec(ctx, repo.db, b, notification.ErrNotFound); err != nil {
		if core.IsNotFound(err) {
			return notification.Notification{}, err
		}
		return notification.Notification{}, errors.Wrap(err, "updating notification")
	}
	return n, nil
}

func (repo *notificationRepository) MarkAllRead(ctx context.Context, userID string, at time.Time) (int, error) {
	b := psql.Update(notificationTable).
		Set("is_read", true).
		Set("read_at", at).
		Where(sq.Eq{"user_id": userID, "is_read": false})
	n, err := exec(ctx, repo.db, b, nil)
	if err != nil {
		return 0, errors.Wrap(err, "marking notifications read")
	}
	return int(n), nil
}

func (repo *notificationRepository) DeleteNotification(ctx context.Context, userID, id string) error {
	b := psql.Delete(notificationTable).Where(sq.Eq{"id": id, "user_id": userID})
	_, err := exec(ctx, repo.db, b, notification.ErrNotFound)
	if err != nil && !core.IsNotFound(err) {
		return errors.Wrap(err, "deleting notification")
	}
	return err
}

func (repo *notificationRepository) CountUnread(ctx context.Context, userID string) (int, error) {
	b := psql.Select("COUNT(*)").From(notificationTable).Where(sq.Eq{"user_id": userID, "is_read": false})
	var count int
	if err := getOne(ctx, repo.db, &count, b, nil); err != nil {
		return 0, err
	}
	return count, nil
}
