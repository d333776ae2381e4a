package inmemdb

import (
	"context"
	"sort"
	"time"

	"github.com/trezcool/studyplanner/core/notification"
)

type notificationRepository struct {
	db *DB
}

var _ notification.Repository = (*notificationRepository)(nil) // interface compliance check

func NewNotificationRepository(db *DB) notification.Repository {
	return &notificationRepository{db: db}
}

func (repo *notificationRepository) CreateNotification(_ context.Context, n notification.Notification) (notification.Notification, bool, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	if n.RefID.Valid {
		for _, other := range repo.db.notifications {
			if other.UserID == n.UserID && other.Kind == n.Kind && other.RefID.Valid && other.RefID.String == n.RefID.String {
				return *other, false, nil
			}
		}
	}
	n.ID = newID(n.ID)
	repo.db.notifications[n.ID] = &n
	return n, true, nil
}

func (repo *notificationRepository) QueryNotifications(_ context.Context, userID string, filter *notification.QueryFilter) ([]notification.Notification, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	notifs := make([]notification.Notification, 0)
	for _, n := range repo.db.notifications {
		if n.UserID == userID && filter.Matches(*n) {
			notifs = append(notifs, *n)
		}
	}
	sort.Slice(notifs, func(i, j int) bool {
		if !notifs[i].CreatedAt.Equal(notifs[j].CreatedAt) {
			return notifs[i].CreatedAt.After(notifs[j].CreatedAt)
		}
		return notifs[i].ID < notifs[j].ID
	})
	return notifs, nil
}

func (repo *notificationRepository) GetNotification(_ context.Context, userID, id string) (notification.Notification, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if n, ok := repo.db.notifications[id]; ok && n.UserID == userID {
		return *n, nil
	}
	return notification.Notification{}, notification.ErrNotFound
}

func (repo *notificationRepository) UpdateNotification(_ context.Context, n notification.Notification) (notification.Notification, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	orig, ok := repo.db.notifications[n.ID]
	if !ok || orig.UserID != n.UserID {
		return notification.Notification{}, notification.ErrNotFound
	}
	orig.IsRead = n.IsRead
	orig.ReadAt = n.ReadAt
	return *orig, nil
}

func (repo *notificationRepository) MarkAllRead(_ context.Context, userID string, at time.Time) (int, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	var count int
	for _, n := range repo.db.notifications {
		if n.UserID == userID && !n.IsRead {
			n.IsRead = true
			n.ReadAt.SetValid(at)
			count++
		}
	}
	return count, nil
}

func (repo *notificationRepository) DeleteNotification(_ context.Context, userID, id string) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	if n, ok := repo.db.notifications[id]; !ok || n.UserID != userID {
		return notification.ErrNotFound
	}
	delete(repo.db.notifications, id)
	return nil
}

func (repo *notificationRepository) CountUnread(_ context.Context, userID string) (int, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	var count int
	for _, n := range repo.db.notifications {
		if n.UserID == userID && !n.IsRead {
			count++
		}
	}
	return count, nil
}
