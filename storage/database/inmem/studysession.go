package inmemdb

import (
	"context"

	"github.com/trezcool/studyplanner/core"
	"github.com/trezcool/studyplanner/core/studysession"
)

type sessionRepository struct {
	db *DB
}

var _ studysession.Repository = (*sessionRepository)(nil) // interface compliance check

func NewSessionRepository(db *DB) studysession.Repository {
	return &sessionRepository{db: db}
}

func sessionField(s studysession.Session, field string) interface{} {
	switch field {
	case "end_time":
		return s.EndTime
	case "duration_minutes":
		return s.DurationMinutes
	case "productivity_rating":
		return s.ProductivityRating
	case "created_at":
		return s.CreatedAt
	case "updated_at":
		return s.UpdatedAt
	}
	return s.StartTime
}

func (repo *sessionRepository) CreateSession(_ context.Context, s studysession.Session) (studysession.Session, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	if s.EventID.Valid {
		for _, other := range repo.db.sessions {
			if other.EventID.Valid && other.EventID.String == s.EventID.String {
				return studysession.Session{}, studysession.ErrEventLogged
			}
		}
	}
	s.ID = newID(s.ID)
	repo.db.sessions[s.ID] = &s
	return s, nil
}

func (repo *sessionRepository) QuerySessions(_ context.Context, userID string, filter *studysession.QueryFilter, ordering []core.DBOrdering) ([]studysession.Session, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	sessions := make([]studysession.Session, 0)
	for _, s := range repo.db.sessions {
		if s.UserID == userID && filter.Matches(*s) {
			sessions = append(sessions, *s)
		}
	}
	orderRows(sessions, ordering, sessionField, func(a, b studysession.Session) bool {
		if !a.StartTime.Equal(b.StartTime) {
			return a.StartTime.After(b.StartTime)
		}
		return a.ID < b.ID
	})
	return sessions, nil
}

func (repo *sessionRepository) GetSession(_ context.Context, userID, id string) (studysession.Session, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if s, ok := repo.db.sessions[id]; ok && s.UserID == userID {
		return *s, nil
	}
	return studysession.Session{}, studysession.ErrNotFound
}

func (repo *sessionRepository) UpdateSession(_ context.Context, s studysession.Session) (studysession.Session, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	orig, ok := repo.db.sessions[s.ID]
	if !ok || orig.UserID != s.UserID {
		return studysession.Session{}, studysession.ErrNotFound
	}
	s.EventID = orig.EventID
	repo.db.sessions[s.ID] = &s
	return s, nil
}

func (repo *sessionRepository) DeleteSession(_ context.Context, userID, id string) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	if s, ok := repo.db.sessions[id]; !ok || s.UserID != userID {
		return studysession.ErrNotFound
	}
	delete(repo.db.sessions, id)
	return nil
}
