package sqlxrepos

import (
	"context"

	sq "github.com/Masterminds/squirrel"
	"github.com/pkg/errors"

	"github.com/trezcool/studyplanner/core"
	"github.com/trezcool/studyplanner/core/studysession"
)

const sessionTable = "study_sessions"

var sessionColumns = []string{
	"id", "user_id", "event_id", "task_id", "syllabus_item_id", "start_time", "end_time",
	"duration_minutes", "productivity_rating", "notes", "breaks_taken", "created_at", "updated_at",
}

type sessionRepository struct {
	db DB
}

func NewSessionRepository(db DB) studysession.Repository {
	return &sessionRepository{db: db}
}

func (repo *sessionRepository) CreateSession(ctx context.Context, s studysession.Session) (studysession.Session, error) {
	if s.ID == "" {
		s.ID = newID()
	}
	b := psql.Insert(sessionTable).Columns(sessionColumns...).Values(
		s.ID, s.UserID, s.EventID, s.TaskID, s.SyllabusItemID, s.StartTime, s.EndTime,
		s.DurationMinutes, s.ProductivityRating, s.Notes, s.BreaksTaken, s.CreatedAt, s.UpdatedAt,
	)
	if _, err := exec(ctx, repo.db, b, nil); err != nil {
		if constraint, ok := uniqueConstraint(err); ok && constraint == "study_sessions_event_id_key" {
			return studysession.Session{}, studysession.ErrEventLogged
		}
		return studysession.Session{}, errors.Wrap(err, "inserting study session")
	}
	return s, nil
}

func (repo *sessionRepository) QuerySessions(ctx context.Context, userID string, filter *studysession.QueryFilter, ordering []core.DBOrdering) ([]studysession.Session, error) {
	b := psql.Select(sessionColumns...).From(sessionTable).Where(sq.Eq{"user_id": userID})
	if filter != nil {
		if !filter.From.IsZero() {
			b = b.Where(sq.GtOrEq{"start_time": filter.From.Time})
		}
		if !filter.To.IsZero() {
			b = b.Where(sq.Lt{"start_time": filter.To.Time})
		}
		if filter.EventID != "" {
			b = b.Where(sq.Eq{"event_id": filter.EventID})
		}
		if filter.TaskID != "" {
			b = b.Where(sq.Eq{"task_id": filter.TaskID})
		}
		if filter.SyllabusItemID != "" {
			b = b.Where(sq.Eq{"syllabus_item_id": filter.SyllabusItemID})
		}
	}
	b = orderBy(b, ordering, "start_time DESC", "id")

	sessions := make([]studysession.Session, 0)
	if err := selectAll(ctx, repo.db, &sessions, b); err != nil {
		return nil, err
	}
	return sessions, nil
}

func (repo *sessionRepository) GetSession(ctx context.Context, userID, id string) (studysession.Session, error) {
	b := psql.Select(sessionColumns...).From(sessionTable).Where(sq.Eq{"id": id, "user_id": userID})
	var s studysession.Session
	if err := getOne(ctx, repo.db, &s, b, studysession.ErrNotFound); err != nil {
		return studysession.Session{}, err
	}
	return s, nil
}

func (repo *sessionRepository) UpdateSession(ctx context.Context, s studysession.Session) (studysession.Session, error) {
	b := psql.Update(sessionTable).SetMap(map[string]interface{}{
		"task_id":             s.TaskID,
		"syllabus_item_id":    s.SyllabusItemID,
		"start_time":          s.StartTime,
		"end_time":            s.EndTime,
		"duration_minutes":    s.DurationMinutes,
		"productivity_rating": s.ProductivityRating,
		"notes":               s.Notes,
		"breaks_taken":        s.BreaksTaken,
		"updated_at":          s.UpdatedAt,
	}).Where(sq.Eq{"id": s.ID, "user_id": s.UserID})
	if _, err := exec(ctx, repo.db, b, studysession.ErrNotFound); err != nil {
		if core.IsNotFound(err) {
			return studysession.Session{}, err
		}
		return studysession.Session{}, errors.Wrap(err, "updating study session")
	}
	return s, nil
}

func (repo *sessionRepository) DeleteSession(ctx context.Context, userID, id string) error {
	b := psql.Delete(sessionTable).Where(sq.Eq{"id": id, "user_id": userID})
	_, err := exec(ctx, repo.db, b, studysession.ErrNotFound)
	if err != nil && !core.IsNotFound(err) {
		return errors.Wrap(err, "deleting study session")
	}
	return err
}
