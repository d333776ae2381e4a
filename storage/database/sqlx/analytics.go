package sqlxrepos

import (
	"context"
	"time"

	sq "github.com/Masterminds/squirrel"

	"github.com/trezcool/studyplanner/core"
	"github.com/trezcool/studyplanner/core/analytics"
)

type analyticsRepository struct {
	db DB
}

func NewAnalyticsRepository(db DB) analytics.Repository {
	return &analyticsRepository{db: db}
}

// QuerySessionStats attributes each session to the course of its task,
// then of its syllabus item, then of its event.
func (repo *analyticsRepository) QuerySessionStats(ctx context.Context, userID string, tr core.TimeRange) ([]analytics.SessionStat, error) {
	b := psql.Select(
		"s.start_time", "s.duration_minutes", "s.productivity_rating",
		"c.id AS course_id", "c.name AS course_name",
	).
		From(sessionTable + " s").
		LeftJoin(taskTable + " t ON t.id = s.task_id").
		LeftJoin(syllabusTable + " si ON si.id = s.syllabus_item_id").
		LeftJoin(eventTable + " e ON e.id = s.event_id").
		LeftJoin(courseTable + " c ON c.id = COALESCE(t.course_id, si.course_id, e.course_id)").
		Where(sq.Eq{"s.user_id": userID})
	if !tr.From.IsZero() {
		b = b.Where(sq.GtOrEq{"s.start_time": tr.From})
	}
	if !tr.To.IsZero() {
		b = b.Where(sq.Lt{"s.start_time": tr.To})
	}
	b = b.OrderBy("s.start_time", "s.id")

	stats := make([]analytics.SessionStat, 0)
	if err := selectAll(ctx, repo.db, &stats, b); err != nil {
		return nil, err
	}
	return stats, nil
}

func (repo *analyticsRepository) QuerySessionDays(ctx context.Context, userID string, since time.Time) ([]time.Time, error) {
	b := psql.Select("DISTINCT date_trunc('day', start_time AT TIME ZONE 'UTC') AS day").
		From(sessionTable).
		Where(sq.Eq{"user_id": userID}).
		Where(sq.GtOrEq{"start_time": since}).
		OrderBy("day DESC")

	days := make([]time.Time, 0)
	if err := selectAll(ctx, repo.db, &days, b); err != nil {
		return nil, err
	}
	for i, d := range days {
		days[i] = time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, time.UTC)
	}
	return days, nil
}
