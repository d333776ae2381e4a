package inmemdb

import (
	"context"
	"sort"
	"time"

	"github.com/volatiletech/null/v8"

	"github.com/trezcool/studyplanner/core"
	"github.com/trezcool/studyplanner/core/analytics"
	"github.com/trezcool/studyplanner/core/studysession"
)

type analyticsRepository struct {
	db *DB
}

var _ analytics.Repository = (*analyticsRepository)(nil) // interface compliance check

func NewAnalyticsRepository(db *DB) analytics.Repository {
	return &analyticsRepository{db: db}
}

// sessionCourse follows the session's task, then syllabus item, then event.
func (repo *analyticsRepository) sessionCourse(s studysession.Session) null.String {
	if t, ok := repo.db.tasks[s.TaskID.String]; s.TaskID.Valid && ok && t.CourseID.Valid {
		return t.CourseID
	}
	if it, ok := repo.db.items[s.SyllabusItemID.String]; s.SyllabusItemID.Valid && ok {
		return null.StringFrom(it.CourseID)
	}
	if e, ok := repo.db.events[s.EventID.String]; s.EventID.Valid && ok && e.CourseID.Valid {
		return e.CourseID
	}
	return null.String{}
}

func (repo *analyticsRepository) QuerySessionStats(_ context.Context, userID string, tr core.TimeRange) ([]analytics.SessionStat, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	stats := make([]analytics.SessionStat, 0)
	for _, s := range repo.db.sessions {
		if s.UserID != userID || !tr.Contains(s.StartTime) {
			continue
		}
		st := analytics.SessionStat{
			StartTime:          s.StartTime,
			DurationMinutes:    s.DurationMinutes,
			ProductivityRating: s.ProductivityRating,
		}
		if cid := repo.sessionCourse(*s); cid.Valid {
			if c, ok := repo.db.courses[cid.String]; ok {
				st.CourseID = cid
				st.CourseName = null.StringFrom(c.Name)
			}
		}
		stats = append(stats, st)
	}
	sort.SliceStable(stats, func(i, j int) bool { return stats[i].StartTime.Before(stats[j].StartTime) })
	return stats, nil
}

func (repo *analyticsRepository) QuerySessionDays(_ context.Context, userID string, since time.Time) ([]time.Time, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	seen := make(map[time.Time]bool)
	days := make([]time.Time, 0)
	for _, s := range repo.db.sessions {
		if s.UserID != userID || s.StartTime.Before(since) {
			continue
		}
		t := s.StartTime.UTC()
		d := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
		if !seen[d] {
			seen[d] = true
			days = append(days, d)
		}
	}
	sort.Slice(days, func(i, j int) bool { return days[i].After(days[j]) })
	return days, nil
}
