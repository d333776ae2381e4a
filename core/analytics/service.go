package analytics

import (
	"context"
	"sort"
	"time"

	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/studyplanner/core"
	"github.com/trezcool/studyplanner/core/course"
	"github.com/trezcool/studyplanner/core/task"
)

// streakLookback bounds how far back the current streak is searched.
const streakLookback = 365 * day

type (
	Repository interface {
		// QuerySessionStats returns the user's sessions starting in tr.
		QuerySessionStats(ctx context.Context, userID string, tr core.TimeRange) ([]SessionStat, error)
		// QuerySessionDays returns the distinct UTC days (midnight) with at least one session since `since`.
		QuerySessionDays(ctx context.Context, userID string, since time.Time) ([]time.Time, error)
	}

	ServiceInterface interface {
		Summary(ctx context.Context, userID string, w Window) (Summary, error)
		Daily(ctx context.Context, userID string, w Window) ([]DayMinutes, error)
		Courses(ctx context.Context, userID string, w Window) ([]CourseMinutes, error)
		WeekMinutes(ctx context.Context, userID string) (int, error)
	}

	Service struct {
		repo  Repository
		tasks task.Repository
	}
)

var _ ServiceInterface = (*Service)(nil)

func NewService(repo Repository, tasks task.Repository) *Service {
	return &Service{repo: repo, tasks: tasks}
}

func (svc *Service) stats(ctx context.Context, userID string, w Window) (core.TimeRange, []SessionStat, error) {
	tr, err := w.Resolve(core.NowFunc())
	if err != nil {
		return tr, nil, err
	}
	stats, err := svc.repo.QuerySessionStats(ctx, userID, tr)
	if err != nil {
		return tr, nil, errors.Wrap(err, "querying session stats")
	}
	return tr, stats, nil
}

func (svc *Service) Summary(ctx context.Context, userID string, w Window) (Summary, error) {
	tr, stats, err := svc.stats(ctx, userID, w)
	if err != nil {
		return Summary{}, err
	}

	sum := Summary{From: tr.From, To: tr.To, SessionCount: len(stats)}
	var rated, ratingSum int
	for _, st := range stats {
		sum.TotalMinutes += st.DurationMinutes
		if st.ProductivityRating.Valid {
			rated++
			ratingSum += st.ProductivityRating.Int
		}
	}
	if rated > 0 {
		sum.AverageRating = null.Float64From(float64(ratingSum) / float64(rated))
	}
	sum.Daily = dailyMinutes(tr, stats)
	sum.Courses = courseMinutes(stats)

	taskStats, err := svc.tasks.TaskStats(ctx, userID)
	if err != nil {
		return Summary{}, errors.Wrap(err, "querying task stats")
	}
	sum.TasksTotal = taskStats.Total
	sum.TasksDone = taskStats.Done
	sum.TaskCompletionRate = taskStats.CompletionRate()

	today := truncateDay(core.NowFunc())
	days, err := svc.repo.QuerySessionDays(ctx, userID, today.Add(-streakLookback))
	if err != nil {
		return Summary{}, errors.Wrap(err, "querying session days")
	}
	sum.CurrentStreak = currentStreak(today, days)
	return sum, nil
}

func (svc *Service) Daily(ctx context.Context, userID string, w Window) ([]DayMinutes, error) {
	tr, stats, err := svc.stats(ctx, userID, w)
	if err != nil {
		return nil, err
	}
	return dailyMinutes(tr, stats), nil
}

func (svc *Service) Courses(ctx context.Context, userID string, w Window) ([]CourseMinutes, error) {
	_, stats, err := svc.stats(ctx, userID, w)
	if err != nil {
		return nil, err
	}
	return courseMinutes(stats), nil
}

// WeekMinutes sums the study minutes of the last 7 days, today included.
func (svc *Service) WeekMinutes(ctx context.Context, userID string) (int, error) {
	_, stats, err := svc.stats(ctx, userID, Window{})
	if err != nil {
		return 0, err
	}
	var total int
	for _, st := range stats {
		total += st.DurationMinutes
	}
	return total, nil
}

// dailyMinutes buckets stats per UTC day, with a zero entry for every day of tr.
func dailyMinutes(tr core.TimeRange, stats []SessionStat) []DayMinutes {
	idx := make(map[string]int)
	var days []DayMinutes
	for d := tr.From; d.Before(tr.To); d = d.Add(day) {
		key := d.Format(dateLayout)
		idx[key] = len(days)
		days = append(days, DayMinutes{Date: key})
	}
	for _, st := range stats {
		if i, ok := idx[st.StartTime.UTC().Format(dateLayout)]; ok {
			days[i].Minutes += st.DurationMinutes
			days[i].Sessions++
		}
	}
	return days
}

// courseMinutes groups stats per course, most studied first.
// Sessions without a course are grouped under course.UnassignedName.
func courseMinutes(stats []SessionStat) []CourseMinutes {
	idx := make(map[string]int)
	courses := make([]CourseMinutes, 0)
	for _, st := range stats {
		key := st.CourseID.String
		i, ok := idx[key]
		if !ok {
			name := course.UnassignedName
			if st.CourseID.Valid && st.CourseName.Valid {
				name = st.CourseName.String
			}
			i = len(courses)
			idx[key] = i
			courses = append(courses, CourseMinutes{CourseID: st.CourseID, CourseName: name})
		}
		courses[i].Minutes += st.DurationMinutes
		courses[i].Sessions++
	}
	sort.SliceStable(courses, func(i, j int) bool {
		if courses[i].Minutes != courses[j].Minutes {
			return courses[i].Minutes > courses[j].Minutes
		}
		return courses[i].CourseName < courses[j].CourseName
	})
	return courses
}

// currentStreak counts consecutive days with a session, ending today.
// A day without a session yet today does not break the streak.
func currentStreak(today time.Time, days []time.Time) int {
	seen := make(map[string]bool, len(days))
	for _, d := range days {
		seen[d.UTC().Format(dateLayout)] = true
	}

	d := today
	if !seen[d.Format(dateLayout)] {
		d = d.Add(-day)
	}
	var streak int
	for seen[d.Format(dateLayout)] {
		streak++
		d = d.Add(-day)
	}
	return streak
}
