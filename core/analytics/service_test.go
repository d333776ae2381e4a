package analytics

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/studyplanner/core"
	"github.com/trezcool/studyplanner/core/course"
	"github.com/trezcool/studyplanner/core/task"
)

type fakeRepo struct {
	stats []SessionStat
	days  []time.Time
}

func (r fakeRepo) QuerySessionStats(_ context.Context, _ string, tr core.TimeRange) ([]SessionStat, error) {
	var stats []SessionStat
	for _, st := range r.stats {
		if tr.Contains(st.StartTime) {
			stats = append(stats, st)
		}
	}
	return stats, nil
}

func (r fakeRepo) QuerySessionDays(_ context.Context, _ string, since time.Time) ([]time.Time, error) {
	var days []time.Time
	for _, d := range r.days {
		if !d.Before(since) {
			days = append(days, d)
		}
	}
	return days, nil
}

type fakeTasks struct {
	task.Repository
	stats task.Stats
}

func (r fakeTasks) TaskStats(context.Context, string) (task.Stats, error) { return r.stats, nil }

func setNow(t *testing.T, now time.Time) {
	orig := core.NowFunc
	core.NowFunc = func() time.Time { return now }
	t.Cleanup(func() { core.NowFunc = orig })
}

func TestWindowResolve(t *testing.T) {
	now := time.Date(2024, 5, 10, 15, 30, 0, 0, time.UTC)
	may := func(d int) time.Time { return time.Date(2024, 5, d, 0, 0, 0, 0, time.UTC) }

	tests := []struct {
		name    string
		w       Window
		want    core.TimeRange
		wantErr bool
	}{
		{name: "default", want: core.TimeRange{From: may(4), To: may(11)}},
		{name: "from only", w: Window{From: core.ParamTime{Time: may(1)}}, want: core.TimeRange{From: may(1), To: may(11)}},
		{
			name: "partial days",
			w:    Window{From: core.ParamTime{Time: may(2).Add(5 * time.Hour)}, To: core.ParamTime{Time: may(5).Add(time.Hour)}},
			want: core.TimeRange{From: may(2), To: may(6)},
		},
		{name: "inverted", w: Window{From: core.ParamTime{Time: may(8)}, To: core.ParamTime{Time: may(3)}}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.w.Resolve(now)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSummary(t *testing.T) {
	now := time.Date(2024, 5, 10, 15, 30, 0, 0, time.UTC)
	setNow(t, now)
	at := func(d, h int) time.Time { return time.Date(2024, 5, d, h, 0, 0, 0, time.UTC) }

	repo := fakeRepo{
		stats: []SessionStat{
			{StartTime: at(10, 9), DurationMinutes: 25, ProductivityRating: null.IntFrom(4), CourseID: null.StringFrom("c1"), CourseName: null.StringFrom("Algebra")},
			{StartTime: at(10, 11), DurationMinutes: 25, ProductivityRating: null.IntFrom(2), CourseID: null.StringFrom("c1"), CourseName: null.StringFrom("Algebra")},
			{StartTime: at(8, 9), DurationMinutes: 50, CourseID: null.StringFrom("c2"), CourseName: null.StringFrom("Biology")},
			{StartTime: at(9, 20), DurationMinutes: 10},
			{StartTime: at(1, 9), DurationMinutes: 90}, // outside the default window
		},
		days: []time.Time{at(10, 0), at(9, 0), at(8, 0), at(6, 0)},
	}
	svc := NewService(repo, fakeTasks{stats: task.Stats{Total: 4, Done: 1}})

	sum, err := svc.Summary(context.Background(), "u1", Window{})
	require.NoError(t, err)

	assert.Equal(t, at(4, 0), sum.From)
	assert.Equal(t, at(11, 0), sum.To)
	assert.Equal(t, 110, sum.TotalMinutes)
	assert.Equal(t, 4, sum.SessionCount)
	assert.Equal(t, null.Float64From(3), sum.AverageRating)
	assert.Equal(t, 4, sum.TasksTotal)
	assert.Equal(t, 1, sum.TasksDone)
	assert.Equal(t, .25, sum.TaskCompletionRate)
	assert.Equal(t, 3, sum.CurrentStreak)

	require.Len(t, sum.Daily, 7)
	assert.Equal(t, DayMinutes{Date: "2024-05-04"}, sum.Daily[0])
	assert.Equal(t, DayMinutes{Date: "2024-05-08", Minutes: 50, Sessions: 1}, sum.Daily[4])
	assert.Equal(t, DayMinutes{Date: "2024-05-10", Minutes: 50, Sessions: 2}, sum.Daily[6])

	assert.Equal(t, []CourseMinutes{
		{CourseID: null.StringFrom("c1"), CourseName: "Algebra", Minutes: 50, Sessions: 2},
		{CourseID: null.StringFrom("c2"), CourseName: "Biology", Minutes: 50, Sessions: 1},
		{CourseName: course.UnassignedName, Minutes: 10, Sessions: 1},
	}, sum.Courses)
}

func TestSummaryEmpty(t *testing.T) {
	setNow(t, time.Date(2024, 5, 10, 15, 30, 0, 0, time.UTC))
	svc := NewService(fakeRepo{}, fakeTasks{})

	sum, err := svc.Summary(context.Background(), "u1", Window{})
	require.NoError(t, err)
	assert.Zero(t, sum.TotalMinutes)
	assert.False(t, sum.AverageRating.Valid)
	assert.Zero(t, sum.TaskCompletionRate)
	assert.Zero(t, sum.CurrentStreak)
	assert.Len(t, sum.Daily, DefaultWindowDays)
	assert.Empty(t, sum.Courses)
}

func TestCurrentStreak(t *testing.T) {
	today := time.Date(2024, 5, 10, 0, 0, 0, 0, time.UTC)
	daysAgo := func(n int) time.Time { return today.Add(-time.Duration(n) * day) }

	tests := []struct {
		name string
		days []time.Time
		want int
	}{
		{name: "none", want: 0},
		{name: "today only", days: []time.Time{daysAgo(0)}, want: 1},
		{name: "not yet today", days: []time.Time{daysAgo(1), daysAgo(2)}, want: 2},
		{name: "broken", days: []time.Time{daysAgo(0), daysAgo(2), daysAgo(3)}, want: 1},
		{name: "stale", days: []time.Time{daysAgo(2), daysAgo(3)}, want: 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, currentStreak(today, tt.days))
		})
	}
}
