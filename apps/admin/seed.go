package main

import (
	"context"
	"os"
	"time"

	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"
	"gopkg.in/yaml.v3"

	"github.com/trezcool/studyplanner/core"
	"github.com/trezcool/studyplanner/core/course"
	"github.com/trezcool/studyplanner/core/event"
	"github.com/trezcool/studyplanner/core/studysession"
	"github.com/trezcool/studyplanner/core/syllabus"
	"github.com/trezcool/studyplanner/core/task"
	"github.com/trezcool/studyplanner/core/user"
	appfs "github.com/trezcool/studyplanner/fs"
)

const defaultSeedFile = "assets/seed/demo.yaml"

// repos are the repositories the seed writes to, bound to one transaction.
type repos struct {
	users    user.Repository
	courses  course.Repository
	syllabus syllabus.Repository
	tasks    task.Repository
	events   event.Repository
	sessions studysession.Repository
}

type (
	seedData struct {
		User     seedUser      `yaml:"user"`
		Courses  []seedCourse  `yaml:"courses"`
		Tasks    []seedTask    `yaml:"tasks"`
		Sessions []seedSession `yaml:"study_sessions"`
	}

	seedUser struct {
		Name     string   `yaml:"name"`
		Username string   `yaml:"username"`
		Email    string   `yaml:"email"`
		Password string   `yaml:"password"`
		Roles    []string `yaml:"roles"`
	}

	seedCourse struct {
		Code        string      `yaml:"code"`
		Name        string      `yaml:"name"`
		Instructor  string      `yaml:"instructor"`
		Color       string      `yaml:"color"`
		Credits     int         `yaml:"credits"`
		Semester    string      `yaml:"semester"`
		Description string      `yaml:"description"`
		Syllabus    []seedItem  `yaml:"syllabus"`
		Tasks       []seedTask  `yaml:"tasks"`
		Events      []seedEvent `yaml:"events"`
	}

	seedItem struct {
		Title     string `yaml:"title"`
		Week      int    `yaml:"week"`
		DueInDays *int   `yaml:"due_in_days"`
		Status    string `yaml:"status"`
	}

	seedTask struct {
		Title            string `yaml:"title"`
		Description      string `yaml:"description"`
		Priority         string `yaml:"priority"`
		DueInDays        *int   `yaml:"due_in_days"`
		Status           string `yaml:"status"`
		EstimatedMinutes int    `yaml:"estimated_minutes"`
	}

	seedEvent struct {
		Title           string `yaml:"title"`
		Type            string `yaml:"type"`
		StartsInHours   int    `yaml:"starts_in_hours"`
		DurationMinutes int    `yaml:"duration_minutes"`
		Location        string `yaml:"location"`
		ReminderMinutes int    `yaml:"reminder_minutes"`
	}

	seedSession struct {
		Course             string `yaml:"course"`
		DaysAgo            int    `yaml:"days_ago"`
		DurationMinutes    int    `yaml:"duration_minutes"`
		ProductivityRating *int   `yaml:"productivity_rating"`
		Notes              string `yaml:"notes"`
	}
)

// loadSeed reads the seed YAML from `file`, or the embedded demo data when empty.
func loadSeed(file string) (seedData, error) {
	var (
		raw []byte
		err error
	)
	if file == "" {
		raw, err = appfs.FS.ReadFile(defaultSeedFile)
	} else {
		raw, err = os.ReadFile(file)
	}
	if err != nil {
		return seedData{}, errors.Wrap(err, "reading seed file")
	}

	var data seedData
	if err := yaml.Unmarshal(raw, &data); err != nil {
		return seedData{}, errors.Wrap(err, "parsing seed file")
	}
	if data.User.Username == "" || data.User.Email == "" || data.User.Password == "" {
		return seedData{}, errors.New("seed user needs a username, an email and a password")
	}
	return data, nil
}

// seed creates the seed user and everything it owns in a single transaction.
// It does nothing when the user already exists.
func (cli *commandLine) seed(ctx context.Context, data seedData) (usr user.User, created bool, err error) {
	usr, err = cli.usrRepo.GetUser(ctx, user.GetFilter{Username: core.CleanString(data.User.Username, true)})
	if err == nil {
		return usr, false, nil
	}
	if !errors.Is(err, user.ErrNotFound) {
		return user.User{}, false, err
	}

	now := core.NowFunc()
	err = cli.inTx(ctx, func(ctx context.Context, r repos) error {
		var err error
		if usr, err = seedAccount(ctx, r, data.User, now); err != nil {
			return err
		}

		// the first task of each course carries its study sessions
		courseTasks := make(map[string]string)
		for _, sc := range data.Courses {
			taskID, err := seedCourseData(ctx, r, usr.ID, sc, now)
			if err != nil {
				return errors.Wrapf(err, "seeding course %s", sc.Code)
			}
			courseTasks[sc.Code] = taskID
		}
		for _, st := range data.Tasks {
			if _, err := seedTaskData(ctx, r, usr.ID, null.String{}, st, now); err != nil {
				return err
			}
		}
		for _, ss := range data.Sessions {
			s := ss.session(usr.ID, now)
			if ss.Course != "" {
				taskID, ok := courseTasks[ss.Course]
				if !ok {
					return errors.Errorf("study session references unknown course %q", ss.Course)
				}
				if taskID != "" {
					s.TaskID = null.StringFrom(taskID)
				}
			}
			if _, err := r.sessions.CreateSession(ctx, s); err != nil {
				return errors.Wrap(err, "seeding study session")
			}
		}
		return nil
	})
	if err != nil {
		return user.User{}, false, err
	}
	return usr, true, nil
}

func seedAccount(ctx context.Context, r repos, su seedUser, now time.Time) (user.User, error) {
	roles := su.Roles
	if len(roles) == 0 {
		roles = []string{user.RoleStudent}
	}
	usr := user.User{
		Name:      su.Name,
		Username:  core.CleanString(su.Username, true),
		Email:     core.CleanString(su.Email, true),
		IsActive:  true,
		Roles:     roles,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := usr.SetPassword(su.Password); err != nil {
		return user.User{}, err
	}
	return r.users.CreateUser(ctx, usr)
}

// seedCourseData creates the course with its syllabus, tasks and events, and returns its first task ID.
func seedCourseData(ctx context.Context, r repos, userID string, sc seedCourse, now time.Time) (string, error) {
	c, err := r.courses.CreateCourse(ctx, course.Course{
		UserID:      userID,
		Code:        sc.Code,
		Name:        sc.Name,
		Instructor:  sc.Instructor,
		Color:       sc.Color,
		Credits:     sc.Credits,
		Semester:    sc.Semester,
		Description: sc.Description,
		CreatedAt:   now,
		UpdatedAt:   now,
	})
	if err != nil {
		return "", err
	}
	courseID := null.StringFrom(c.ID)

	for _, si := range sc.Syllabus {
		it := syllabus.Item{
			CourseID:  c.ID,
			UserID:    userID,
			Title:     si.Title,
			Week:      si.Week,
			DueDate:   dueIn(si.DueInDays, now),
			Status:    syllabus.StatusNotStarted,
			CreatedAt: now,
			UpdatedAt: now,
		}
		if si.Status != "" {
			it.SetStatus(si.Status, now)
		}
		if _, err := r.syllabus.CreateItem(ctx, it); err != nil {
			return "", err
		}
	}

	var firstTask string
	for _, st := range sc.Tasks {
		t, err := seedTaskData(ctx, r, userID, courseID, st, now)
		if err != nil {
			return "", err
		}
		if firstTask == "" {
			firstTask = t.ID
		}
	}

	for _, se := range sc.Events {
		start := now.Add(time.Duration(se.StartsInHours) * time.Hour)
		e := event.Event{
			UserID:          userID,
			CourseID:        courseID,
			Title:           se.Title,
			Type:            se.Type,
			Status:          event.StatusScheduled,
			StartTime:       start,
			Location:        se.Location,
			ReminderMinutes: se.ReminderMinutes,
			CreatedAt:       now,
			UpdatedAt:       now,
		}
		if se.DurationMinutes > 0 {
			e.EndTime = null.TimeFrom(start.Add(time.Duration(se.DurationMinutes) * time.Minute))
		}
		if e.Type == "" {
			e.Type = event.TypeStudy
		}
		if _, err := r.events.CreateEvent(ctx, e); err != nil {
			return "", err
		}
	}
	return firstTask, nil
}

func seedTaskData(ctx context.Context, r repos, userID string, courseID null.String, st seedTask, now time.Time) (task.Task, error) {
	t := task.Task{
		UserID:           userID,
		CourseID:         courseID,
		Title:            st.Title,
		Description:      st.Description,
		Status:           task.StatusTodo,
		Priority:         st.Priority,
		DueDate:          dueIn(st.DueInDays, now),
		EstimatedMinutes: st.EstimatedMinutes,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if t.Priority == "" {
		t.Priority = task.PriorityMedium
	}
	if st.Status != "" {
		t.SetStatus(st.Status, now)
	}
	return r.tasks.CreateTask(ctx, t)
}

func (ss seedSession) session(userID string, now time.Time) studysession.Session {
	end := now.AddDate(0, 0, -ss.DaysAgo)
	s := studysession.Session{
		UserID:          userID,
		StartTime:       end.Add(-time.Duration(ss.DurationMinutes) * time.Minute),
		EndTime:         end,
		DurationMinutes: ss.DurationMinutes,
		Notes:           ss.Notes,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if ss.ProductivityRating != nil {
		s.ProductivityRating = null.IntFrom(*ss.ProductivityRating)
	}
	return s
}

func dueIn(days *int, now time.Time) null.Time {
	if days == nil {
		return null.Time{}
	}
	return null.TimeFrom(now.AddDate(0, 0, *days))
}
