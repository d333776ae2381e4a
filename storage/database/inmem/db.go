// Package inmemdb keeps every repository in memory for tests.
// Foreign keys and unique indexes are emulated.
package inmemdb

import (
	"sync"

	"github.com/google/uuid"

	"github.com/trezcool/studyplanner/core/course"
	"github.com/trezcool/studyplanner/core/event"
	"github.com/trezcool/studyplanner/core/notification"
	"github.com/trezcool/studyplanner/core/studysession"
	"github.com/trezcool/studyplanner/core/syllabus"
	"github.com/trezcool/studyplanner/core/task"
	"github.com/trezcool/studyplanner/core/user"
)

// DB holds all tables behind a single lock, so cascades are atomic.
type DB struct {
	sync.RWMutex
	users         map[string]*user.User
	courses       map[string]*course.Course
	items         map[string]*syllabus.Item
	tasks         map[string]*task.Task
	events        map[string]*event.Event
	sessions      map[string]*studysession.Session
	notifications map[string]*notification.Notification
}

func Open() (*DB, error) {
	db := &DB{
		users:         make(map[string]*user.User),
		courses:       make(map[string]*course.Course),
		items:         make(map[string]*syllabus.Item),
		tasks:         make(map[string]*task.Task),
		events:        make(map[string]*event.Event),
		sessions:      make(map[string]*studysession.Session),
		notifications: make(map[string]*notification.Notification),
	}
	return db, nil
}

func newID(id string) string {
	if id != "" {
		return id
	}
	return uuid.NewString()
}

// the cascade helpers below must be called with the write lock held

func (db *DB) deleteUser(id string) {
	for cid, c := range db.courses {
		if c.UserID == id {
			db.deleteCourse(cid)
		}
	}
	for tid, t := range db.tasks {
		if t.UserID == id {
			db.deleteTask(tid)
		}
	}
	for eid, e := range db.events {
		if e.UserID == id {
			db.deleteEvent(eid)
		}
	}
	for sid, s := range db.sessions {
		if s.UserID == id {
			delete(db.sessions, sid)
		}
	}
	for nid, n := range db.notifications {
		if n.UserID == id {
			delete(db.notifications, nid)
		}
	}
	delete(db.users, id)
}

// deleteCourse deletes the course's syllabus and unlinks its tasks and events.
func (db *DB) deleteCourse(id string) {
	for iid, it := range db.items {
		if it.CourseID == id {
			db.deleteItem(iid)
		}
	}
	for _, t := range db.tasks {
		if t.CourseID.String == id {
			t.CourseID.Valid, t.CourseID.String = false, ""
		}
	}
	for _, e := range db.events {
		if e.CourseID.String == id {
			e.CourseID.Valid, e.CourseID.String = false, ""
		}
	}
	delete(db.courses, id)
}

func (db *DB) deleteItem(id string) {
	for _, t := range db.tasks {
		if t.SyllabusItemID.String == id {
			t.SyllabusItemID.Valid, t.SyllabusItemID.String = false, ""
		}
	}
	for _, s := range db.sessions {
		if s.SyllabusItemID.String == id {
			s.SyllabusItemID.Valid, s.SyllabusItemID.String = false, ""
		}
	}
	delete(db.items, id)
}

func (db *DB) deleteTask(id string) {
	for _, e := range db.events {
		if e.TaskID.String == id {
			e.TaskID.Valid, e.TaskID.String = false, ""
		}
	}
	for _, s := range db.sessions {
		if s.TaskID.String == id {
			s.TaskID.Valid, s.TaskID.String = false, ""
		}
	}
	delete(db.tasks, id)
}

func (db *DB) deleteEvent(id string) {
	for _, s := range db.sessions {
		if s.EventID.String == id {
			s.EventID.Valid, s.EventID.String = false, ""
		}
	}
	delete(db.events, id)
}
