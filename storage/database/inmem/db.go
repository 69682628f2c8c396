package inmemdb

import (
	"sync"

	"github.com/trezcool/studia/core/schedule"
	"github.com/trezcool/studia/core/subject"
	"github.com/trezcool/studia/core/user"
)

// DB is an in-memory store backing the repositories for tests and local dev.
type DB struct {
	sync.RWMutex

	users       map[string]*user.User
	subjects    map[string]*subject.Subject
	assessments map[string]*subject.Assessment
	grades      map[string]*subject.Grade
	weeks       map[string]*schedule.Week
	tasks       map[string]*schedule.Task
}

func New() *DB {
	db := new(DB)
	db.Reset()
	return db
}

func (db *DB) Reset() {
	db.Lock()
	defer db.Unlock()
	db.users = make(map[string]*user.User)
	db.subjects = make(map[string]*subject.Subject)
	db.assessments = make(map[string]*subject.Assessment)
	db.grades = make(map[string]*subject.Grade)
	db.weeks = make(map[string]*schedule.Week)
	db.tasks = make(map[string]*schedule.Task)
}
