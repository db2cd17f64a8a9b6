// Package dummydb provides in-memory repositories for tests.
package dummydb

import (
	"sync"

	"github.com/bmwamba/darasa/core/attendance"
	"github.com/bmwamba/darasa/core/notification"
	"github.com/bmwamba/darasa/core/rubric"
	"github.com/bmwamba/darasa/core/submission"
	"github.com/bmwamba/darasa/core/user"
	"github.com/bmwamba/darasa/core/visit"
)

type (
	DB struct {
		user         *userTable
		task         *taskTable
		submission   *submissionTable
		feedback     *feedbackTable
		attendance   *attendanceTable
		notification *notificationTable
		rubric       *rubricTable
		visit        *visitTable
	}

	userTable struct {
		sync.RWMutex
		table map[string]*user.User
	}

	taskTable struct {
		sync.RWMutex
		table map[string]*submission.Task
	}

	submissionTable struct {
		sync.RWMutex
		table map[string]*submission.Submission
	}

	feedbackTable struct {
		sync.RWMutex
		table map[string]*submission.Feedback // keyed by submission ID
	}

	attendanceTable struct {
		sync.RWMutex
		table map[string]*attendance.Record
	}

	notificationTable struct {
		sync.RWMutex
		table map[string]*notification.Notification
	}

	rubricTable struct {
		sync.RWMutex
		table map[string]*rubric.Rubric
	}

	visitTable struct {
		sync.RWMutex
		table []visit.Visit
	}
)

func Open() (*DB, error) {
	db := &DB{
		user:         &userTable{table: make(map[string]*user.User)},
		task:         &taskTable{table: make(map[string]*submission.Task)},
		submission:   &submissionTable{table: make(map[string]*submission.Submission)},
		feedback:     &feedbackTable{table: make(map[string]*submission.Feedback)},
		attendance:   &attendanceTable{table: make(map[string]*attendance.Record)},
		notification: &notificationTable{table: make(map[string]*notification.Notification)},
		rubric:       &rubricTable{table: make(map[string]*rubric.Rubric)},
		visit:        &visitTable{},
	}
	return db, nil
}
