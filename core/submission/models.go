package submission

import (
	"strings"
	"time"

	"github.com/volatiletech/null/v8"

	"github.com/bmwamba/darasa/core"
)

// Submission statuses
const (
	StatusPending  = "pending"
	StatusReviewed = "reviewed"
	StatusReturned = "returned"
)

var AllStatuses = []string{StatusPending, StatusReviewed, StatusReturned}

// WordCount counts the whitespace-delimited non-empty tokens in s.
func WordCount(s string) int {
	return len(strings.Fields(s))
}

// Task is an assignment published by an admin. An empty AssignedStudentIDs
// set means the task is open to every student.
type Task struct {
	ID                 string    `json:"id"`
	Title              string    `json:"title"`
	Description        string    `json:"description,omitempty"`
	ActivityID         string    `json:"activity_id"`
	ActivityTitle      string    `json:"activity_title"`
	DueDate            null.Time `json:"due_date,omitempty"`
	IsActive           bool      `json:"is_active"`
	AssignedStudentIDs []string  `json:"assigned_student_ids,omitempty"`
	CreatedAt          time.Time `json:"created_at"` // UTC
	UpdatedAt          time.Time `json:"updated_at"` // UTC
}

// IsAssignedTo reports whether usrID may submit for this task.
func (t Task) IsAssignedTo(usrID string) bool {
	if len(t.AssignedStudentIDs) == 0 {
		return true
	}
	for _, id := range t.AssignedStudentIDs {
		if id == usrID {
			return true
		}
	}
	return false
}

func (t Task) IsPastDue(now time.Time) bool {
	return t.DueDate.Valid && now.After(t.DueDate.Time)
}

type NewTask struct {
	Title              string    `json:"title" validate:"required"`
	Description        string    `json:"description"`
	ActivityID         string    `json:"activity_id" validate:"required"`
	ActivityTitle      string    `json:"activity_title" validate:"required"`
	DueDate            null.Time `json:"due_date"`
	AssignedStudentIDs []string  `json:"assigned_student_ids"`
}

func (nt *NewTask) Validate() error {
	nt.Title = core.CleanString(nt.Title)
	nt.ActivityTitle = core.CleanString(nt.ActivityTitle)
	return core.Validate.Struct(nt)
}

type UpdateTask struct {
	Title              string    `json:"title"`
	Description        string    `json:"description"`
	ActivityTitle      string    `json:"activity_title"`
	DueDate            null.Time `json:"due_date"`
	IsActive           *bool     `json:"is_active"`
	AssignedStudentIDs []string  `json:"assigned_student_ids"`
}

func (ut *UpdateTask) Validate(orig Task) error {
	if title := core.CleanString(ut.Title); title != "" {
		ut.Title = title
	} else {
		ut.Title = orig.Title
	}
	if ut.Description == "" {
		ut.Description = orig.Description
	}
	if at := core.CleanString(ut.ActivityTitle); at != "" {
		ut.ActivityTitle = at
	} else {
		ut.ActivityTitle = orig.ActivityTitle
	}
	if !ut.DueDate.Valid {
		ut.DueDate = orig.DueDate
	}
	if ut.AssignedStudentIDs == nil {
		ut.AssignedStudentIDs = orig.AssignedStudentIDs
	}
	return core.Validate.Struct(ut)
}

type Submission struct {
	ID            string      `json:"id"`
	UserID        string      `json:"user_id"`
	TaskID        null.String `json:"task_id,omitempty"`
	ActivityID    string      `json:"activity_id"`
	ActivityTitle string      `json:"activity_title"`
	Content       string      `json:"content"`
	WordCount     int         `json:"word_count"`
	Status        string      `json:"status"`
	CreatedAt     time.Time   `json:"created_at"` // UTC
	UpdatedAt     time.Time   `json:"updated_at"` // UTC

	Feedback *Feedback `json:"feedback,omitempty"`
}

// NewSubmission requires either a task reference or explicit activity
// identifiers; activity metadata is derived from the task when given.
type NewSubmission struct {
	TaskID        string `json:"task_id"`
	ActivityID    string `json:"activity_id" validate:"required_without=TaskID"`
	ActivityTitle string `json:"activity_title" validate:"required_without=TaskID"`
	Content       string `json:"content" validate:"required"`
}

func (ns *NewSubmission) Validate() error {
	ns.ActivityTitle = core.CleanString(ns.ActivityTitle)
	return core.Validate.Struct(ns)
}

type UpdateSubmission struct {
	Content string `json:"content" validate:"required"`
}

func (us UpdateSubmission) Validate() error { return core.Validate.Struct(us) }

// CriterionScore is a rubric-linked score line inside a Feedback.
type CriterionScore struct {
	Name  string `json:"name" validate:"required"`
	Score int    `json:"score" validate:"min=0,max=100"`
}

// Feedback is the admin-authored evaluation attached 1:1 to a Submission.
type Feedback struct {
	ID              string           `json:"id"`
	SubmissionID    string           `json:"submission_id"`
	Grade           null.String      `json:"grade,omitempty"`
	Text            string           `json:"feedback_text"`
	RubricID        null.String      `json:"rubric_id,omitempty"`
	CriterionScores []CriterionScore `json:"criterion_scores,omitempty"`
	CreatedBy       string           `json:"created_by"`
	CreatedAt       time.Time        `json:"created_at"` // UTC
	UpdatedAt       time.Time        `json:"updated_at"` // UTC
}

type NewFeedback struct {
	Text            string           `json:"feedback_text" validate:"required"`
	Grade           string           `json:"grade"`
	RubricID        string           `json:"rubric_id"`
	CriterionScores []CriterionScore `json:"criterion_scores" validate:"omitempty,dive"`
}

func (nf *NewFeedback) Validate() error {
	nf.Text = core.CleanString(nf.Text)
	nf.Grade = core.CleanString(nf.Grade)
	return core.Validate.Struct(nf)
}

type QueryFilter struct {
	UserID     string `query:"user_id"`
	TaskID     string `query:"task_id"`
	ActivityID string `query:"activity_id"`
	Status     string `query:"status"`
	Search     string `query:"search"`
}

func (qf *QueryFilter) IsEmpty() bool {
	return qf.UserID == "" && qf.TaskID == "" && qf.ActivityID == "" && qf.Status == "" && qf.Search == ""
}

func (qf *QueryFilter) Clean() {
	qf.Status = core.CleanString(qf.Status, true /* lower */)
	qf.Search = core.CleanString(qf.Search)
}

type TaskFilter struct {
	ActivityID string `query:"activity_id"`
	IsActive   *bool  `query:"is_active"`
	// AssignedTo keeps only tasks open to everyone or addressed to this student.
	AssignedTo string `query:"-"`
}
