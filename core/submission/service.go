package submission

import (
	"context"
	"fmt"
	"time"

	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/bmwamba/darasa/core"
	"github.com/bmwamba/darasa/core/notification"
	"github.com/bmwamba/darasa/core/user"
)

var (
	// errors
	ErrNotFound     = errors.New("submission not found")
	ErrTaskNotFound = errors.New("task not found")

	ErrDuplicate       = errors.New("a submission for this task already exists")
	ErrTaskInactive    = errors.New("this task is no longer active")
	ErrTaskPastDue     = errors.New("the due date for this task has passed")
	ErrNotAssigned     = errors.New("this task is not assigned to you")
	ErrAlreadyReviewed = errors.New("a reviewed submission can no longer be edited")
	ErrNotOwner        = errors.New("permission denied")
	ErrInvalidStatus   = errors.New("invalid submission status")
)

type (
	Repository interface {
		CreateTask(ctx context.Context, task Task) (Task, error)
		GetTaskByID(ctx context.Context, id string) (Task, error)
		FilterTasks(ctx context.Context, filter *TaskFilter, ordering []core.DBOrdering) ([]Task, error)
		UpdateTask(ctx context.Context, task Task, isActive *bool) (Task, error)
		DeleteTasksByID(ctx context.Context, ids ...string) error

		CreateSubmission(ctx context.Context, sub Submission) (Submission, error)
		GetSubmissionByID(ctx context.Context, id string) (Submission, error)
		GetSubmissionByUserAndTask(ctx context.Context, userID, taskID string) (Submission, error)
		FilterSubmissions(ctx context.Context, filter *QueryFilter, ordering []core.DBOrdering) ([]Submission, error)
		UpdateSubmissionContent(ctx context.Context, id, content string, wordCount int) (Submission, error)
		SetSubmissionStatus(ctx context.Context, id, status string) (Submission, error)
		DeleteSubmissionsByID(ctx context.Context, ids ...string) error
		CountSubmissionsByUser(ctx context.Context, userID string) (int, error)

		// UpsertFeedback creates or replaces the Feedback row keyed by
		// Feedback.SubmissionID and reports whether it was created.
		UpsertFeedback(ctx context.Context, fb Feedback) (Feedback, bool, error)
		GetFeedbackBySubmissionID(ctx context.Context, submissionID string) (Feedback, error)
	}

	Service struct {
		repo   Repository
		notif  *notification.Service
		logger core.Logger
	}
)

func NewService(repo Repository, notifSvc *notification.Service, logger core.Logger) *Service {
	return &Service{
		repo:   repo,
		notif:  notifSvc,
		logger: logger,
	}
}

// Tasks

func (svc *Service) CreateTask(ctx context.Context, nt NewTask) (Task, error) {
	now := time.Now().UTC()
	task := Task{
		Title:              nt.Title,
		Description:        nt.Description,
		ActivityID:         nt.ActivityID,
		ActivityTitle:      nt.ActivityTitle,
		DueDate:            nt.DueDate,
		IsActive:           true,
		AssignedStudentIDs: nt.AssignedStudentIDs,
		CreatedAt:          now,
		UpdatedAt:          now,
	}
	return svc.repo.CreateTask(ctx, task)
}

func (svc *Service) GetTask(ctx context.Context, id string) (Task, error) {
	return svc.repo.GetTaskByID(ctx, id)
}

func (svc *Service) FilterTasks(ctx context.Context, filter *TaskFilter, ordering []core.DBOrdering) ([]Task, error) {
	return svc.repo.FilterTasks(ctx, filter, ordering)
}

func (svc *Service) UpdateTask(ctx context.Context, id string, ut UpdateTask) (Task, error) {
	task := Task{
		ID:                 id,
		Title:              ut.Title,
		Description:        ut.Description,
		ActivityTitle:      ut.ActivityTitle,
		DueDate:            ut.DueDate,
		AssignedStudentIDs: ut.AssignedStudentIDs,
		UpdatedAt:          time.Now().UTC(),
	}
	return svc.repo.UpdateTask(ctx, task, ut.IsActive)
}

func (svc *Service) DeleteTask(ctx context.Context, ids ...string) error {
	return svc.repo.DeleteTasksByID(ctx, ids...)
}

// Submissions

// Create starts a pending submission, deriving activity metadata from the
// referenced task and enforcing the task gating rules.
func (svc *Service) Create(ctx context.Context, usr user.User, ns NewSubmission) (Submission, error) {
	now := time.Now().UTC()
	sub := Submission{
		UserID:        usr.ID,
		ActivityID:    ns.ActivityID,
		ActivityTitle: ns.ActivityTitle,
		Content:       ns.Content,
		WordCount:     WordCount(ns.Content),
		Status:        StatusPending,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	if ns.TaskID != "" {
		task, err := svc.repo.GetTaskByID(ctx, ns.TaskID)
		if err != nil {
			return Submission{}, err
		}
		if !task.IsActive {
			return Submission{}, ErrTaskInactive
		}
		if task.IsPastDue(now) {
			return Submission{}, ErrTaskPastDue
		}
		if !task.IsAssignedTo(usr.ID) {
			return Submission{}, ErrNotAssigned
		}
		if _, err = svc.repo.GetSubmissionByUserAndTask(ctx, usr.ID, task.ID); err == nil {
			return Submission{}, ErrDuplicate
		} else if errors.Cause(err) != ErrNotFound {
			return Submission{}, err
		}
		sub.TaskID = null.StringFrom(task.ID)
		sub.ActivityID = task.ActivityID
		sub.ActivityTitle = task.ActivityTitle
	}

	return svc.repo.CreateSubmission(ctx, sub)
}

func (svc *Service) GetByID(ctx context.Context, id string) (Submission, error) {
	sub, err := svc.repo.GetSubmissionByID(ctx, id)
	if err != nil {
		return Submission{}, err
	}
	if fb, err := svc.repo.GetFeedbackBySubmissionID(ctx, sub.ID); err == nil {
		sub.Feedback = &fb
	} else if errors.Cause(err) != ErrNotFound {
		return Submission{}, err
	}
	return sub, nil
}

func (svc *Service) Filter(ctx context.Context, filter *QueryFilter, ordering []core.DBOrdering) ([]Submission, error) {
	return svc.repo.FilterSubmissions(ctx, filter, ordering)
}

func (svc *Service) CountByUser(ctx context.Context, userID string) (int, error) {
	return svc.repo.CountSubmissionsByUser(ctx, userID)
}

// UpdateContent edits a submission's content and recomputes the word count.
// Only the owner may edit, and only while the submission is pending.
func (svc *Service) UpdateContent(ctx context.Context, usr user.User, id string, us UpdateSubmission) (Submission, error) {
	sub, err := svc.repo.GetSubmissionByID(ctx, id)
	if err != nil {
		return Submission{}, err
	}
	if sub.UserID != usr.ID {
		return Submission{}, ErrNotOwner
	}
	if sub.Status != StatusPending {
		return Submission{}, ErrAlreadyReviewed
	}
	return svc.repo.UpdateSubmissionContent(ctx, id, us.Content, WordCount(us.Content))
}

// AttachFeedback upserts the feedback row for a submission, moves the
// submission to reviewed and notifies its owner.
func (svc *Service) AttachFeedback(ctx context.Context, admin user.User, submissionID string, nf NewFeedback) (Submission, error) {
	sub, err := svc.repo.GetSubmissionByID(ctx, submissionID)
	if err != nil {
		return Submission{}, err
	}

	now := time.Now().UTC()
	fb := Feedback{
		SubmissionID:    sub.ID,
		Grade:           null.NewString(nf.Grade, nf.Grade != ""),
		Text:            nf.Text,
		RubricID:        null.NewString(nf.RubricID, nf.RubricID != ""),
		CriterionScores: nf.CriterionScores,
		CreatedBy:       admin.ID,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	fb, _, err = svc.repo.UpsertFeedback(ctx, fb)
	if err != nil {
		return Submission{}, err
	}

	sub, err = svc.repo.SetSubmissionStatus(ctx, sub.ID, StatusReviewed)
	if err != nil {
		return Submission{}, err
	}
	sub.Feedback = &fb

	if _, err := svc.notif.Notify(ctx, notification.NewNotification{
		UserID:  sub.UserID,
		Kind:    notification.KindFeedback,
		Title:   "Your submission has been reviewed",
		Message: fmt.Sprintf("Feedback is available for %q.", sub.ActivityTitle),
	}); err != nil {
		svc.logger.Error("notifying submission owner", err)
	}
	return sub, nil
}

// SetStatus is the admin escape hatch for direct status updates (eg. returned).
func (svc *Service) SetStatus(ctx context.Context, id, status string) (Submission, error) {
	var valid bool
	for _, s := range AllStatuses {
		if s == status {
			valid = true
			break
		}
	}
	if !valid {
		return Submission{}, core.NewValidationError(ErrInvalidStatus, core.FieldError{Field: "status", Error: ErrInvalidStatus.Error()})
	}
	return svc.repo.SetSubmissionStatus(ctx, id, status)
}

// Delete removes a submission. Admins may delete in any state; the owner
// only while it is still pending.
func (svc *Service) Delete(ctx context.Context, actor user.User, id string) error {
	sub, err := svc.repo.GetSubmissionByID(ctx, id)
	if err != nil {
		return err
	}
	if !actor.IsAdmin() {
		if sub.UserID != actor.ID {
			return ErrNotOwner
		}
		if sub.Status != StatusPending {
			return ErrAlreadyReviewed
		}
	}
	return svc.repo.DeleteSubmissionsByID(ctx, id)
}
