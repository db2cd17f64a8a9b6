package dummydb

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/bmwamba/darasa/core"
	"github.com/bmwamba/darasa/core/submission"
)

type submissionRepository struct {
	tasks       *taskTable
	submissions *submissionTable
	feedback    *feedbackTable
}

var _ submission.Repository = (*submissionRepository)(nil) // interface compliance check

func NewSubmissionRepository(db *DB) submission.Repository {
	return &submissionRepository{
		tasks:       db.task,
		submissions: db.submission,
		feedback:    db.feedback,
	}
}

// Tasks

func (repo *submissionRepository) CreateTask(ctx context.Context, task submission.Task) (submission.Task, error) {
	repo.tasks.Lock()
	defer repo.tasks.Unlock()

	task.ID = uuid.New().String()
	repo.tasks.table[task.ID] = &task
	return task, nil
}

func (repo *submissionRepository) GetTaskByID(ctx context.Context, id string) (submission.Task, error) {
	repo.tasks.RLock()
	defer repo.tasks.RUnlock()

	if task, ok := repo.tasks.table[id]; ok {
		return *task, nil
	}
	return submission.Task{}, submission.ErrTaskNotFound
}

func (repo *submissionRepository) FilterTasks(ctx context.Context, filter *submission.TaskFilter, ordering []core.DBOrdering) ([]submission.Task, error) {
	repo.tasks.RLock()
	defer repo.tasks.RUnlock()

	tasks := make([]submission.Task, 0, len(repo.tasks.table))
	for _, task := range repo.tasks.table {
		if filter != nil {
			if filter.ActivityID != "" && task.ActivityID != filter.ActivityID {
				continue
			}
			if filter.IsActive != nil && task.IsActive != *filter.IsActive {
				continue
			}
			if filter.AssignedTo != "" && !task.IsAssignedTo(filter.AssignedTo) {
				continue
			}
		}
		tasks = append(tasks, *task)
	}
	return tasks, nil
}

func (repo *submissionRepository) UpdateTask(ctx context.Context, task submission.Task, isActive *bool) (submission.Task, error) {
	repo.tasks.Lock()
	defer repo.tasks.Unlock()

	orig, ok := repo.tasks.table[task.ID]
	if !ok {
		return submission.Task{}, submission.ErrTaskNotFound
	}
	orig.Title = task.Title
	orig.Description = task.Description
	orig.ActivityTitle = task.ActivityTitle
	orig.DueDate = task.DueDate
	orig.AssignedStudentIDs = task.AssignedStudentIDs
	if isActive != nil {
		orig.IsActive = *isActive
	}
	orig.UpdatedAt = task.UpdatedAt
	return *orig, nil
}

func (repo *submissionRepository) DeleteTasksByID(ctx context.Context, ids ...string) error {
	repo.tasks.Lock()
	defer repo.tasks.Unlock()

	for _, id := range ids {
		delete(repo.tasks.table, id)
	}
	return nil
}

// Submissions

func (repo *submissionRepository) CreateSubmission(ctx context.Context, sub submission.Submission) (submission.Submission, error) {
	repo.submissions.Lock()
	defer repo.submissions.Unlock()

	sub.ID = uuid.New().String()
	repo.submissions.table[sub.ID] = &sub
	return sub, nil
}

func (repo *submissionRepository) GetSubmissionByID(ctx context.Context, id string) (submission.Submission, error) {
	repo.submissions.RLock()
	defer repo.submissions.RUnlock()

	if sub, ok := repo.submissions.table[id]; ok {
		return *sub, nil
	}
	return submission.Submission{}, submission.ErrNotFound
}

func (repo *submissionRepository) GetSubmissionByUserAndTask(ctx context.Context, userID, taskID string) (submission.Submission, error) {
	repo.submissions.RLock()
	defer repo.submissions.RUnlock()

	for _, sub := range repo.submissions.table {
		if sub.UserID == userID && sub.TaskID.Valid && sub.TaskID.String == taskID {
			return *sub, nil
		}
	}
	return submission.Submission{}, submission.ErrNotFound
}

func (repo *submissionRepository) FilterSubmissions(ctx context.Context, filter *submission.QueryFilter, ordering []core.DBOrdering) ([]submission.Submission, error) {
	repo.submissions.RLock()
	defer repo.submissions.RUnlock()

	subs := make([]submission.Submission, 0, len(repo.submissions.table))
	for _, sub := range repo.submissions.table {
		if filter != nil {
			if filter.UserID != "" && sub.UserID != filter.UserID {
				continue
			}
			if filter.TaskID != "" && (!sub.TaskID.Valid || sub.TaskID.String != filter.TaskID) {
				continue
			}
			if filter.ActivityID != "" && sub.ActivityID != filter.ActivityID {
				continue
			}
			if filter.Status != "" && sub.Status != filter.Status {
				continue
			}
			if filter.Search != "" {
				search := strings.ToLower(filter.Search)
				if !strings.Contains(strings.ToLower(sub.Content), search) &&
					!strings.Contains(strings.ToLower(sub.ActivityTitle), search) {
					continue
				}
			}
		}
		subs = append(subs, *sub)
	}
	return subs, nil
}

func (repo *submissionRepository) UpdateSubmissionContent(ctx context.Context, id, content string, wordCount int) (submission.Submission, error) {
	repo.submissions.Lock()
	defer repo.submissions.Unlock()

	sub, ok := repo.submissions.table[id]
	if !ok {
		return submission.Submission{}, submission.ErrNotFound
	}
	sub.Content = content
	sub.WordCount = wordCount
	return *sub, nil
}

func (repo *submissionRepository) SetSubmissionStatus(ctx context.Context, id, status string) (submission.Submission, error) {
	repo.submissions.Lock()
	defer repo.submissions.Unlock()

	sub, ok := repo.submissions.table[id]
	if !ok {
		return submission.Submission{}, submission.ErrNotFound
	}
	sub.Status = status
	return *sub, nil
}

func (repo *submissionRepository) DeleteSubmissionsByID(ctx context.Context, ids ...string) error {
	repo.submissions.Lock()
	defer repo.submissions.Unlock()

	for _, id := range ids {
		delete(repo.submissions.table, id)
	}
	return nil
}

func (repo *submissionRepository) CountSubmissionsByUser(ctx context.Context, userID string) (int, error) {
	repo.submissions.RLock()
	defer repo.submissions.RUnlock()

	var count int
	for _, sub := range repo.submissions.table {
		if sub.UserID == userID {
			count++
		}
	}
	return count, nil
}

// Feedback

func (repo *submissionRepository) UpsertFeedback(ctx context.Context, fb submission.Feedback) (submission.Feedback, bool, error) {
	repo.feedback.Lock()
	defer repo.feedback.Unlock()

	if orig, ok := repo.feedback.table[fb.SubmissionID]; ok {
		fb.ID = orig.ID
		fb.CreatedAt = orig.CreatedAt
		repo.feedback.table[fb.SubmissionID] = &fb
		return fb, false, nil
	}
	fb.ID = uuid.New().String()
	repo.feedback.table[fb.SubmissionID] = &fb
	return fb, true, nil
}

func (repo *submissionRepository) GetFeedbackBySubmissionID(ctx context.Context, submissionID string) (submission.Feedback, error) {
	repo.feedback.RLock()
	defer repo.feedback.RUnlock()

	if fb, ok := repo.feedback.table[submissionID]; ok {
		return *fb, nil
	}
	return submission.Feedback{}, submission.ErrNotFound
}
