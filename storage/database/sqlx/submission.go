package sqlxrepos

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/bmwamba/darasa/core"
	"github.com/bmwamba/darasa/core/submission"
)

type taskRow struct {
	ID                 string    `db:"id"`
	Title              string    `db:"title"`
	Description        string    `db:"description"`
	ActivityID         string    `db:"activity_id"`
	ActivityTitle      string    `db:"activity_title"`
	DueDate            null.Time `db:"due_date"`
	IsActive           bool      `db:"is_active"`
	AssignedStudentIDs string    `db:"assigned_student_ids"`
	CreatedAt          time.Time `db:"created_at"`
	UpdatedAt          time.Time `db:"updated_at"`
}

func (r taskRow) toTask() (submission.Task, error) {
	task := submission.Task{
		ID:            r.ID,
		Title:         r.Title,
		Description:   r.Description,
		ActivityID:    r.ActivityID,
		ActivityTitle: r.ActivityTitle,
		DueDate:       r.DueDate,
		IsActive:      r.IsActive,
		CreatedAt:     r.CreatedAt,
		UpdatedAt:     r.UpdatedAt,
	}
	if err := unmarshalJSON(r.AssignedStudentIDs, &task.AssignedStudentIDs); err != nil {
		return submission.Task{}, err
	}
	return task, nil
}

type submissionRow struct {
	ID            string      `db:"id"`
	UserID        string      `db:"user_id"`
	TaskID        null.String `db:"task_id"`
	ActivityID    string      `db:"activity_id"`
	ActivityTitle string      `db:"activity_title"`
	Content       string      `db:"content"`
	WordCount     int         `db:"word_count"`
	Status        string      `db:"status"`
	CreatedAt     time.Time   `db:"created_at"`
	UpdatedAt     time.Time   `db:"updated_at"`
}

func (r submissionRow) toSubmission() submission.Submission {
	return submission.Submission{
		ID:            r.ID,
		UserID:        r.UserID,
		TaskID:        r.TaskID,
		ActivityID:    r.ActivityID,
		ActivityTitle: r.ActivityTitle,
		Content:       r.Content,
		WordCount:     r.WordCount,
		Status:        r.Status,
		CreatedAt:     r.CreatedAt,
		UpdatedAt:     r.UpdatedAt,
	}
}

type feedbackRow struct {
	ID              string      `db:"id"`
	SubmissionID    string      `db:"submission_id"`
	Grade           null.String `db:"grade"`
	Text            string      `db:"feedback_text"`
	RubricID        null.String `db:"rubric_id"`
	CriterionScores string      `db:"criterion_scores"`
	CreatedBy       string      `db:"created_by"`
	CreatedAt       time.Time   `db:"created_at"`
	UpdatedAt       time.Time   `db:"updated_at"`
}

func (r feedbackRow) toFeedback() (submission.Feedback, error) {
	fb := submission.Feedback{
		ID:           r.ID,
		SubmissionID: r.SubmissionID,
		Grade:        r.Grade,
		Text:         r.Text,
		RubricID:     r.RubricID,
		CreatedBy:    r.CreatedBy,
		CreatedAt:    r.CreatedAt,
		UpdatedAt:    r.UpdatedAt,
	}
	if err := unmarshalJSON(r.CriterionScores, &fb.CriterionScores); err != nil {
		return submission.Feedback{}, err
	}
	return fb, nil
}

type SubmissionRepository struct {
	db *sqlx.DB
}

var _ submission.Repository = (*SubmissionRepository)(nil)

func NewSubmissionRepository(db *sqlx.DB) *SubmissionRepository {
	return &SubmissionRepository{db: db}
}

// Tasks

func (repo *SubmissionRepository) CreateTask(ctx context.Context, task submission.Task) (submission.Task, error) {
	task.ID = uuid.New().String()
	assigned, err := marshalJSON(task.AssignedStudentIDs)
	if err != nil {
		return submission.Task{}, err
	}
	query := repo.db.Rebind(`
		INSERT INTO tasks (id, title, description, activity_id, activity_title, due_date, is_active, assigned_student_ids, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	_, err = repo.db.ExecContext(ctx, query,
		task.ID, task.Title, task.Description, task.ActivityID, task.ActivityTitle,
		task.DueDate, task.IsActive, assigned, task.CreatedAt, task.UpdatedAt,
	)
	if err != nil {
		return submission.Task{}, errors.Wrap(err, "inserting task")
	}
	return task, nil
}

func (repo *SubmissionRepository) GetTaskByID(ctx context.Context, id string) (submission.Task, error) {
	var row taskRow
	query := repo.db.Rebind(`SELECT * FROM tasks WHERE id = ?`)
	if err := repo.db.GetContext(ctx, &row, query, id); err != nil {
		return submission.Task{}, trapNoRowsErr(err, submission.ErrTaskNotFound, "finding task by ID")
	}
	return row.toTask()
}

var taskOrderFields = map[string]bool{"title": true, "due_date": true, "created_at": true}

func (repo *SubmissionRepository) FilterTasks(ctx context.Context, filter *submission.TaskFilter, ordering []core.DBOrdering) ([]submission.Task, error) {
	query := `SELECT * FROM tasks`
	var clauses []string
	var args []interface{}

	if filter != nil {
		if filter.ActivityID != "" {
			clauses = append(clauses, `activity_id = ?`)
			args = append(args, filter.ActivityID)
		}
		if filter.IsActive != nil {
			clauses = append(clauses, `is_active = ?`)
			args = append(args, *filter.IsActive)
		}
	}
	if len(clauses) > 0 {
		query += ` WHERE ` + strings.Join(clauses, " AND ")
	}
	query += orderBy(ordering, taskOrderFields, "created_at DESC")

	var rows []taskRow
	if err := repo.db.SelectContext(ctx, &rows, repo.db.Rebind(query), args...); err != nil {
		return nil, errors.Wrap(err, "filtering tasks")
	}

	tasks := make([]submission.Task, 0, len(rows))
	for _, row := range rows {
		task, err := row.toTask()
		if err != nil {
			return nil, err
		}
		// the assigned-set filter needs the decoded JSON column
		if filter != nil && filter.AssignedTo != "" && !task.IsAssignedTo(filter.AssignedTo) {
			continue
		}
		tasks = append(tasks, task)
	}
	return tasks, nil
}

func (repo *SubmissionRepository) UpdateTask(ctx context.Context, task submission.Task, isActive *bool) (submission.Task, error) {
	assigned, err := marshalJSON(task.AssignedStudentIDs)
	if err != nil {
		return submission.Task{}, err
	}
	sets := []string{`title = ?`, `description = ?`, `activity_title = ?`, `due_date = ?`, `assigned_student_ids = ?`, `updated_at = ?`}
	args := []interface{}{task.Title, task.Description, task.ActivityTitle, task.DueDate, assigned, task.UpdatedAt}
	if isActive != nil {
		sets = append(sets, `is_active = ?`)
		args = append(args, *isActive)
	}
	args = append(args, task.ID)

	query := repo.db.Rebind(`UPDATE tasks SET ` + strings.Join(sets, ", ") + ` WHERE id = ?`)
	res, err := repo.db.ExecContext(ctx, query, args...)
	if err != nil {
		return submission.Task{}, errors.Wrap(err, "updating task")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return submission.Task{}, submission.ErrTaskNotFound
	}
	return repo.GetTaskByID(ctx, task.ID)
}

func (repo *SubmissionRepository) DeleteTasksByID(ctx context.Context, ids ...string) error {
	if len(ids) == 0 {
		return nil
	}
	q, args, err := in(repo.db, `DELETE FROM tasks WHERE id IN (?)`, []interface{}{ids})
	if err != nil {
		return err
	}
	if _, err := repo.db.ExecContext(ctx, q, args...); err != nil {
		return errors.Wrap(err, "deleting tasks")
	}
	return nil
}

// Submissions

func (repo *SubmissionRepository) CreateSubmission(ctx context.Context, sub submission.Submission) (submission.Submission, error) {
	sub.ID = uuid.New().String()
	query := repo.db.Rebind(`
		INSERT INTO submissions (id, user_id, task_id, activity_id, activity_title, content, word_count, status, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	_, err := repo.db.ExecContext(ctx, query,
		sub.ID, sub.UserID, sub.TaskID, sub.ActivityID, sub.ActivityTitle,
		sub.Content, sub.WordCount, sub.Status, sub.CreatedAt, sub.UpdatedAt,
	)
	if err != nil {
		return submission.Submission{}, errors.Wrap(err, "inserting submission")
	}
	return sub, nil
}

func (repo *SubmissionRepository) GetSubmissionByID(ctx context.Context, id string) (submission.Submission, error) {
	var row submissionRow
	query := repo.db.Rebind(`SELECT * FROM submissions WHERE id = ?`)
	if err := repo.db.GetContext(ctx, &row, query, id); err != nil {
		return submission.Submission{}, trapNoRowsErr(err, submission.ErrNotFound, "finding submission by ID")
	}
	return row.toSubmission(), nil
}

func (repo *SubmissionRepository) GetSubmissionByUserAndTask(ctx context.Context, userID, taskID string) (submission.Submission, error) {
	var row submissionRow
	query := repo.db.Rebind(`SELECT * FROM submissions WHERE user_id = ? AND task_id = ?`)
	if err := repo.db.GetContext(ctx, &row, query, userID, taskID); err != nil {
		return submission.Submission{}, trapNoRowsErr(err, submission.ErrNotFound, "finding submission by user and task")
	}
	return row.toSubmission(), nil
}

var submissionOrderFields = map[string]bool{"status": true, "word_count": true, "created_at": true, "updated_at": true}

func (repo *SubmissionRepository) FilterSubmissions(ctx context.Context, filter *submission.QueryFilter, ordering []core.DBOrdering) ([]submission.Submission, error) {
	query := `SELECT * FROM submissions`
	var clauses []string
	var args []interface{}

	if filter != nil {
		if filter.UserID != "" {
			clauses = append(clauses, `user_id = ?`)
			args = append(args, filter.UserID)
		}
		if filter.TaskID != "" {
			clauses = append(clauses, `task_id = ?`)
			args = append(args, filter.TaskID)
		}
		if filter.ActivityID != "" {
			clauses = append(clauses, `activity_id = ?`)
			args = append(args, filter.ActivityID)
		}
		if filter.Status != "" {
			clauses = append(clauses, `status = ?`)
			args = append(args, filter.Status)
		}
		if filter.Search != "" {
			clauses = append(clauses, `(LOWER(content) LIKE ? OR LOWER(activity_title) LIKE ?)`)
			like := "%" + strings.ToLower(filter.Search) + "%"
			args = append(args, like, like)
		}
	}
	if len(clauses) > 0 {
		query += ` WHERE ` + strings.Join(clauses, " AND ")
	}
	query += orderBy(ordering, submissionOrderFields, "created_at DESC")

	var rows []submissionRow
	if err := repo.db.SelectContext(ctx, &rows, repo.db.Rebind(query), args...); err != nil {
		return nil, errors.Wrap(err, "filtering submissions")
	}
	subs := make([]submission.Submission, 0, len(rows))
	for _, row := range rows {
		subs = append(subs, row.toSubmission())
	}
	return subs, nil
}

func (repo *SubmissionRepository) UpdateSubmissionContent(ctx context.Context, id, content string, wordCount int) (submission.Submission, error) {
	query := repo.db.Rebind(`UPDATE submissions SET content = ?, word_count = ?, updated_at = ? WHERE id = ?`)
	res, err := repo.db.ExecContext(ctx, query, content, wordCount, time.Now().UTC(), id)
	if err != nil {
		return submission.Submission{}, errors.Wrap(err, "updating submission content")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return submission.Submission{}, submission.ErrNotFound
	}
	return repo.GetSubmissionByID(ctx, id)
}

func (repo *SubmissionRepository) SetSubmissionStatus(ctx context.Context, id, status string) (submission.Submission, error) {
	query := repo.db.Rebind(`UPDATE submissions SET status = ?, updated_at = ? WHERE id = ?`)
	res, err := repo.db.ExecContext(ctx, query, status, time.Now().UTC(), id)
	if err != nil {
		return submission.Submission{}, errors.Wrap(err, "setting submission status")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return submission.Submission{}, submission.ErrNotFound
	}
	return repo.GetSubmissionByID(ctx, id)
}

func (repo *SubmissionRepository) DeleteSubmissionsByID(ctx context.Context, ids ...string) error {
	if len(ids) == 0 {
		return nil
	}
	q, args, err := in(repo.db, `DELETE FROM submissions WHERE id IN (?)`, []interface{}{ids})
	if err != nil {
		return err
	}
	if _, err := repo.db.ExecContext(ctx, q, args...); err != nil {
		return errors.Wrap(err, "deleting submissions")
	}
	return nil
}

func (repo *SubmissionRepository) CountSubmissionsByUser(ctx context.Context, userID string) (int, error) {
	var count int
	query := repo.db.Rebind(`SELECT COUNT(*) FROM submissions WHERE user_id = ?`)
	if err := repo.db.GetContext(ctx, &count, query, userID); err != nil {
		return 0, errors.Wrap(err, "counting submissions")
	}
	return count, nil
}

// Feedback

func (repo *SubmissionRepository) UpsertFeedback(ctx context.Context, fb submission.Feedback) (submission.Feedback, bool, error) {
	scores, err := marshalJSON(fb.CriterionScores)
	if err != nil {
		return submission.Feedback{}, false, err
	}

	existing, err := repo.GetFeedbackBySubmissionID(ctx, fb.SubmissionID)
	if err == nil {
		query := repo.db.Rebind(`
			UPDATE feedback SET grade = ?, feedback_text = ?, rubric_id = ?, criterion_scores = ?, created_by = ?, updated_at = ?
			WHERE submission_id = ?`)
		if _, err := repo.db.ExecContext(ctx, query,
			fb.Grade, fb.Text, fb.RubricID, scores, fb.CreatedBy, fb.UpdatedAt, fb.SubmissionID,
		); err != nil {
			return submission.Feedback{}, false, errors.Wrap(err, "updating feedback")
		}
		fb.ID = existing.ID
		fb.CreatedAt = existing.CreatedAt
		return fb, false, nil
	}
	if errors.Cause(err) != submission.ErrNotFound {
		return submission.Feedback{}, false, err
	}

	fb.ID = uuid.New().String()
	query := repo.db.Rebind(`
		INSERT INTO feedback (id, submission_id, grade, feedback_text, rubric_id, criterion_scores, created_by, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if _, err := repo.db.ExecContext(ctx, query,
		fb.ID, fb.SubmissionID, fb.Grade, fb.Text, fb.RubricID, scores, fb.CreatedBy, fb.CreatedAt, fb.UpdatedAt,
	); err != nil {
		return submission.Feedback{}, false, errors.Wrap(err, "inserting feedback")
	}
	return fb, true, nil
}

func (repo *SubmissionRepository) GetFeedbackBySubmissionID(ctx context.Context, submissionID string) (submission.Feedback, error) {
	var row feedbackRow
	query := repo.db.Rebind(`SELECT * FROM feedback WHERE submission_id = ?`)
	if err := repo.db.GetContext(ctx, &row, query, submissionID); err != nil {
		return submission.Feedback{}, trapNoRowsErr(err, submission.ErrNotFound, "finding feedback by submission")
	}
	return row.toFeedback()
}
