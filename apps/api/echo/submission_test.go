package echoapi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/volatiletech/null/v8"

	"github.com/bmwamba/darasa/core/notification"
	"github.com/bmwamba/darasa/core/submission"
	"github.com/bmwamba/darasa/core/user"
)

func createSubmission(t *testing.T, svc *submission.Service, usr user.User, taskID, content string) submission.Submission {
	t.Helper()
	sub, err := svc.Create(context.Background(), usr, submission.NewSubmission{
		TaskID:        taskID,
		ActivityID:    "act-free",
		ActivityTitle: "Free writing",
		Content:       content,
	})
	require.NoError(t, err)
	return sub
}

func Test_submissionApi_create(t *testing.T) {
	env := setup(t)

	aisha := createUser(t, env.usrRepo, "Aisha", "aisha@test.cd", "passwd", user.RoleStudent, true)
	imani := createUser(t, env.usrRepo, "Imani", "imani@test.cd", "passwd", user.RoleStudent, true)

	task := createTask(t, env.subSvc, "Essay", "act-1", null.Time{})
	addressed := createTask(t, env.subSvc, "Extra credit", "act-2", null.Time{}, imani.ID)
	pastDue := createTask(t, env.subSvc, "Late essay", "act-3", null.TimeFrom(time.Now().UTC().Add(-time.Hour)))

	closed := createTask(t, env.subSvc, "Closed essay", "act-4", null.Time{})
	inactive := false
	_, err := env.subSvc.UpdateTask(context.Background(),
		closed.ID, submission.UpdateTask{Title: closed.Title, ActivityTitle: closed.ActivityTitle, IsActive: &inactive})
	require.NoError(t, err)

	token := getToken(t, aisha)

	taskBody := func(taskID, content string) []byte {
		return []byte(fmt.Sprintf(`{"task_id":%q,"content":%q}`, taskID, content))
	}

	tests := []httpTest{
		{
			name: "free-form submission", token: token, wantCode: http.StatusCreated,
			body: []byte(`{"activity_id":"act-free","activity_title":"Free writing","content":"one two  three"}`),
		},
		{
			name: "task submission", token: token, wantCode: http.StatusCreated,
			body: taskBody(task.ID, "my essay text"),
		},
		{
			name: "duplicate task submission", token: token, wantCode: http.StatusConflict,
			body:     taskBody(task.ID, "second attempt"),
			wantData: marchallObj(t, httpErr{Error: submission.ErrDuplicate.Error()}),
		},
		{
			name: "inactive task", token: token, wantCode: http.StatusBadRequest,
			body:     taskBody(closed.ID, "too late"),
			wantData: marchallObj(t, httpErr{Error: submission.ErrTaskInactive.Error()}),
		},
		{
			name: "past due task", token: token, wantCode: http.StatusBadRequest,
			body:     taskBody(pastDue.ID, "too late"),
			wantData: marchallObj(t, httpErr{Error: submission.ErrTaskPastDue.Error()}),
		},
		{
			name: "not assigned", token: token, wantCode: http.StatusForbidden,
			body:     taskBody(addressed.ID, "not mine"),
			wantData: marchallObj(t, httpErr{Error: submission.ErrNotAssigned.Error()}),
		},
		{
			name: "unknown task", token: token, wantCode: http.StatusNotFound,
			body:     taskBody("missing", "text"),
			wantData: marchallObj(t, httpErr{Error: submission.ErrTaskNotFound.Error()}),
		},
		{
			name: "no task and no activity", token: token, wantCode: http.StatusBadRequest,
			body: []byte(`{"content":"orphan"}`),
		},
		{
			name: "empty content", token: token, wantCode: http.StatusBadRequest,
			body: []byte(`{"activity_id":"act-free","activity_title":"Free writing","content":""}`),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(http.MethodPost, "/api/submissions", tt.token, tt.body)
			env.server.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)

			if tt.wantCode != http.StatusCreated {
				return
			}
			var sub submission.Submission
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &sub))
			assert.Equal(t, aisha.ID, sub.UserID)
			assert.Equal(t, submission.StatusPending, sub.Status)
			if tt.name == "free-form submission" {
				assert.Equal(t, 3, sub.WordCount)
				assert.False(t, sub.TaskID.Valid)
			} else {
				assert.Equal(t, task.ID, sub.TaskID.String)
				assert.Equal(t, task.ActivityID, sub.ActivityID)
				assert.Equal(t, task.ActivityTitle, sub.ActivityTitle)
			}
		})
	}
}

func Test_submissionApi_query(t *testing.T) {
	env := setup(t)

	admin := createUser(t, env.usrRepo, "Admin", "admin@test.cd", "passwd", user.RoleAdmin, true)
	aisha := createUser(t, env.usrRepo, "Aisha", "aisha@test.cd", "passwd", user.RoleStudent, true)
	imani := createUser(t, env.usrRepo, "Imani", "imani@test.cd", "passwd", user.RoleStudent, true)

	aishaSub := createSubmission(t, env.subSvc, aisha, "", "aisha writes")
	imaniSub := createSubmission(t, env.subSvc, imani, "", "imani writes")

	tests := []httpTest{
		{name: "admin sees all", path: "/api/submissions", token: getToken(t, admin), wantCode: http.StatusOK,
			wantData: marchallObj(t, []submission.Submission{aishaSub, imaniSub})},
		{name: "student sees own", path: "/api/submissions", token: getToken(t, aisha), wantCode: http.StatusOK,
			wantData: marchallObj(t, []submission.Submission{aishaSub})},
		{name: "student cannot widen filter", path: "/api/submissions?user_id=" + imani.ID,
			token: getToken(t, aisha), wantCode: http.StatusOK,
			wantData: marchallObj(t, []submission.Submission{aishaSub})},
		{name: "admin filter by user", path: "/api/submissions?user_id=" + imani.ID,
			token: getToken(t, admin), wantCode: http.StatusOK,
			wantData: marchallObj(t, []submission.Submission{imaniSub})},
		{name: "search content", path: "/api/submissions?search=imani", token: getToken(t, admin),
			wantCode: http.StatusOK, wantData: marchallObj(t, []submission.Submission{imaniSub})},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(http.MethodGet, tt.path, tt.token)
			env.server.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}
}

func Test_submissionApi_retrieve(t *testing.T) {
	env := setup(t)

	admin := createUser(t, env.usrRepo, "Admin", "admin@test.cd", "passwd", user.RoleAdmin, true)
	aisha := createUser(t, env.usrRepo, "Aisha", "aisha@test.cd", "passwd", user.RoleStudent, true)
	imani := createUser(t, env.usrRepo, "Imani", "imani@test.cd", "passwd", user.RoleStudent, true)

	sub := createSubmission(t, env.subSvc, aisha, "", "aisha writes")

	tests := []httpTest{
		{name: "owner", path: "/api/submissions/" + sub.ID, token: getToken(t, aisha),
			wantCode: http.StatusOK, wantData: marchallObj(t, sub)},
		{name: "admin", path: "/api/submissions/" + sub.ID, token: getToken(t, admin),
			wantCode: http.StatusOK, wantData: marchallObj(t, sub)},
		{name: "other student hidden", path: "/api/submissions/" + sub.ID, token: getToken(t, imani),
			wantCode: http.StatusNotFound, wantData: marchallObj(t, errNotFoundResp)},
		{name: "unknown id", path: "/api/submissions/missing", token: getToken(t, admin),
			wantCode: http.StatusNotFound, wantData: marchallObj(t, httpErr{Error: submission.ErrNotFound.Error()})},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(http.MethodGet, tt.path, tt.token)
			env.server.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}
}

func Test_submissionApi_update(t *testing.T) {
	env := setup(t)

	aisha := createUser(t, env.usrRepo, "Aisha", "aisha@test.cd", "passwd", user.RoleStudent, true)
	imani := createUser(t, env.usrRepo, "Imani", "imani@test.cd", "passwd", user.RoleStudent, true)

	sub := createSubmission(t, env.subSvc, aisha, "", "first draft")

	// owner edit while pending
	req, rec := newAuthRequest(http.MethodPut, "/api/submissions/"+sub.ID, getToken(t, aisha),
		[]byte(`{"content":"second draft with more words"}`))
	env.server.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var updated submission.Submission
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &updated))
	assert.Equal(t, "second draft with more words", updated.Content)
	assert.Equal(t, 5, updated.WordCount)

	// non-owner edit
	req, rec = newAuthRequest(http.MethodPut, "/api/submissions/"+sub.ID, getToken(t, imani),
		[]byte(`{"content":"hijack"}`))
	env.server.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	// reviewed submissions are frozen
	_, err := env.subRepo.SetSubmissionStatus(context.Background(), sub.ID, submission.StatusReviewed)
	require.NoError(t, err)

	req, rec = newAuthRequest(http.MethodPut, "/api/submissions/"+sub.ID, getToken(t, aisha),
		[]byte(`{"content":"third draft"}`))
	env.server.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	data := marchallObj(t, httpErr{Error: submission.ErrAlreadyReviewed.Error()})
	eq, err := jsonBytesEqual(t, rec.Body.Bytes(), data)
	require.NoError(t, err)
	assert.True(t, eq)
}

func Test_submissionApi_feedback(t *testing.T) {
	env := setup(t)

	admin := createUser(t, env.usrRepo, "Admin", "admin@test.cd", "passwd", user.RoleAdmin, true)
	aisha := createUser(t, env.usrRepo, "Aisha", "aisha@test.cd", "passwd", user.RoleStudent, true)

	sub := createSubmission(t, env.subSvc, aisha, "", "my essay")

	// students cannot attach feedback
	req, rec := newAuthRequest(http.MethodPost, "/api/submissions/"+sub.ID+"/feedback", getToken(t, aisha),
		[]byte(`{"feedback_text":"self praise"}`))
	env.server.ServeHTTP(rec, req)
	require.Equal(t, http.StatusForbidden, rec.Code)

	body := []byte(`{"feedback_text":"Solid work.","grade":"A","criterion_scores":[{"name":"Clarity","score":90}]}`)
	req, rec = newAuthRequest(http.MethodPost, "/api/submissions/"+sub.ID+"/feedback", getToken(t, admin), body)
	env.server.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var reviewed submission.Submission
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &reviewed))
	assert.Equal(t, submission.StatusReviewed, reviewed.Status)
	require.NotNil(t, reviewed.Feedback)
	assert.Equal(t, "Solid work.", reviewed.Feedback.Text)
	assert.Equal(t, "A", reviewed.Feedback.Grade.String)
	assert.Equal(t, admin.ID, reviewed.Feedback.CreatedBy)

	// the owner got exactly one feedback notification
	notifs, err := env.notifSvc.QueryByUser(context.Background(), aisha.ID)
	require.NoError(t, err)
	require.Len(t, notifs, 1)
	assert.Equal(t, notification.KindFeedback, notifs[0].Kind)

	// re-submitting feedback replaces it without duplicating the notification count check above
	body = []byte(`{"feedback_text":"Even better on second read.","grade":"A+"}`)
	req, rec = newAuthRequest(http.MethodPost, "/api/submissions/"+sub.ID+"/feedback", getToken(t, admin), body)
	env.server.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	fb, err := env.subRepo.GetFeedbackBySubmissionID(context.Background(), sub.ID)
	require.NoError(t, err)
	assert.Equal(t, "Even better on second read.", fb.Text)
	assert.Equal(t, "A+", fb.Grade.String)

	// missing text
	req, rec = newAuthRequest(http.MethodPost, "/api/submissions/"+sub.ID+"/feedback", getToken(t, admin),
		[]byte(`{"grade":"B"}`))
	env.server.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func Test_submissionApi_setStatus(t *testing.T) {
	env := setup(t)

	admin := createUser(t, env.usrRepo, "Admin", "admin@test.cd", "passwd", user.RoleAdmin, true)
	aisha := createUser(t, env.usrRepo, "Aisha", "aisha@test.cd", "passwd", user.RoleStudent, true)

	sub := createSubmission(t, env.subSvc, aisha, "", "my essay")

	tests := []httpTest{
		{name: "student refused", token: getToken(t, aisha), wantCode: http.StatusForbidden,
			body: []byte(`{"status":"returned"}`), wantData: marchallObj(t, errForbidden)},
		{name: "returned", token: getToken(t, admin), wantCode: http.StatusOK,
			body: []byte(`{"status":"Returned"}`)},
		{name: "invalid status", token: getToken(t, admin), wantCode: http.StatusBadRequest,
			body:     []byte(`{"status":"graded"}`),
			wantData: marchallObj(t, fieldErrs{Errors: map[string]string{"status": submission.ErrInvalidStatus.Error()}})},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(http.MethodPut, "/api/submissions/"+sub.ID+"/status", tt.token, tt.body)
			env.server.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)

			if tt.wantCode == http.StatusOK {
				var got submission.Submission
				require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
				assert.Equal(t, submission.StatusReturned, got.Status)
			}
		})
	}
}

func Test_submissionApi_destroy(t *testing.T) {
	env := setup(t)

	admin := createUser(t, env.usrRepo, "Admin", "admin@test.cd", "passwd", user.RoleAdmin, true)
	aisha := createUser(t, env.usrRepo, "Aisha", "aisha@test.cd", "passwd", user.RoleStudent, true)
	imani := createUser(t, env.usrRepo, "Imani", "imani@test.cd", "passwd", user.RoleStudent, true)

	pending := createSubmission(t, env.subSvc, aisha, "", "pending one")
	reviewed := createSubmission(t, env.subSvc, aisha, "", "reviewed one")
	_, err := env.subRepo.SetSubmissionStatus(context.Background(), reviewed.ID, submission.StatusReviewed)
	require.NoError(t, err)

	tests := []httpTest{
		{name: "non-owner refused", path: "/api/submissions/" + pending.ID, token: getToken(t, imani),
			wantCode: http.StatusForbidden, wantData: marchallObj(t, httpErr{Error: submission.ErrNotOwner.Error()})},
		{name: "owner deletes pending", path: "/api/submissions/" + pending.ID, token: getToken(t, aisha),
			wantCode: http.StatusNoContent},
		{name: "owner cannot delete reviewed", path: "/api/submissions/" + reviewed.ID, token: getToken(t, aisha),
			wantCode: http.StatusBadRequest, wantData: marchallObj(t, httpErr{Error: submission.ErrAlreadyReviewed.Error()})},
		{name: "admin deletes reviewed", path: "/api/submissions/" + reviewed.ID, token: getToken(t, admin),
			wantCode: http.StatusNoContent},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(http.MethodDelete, tt.path, tt.token)
			env.server.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}

	_, err = env.subSvc.GetByID(context.Background(), reviewed.ID)
	assert.Equal(t, submission.ErrNotFound, err)
}

func Test_wordCount(t *testing.T) {
	tests := []struct {
		in   string
		want int
	}{
		{"", 0},
		{"   ", 0},
		{"one", 1},
		{"one two  three", 3},
		{"tabs\tand\nnewlines too", 4},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, submission.WordCount(tt.in), "input %q", tt.in)
	}
}
