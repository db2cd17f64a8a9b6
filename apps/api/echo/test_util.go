package echoapi

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"reflect"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/bmwamba/darasa/core"
	"github.com/bmwamba/darasa/core/attendance"
	"github.com/bmwamba/darasa/core/notification"
	"github.com/bmwamba/darasa/core/rubric"
	"github.com/bmwamba/darasa/core/submission"
	"github.com/bmwamba/darasa/core/user"
	"github.com/bmwamba/darasa/core/visit"
	emailsvc "github.com/bmwamba/darasa/services/email"
	logsvc "github.com/bmwamba/darasa/services/logger"
	dummydb "github.com/bmwamba/darasa/storage/database/dummy"
)

var (
	errMissingToken  = httpErr{Error: "user not authenticated"}
	errExpiredToken  = httpErr{Error: "token expired"}
	errInvalidToken  = httpErr{Error: "invalid token"}
	errForbidden     = httpErr{Error: "permission denied"}
	errNotFoundResp  = httpErr{Error: "not found"}
	errBadCreds      = httpErr{Error: "invalid credentials"}
	errInactiveResp  = httpErr{Error: "account deactivated"}
	testRegistration = "KARIBU-2026"
)

type httpErr struct {
	Error string `json:"error"`
}

type fieldErrs struct {
	Errors map[string]string `json:"errors"`
}

type httpTest struct {
	name     string
	method   string
	path     string
	body     []byte
	token    string
	wantCode int
	wantData []byte
	extra    interface{}
}

type testEnv struct {
	server Server
	conf   *core.Config

	usrSvc   *user.Service
	subSvc   *submission.Service
	attSvc   *attendance.Service
	notifSvc *notification.Service
	rubSvc   *rubric.Service
	visitSvc *visit.Service

	usrRepo   user.Repository
	subRepo   submission.Repository
	attRepo   attendance.Repository
	notifRepo notification.Repository
	visitRepo visit.Repository
}

func testConfig() *core.Config {
	return &core.Config{
		Env:              "TEST",
		TestMode:         true,
		AppName:          "Darasa",
		SecretKey:        "secret",
		RegistrationCode: testRegistration,
		DefaultFromEmail: "noreply@localhost",
		FrontendBaseURL:  "http://localhost:3000",

		PasswordResetTimeoutDelta: 3 * 24 * time.Hour,
		Server: core.ServerConfig{
			Host:                      "localhost",
			Port:                      "8000",
			JWTExpirationDelta:        10 * time.Minute,
			JWTRefreshExpirationDelta: 4 * time.Hour,
		},
	}
}

func setup(t *testing.T) *testEnv {
	t.Helper()

	db, err := dummydb.Open()
	if err != nil {
		t.Fatalf("setup() failed: %v", err)
	}
	conf := testConfig()
	logger := logsvc.NewStdLogger(log.New(io.Discard, "", 0))
	mailSvc := emailsvc.NewConsoleServiceMock(conf)
	emailsvc.ClearSentMessages()

	env := &testEnv{
		conf:      conf,
		usrRepo:   dummydb.NewUserRepository(db),
		subRepo:   dummydb.NewSubmissionRepository(db),
		attRepo:   dummydb.NewAttendanceRepository(db),
		notifRepo: dummydb.NewNotificationRepository(db),
		visitRepo: dummydb.NewVisitRepository(db),
	}
	env.usrSvc = user.NewService(env.usrRepo, mailSvc, logger, conf)
	env.notifSvc = notification.NewService(env.notifRepo)
	env.subSvc = submission.NewService(env.subRepo, env.notifSvc, logger)
	env.attSvc = attendance.NewService(env.attRepo, logger)
	env.rubSvc = rubric.NewService(dummydb.NewRubricRepository(db))
	env.visitSvc = visit.NewService(env.visitRepo, logger)

	env.server = NewServer(&Options{
		Conf:            conf,
		Logger:          logger,
		DisableReqLogs:  true,
		UserSvc:         env.usrSvc,
		SubmissionSvc:   env.subSvc,
		AttendanceSvc:   env.attSvc,
		NotificationSvc: env.notifSvc,
		RubricSvc:       env.rubSvc,
		VisitSvc:        env.visitSvc,
	})
	return env
}

func newAuthRequest(method, path, token string, data ...[]byte) (*http.Request, *httptest.ResponseRecorder) {
	var body bytes.Buffer
	if len(data) > 0 {
		body.Write(data[0])
	}
	req := httptest.NewRequest(method, path, &body)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	return req, rec
}

func newRequest(method, path string, data ...[]byte) (*http.Request, *httptest.ResponseRecorder) {
	return newAuthRequest(method, path, "", data...)
}

func createUser(t *testing.T, repo user.Repository, name, email, pwd, role string, isActive bool) user.User {
	t.Helper()

	now := time.Now().UTC()
	usr := user.User{
		Name:      name,
		Email:     email,
		Role:      role,
		IsActive:  isActive,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if pwd != "" {
		if err := usr.SetPassword(pwd); err != nil {
			t.Fatalf("createUser() failed: %v", err)
		}
	}
	usr, err := repo.CreateUser(context.Background(), usr)
	if err != nil {
		t.Fatalf("createUser() failed: %v", err)
	}
	return usr
}

func getToken(t *testing.T, usr user.User) string {
	t.Helper()

	token, err := GenerateToken(GetUserClaims(usr))
	if err != nil {
		t.Fatalf("getToken() failed: %v", err)
	}
	return token
}

func marchallObj(t *testing.T, obj interface{}) []byte {
	t.Helper()

	data, err := json.Marshal(obj)
	if err != nil {
		t.Fatalf("marchallObj() failed: %v", err)
	}
	return data
}

func jsonBytesEqual(t *testing.T, b1, b2 []byte) (bool, error) {
	var j1, j2 interface{}
	if err := json.Unmarshal(b1, &j1); err != nil {
		return false, err
	}
	if err := json.Unmarshal(b2, &j2); err != nil {
		return false, err
	}
	if reflect.DeepEqual(j1, j2) {
		return true, nil
	}
	return assert.ElementsMatch(t, j1, j2), nil
}

func checkCodeAndData(t *testing.T, tt httpTest, rec *httptest.ResponseRecorder) {
	t.Helper()

	if rec.Code != tt.wantCode {
		t.Errorf("failed! code = %v; wantCode %v", rec.Code, tt.wantCode)
	}
	if tt.wantData == nil {
		return
	}
	ok, err := jsonBytesEqual(t, rec.Body.Bytes(), tt.wantData)
	if err != nil {
		t.Errorf("jsonBytesEqual() failed to compare; err %v", err)
	}
	if !ok {
		t.Errorf("failed! data = %v; wantData %v", rec.Body.String(), string(tt.wantData))
	}
}
