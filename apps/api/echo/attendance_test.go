package echoapi

import (
	"encoding/json"
	"fmt"
	"net/http"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bmwamba/darasa/core/attendance"
	"github.com/bmwamba/darasa/core/user"
)

var codeRe = regexp.MustCompile(`^[0-9A-F]{8}$`)

func generateCode(t *testing.T, env *testEnv, token string) DailyCodeResponse {
	t.Helper()
	req, rec := newAuthRequest(http.MethodPost, "/api/attendance/generate", token)
	env.server.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp DailyCodeResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp
}

func Test_attendanceApi_generate(t *testing.T) {
	env := setup(t)

	admin := createUser(t, env.usrRepo, "Admin", "admin@test.cd", "passwd", user.RoleAdmin, true)
	student := createUser(t, env.usrRepo, "Aisha", "aisha@test.cd", "passwd", user.RoleStudent, true)

	// students cannot issue codes
	req, rec := newAuthRequest(http.MethodPost, "/api/attendance/generate", getToken(t, student))
	env.server.ServeHTTP(rec, req)
	require.Equal(t, http.StatusForbidden, rec.Code)

	token := getToken(t, admin)
	first := generateCode(t, env, token)
	assert.Regexp(t, codeRe, first.VerificationCode)
	assert.Equal(t, time.Now().UTC().Format(attendance.DateLayout), first.Date)
	assert.False(t, first.Reused)

	// same day, same code
	second := generateCode(t, env, token)
	assert.Equal(t, first.VerificationCode, second.VerificationCode)
	assert.Equal(t, first.Date, second.Date)
	assert.True(t, second.Reused)
}

func Test_attendanceApi_checkIn(t *testing.T) {
	env := setup(t)

	admin := createUser(t, env.usrRepo, "Admin", "admin@test.cd", "passwd", user.RoleAdmin, true)
	aisha := createUser(t, env.usrRepo, "Aisha", "aisha@test.cd", "passwd", user.RoleStudent, true)
	imani := createUser(t, env.usrRepo, "Imani", "imani@test.cd", "passwd", user.RoleStudent, true)

	code := generateCode(t, env, getToken(t, admin)).VerificationCode
	checkInBody := func(code string) []byte {
		return []byte(fmt.Sprintf(`{"verificationCode":%q}`, code))
	}

	tests := []httpTest{
		{name: "valid code", token: getToken(t, aisha), wantCode: http.StatusOK, body: checkInBody(code)},
		{
			name: "second check-in same day", token: getToken(t, aisha), wantCode: http.StatusBadRequest,
			body:     checkInBody(code),
			wantData: marchallObj(t, httpErr{Error: attendance.ErrAlreadyCheckedIn.Error()}),
		},
		// the same code keeps working for other students
		{name: "classmate same code", token: getToken(t, imani), wantCode: http.StatusOK, body: checkInBody(code)},
		{
			name: "unknown code", token: getToken(t, aisha), wantCode: http.StatusNotFound,
			body:     checkInBody("00000000"),
			wantData: marchallObj(t, httpErr{Error: attendance.ErrNotFound.Error()}),
		},
		{name: "missing code", token: getToken(t, aisha), wantCode: http.StatusBadRequest, body: []byte(`{}`)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(http.MethodPost, "/api/attendance/check-in", tt.token, tt.body)
			env.server.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)

			if tt.wantCode != http.StatusOK {
				return
			}
			var claimed attendance.Record
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &claimed))
			assert.Equal(t, code, claimed.Code)
			assert.True(t, claimed.IsClaimed())
			assert.True(t, claimed.VerifiedAt.Valid)
		})
	}
}

func Test_attendanceApi_checkIn_caseInsensitive(t *testing.T) {
	env := setup(t)

	admin := createUser(t, env.usrRepo, "Admin", "admin@test.cd", "passwd", user.RoleAdmin, true)
	aisha := createUser(t, env.usrRepo, "Aisha", "aisha@test.cd", "passwd", user.RoleStudent, true)

	code := generateCode(t, env, getToken(t, admin)).VerificationCode

	body := []byte(fmt.Sprintf(`{"verificationCode":"  %s  "}`, strings.ToLower(code)))
	req, rec := newAuthRequest(http.MethodPost, "/api/attendance/check-in", getToken(t, aisha), body)
	env.server.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func Test_attendanceApi_query(t *testing.T) {
	env := setup(t)

	admin := createUser(t, env.usrRepo, "Admin", "admin@test.cd", "passwd", user.RoleAdmin, true)
	aisha := createUser(t, env.usrRepo, "Aisha", "aisha@test.cd", "passwd", user.RoleStudent, true)
	imani := createUser(t, env.usrRepo, "Imani", "imani@test.cd", "passwd", user.RoleStudent, true)

	resp := generateCode(t, env, getToken(t, admin))
	for _, usr := range []user.User{aisha, imani} {
		body := []byte(fmt.Sprintf(`{"verificationCode":%q}`, resp.VerificationCode))
		req, rec := newAuthRequest(http.MethodPost, "/api/attendance/check-in", getToken(t, usr), body)
		env.server.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code)
	}

	// admin sees both claims for the day
	req, rec := newAuthRequest(http.MethodGet, "/api/attendance?date="+resp.Date, getToken(t, admin))
	env.server.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var records []attendance.Record
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &records))
	assert.Len(t, records, 2)

	// students cannot list the full register
	req, rec = newAuthRequest(http.MethodGet, "/api/attendance", getToken(t, aisha))
	env.server.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	// but see their own history
	req, rec = newAuthRequest(http.MethodGet, "/api/attendance/me", getToken(t, aisha))
	env.server.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &records))
	require.Len(t, records, 1)
	assert.Equal(t, aisha.ID, records[0].UserID.String)
}
