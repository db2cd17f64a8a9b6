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

	"github.com/bmwamba/darasa/core/user"
	emailsvc "github.com/bmwamba/darasa/services/email"
)

func Test_accountApi_register(t *testing.T) {
	env := setup(t)

	createUser(t, env.usrRepo, "Taken", "taken@test.cd", "passwd", user.RoleStudent, true)

	regBody := func(name, email, pwd, code string) []byte {
		return []byte(fmt.Sprintf(
			`{"name":%q,"email":%q,"password":%q,"level":"beginner","registrationCode":%q}`,
			name, email, pwd, code,
		))
	}

	tests := []httpTest{
		{
			name: "valid registration", wantCode: http.StatusCreated,
			body: regBody("Aisha", "aisha@test.cd", "passwd", testRegistration),
		},
		{
			name: "duplicate email", wantCode: http.StatusBadRequest,
			body:     regBody("Taken Again", "taken@test.cd", "passwd", testRegistration),
			wantData: marchallObj(t, fieldErrs{Errors: map[string]string{"email": "a user with this email already exists"}}),
		},
		{
			name: "bad registration code", wantCode: http.StatusBadRequest,
			body:     regBody("Aisha", "aisha2@test.cd", "passwd", "NOPE"),
			wantData: marchallObj(t, fieldErrs{Errors: map[string]string{"registrationCode": "invalid registration code"}}),
		},
		{
			name: "password too short", wantCode: http.StatusBadRequest,
			body: regBody("Aisha", "aisha3@test.cd", "pw", testRegistration),
		},
		{
			name: "missing fields", wantCode: http.StatusBadRequest,
			body: []byte(fmt.Sprintf(`{"registrationCode":%q}`, testRegistration)),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newRequest(http.MethodPost, "/api/auth/register", tt.body)
			env.server.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)

			if tt.wantCode == http.StatusCreated {
				var resp AuthResponse
				require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
				assert.Equal(t, user.RoleStudent, resp.User.Role)
				assert.True(t, resp.User.IsActive)
				assert.NotEmpty(t, resp.Token)

				// welcome email went out
				require.Len(t, emailsvc.SentMessages, 1)
				assert.Equal(t, "Welcome to Darasa", emailsvc.SentMessages[0].Subject)
			}
		})
	}
}

func Test_accountApi_login(t *testing.T) {
	env := setup(t)

	createUser(t, env.usrRepo, "Aisha", "aisha@test.cd", "passwd", user.RoleStudent, true)
	createUser(t, env.usrRepo, "Gone", "gone@test.cd", "passwd", user.RoleStudent, false)

	tests := []httpTest{
		{
			name: "valid credentials", wantCode: http.StatusOK,
			body: []byte(`{"email":"aisha@test.cd","password":"passwd"}`),
		},
		{
			name: "wrong password", wantCode: http.StatusUnauthorized,
			body:     []byte(`{"email":"aisha@test.cd","password":"nope"}`),
			wantData: marchallObj(t, errBadCreds),
		},
		{
			name: "unknown email", wantCode: http.StatusUnauthorized,
			body:     []byte(`{"email":"who@test.cd","password":"passwd"}`),
			wantData: marchallObj(t, errBadCreds),
		},
		{
			name: "deactivated account", wantCode: http.StatusForbidden,
			body:     []byte(`{"email":"gone@test.cd","password":"passwd"}`),
			wantData: marchallObj(t, errInactiveResp),
		},
		{
			name: "missing fields", wantCode: http.StatusBadRequest,
			body: []byte(`{}`),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newRequest(http.MethodPost, "/api/auth/login", tt.body)
			env.server.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)

			if tt.wantCode == http.StatusOK {
				var resp AuthResponse
				require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
				assert.Equal(t, "aisha@test.cd", resp.User.Email)
				assert.NotEmpty(t, resp.Token)
				assert.False(t, resp.User.LastLogin.IsZero())
			}
		})
	}
}

// register -> login -> me
func Test_accountApi_scenario(t *testing.T) {
	env := setup(t)

	body := []byte(fmt.Sprintf(
		`{"name":"Imani","email":"imani@test.cd","password":"passwd","registrationCode":%q}`, testRegistration))
	req, rec := newRequest(http.MethodPost, "/api/auth/register", body)
	env.server.ServeHTTP(rec, req)
	require.Equal(t, http.StatusCreated, rec.Code)

	req, rec = newRequest(http.MethodPost, "/api/auth/login", []byte(`{"email":"imani@test.cd","password":"passwd"}`))
	env.server.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	var login AuthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &login))

	req, rec = newAuthRequest(http.MethodGet, "/api/auth/me", login.Token)
	env.server.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var me AccountResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &me))
	assert.Equal(t, user.RoleStudent, me.User.Role)
	assert.Equal(t, "imani@test.cd", me.User.Email)
	assert.Equal(t, 0, me.SubmissionsCount)
	assert.Equal(t, 0, me.UnreadNotificationsCount)
}

func Test_accountApi_me_tokens(t *testing.T) {
	env := setup(t)

	usr := createUser(t, env.usrRepo, "Aisha", "aisha@test.cd", "passwd", user.RoleStudent, true)
	inactive := createUser(t, env.usrRepo, "Gone", "gone@test.cd", "passwd", user.RoleStudent, false)

	expiredClaims := GetUserClaims(usr)
	expiredClaims.ExpiresAt = time.Now().Add(-time.Minute).Unix()
	expiredToken, err := GenerateToken(expiredClaims)
	require.NoError(t, err)

	ghost := createUser(t, env.usrRepo, "Ghost", "ghost@test.cd", "passwd", user.RoleStudent, true)
	ghostToken := getToken(t, ghost)
	require.NoError(t, env.usrRepo.DeleteUsersByID(context.Background(), ghost.ID))

	tests := []httpTest{
		{name: "valid token", token: getToken(t, usr), wantCode: http.StatusOK},
		{name: "missing token", wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)},
		{name: "expired token", token: expiredToken, wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errExpiredToken)},
		{name: "garbage token", token: "not.a.jwt", wantCode: http.StatusForbidden, wantData: marchallObj(t, errInvalidToken)},
		{name: "deleted user token", token: ghostToken, wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)},
		{name: "deactivated user token", token: getToken(t, inactive), wantCode: http.StatusForbidden, wantData: marchallObj(t, errInactiveResp)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(http.MethodGet, "/api/auth/me", tt.token)
			env.server.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}
}

func Test_accountApi_updateMe(t *testing.T) {
	env := setup(t)

	usr := createUser(t, env.usrRepo, "Aisha", "aisha@test.cd", "passwd", user.RoleStudent, true)
	token := getToken(t, usr)

	tests := []httpTest{
		{name: "update name", token: token, wantCode: http.StatusOK, body: []byte(`{"name":"Aisha M."}`)},
		{name: "set role refused", token: token, wantCode: http.StatusForbidden,
			body: []byte(`{"role":"admin"}`), wantData: marchallObj(t, errForbidden)},
		{name: "set is_active refused", token: token, wantCode: http.StatusForbidden,
			body: []byte(`{"is_active":false}`), wantData: marchallObj(t, errForbidden)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(http.MethodPut, "/api/auth/me", tt.token, tt.body)
			env.server.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}

	refreshed, err := env.usrSvc.GetByID(context.Background(), usr.ID)
	require.NoError(t, err)
	assert.Equal(t, "Aisha M.", refreshed.Name)
	assert.Equal(t, user.RoleStudent, refreshed.Role)
}

func Test_accountApi_changePassword(t *testing.T) {
	env := setup(t)

	usr := createUser(t, env.usrRepo, "Aisha", "aisha@test.cd", "passwd", user.RoleStudent, true)
	token := getToken(t, usr)

	tests := []httpTest{
		{
			name: "wrong old password", token: token, wantCode: http.StatusBadRequest,
			body:     []byte(`{"old_password":"nope","password":"newpasswd","password_confirm":"newpasswd"}`),
			wantData: marchallObj(t, fieldErrs{Errors: map[string]string{"old_password": "wrong password"}}),
		},
		{
			name: "mismatched confirmation", token: token, wantCode: http.StatusBadRequest,
			body: []byte(`{"old_password":"passwd","password":"newpasswd","password_confirm":"other"}`),
		},
		{
			name: "valid change", token: token, wantCode: http.StatusOK,
			body: []byte(`{"old_password":"passwd","password":"newpasswd","password_confirm":"newpasswd"}`),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(http.MethodPut, "/api/auth/password", tt.token, tt.body)
			env.server.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}

	// the new password now works
	req, rec := newRequest(http.MethodPost, "/api/auth/login", []byte(`{"email":"aisha@test.cd","password":"newpasswd"}`))
	env.server.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func Test_accountApi_passwordReset(t *testing.T) {
	env := setup(t)

	createUser(t, env.usrRepo, "Aisha", "aisha@test.cd", "passwd", user.RoleStudent, true)

	// the response does not leak whether the account exists
	for _, email := range []string{"aisha@test.cd", "who@test.cd"} {
		req, rec := newRequest(http.MethodPost, "/api/auth/password-reset", []byte(fmt.Sprintf(`{"email":%q}`, email)))
		env.server.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code)
	}
	require.Len(t, emailsvc.SentMessages, 1)

	data, ok := emailsvc.SentMessages[0].TemplateData.(struct {
		Name  string
		UID   string
		Token string
	})
	require.True(t, ok, "unexpected template data type")

	// bad token is rejected
	body := []byte(fmt.Sprintf(
		`{"uid":%q,"token":"bad-token","password":"resetpasswd","password_confirm":"resetpasswd"}`, data.UID))
	req, rec := newRequest(http.MethodPost, "/api/auth/password-reset-confirm", body)
	env.server.ServeHTTP(rec, req)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	// the mailed token resets the password
	body = []byte(fmt.Sprintf(
		`{"uid":%q,"token":%q,"password":"resetpasswd","password_confirm":"resetpasswd"}`, data.UID, data.Token))
	req, rec = newRequest(http.MethodPost, "/api/auth/password-reset-confirm", body)
	env.server.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	req, rec = newRequest(http.MethodPost, "/api/auth/login", []byte(`{"email":"aisha@test.cd","password":"resetpasswd"}`))
	env.server.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func Test_accountApi_googleLogin(t *testing.T) {
	env := setup(t)

	// token verification needs Google's certs; only local failures are
	// exercised here
	tests := []httpTest{
		{name: "missing id_token", wantCode: http.StatusBadRequest, body: []byte(`{}`)},
		{name: "garbage id_token", wantCode: http.StatusForbidden,
			body: []byte(`{"id_token":"not-a-google-token"}`), wantData: marchallObj(t, errInvalidToken)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newRequest(http.MethodPost, "/api/auth/google", tt.body)
			env.server.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}
}

func Test_accountApi_refreshToken(t *testing.T) {
	env := setup(t)

	usr := createUser(t, env.usrRepo, "Aisha", "aisha@test.cd", "passwd", user.RoleStudent, true)

	req, rec := newAuthRequest(http.MethodPost, "/api/auth/token-refresh", getToken(t, usr))
	env.server.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp TokenResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp.Token)

	// stale refresh window is refused
	staleClaims := GetUserClaims(usr)
	staleClaims.OrigIssuedAt = time.Now().Add(-5 * time.Hour).Unix()
	staleToken, err := GenerateToken(staleClaims)
	require.NoError(t, err)

	req, rec = newAuthRequest(http.MethodPost, "/api/auth/token-refresh", staleToken)
	env.server.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}
