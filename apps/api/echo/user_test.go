package echoapi_test

import (
	"context"
	"net/http"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	. "github.com/trezcool/studyplanner/apps/api/echo"
	"github.com/trezcool/studyplanner/core"
	"github.com/trezcool/studyplanner/core/user"
	emailsvc "github.com/trezcool/studyplanner/services/email"
)

func Test_userApi_register(t *testing.T) {
	env := setup(t)
	createUser(t, env.userRepo, "Taken", "taken", "taken@test.cd", nil, true)

	rec := call(t, env, http.MethodPost, "/api/auth/register", "", map[string]interface{}{
		"name":             "Ada Lovelace",
		"username":         "ada",
		"email":            "ADA@test.cd",
		"password":         testPassword,
		"password_confirm": testPassword,
		"roles":            []string{user.RoleAdmin}, // ignored
	}, http.StatusCreated)
	var res RegisterResponse
	decode(t, rec, &res)
	assert.NotEmpty(t, res.Token)
	assert.Equal(t, "ada@test.cd", res.User.Email)
	assert.Equal(t, []string{user.RoleStudent}, res.User.Roles)

	// the returned token is usable right away
	rec = call(t, env, http.MethodGet, "/api/auth/me", res.Token, nil, http.StatusOK)
	var me user.User
	decode(t, rec, &me)
	assert.Equal(t, res.User.ID, me.ID)

	runHTTPTests(t, env, []httpTest{
		{
			name: "username taken", method: http.MethodPost, path: "/api/auth/register",
			body: marshallObj(t, map[string]string{
				"name": "Other", "username": "taken", "password": testPassword, "password_confirm": testPassword,
			}),
			wantCode: http.StatusBadRequest,
			wantData: marshallObj(t, map[string]string{"username": "a user with this username already exists"}),
		},
		{
			name: "passwords differ", method: http.MethodPost, path: "/api/auth/register",
			body: marshallObj(t, map[string]string{
				"name": "Other", "username": "other", "password": testPassword, "password_confirm": "nope",
			}),
			wantCode: http.StatusBadRequest,
		},
	})
}

func Test_userApi_login(t *testing.T) {
	env := setup(t)
	usr := createUser(t, env.userRepo, "User", "user", "user@test.cd", nil, true)
	createUser(t, env.userRepo, "Gone", "gone", "gone@test.cd", nil, false)

	login := func(uname, pwd string) []byte {
		return marshallObj(t, LoginRequest{Username: uname, Password: pwd})
	}
	authFailed := marshallObj(t, httpErr{Error: "authentication failed"})

	runHTTPTests(t, env, []httpTest{
		{name: "unknown user", method: http.MethodPost, path: "/api/auth/login", body: login("nobody", testPassword), wantCode: http.StatusBadRequest, wantData: authFailed},
		{name: "wrong password", method: http.MethodPost, path: "/api/auth/login", body: login("user", "wrong"), wantCode: http.StatusBadRequest, wantData: authFailed},
		{
			name: "missing fields", method: http.MethodPost, path: "/api/auth/login", body: login("", ""), wantCode: http.StatusBadRequest,
			wantData: marshallObj(t, map[string]string{"username": "this field is required", "password": "this field is required"}),
		},
		{
			name: "deactivated", method: http.MethodPost, path: "/api/auth/login", body: login("gone", testPassword), wantCode: http.StatusForbidden,
			wantData: marshallObj(t, httpErr{Error: "account deactivated"}),
		},
	})

	// by username or email, case-insensitive
	for _, uname := range []string{"user", "USER@test.cd"} {
		rec := call(t, env, http.MethodPost, "/api/auth/login", "", LoginRequest{Username: uname, Password: testPassword}, http.StatusOK)
		var res LoginResponse
		decode(t, rec, &res)
		assert.NotEmpty(t, res.Token)
	}

	stored, err := env.userRepo.GetUser(context.Background(), user.GetFilter{ID: usr.ID})
	require.NoError(t, err)
	assert.False(t, stored.LastLogin.IsZero())
}

func Test_userApi_loginRateLimit(t *testing.T) {
	env := setup(t, func(conf *core.Config) { conf.LoginRateLimit = 2 })
	createUser(t, env.userRepo, "User", "user", "user@test.cd", nil, true)

	body := LoginRequest{Username: "user", Password: "wrong"}
	call(t, env, http.MethodPost, "/api/auth/login", "", body, http.StatusBadRequest)
	call(t, env, http.MethodPost, "/api/auth/login", "", body, http.StatusBadRequest)
	rec := call(t, env, http.MethodPost, "/api/auth/login", "", body, http.StatusTooManyRequests)
	assert.NotEmpty(t, rec.Header().Get("Retry-After"))

	// even the right password is throttled
	call(t, env, http.MethodPost, "/api/auth/login", "", LoginRequest{Username: "user", Password: testPassword}, http.StatusTooManyRequests)
}

func Test_userApi_me(t *testing.T) {
	env := setup(t)
	usr := createUser(t, env.userRepo, "User", "user", "user@test.cd", nil, true)
	gone := createUser(t, env.userRepo, "Gone", "gone", "gone@test.cd", nil, false)
	deleted := createUser(t, env.userRepo, "Deleted", "deleted", "deleted@test.cd", nil, true)
	deletedToken := getToken(t, env, deleted)
	require.NoError(t, env.userRepo.DeleteUsersByID(context.Background(), deleted.ID))

	runHTTPTests(t, env, []httpTest{
		{name: "Auth required", path: "/api/auth/me", wantCode: http.StatusUnauthorized, wantData: marshallObj(t, errMissingToken)},
		{name: "bad token", path: "/api/auth/me", token: "not-a-jwt", wantCode: http.StatusUnauthorized},
		{name: "deleted user", path: "/api/auth/me", token: deletedToken, wantCode: http.StatusUnauthorized},
		{name: "deactivated", path: "/api/auth/me", token: getToken(t, env, gone), wantCode: http.StatusForbidden},
		{name: "ok", path: "/api/auth/me", token: getToken(t, env, usr), wantCode: http.StatusOK, wantData: marshallObj(t, usr)},
	})
}

func Test_userApi_tokenRefresh(t *testing.T) {
	env := setup(t)
	usr := createUser(t, env.userRepo, "User", "user", "user@test.cd", nil, true)

	auth := env.app.Auth()
	expired := auth.UserClaims(usr, 1) // original login in 1970
	oldToken, err := auth.GenerateToken(expired)
	require.NoError(t, err)

	runHTTPTests(t, env, []httpTest{
		{name: "Auth required", method: http.MethodPost, path: "/api/auth/token-refresh", wantCode: http.StatusUnauthorized},
		{
			name: "refresh expired", method: http.MethodPost, path: "/api/auth/token-refresh", token: oldToken,
			wantCode: http.StatusForbidden, wantData: marshallObj(t, httpErr{Error: "refresh has expired"}),
		},
	})

	rec := call(t, env, http.MethodPost, "/api/auth/token-refresh", getToken(t, env, usr), nil, http.StatusOK)
	var res LoginResponse
	decode(t, rec, &res)
	assert.NotEmpty(t, res.Token)
}

func Test_userApi_passwordReset(t *testing.T) {
	env := setup(t)
	usr := createUser(t, env.userRepo, "User", "user", "user@test.cd", nil, true)

	// unknown emails look the same to the caller
	rec := call(t, env, http.MethodPost, "/api/auth/password-reset", "", PasswordResetRequest{Email: "nobody@test.cd"}, http.StatusOK)
	assert.Contains(t, rec.Body.String(), "success")
	assert.Empty(t, emailsvc.SentMessages())

	call(t, env, http.MethodPost, "/api/auth/password-reset", "", PasswordResetRequest{Email: "USER@test.cd"}, http.StatusOK)
	sent := emailsvc.SentMessages()
	require.Len(t, sent, 1)
	assert.Equal(t, usr.Email, sent[0].To[0].Address)
	data, ok := sent[0].TemplateData.(map[string]string)
	require.True(t, ok)

	newPwd := "Bl4ck-Widow&99"
	call(t, env, http.MethodPost, "/api/auth/password-reset-confirm", "", user.ResetUserPassword{
		Token: "bad-token", UID: data["UID"], Password: newPwd, PasswordConfirm: newPwd,
	}, http.StatusBadRequest)
	call(t, env, http.MethodPost, "/api/auth/password-reset-confirm", "", user.ResetUserPassword{
		Token: data["Token"], UID: data["UID"], Password: newPwd, PasswordConfirm: newPwd,
	}, http.StatusOK)

	call(t, env, http.MethodPost, "/api/auth/login", "", LoginRequest{Username: "user", Password: testPassword}, http.StatusBadRequest)
	call(t, env, http.MethodPost, "/api/auth/login", "", LoginRequest{Username: "user", Password: newPwd}, http.StatusOK)
}

func Test_userApi_adminRoutes(t *testing.T) {
	env := setup(t)
	student := createUser(t, env.userRepo, "Student", "student", "student@test.cd", []string{user.RoleStudent}, true)
	advisor := createUser(t, env.userRepo, "Advisor", "advisor", "advisor@test.cd", []string{user.RoleAdvisor}, true)
	admin := createUser(t, env.userRepo, "Admin", "admin", "admin@test.cd", []string{user.RoleAdmin}, true)
	adminToken := getToken(t, env, admin)

	query := func(v url.Values) string { return "/api/users?" + v.Encode() }

	runHTTPTests(t, env, []httpTest{
		{name: "Auth required", path: "/api/users", wantCode: http.StatusUnauthorized, wantData: marshallObj(t, errMissingToken)},
		{
			name: "Admin required (student)", path: "/api/users", token: getToken(t, env, student), wantCode: http.StatusForbidden,
			wantData: marshallObj(t, httpErr{Error: "permission denied"}),
		},
		{name: "Admin required (advisor)", path: "/api/users", token: getToken(t, env, advisor), wantCode: http.StatusForbidden},
		{name: "Get all", path: "/api/users", token: adminToken, wantCode: http.StatusOK, wantData: marshallList(t, student, advisor, admin)},
		{
			name: "role=academic_advisor", path: query(url.Values{"role": {user.RoleAdvisor}}), token: adminToken,
			wantCode: http.StatusOK, wantData: marshallList(t, advisor),
		},
		{
			name: "ordering=-username", path: query(url.Values{"ordering": {"-username"}}), token: adminToken,
			wantCode: http.StatusOK, wantData: marshallList(t, student, advisor, admin),
		},
		{name: "is_active=false", path: query(url.Values{"is_active": {"false"}}), token: adminToken, wantCode: http.StatusOK, wantData: marshallList(t)},
		{name: "is_active=lol", path: query(url.Values{"is_active": {"lol"}}), token: adminToken, wantCode: http.StatusBadRequest},
		{name: "roles", path: "/api/users/roles", token: adminToken, wantCode: http.StatusOK, wantData: marshallObj(t, user.Roles)},
		{name: "retrieve", path: "/api/users/" + student.ID, token: adminToken, wantCode: http.StatusOK, wantData: marshallObj(t, student)},
		{name: "retrieve unknown", path: "/api/users/unknown", token: adminToken, wantCode: http.StatusNotFound},
		{name: "delete self", method: http.MethodDelete, path: "/api/users/" + admin.ID, token: adminToken, wantCode: http.StatusForbidden},
		{
			name: "deactivate self", method: http.MethodPut, path: "/api/users/" + admin.ID, token: adminToken,
			body: []byte(`{"is_active": false}`), wantCode: http.StatusForbidden,
		},
	})

	// admin creates an advisor
	pwd := "Wh1te-Rabbit*77"
	rec := call(t, env, http.MethodPost, "/api/users", adminToken, map[string]interface{}{
		"name": "New Advisor", "email": "new@test.cd", "password": pwd, "password_confirm": pwd, "roles": []string{user.RoleAdvisor},
	}, http.StatusCreated)
	var created user.User
	decode(t, rec, &created)
	assert.Equal(t, []string{user.RoleAdvisor}, created.Roles)

	// and deactivates the student
	rec = call(t, env, http.MethodPut, "/api/users/"+student.ID, adminToken, map[string]interface{}{"is_active": false}, http.StatusOK)
	var updated user.User
	decode(t, rec, &updated)
	assert.False(t, updated.IsActive)
	call(t, env, http.MethodGet, "/api/auth/me", getToken(t, env, student), nil, http.StatusForbidden)

	call(t, env, http.MethodDelete, "/api/users/"+student.ID, adminToken, nil, http.StatusNoContent)
	call(t, env, http.MethodGet, "/api/users/"+student.ID, adminToken, nil, http.StatusNotFound)
}
