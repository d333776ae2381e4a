package user

import (
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/studyplanner/core"
)

func newTestValidator() *validator.Validate {
	validate := validator.New()
	translator := core.NewTranslator()
	core.InitValidators(validate, translator)
	InitValidators(validate, translator)
	return validate
}

func TestPasswordPolicy(t *testing.T) {
	commonPasswordsOnce.Do(loadCommonPasswords)

	tests := []struct {
		name    string
		pwd     string
		attrs   []string
		wantTag string
	}{
		{name: "too short", pwd: "Ab1!", wantTag: pwdMinLenTag},
		{name: "whitespace", pwd: "Abc 123!xyz", wantTag: pwdNoSpaceTag},
		{name: "all numeric", pwd: "1234567890", wantTag: pwdNotAllNumTag},
		{name: "no special", pwd: "Abcdefg123", wantTag: pwdComplexityTag},
		{name: "no upper", pwd: "abcdefg123!", wantTag: pwdComplexityTag},
		{name: "similar to username", pwd: "Johndoe12!", attrs: []string{"John Doe", "johndoe12"}, wantTag: pwdAttrSimTag},
		{name: "common", pwd: "Password123!", wantTag: pwdNoCommonTag},
		{name: "valid", pwd: "Gr33n-Lantern#42", attrs: []string{"John Doe", "johndoe"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.wantTag, passwordPolicyViolation(tt.pwd, tt.attrs...))
		})
	}
}

func TestNewUserValidation(t *testing.T) {
	validate := newTestValidator()

	tests := []struct {
		name       string
		nu         NewUser
		wantFields []string
	}{
		{
			name:       "missing username and email",
			nu:         NewUser{Name: "Jane", Password: "Gr33n-Lantern#42", PasswordConfirm: "Gr33n-Lantern#42"},
			wantFields: []string{"username", "email"},
		},
		{
			name:       "password mismatch",
			nu:         NewUser{Name: "Jane", Email: "jane@test.test", Password: "Gr33n-Lantern#42", PasswordConfirm: "nope"},
			wantFields: []string{"password_confirm"},
		},
		{
			name:       "invalid role",
			nu:         NewUser{Name: "Jane", Email: "jane@test.test", Password: "Gr33n-Lantern#42", PasswordConfirm: "Gr33n-Lantern#42", Roles: []string{"dean"}},
			wantFields: []string{"roles"},
		},
		{
			name:       "weak password",
			nu:         NewUser{Name: "Jane", Email: "jane@test.test", Password: "weak", PasswordConfirm: "weak"},
			wantFields: []string{"password"},
		},
		{
			name: "valid",
			nu:   NewUser{Name: "Jane", Email: "jane@test.test", Password: "Gr33n-Lantern#42", PasswordConfirm: "Gr33n-Lantern#42", Roles: []string{RoleStudent}},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validate.Struct(tt.nu)
			if tt.wantFields == nil {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			var fields []string
			for _, fe := range err.(validator.ValidationErrors) {
				fields = append(fields, fe.Field())
			}
			assert.ElementsMatch(t, tt.wantFields, fields)
		})
	}
}

func TestUserRoles(t *testing.T) {
	admin := User{Roles: []string{RoleAdmin}}
	advisor := User{Roles: []string{RoleAdvisor}}
	student := User{Roles: []string{RoleStudent}}

	assert.True(t, admin.IsAdmin())
	assert.True(t, admin.IsAdvisor())
	assert.False(t, advisor.IsAdmin())
	assert.True(t, advisor.IsAdvisor())
	assert.False(t, student.IsAdvisor())
	assert.True(t, student.HasRole(AllRoles...))

	assert.Equal(t, 30, MaxRolePriority([]string{RoleStudent, RoleAdmin}))
	assert.Equal(t, 0, MaxRolePriority(nil))
}
