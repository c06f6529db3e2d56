package handlers_test

import (
	"net/http"
	"testing"

	"github.com/01moynul/agritech-golang/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSignupLoginAndGetUser(t *testing.T) {
	e := newEnv(t)

	w := e.do(http.MethodPost, "/signup", "", map[string]any{
		"email": "Ravi@Example.com", "password": testPassword,
		"first_name": "Ravi", "last_name": "Kumar", "category": "Farmer",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.Equal(t, "ravi@example.com", decode[map[string]any](t, w)["email"])

	w = e.do(http.MethodPost, "/login", "", map[string]any{
		"email": "ravi@example.com", "password": testPassword, "category": "Farmer",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	login := decode[map[string]any](t, w)
	assert.NotEmpty(t, login["token"])
	sessionID := login["session_id"].(string)
	require.NotEmpty(t, sessionID)

	w = e.do(http.MethodGet, "/user", sessionID, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "Ravi", decode[map[string]any](t, w)["first_name"])
}

func TestSignup_Rejections(t *testing.T) {
	e := newEnv(t)
	e.user(t, "taken@example.com", models.UserFarmer)

	tests := []struct {
		name string
		body map[string]any
		want string
	}{
		{"duplicate email", map[string]any{"email": "TAKEN@example.com", "password": testPassword, "first_name": "A", "last_name": "B", "category": "Buyer"}, "Email already registered"},
		{"bad category", map[string]any{"email": "new@example.com", "password": testPassword, "first_name": "A", "last_name": "B", "category": "Admin"}, "Invalid category"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := e.do(http.MethodPost, "/signup", "", tt.body)
			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Equal(t, tt.want, errorOf(t, w))
		})
	}

	w := e.do(http.MethodPost, "/signup", "", map[string]any{"email": "short@example.com", "password": "short"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestLogin_Failures(t *testing.T) {
	e := newEnv(t)
	e.user(t, "investor@example.com", models.UserInvestor)

	w := e.do(http.MethodPost, "/login", "", map[string]any{"email": "investor@example.com", "password": "wrong-password"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "Invalid email or password", errorOf(t, w))

	w = e.do(http.MethodPost, "/login", "", map[string]any{"email": "nobody@example.com", "password": testPassword})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = e.do(http.MethodPost, "/login", "", map[string]any{"email": "investor@example.com", "password": testPassword, "category": "Farmer"})
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, "You are not a Farmer", errorOf(t, w))
}

func TestLogout_EndsSession(t *testing.T) {
	e := newEnv(t)
	sid := e.login(t, e.user(t, "buyer@example.com", models.UserBuyer))

	w := e.do(http.MethodPost, "/logout", sid, nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = e.do(http.MethodGet, "/user", sid, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestPasswordReset_RevokesSessions(t *testing.T) {
	e := newEnv(t)
	u := e.user(t, "farmer@example.com", models.UserFarmer)
	oldSession := e.login(t, u)

	w := e.do(http.MethodPost, "/forgot-password", "", map[string]any{"email": "nobody@example.com"})
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = e.do(http.MethodPost, "/forgot-password", "", map[string]any{"email": "farmer@example.com"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	code := e.mail.lastCode(t)

	stored, err := e.mr.Get("otp:reset:farmer@example.com")
	require.NoError(t, err)
	assert.Contains(t, stored, code)

	// Verifying leaves the code usable.
	w = e.do(http.MethodPost, "/verify-code", "", map[string]any{"email": "farmer@example.com", "code": code})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = e.do(http.MethodPost, "/reset-password", "", map[string]any{
		"email": "farmer@example.com", "code": code, "new_password": "a-brand-new-secret",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = e.do(http.MethodGet, "/user", oldSession, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	// The code is single-use.
	w = e.do(http.MethodPost, "/reset-password", "", map[string]any{
		"email": "farmer@example.com", "code": code, "new_password": "another-secret",
	})
	assert.NotEqual(t, http.StatusOK, w.Code)

	w = e.do(http.MethodPost, "/login", "", map[string]any{"email": "farmer@example.com", "password": "a-brand-new-secret"})
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestVerifyCode_WrongCode(t *testing.T) {
	e := newEnv(t)
	e.user(t, "farmer@example.com", models.UserFarmer)

	w := e.do(http.MethodPost, "/forgot-password", "", map[string]any{"email": "farmer@example.com"})
	require.Equal(t, http.StatusOK, w.Code)
	code := e.mail.lastCode(t)
	wrong := "000000"
	if code == wrong {
		wrong = "111111"
	}

	w = e.do(http.MethodPost, "/verify-code", "", map[string]any{"email": "farmer@example.com", "code": wrong})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestOTPLogin(t *testing.T) {
	e := newEnv(t)
	e.user(t, "investor@example.com", models.UserInvestor)
	e.user(t, "farmer@example.com", models.UserFarmer)

	w := e.do(http.MethodPost, "/login-otp", "", map[string]any{"email": "farmer@example.com"})
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, "You are not an Investor", errorOf(t, w))

	w = e.do(http.MethodPost, "/login-otp", "", map[string]any{"email": "investor@example.com"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	otp := e.mail.lastCode(t)

	w = e.do(http.MethodPost, "/verify-otp", "", map[string]any{"email": "investor@example.com", "otp": otp})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	body := decode[map[string]any](t, w)
	assert.Equal(t, false, body["profile_complete"])
	sid := body["session_id"].(string)

	w = e.do(http.MethodPost, "/complete-profile", sid, map[string]any{
		"full_name": "Asha Rao", "location": "Pune", "email": "investor@example.com", "phone_number": "9876543210",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = e.do(http.MethodPost, "/complete-profile", sid, map[string]any{
		"full_name": "Asha Rao", "location": "Pune", "email": "someone@example.com",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Email does not match session", errorOf(t, w))
}

func TestProtectedRoute_NeedsSession(t *testing.T) {
	e := newEnv(t)

	w := e.do(http.MethodGet, "/user", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = e.do(http.MethodGet, "/user", "not-a-session", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = e.do(http.MethodGet, "/ping", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}
