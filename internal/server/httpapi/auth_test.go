package httpapi

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/minangbatik/batikhub/internal/common"
	"github.com/minangbatik/batikhub/internal/server/models"
	"github.com/minangbatik/batikhub/internal/server/services"
)

func TestBearerToken(t *testing.T) {
	tests := []struct {
		header string
		want   string
	}{
		{"Bearer abc", "abc"},
		{"bearer abc", "abc"},
		{"  Bearer   abc  ", "abc"},
		{"Basic abc", ""},
		{"Bearer", ""},
		{"", ""},
		{"abc", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, bearerToken(tt.header), "header %q", tt.header)
	}
}

func TestRequireAuth(t *testing.T) {
	t.Run("missing header", func(t *testing.T) {
		ts := newTestServer(t)
		rec := ts.do(httptest.NewRequest(http.MethodGet, "/user", nil))

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Equal(t, "Unauthenticated.", decodeBody(t, rec)["message"])
	})

	t.Run("invalid token", func(t *testing.T) {
		ts := newTestServer(t)
		rec := ts.do(withToken(httptest.NewRequest(http.MethodGet, "/histories", nil), "forged"))

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Zero(t, ts.batiks.calls)
	})

	t.Run("valid token reaches handler with caller", func(t *testing.T) {
		ts := newTestServer(t)
		rec := ts.do(withToken(httptest.NewRequest(http.MethodGet, "/user", nil), validToken))

		require.Equal(t, http.StatusOK, rec.Code)
		body := decodeBody(t, rec)
		assert.Equal(t, float64(testCaller.UserID), body["id"])
		assert.Equal(t, testCaller.Email, body["email"])
	})
}

func TestRegister(t *testing.T) {
	ts := newTestServer(t)
	expires := time.Unix(1700086400, 0).UTC()
	ts.users.registerRes = &services.AuthResult{
		AccessToken: "jwt",
		TokenType:   "Bearer",
		ExpiresAt:   expires,
		User:        &models.User{ID: 3, Name: "Rina", Email: "rina@example.com"},
	}

	rec := ts.do(newJSONRequest(t, http.MethodPost, "/register", map[string]string{
		"name":                  "Rina",
		"email":                 "rina@example.com",
		"password":              "secret-pass",
		"password_confirmation": "secret-pass",
	}))

	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, services.RegisterInput{
		Name:                 "Rina",
		Email:                "rina@example.com",
		Password:             "secret-pass",
		PasswordConfirmation: "secret-pass",
	}, ts.users.registerIn)

	body := decodeBody(t, rec)
	assert.Equal(t, "jwt", body["access_token"])
	assert.Equal(t, "Bearer", body["token_type"])
	assert.Equal(t, "rina@example.com", body["user"].(map[string]any)["email"])
}

func TestRegister_ValidationError(t *testing.T) {
	ts := newTestServer(t)
	v := common.NewValidationError()
	v.Add("email", "The email has already been taken.")
	ts.users.registerErr = v

	rec := ts.do(newJSONRequest(t, http.MethodPost, "/register", map[string]string{"email": "taken@example.com"}))

	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	errs := decodeBody(t, rec)["errors"].(map[string]any)
	assert.Equal(t, []any{"The email has already been taken."}, errs["email"])
}

func TestLogin_Form(t *testing.T) {
	ts := newTestServer(t)
	ts.users.loginRes = &services.AuthResult{AccessToken: "jwt", TokenType: "Bearer", User: &models.User{ID: 3}}

	form := url.Values{"email": {"rina@example.com"}, "password": {"secret-pass"}}
	req := httptest.NewRequest(http.MethodPost, "/login", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := ts.do(req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, services.LoginInput{Email: "rina@example.com", Password: "secret-pass"}, ts.users.loginIn)
	assert.Equal(t, "Login successful", decodeBody(t, rec)["message"])
}

func TestLogin_Unauthorized(t *testing.T) {
	ts := newTestServer(t)
	ts.users.loginErr = common.ErrorUnauthorized

	rec := ts.do(newJSONRequest(t, http.MethodPost, "/login", map[string]string{"email": "a@b.c", "password": "nope"}))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestLogin_MalformedJSON(t *testing.T) {
	ts := newTestServer(t)
	req := httptest.NewRequest(http.MethodPost, "/login", strings.NewReader("{"))
	req.Header.Set("Content-Type", "application/json")

	rec := ts.do(req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestLogout(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(withToken(httptest.NewRequest(http.MethodPost, "/logout", nil), validToken))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Same(t, testCaller, ts.users.loggedOut)
	assert.Equal(t, "Logged out successfully", decodeBody(t, rec)["message"])
}
