package handlers_test

import (
	"net/http"
	"strings"
	"testing"

	"github.com/01moynul/agritech-golang/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUpdateUser(t *testing.T) {
	e := newEnv(t)
	sid := e.login(t, e.user(t, "farmer@example.com", models.UserFarmer))
	other := e.user(t, "other@example.com", models.UserFarmer)
	mobile := "9000000001"
	other.Mobile = &mobile
	require.NoError(t, e.h.Users.Update(t.Context(), other))

	w := e.do(http.MethodPut, "/user", sid, map[string]any{
		"first_name": "Ravi", "last_name": "Kumar", "mobile": "9000000001",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Mobile number already in use", errorOf(t, w))

	w = e.do(http.MethodPut, "/user", sid, map[string]any{
		"first_name": "Ravi", "last_name": "Kumar", "mobile": "9000000002",
		"farm_size": "5 acres", "main_crops": "Onion",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = e.do(http.MethodGet, "/user", sid, nil)
	require.Equal(t, http.StatusOK, w.Code)
	body := decode[map[string]any](t, w)
	assert.Equal(t, "Ravi", body["first_name"])
	assert.Equal(t, "5 acres", body["farm_size"])
}

func TestProfilePhoto(t *testing.T) {
	e := newEnv(t)
	sid := e.login(t, e.user(t, "farmer@example.com", models.UserFarmer))

	w := e.do(http.MethodDelete, "/user/photo", sid, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "No profile photo found", errorOf(t, w))

	w = e.upload(t, "/user/photo", sid, []formFile{{field: "file", name: "me.png", data: pngBytes}}, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	url := decode[map[string]string](t, w)["photo_url"]
	require.True(t, strings.HasPrefix(url, "http://api.test/uploads/"), url)

	// The stored file is served from /uploads.
	w = e.do(http.MethodGet, strings.TrimPrefix(url, "http://api.test"), "", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = e.do(http.MethodGet, "/user", sid, nil)
	assert.Equal(t, url, decode[map[string]any](t, w)["photo_url"])

	w = e.do(http.MethodDelete, "/user/photo", sid, nil)
	require.Equal(t, http.StatusOK, w.Code)
	w = e.do(http.MethodGet, strings.TrimPrefix(url, "http://api.test"), "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}
