package gateway

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func findCookie(t *testing.T, w *httptest.ResponseRecorder, name string) *http.Cookie {
	t.Helper()
	for _, ck := range w.Result().Cookies() {
		if ck.Name == name {
			return ck
		}
	}
	t.Fatalf("cookie %q not set", name)
	return nil
}

func TestPasswordLoginSetsSessionCookie(t *testing.T) {
	var upstreamBody map[string]string
	_, router := newTestServer(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/auth/login", r.URL.Path)
		data, _ := io.ReadAll(r.Body)
		require.NoError(t, json.Unmarshal(data, &upstreamBody))
		w.Write([]byte(`{"token": "jwt-abc"}`))
	}))

	req := httptest.NewRequest(http.MethodPost, "/auth/password-login",
		strings.NewReader(`{"identifier": "alice@example.com", "password": "hunter2"}`))
	req.Header.Set("Content-Type", "application/json")
	w := doRequest(router, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"success": true, "message": "logged in"}`, w.Body.String())

	// The identifier is forwarded as the upstream's email field.
	assert.Equal(t, "alice@example.com", upstreamBody["email"])
	assert.Equal(t, "hunter2", upstreamBody["password"])

	ck := findCookie(t, w, SessionCookieName)
	assert.Equal(t, "jwt-abc", ck.Value)
	assert.Equal(t, "/", ck.Path)
	assert.Equal(t, 7*24*3600, ck.MaxAge)
	assert.True(t, ck.HttpOnly)
	assert.False(t, ck.Secure) // development config
	assert.Equal(t, http.SameSiteLaxMode, ck.SameSite)
}

func TestPasswordLoginValidation(t *testing.T) {
	_, router := newTestServer(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("upstream must not be called")
	}))

	for _, body := range []string{
		`{"identifier": "", "password": "x"}`,
		`{"identifier": "alice", "password": ""}`,
		`not json`,
	} {
		req := httptest.NewRequest(http.MethodPost, "/auth/password-login", strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		w := doRequest(router, req)
		assert.Equal(t, http.StatusBadRequest, w.Code, "body %s", body)
	}
}

func TestPasswordLoginRelaysRejection(t *testing.T) {
	_, router := newTestServer(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"error": "invalid credentials"}`))
	}))

	req := httptest.NewRequest(http.MethodPost, "/auth/password-login",
		strings.NewReader(`{"identifier": "alice", "password": "wrong"}`))
	req.Header.Set("Content-Type", "application/json")
	w := doRequest(router, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.JSONEq(t, `{"error": "invalid credentials"}`, w.Body.String())

	// No cookie on a failed login.
	for _, ck := range w.Result().Cookies() {
		assert.NotEqual(t, SessionCookieName, ck.Name)
	}
}

func TestLogoutClearsCookie(t *testing.T) {
	var sawBearer string
	_, router := newTestServer(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/auth/logout", r.URL.Path)
		sawBearer = r.Header.Get("Authorization")
		w.Write([]byte(`{"message": "logged out"}`))
	}))

	req := withSession(httptest.NewRequest(http.MethodPost, "/auth/logout", nil), "jwt-abc")
	w := doRequest(router, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Bearer jwt-abc", sawBearer)

	ck := findCookie(t, w, SessionCookieName)
	assert.Empty(t, ck.Value)
	assert.Negative(t, ck.MaxAge)
}

func TestLogoutWithoutSessionStillSucceeds(t *testing.T) {
	_, router := newTestServer(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("upstream must not be called without a session")
	}))

	w := doRequest(router, httptest.NewRequest(http.MethodPost, "/auth/logout", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestUserRoutesRequireSession(t *testing.T) {
	_, router := newTestServer(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("upstream must not be called without a session")
	}))

	for _, route := range []struct {
		method string
		path   string
	}{
		{http.MethodGet, "/user/me"},
		{http.MethodGet, "/user/me/countries"},
		{http.MethodDelete, "/user/me/parks/yose"},
		{http.MethodPost, "/user/me/stadiums/101"},
	} {
		w := doRequest(router, httptest.NewRequest(route.method, route.path, nil))
		assert.Equal(t, http.StatusUnauthorized, w.Code, "%s %s", route.method, route.path)
		assert.JSONEq(t, `{"error": "not authenticated"}`, w.Body.String())
	}
}
