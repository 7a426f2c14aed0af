package visits

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trailmark/internal/auth"
)

func newTestRouter(t *testing.T) (*Repo, *gin.Engine) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	repo := newTestRepo(t)
	h := NewHandler(repo, nil)

	router := gin.New()
	group := router.Group("/users/me")
	group.Use(func(c *gin.Context) {
		c.Set(auth.CtxClaimsKey, &auth.Claims{UserID: "u1", Username: "alice"})
	})
	h.RegisterRoutes(group)
	return repo, router
}

func jsonRequest(method, path, body string) *http.Request {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func serve(router *gin.Engine, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

// The bodies below are exactly what the gateway forwards: snake_case keys,
// absent fields omitted.
func TestPatchCountryAcceptsForwardedBody(t *testing.T) {
	repo, router := newTestRouter(t)
	ctx := context.Background()

	t.Run("date-only patch creates the relation", func(t *testing.T) {
		w := serve(router, jsonRequest(http.MethodPatch, "/users/me/countries/FR",
			`{"visit_date": "2026-08-01"}`))
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())

		v, err := repo.GetCountryVisit(ctx, "u1", "FR")
		require.NoError(t, err)
		require.NotNil(t, v)
		assert.Equal(t, "2026-08-01", v.VisitDate)
	})

	t.Run("date and notes both land", func(t *testing.T) {
		w := serve(router, jsonRequest(http.MethodPatch, "/users/me/countries/FR",
			`{"visit_date": "2026-08-02", "notes": "revisited"}`))
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())

		v, err := repo.GetCountryVisit(ctx, "u1", "FR")
		require.NoError(t, err)
		assert.Equal(t, "2026-08-02", v.VisitDate)
		assert.Equal(t, "revisited", v.Notes)
	})

	t.Run("explicit empty string clears", func(t *testing.T) {
		w := serve(router, jsonRequest(http.MethodPatch, "/users/me/countries/FR",
			`{"notes": ""}`))
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())

		v, err := repo.GetCountryVisit(ctx, "u1", "FR")
		require.NoError(t, err)
		assert.Equal(t, "2026-08-02", v.VisitDate)
		assert.Empty(t, v.Notes)
	})

	t.Run("empty patch rejected", func(t *testing.T) {
		w := serve(router, jsonRequest(http.MethodPatch, "/users/me/countries/FR", `{}`))
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.JSONEq(t, `{"error": "nothing to update"}`, w.Body.String())
	})

	t.Run("bad date rejected", func(t *testing.T) {
		w := serve(router, jsonRequest(http.MethodPatch, "/users/me/countries/FR",
			`{"visit_date": "August 1st"}`))
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestAddCountryAcceptsForwardedBody(t *testing.T) {
	repo, router := newTestRouter(t)

	// The gateway always forwards all three keys; absent meta arrives null.
	w := serve(router, jsonRequest(http.MethodPost, "/users/me/countries",
		`{"code": "fr", "visit_date": "2026-08-01", "notes": null}`))
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	// Code normalized to upper case.
	v, err := repo.GetCountryVisit(context.Background(), "u1", "FR")
	require.NoError(t, err)
	require.NotNil(t, v)
	assert.Equal(t, "2026-08-01", v.VisitDate)
	assert.Empty(t, v.Notes)
}

func TestParkCodeNormalizedLower(t *testing.T) {
	repo, router := newTestRouter(t)

	w := serve(router, jsonRequest(http.MethodPost, "/users/me/parks/YOSE", ""))
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	visits, err := repo.ListParkVisits(context.Background(), "u1")
	require.NoError(t, err)
	require.Len(t, visits, 1)
	assert.Equal(t, "yose", visits[0].Code)
}
