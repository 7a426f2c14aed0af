package gateway

import (
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/gin-gonic/gin"

	"trailmark/pkg/utils"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	os.Exit(m.Run())
}

func testConfig(upstreamURL string) utils.GatewayConfig {
	return utils.GatewayConfig{
		Addr:           ":0",
		UpstreamURL:    upstreamURL,
		AllowedOrigins: []string{"http://localhost:3000"},
	}
}

// newTestServer wires a gateway router against an httptest upstream.
func newTestServer(t *testing.T, upstream http.Handler) (*Server, *gin.Engine) {
	t.Helper()

	backend := httptest.NewServer(upstream)
	t.Cleanup(backend.Close)

	srv := NewServer(testConfig(backend.URL), NewUpstream(backend.URL), NewCensusClient(""))
	return srv, srv.Router()
}

func doRequest(router *gin.Engine, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func withSession(req *http.Request, token string) *http.Request {
	req.AddCookie(&http.Cookie{Name: SessionCookieName, Value: token})
	return req
}
