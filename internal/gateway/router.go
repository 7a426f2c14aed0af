// Package gateway is the browser-facing proxy in front of the external
// travel backend: it owns the session cookie, attaches the bearer token to
// user-scoped calls, shapes and caches reference data, and translates
// upstream failures into structured errors.
package gateway

import (
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"trailmark/pkg/utils"
)

type Server struct {
	cfg    utils.GatewayConfig
	up     *Upstream
	census *CensusClient
	cache  *ttlCache
}

func NewServer(cfg utils.GatewayConfig, up *Upstream, census *CensusClient) *Server {
	return &Server{
		cfg:    cfg,
		up:     up,
		census: census,
		cache:  newTTLCache(),
	}
}

// RequestID tags every request so gateway and upstream log lines can be
// correlated.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader("X-Request-ID")
		if id == "" {
			id = uuid.NewString()
		}
		c.Writer.Header().Set("X-Request-ID", id)
		c.Next()
	}
}

func (s *Server) Router() *gin.Engine {
	router := gin.Default()
	_ = router.SetTrustedProxies([]string{"127.0.0.1"})

	router.Use(RequestID())
	router.Use(cors.New(cors.Config{
		AllowOrigins:     s.cfg.AllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Content-Type"},
		AllowCredentials: true,
	}))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "upstream": s.up.BaseURL})
	})

	// Auth
	router.POST("/auth/password-login", s.passwordLogin)
	router.POST("/auth/logout", s.logout)

	// Reference data (public, cached)
	router.GET("/countries", s.listCountries)
	router.GET("/national-parks", s.listParks)
	router.GET("/ballparks", s.listBallparks)
	router.GET("/nfl-stadiums", s.listNFLStadiums)
	router.GET("/us-states", s.listUSStates)

	// User-scoped (session required, never cached)
	user := router.Group("/user/me")
	user.Use(RequireSession())

	user.GET("", s.profile)
	user.POST("/change-password", s.changePassword)

	user.GET("/countries", s.listVisitedCountries)
	user.POST("/countries", s.addVisitedCountry)
	user.PATCH("/countries/:code", s.updateVisitedCountry)
	user.DELETE("/countries/:code", s.removeVisitedCountry)
	user.POST("/countries/remove/all", s.clearVisitedCountries)
	user.DELETE("/countries/remove/all", s.clearVisitedCountries)

	user.GET("/parks", s.listVisitedParks)
	user.POST("/parks/:code", s.addVisitedPark)
	user.DELETE("/parks/:code", s.removeVisitedPark)
	user.DELETE("/parks/remove/all", s.clearVisitedParks)

	user.POST("/stadiums/:id", s.toggleStadium)
	user.DELETE("/stadiums/:id", s.toggleStadium)
	user.POST("/states/:id", s.toggleState)
	user.DELETE("/states/:id", s.toggleState)

	return router
}
