package gateway

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"trailmark/pkg/models"
)

type passwordLoginReq struct {
	Identifier string `json:"identifier"`
	Password   string `json:"password"`
}

func (s *Server) passwordLogin(c *gin.Context) {
	var req passwordLoginReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	req.Identifier = strings.TrimSpace(req.Identifier)
	if req.Identifier == "" || req.Password == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "identifier and password required"})
		return
	}

	resp, err := s.up.Do(c.Request.Context(), http.MethodPost, "/auth/login", "", gin.H{
		"email":    req.Identifier,
		"password": req.Password,
	})
	if err != nil {
		upstreamUnreachable(c, err)
		return
	}
	if !resp.OK() {
		relayError(c, resp)
		return
	}

	var payload struct {
		Token string `json:"token"`
	}
	if err := resp.Decode(&payload); err != nil || payload.Token == "" {
		upstreamMalformed(c, err)
		return
	}

	s.setSessionCookie(c, payload.Token)
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "logged in"})
}

// logout clears the session cookie unconditionally; upstream invalidation is
// best effort.
func (s *Server) logout(c *gin.Context) {
	if token := sessionToken(c); token != "" {
		_, _ = s.up.Do(c.Request.Context(), http.MethodPost, "/auth/logout", token, nil)
	}
	s.clearSessionCookie(c)
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "logged out"})
}

func (s *Server) profile(c *gin.Context) {
	c.Header("Cache-Control", "no-store")

	resp, err := s.up.Do(c.Request.Context(), http.MethodGet, "/users/me", bearerToken(c), nil)
	if err != nil {
		upstreamUnreachable(c, err)
		return
	}
	if !resp.OK() {
		relayError(c, resp)
		return
	}

	var profile models.Profile
	if err := resp.Decode(&profile); err != nil {
		upstreamMalformed(c, err)
		return
	}
	c.JSON(http.StatusOK, profile)
}

type changePasswordReq struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
}

func (s *Server) changePassword(c *gin.Context) {
	c.Header("Cache-Control", "no-store")

	var req changePasswordReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	if req.CurrentPassword == "" || req.NewPassword == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "currentPassword and newPassword required"})
		return
	}

	// Upstream uses snake_case field names.
	resp, err := s.up.Do(c.Request.Context(), http.MethodPost, "/auth/change-password", bearerToken(c), gin.H{
		"old_password": req.CurrentPassword,
		"new_password": req.NewPassword,
	})
	if err != nil {
		upstreamUnreachable(c, err)
		return
	}
	relayJSON(c, resp)
}

type addCountryReq struct {
	Code      string  `json:"code"`
	VisitDate *string `json:"visitDate,omitempty"`
	Notes     *string `json:"notes,omitempty"`
}

func (s *Server) listVisitedCountries(c *gin.Context) {
	s.relayUser(c, http.MethodGet, "/users/me/countries", nil)
}

func (s *Server) addVisitedCountry(c *gin.Context) {
	var req addCountryReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	if strings.TrimSpace(req.Code) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "code required"})
		return
	}

	s.relayUser(c, http.MethodPost, "/users/me/countries", gin.H{
		"code":       req.Code,
		"visit_date": req.VisitDate,
		"notes":      req.Notes,
	})
}

func (s *Server) updateVisitedCountry(c *gin.Context) {
	code := strings.TrimSpace(c.Param("code"))
	if code == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "code required"})
		return
	}

	var meta models.VisitMeta
	if err := c.ShouldBindJSON(&meta); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	if meta.VisitDate == nil && meta.Notes == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "nothing to update"})
		return
	}

	body := gin.H{}
	if meta.VisitDate != nil {
		body["visit_date"] = *meta.VisitDate
	}
	if meta.Notes != nil {
		body["notes"] = *meta.Notes
	}
	s.relayUser(c, http.MethodPatch, "/users/me/countries/"+code, body)
}

func (s *Server) removeVisitedCountry(c *gin.Context) {
	code := strings.TrimSpace(c.Param("code"))
	if code == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "code required"})
		return
	}
	s.relayUser(c, http.MethodDelete, "/users/me/countries/"+code, nil)
}

func (s *Server) clearVisitedCountries(c *gin.Context) {
	s.relayUser(c, http.MethodDelete, "/users/me/countries/remove/all", nil)
}

func (s *Server) listVisitedParks(c *gin.Context) {
	s.relayUser(c, http.MethodGet, "/users/me/parks", nil)
}

func (s *Server) addVisitedPark(c *gin.Context) {
	code := strings.TrimSpace(c.Param("code"))
	if code == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "code required"})
		return
	}
	s.relayUser(c, http.MethodPost, "/users/me/parks/"+code, nil)
}

func (s *Server) removeVisitedPark(c *gin.Context) {
	code := strings.TrimSpace(c.Param("code"))
	if code == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "code required"})
		return
	}
	s.relayUser(c, http.MethodDelete, "/users/me/parks/"+code, nil)
}

func (s *Server) clearVisitedParks(c *gin.Context) {
	s.relayUser(c, http.MethodDelete, "/users/me/parks/remove/all", nil)
}

func (s *Server) toggleStadium(c *gin.Context) {
	id := strings.TrimSpace(c.Param("id"))
	if id == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "id required"})
		return
	}
	s.relayUser(c, c.Request.Method, "/users/me/stadiums/"+id, nil)
}

func (s *Server) toggleState(c *gin.Context) {
	id := strings.TrimSpace(c.Param("id"))
	if id == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "id required"})
		return
	}
	s.relayUser(c, c.Request.Method, "/users/me/states/"+id, nil)
}

// relayUser forwards one user-scoped call with the session bearer attached
// and no-cache semantics, passing success bodies through verbatim.
func (s *Server) relayUser(c *gin.Context, method, path string, payload any) {
	c.Header("Cache-Control", "no-store")

	resp, err := s.up.Do(c.Request.Context(), method, path, bearerToken(c), payload)
	if err != nil {
		upstreamUnreachable(c, err)
		return
	}
	if !resp.OK() {
		relayError(c, resp)
		return
	}
	relayJSON(c, resp)
}
