package visits

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"trailmark/internal/auth"
	"trailmark/internal/synchub"
	"trailmark/pkg/models"
)

type Handler struct {
	Repo *Repo
	Hub  *synchub.Hub
}

func NewHandler(repo *Repo, hub *synchub.Hub) *Handler {
	return &Handler{Repo: repo, Hub: hub}
}

// RegisterRoutes mounts the visited-relation routes under the protected
// /users/me group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/countries", h.listCountries)
	rg.POST("/countries", h.addCountry)
	rg.PATCH("/countries/:code", h.patchCountry)
	rg.DELETE("/countries/:code", h.removeCountry)
	rg.POST("/countries/remove/all", h.clearCountries)
	rg.DELETE("/countries/remove/all", h.clearCountries)

	rg.GET("/parks", h.listParks)
	rg.POST("/parks/:code", h.addPark)
	rg.DELETE("/parks/:code", h.removePark)
	rg.DELETE("/parks/remove/all", h.clearParks)

	rg.POST("/stadiums/:id", h.addStadium)
	rg.DELETE("/stadiums/:id", h.removeStadium)
	rg.POST("/states/:id", h.addState)
	rg.DELETE("/states/:id", h.removeState)
}

// Wire shapes use snake_case; the gateway forwards bodies in this form.
type addCountryReq struct {
	Code      string  `json:"code"`
	VisitDate *string `json:"visit_date,omitempty"`
	Notes     *string `json:"notes,omitempty"`
}

type patchCountryReq struct {
	VisitDate *string `json:"visit_date"`
	Notes     *string `json:"notes"`
}

func validDate(s *string) bool {
	if s == nil || *s == "" {
		return true
	}
	_, err := time.Parse("2006-01-02", *s)
	return err == nil
}

func (h *Handler) listCountries(c *gin.Context) {
	claims := auth.MustGetClaims(c)
	if claims == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	items, err := h.Repo.ListCountryVisits(c.Request.Context(), claims.UserID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "list failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": items, "total": len(items)})
}

func (h *Handler) addCountry(c *gin.Context) {
	claims := auth.MustGetClaims(c)
	if claims == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var req addCountryReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}

	code := normalizeCode(req.Code)
	if code == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "code required"})
		return
	}
	if !validDate(req.VisitDate) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "visit_date must be YYYY-MM-DD"})
		return
	}

	meta := models.VisitMeta{VisitDate: req.VisitDate, Notes: req.Notes}
	if err := h.Repo.UpsertCountryVisit(c.Request.Context(), claims.UserID, code, meta); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "save failed"})
		return
	}

	saved, err := h.Repo.GetCountryVisit(c.Request.Context(), claims.UserID, code)
	if err != nil || saved == nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "fetch saved failed"})
		return
	}

	h.broadcast(synchub.EventVisitAdded, claims.UserID, "countries", code)
	c.JSON(http.StatusCreated, saved)
}

func (h *Handler) patchCountry(c *gin.Context) {
	claims := auth.MustGetClaims(c)
	if claims == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	code := normalizeCode(c.Param("code"))
	if code == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "code required"})
		return
	}

	var req patchCountryReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	if req.VisitDate == nil && req.Notes == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "nothing to update"})
		return
	}
	if !validDate(req.VisitDate) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "visit_date must be YYYY-MM-DD"})
		return
	}

	// Patching an unvisited country creates the relation.
	meta := models.VisitMeta{VisitDate: req.VisitDate, Notes: req.Notes}
	if err := h.Repo.UpsertCountryVisit(c.Request.Context(), claims.UserID, code, meta); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "save failed"})
		return
	}

	saved, err := h.Repo.GetCountryVisit(c.Request.Context(), claims.UserID, code)
	if err != nil || saved == nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "fetch saved failed"})
		return
	}

	h.broadcast(synchub.EventVisitAdded, claims.UserID, "countries", code)
	c.JSON(http.StatusOK, saved)
}

func (h *Handler) removeCountry(c *gin.Context) {
	claims := auth.MustGetClaims(c)
	if claims == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	code := normalizeCode(c.Param("code"))
	if code == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "code required"})
		return
	}

	ok, err := h.Repo.DeleteCountryVisit(c.Request.Context(), claims.UserID, code)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "delete failed"})
		return
	}
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
		return
	}

	h.broadcast(synchub.EventVisitRemoved, claims.UserID, "countries", code)
	c.JSON(http.StatusOK, gin.H{"message": "deleted"})
}

func (h *Handler) clearCountries(c *gin.Context) {
	claims := auth.MustGetClaims(c)
	if claims == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	if err := h.Repo.ClearCountryVisits(c.Request.Context(), claims.UserID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "clear failed"})
		return
	}

	h.broadcast(synchub.EventCategoryCleared, claims.UserID, "countries", "")
	c.JSON(http.StatusOK, gin.H{"message": "cleared"})
}

func (h *Handler) listParks(c *gin.Context) {
	claims := auth.MustGetClaims(c)
	if claims == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	items, err := h.Repo.ListParkVisits(c.Request.Context(), claims.UserID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "list failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": items, "total": len(items)})
}

func (h *Handler) addPark(c *gin.Context) {
	claims := auth.MustGetClaims(c)
	if claims == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	code := normalizeParkCode(c.Param("code"))
	if code == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "code required"})
		return
	}

	if err := h.Repo.AddParkVisit(c.Request.Context(), claims.UserID, code); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "save failed"})
		return
	}

	h.broadcast(synchub.EventVisitAdded, claims.UserID, "national-parks", code)
	c.JSON(http.StatusCreated, gin.H{"code": code})
}

func (h *Handler) removePark(c *gin.Context) {
	claims := auth.MustGetClaims(c)
	if claims == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	code := normalizeParkCode(c.Param("code"))
	if code == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "code required"})
		return
	}

	ok, err := h.Repo.DeleteParkVisit(c.Request.Context(), claims.UserID, code)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "delete failed"})
		return
	}
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
		return
	}

	h.broadcast(synchub.EventVisitRemoved, claims.UserID, "national-parks", code)
	c.JSON(http.StatusOK, gin.H{"message": "deleted"})
}

func (h *Handler) clearParks(c *gin.Context) {
	claims := auth.MustGetClaims(c)
	if claims == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	if err := h.Repo.ClearParkVisits(c.Request.Context(), claims.UserID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "clear failed"})
		return
	}

	h.broadcast(synchub.EventCategoryCleared, claims.UserID, "national-parks", "")
	c.JSON(http.StatusOK, gin.H{"message": "cleared"})
}

func (h *Handler) addStadium(c *gin.Context) {
	h.addSimple(c, "stadium", func(ctx *gin.Context, userID, id string) error {
		return h.Repo.AddStadiumVisit(ctx.Request.Context(), userID, id)
	})
}

func (h *Handler) removeStadium(c *gin.Context) {
	h.removeSimple(c, "stadium", func(ctx *gin.Context, userID, id string) (bool, error) {
		return h.Repo.DeleteStadiumVisit(ctx.Request.Context(), userID, id)
	})
}

func (h *Handler) addState(c *gin.Context) {
	h.addSimple(c, "state", func(ctx *gin.Context, userID, id string) error {
		return h.Repo.AddStateVisit(ctx.Request.Context(), userID, id)
	})
}

func (h *Handler) removeState(c *gin.Context) {
	h.removeSimple(c, "state", func(ctx *gin.Context, userID, id string) (bool, error) {
		return h.Repo.DeleteStateVisit(ctx.Request.Context(), userID, id)
	})
}

func (h *Handler) addSimple(c *gin.Context, kind string, add func(*gin.Context, string, string) error) {
	claims := auth.MustGetClaims(c)
	if claims == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	id := strings.TrimSpace(c.Param("id"))
	if id == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "id required"})
		return
	}

	if err := add(c, claims.UserID, id); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "save failed"})
		return
	}

	h.broadcast(synchub.EventVisitAdded, claims.UserID, kind, id)
	c.JSON(http.StatusCreated, gin.H{"id": id})
}

func (h *Handler) removeSimple(c *gin.Context, kind string, del func(*gin.Context, string, string) (bool, error)) {
	claims := auth.MustGetClaims(c)
	if claims == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	id := strings.TrimSpace(c.Param("id"))
	if id == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "id required"})
		return
	}

	ok, err := del(c, claims.UserID, id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "delete failed"})
		return
	}
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
		return
	}

	h.broadcast(synchub.EventVisitRemoved, claims.UserID, kind, id)
	c.JSON(http.StatusOK, gin.H{"message": "deleted"})
}

func (h *Handler) broadcast(eventType, userID, category, itemID string) {
	if h.Hub == nil {
		return
	}
	ev := synchub.VisitEvent{
		Type:     eventType,
		UserID:   userID,
		Category: category,
		ItemID:   itemID,
		At:       time.Now().UTC(),
	}
	go h.Hub.Broadcast(ev)
}

// Country codes are upper-case ISO alpha-2; park codes are lower-case NPS
// codes.
func normalizeCode(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}

func normalizeParkCode(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
