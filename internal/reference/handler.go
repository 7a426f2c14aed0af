package reference

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	Repo *Repo
}

func NewHandler(repo *Repo) *Handler {
	return &Handler{Repo: repo}
}

func (h *Handler) RegisterRoutes(r *gin.Engine) {
	r.GET("/countries", h.listCountries)
	r.GET("/parks", h.listParks)
	r.GET("/ballparks", h.listStadiums("mlb"))
	r.GET("/nfl-stadiums", h.listStadiums("nfl"))
}

func (h *Handler) listCountries(c *gin.Context) {
	items, err := h.Repo.ListCountries(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "list failed"})
		return
	}
	c.JSON(http.StatusOK, items)
}

func (h *Handler) listParks(c *gin.Context) {
	items, err := h.Repo.ListParks(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "list failed"})
		return
	}
	c.JSON(http.StatusOK, items)
}

func (h *Handler) listStadiums(league string) gin.HandlerFunc {
	return func(c *gin.Context) {
		items, err := h.Repo.ListStadiums(c.Request.Context(), league)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "list failed"})
			return
		}
		c.JSON(http.StatusOK, items)
	}
}
