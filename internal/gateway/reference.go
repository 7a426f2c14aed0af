package gateway

import (
	"encoding/json"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"trailmark/pkg/models"
)

const referenceTTL = 24 * time.Hour

// Raw upstream shapes: synthetic numeric ids and stringly-typed coordinates.
type rawLocation struct {
	Lat string `json:"lat"`
	Lng string `json:"lng"`
}

type rawCountry struct {
	ID     json.Number `json:"id"`
	Code   string      `json:"code"`
	Name   string      `json:"name"`
	Region string      `json:"region"`
}

type rawPark struct {
	Code     string      `json:"code"`
	Name     string      `json:"name"`
	State    string      `json:"state"`
	Location rawLocation `json:"location"`
}

type rawStadium struct {
	ID       json.Number `json:"id"`
	Name     string      `json:"name"`
	Team     string      `json:"team"`
	City     string      `json:"city"`
	Location rawLocation `json:"location"`
}

// parseCoord returns nil rather than an error for coordinates that don't
// parse; the frontend treats a missing coordinate as "no pin".
func parseCoord(s string) *float64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil
	}
	return &f
}

func shapeCountries(raw []rawCountry) []models.Country {
	out := make([]models.Country, 0, len(raw))
	for _, r := range raw {
		out = append(out, models.Country{
			ID:     r.ID.String(),
			Code:   r.Code,
			Name:   r.Name,
			Region: r.Region,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

func shapeParks(raw []rawPark) []models.Park {
	out := make([]models.Park, 0, len(raw))
	for _, r := range raw {
		out = append(out, models.Park{
			Code:  r.Code,
			Name:  r.Name,
			State: r.State,
			Lat:   parseCoord(r.Location.Lat),
			Lng:   parseCoord(r.Location.Lng),
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

func shapeStadiums(raw []rawStadium) []models.Stadium {
	out := make([]models.Stadium, 0, len(raw))
	for _, r := range raw {
		out = append(out, models.Stadium{
			ID:   r.ID.String(),
			Name: r.Name,
			Team: r.Team,
			City: r.City,
			Lat:  parseCoord(r.Location.Lat),
			Lng:  parseCoord(r.Location.Lng),
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].Team < out[j].Team
	})
	return out
}

func (s *Server) listCountries(c *gin.Context) {
	serveReference(s, c, "countries", "/countries", shapeCountries)
}

func (s *Server) listParks(c *gin.Context) {
	serveReference(s, c, "national-parks", "/parks", shapeParks)
}

func (s *Server) listBallparks(c *gin.Context) {
	serveReference(s, c, "ballparks", "/ballparks", shapeStadiums)
}

func (s *Server) listNFLStadiums(c *gin.Context) {
	serveReference(s, c, "nfl-stadiums", "/nfl-stadiums", shapeStadiums)
}

// serveReference proxies one reference-data family: cache hit if fresh,
// otherwise fetch, shape, sort and cache for a day. Failures never evict
// previously cached data.
func serveReference[R, M any](s *Server, c *gin.Context, cacheKey, upstreamPath string, shape func([]R) []M) {
	c.Header("Cache-Control", "public, max-age=86400")

	if cached, ok := s.cache.Get(cacheKey); ok {
		c.JSON(http.StatusOK, cached)
		return
	}

	resp, err := s.up.Do(c.Request.Context(), http.MethodGet, upstreamPath, "", nil)
	if err != nil {
		upstreamUnreachable(c, err)
		return
	}
	if !resp.OK() {
		relayError(c, resp)
		return
	}

	var raw []R
	if err := resp.Decode(&raw); err != nil {
		upstreamMalformed(c, err)
		return
	}

	shaped := shape(raw)
	s.cache.Set(cacheKey, shaped, referenceTTL)
	c.JSON(http.StatusOK, shaped)
}
