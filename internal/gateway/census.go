package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"time"

	"github.com/gin-gonic/gin"

	"trailmark/pkg/models"
)

const defaultCensusBaseURL = "https://api.census.gov/data/2021/pep/population"

// CensusClient fetches the US state list from the Census population API.
// The payload is an array of arrays with a header row:
// [["NAME","state"],["Alabama","01"],...].
type CensusClient struct {
	APIKey  string
	BaseURL string
	HTTP    *http.Client
}

// censusStatusError carries a non-200 upstream status so the handler can
// relay it instead of reporting a malformed response.
type censusStatusError struct {
	Status int
}

func (e *censusStatusError) Error() string {
	return fmt.Sprintf("census responded %d", e.Status)
}

func NewCensusClient(apiKey string) *CensusClient {
	return &CensusClient{
		APIKey:  apiKey,
		BaseURL: defaultCensusBaseURL,
		HTTP:    &http.Client{Timeout: 15 * time.Second},
	}
}

func (cc *CensusClient) FetchStates(ctx context.Context) ([]models.StateInfo, error) {
	q := url.Values{}
	q.Set("get", "NAME")
	q.Set("for", "state:*")
	q.Set("key", cc.APIKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, cc.BaseURL+"?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("build census request: %w", err)
	}

	resp, err := cc.HTTP.Do(req)
	if err != nil {
		return nil, fmt.Errorf("census fetch: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read census body: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, &censusStatusError{Status: resp.StatusCode}
	}

	var rows [][]string
	if err := json.Unmarshal(data, &rows); err != nil {
		return nil, fmt.Errorf("decode census body: %w", err)
	}
	if len(rows) < 2 {
		return nil, fmt.Errorf("census payload too short")
	}

	// First row is the header; NAME then the FIPS state code.
	out := make([]models.StateInfo, 0, len(rows)-1)
	for _, row := range rows[1:] {
		if len(row) < 2 || row[0] == "" || row[1] == "" {
			continue
		}
		out = append(out, models.StateInfo{Name: row[0], Code: row[1]})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (s *Server) listUSStates(c *gin.Context) {
	c.Header("Cache-Control", "public, max-age=86400")

	if s.census == nil || s.census.APIKey == "" {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "census api key not configured"})
		return
	}

	if cached, ok := s.cache.Get("us-states"); ok {
		c.JSON(http.StatusOK, cached)
		return
	}

	states, err := s.census.FetchStates(c.Request.Context())
	if err != nil {
		var statusErr *censusStatusError
		var urlErr *url.Error
		switch {
		case errors.As(err, &statusErr):
			c.JSON(statusErr.Status, gin.H{"error": statusErr.Error()})
		case errors.As(err, &urlErr):
			upstreamUnreachable(c, err)
		default:
			upstreamMalformed(c, err)
		}
		return
	}

	s.cache.Set("us-states", states, referenceTTL)
	c.JSON(http.StatusOK, states)
}
