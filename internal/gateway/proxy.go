package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
)

// Upstream issues authenticated calls against the external travel backend.
type Upstream struct {
	BaseURL string
	HTTP    *http.Client
}

func NewUpstream(baseURL string) *Upstream {
	return &Upstream{
		BaseURL: strings.TrimRight(baseURL, "/"),
		HTTP:    &http.Client{Timeout: 15 * time.Second},
	}
}

type UpstreamResponse struct {
	Status int
	Body   []byte
}

func (r *UpstreamResponse) OK() bool {
	return r.Status >= 200 && r.Status < 300
}

// Decode unmarshals the body into out. An empty body is not an error; out is
// left untouched.
func (r *UpstreamResponse) Decode(out any) error {
	if len(bytes.TrimSpace(r.Body)) == 0 {
		return nil
	}
	if err := json.Unmarshal(r.Body, out); err != nil {
		return fmt.Errorf("decode upstream body: %w", err)
	}
	return nil
}

// ErrorMessage extracts a sanitized error message from a non-success body.
func (r *UpstreamResponse) ErrorMessage() string {
	var payload struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(r.Body, &payload); err == nil {
		if payload.Error != "" {
			return payload.Error
		}
		if payload.Message != "" {
			return payload.Message
		}
	}
	return http.StatusText(r.Status)
}

// Do performs one upstream call. token may be empty for public resources; a
// non-nil payload is sent as JSON.
func (u *Upstream) Do(ctx context.Context, method, path, token string, payload any) (*UpstreamResponse, error) {
	var body io.Reader
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("marshal payload: %w", err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, u.BaseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := u.HTTP.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read upstream body: %w", err)
	}
	return &UpstreamResponse{Status: resp.StatusCode, Body: data}, nil
}

// relayError surfaces a non-success upstream response with its original
// status code and a sanitized message.
func relayError(c *gin.Context, resp *UpstreamResponse) {
	c.JSON(resp.Status, gin.H{"error": resp.ErrorMessage()})
}

func upstreamUnreachable(c *gin.Context, err error) {
	log.Printf("[gateway] upstream unreachable: %v", err)
	c.JSON(http.StatusBadGateway, gin.H{"error": "upstream unreachable"})
}

func upstreamMalformed(c *gin.Context, err error) {
	log.Printf("[gateway] malformed upstream response: %v", err)
	c.JSON(http.StatusBadGateway, gin.H{"error": "upstream responded unexpectedly"})
}

// relayJSON passes a successful upstream body through verbatim. Empty bodies
// stay empty instead of being re-encoded as JSON null.
func relayJSON(c *gin.Context, resp *UpstreamResponse) {
	if len(bytes.TrimSpace(resp.Body)) == 0 {
		c.Status(resp.Status)
		return
	}
	c.Data(resp.Status, "application/json; charset=utf-8", resp.Body)
}
