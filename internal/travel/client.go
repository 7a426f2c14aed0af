package travel

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"trailmark/pkg/models"
)

// ErrUnauthorized marks a gateway rejection of the session credential; it
// triggers the coordinator's session-expiry path.
var ErrUnauthorized = errors.New("session expired or invalid")

// Client is the gateway surface the coordinator depends on.
type Client interface {
	VisitedCountries(ctx context.Context) ([]models.CountryVisit, error)
	AddCountryVisit(ctx context.Context, code string, meta *models.VisitMeta) error
	RemoveCountryVisit(ctx context.Context, code string) error
	UpdateCountryVisit(ctx context.Context, code string, meta models.VisitMeta) error
	ClearCountryVisits(ctx context.Context) error

	VisitedParks(ctx context.Context) ([]string, error)
	AddParkVisit(ctx context.Context, code string) error
	RemoveParkVisit(ctx context.Context, code string) error
	ClearParkVisits(ctx context.Context) error

	Logout(ctx context.Context) error
}

// GatewayClient talks to the trailmark gateway. It carries the session
// cookie itself so CLI invocations can persist it between runs.
type GatewayClient struct {
	BaseURL string
	HTTP    *http.Client

	sessionToken string
}

func NewGatewayClient(baseURL string) *GatewayClient {
	return &GatewayClient{
		BaseURL: strings.TrimRight(baseURL, "/"),
		HTTP:    &http.Client{Timeout: 15 * time.Second},
	}
}

// SessionToken returns the current session cookie value, if any.
func (g *GatewayClient) SessionToken() string {
	return g.sessionToken
}

// SetSessionToken restores a previously saved session cookie.
func (g *GatewayClient) SetSessionToken(token string) {
	g.sessionToken = token
}

// Login authenticates and captures the session cookie from the response.
func (g *GatewayClient) Login(ctx context.Context, identifier, password string) error {
	var body io.Reader
	b, err := json.Marshal(map[string]string{"identifier": identifier, "password": password})
	if err != nil {
		return err
	}
	body = strings.NewReader(string(b))

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.BaseURL+"/auth/password-login", body)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.HTTP.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	data, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("login failed: %s", strings.TrimSpace(string(data)))
	}

	for _, ck := range resp.Cookies() {
		if ck.Name == "session_token" {
			g.sessionToken = ck.Value
			return nil
		}
	}
	return errors.New("login response carried no session cookie")
}

func (g *GatewayClient) Logout(ctx context.Context) error {
	err := g.doJSON(ctx, http.MethodPost, "/auth/logout", nil, nil)
	g.sessionToken = ""
	return err
}

func (g *GatewayClient) Profile(ctx context.Context) (*models.Profile, error) {
	var p models.Profile
	if err := g.doJSON(ctx, http.MethodGet, "/user/me", nil, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func (g *GatewayClient) ChangePassword(ctx context.Context, current, next string) error {
	return g.doJSON(ctx, http.MethodPost, "/user/me/change-password", map[string]string{
		"currentPassword": current,
		"newPassword":     next,
	}, nil)
}

func (g *GatewayClient) Countries(ctx context.Context) ([]models.Country, error) {
	var out []models.Country
	if err := g.doJSON(ctx, http.MethodGet, "/countries", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (g *GatewayClient) Parks(ctx context.Context) ([]models.Park, error) {
	var out []models.Park
	if err := g.doJSON(ctx, http.MethodGet, "/national-parks", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (g *GatewayClient) Ballparks(ctx context.Context) ([]models.Stadium, error) {
	var out []models.Stadium
	if err := g.doJSON(ctx, http.MethodGet, "/ballparks", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (g *GatewayClient) NFLStadiums(ctx context.Context) ([]models.Stadium, error) {
	var out []models.Stadium
	if err := g.doJSON(ctx, http.MethodGet, "/nfl-stadiums", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (g *GatewayClient) USStates(ctx context.Context) ([]models.StateInfo, error) {
	var out []models.StateInfo
	if err := g.doJSON(ctx, http.MethodGet, "/us-states", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

type listResponse[T any] struct {
	Items []T `json:"items"`
	Total int `json:"total"`
}

func (g *GatewayClient) VisitedCountries(ctx context.Context) ([]models.CountryVisit, error) {
	var resp listResponse[models.CountryVisit]
	if err := g.doJSON(ctx, http.MethodGet, "/user/me/countries", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Items, nil
}

func (g *GatewayClient) AddCountryVisit(ctx context.Context, code string, meta *models.VisitMeta) error {
	payload := map[string]any{"code": code}
	if meta != nil {
		if meta.VisitDate != nil {
			payload["visitDate"] = *meta.VisitDate
		}
		if meta.Notes != nil {
			payload["notes"] = *meta.Notes
		}
	}
	return g.doJSON(ctx, http.MethodPost, "/user/me/countries", payload, nil)
}

func (g *GatewayClient) RemoveCountryVisit(ctx context.Context, code string) error {
	return g.doJSON(ctx, http.MethodDelete, "/user/me/countries/"+code, nil, nil)
}

func (g *GatewayClient) UpdateCountryVisit(ctx context.Context, code string, meta models.VisitMeta) error {
	return g.doJSON(ctx, http.MethodPatch, "/user/me/countries/"+code, meta, nil)
}

func (g *GatewayClient) ClearCountryVisits(ctx context.Context) error {
	return g.doJSON(ctx, http.MethodDelete, "/user/me/countries/remove/all", nil, nil)
}

func (g *GatewayClient) VisitedParks(ctx context.Context) ([]string, error) {
	var resp listResponse[models.ParkVisit]
	if err := g.doJSON(ctx, http.MethodGet, "/user/me/parks", nil, &resp); err != nil {
		return nil, err
	}
	codes := make([]string, 0, len(resp.Items))
	for _, v := range resp.Items {
		codes = append(codes, v.Code)
	}
	return codes, nil
}

func (g *GatewayClient) AddParkVisit(ctx context.Context, code string) error {
	return g.doJSON(ctx, http.MethodPost, "/user/me/parks/"+code, nil, nil)
}

func (g *GatewayClient) RemoveParkVisit(ctx context.Context, code string) error {
	return g.doJSON(ctx, http.MethodDelete, "/user/me/parks/"+code, nil, nil)
}

func (g *GatewayClient) ClearParkVisits(ctx context.Context) error {
	return g.doJSON(ctx, http.MethodDelete, "/user/me/parks/remove/all", nil, nil)
}

func (g *GatewayClient) doJSON(ctx context.Context, method, path string, payload, out any) error {
	var body io.Reader
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			return err
		}
		body = strings.NewReader(string(b))
	}

	req, err := http.NewRequestWithContext(ctx, method, g.BaseURL+path, body)
	if err != nil {
		return err
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if g.sessionToken != "" {
		req.AddCookie(&http.Cookie{Name: "session_token", Value: g.sessionToken})
	}

	resp, err := g.HTTP.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if resp.StatusCode == http.StatusUnauthorized {
		return ErrUnauthorized
	}
	if resp.StatusCode >= 300 {
		return fmt.Errorf("%s %s failed (%d): %s", method, path, resp.StatusCode, strings.TrimSpace(string(data)))
	}
	if out == nil || len(strings.TrimSpace(string(data))) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode %s %s: %w", method, path, err)
	}
	return nil
}
