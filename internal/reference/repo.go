package reference

import (
	"context"
	"database/sql"
	"fmt"
)

// Raw rows as stored: synthetic integer ids and text coordinates. The
// gateway owns conversion to the frontend shapes.
type CountryRow struct {
	ID     int64  `json:"id"`
	Code   string `json:"code"`
	Name   string `json:"name"`
	Region string `json:"region,omitempty"`
}

type ParkRow struct {
	Code     string   `json:"code"`
	Name     string   `json:"name"`
	State    string   `json:"state,omitempty"`
	Location Location `json:"location"`
}

type StadiumRow struct {
	ID       int64    `json:"id"`
	Name     string   `json:"name"`
	Team     string   `json:"team"`
	City     string   `json:"city,omitempty"`
	Location Location `json:"location"`
}

type Location struct {
	Lat string `json:"lat,omitempty"`
	Lng string `json:"lng,omitempty"`
}

type Repo struct {
	DB *sql.DB
}

func NewRepo(db *sql.DB) *Repo {
	return &Repo{DB: db}
}

func (r *Repo) ListCountries(ctx context.Context) ([]CountryRow, error) {
	rows, err := r.DB.QueryContext(ctx, `
		SELECT id, code, name, region
		FROM countries
		ORDER BY name
	`)
	if err != nil {
		return nil, fmt.Errorf("list countries: %w", err)
	}
	defer rows.Close()

	out := make([]CountryRow, 0, 256)
	for rows.Next() {
		var c CountryRow
		var region sql.NullString
		if err := rows.Scan(&c.ID, &c.Code, &c.Name, &region); err != nil {
			return nil, fmt.Errorf("scan country: %w", err)
		}
		c.Region = region.String
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows err: %w", err)
	}
	return out, nil
}

func (r *Repo) ListParks(ctx context.Context) ([]ParkRow, error) {
	rows, err := r.DB.QueryContext(ctx, `
		SELECT code, name, state, lat, lng
		FROM parks
		ORDER BY name
	`)
	if err != nil {
		return nil, fmt.Errorf("list parks: %w", err)
	}
	defer rows.Close()

	out := make([]ParkRow, 0, 64)
	for rows.Next() {
		var p ParkRow
		var state, lat, lng sql.NullString
		if err := rows.Scan(&p.Code, &p.Name, &state, &lat, &lng); err != nil {
			return nil, fmt.Errorf("scan park: %w", err)
		}
		p.State = state.String
		p.Location = Location{Lat: lat.String, Lng: lng.String}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows err: %w", err)
	}
	return out, nil
}

func (r *Repo) ListStadiums(ctx context.Context, league string) ([]StadiumRow, error) {
	rows, err := r.DB.QueryContext(ctx, `
		SELECT id, name, team, city, lat, lng
		FROM stadiums
		WHERE league = ?
		ORDER BY name, team
	`, league)
	if err != nil {
		return nil, fmt.Errorf("list stadiums: %w", err)
	}
	defer rows.Close()

	out := make([]StadiumRow, 0, 32)
	for rows.Next() {
		var s StadiumRow
		var city, lat, lng sql.NullString
		if err := rows.Scan(&s.ID, &s.Name, &s.Team, &city, &lat, &lng); err != nil {
			return nil, fmt.Errorf("scan stadium: %w", err)
		}
		s.City = city.String
		s.Location = Location{Lat: lat.String, Lng: lng.String}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows err: %w", err)
	}
	return out, nil
}
