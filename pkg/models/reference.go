package models

// Country is a reference country as served to the frontend. Code is the
// stable ISO alpha-2 code; ID is the backend's synthetic row id. User
// visited-country relations are keyed by Code, never by ID.
type Country struct {
	ID     string `json:"id"`
	Code   string `json:"code"`
	Name   string `json:"name"`
	Region string `json:"region,omitempty"`
}

// Park is a national park. Lat/Lng are nil when the backend's stored
// coordinates do not parse.
type Park struct {
	Code  string   `json:"code"`
	Name  string   `json:"name"`
	State string   `json:"state,omitempty"`
	Lat   *float64 `json:"lat,omitempty"`
	Lng   *float64 `json:"lng,omitempty"`
}

// Stadium covers both MLB ballparks and NFL stadiums.
type Stadium struct {
	ID   string   `json:"id"`
	Name string   `json:"name"`
	Team string   `json:"team"`
	City string   `json:"city,omitempty"`
	Lat  *float64 `json:"lat,omitempty"`
	Lng  *float64 `json:"lng,omitempty"`
}

// StateInfo is a US state from the Census dataset, keyed by FIPS code.
type StateInfo struct {
	Code string `json:"code"`
	Name string `json:"name"`
}
