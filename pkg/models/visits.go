package models

import "time"

// CountryVisit is one row of the visited-country relation. VisitDate is a
// calendar date ("2006-01-02"), empty when unset.
type CountryVisit struct {
	Code      string    `json:"code"`
	VisitDate string    `json:"visit_date,omitempty"`
	Notes     string    `json:"notes,omitempty"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ParkVisit is one row of the visited-park relation. Park visits carry no
// date or notes.
type ParkVisit struct {
	Code      string    `json:"code"`
	UpdatedAt time.Time `json:"updated_at"`
}

// VisitMeta is the optional date/notes payload attached to a country visit.
// A nil field leaves the stored value unchanged; a pointer to the empty
// string clears it.
type VisitMeta struct {
	VisitDate *string `json:"visitDate,omitempty"`
	Notes     *string `json:"notes,omitempty"`
}
