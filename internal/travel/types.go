package travel

// Category is one of the five fixed tracking domains.
type Category string

const (
	CategoryCountries     Category = "countries"
	CategoryUSStates      Category = "us-states"
	CategoryNationalParks Category = "national-parks"
	CategoryMLBBallparks  Category = "mlb-ballparks"
	CategoryNFLStadiums   Category = "nfl-stadiums"
)

func Categories() []Category {
	return []Category{
		CategoryCountries,
		CategoryUSStates,
		CategoryNationalParks,
		CategoryMLBBallparks,
		CategoryNFLStadiums,
	}
}

func (c Category) Valid() bool {
	switch c {
	case CategoryCountries, CategoryUSStates, CategoryNationalParks,
		CategoryMLBBallparks, CategoryNFLStadiums:
		return true
	}
	return false
}

// Local reports whether the category is persisted in the local preference
// store rather than on the server.
func (c Category) Local() bool {
	switch c {
	case CategoryUSStates, CategoryMLBBallparks, CategoryNFLStadiums:
		return true
	}
	return false
}

// Item identifies one toggleable entity. Countries carry both a synthetic ID
// and a stable Code; membership for countries is keyed by Code because the
// backend's visited-country relation is keyed by code.
type Item struct {
	ID   string
	Code string
}

// Key returns the membership key for an item in this category.
func (c Category) Key(it Item) string {
	if c == CategoryCountries {
		return it.Code
	}
	return it.ID
}
