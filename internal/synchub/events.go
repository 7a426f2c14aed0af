package synchub

import "time"

// Event types pushed to connected clients so open sessions can refresh
// their visited sets without polling.
const (
	EventVisitAdded      = "visit.added"
	EventVisitRemoved    = "visit.removed"
	EventCategoryCleared = "category.cleared"
)

type VisitEvent struct {
	Type     string    `json:"type"`
	UserID   string    `json:"user_id"`
	Category string    `json:"category"`
	ItemID   string    `json:"item_id,omitempty"`
	At       time.Time `json:"at"`
}
