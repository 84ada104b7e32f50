package types

import "time"

// Menu display states derived from the publication flag and week range.
// They are computed, never stored.
const (
	MenuStateDraft     = "draft"
	MenuStateActive    = "active"
	MenuStateScheduled = "scheduled"
	MenuStateExpired   = "expired"
)

// Menu represents a weekly set of orderable dishes. At most one menu is
// published at any time; publication is the only stored state, everything
// else is derived from the week range.
type Menu struct {
	// ID is the unique identifier of the menu.
	ID int `json:"id" db:"id"`

	// WeekStartDate is the first day the menu covers.
	WeekStartDate time.Time `json:"week_start_date" db:"week_start_date"`

	// WeekEndDate is the last day the menu covers.
	WeekEndDate time.Time `json:"week_end_date" db:"week_end_date"`

	// IsPublished reports whether the menu is the currently published one.
	IsPublished bool `json:"is_published" db:"is_published"`

	// CreatedBy is the ID of the admin who created the menu.
	CreatedBy int `json:"created_by" db:"created_by"`

	// Items are the dishes offered on this menu. Populated on detail
	// reads; list queries leave it empty.
	Items []MenuItem `json:"items,omitempty"`

	// CreatedAt is the timestamp at which the menu was created.
	CreatedAt time.Time `json:"created_at" db:"created_at"`

	// UpdatedAt is the timestamp of the most recent update to the menu.
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// DisplayState derives the menu's display state at the given instant.
func (m Menu) DisplayState(now time.Time) string {
	if !m.IsPublished {
		if now.After(m.WeekEndDate) {
			return MenuStateExpired
		}
		return MenuStateDraft
	}
	switch {
	case now.Before(m.WeekStartDate):
		return MenuStateScheduled
	case now.After(m.WeekEndDate):
		return MenuStateExpired
	default:
		return MenuStateActive
	}
}

// MenuItem represents a single dish on a menu.
type MenuItem struct {
	// ID is the unique identifier of the menu item.
	ID int `json:"id" db:"id"`

	// MenuID is the identifier of the menu this item belongs to.
	MenuID int `json:"menu_id" db:"menu_id"`

	// Name is the dish name shown to customers.
	Name string `json:"name" db:"name"`

	// Description is the customer-facing description of the dish.
	Description string `json:"description" db:"description"`

	// Price is the per-unit price of the dish.
	Price float64 `json:"price" db:"price"`

	// Category groups dishes for display (e.g. "breakfast", "lunch").
	Category string `json:"category" db:"category"`

	// ImageKey is the object storage key of the dish photo, empty when
	// no image has been uploaded.
	ImageKey string `json:"image_key,omitempty" db:"image_key"`

	// IsAvailable reports whether the dish can currently be ordered.
	IsAvailable bool `json:"is_available" db:"is_available"`
}

// MenuStatusSummary aggregates menu counts for the admin dashboard.
type MenuStatusSummary struct {
	Total     int `json:"total"`
	Published int `json:"published"`
	Draft     int `json:"draft"`
	Active    int `json:"active"`
	Expired   int `json:"expired"`
}
