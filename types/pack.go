package types

import "time"

// MealPack is a prepaid bundle of meal credits. It is created on purchase
// with a full balance and drawn down by order placement.
//
// Invariant: 0 <= RemainingBalance <= PackSize.
type MealPack struct {
	// ID is the unique identifier of the pack.
	ID int `json:"id" db:"id"`

	// UserID is the identifier of the owning customer.
	UserID int `json:"user_id" db:"user_id"`

	// PackSize is the number of meal credits the pack was purchased with.
	PackSize int `json:"pack_size" db:"pack_size"`

	// RemainingBalance is the number of unspent meal credits.
	RemainingBalance int `json:"remaining_balance" db:"remaining_balance"`

	// PurchaseDate is when the pack was bought.
	PurchaseDate time.Time `json:"purchase_date" db:"purchase_date"`

	// ExpiryDate is when the pack's credits expire; nil means no expiry.
	ExpiryDate *time.Time `json:"expiry_date,omitempty" db:"expiry_date"`

	// IsActive reports whether the pack can still be drawn down.
	IsActive bool `json:"is_active" db:"is_active"`
}

// Expired reports whether the pack's credits have expired at the given instant.
func (p MealPack) Expired(now time.Time) bool {
	return p.ExpiryDate != nil && now.After(*p.ExpiryDate)
}

// PackTemplate is an admin-managed catalog entry describing a purchasable
// pack. It is not tied to any individual purchase.
type PackTemplate struct {
	// ID is the unique identifier of the template.
	ID int `json:"id" db:"id"`

	// Name is the customer-facing name of the pack.
	Name string `json:"name" db:"name"`

	// Size is the number of meal credits the pack grants.
	Size int `json:"size" db:"size"`

	// Price is the purchase price of the pack.
	Price float64 `json:"price" db:"price"`

	// Description is the customer-facing description.
	Description string `json:"description" db:"description"`

	// IsActive reports whether the template is offered for sale.
	IsActive bool `json:"is_active" db:"is_active"`
}
