package types

import "time"

// Order status values. Any member may be assigned from any prior status;
// the API validates membership only, not transitions.
const (
	OrderStatusPending   = "pending"
	OrderStatusConfirmed = "confirmed"
	OrderStatusDelivered = "delivered"
	OrderStatusCancelled = "cancelled"
)

// ValidOrderStatus reports whether status is a member of the order status set.
func ValidOrderStatus(status string) bool {
	switch status {
	case OrderStatusPending, OrderStatusConfirmed, OrderStatusDelivered, OrderStatusCancelled:
		return true
	default:
		return false
	}
}

// Order represents a customer's order against a published menu. Placing an
// order draws down meal credits from the customer's packs.
type Order struct {
	// ID is the unique identifier of the order.
	ID int `json:"id" db:"id"`

	// UserID is the identifier of the customer who placed the order.
	UserID int `json:"user_id" db:"user_id"`

	// MenuID is the identifier of the menu the order was placed against.
	MenuID int `json:"menu_id" db:"menu_id"`

	// OrderDate is the date the order was placed.
	OrderDate time.Time `json:"order_date" db:"order_date"`

	// TotalMeals is the number of meal credits the order consumes.
	TotalMeals int `json:"total_meals" db:"total_meals"`

	// TotalPrice is the monetary value of the order at placement time.
	TotalPrice float64 `json:"total_price" db:"total_price"`

	// Status is one of pending, confirmed, delivered, cancelled.
	Status string `json:"status" db:"status"`

	// Items are the order lines. Populated on detail reads.
	Items []OrderItem `json:"items,omitempty"`

	// CreatedAt is the timestamp at which the order was created.
	CreatedAt time.Time `json:"created_at" db:"created_at"`

	// UpdatedAt is the timestamp of the most recent update to the order.
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// OrderItem is a single line of an order, capturing the menu item price at
// the time the order was placed.
type OrderItem struct {
	// ID is the unique identifier of the order line.
	ID int `json:"id" db:"id"`

	// OrderID is the identifier of the owning order.
	OrderID int `json:"order_id" db:"order_id"`

	// MenuItemID is the identifier of the ordered dish.
	MenuItemID int `json:"menu_item_id" db:"menu_item_id"`

	// Quantity is the number of units ordered.
	Quantity int `json:"quantity" db:"quantity"`

	// Price is the per-unit price at the time of ordering.
	Price float64 `json:"price" db:"price"`
}

// OrderStats aggregates order counts and revenue for the admin dashboard.
type OrderStats struct {
	TotalOrders       int     `json:"totalOrders"`
	PendingOrders     int     `json:"pendingOrders"`
	ConfirmedOrders   int     `json:"confirmedOrders"`
	DeliveredOrders   int     `json:"deliveredOrders"`
	CancelledOrders   int     `json:"cancelledOrders"`
	TotalRevenue      float64 `json:"totalRevenue"`
	AverageOrderValue float64 `json:"averageOrderValue"`
}
