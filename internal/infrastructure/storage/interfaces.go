package storage

import "errors"

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("storage: not found")

// Repository defines the complete storage interface.
// This interface allows swapping implementations (SQLite, PostgreSQL, etc.)
// and makes testing with mocks straightforward.
type Repository interface {
	OrderRepository
	ReceiptRepository
	OverrideRepository
	PaymentRepository
	Close() error
}

// OrderRepository handles order persistence.
type OrderRepository interface {
	// SaveOrder inserts or updates an order with its members and items
	SaveOrder(order *OrderRecord) error

	// GetOrder retrieves an order by id; ErrNotFound when absent
	GetOrder(orderID string) (*OrderRecord, error)

	// ListOrders returns orders matching the given filters with pagination
	ListOrders(filters OrderFilters) (*OrderListResult, error)

	// DeleteOrder removes an order and all dependent records
	DeleteOrder(orderID string) error
}

// OrderFilters defines filters for listing orders
type OrderFilters struct {
	Status string // Filter by status (empty = all)
	Limit  int    // Max results (0 = default 50)
	Offset int    // Pagination offset
}

// OrderListResult contains paginated order results
type OrderListResult struct {
	Orders     []*OrderRecord `json:"orders"`
	TotalCount int            `json:"total_count"`
	Limit      int            `json:"limit"`
	Offset     int            `json:"offset"`
}

// ReceiptRepository handles attached receipt persistence.
type ReceiptRepository interface {
	// SaveReceipt inserts or updates the receipt for an order
	SaveReceipt(receipt *ReceiptRecord) error

	// GetReceipt retrieves the receipt for an order; ErrNotFound when absent
	GetReceipt(orderID string) (*ReceiptRecord, error)
}

// OverrideRepository handles receipt-review override sets.
type OverrideRepository interface {
	// SaveOverrides replaces the full override set for an order
	SaveOverrides(rec *OverrideRecord) error

	// GetOverrides retrieves the override set for an order.
	// Returns an empty set, not ErrNotFound, when none was ever saved.
	GetOverrides(orderID string) (*OverrideRecord, error)
}

// PaymentRepository handles recorded payments.
type PaymentRepository interface {
	// SavePayments replaces the full payment list for an order
	SavePayments(orderID string, payments []PaymentRecord) error

	// GetPayments retrieves all payments for an order
	GetPayments(orderID string) ([]PaymentRecord, error)
}
