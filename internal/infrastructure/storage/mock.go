package storage

import "sort"

// MockRepository is an in-memory implementation of Repository for testing.
// It stores all data in maps, making tests fast and isolated.
type MockRepository struct {
	orders    map[string]*OrderRecord
	receipts  map[string]*ReceiptRecord
	overrides map[string]*OverrideRecord
	payments  map[string][]PaymentRecord

	// Hooks for test assertions
	SaveOrderCalled     bool
	LastSavedOrder      *OrderRecord
	SaveReceiptCalled   bool
	LastSavedReceipt    *ReceiptRecord
	SaveOverridesCalled bool
	SavePaymentsCalled  bool

	// Error injection for testing error paths
	SaveOrderErr     error
	GetOrderErr      error
	SaveReceiptErr   error
	SaveOverridesErr error
	SavePaymentsErr  error
}

// NewMockRepository creates a new mock repository for testing
func NewMockRepository() *MockRepository {
	return &MockRepository{
		orders:    make(map[string]*OrderRecord),
		receipts:  make(map[string]*ReceiptRecord),
		overrides: make(map[string]*OverrideRecord),
		payments:  make(map[string][]PaymentRecord),
	}
}

// Compile-time check that MockRepository implements Repository
var _ Repository = (*MockRepository)(nil)

// Close does nothing for mock
func (m *MockRepository) Close() error {
	return nil
}

// SaveOrder saves an order to the in-memory map
func (m *MockRepository) SaveOrder(order *OrderRecord) error {
	m.SaveOrderCalled = true
	m.LastSavedOrder = order
	if m.SaveOrderErr != nil {
		return m.SaveOrderErr
	}
	// Deep copy to avoid test mutations
	copied := *order
	copied.Members = append([]Member(nil), order.Members...)
	copied.Items = append([]OrderItem(nil), order.Items...)
	m.orders[order.ID] = &copied
	return nil
}

// GetOrder retrieves an order from the in-memory map
func (m *MockRepository) GetOrder(orderID string) (*OrderRecord, error) {
	if m.GetOrderErr != nil {
		return nil, m.GetOrderErr
	}
	order, ok := m.orders[orderID]
	if !ok {
		return nil, ErrNotFound
	}
	copied := *order
	copied.Members = append([]Member(nil), order.Members...)
	copied.Items = append([]OrderItem(nil), order.Items...)
	return &copied, nil
}

// ListOrders returns orders matching the given filters with pagination
func (m *MockRepository) ListOrders(filters OrderFilters) (*OrderListResult, error) {
	var matching []*OrderRecord
	for _, o := range m.orders {
		if filters.Status != "" && o.Status != filters.Status {
			continue
		}
		matching = append(matching, o)
	}

	// Stable order for assertions, newest first like the SQLite query
	sort.Slice(matching, func(i, j int) bool {
		if matching[i].CreatedAt.Equal(matching[j].CreatedAt) {
			return matching[i].ID < matching[j].ID
		}
		return matching[i].CreatedAt.After(matching[j].CreatedAt)
	})

	limit := filters.Limit
	if limit == 0 {
		limit = 50
	}

	total := len(matching)
	start := filters.Offset
	if start > total {
		start = total
	}
	end := start + limit
	if end > total {
		end = total
	}

	return &OrderListResult{
		Orders:     matching[start:end],
		TotalCount: total,
		Limit:      limit,
		Offset:     filters.Offset,
	}, nil
}

// DeleteOrder removes an order and all dependent records
func (m *MockRepository) DeleteOrder(orderID string) error {
	if _, ok := m.orders[orderID]; !ok {
		return ErrNotFound
	}
	delete(m.orders, orderID)
	delete(m.receipts, orderID)
	delete(m.overrides, orderID)
	delete(m.payments, orderID)
	return nil
}

// SaveReceipt saves a receipt to the in-memory map
func (m *MockRepository) SaveReceipt(receipt *ReceiptRecord) error {
	m.SaveReceiptCalled = true
	m.LastSavedReceipt = receipt
	if m.SaveReceiptErr != nil {
		return m.SaveReceiptErr
	}
	copied := *receipt
	copied.ScannedItems = append([]ScannedLine(nil), receipt.ScannedItems...)
	m.receipts[receipt.OrderID] = &copied
	return nil
}

// GetReceipt retrieves a receipt from the in-memory map
func (m *MockRepository) GetReceipt(orderID string) (*ReceiptRecord, error) {
	receipt, ok := m.receipts[orderID]
	if !ok {
		return nil, ErrNotFound
	}
	copied := *receipt
	copied.ScannedItems = append([]ScannedLine(nil), receipt.ScannedItems...)
	return &copied, nil
}

// SaveOverrides replaces the override set for an order
func (m *MockRepository) SaveOverrides(rec *OverrideRecord) error {
	m.SaveOverridesCalled = true
	if m.SaveOverridesErr != nil {
		return m.SaveOverridesErr
	}
	copied := *rec
	copied.Prices = append([]PriceOverride(nil), rec.Prices...)
	copied.Extras = append([]ExtraEntry(nil), rec.Extras...)
	m.overrides[rec.OrderID] = &copied
	return nil
}

// GetOverrides retrieves the override set for an order
func (m *MockRepository) GetOverrides(orderID string) (*OverrideRecord, error) {
	rec, ok := m.overrides[orderID]
	if !ok {
		return &OverrideRecord{OrderID: orderID}, nil
	}
	copied := *rec
	copied.Prices = append([]PriceOverride(nil), rec.Prices...)
	copied.Extras = append([]ExtraEntry(nil), rec.Extras...)
	return &copied, nil
}

// SavePayments replaces the full payment list for an order
func (m *MockRepository) SavePayments(orderID string, payments []PaymentRecord) error {
	m.SavePaymentsCalled = true
	if m.SavePaymentsErr != nil {
		return m.SavePaymentsErr
	}
	m.payments[orderID] = append([]PaymentRecord(nil), payments...)
	return nil
}

// GetPayments retrieves all payments for an order
func (m *MockRepository) GetPayments(orderID string) ([]PaymentRecord, error) {
	payments := append([]PaymentRecord(nil), m.payments[orderID]...)
	sort.SliceStable(payments, func(i, j int) bool {
		return payments[i].MemberID < payments[j].MemberID
	})
	return payments, nil
}

// AddOrder adds an order directly (for test setup)
func (m *MockRepository) AddOrder(order *OrderRecord) {
	m.orders[order.ID] = order
}

// Reset clears all data and flags (for reuse between tests)
func (m *MockRepository) Reset() {
	m.orders = make(map[string]*OrderRecord)
	m.receipts = make(map[string]*ReceiptRecord)
	m.overrides = make(map[string]*OverrideRecord)
	m.payments = make(map[string][]PaymentRecord)
	m.SaveOrderCalled = false
	m.LastSavedOrder = nil
	m.SaveReceiptCalled = false
	m.LastSavedReceipt = nil
	m.SaveOverridesCalled = false
	m.SavePaymentsCalled = false
	m.SaveOrderErr = nil
	m.GetOrderErr = nil
	m.SaveReceiptErr = nil
	m.SaveOverridesErr = nil
	m.SavePaymentsErr = nil
}
