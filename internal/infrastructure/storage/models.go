package storage

import "time"

// Order lifecycle statuses. CANCELLED and PAID are terminal.
const (
	StatusOpen      = "OPEN"
	StatusClosed    = "CLOSED"
	StatusPaid      = "PAID"
	StatusCancelled = "CANCELLED"
)

// Member is a participant in a group order.
type Member struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// ItemAddon is an extra charge attached to an order item.
type ItemAddon struct {
	Name       string `json:"name"`
	PriceCents int64  `json:"price_cents"`
}

// OrderItem is one line item as recorded at add time. UnitPriceCents is the
// price at order and is never rewritten; receipt corrections live in the
// override set instead.
type OrderItem struct {
	ID                string      `json:"id"`
	OwnerID           string      `json:"owner_id"`
	Name              string      `json:"name"`
	Quantity          int         `json:"quantity"`
	UnitPriceCents    int64       `json:"unit_price_cents"`
	VariantName       string      `json:"variant_name,omitempty"`
	VariantDeltaCents int64       `json:"variant_delta_cents"`
	Addons            []ItemAddon `json:"addons,omitempty"`
}

// OrderRecord is a group order with its members and line items.
// Members and items are stored as JSON columns.
type OrderRecord struct {
	ID         string      `json:"id"`
	Name       string      `json:"name"`
	Restaurant string      `json:"restaurant,omitempty"`
	Currency   string      `json:"currency"`
	Status     string      `json:"status"`
	CreatedAt  time.Time   `json:"created_at"`
	UpdatedAt  time.Time   `json:"updated_at"`
	Members    []Member    `json:"members"`
	Items      []OrderItem `json:"items"`
}

// MemberByID returns the member with the given id, if present.
func (o *OrderRecord) MemberByID(id string) (Member, bool) {
	for _, m := range o.Members {
		if m.ID == id {
			return m, true
		}
	}
	return Member{}, false
}

// ScannedLine is one line item as read off an attached receipt.
type ScannedLine struct {
	Name            string `json:"name"`
	Quantity        int    `json:"quantity"`
	TotalPriceCents int64  `json:"total_price_cents"`
}

// ReceiptRecord is the parsed receipt attached to a closed order.
// All amounts are integer cents.
type ReceiptRecord struct {
	OrderID          string        `json:"order_id"`
	SubtotalCents    int64         `json:"subtotal_cents"`
	TaxCents         int64         `json:"tax_cents"`
	ServiceFeeCents  int64         `json:"service_fee_cents"`
	DeliveryFeeCents int64         `json:"delivery_fee_cents"`
	TotalCents       int64         `json:"total_cents"`
	ScannedItems     []ScannedLine `json:"scanned_items"`
	AttachedAt       time.Time     `json:"attached_at"`
	UpdatedAt        time.Time     `json:"updated_at"`
}

// PriceOverride replaces an order item's effective unit price during
// receipt review.
type PriceOverride struct {
	ItemID     string `json:"item_id"`
	PriceCents int64  `json:"price_cents"`
}

// ExtraEntry is a manually added item from receipt review, assigned to a
// member but absent from the original order.
type ExtraEntry struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	PriceCents int64  `json:"price_cents"`
	MemberID   string `json:"member_id"`
}

// OverrideRecord is the complete override set for an order. Saving replaces
// the previous set wholesale.
type OverrideRecord struct {
	OrderID   string          `json:"order_id"`
	Prices    []PriceOverride `json:"prices"`
	Extras    []ExtraEntry    `json:"extras"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// PaymentRecord is the amount one member actually paid toward an order.
type PaymentRecord struct {
	OrderID     string `json:"order_id"`
	MemberID    string `json:"member_id"`
	AmountCents int64  `json:"amount_cents"`
}
