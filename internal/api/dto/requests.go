package dto

// CreateOrderRequest starts a new group order.
type CreateOrderRequest struct {
	Name       string              `json:"name"`
	Restaurant string              `json:"restaurant,omitempty"`
	Members    []CreateMemberEntry `json:"members"`
}

// CreateMemberEntry names one participant of a new order.
type CreateMemberEntry struct {
	Name string `json:"name"`
}

// AddItemRequest adds a line item to an open order.
// All amounts are decimal, e.g. 45.50.
type AddItemRequest struct {
	OwnerID      string       `json:"owner_id"`
	Name         string       `json:"name"`
	Quantity     int          `json:"quantity"`
	UnitPrice    float64      `json:"unit_price"`
	VariantName  string       `json:"variant_name,omitempty"`
	VariantDelta float64      `json:"variant_delta,omitempty"`
	Addons       []AddonEntry `json:"addons,omitempty"`
}

// AddonEntry is one addon on an item being added.
type AddonEntry struct {
	Name  string  `json:"name"`
	Price float64 `json:"price"`
}

// AttachReceiptRequest posts the structured output of the receipt scanner.
type AttachReceiptRequest struct {
	Subtotal     float64            `json:"subtotal"`
	Tax          float64            `json:"tax"`
	ServiceFee   float64            `json:"service_fee"`
	DeliveryFee  float64            `json:"delivery_fee"`
	Total        float64            `json:"total"`
	ScannedItems []ScannedItemEntry `json:"scanned_items,omitempty"`
}

// ScannedItemEntry is one line off the scanned receipt.
type ScannedItemEntry struct {
	Name       string  `json:"name"`
	Quantity   int     `json:"quantity"`
	TotalPrice float64 `json:"total_price"`
}

// UpdateFeesRequest edits the receipt's fee lines; the grand total is
// re-derived as subtotal + fees.
type UpdateFeesRequest struct {
	Tax         float64 `json:"tax"`
	ServiceFee  float64 `json:"service_fee"`
	DeliveryFee float64 `json:"delivery_fee"`
}

// UpdateTotalRequest edits the receipt's grand total; the subtotal is
// back-derived as total minus the current fees.
type UpdateTotalRequest struct {
	Total float64 `json:"total"`
}

// SetOverridesRequest replaces the complete override set for an order.
// Prices maps order item ids to corrected unit prices.
type SetOverridesRequest struct {
	Prices map[string]float64 `json:"prices,omitempty"`
	Extras []ExtraItemEntry   `json:"extras,omitempty"`
}

// ExtraItemEntry is a manual item added during receipt review.
type ExtraItemEntry struct {
	Name     string  `json:"name"`
	Price    float64 `json:"price"`
	MemberID string  `json:"member_id"`
}

// RecordPaymentsRequest replaces the full payment list for an order.
type RecordPaymentsRequest struct {
	Payments []PaymentEntry `json:"payments"`
}

// PaymentEntry is one member's recorded payment.
type PaymentEntry struct {
	MemberID string  `json:"member_id"`
	Amount   float64 `json:"amount"`
}
