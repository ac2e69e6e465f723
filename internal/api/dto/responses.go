package dto

import "time"

// HealthResponse is returned by the health check endpoint.
type HealthResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
}

// NewHealthResponse creates a health response with current timestamp.
func NewHealthResponse() HealthResponse {
	return HealthResponse{
		Status:    "ok",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}
}

// MemberResponse represents one order participant.
type MemberResponse struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// AddonResponse represents an addon on an order item.
type AddonResponse struct {
	Name  string  `json:"name"`
	Price float64 `json:"price"`
}

// OrderItemResponse represents a line item in API responses.
// Amounts are decimal in the order's currency.
type OrderItemResponse struct {
	ID           string          `json:"id"`
	OwnerID      string          `json:"owner_id"`
	Name         string          `json:"name"`
	Quantity     int             `json:"quantity"`
	UnitPrice    float64         `json:"unit_price"`
	VariantName  string          `json:"variant_name,omitempty"`
	VariantDelta float64         `json:"variant_delta,omitempty"`
	Addons       []AddonResponse `json:"addons,omitempty"`
}

// OrderResponse represents an order in API responses.
type OrderResponse struct {
	ID         string              `json:"id"`
	Name       string              `json:"name"`
	Restaurant string              `json:"restaurant,omitempty"`
	Currency   string              `json:"currency"`
	Status     string              `json:"status"`
	CreatedAt  string              `json:"created_at"`
	UpdatedAt  string              `json:"updated_at"`
	Members    []MemberResponse    `json:"members"`
	Items      []OrderItemResponse `json:"items"`
}

// OrderListResponse is returned when listing orders.
type OrderListResponse struct {
	Orders     []OrderResponse `json:"orders"`
	TotalCount int             `json:"total_count"`
	Limit      int             `json:"limit"`
	Offset     int             `json:"offset"`
}

// ScannedItemResponse is one line off the scanned receipt.
type ScannedItemResponse struct {
	Name       string  `json:"name"`
	Quantity   int     `json:"quantity"`
	TotalPrice float64 `json:"total_price"`
}

// ReceiptResponse represents the attached receipt.
type ReceiptResponse struct {
	OrderID      string                `json:"order_id"`
	Subtotal     float64               `json:"subtotal"`
	Tax          float64               `json:"tax"`
	ServiceFee   float64               `json:"service_fee"`
	DeliveryFee  float64               `json:"delivery_fee"`
	Total        float64               `json:"total"`
	ScannedItems []ScannedItemResponse `json:"scanned_items,omitempty"`
}

// MatchResponse pairs a scanned line with the order item it was recognized as.
type MatchResponse struct {
	OrderItemID string              `json:"order_item_id"`
	Scanned     ScannedItemResponse `json:"scanned"`
	NameScore   float64             `json:"name_score"`
}

// AttachReceiptResponse is returned after attaching a receipt: the stored
// receipt plus the matching outcome for the review screen.
type AttachReceiptResponse struct {
	Receipt   ReceiptResponse       `json:"receipt"`
	Matched   []MatchResponse       `json:"matched"`
	Unmatched []ScannedItemResponse `json:"unmatched"`
}

// OverridesResponse is the stored override set.
type OverridesResponse struct {
	OrderID string              `json:"order_id"`
	Prices  map[string]float64  `json:"prices"`
	Extras  []ExtraItemResponse `json:"extras"`
}

// ExtraItemResponse is a stored manual extra item.
type ExtraItemResponse struct {
	ID       string  `json:"id"`
	Name     string  `json:"name"`
	Price    float64 `json:"price"`
	MemberID string  `json:"member_id"`
}

// PaymentResponse is one recorded payment.
type PaymentResponse struct {
	MemberID string  `json:"member_id"`
	Amount   float64 `json:"amount"`
}

// PaymentListResponse is returned when reading or replacing payments.
type PaymentListResponse struct {
	OrderID  string            `json:"order_id"`
	Payments []PaymentResponse `json:"payments"`
}

// ItemShareResponse is one priced item in a member's split breakdown.
type ItemShareResponse struct {
	ItemID        string  `json:"item_id"`
	Name          string  `json:"name"`
	Quantity      int     `json:"quantity"`
	OriginalPrice float64 `json:"original_price"`
	CurrentPrice  float64 `json:"current_price"`
}

// MemberSplitResponse is one member's share of the order.
type MemberSplitResponse struct {
	MemberID          string              `json:"member_id"`
	MemberName        string              `json:"member_name"`
	ItemsTotal        float64             `json:"items_total"`
	SharedCostPortion float64             `json:"shared_cost_portion"`
	Total             float64             `json:"total"`
	Items             []ItemShareResponse `json:"items"`
}

// TotalCheckResponse reports whether the receipt's stated total is accounted
// for. A mismatch is flagged here, not raised as an HTTP error.
type TotalCheckResponse struct {
	Expected   float64 `json:"expected"`
	Stated     float64 `json:"stated"`
	Difference float64 `json:"difference"`
	Matches    bool    `json:"matches"`
}

// SplitResponse is the recomputed per-member split for an order.
type SplitResponse struct {
	OrderID    string                `json:"order_id"`
	Currency   string                `json:"currency"`
	Members    []MemberSplitResponse `json:"members"`
	Subtotal   float64               `json:"subtotal"`
	SharedCost float64               `json:"shared_cost"`
	Total      float64               `json:"total"`
	TotalCheck *TotalCheckResponse   `json:"total_check,omitempty"`
	Unmatched  []ScannedItemResponse `json:"unmatched,omitempty"`
}

// TransferResponse is one settlement instruction.
type TransferResponse struct {
	From   string  `json:"from"`
	To     string  `json:"to"`
	Amount float64 `json:"amount"`
}

// SettlementResponse is the computed settlement plan. When Balanced is false
// Transfers is empty and Discrepancy holds paid minus owed.
type SettlementResponse struct {
	OrderID     string             `json:"order_id"`
	Transfers   []TransferResponse `json:"transfers"`
	Balanced    bool               `json:"balanced"`
	Discrepancy float64            `json:"discrepancy"`
}
