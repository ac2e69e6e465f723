package reconcile

import (
	"github.com/tabsplit/tabsplit-backend/internal/domain/allocation"
	"github.com/tabsplit/tabsplit-backend/internal/domain/money"
)

// ScannedItem is one line from a parsed receipt: whatever the external
// receipt scanner produced for a row of the bill.
type ScannedItem struct {
	Name       string
	Quantity   int
	TotalPrice money.Money
}

// Match pairs a scanned receipt line with the order line item it was
// recognized as. A scanned item is either here or in Unmatched, never both
// and never dropped.
type Match struct {
	OrderItemID string
	Scanned     ScannedItem
	NameScore   float64
}

// MatchResult is the outcome of pairing scanned receipt lines against the
// order's items. Unmatched lines are surfaced for manual assignment.
type MatchResult struct {
	Matched   []Match
	Unmatched []ScannedItem
}

// OverrideSet is the correction layer produced during receipt review.
// It replaces any previous set rather than accumulating: submitting a set
// without a previously added extra item removes it, and clearing the set
// reverts every item to its recorded order-time price.
type OverrideSet struct {
	// Prices maps an order item id to a replacement for its entire
	// effective unit price (base + variant + addons).
	Prices map[string]money.Money

	// Extras are manual items added during review, each assigned to a member.
	Extras []allocation.ExtraItem
}

// CorrectedState is the item set that allocation should run on after a
// round of receipt review. The original line items are carried through
// untouched; the overrides live alongside them.
type CorrectedState struct {
	Items    []allocation.LineItem
	Extras   []allocation.ExtraItem
	Prices   map[string]money.Money
	Subtotal money.Money
}

// TotalCheck reports whether the receipt's stated total is accounted for by
// the corrected items plus fees. A mismatch is a flagged, correctable
// condition, not an error; only settlement refuses to run on top of one.
type TotalCheck struct {
	Expected   money.Money // recomputed subtotal + fees
	Stated     money.Money // total printed on the receipt
	Difference money.Money // stated − expected
	Matches    bool
}
